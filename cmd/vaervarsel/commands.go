package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lox/vaervarsel/internal/api"
	"github.com/lox/vaervarsel/internal/forecast"
	"github.com/lox/vaervarsel/internal/ingest"
	"github.com/lox/vaervarsel/internal/models"
	"github.com/lox/vaervarsel/internal/store"
)

type ServeCmd struct {
	DB       string        `help:"Path to SQLite database." default:"data/vaervarsel.db" env:"VAERVARSEL_DB"`
	Port     string        `help:"HTTP server port." default:"8080" env:"PORT"`
	Interval time.Duration `help:"Refresh interval." default:"15m" env:"VAERVARSEL_REFRESH_INTERVAL"`
	NoPoll   bool          `help:"Disable periodic refresh (server only, for local dev)." env:"VAERVARSEL_NO_POLL"`
}

func (c *ServeCmd) Run(g *Globals) error {
	if err := os.MkdirAll(filepath.Dir(c.DB), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.Open(c.DB)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Println("database migrated")

	refresher, err := g.newRefresher(st)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := refresher.Warm(ctx); err != nil {
		log.Printf("warning: warm start: %v", err)
	}

	if !c.NoPoll {
		scheduler := ingest.NewScheduler(refresher, st, c.Interval)
		go func() {
			if err := scheduler.Run(ctx); err != nil {
				log.Printf("scheduler: %v", err)
			}
		}()
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	server := api.NewServer(refresher, c.Port, refresher.Timezone(), clockwork.NewRealClock())
	return server.Run(ctx)
}

type ShowCmd struct {
	Date       string         `help:"Day to show (YYYY-MM-DD); defaults to today."`
	Fahrenheit bool           `short:"f" help:"Show temperatures in °F."`
	Theme      forecast.Theme `help:"Icon theme." default:"light" enum:"light,dark"`
}

func (c *ShowCmd) Run(g *Globals) error {
	refresher, err := g.newRefresher(nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	snap, err := refresher.Refresh(ctx)
	if err != nil {
		return err
	}

	unit := forecast.Celsius
	if c.Fahrenheit {
		unit = forecast.Fahrenheit
	}
	tz := refresher.Timezone()
	clock := clockwork.NewRealClock()

	selected := clock.Now().In(tz)
	if c.Date != "" {
		if selected, err = time.ParseInLocation(time.DateOnly, c.Date, tz); err != nil {
			return fmt.Errorf("parse --date: %w", err)
		}
	}

	view, err := forecast.NewDayResolver(tz, clock).Resolve(snap.Forecast, selected)
	if err != nil {
		return err
	}

	return printForecast(os.Stdout, snap, view, selected, unit, c.Theme, clock.Now().In(tz).Hour())
}

func printForecast(w io.Writer, snap *models.Snapshot, view *models.SelectedDayView, selected time.Time, unit forecast.Unit, theme forecast.Theme, hour int) error {
	deg := func(c float64) string {
		return fmt.Sprintf("%d°%s", forecast.DisplayTemperature(c, unit), unit)
	}

	fmt.Fprintf(w, "%s (%.4f, %.4f)\n", snap.PlaceName, snap.Coordinates.Latitude, snap.Coordinates.Longitude)
	fmt.Fprintf(w, "%s: %s, feels like %s, %s\n", selected.Format("Mon 2 Jan"), deg(view.Temperature), deg(view.FeelsLike), view.SymbolCode)
	fmt.Fprintf(w, "  humidity %.0f%%, wind %.1f m/s (%.0f km/h)\n", view.Humidity, view.WindSpeed, forecast.MsToKmh(view.WindSpeed))
	fmt.Fprintf(w, "  icon %s, background %s\n",
		forecast.ResolveIcon(view.SymbolCode, theme, hour).Path(),
		forecast.SelectBackground(&view.Temperature, view.SymbolCode, theme, hour))
	if snap.NowcastErr != "" {
		fmt.Fprintf(w, "  nowcast unavailable: %s\n", snap.NowcastErr)
	}

	fmt.Fprintln(w)
	for _, d := range snap.Forecast.Daily {
		fmt.Fprintf(w, "%-10s %6s %6s %6.1f mm  %s\n", d.Date.Format("Mon 2 Jan"), deg(d.MaxTemp), deg(d.MinTemp), d.TotalPrecipitation, d.SymbolCode)
	}
	return nil
}
