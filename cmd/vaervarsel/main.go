package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/lox/vaervarsel/internal/geocode"
	"github.com/lox/vaervarsel/internal/httputil"
	"github.com/lox/vaervarsel/internal/ingest"
	"github.com/lox/vaervarsel/internal/location"
)

// Globals are shared by every command.
type Globals struct {
	Latitude    float64 `help:"Latitude to forecast for." default:"59.9139" env:"VAERVARSEL_LAT"`
	Longitude   float64 `help:"Longitude to forecast for." default:"10.7522" env:"VAERVARSEL_LON"`
	IPLookup    bool    `help:"Locate by public IP address instead of fixed coordinates." env:"VAERVARSEL_IP_LOOKUP"`
	IPLookupURL string  `help:"IP geolocation endpoint." default:"${ip_lookup_url}" env:"VAERVARSEL_IP_LOOKUP_URL"`

	Timezone  string `help:"IANA timezone used for calendar days." default:"Local" env:"VAERVARSEL_TZ"`
	UserAgent string `help:"User-Agent sent to MET Norway and Nominatim." default:"${user_agent}" env:"VAERVARSEL_USER_AGENT"`

	METBaseURL string                 `name:"met-url" help:"MET Norway weather API base URL." default:"${met_url}" env:"VAERVARSEL_MET_URL"`
	Variant    ingest.ForecastVariant `help:"Locationforecast product (compact or complete)." default:"compact" enum:"compact,complete" env:"VAERVARSEL_VARIANT"`
	NoNowcast  bool                   `help:"Skip the precipitation nowcast." env:"VAERVARSEL_NO_NOWCAST"`
	RateLimit  float64                `help:"Maximum MET requests per second." default:"5" env:"VAERVARSEL_RATE_LIMIT"`

	NominatimURL     string `help:"Nominatim base URL." default:"${nominatim_url}" env:"VAERVARSEL_NOMINATIM_URL"`
	GeocodeCacheSize int    `help:"Reverse geocode cache entries." default:"256" env:"VAERVARSEL_GEOCODE_CACHE"`
}

var cli struct {
	Globals

	Serve ServeCmd `cmd:"" default:"1" help:"Run the forecast API with periodic refresh."`
	Show  ShowCmd  `cmd:"" help:"Fetch once and print the forecast."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: load .env: %v", err)
	}

	ctx := kong.Parse(&cli,
		kong.Name("vaervarsel"),
		kong.Description("Weather forecast service backed by MET Norway."),
		kong.UsageOnError(),
		kong.Vars{
			"ip_lookup_url": location.DefaultIPLookupURL,
			"user_agent":    httputil.DefaultUserAgent,
			"met_url":       ingest.DefaultMETBaseURL,
			"nominatim_url": geocode.DefaultNominatimURL,
		},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

func (g *Globals) location() (*time.Location, error) {
	if g.Timezone == "" || g.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", g.Timezone, err)
	}
	return loc, nil
}

// newRefresher wires the upstream clients. A nil store disables persistence.
func (g *Globals) newRefresher(store ingest.SnapshotStore) (*ingest.Refresher, error) {
	tz, err := g.location()
	if err != nil {
		return nil, err
	}

	client := httputil.NewClient(g.UserAgent)

	var provider ingest.LocationProvider
	if g.IPLookup {
		provider = location.NewIPLookup(g.IPLookupURL, httputil.NewFetcher("iplookup", client, 1), nil)
	} else {
		static, err := location.NewStatic(g.Latitude, g.Longitude)
		if err != nil {
			return nil, err
		}
		provider = static
	}

	forecastClient, nowcastClient := ingest.NewMETClients(g.METBaseURL, g.Variant, client, g.RateLimit)
	places, err := geocode.NewNominatim(g.NominatimURL, httputil.NewFetcher("nominatim", client, 1), g.GeocodeCacheSize)
	if err != nil {
		return nil, err
	}

	cfg := ingest.RefresherConfig{
		Location: provider,
		Forecast: forecastClient,
		Places:   places,
		Store:    store,
		Source:   "met." + string(g.Variant),
		Timezone: tz,
		Clock:    clockwork.NewRealClock(),
	}
	if !g.NoNowcast {
		cfg.Nowcast = nowcastClient
	}
	return ingest.NewRefresher(cfg), nil
}
