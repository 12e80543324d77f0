package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/vaervarsel/internal/forecast"
	"github.com/lox/vaervarsel/internal/models"
)

var validate = validator.New()

// Forecasts supplies the published snapshot and triggers refreshes.
type Forecasts interface {
	Current() *models.Snapshot
	Refresh(ctx context.Context) (*models.Snapshot, error)
}

type Server struct {
	forecasts Forecasts
	port      string
	loc       *time.Location
	clock     clockwork.Clock
	days      *forecast.DayResolver
}

func NewServer(forecasts Forecasts, port string, loc *time.Location, clock clockwork.Clock) *Server {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Server{
		forecasts: forecasts,
		port:      port,
		loc:       loc,
		clock:     clock,
		days:      forecast.NewDayResolver(loc, clock),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/forecast", s.handleAPIForecast)
	mux.HandleFunc("GET /api/day", s.handleAPIDay)
	mux.HandleFunc("GET /api/series", s.handleAPISeries)
	mux.HandleFunc("GET /api/icon", s.handleAPIIcon)
	mux.HandleFunc("GET /api/background", s.handleAPIBackground)
	mux.HandleFunc("POST /api/refresh", s.handleAPIRefresh)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("server: listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
