package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/lox/vaervarsel/internal/forecast"
	"github.com/lox/vaervarsel/internal/ingest"
	"github.com/lox/vaervarsel/internal/models"
)

const staleThreshold = 2 * time.Hour

type displayQuery struct {
	Unit  string `validate:"omitempty,oneof=C F"`
	Theme string `validate:"omitempty,oneof=light dark"`
}

func (q displayQuery) unit() forecast.Unit {
	if q.Unit == string(forecast.Fahrenheit) {
		return forecast.Fahrenheit
	}
	return forecast.Celsius
}

func (q displayQuery) theme() forecast.Theme {
	if q.Theme == string(forecast.ThemeDark) {
		return forecast.ThemeDark
	}
	return forecast.ThemeLight
}

type dayQuery struct {
	displayQuery
	Date string `validate:"required,datetime=2006-01-02"`
}

type seriesQuery struct {
	Kind string `validate:"required,oneof=temperature precipitation wind"`
	Date string `validate:"omitempty,datetime=2006-01-02"`
}

type iconQuery struct {
	Symbol string `validate:"required,max=64"`
	Theme  string `validate:"omitempty,oneof=light dark"`
	Hour   *int   `validate:"omitempty,min=0,max=23"`
}

type backgroundQuery struct {
	Temp   *float64 `validate:"omitempty,min=-100,max=70"`
	Symbol string   `validate:"omitempty,max=64"`
	Theme  string   `validate:"omitempty,oneof=light dark"`
	Hour   *int     `validate:"omitempty,min=0,max=23"`
}

func parseDisplay(r *http.Request) displayQuery {
	return displayQuery{Unit: r.URL.Query().Get("unit"), Theme: r.URL.Query().Get("theme")}
}

func parseHour(r *http.Request) (*int, error) {
	raw := r.URL.Query().Get("hour")
	if raw == "" {
		return nil, nil
	}
	h, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Server) hourOr(h *int) int {
	if h != nil {
		return *h
	}
	return s.now().Hour()
}

// snapshot writes a 503 and returns nil until the first refresh lands.
func (s *Server) snapshot(w http.ResponseWriter) *models.Snapshot {
	snap := s.forecasts.Current()
	if snap == nil || snap.Forecast == nil {
		writeError(w, http.StatusServiceUnavailable, "forecast not yet available")
		return nil
	}
	return snap
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.forecasts.Current()
	if snap == nil {
		writeJSON(w, http.StatusOK, HealthStatus{Status: "warming"})
		return
	}

	age := s.clock.Since(snap.FetchedAt)
	health := HealthStatus{
		Status:       "ok",
		SnapshotID:   snap.ID,
		FetchedAt:    &snap.FetchedAt,
		AgeSeconds:   int64(age.Seconds()),
		NowcastError: snap.NowcastErr,
	}
	if age > staleThreshold {
		health.Status = "stale"
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	q := parseDisplay(r)
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	writeJSON(w, http.StatusOK, newForecastResponse(snap, q.unit(), q.theme(), s.now().Hour()))
}

func (s *Server) handleAPIDay(w http.ResponseWriter, r *http.Request) {
	q := dayQuery{displayQuery: parseDisplay(r), Date: r.URL.Query().Get("date")}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := time.ParseInLocation(time.DateOnly, q.Date, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	view, err := s.days.Resolve(snap.Forecast, date)
	if errors.Is(err, forecast.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newDayResponse(view, date, s.days.IsToday(date), q.unit(), q.theme(), s.now().Hour()))
}

func (s *Server) handleAPISeries(w http.ResponseWriter, r *http.Request) {
	q := seriesQuery{Kind: r.URL.Query().Get("kind"), Date: r.URL.Query().Get("date")}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := s.now()
	date := now
	if q.Date != "" {
		var err error
		if date, err = time.ParseInLocation(time.DateOnly, q.Date, s.loc); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	points := forecast.Series(forecast.SeriesKind(q.Kind), snap.Forecast, snap.Nowcast, date, now, s.loc)
	if points == nil {
		points = []models.SeriesPoint{}
	}
	writeJSON(w, http.StatusOK, SeriesResponse{
		Kind:   forecast.SeriesKind(q.Kind),
		Date:   date.Format(time.DateOnly),
		Points: points,
	})
}

func (s *Server) handleAPIIcon(w http.ResponseWriter, r *http.Request) {
	hour, err := parseHour(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "hour: "+err.Error())
		return
	}
	q := iconQuery{Symbol: r.URL.Query().Get("symbol"), Theme: r.URL.Query().Get("theme"), Hour: hour}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	icon := forecast.ResolveIcon(q.Symbol, displayQuery{Theme: q.Theme}.theme(), s.hourOr(q.Hour))
	writeJSON(w, http.StatusOK, IconResponse{Family: icon.Family, Variant: icon.Variant, Path: icon.Path()})
}

func (s *Server) handleAPIBackground(w http.ResponseWriter, r *http.Request) {
	hour, err := parseHour(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "hour: "+err.Error())
		return
	}
	q := backgroundQuery{Symbol: r.URL.Query().Get("symbol"), Theme: r.URL.Query().Get("theme"), Hour: hour}
	if raw := r.URL.Query().Get("temp"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "temp: "+err.Error())
			return
		}
		q.Temp = &t
	}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	theme := displayQuery{Theme: q.Theme}.theme()
	writeJSON(w, http.StatusOK, newBackgroundView(q.Temp, q.Symbol, theme, s.hourOr(q.Hour)))
}

func (s *Server) handleAPIRefresh(w http.ResponseWriter, r *http.Request) {
	q := parseDisplay(r)
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err := s.forecasts.Refresh(r.Context())
	if err != nil && !errors.Is(err, ingest.ErrStaleRefresh) {
		log.Printf("server: refresh: %v", err)
		if s.forecasts.Current() == nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	writeJSON(w, http.StatusOK, newForecastResponse(snap, q.unit(), q.theme(), s.now().Hour()))
}
