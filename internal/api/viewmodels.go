package api

import (
	"time"

	"github.com/lox/vaervarsel/internal/forecast"
	"github.com/lox/vaervarsel/internal/models"
)

// ForecastResponse is the full normalized forecast with display values.
type ForecastResponse struct {
	SnapshotID       string             `json:"snapshot_id"`
	Place            string             `json:"place"`
	Coordinates      models.Coordinates `json:"coordinates"`
	FetchedAt        time.Time          `json:"fetched_at"`
	Unit             forecast.Unit      `json:"unit"`
	NowcastAvailable bool               `json:"nowcast_available"`
	Current          CurrentView        `json:"current"`
	Hourly           []HourlyView       `json:"hourly"`
	Daily            []DailyView        `json:"daily"`
	Background       BackgroundView     `json:"background"`
}

type CurrentView struct {
	Temperature   float64   `json:"temperature"`
	Display       int       `json:"display"`
	FeelsLike     *float64  `json:"feels_like,omitempty"`
	SymbolCode    string    `json:"symbol_code"`
	Icon          string    `json:"icon"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection float64   `json:"wind_direction"`
	Pressure      float64   `json:"pressure"`
	Cloudiness    float64   `json:"cloudiness"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type HourlyView struct {
	Time          time.Time `json:"time"`
	Temperature   float64   `json:"temperature"`
	Display       int       `json:"display"`
	SymbolCode    string    `json:"symbol_code"`
	Icon          string    `json:"icon"`
	Precipitation float64   `json:"precipitation"`
	WindSpeed     *float64  `json:"wind_speed,omitempty"`
	Humidity      *float64  `json:"humidity,omitempty"`
}

type DailyView struct {
	Date               string  `json:"date"`
	MaxTemp            float64 `json:"max_temp"`
	MinTemp            float64 `json:"min_temp"`
	MaxDisplay         int     `json:"max_display"`
	MinDisplay         int     `json:"min_display"`
	SymbolCode         string  `json:"symbol_code"`
	Icon               string  `json:"icon"`
	TotalPrecipitation float64 `json:"total_precipitation"`
}

// DayResponse is the selected-day view used by the hero section.
type DayResponse struct {
	Date             string         `json:"date"`
	Today            bool           `json:"today"`
	Unit             forecast.Unit  `json:"unit"`
	Temperature      float64        `json:"temperature"`
	Display          int            `json:"display"`
	FeelsLike        float64        `json:"feels_like"`
	FeelsLikeDisplay int            `json:"feels_like_display"`
	SymbolCode       string         `json:"symbol_code"`
	Icon             string         `json:"icon"`
	Humidity         float64        `json:"humidity"`
	WindSpeed        float64        `json:"wind_speed"`
	WindKmh          float64        `json:"wind_kmh"`
	Background       BackgroundView `json:"background"`
}

type SeriesResponse struct {
	Kind   forecast.SeriesKind  `json:"kind"`
	Date   string               `json:"date"`
	Points []models.SeriesPoint `json:"points"`
}

type IconResponse struct {
	Family  string           `json:"family"`
	Variant forecast.Variant `json:"variant"`
	Path    string           `json:"path"`
}

type BackgroundView struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

type HealthStatus struct {
	Status       string     `json:"status"`
	SnapshotID   string     `json:"snapshot_id,omitempty"`
	FetchedAt    *time.Time `json:"fetched_at,omitempty"`
	AgeSeconds   int64      `json:"age_seconds,omitempty"`
	NowcastError string     `json:"nowcast_error,omitempty"`
}

func newForecastResponse(snap *models.Snapshot, unit forecast.Unit, theme forecast.Theme, hour int) ForecastResponse {
	fc := snap.Forecast
	cur := fc.Current

	resp := ForecastResponse{
		SnapshotID:       snap.ID,
		Place:            snap.PlaceName,
		Coordinates:      snap.Coordinates,
		FetchedAt:        snap.FetchedAt,
		Unit:             unit,
		NowcastAvailable: snap.NowcastErr == "" && len(snap.Nowcast) > 0,
		Current: CurrentView{
			Temperature:   cur.Temperature,
			Display:       forecast.DisplayTemperature(cur.Temperature, unit),
			FeelsLike:     nullPtr(cur.FeelsLike.Float64, cur.FeelsLike.Valid),
			SymbolCode:    cur.SymbolCode,
			Icon:          forecast.ResolveIcon(cur.SymbolCode, theme, hour).Path(),
			Humidity:      cur.Humidity,
			WindSpeed:     cur.WindSpeed,
			WindDirection: cur.WindDirection,
			Pressure:      cur.Pressure,
			Cloudiness:    cur.Cloudiness,
			UpdatedAt:     cur.UpdatedAt,
		},
		Hourly: make([]HourlyView, 0, len(fc.Hourly)),
		Daily:  make([]DailyView, 0, len(fc.Daily)),
	}

	for _, p := range fc.Hourly {
		resp.Hourly = append(resp.Hourly, HourlyView{
			Time:          p.Time,
			Temperature:   p.Temperature,
			Display:       forecast.DisplayTemperature(p.Temperature, unit),
			SymbolCode:    p.SymbolCode,
			Icon:          forecast.ResolveIcon(p.SymbolCode, theme, p.HourOfDay).Path(),
			Precipitation: p.Precipitation,
			WindSpeed:     nullPtr(p.WindSpeed.Float64, p.WindSpeed.Valid),
			Humidity:      nullPtr(p.Humidity.Float64, p.Humidity.Valid),
		})
	}

	for _, d := range fc.Daily {
		resp.Daily = append(resp.Daily, DailyView{
			Date:               d.Date.Format(time.DateOnly),
			MaxTemp:            d.MaxTemp,
			MinTemp:            d.MinTemp,
			MaxDisplay:         forecast.DisplayTemperature(d.MaxTemp, unit),
			MinDisplay:         forecast.DisplayTemperature(d.MinTemp, unit),
			SymbolCode:         d.SymbolCode,
			Icon:               forecast.ResolveIcon(d.SymbolCode, theme, hour).Path(),
			TotalPrecipitation: d.TotalPrecipitation,
		})
	}

	temp := cur.Temperature
	resp.Background = newBackgroundView(&temp, cur.SymbolCode, theme, hour)
	return resp
}

func newDayResponse(view *models.SelectedDayView, date time.Time, today bool, unit forecast.Unit, theme forecast.Theme, hour int) DayResponse {
	temp := view.Temperature
	return DayResponse{
		Date:             date.Format(time.DateOnly),
		Today:            today,
		Unit:             unit,
		Temperature:      view.Temperature,
		Display:          forecast.DisplayTemperature(view.Temperature, unit),
		FeelsLike:        view.FeelsLike,
		FeelsLikeDisplay: forecast.DisplayTemperature(view.FeelsLike, unit),
		SymbolCode:       view.SymbolCode,
		Icon:             forecast.ResolveIcon(view.SymbolCode, theme, hour).Path(),
		Humidity:         view.Humidity,
		WindSpeed:        view.WindSpeed,
		WindKmh:          forecast.MsToKmh(view.WindSpeed),
		Background:       newBackgroundView(&temp, view.SymbolCode, theme, hour),
	}
}

func newBackgroundView(temp *float64, symbol string, theme forecast.Theme, hour int) BackgroundView {
	key := forecast.SelectBackground(temp, symbol, theme, hour)
	return BackgroundView{Key: key, Path: forecast.BackgroundPath(key)}
}

func nullPtr(v float64, valid bool) *float64 {
	if !valid {
		return nil
	}
	return &v
}
