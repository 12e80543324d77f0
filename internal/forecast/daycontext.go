package forecast

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lox/vaervarsel/internal/models"
)

const (
	defaultHumidity  = 50.0
	defaultWindSpeed = 0.0
)

// DayResolver produces the reading set shown for a selected date. The clock
// is only used to decide whether the selected date is today.
type DayResolver struct {
	loc   *time.Location
	clock clockwork.Clock
}

func NewDayResolver(loc *time.Location, clock clockwork.Clock) *DayResolver {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DayResolver{loc: loc, clock: clock}
}

// IsToday reports whether date falls on the current local calendar day.
func (r *DayResolver) IsToday(date time.Time) bool {
	return SameDay(date, r.clock.Now(), r.loc)
}

// Resolve returns the view for selected, or ErrNotFound when the forecast has
// no daily aggregate for that date.
func (r *DayResolver) Resolve(fc *models.NormalizedForecast, selected time.Time) (*models.SelectedDayView, error) {
	if fc == nil {
		return nil, fmt.Errorf("%w: no forecast loaded", ErrNotFound)
	}
	if r.IsToday(selected) {
		return todayView(fc.Current), nil
	}

	day, ok := findDay(fc.Daily, selected, r.loc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, CalendarDate(selected, r.loc).Format(time.DateOnly))
	}

	var points []models.HourlyPoint
	for _, p := range fc.Hourly {
		if SameDay(p.CalendarDate, selected, r.loc) {
			points = append(points, p)
		}
	}
	return otherDayView(day, points), nil
}

func todayView(c models.CurrentConditions) *models.SelectedDayView {
	feelsLike := c.FeelsLike.Float64
	if !c.FeelsLike.Valid {
		feelsLike = FeelsLike(c.Temperature, c.WindSpeed, c.Humidity)
	}
	return &models.SelectedDayView{
		Temperature: c.Temperature,
		SymbolCode:  c.SymbolCode,
		Humidity:    c.Humidity,
		WindSpeed:   c.WindSpeed,
		FeelsLike:   feelsLike,
	}
}

func otherDayView(day models.DailyAggregate, points []models.HourlyPoint) *models.SelectedDayView {
	avgTemp := (day.MaxTemp + day.MinTemp) / 2
	view := &models.SelectedDayView{
		Temperature: avgTemp,
		SymbolCode:  day.SymbolCode,
		Humidity:    defaultHumidity,
		WindSpeed:   defaultWindSpeed,
		FeelsLike:   avgTemp,
	}
	if len(points) == 0 {
		return view
	}

	var humiditySum, windSum float64
	for _, p := range points {
		humiditySum += nullOr(p.Humidity, defaultHumidity)
		windSum += nullOr(p.WindSpeed, defaultWindSpeed)
	}
	n := float64(len(points))
	view.Humidity = humiditySum / n
	view.WindSpeed = windSum / n
	view.FeelsLike = FeelsLike(avgTemp, view.WindSpeed, view.Humidity)
	return view
}

func findDay(daily []models.DailyAggregate, selected time.Time, loc *time.Location) (models.DailyAggregate, bool) {
	for _, d := range daily {
		if SameDay(d.Date, selected, loc) {
			return d, true
		}
	}
	return models.DailyAggregate{}, false
}

func nullOr(v sql.NullFloat64, def float64) float64 {
	if v.Valid {
		return v.Float64
	}
	return def
}
