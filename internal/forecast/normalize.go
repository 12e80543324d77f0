package forecast

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lox/vaervarsel/internal/models"
)

// MaxDailyDays covers today plus the following week.
const MaxDailyDays = 8

var (
	ErrInvalidPayload = errors.New("invalid forecast payload")
	ErrNotFound       = errors.New("no forecast for date")
)

// Normalize turns a provider timeseries into current conditions, an hourly
// series and a daily series. Calendar dates are taken in loc.
func Normalize(series []models.TimeseriesEntry, loc *time.Location) (*models.NormalizedForecast, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty timeseries", ErrInvalidPayload)
	}
	if loc == nil {
		loc = time.Local
	}

	current, err := extractCurrent(series[0])
	if err != nil {
		return nil, err
	}

	hourly := make([]models.HourlyPoint, 0, len(series))
	for _, entry := range series {
		hourly = append(hourly, toHourly(entry, loc))
	}

	return &models.NormalizedForecast{
		Current: current,
		Hourly:  hourly,
		Daily:   aggregateDaily(series, loc),
	}, nil
}

func extractCurrent(entry models.TimeseriesEntry) (models.CurrentConditions, error) {
	in := entry.Instant
	required := []struct {
		name  string
		value *float64
	}{
		{"air_temperature", in.Temperature},
		{"relative_humidity", in.Humidity},
		{"wind_speed", in.WindSpeed},
		{"wind_from_direction", in.WindDirection},
		{"air_pressure_at_sea_level", in.Pressure},
		{"cloud_area_fraction", in.Cloudiness},
	}
	for _, r := range required {
		if r.value == nil {
			return models.CurrentConditions{}, fmt.Errorf("%w: first entry missing %s", ErrInvalidPayload, r.name)
		}
	}

	current := models.CurrentConditions{
		Temperature:   *in.Temperature,
		SymbolCode:    shortRangeSymbol(entry),
		Humidity:      *in.Humidity,
		WindSpeed:     *in.WindSpeed,
		WindDirection: *in.WindDirection,
		Pressure:      *in.Pressure,
		Cloudiness:    *in.Cloudiness,
		UpdatedAt:     entry.Time,
	}

	switch {
	case in.TempPercentile10 != nil:
		current.FeelsLike = sql.NullFloat64{Float64: *in.TempPercentile10, Valid: true}
	case in.TempPercentile90 != nil:
		current.FeelsLike = sql.NullFloat64{Float64: *in.TempPercentile90, Valid: true}
	}

	return current, nil
}

func toHourly(entry models.TimeseriesEntry, loc *time.Location) models.HourlyPoint {
	local := entry.Time.In(loc)
	point := models.HourlyPoint{
		Time:         entry.Time,
		SymbolCode:   shortRangeSymbol(entry),
		HourOfDay:    local.Hour(),
		CalendarDate: CalendarDate(entry.Time, loc),
	}
	if entry.Instant.Temperature != nil {
		point.Temperature = *entry.Instant.Temperature
	}
	if entry.Instant.WindSpeed != nil {
		point.WindSpeed = sql.NullFloat64{Float64: *entry.Instant.WindSpeed, Valid: true}
	}
	if entry.Instant.Humidity != nil {
		point.Humidity = sql.NullFloat64{Float64: *entry.Instant.Humidity, Valid: true}
	}
	// Only the 1h block: 6h/12h amounts would be counted once per hourly slot.
	if entry.Next1h != nil && entry.Next1h.PrecipitationAmount != nil {
		point.Precipitation = *entry.Next1h.PrecipitationAmount
	}
	return point
}

// shortRangeSymbol prefers the shortest summary horizon.
func shortRangeSymbol(entry models.TimeseriesEntry) string {
	for _, block := range []*models.SummaryBlock{entry.Next1h, entry.Next6h, entry.Next12h} {
		if block != nil && block.SymbolCode != "" {
			return block.SymbolCode
		}
	}
	return FallbackSymbol
}

// dailySymbol prefers the longest summary horizon, which describes the day
// better than a single hour does.
func dailySymbol(entry models.TimeseriesEntry) (string, bool) {
	for _, block := range []*models.SummaryBlock{entry.Next6h, entry.Next12h, entry.Next1h} {
		if block != nil && block.SymbolCode != "" {
			return block.SymbolCode, true
		}
	}
	return "", false
}

func entryPrecipitation(entry models.TimeseriesEntry) float64 {
	if entry.Next1h != nil && entry.Next1h.PrecipitationAmount != nil {
		return *entry.Next1h.PrecipitationAmount
	}
	if entry.Next6h != nil && entry.Next6h.PrecipitationAmount != nil {
		return *entry.Next6h.PrecipitationAmount
	}
	return 0
}

type dayGroup struct {
	date    time.Time
	entries []models.TimeseriesEntry
}

func aggregateDaily(series []models.TimeseriesEntry, loc *time.Location) []models.DailyAggregate {
	var groups []*dayGroup
	byDate := make(map[string]*dayGroup)

	for _, entry := range series {
		date := CalendarDate(entry.Time, loc)
		key := date.Format(time.DateOnly)
		g, ok := byDate[key]
		if !ok {
			g = &dayGroup{date: date}
			byDate[key] = g
			groups = append(groups, g)
		}
		g.entries = append(g.entries, entry)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].date.Before(groups[j].date)
	})
	if len(groups) > MaxDailyDays {
		groups = groups[:MaxDailyDays]
	}

	daily := make([]models.DailyAggregate, 0, len(groups))
	for _, g := range groups {
		daily = append(daily, aggregateDay(g))
	}
	return daily
}

func aggregateDay(g *dayGroup) models.DailyAggregate {
	agg := models.DailyAggregate{Date: g.date}

	haveTemp := false
	var symbols []string
	for _, entry := range g.entries {
		if t := entry.Instant.Temperature; t != nil {
			if !haveTemp || *t > agg.MaxTemp {
				agg.MaxTemp = *t
			}
			if !haveTemp || *t < agg.MinTemp {
				agg.MinTemp = *t
			}
			haveTemp = true
		}
		if sym, ok := dailySymbol(entry); ok {
			symbols = append(symbols, sym)
		}
		agg.TotalPrecipitation += entryPrecipitation(entry)
	}

	agg.SymbolCode = mode(symbols)
	if agg.SymbolCode == "" {
		agg.SymbolCode = FallbackSymbol
	}
	return agg
}

// mode returns the most frequent value. On a tie the value seen first wins:
// candidates are scanned in first-seen order and only a strictly higher count
// replaces the current best.
func mode(values []string) string {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// CalendarDate truncates t to local midnight in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SameDay compares two instants by calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return CalendarDate(a, loc).Equal(CalendarDate(b, loc))
}
