package forecast

import (
	"fmt"
	"time"

	"github.com/lox/vaervarsel/internal/models"
)

// SeriesKind selects which hourly quantity a chart series carries.
type SeriesKind string

const (
	SeriesTemperature   SeriesKind = "temperature"
	SeriesPrecipitation SeriesKind = "precipitation"
	SeriesWind          SeriesKind = "wind"
)

const (
	maxSeriesPoints = 24
	nowcastHorizon  = 2 * time.Hour
)

func (k SeriesKind) Valid() bool {
	switch k {
	case SeriesTemperature, SeriesPrecipitation, SeriesWind:
		return true
	}
	return false
}

// Series builds the chart points for the selected date. For today's
// precipitation the first two hours come from the nowcast when one is
// available; otherwise the hourly forecast is used throughout.
func Series(kind SeriesKind, fc *models.NormalizedForecast, nowcast []models.NowcastEntry, selected, now time.Time, loc *time.Location) []models.SeriesPoint {
	if fc == nil || len(fc.Hourly) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	var day []models.HourlyPoint
	for _, p := range fc.Hourly {
		if SameDay(p.CalendarDate, selected, loc) {
			day = append(day, p)
			if len(day) == maxSeriesPoints {
				break
			}
		}
	}

	switch kind {
	case SeriesTemperature:
		return hourlySeries(day, "°C", func(p models.HourlyPoint) float64 { return p.Temperature })
	case SeriesWind:
		return hourlySeries(day, "m/s", func(p models.HourlyPoint) float64 { return nullOr(p.WindSpeed, 0) })
	case SeriesPrecipitation:
		if SameDay(selected, now, loc) && len(nowcast) > 0 {
			return mergedPrecipitation(day, nowcast, now, loc)
		}
		return hourlySeries(day, "mm", func(p models.HourlyPoint) float64 { return p.Precipitation })
	}
	return nil
}

func hourlySeries(points []models.HourlyPoint, unit string, value func(models.HourlyPoint) float64) []models.SeriesPoint {
	series := make([]models.SeriesPoint, 0, len(points))
	for _, p := range points {
		series = append(series, models.SeriesPoint{
			Label: hourLabel(p.HourOfDay),
			Value: value(p),
			Unit:  unit,
		})
	}
	return series
}

func mergedPrecipitation(day []models.HourlyPoint, nowcast []models.NowcastEntry, now time.Time, loc *time.Location) []models.SeriesPoint {
	cutoff := now.Add(nowcastHorizon)

	var hours []int
	sums := make(map[int]float64)
	for _, n := range nowcast {
		if n.Time.After(cutoff) {
			continue
		}
		hour := n.Time.In(loc).Hour()
		if _, ok := sums[hour]; !ok {
			hours = append(hours, hour)
		}
		sums[hour] += n.Precipitation
	}

	series := make([]models.SeriesPoint, 0, len(hours)+len(day))
	for _, h := range hours {
		series = append(series, models.SeriesPoint{Label: hourLabel(h), Value: sums[h], Unit: "mm"})
	}
	for _, p := range day {
		if p.Time.After(cutoff) {
			series = append(series, models.SeriesPoint{Label: hourLabel(p.HourOfDay), Value: p.Precipitation, Unit: "mm"})
		}
	}
	return series
}

func hourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}
