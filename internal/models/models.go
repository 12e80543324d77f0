package models

import (
	"database/sql"
	"time"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Instant holds the instantaneous readings of a timeseries entry. Fields are
// pointers because the provider omits them freely; the normalizer decides
// which ones are required.
type Instant struct {
	Temperature      *float64
	Humidity         *float64
	WindSpeed        *float64
	WindDirection    *float64
	Pressure         *float64
	Cloudiness       *float64
	TempPercentile10 *float64
	TempPercentile90 *float64
}

type SummaryBlock struct {
	SymbolCode          string
	PrecipitationAmount *float64
}

type TimeseriesEntry struct {
	Time    time.Time
	Instant Instant
	Next1h  *SummaryBlock
	Next6h  *SummaryBlock
	Next12h *SummaryBlock
}

type NowcastEntry struct {
	Time          time.Time
	Precipitation float64
}

type HourlyPoint struct {
	Time          time.Time
	Temperature   float64
	WindSpeed     sql.NullFloat64
	Humidity      sql.NullFloat64
	Precipitation float64
	SymbolCode    string
	HourOfDay     int
	CalendarDate  time.Time // local midnight
}

type DailyAggregate struct {
	Date               time.Time // local midnight
	MaxTemp            float64
	MinTemp            float64
	SymbolCode         string
	TotalPrecipitation float64
}

type CurrentConditions struct {
	Temperature   float64
	SymbolCode    string
	Humidity      float64
	WindSpeed     float64
	WindDirection float64
	Pressure      float64
	Cloudiness    float64
	UpdatedAt     time.Time
	FeelsLike     sql.NullFloat64 // provider percentile, never computed
}

type NormalizedForecast struct {
	Current CurrentConditions
	Hourly  []HourlyPoint
	Daily   []DailyAggregate
}

type SelectedDayView struct {
	Temperature float64
	SymbolCode  string
	Humidity    float64
	WindSpeed   float64
	FeelsLike   float64
}

// Snapshot is the result of one complete refresh. It is replaced wholesale.
type Snapshot struct {
	ID          string
	Sequence    uint64
	Coordinates Coordinates
	PlaceName   string
	Forecast    *NormalizedForecast
	Nowcast     []NowcastEntry
	NowcastErr  string
	FetchedAt   time.Time
}

type SeriesPoint struct {
	Label string
	Value float64
	Unit  string
}
