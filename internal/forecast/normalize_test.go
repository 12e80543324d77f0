package forecast

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lox/vaervarsel/internal/models"
)

func f(v float64) *float64 { return &v }

func fullInstant(temp float64) models.Instant {
	return models.Instant{
		Temperature:   f(temp),
		Humidity:      f(70),
		WindSpeed:     f(3),
		WindDirection: f(180),
		Pressure:      f(1013),
		Cloudiness:    f(40),
	}
}

func block(symbol string, precip *float64) *models.SummaryBlock {
	return &models.SummaryBlock{SymbolCode: symbol, PrecipitationAmount: precip}
}

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestNormalize_Empty(t *testing.T) {
	_, err := Normalize(nil, time.UTC)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("Normalize(nil) err = %v, want ErrInvalidPayload", err)
	}
	_, err = Normalize([]models.TimeseriesEntry{}, time.UTC)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("Normalize([]) err = %v, want ErrInvalidPayload", err)
	}
}

func TestNormalize_FirstEntryMissingField(t *testing.T) {
	in := fullInstant(5)
	in.Pressure = nil
	_, err := Normalize([]models.TimeseriesEntry{{Time: at(1, 0), Instant: in}}, time.UTC)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
}

func TestNormalize_LaterEntriesMayBeSparse(t *testing.T) {
	series := []models.TimeseriesEntry{
		{Time: at(1, 0), Instant: fullInstant(5)},
		{Time: at(1, 1), Instant: models.Instant{Temperature: f(6)}},
		{Time: at(1, 2)},
	}
	fc, err := Normalize(series, time.UTC)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if fc.Hourly[1].Humidity.Valid {
		t.Error("hourly[1].Humidity should be unset")
	}
	if fc.Hourly[2].SymbolCode != FallbackSymbol {
		t.Errorf("hourly[2].SymbolCode = %q, want %q", fc.Hourly[2].SymbolCode, FallbackSymbol)
	}
}

func TestNormalize_HourlyLengthMatchesInput(t *testing.T) {
	for _, n := range []int{1, 2, 24, 90} {
		series := make([]models.TimeseriesEntry, n)
		for i := range series {
			series[i] = models.TimeseriesEntry{
				Time:    at(1, 0).Add(time.Duration(i) * time.Hour),
				Instant: fullInstant(float64(i)),
			}
		}
		fc, err := Normalize(series, time.UTC)
		if err != nil {
			t.Fatalf("Normalize(%d entries): %v", n, err)
		}
		if len(fc.Hourly) != n {
			t.Errorf("len(hourly) = %d, want %d", len(fc.Hourly), n)
		}
		for i, p := range fc.Hourly {
			if !p.Time.Equal(series[i].Time) {
				t.Errorf("hourly[%d].Time = %v, want %v", i, p.Time, series[i].Time)
			}
		}
	}
}

func TestNormalize_Current(t *testing.T) {
	in := fullInstant(4.2)
	in.TempPercentile90 = f(6)
	series := []models.TimeseriesEntry{{
		Time:    at(1, 9),
		Instant: in,
		Next6h:  block("rain_day", f(3)),
		Next12h: block("cloudy", nil),
	}}

	fc, err := Normalize(series, time.UTC)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	c := fc.Current
	if c.Temperature != 4.2 || c.Humidity != 70 || c.WindSpeed != 3 || c.WindDirection != 180 || c.Pressure != 1013 || c.Cloudiness != 40 {
		t.Errorf("current readings = %+v", c)
	}
	if c.SymbolCode != "rain_day" {
		t.Errorf("SymbolCode = %q, want rain_day", c.SymbolCode)
	}
	if !c.UpdatedAt.Equal(at(1, 9)) {
		t.Errorf("UpdatedAt = %v", c.UpdatedAt)
	}
	if !c.FeelsLike.Valid || c.FeelsLike.Float64 != 6 {
		t.Errorf("FeelsLike = %+v, want 90th percentile 6", c.FeelsLike)
	}
}

func TestNormalize_CurrentFeelsLikePrefersP10(t *testing.T) {
	in := fullInstant(4)
	in.TempPercentile10 = f(2)
	in.TempPercentile90 = f(6)
	fc, err := Normalize([]models.TimeseriesEntry{{Time: at(1, 0), Instant: in}}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if fc.Current.FeelsLike.Float64 != 2 {
		t.Errorf("FeelsLike = %v, want 2", fc.Current.FeelsLike.Float64)
	}

	fc, err = Normalize([]models.TimeseriesEntry{{Time: at(1, 0), Instant: fullInstant(4)}}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if fc.Current.FeelsLike.Valid {
		t.Error("FeelsLike should be absent without percentiles")
	}
}

func TestNormalize_HourlySymbolAndPrecipitation(t *testing.T) {
	tests := []struct {
		name       string
		entry      models.TimeseriesEntry
		wantSymbol string
		wantPrecip float64
	}{
		{
			name:       "1h wins",
			entry:      models.TimeseriesEntry{Next1h: block("rain_day", f(1)), Next6h: block("cloudy", f(5))},
			wantSymbol: "rain_day",
			wantPrecip: 1,
		},
		{
			name:       "6h symbol but no 6h precipitation",
			entry:      models.TimeseriesEntry{Next6h: block("snow", f(5)), Next12h: block("cloudy", nil)},
			wantSymbol: "snow",
			wantPrecip: 0,
		},
		{
			name:       "12h only",
			entry:      models.TimeseriesEntry{Next12h: block("fog", nil)},
			wantSymbol: "fog",
		},
		{
			name:       "no summaries",
			entry:      models.TimeseriesEntry{},
			wantSymbol: FallbackSymbol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.entry.Time = at(2, 13)
			tt.entry.Instant = fullInstant(10)
			p := toHourly(tt.entry, time.UTC)
			if p.SymbolCode != tt.wantSymbol {
				t.Errorf("SymbolCode = %q, want %q", p.SymbolCode, tt.wantSymbol)
			}
			if p.Precipitation != tt.wantPrecip {
				t.Errorf("Precipitation = %v, want %v", p.Precipitation, tt.wantPrecip)
			}
			if p.HourOfDay != 13 {
				t.Errorf("HourOfDay = %d, want 13", p.HourOfDay)
			}
		})
	}
}

func TestNormalize_DailyMinMax(t *testing.T) {
	series := []models.TimeseriesEntry{
		{Time: at(1, 6), Instant: fullInstant(5)},
		{Time: at(1, 12), Instant: fullInstant(9)},
	}
	fc, err := Normalize(series, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Daily) != 1 {
		t.Fatalf("len(daily) = %d, want 1", len(fc.Daily))
	}
	if fc.Daily[0].MaxTemp != 9 || fc.Daily[0].MinTemp != 5 {
		t.Errorf("max/min = %v/%v, want 9/5", fc.Daily[0].MaxTemp, fc.Daily[0].MinTemp)
	}
}

func TestNormalize_DailyPrecipitationNoDoubleCount(t *testing.T) {
	series := []models.TimeseriesEntry{
		{Time: at(1, 0), Instant: fullInstant(5), Next1h: block("rain", f(1)), Next6h: block("rain", f(5))},
		{Time: at(1, 6), Instant: fullInstant(5), Next6h: block("rain", f(2.5))},
		{Time: at(1, 12), Instant: fullInstant(5), Next12h: block("rain", nil)},
	}
	fc, err := Normalize(series, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if got := fc.Daily[0].TotalPrecipitation; got != 3.5 {
		t.Errorf("TotalPrecipitation = %v, want 3.5", got)
	}
}

func TestNormalize_DailySymbolPrefersLongHorizon(t *testing.T) {
	series := []models.TimeseriesEntry{
		{Time: at(1, 0), Instant: fullInstant(5), Next1h: block("rain_night", nil), Next6h: block("cloudy", nil)},
		{Time: at(1, 1), Instant: fullInstant(5), Next1h: block("rain_night", nil), Next12h: block("fair_day", nil)},
		{Time: at(1, 2), Instant: fullInstant(5), Next1h: block("rain_night", nil), Next6h: block("cloudy", nil)},
	}
	fc, err := Normalize(series, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if got := fc.Daily[0].SymbolCode; got != "cloudy" {
		t.Errorf("SymbolCode = %q, want cloudy", got)
	}
}

func TestMode(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"empty", nil, ""},
		{"single", []string{"a"}, "a"},
		{"clear winner", []string{"a", "b", "b"}, "b"},
		{"tie goes to first seen", []string{"a", "b", "b", "a"}, "a"},
		{"tie with late leader", []string{"c", "b", "b", "c", "a"}, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mode(tt.values); got != tt.want {
				t.Errorf("mode(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestNormalize_DailyTruncatedToEightDays(t *testing.T) {
	var series []models.TimeseriesEntry
	for day := 1; day <= 10; day++ {
		for _, hour := range []int{0, 12} {
			series = append(series, models.TimeseriesEntry{Time: at(day, hour), Instant: fullInstant(float64(day))})
		}
	}
	fc, err := Normalize(series, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Daily) != MaxDailyDays {
		t.Fatalf("len(daily) = %d, want %d", len(fc.Daily), MaxDailyDays)
	}
	for i, d := range fc.Daily {
		want := time.Date(2026, 3, i+1, 0, 0, 0, 0, time.UTC)
		if !d.Date.Equal(want) {
			t.Errorf("daily[%d].Date = %v, want %v", i, d.Date, want)
		}
	}
	if len(fc.Hourly) != 20 {
		t.Errorf("len(hourly) = %d, want 20", len(fc.Hourly))
	}
}

func TestNormalize_GroupsByLocalDate(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Skipf("load timezone: %v", err)
	}
	// 23:30 UTC on the 1st is already the 2nd in Oslo.
	series := []models.TimeseriesEntry{
		{Time: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), Instant: fullInstant(1)},
		{Time: time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC), Instant: fullInstant(2)},
	}
	fc, err := Normalize(series, oslo)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Daily) != 2 {
		t.Fatalf("len(daily) = %d, want 2", len(fc.Daily))
	}
	if fc.Hourly[1].HourOfDay != 0 {
		t.Errorf("hourly[1].HourOfDay = %d, want 0", fc.Hourly[1].HourOfDay)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	series := []models.TimeseriesEntry{
		{Time: at(1, 0), Instant: fullInstant(5), Next1h: block("rain_day", f(0.4)), Next6h: block("rain_day", f(2))},
		{Time: at(1, 12), Instant: fullInstant(8), Next6h: block("cloudy", nil)},
		{Time: at(2, 0), Instant: fullInstant(3), Next12h: block("snow", nil)},
	}
	a, err := Normalize(series, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize(series, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Normalize is not idempotent:\n%+v\n%+v", a, b)
	}
}
