package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/lox/vaervarsel/internal/httputil"
	"github.com/lox/vaervarsel/internal/models"
)

const DefaultMETBaseURL = "https://api.met.no/weatherapi"

// ForecastVariant selects the Locationforecast product. Only "complete"
// carries the temperature percentiles used for the provider feels-like.
type ForecastVariant string

const (
	VariantCompact  ForecastVariant = "compact"
	VariantComplete ForecastVariant = "complete"
)

type ForecastClient struct {
	baseURL string
	variant ForecastVariant
	fetcher *httputil.Fetcher
}

func NewForecastClient(baseURL string, variant ForecastVariant, fetcher *httputil.Fetcher) *ForecastClient {
	if baseURL == "" {
		baseURL = DefaultMETBaseURL
	}
	if variant != VariantComplete {
		variant = VariantCompact
	}
	return &ForecastClient{baseURL: baseURL, variant: variant, fetcher: fetcher}
}

// NewMETClients builds the forecast and nowcast clients. Each gets its own
// Fetcher, so a nowcast outage cannot open the forecast circuit breaker.
func NewMETClients(baseURL string, variant ForecastVariant, client *http.Client, requestsPerSecond float64) (*ForecastClient, *NowcastClient) {
	fc := NewForecastClient(baseURL, variant, httputil.NewFetcher("met-forecast", client, requestsPerSecond))
	nc := NewNowcastClient(baseURL, httputil.NewFetcher("met-nowcast", client, requestsPerSecond))
	return fc, nc
}

type locationforecastResponse struct {
	Properties struct {
		Meta struct {
			UpdatedAt time.Time `json:"updated_at"`
		} `json:"meta"`
		Timeseries []metTimeseries `json:"timeseries"`
	} `json:"properties"`
}

type metTimeseries struct {
	Time time.Time `json:"time"`
	Data struct {
		Instant struct {
			Details struct {
				AirTemperature             *float64 `json:"air_temperature"`
				RelativeHumidity           *float64 `json:"relative_humidity"`
				WindSpeed                  *float64 `json:"wind_speed"`
				WindFromDirection          *float64 `json:"wind_from_direction"`
				AirPressureAtSeaLevel      *float64 `json:"air_pressure_at_sea_level"`
				CloudAreaFraction          *float64 `json:"cloud_area_fraction"`
				AirTemperaturePercentile10 *float64 `json:"air_temperature_percentile_10"`
				AirTemperaturePercentile90 *float64 `json:"air_temperature_percentile_90"`
				PrecipitationRate          *float64 `json:"precipitation_rate"`
			} `json:"details"`
		} `json:"instant"`
		Next1Hours  *metPeriod `json:"next_1_hours"`
		Next6Hours  *metPeriod `json:"next_6_hours"`
		Next12Hours *metPeriod `json:"next_12_hours"`
	} `json:"data"`
}

type metPeriod struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
	Details struct {
		PrecipitationAmount *float64 `json:"precipitation_amount"`
	} `json:"details"`
}

func (p *metPeriod) block() *models.SummaryBlock {
	if p == nil {
		return nil
	}
	return &models.SummaryBlock{
		SymbolCode:          p.Summary.SymbolCode,
		PrecipitationAmount: p.Details.PrecipitationAmount,
	}
}

// FetchForecast retrieves the Locationforecast time series for a point. The
// raw body is returned alongside the parsed entries so it can be persisted.
func (f *ForecastClient) FetchForecast(ctx context.Context, lat, lon float64) ([]models.TimeseriesEntry, []byte, error) {
	url := fmt.Sprintf("%s/locationforecast/2.0/%s?lat=%s&lon=%s", f.baseURL, f.variant, coord(lat), coord(lon))

	body, err := f.fetcher.Get(ctx, url, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch forecast: %w", err)
	}

	series, err := ParseLocationforecast(body)
	if err != nil {
		return nil, body, err
	}
	return series, body, nil
}

// ParseLocationforecast decodes a Locationforecast 2.0 document.
func ParseLocationforecast(body []byte) ([]models.TimeseriesEntry, error) {
	var data locationforecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal forecast: %w", err)
	}

	series := make([]models.TimeseriesEntry, 0, len(data.Properties.Timeseries))
	for _, ts := range data.Properties.Timeseries {
		d := ts.Data.Instant.Details
		series = append(series, models.TimeseriesEntry{
			Time: ts.Time,
			Instant: models.Instant{
				Temperature:      d.AirTemperature,
				Humidity:         d.RelativeHumidity,
				WindSpeed:        d.WindSpeed,
				WindDirection:    d.WindFromDirection,
				Pressure:         d.AirPressureAtSeaLevel,
				Cloudiness:       d.CloudAreaFraction,
				TempPercentile10: d.AirTemperaturePercentile10,
				TempPercentile90: d.AirTemperaturePercentile90,
			},
			Next1h:  ts.Data.Next1Hours.block(),
			Next6h:  ts.Data.Next6Hours.block(),
			Next12h: ts.Data.Next12Hours.block(),
		})
	}
	return series, nil
}

// coord formats a coordinate with at most four decimals; MET rejects more
// precise requests.
func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
