package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lox/vaervarsel/internal/httputil"
	"github.com/lox/vaervarsel/internal/models"
)

var errInvalidNowcast = errors.New("invalid nowcast data format")

type NowcastClient struct {
	baseURL string
	fetcher *httputil.Fetcher
}

func NewNowcastClient(baseURL string, fetcher *httputil.Fetcher) *NowcastClient {
	if baseURL == "" {
		baseURL = DefaultMETBaseURL
	}
	return &NowcastClient{baseURL: baseURL, fetcher: fetcher}
}

type nowcastResponse struct {
	Properties *struct {
		Timeseries []metTimeseries `json:"timeseries"`
	} `json:"properties"`
}

// FetchNowcast retrieves the two-hour precipitation nowcast. Nowcast only
// covers the Nordic area; callers should treat errors as non-fatal.
func (n *NowcastClient) FetchNowcast(ctx context.Context, lat, lon float64) ([]models.NowcastEntry, error) {
	url := fmt.Sprintf("%s/nowcast/2.0/complete?lat=%s&lon=%s", n.baseURL, coord(lat), coord(lon))

	body, err := n.fetcher.Get(ctx, url, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, fmt.Errorf("fetch nowcast: %w", err)
	}
	return ParseNowcast(body)
}

// ParseNowcast decodes a Nowcast 2.0 document into precipitation points.
// The instantaneous radar rate is preferred over the next-hour amount.
func ParseNowcast(body []byte) ([]models.NowcastEntry, error) {
	var data nowcastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal nowcast: %w", err)
	}
	if data.Properties == nil {
		return nil, errInvalidNowcast
	}

	entries := make([]models.NowcastEntry, 0, len(data.Properties.Timeseries))
	for _, ts := range data.Properties.Timeseries {
		var precip float64
		switch {
		case ts.Data.Instant.Details.PrecipitationRate != nil:
			precip = *ts.Data.Instant.Details.PrecipitationRate
		case ts.Data.Next1Hours != nil && ts.Data.Next1Hours.Details.PrecipitationAmount != nil:
			precip = *ts.Data.Next1Hours.Details.PrecipitationAmount
		}
		entries = append(entries, models.NowcastEntry{Time: ts.Time, Precipitation: precip})
	}
	return entries, nil
}
