package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lox/vaervarsel/internal/httputil"
	"github.com/lox/vaervarsel/internal/models"
)

const (
	DefaultIPLookupURL = "https://ipapi.co/json/"
	lookupTimeout      = 10 * time.Second
	maxPositionAge     = 5 * time.Minute
)

// IPLookup geolocates the host by its public IP address. A successful
// position is reused for five minutes.
type IPLookup struct {
	url     string
	fetcher *httputil.Fetcher
	clock   clockwork.Clock

	mu       sync.Mutex
	cached   models.Coordinates
	cachedAt time.Time
}

func NewIPLookup(url string, fetcher *httputil.Fetcher, clock clockwork.Clock) *IPLookup {
	if url == "" {
		url = DefaultIPLookupURL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IPLookup{url: url, fetcher: fetcher, clock: clock}
}

type ipLookupResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

func (l *IPLookup) Coordinates(ctx context.Context) (models.Coordinates, error) {
	l.mu.Lock()
	if !l.cachedAt.IsZero() && l.clock.Since(l.cachedAt) < maxPositionAge {
		coords := l.cached
		l.mu.Unlock()
		return coords, nil
	}
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	body, err := l.fetcher.Get(ctx, l.url, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return models.Coordinates{}, classify(err)
	}

	var data ipLookupResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: unmarshal: %v", ErrUnavailable, err)
	}
	if data.Error || data.Latitude == nil || data.Longitude == nil {
		return models.Coordinates{}, fmt.Errorf("%w: %s", ErrUnavailable, data.Reason)
	}

	coords := models.Coordinates{Latitude: *data.Latitude, Longitude: *data.Longitude}
	l.mu.Lock()
	l.cached, l.cachedAt = coords, l.clock.Now()
	l.mu.Unlock()

	log.Printf("location: resolved %.4f,%.4f by IP lookup", coords.Latitude, coords.Longitude)
	return coords, nil
}

func classify(err error) error {
	var se *httputil.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
