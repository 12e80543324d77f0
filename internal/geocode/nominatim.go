// Package geocode turns coordinates into a display name for the location.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lox/vaervarsel/internal/httputil"
	"github.com/lox/vaervarsel/internal/metrics"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	UnknownLocation     = "Unknown Location"
	defaultCacheSize    = 256
)

type Nominatim struct {
	baseURL string
	fetcher *httputil.Fetcher
	cache   *lru.Cache[string, string]
}

// NewNominatim creates a reverse geocoder. Nominatim's usage policy allows
// one request per second, so the fetcher should be limited accordingly.
func NewNominatim(baseURL string, fetcher *httputil.Fetcher, cacheSize int) (*Nominatim, error) {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}
	return &Nominatim{baseURL: baseURL, fetcher: fetcher, cache: cache}, nil
}

type reverseResponse struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		State        string `json:"state"`
	} `json:"address"`
}

func (r reverseResponse) name() string {
	a := r.Address
	for _, candidate := range []string{a.City, a.Town, a.Village, a.Municipality, a.County, a.State} {
		if candidate != "" {
			return candidate
		}
	}
	return UnknownLocation
}

// ReverseGeocode returns the most specific place name for the coordinates.
// Failures are logged and reported as UnknownLocation; they are not cached.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	key := cacheKey(lat, lon)
	if name, ok := n.cache.Get(key); ok {
		metrics.GeocodeCacheLookups.WithLabelValues("hit").Inc()
		return name
	}
	metrics.GeocodeCacheLookups.WithLabelValues("miss").Inc()

	url := fmt.Sprintf("%s/reverse?format=json&lat=%.4f&lon=%.4f&zoom=10&accept-language=en", n.baseURL, lat, lon)
	body, err := n.fetcher.Get(ctx, url, http.Header{"Accept": {"application/json"}})
	if err != nil {
		log.Printf("geocode: reverse %s: %v", key, err)
		return UnknownLocation
	}

	var data reverseResponse
	if err := json.Unmarshal(body, &data); err != nil {
		log.Printf("geocode: unmarshal %s: %v", key, err)
		return UnknownLocation
	}

	name := data.name()
	n.cache.Add(key, name)
	return name
}

// cacheKey buckets coordinates to roughly a kilometre, which is finer than
// zoom level 10 resolves anyway.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", math.Round(lat*100)/100, math.Round(lon*100)/100)
}
