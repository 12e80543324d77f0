package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/lox/vaervarsel/internal/forecast"
	"github.com/lox/vaervarsel/internal/geocode"
	"github.com/lox/vaervarsel/internal/metrics"
	"github.com/lox/vaervarsel/internal/models"
	"github.com/lox/vaervarsel/internal/store"
)

// ErrStaleRefresh is returned when a newer refresh was published while this
// one was in flight. The result is discarded.
var ErrStaleRefresh = errors.New("refresh superseded by a newer result")

type LocationProvider interface {
	Coordinates(ctx context.Context) (models.Coordinates, error)
}

type ForecastSource interface {
	FetchForecast(ctx context.Context, lat, lon float64) ([]models.TimeseriesEntry, []byte, error)
}

type NowcastSource interface {
	FetchNowcast(ctx context.Context, lat, lon float64) ([]models.NowcastEntry, error)
}

type PlaceNameResolver interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, rec store.SnapshotRecord) error
	LatestSnapshot(ctx context.Context) (*store.SnapshotRecord, error)
}

type Refresher struct {
	location LocationProvider
	forecast ForecastSource
	nowcast  NowcastSource
	places   PlaceNameResolver
	store    SnapshotStore
	source   string
	loc      *time.Location
	clock    clockwork.Clock

	seq atomic.Uint64

	mu      sync.RWMutex
	current *models.Snapshot

	// persistMu orders store writes against publication.
	persistMu sync.Mutex
}

type RefresherConfig struct {
	Location LocationProvider
	Forecast ForecastSource
	Nowcast  NowcastSource    // optional
	Places   PlaceNameResolver // optional
	Store    SnapshotStore     // optional
	Source   string
	Timezone *time.Location
	Clock    clockwork.Clock
}

func NewRefresher(cfg RefresherConfig) *Refresher {
	if cfg.Timezone == nil {
		cfg.Timezone = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Source == "" {
		cfg.Source = "met"
	}
	return &Refresher{
		location: cfg.Location,
		forecast: cfg.Forecast,
		nowcast:  cfg.Nowcast,
		places:   cfg.Places,
		store:    cfg.Store,
		source:   cfg.Source,
		loc:      cfg.Timezone,
		clock:    cfg.Clock,
	}
}

// Current returns the published snapshot, or nil before the first refresh.
func (r *Refresher) Current() *models.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Refresher) Timezone() *time.Location {
	return r.loc
}

type fetchResults struct {
	series    []models.TimeseriesEntry
	raw       []byte
	err       error
	nowcast   []models.NowcastEntry
	nowErr    error
	placeName string
}

// Refresh resolves the location, fetches forecast, nowcast and place name
// concurrently and publishes the normalized snapshot. A nowcast failure is
// recorded on the snapshot but does not fail the refresh.
func (r *Refresher) Refresh(ctx context.Context) (*models.Snapshot, error) {
	seq := r.seq.Add(1)

	coords, err := r.location.Coordinates(ctx)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("resolve location: %w", err)
	}

	res := r.fetch(ctx, coords)
	if res.err != nil {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		return nil, res.err
	}

	fc, err := forecast.Normalize(res.series, r.loc)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("normalize forecast: %w", err)
	}

	snap := &models.Snapshot{
		ID:          uuid.NewString(),
		Sequence:    seq,
		Coordinates: coords,
		PlaceName:   res.placeName,
		Forecast:    fc,
		Nowcast:     res.nowcast,
		FetchedAt:   r.clock.Now(),
	}
	if res.nowErr != nil {
		snap.NowcastErr = res.nowErr.Error()
		metrics.NowcastFailures.Inc()
		log.Printf("refresh: nowcast unavailable: %v", res.nowErr)
	}

	if !r.publish(snap) {
		metrics.RefreshesTotal.WithLabelValues("stale").Inc()
		log.Printf("refresh: discarding result %d, newer snapshot already published", seq)
		return nil, ErrStaleRefresh
	}
	metrics.RefreshesTotal.WithLabelValues("published").Inc()
	log.Printf("refresh: published %s for %s (%d hourly, %d daily)", snap.ID, snap.PlaceName, len(fc.Hourly), len(fc.Daily))

	r.persist(ctx, snap, res.raw)
	return snap, nil
}

func (r *Refresher) fetch(ctx context.Context, coords models.Coordinates) fetchResults {
	var res fetchResults
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		res.series, res.raw, res.err = r.forecast.FetchForecast(ctx, coords.Latitude, coords.Longitude)
	}()

	if r.nowcast != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res.nowcast, res.nowErr = r.nowcast.FetchNowcast(ctx, coords.Latitude, coords.Longitude)
		}()
	}

	res.placeName = geocode.UnknownLocation
	if r.places != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res.placeName = r.places.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)
		}()
	}

	wg.Wait()
	return res
}

// publish swaps in snap unless a snapshot from a later refresh is already
// visible.
func (r *Refresher) publish(snap *models.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.current.Sequence > snap.Sequence {
		return false
	}
	r.current = snap
	metrics.SnapshotFetchedAt.Set(float64(snap.FetchedAt.Unix()))
	return true
}

// persist saves the raw payload behind snap if snap is still the published
// snapshot. A result overtaken by a newer refresh is not written.
func (r *Refresher) persist(ctx context.Context, snap *models.Snapshot, raw []byte) {
	if r.store == nil || len(raw) == 0 {
		return
	}

	r.persistMu.Lock()
	defer r.persistMu.Unlock()
	if cur := r.Current(); cur == nil || cur.Sequence != snap.Sequence {
		log.Printf("refresh: not saving superseded snapshot %s", snap.ID)
		return
	}
	rec := store.SnapshotRecord{
		LocationKey: store.LocationKey(snap.Coordinates.Latitude, snap.Coordinates.Longitude),
		ID:          snap.ID,
		Latitude:    snap.Coordinates.Latitude,
		Longitude:   snap.Coordinates.Longitude,
		PlaceName:   snap.PlaceName,
		Source:      r.source,
		FetchedAt:   snap.FetchedAt,
		Payload:     raw,
	}
	if err := r.store.SaveSnapshot(ctx, rec); err != nil {
		log.Printf("refresh: save snapshot: %v", err)
	}
}

// Warm publishes the last persisted forecast so the API can serve data
// before the first refresh completes. It never replaces a live snapshot.
func (r *Refresher) Warm(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	rec, err := r.store.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if rec == nil {
		return nil
	}

	series, err := ParseLocationforecast(rec.Payload)
	if err != nil {
		return fmt.Errorf("parse stored snapshot: %w", err)
	}
	fc, err := forecast.Normalize(series, r.loc)
	if err != nil {
		return fmt.Errorf("normalize stored snapshot: %w", err)
	}

	snap := &models.Snapshot{
		ID:          rec.ID,
		Coordinates: models.Coordinates{Latitude: rec.Latitude, Longitude: rec.Longitude},
		PlaceName:   rec.PlaceName,
		Forecast:    fc,
		NowcastErr:  "nowcast not restored from storage",
		FetchedAt:   rec.FetchedAt,
	}
	if r.publish(snap) {
		log.Printf("refresh: warmed from stored snapshot %s fetched %s", rec.ID, rec.FetchedAt.Format(time.RFC3339))
	}
	return nil
}
