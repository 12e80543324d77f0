package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

const (
	DefaultRefreshInterval = 15 * time.Minute
	refreshTimeout         = 45 * time.Second
	snapshotRetention      = 7 * 24 * time.Hour
)

// SnapshotPruner removes persisted snapshots older than a cutoff.
type SnapshotPruner interface {
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher *Refresher
	pruner    SnapshotPruner
	interval  time.Duration
}

func NewScheduler(refresher *Refresher, pruner SnapshotPruner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		pruner:    pruner,
		interval:  interval,
	}
}

// Run refreshes immediately and then every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.refresh, ctx); err != nil {
		return err
	}
	if s.pruner != nil {
		if _, err := s.scheduler.Every(6 * time.Hour).SingletonMode().Do(s.prune, ctx); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	log.Printf("scheduler: refreshing every %s", s.interval)

	<-ctx.Done()
	log.Println("scheduler: shutting down")
	s.scheduler.Stop()
	return nil
}

func (s *Scheduler) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if _, err := s.refresher.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleRefresh) {
		log.Printf("scheduler: refresh failed: %v", err)
	}
}

func (s *Scheduler) prune(ctx context.Context) {
	cutoff := s.refresher.clock.Now().Add(-snapshotRetention)
	n, err := s.pruner.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		log.Printf("scheduler: prune snapshots: %v", err)
		return
	}
	if n > 0 {
		log.Printf("scheduler: pruned %d snapshots older than %s", n, cutoff.Format(time.DateOnly))
	}
}
