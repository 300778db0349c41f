package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

// RefreshStore lists the artists to re-import.
type RefreshStore interface {
	ArtistsToRefresh(ctx context.Context) ([]string, error)
}

// A Refresher periodically queues every unpaused artist for re-import, so
// newly released albums show up.
type Refresher struct {
	store    RefreshStore
	queue    *Queue
	interval time.Duration
	log      hclog.Logger
}

// NewRefresher returns a refresher that runs every interval. A zero
// interval disables it.
func NewRefresher(store RefreshStore, queue *Queue, interval time.Duration, log hclog.Logger) *Refresher {
	return &Refresher{
		store:    store,
		queue:    queue,
		interval: interval,
		log:      log.Named("refresher"),
	}
}

// Refresh queues every artist once, returning how many jobs it created.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	ids, err := r.store.ArtistsToRefresh(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return created, fmt.Errorf("canceled: %w", err)
		}
		if _, ok := r.queue.Add(id, ""); ok {
			created++
		}
	}
	r.log.Info("queued library refresh", "artists", len(ids), "queued", created)
	return created, nil
}

func (r *Refresher) Run(ctx context.Context, c chan<- struct{}) error {
	if r.interval <= 0 {
		r.log.Debug("library refresh disabled")
		return nil
	}

	tick := time.NewTicker(r.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("canceled: %w", ctx.Err())
		case <-tick.C:
		}

		if _, err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("canceled: %w", ctx.Err())
			}
			r.log.Error("error refreshing library", "error", err)
			continue
		}
		if c != nil {
			select {
			case c <- struct{}{}:
			case <-ctx.Done():
			}
		}
	}
}
