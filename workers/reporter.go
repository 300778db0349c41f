package workers

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/data"
	"github.com/amonks/discography/db"
)

// Counter summarizes the library.
type Counter interface {
	Counts(ctx context.Context) (*db.Counts, error)
}

// runReporter logs the state of the library once.
func runReporter(ctx context.Context, counter Counter, log hclog.Logger) error {
	counts, err := counter.Counts(ctx)
	if err != nil {
		return err
	}

	args := []any{
		"artists", counts.Artists,
		"albums", counts.Albums,
		"genres", counts.Genres,
		"snatches", counts.Snatches,
	}
	for _, status := range data.AlbumStatuses {
		if n := counts.AlbumsByStatus[status]; n > 0 {
			args = append(args, status.String(), n)
		}
	}
	if counts.Orphans > 0 {
		args = append(args, "orphans", counts.Orphans)
	}
	log.Info("library", args...)
	return nil
}
