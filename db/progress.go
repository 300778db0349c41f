package db

import (
	"context"
	"fmt"

	"github.com/amonks/discography/data"
)

// Counts summarizes the library for the progress command.
type Counts struct {
	Artists        int64
	Albums         int64
	AlbumsByStatus map[data.AlbumStatus]int64
	IndexerData    int64
	Orphans        int64
	Genres         int64
	Images         int64
	Results        int64
	Snatches       int64
}

func (db *DB) Counts(ctx context.Context) (*Counts, error) {
	counts := &Counts{AlbumsByStatus: map[data.AlbumStatus]int64{}}

	for _, c := range []struct {
		name  string
		model any
		where string
		dest  *int64
	}{
		{"artists", &data.Artist{}, "", &counts.Artists},
		{"albums", &data.Album{}, "", &counts.Albums},
		{"indexer data", &data.IndexerData{}, "", &counts.IndexerData},
		{"orphans", &data.IndexerData{}, "artist_id IS NULL AND album_id IS NULL", &counts.Orphans},
		{"genres", &data.Genre{}, "", &counts.Genres},
		{"images", &data.Image{}, "", &counts.Images},
		{"results", &data.Result{}, "", &counts.Results},
		{"snatches", &data.MusicHistory{}, "", &counts.Snatches},
	} {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("canceled: %w", err)
		}
		q := db.WithContext(ctx).Model(c.model)
		if c.where != "" {
			q = q.Where(c.where)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("error counting %s: %w", c.name, err)
		}
	}

	var byStatus []struct {
		Status data.AlbumStatus
		Count  int64
	}
	if err := db.WithContext(ctx).
		Model(&data.Album{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).
		Error; err != nil {
		return nil, fmt.Errorf("error counting albums by status: %w", err)
	}
	for _, row := range byStatus {
		counts.AlbumsByStatus[row.Status] = row.Count
	}

	return counts, nil
}
