package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amonks/discography/data"
)

// Commit saves entities, with their associations, in one transaction. A
// failure rolls back every entity in the call and is returned.
//
// Nothing else writes entities: callers build them in memory and commit at
// their own chunk boundaries. Committing nothing is allowed.
func (db *DB) Commit(ctx context.Context, entities ...any) error {
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entity := range entities {
			if err := tx.Save(entity).Error; err != nil {
				return fmt.Errorf("error saving %s: %w", describe(entity), err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("error committing %d entities: %w", len(entities), err)
	}
	return nil
}

func describe(entity any) string {
	if s, ok := entity.(fmt.Stringer); ok {
		return fmt.Sprintf("%T '%s'", entity, s)
	}
	return fmt.Sprintf("%T", entity)
}

// GetOrCreateGenre returns the stored genre called name, or a new unsaved
// one. Genres are inserted with their parent and never duplicated, so a new
// genre saved twice by different parents is still one row.
func (db *DB) GetOrCreateGenre(ctx context.Context, name string) (*data.Genre, error) {
	if name == "" {
		return nil, fmt.Errorf("no genre name")
	}
	var genre data.Genre
	if err := db.WithContext(ctx).
		Where("name = ?", name).
		First(&genre).
		Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return &data.Genre{Name: name}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting genre '%s': %w", name, err)
	}
	return &genre, nil
}

// ReplaceResults swaps the album's stored search results for results.
func (db *DB) ReplaceResults(ctx context.Context, albumID uint, results []data.Result) error {
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("album_id = ?", albumID).
			Delete(&data.Result{}).
			Error; err != nil {
			return fmt.Errorf("error clearing results: %w", err)
		}
		for i := range results {
			results[i].AlbumID = albumID
			if err := tx.
				Omit("Album").
				Create(&results[i]).
				Error; err != nil {
				return fmt.Errorf("error inserting result '%s': %w", results[i].Name, err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("error replacing results for album %d: %w", albumID, err)
	}
	return nil
}

// RecordSnatch marks the album SNATCHED by provider and appends the snatch
// to the history.
func (db *DB) RecordSnatch(ctx context.Context, albumID uint, provider string, size int64, quality string) error {
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&data.Album{}).
			Where("id = ?", albumID).
			Updates(map[string]any{
				"status":   data.StatusSnatched,
				"provider": provider,
				"size":     size,
			})
		if result.Error != nil {
			return fmt.Errorf("error updating album: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Create(&data.MusicHistory{
			AlbumID:  albumID,
			Provider: provider,
			Quality:  quality,
			Date:     time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("error inserting history: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("error recording snatch of album %d: %w", albumID, err)
	}
	return nil
}
