package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/amonks/discography/data"
)

// ArtistForIndexerData returns the artist owning the catalog id externalID.
//
// A nil artist with a nil error means there is nothing usable: either the id
// is unknown, or its IndexerData row was orphaned by an interrupted import,
// in which case the orphan and its genre links are deleted so the artist can
// be imported afresh.
func (db *DB) ArtistForIndexerData(ctx context.Context, externalID string) (*data.Artist, error) {
	row, err := db.indexerDataFor(ctx, externalID)
	if err != nil || row == nil {
		return nil, err
	}
	if row.ArtistID == nil {
		db.log.Warn("indexer data belongs to an album, not an artist", "id", externalID)
		return nil, nil
	}

	var artist data.Artist
	if err := db.WithContext(ctx).
		Preload("IndexerData.Genres").
		Preload("Images").
		First(&artist, *row.ArtistID).
		Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.repairOrphan(ctx, row)
	} else if err != nil {
		return nil, fmt.Errorf("error getting artist for indexer data '%s': %w", externalID, err)
	}
	return &artist, nil
}

// AlbumForIndexerData is ArtistForIndexerData for albums.
func (db *DB) AlbumForIndexerData(ctx context.Context, externalID string) (*data.Album, error) {
	row, err := db.indexerDataFor(ctx, externalID)
	if err != nil || row == nil {
		return nil, err
	}
	if row.AlbumID == nil {
		db.log.Warn("indexer data belongs to an artist, not an album", "id", externalID)
		return nil, nil
	}

	var album data.Album
	if err := db.WithContext(ctx).
		Preload("IndexerData").
		Preload("Images").
		First(&album, *row.AlbumID).
		Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.repairOrphan(ctx, row)
	} else if err != nil {
		return nil, fmt.Errorf("error getting album for indexer data '%s': %w", externalID, err)
	}
	return &album, nil
}

// indexerDataFor finds the row for externalID, repairing it if it has no
// owner at all. It returns nil for missing and repaired rows.
func (db *DB) indexerDataFor(ctx context.Context, externalID string) (*data.IndexerData, error) {
	if externalID == "" {
		return nil, fmt.Errorf("no external id")
	}

	var row data.IndexerData
	if err := db.WithContext(ctx).
		Where("id = ?", externalID).
		First(&row).
		Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting indexer data '%s': %w", externalID, err)
	}

	if row.Orphaned() {
		return nil, db.repairOrphan(ctx, &row)
	}
	return &row, nil
}

// repairOrphan deletes an IndexerData row whose owner is gone, along with
// its genre links and any genres nothing else references.
func (db *DB) repairOrphan(ctx context.Context, row *data.IndexerData) error {
	db.log.Debug("repairing orphaned indexer data", "id", row.ID, "site", row.Site)
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteIndexerData(tx, "id = ?", row.ID)
	}); err != nil {
		return fmt.Errorf("error repairing orphaned indexer data '%s': %w", row.ID, err)
	}
	return nil
}

// deleteIndexerData removes the indexer data rows matching the condition,
// their genre links, and then any genres left without a parent.
func deleteIndexerData(tx *gorm.DB, query string, args ...any) error {
	var ids []string
	if err := tx.
		Model(&data.IndexerData{}).
		Where(query, args...).
		Pluck("id", &ids).
		Error; err != nil {
		return fmt.Errorf("error finding indexer data: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := tx.
		Exec("DELETE FROM "+genreJoinTable+" WHERE indexer_data_id IN ?", ids).
		Error; err != nil {
		return fmt.Errorf("error deleting genre links: %w", err)
	}
	if err := tx.
		Where("id IN ?", ids).
		Delete(&data.IndexerData{}).
		Error; err != nil {
		return fmt.Errorf("error deleting indexer data: %w", err)
	}
	return pruneGenres(tx)
}

func pruneGenres(tx *gorm.DB) error {
	if err := tx.
		Exec("DELETE FROM genres WHERE name NOT IN (SELECT genre_name FROM " + genreJoinTable + ")").
		Error; err != nil {
		return fmt.Errorf("error pruning genres: %w", err)
	}
	return nil
}

const genreJoinTable = "indexer_data_genres"
