package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/amonks/discography/data"
)

// DeleteArtist deletes an artist. Its albums go first, each with everything
// hanging off it, then the artist's own catalog data and images.
func (db *DB) DeleteArtist(ctx context.Context, id uint) error {
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var albumIDs []uint
		if err := tx.
			Model(&data.Album{}).
			Where("artist_id = ?", id).
			Pluck("id", &albumIDs).
			Error; err != nil {
			return fmt.Errorf("error listing albums: %w", err)
		}
		if err := deleteAlbums(tx, albumIDs); err != nil {
			return err
		}

		if err := deleteIndexerData(tx, "artist_id = ?", id); err != nil {
			return err
		}
		if err := tx.
			Where("artist_id = ?", id).
			Delete(&data.Image{}).
			Error; err != nil {
			return fmt.Errorf("error deleting images: %w", err)
		}

		result := tx.Delete(&data.Artist{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}); err != nil {
		return fmt.Errorf("error deleting artist %d: %w", id, err)
	}
	return nil
}

// DeleteAlbum deletes one album and everything hanging off it.
func (db *DB) DeleteAlbum(ctx context.Context, id uint) error {
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.
			Model(&data.Album{}).
			Where("id = ?", id).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return deleteAlbums(tx, []uint{id})
	}); err != nil {
		return fmt.Errorf("error deleting album %d: %w", id, err)
	}
	return nil
}

func deleteAlbums(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := deleteIndexerData(tx, "album_id IN ?", ids); err != nil {
		return err
	}
	for _, model := range []any{&data.Image{}, &data.Result{}, &data.MusicHistory{}} {
		if err := tx.
			Where("album_id IN ?", ids).
			Delete(model).
			Error; err != nil {
			return fmt.Errorf("error deleting %T for albums: %w", model, err)
		}
	}
	if err := tx.
		Where("id IN ?", ids).
		Delete(&data.Album{}).
		Error; err != nil {
		return fmt.Errorf("error deleting albums: %w", err)
	}
	return nil
}
