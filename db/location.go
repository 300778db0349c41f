package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amonks/discography/data"
	"github.com/amonks/discography/fsutil"
)

// SetAlbumStatus sets one album's status.
func (db *DB) SetAlbumStatus(ctx context.Context, id uint, status data.AlbumStatus) error {
	return db.SetAlbumsStatus(ctx, []uint{id}, status)
}

// SetAlbumsStatus sets the status of every album in ids. It fails without
// changing anything if any of them doesn't exist.
func (db *DB) SetAlbumsStatus(ctx context.Context, ids []uint, status data.AlbumStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid album status %d", int(status))
	}
	if len(ids) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": status}
		if status == data.StatusDownloaded {
			updates["completed_at"] = time.Now()
		}
		result := tx.
			Model(&data.Album{}).
			Where("id IN ?", ids).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(uniq(ids))) {
			return fmt.Errorf("%d of %d albums: %w", len(uniq(ids))-int(result.RowsAffected), len(uniq(ids)), ErrNotFound)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("error setting status %s: %w", status, err)
	}
	return nil
}

// SetArtistLocation moves an artist to path. Albums located under the old
// artist directory move along with it; albums with no location are placed
// under path. It returns the updated artist and albums so the caller can
// create their directories.
func (db *DB) SetArtistLocation(ctx context.Context, id uint, path string) (*data.Artist, []data.Album, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("no location given for artist %d", id)
	}

	var (
		artist data.Artist
		albums []data.Album
	)
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&artist, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.
			Where("artist_id = ?", id).
			Order("id").
			Find(&albums).
			Error; err != nil {
			return fmt.Errorf("error listing albums: %w", err)
		}

		old := artist.Location
		artist.Location = path
		if err := tx.
			Model(&artist).
			Update("location", path).
			Error; err != nil {
			return fmt.Errorf("error updating artist: %w", err)
		}

		for i := range albums {
			album := &albums[i]
			location := album.Location
			if location == "" {
				location = fsutil.Join(path, album.Name)
			} else if rebased, ok := fsutil.Rebase(location, old, path); ok {
				location = rebased
			} else {
				continue
			}
			album.Location = location
			if err := tx.
				Model(album).
				Update("location", location).
				Error; err != nil {
				return fmt.Errorf("error updating album '%s': %w", album.Name, err)
			}
		}
		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("error setting location of artist %d: %w", id, err)
	}
	return &artist, albums, nil
}

func uniq(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	var out []uint
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
