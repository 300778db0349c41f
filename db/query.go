package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/amonks/discography/data"
)

// FindArtist loads an artist with its catalog data and images, but not its
// albums; see AlbumsForArtist.
func (db *DB) FindArtist(ctx context.Context, id uint) (*data.Artist, error) {
	var artist data.Artist
	if err := db.WithContext(ctx).
		Preload("IndexerData.Genres").
		Preload("Images").
		First(&artist, id).
		Error; err != nil {
		return nil, fmt.Errorf("error getting artist %d: %w", id, notFound(err))
	}
	return &artist, nil
}

// FindAlbum loads an album with its artist, catalog data, images, and
// search results.
func (db *DB) FindAlbum(ctx context.Context, id uint) (*data.Album, error) {
	var album data.Album
	if err := db.WithContext(ctx).
		Preload("Artist").
		Preload("IndexerData.Genres").
		Preload("Images").
		Preload("Results").
		First(&album, id).
		Error; err != nil {
		return nil, fmt.Errorf("error getting album %d: %w", id, notFound(err))
	}
	return &album, nil
}

// ListArtists returns every artist, by sort name.
func (db *DB) ListArtists(ctx context.Context) ([]data.Artist, error) {
	var artists []data.Artist
	if err := db.WithContext(ctx).
		Preload("IndexerData").
		Preload("Images").
		Order("sort_name").
		Order("id").
		Find(&artists).
		Error; err != nil {
		return nil, fmt.Errorf("error listing artists: %w", err)
	}
	return artists, nil
}

// AlbumsForArtist returns the artist's albums, oldest first.
func (db *DB) AlbumsForArtist(ctx context.Context, artistID uint) ([]data.Album, error) {
	var albums []data.Album
	if err := db.WithContext(ctx).
		Preload("IndexerData").
		Preload("Images").
		Where("artist_id = ?", artistID).
		Order("year").
		Order("name").
		Find(&albums).
		Error; err != nil {
		return nil, fmt.Errorf("error listing albums for artist %d: %w", artistID, err)
	}
	return albums, nil
}

// AlbumsNeedingLocation returns the artist's albums without a directory.
func (db *DB) AlbumsNeedingLocation(ctx context.Context, artistID uint) ([]data.Album, error) {
	var albums []data.Album
	if err := db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Where("location = '' OR location IS NULL").
		Order("id").
		Find(&albums).
		Error; err != nil {
		return nil, fmt.Errorf("error listing albums without location for artist %d: %w", artistID, err)
	}
	return albums, nil
}

// ArtistBySlug returns the first artist with slug, albums included.
// Slugs are not unique; ties go to the oldest artist.
func (db *DB) ArtistBySlug(ctx context.Context, slug string) (*data.Artist, error) {
	var artist data.Artist
	if err := db.WithContext(ctx).
		Preload("IndexerData.Genres").
		Preload("Images").
		Preload("Albums", func(tx *gorm.DB) *gorm.DB { return tx.Order("year").Order("name") }).
		Where("slug = ?", slug).
		Order("id").
		First(&artist).
		Error; err != nil {
		return nil, fmt.Errorf("error getting artist '%s': %w", slug, notFound(err))
	}
	return &artist, nil
}

// AlbumBySlug returns the first album with slug.
func (db *DB) AlbumBySlug(ctx context.Context, slug string) (*data.Album, error) {
	var album data.Album
	if err := db.WithContext(ctx).
		Preload("Artist").
		Preload("IndexerData.Genres").
		Preload("Images").
		Preload("Results").
		Where("slug = ?", slug).
		Order("id").
		First(&album).
		Error; err != nil {
		return nil, fmt.Errorf("error getting album '%s': %w", slug, notFound(err))
	}
	return &album, nil
}

// FindResult loads a search result with its album and the album's artist.
func (db *DB) FindResult(ctx context.Context, id uint) (*data.Result, error) {
	var result data.Result
	if err := db.WithContext(ctx).
		Preload("Album.Artist").
		First(&result, id).
		Error; err != nil {
		return nil, fmt.Errorf("error getting result %d: %w", id, notFound(err))
	}
	return &result, nil
}

// ArtistsToRefresh returns the catalog ids of every unpaused artist.
func (db *DB) ArtistsToRefresh(ctx context.Context) ([]string, error) {
	var ids []string
	if err := db.WithContext(ctx).
		Model(&data.IndexerData{}).
		Joins("JOIN artists ON artists.id = indexer_data.artist_id").
		Where("indexer_data.site = ?", data.SiteMusicBrainz).
		Where("artists.paused = ?", false).
		Order("artists.sort_name").
		Pluck("indexer_data.id", &ids).
		Error; err != nil {
		return nil, fmt.Errorf("error listing artists to refresh: %w", err)
	}
	return ids, nil
}
