// Package fetcher imports artists and their albums from MusicBrainz into the
// library.
package fetcher

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/data"
	"github.com/amonks/discography/fsutil"
	"github.com/amonks/discography/metadata"
	"github.com/amonks/discography/musicbrainz"
)

// Catalog is the part of the MusicBrainz client the fetcher uses.
type Catalog interface {
	GetArtist(ctx context.Context, id string) (*musicbrainz.Artist, error)
	BrowseReleaseGroups(ctx context.Context, artistID string, types []string, limit, offset int) (*musicbrainz.ReleaseGroupPage, error)
	GetReleaseGroup(ctx context.Context, id string) (*musicbrainz.ReleaseGroupDetail, error)
	GetReleaseTracks(ctx context.Context, releaseID string) ([]data.Track, error)
}

// Store is the part of the repository the fetcher uses. Only Commit writes.
type Store interface {
	ArtistForIndexerData(ctx context.Context, externalID string) (*data.Artist, error)
	AlbumForIndexerData(ctx context.Context, externalID string) (*data.Album, error)
	GetOrCreateGenre(ctx context.Context, name string) (*data.Genre, error)
	AlbumsForArtist(ctx context.Context, artistID uint) ([]data.Album, error)
	AlbumsNeedingLocation(ctx context.Context, artistID uint) ([]data.Album, error)
	Commit(ctx context.Context, entities ...any) error
}

type Fetcher struct {
	store        Store
	catalog      Catalog
	art          metadata.Provider
	releaseTypes []string
	log          hclog.Logger
}

func New(store Store, catalog Catalog, art metadata.Provider, releaseTypes []string, log hclog.Logger) *Fetcher {
	return &Fetcher{
		store:        store,
		catalog:      catalog,
		art:          art,
		releaseTypes: releaseTypes,
		log:          log.Named("fetcher"),
	}
}

// run is the state of one import: the genres it has resolved so far, and the
// albums it created.
type run struct {
	genres  map[string]data.Genre
	created []*data.Album
}

func newRun() *run {
	return &run{genres: map[string]data.Genre{}}
}

// genre resolves a tag to a genre once per run.
func (f *Fetcher) genre(ctx context.Context, r *run, name string) (data.Genre, error) {
	if genre, ok := r.genres[name]; ok {
		return genre, nil
	}
	genre, err := f.store.GetOrCreateGenre(ctx, name)
	if err != nil {
		return data.Genre{}, err
	}
	r.genres[name] = *genre
	return *genre, nil
}

// genres resolves every tag with a positive count.
func (f *Fetcher) genres(ctx context.Context, r *run, tags []musicbrainz.Tag) ([]data.Genre, error) {
	var genres []data.Genre
	seen := map[string]struct{}{}
	for _, tag := range tags {
		if tag.Count <= 0 || tag.Name == "" {
			continue
		}
		if _, dup := seen[tag.Name]; dup {
			continue
		}
		seen[tag.Name] = struct{}{}
		genre, err := f.genre(ctx, r, tag.Name)
		if err != nil {
			return nil, err
		}
		genres = append(genres, genre)
	}
	return genres, nil
}

// ensureDir creates dir, logging rather than failing.
func (f *Fetcher) ensureDir(dir string) {
	if err := fsutil.EnsureDir(dir); err != nil {
		f.log.Warn("error creating directory", "dir", dir, "error", err)
	}
}
