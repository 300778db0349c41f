// Package library is the music library's API: importing artists, browsing
// and editing what's been imported, and searching for and snatching albums.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/data"
	"github.com/amonks/discography/db"
	"github.com/amonks/discography/downloader"
	"github.com/amonks/discography/fsutil"
	"github.com/amonks/discography/musicbrainz"
	"github.com/amonks/discography/provider"
	"github.com/amonks/discography/workers"
)

// Searcher finds artists in the catalog.
type Searcher interface {
	SearchArtists(ctx context.Context, name string) ([]musicbrainz.ArtistMatch, error)
}

type Library struct {
	db        *db.DB
	catalog   Searcher
	queue     *workers.Queue
	providers []provider.Provider
	downloads downloader.Client
	music     config.Music
	log       hclog.Logger
}

func New(store *db.DB, catalog Searcher, queue *workers.Queue, providers []provider.Provider, downloads downloader.Client, music config.Music, log hclog.Logger) *Library {
	l := &Library{
		db:        store,
		catalog:   catalog,
		queue:     queue,
		providers: providers,
		downloads: downloads,
		music:     music,
		log:       log.Named("library"),
	}
	if music.AutoSearch {
		queue.OnDone(l.searchNewAlbums)
	}
	return l
}

// ErrOutsideLibrary is returned for a path outside every configured music
// directory.
var ErrOutsideLibrary = errors.New("path is outside the music directories")

// inLibrary reports whether path is under one of the configured roots.
func (l *Library) inLibrary(path string) bool {
	for _, root := range l.music.Roots() {
		if fsutil.Within(path, root) {
			return true
		}
	}
	return false
}

// ImportArtist queues an import of the MusicBrainz artist externalID under
// rootDir, or under the configured root if rootDir is empty. It reports
// whether the import was accepted; an import already queued for the same
// artist is accepted without queuing another. A rootDir outside the music
// directories is refused.
func (l *Library) ImportArtist(externalID, rootDir string) (*workers.Job, bool) {
	if externalID == "" {
		l.log.Error("can't import an artist without an id")
		return nil, false
	}
	if rootDir != "" && !l.inLibrary(rootDir) {
		l.log.Error("refusing to import outside the music directories", "artist-id", externalID, "root", rootDir)
		return nil, false
	}
	job, created := l.queue.Add(externalID, rootDir)
	if !created {
		l.log.Debug("artist is already queued", "artist-id", externalID, "job", job.ID.String())
	}
	return job, true
}

func (l *Library) Jobs() []workers.JobInfo {
	return l.queue.Jobs()
}

func (l *Library) SearchCatalog(ctx context.Context, name string) ([]musicbrainz.ArtistMatch, error) {
	return l.catalog.SearchArtists(ctx, name)
}

func (l *Library) GetArtist(ctx context.Context, id uint) (*data.Artist, error) {
	return l.db.FindArtist(ctx, id)
}

func (l *Library) GetAlbum(ctx context.Context, id uint) (*data.Album, error) {
	return l.db.FindAlbum(ctx, id)
}

func (l *Library) ListArtists(ctx context.Context) ([]data.Artist, error) {
	return l.db.ListArtists(ctx)
}

func (l *Library) AlbumsForArtist(ctx context.Context, artistID uint) ([]data.Album, error) {
	return l.db.AlbumsForArtist(ctx, artistID)
}

func (l *Library) ArtistBySlug(ctx context.Context, slug string) (*data.Artist, error) {
	return l.db.ArtistBySlug(ctx, slug)
}

func (l *Library) AlbumBySlug(ctx context.Context, slug string) (*data.Album, error) {
	return l.db.AlbumBySlug(ctx, slug)
}

func (l *Library) SetAlbumStatus(ctx context.Context, id uint, status data.AlbumStatus) error {
	return l.db.SetAlbumStatus(ctx, id, status)
}

func (l *Library) SetAlbumsStatus(ctx context.Context, ids []uint, status data.AlbumStatus) error {
	return l.db.SetAlbumsStatus(ctx, ids, status)
}

// SetArtistLocation moves the artist to path, creating its directory and
// the directories of any albums that moved with it. path must be inside a
// music directory.
func (l *Library) SetArtistLocation(ctx context.Context, artistID uint, path string) (*data.Artist, error) {
	if !l.inLibrary(path) {
		return nil, fmt.Errorf("%w: '%s'", ErrOutsideLibrary, path)
	}
	if err := fsutil.EnsureDir(path); err != nil {
		return nil, err
	}
	artist, albums, err := l.db.SetArtistLocation(ctx, artistID, path)
	if err != nil {
		return nil, err
	}
	for _, album := range albums {
		if album.Location == "" {
			continue
		}
		if err := fsutil.EnsureDir(album.Location); err != nil {
			l.log.Warn("error creating album directory", "album", album.Name, "error", err)
		}
	}
	return artist, nil
}

func (l *Library) RemoveArtist(ctx context.Context, id uint) error {
	return l.db.DeleteArtist(ctx, id)
}

func (l *Library) RemoveAlbum(ctx context.Context, id uint) error {
	return l.db.DeleteAlbum(ctx, id)
}

// SearchProviders searches every enabled provider for the album, replacing
// its stored results with what was found. A provider that fails is skipped.
func (l *Library) SearchProviders(ctx context.Context, albumID uint) ([]data.Result, error) {
	album, err := l.db.FindAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	log := l.log.With("album", album.Name)

	terms := album.SearchStrings()
	var results []data.Result
	for _, p := range provider.Searchable(l.providers) {
		hits, err := p.Search(ctx, terms)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("canceled: %w", ctx.Err())
			}
			log.Warn("error searching provider", "provider", p.Name(), "error", err)
			continue
		}
		for _, hit := range hits {
			results = append(results, hit.Result(album.ID, p.Name()))
		}
	}

	if err := l.db.ReplaceResults(ctx, album.ID, results); err != nil {
		return nil, err
	}
	log.Info("searched providers", "results", len(results))
	return results, nil
}

var errNoDownloadDir = errors.New("no download directory configured")

// Snatch sends a search result to the download client, into
// <download dir>/<artist>/<album>, and marks its album SNATCHED. It reports
// whether that worked; on failure the album is left as it was.
func (l *Library) Snatch(ctx context.Context, resultID uint) bool {
	if err := l.snatch(ctx, resultID); err != nil {
		l.log.Error("error snatching", "result", resultID, "error", err)
		return false
	}
	return true
}

func (l *Library) snatch(ctx context.Context, resultID uint) error {
	if l.music.DownloadDir == "" {
		return errNoDownloadDir
	}
	result, err := l.db.FindResult(ctx, resultID)
	if err != nil {
		return err
	}
	album := result.Album
	if album == nil {
		return fmt.Errorf("result '%s' has no album", result.Name)
	}
	artist := album.Artist
	if artist == nil {
		return fmt.Errorf("album '%s' has no artist", album.Name)
	}

	l.log.Info("snatching", "album", album.Name, "artist", artist.Name, "provider", result.Provider)
	dir := fsutil.Join(fsutil.Join(l.music.DownloadDir, artist.Name), album.Name)
	if err := fsutil.EnsureDir(dir); err != nil {
		return err
	}
	if err := l.downloads.Send(ctx, result.URL, result.Name, dir); err != nil {
		return fmt.Errorf("error sending '%s' to the download client: %w", result.Name, err)
	}
	if err := l.db.RecordSnatch(ctx, album.ID, result.Provider, result.Size, result.Quality); err != nil {
		return err
	}
	l.log.Info("snatched", "album", album.Name, "artist", artist.Name)
	return nil
}

// searchNewAlbums searches providers for the albums an import created.
func (l *Library) searchNewAlbums(ctx context.Context, job *workers.Job) {
	res := job.Resolution()
	if job.Outcome().Kind != workers.Resolved || res == nil || len(res.New) == 0 || len(provider.Searchable(l.providers)) == 0 {
		return
	}
	for _, album := range res.New {
		if ctx.Err() != nil {
			return
		}
		if _, err := l.SearchProviders(ctx, album.ID); err != nil {
			l.log.Warn("error searching for new album", "album", album.Name, "error", err)
		}
	}
}
