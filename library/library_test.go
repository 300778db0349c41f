package library_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/data"
	"github.com/amonks/discography/db"
	"github.com/amonks/discography/fetcher"
	"github.com/amonks/discography/library"
	"github.com/amonks/discography/musicbrainz"
	"github.com/amonks/discography/provider"
	"github.com/amonks/discography/workers"
)

type sent struct {
	url, name, dir string
}

type fakeDownloads struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (d *fakeDownloads) Send(ctx context.Context, url, name, dir string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sent{url, name, dir})
	return d.err
}

type fakeProvider struct {
	name  string
	caps  provider.Capabilities
	hits  []provider.Hit
	err   error
	terms [][]string
}

func (p *fakeProvider) ID() string                           { return p.name }
func (p *fakeProvider) Name() string                         { return p.name }
func (p *fakeProvider) Capabilities() provider.Capabilities { return p.caps }
func (p *fakeProvider) Search(ctx context.Context, terms []string) ([]provider.Hit, error) {
	p.terms = append(p.terms, terms)
	return p.hits, p.err
}

var searchable = provider.Capabilities{CanBacklog: true, BacklogEnabled: true, SupportsMovies: true}

type fakeSearcher struct{}

func (fakeSearcher) SearchArtists(ctx context.Context, name string) ([]musicbrainz.ArtistMatch, error) {
	return []musicbrainz.ArtistMatch{{ID: "A1", Name: name, Score: 100}}, nil
}

type fakeResolver struct {
	res *fetcher.Resolution
}

func (r *fakeResolver) ResolveArtist(ctx context.Context, externalID, rootDir string) (*fetcher.Resolution, error) {
	if r.res == nil {
		return nil, errors.New("unknown artist")
	}
	return r.res, nil
}

type fixture struct {
	store     *db.DB
	queue     *workers.Queue
	downloads *fakeDownloads
	artist    *data.Artist
	album     *data.Album
	music     config.Music
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(config.Database{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "music.db"),
	}, hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	artist := data.NewArtist("Test Artist", "Artist, Test", "US")
	require.NoError(t, store.Commit(ctx, artist))
	album := data.NewAlbum("Test Album", 2020, artist.ID, 10, "")
	require.NoError(t, store.Commit(ctx, album))

	return &fixture{
		store:     store,
		queue:     workers.NewQueue(&fakeResolver{}, "", hclog.NewNullLogger()),
		downloads: &fakeDownloads{},
		artist:    artist,
		album:     album,
		music: config.Music{
			RootDirs:    []string{t.TempDir()},
			DownloadDir: filepath.Join(t.TempDir(), "downloads"),
		},
	}
}

func (f *fixture) library(providers ...provider.Provider) *library.Library {
	return library.New(f.store, fakeSearcher{}, f.queue, providers, f.downloads, f.music, hclog.NewNullLogger())
}

func (f *fixture) result(t *testing.T) *data.Result {
	t.Helper()
	results := []data.Result{provider.Hit{
		Name: "Test Artist - Test Album [FLAC]",
		URL:  "magnet:?xt=urn:btih:abc",
		Size: 300_000_000,
	}.Result(f.album.ID, "Index")}
	require.NoError(t, f.store.ReplaceResults(context.Background(), f.album.ID, results))
	return &results[0]
}

func (f *fixture) snatches(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.store.Model(&data.MusicHistory{}).Count(&n).Error)
	return n
}

func TestImportArtist(t *testing.T) {
	f := newFixture(t)
	lib := f.library()

	first, ok := lib.ImportArtist("A1", "")
	require.True(t, ok)
	again, ok := lib.ImportArtist("A1", "")
	assert.True(t, ok)
	assert.Same(t, first, again)
	assert.Len(t, lib.Jobs(), 1)

	job, ok := lib.ImportArtist("", "")
	assert.False(t, ok)
	assert.Nil(t, job)

	job, ok = lib.ImportArtist("A2", filepath.Join(f.music.RootDirs[0], "Elsewhere"))
	assert.True(t, ok)
	assert.NotNil(t, job)
}

func TestImportArtistOutsideLibrary(t *testing.T) {
	f := newFixture(t)
	lib := f.library()

	for _, root := range []string{t.TempDir(), "/etc", "relative/dir", filepath.Join(f.music.RootDirs[0], "..")} {
		job, ok := lib.ImportArtist("A1", root)
		assert.False(t, ok, root)
		assert.Nil(t, job, root)
	}
	assert.Empty(t, lib.Jobs())
}

func TestSearchCatalog(t *testing.T) {
	matches, err := newFixture(t).library().SearchCatalog(context.Background(), "Test Artist")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "A1", matches[0].ID)
}

func TestSnatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	result := f.result(t)

	require.True(t, f.library().Snatch(ctx, result.ID))

	dir := filepath.Join(f.music.DownloadDir, "Test Artist", "Test Album")
	assert.DirExists(t, dir)
	assert.Equal(t, []sent{{result.URL, result.Name, dir}}, f.downloads.sent)

	album, err := f.store.FindAlbum(ctx, f.album.ID)
	require.NoError(t, err)
	assert.Equal(t, data.StatusSnatched, album.Status)
	assert.Equal(t, "Index", album.Provider)
	assert.Equal(t, int64(300_000_000), album.Size)
	assert.EqualValues(t, 1, f.snatches(t))
}

func TestSnatchClientFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	result := f.result(t)
	f.downloads.err = errors.New("client unreachable")

	assert.False(t, f.library().Snatch(ctx, result.ID))

	album, err := f.store.FindAlbum(ctx, f.album.ID)
	require.NoError(t, err)
	assert.Equal(t, data.StatusIgnored, album.Status)
	assert.Empty(t, album.Provider)
	assert.EqualValues(t, 0, f.snatches(t))
}

func TestSnatchWithoutDownloadDir(t *testing.T) {
	f := newFixture(t)
	result := f.result(t)
	f.music.DownloadDir = ""

	assert.False(t, f.library().Snatch(context.Background(), result.ID))
	assert.Empty(t, f.downloads.sent)
}

func TestSnatchUnknownResult(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.library().Snatch(context.Background(), 404))
	assert.Empty(t, f.downloads.sent)
}

func TestSearchProviders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	good := &fakeProvider{name: "good", caps: searchable, hits: []provider.Hit{
		{Name: "Test Artist - Test Album [FLAC]", URL: "http://example.com/1.torrent"},
		{Name: "Test Artist - Test Album [MP3 320]", URL: "http://example.com/2.torrent"},
	}}
	broken := &fakeProvider{name: "broken", caps: searchable, err: errors.New("timeout")}
	disabled := &fakeProvider{name: "disabled", caps: provider.Capabilities{CanBacklog: true, SupportsMovies: true}}

	results, err := f.library(good, broken, disabled).SearchProviders(ctx, f.album.ID)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, [][]string{{"Test Artist Test Album"}}, good.terms)
	assert.Len(t, broken.terms, 1)
	assert.Empty(t, disabled.terms)

	album, err := f.store.FindAlbum(ctx, f.album.ID)
	require.NoError(t, err)
	require.Len(t, album.Results, 2)
	assert.Equal(t, "good", album.Results[0].Provider)

	// Searching again replaces the old results.
	good.hits = good.hits[:1]
	_, err = f.library(good).SearchProviders(ctx, f.album.ID)
	require.NoError(t, err)
	album, err = f.store.FindAlbum(ctx, f.album.ID)
	require.NoError(t, err)
	assert.Len(t, album.Results, 1)
}

func TestAutoSearchNewAlbums(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.music.AutoSearch = true
	f.queue = workers.NewQueue(&fakeResolver{res: &fetcher.Resolution{
		Artist: f.artist,
		Albums: []*data.Album{f.album},
		New:    []*data.Album{f.album},
	}}, "", hclog.NewNullLogger())

	good := &fakeProvider{name: "good", caps: searchable, hits: []provider.Hit{
		{Name: "Test Artist - Test Album [FLAC]", URL: "http://example.com/1.torrent"},
	}}
	lib := f.library(good)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error)
	go func() { done <- f.queue.Run(runCtx, nil) }()
	defer func() {
		cancel()
		<-done
	}()

	_, ok := lib.ImportArtist("A1", "")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		album, err := f.store.FindAlbum(ctx, f.album.ID)
		return err == nil && len(album.Results) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSetArtistLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := filepath.Join(f.music.RootDirs[0], "Moved")

	artist, err := f.library().SetArtistLocation(ctx, f.artist.ID, path)
	require.NoError(t, err)
	assert.Equal(t, path, artist.Location)
	assert.DirExists(t, path)
	assert.DirExists(t, filepath.Join(path, "Test Album"))
}

func TestSetArtistLocationOutsideLibrary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "Moved")

	_, err := f.library().SetArtistLocation(ctx, f.artist.ID, path)
	assert.ErrorIs(t, err, library.ErrOutsideLibrary)
	assert.NoDirExists(t, path)

	artist, err := f.store.FindArtist(ctx, f.artist.ID)
	require.NoError(t, err)
	assert.Empty(t, artist.Location)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lib := f.library()

	require.NoError(t, lib.RemoveAlbum(ctx, f.album.ID))
	_, err := lib.GetAlbum(ctx, f.album.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, lib.RemoveArtist(ctx, f.artist.ID))
	_, err = lib.GetArtist(ctx, f.artist.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.ErrorIs(t, lib.RemoveArtist(ctx, f.artist.ID), db.ErrNotFound)
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lib := f.library()

	artists, err := lib.ListArtists(ctx)
	require.NoError(t, err)
	require.Len(t, artists, 1)

	artist, err := lib.ArtistBySlug(ctx, f.artist.Slug)
	require.NoError(t, err)
	require.Len(t, artist.Albums, 1)

	album, err := lib.AlbumBySlug(ctx, f.album.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Test Artist", album.Artist.Name)

	require.NoError(t, lib.SetAlbumStatus(ctx, f.album.ID, data.StatusWanted))
	albums, err := lib.AlbumsForArtist(ctx, f.artist.ID)
	require.NoError(t, err)
	assert.Equal(t, data.StatusWanted, albums[0].Status)
}
