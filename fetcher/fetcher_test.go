package fetcher_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/data"
	"github.com/amonks/discography/db"
	"github.com/amonks/discography/fetcher"
	"github.com/amonks/discography/metadata"
	"github.com/amonks/discography/musicbrainz"
)

type fakeCatalog struct {
	mu sync.Mutex

	artists map[string]*musicbrainz.Artist
	pages   [][]musicbrainz.ReleaseGroup
	groups  map[string]*musicbrainz.ReleaseGroupDetail
	tracks  map[string][]data.Track

	// browseErrAt fails the browse at that offset, if positive.
	browseErrAt int

	offsets []int
}

func (c *fakeCatalog) GetArtist(ctx context.Context, id string) (*musicbrainz.Artist, error) {
	artist, ok := c.artists[id]
	if !ok {
		return nil, fmt.Errorf("artist '%s': %w", id, musicbrainz.ErrNotFound)
	}
	return artist, nil
}

func (c *fakeCatalog) BrowseReleaseGroups(ctx context.Context, artistID string, types []string, limit, offset int) (*musicbrainz.ReleaseGroupPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsets = append(c.offsets, offset)

	if c.browseErrAt > 0 && offset == c.browseErrAt {
		return nil, musicbrainz.ErrMusicBrainz
	}
	page := &musicbrainz.ReleaseGroupPage{Offset: offset}
	if i := offset / limit; i < len(c.pages) {
		page.ReleaseGroups = c.pages[i]
	}
	return page, nil
}

func (c *fakeCatalog) GetReleaseGroup(ctx context.Context, id string) (*musicbrainz.ReleaseGroupDetail, error) {
	detail, ok := c.groups[id]
	if !ok {
		return nil, fmt.Errorf("release group '%s': %w", id, musicbrainz.ErrNotFound)
	}
	return detail, nil
}

func (c *fakeCatalog) GetReleaseTracks(ctx context.Context, releaseID string) ([]data.Track, error) {
	tracks, ok := c.tracks[releaseID]
	if !ok {
		return nil, musicbrainz.ErrMusicBrainz
	}
	return append([]data.Track(nil), tracks...), nil
}

// countingStore records the size of every commit.
type countingStore struct {
	*db.DB
	commits []int
	failing error
}

func (s *countingStore) Commit(ctx context.Context, entities ...any) error {
	s.commits = append(s.commits, len(entities))
	if s.failing != nil {
		return s.failing
	}
	return s.DB.Commit(ctx, entities...)
}

func openStore(t *testing.T) *countingStore {
	t.Helper()
	store, err := db.Open(config.Database{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "music.db"),
	}, hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return &countingStore{DB: store}
}

func count(t *testing.T, store *countingStore, table string, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := store.Table(table)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func releaseGroups(from, n int) []musicbrainz.ReleaseGroup {
	groups := make([]musicbrainz.ReleaseGroup, n)
	for i := range groups {
		groups[i] = musicbrainz.ReleaseGroup{
			ID:               fmt.Sprintf("AL%d", from+i),
			Title:            fmt.Sprintf("Album %d", from+i),
			PrimaryType:      "Album",
			FirstReleaseDate: "2019",
		}
	}
	return groups
}

// testArtistCatalog is the catalog from the end-to-end example.
func testArtistCatalog() *fakeCatalog {
	return &fakeCatalog{
		artists: map[string]*musicbrainz.Artist{
			"A1": {
				ID:       "A1",
				Name:     "Test Artist",
				SortName: "Artist, Test",
				Country:  "US",
				Tags:     []musicbrainz.Tag{{Name: "rock", Count: 10}},
				Doc:      data.Document{"id": "A1", "name": "Test Artist"},
			},
		},
		pages: [][]musicbrainz.ReleaseGroup{{{
			ID:               "AL1",
			Title:            "Test Album",
			PrimaryType:      "Album",
			FirstReleaseDate: "2020-01-01",
		}}},
		groups: map[string]*musicbrainz.ReleaseGroupDetail{
			"AL1": {
				Releases: []musicbrainz.Release{{ID: "R1"}},
				Doc:      data.Document{"id": "AL1", "releases": []any{map[string]any{"id": "R1"}}},
			},
		},
		tracks: map[string][]data.Track{
			"R1": tenTracks(),
		},
	}
}

func tenTracks() []data.Track {
	var tracks []data.Track
	for disc, n := range []int{6, 4} {
		for i := 0; i < n; i++ {
			tracks = append(tracks, data.Track{
				Disc:       disc + 1,
				Position:   i + 1,
				Title:      fmt.Sprintf("Track %d-%d", disc+1, i+1),
				DurationMS: 61_000,
			})
		}
	}
	return tracks
}

func newFetcher(store fetcher.Store, catalog fetcher.Catalog) *fetcher.Fetcher {
	return fetcher.New(store, catalog, nil, []string{"album", "ep", "single"}, hclog.NewNullLogger())
}

// fakeArtwork has a front cover for every release group except the bare
// ones.
type fakeArtwork struct {
	mu   sync.Mutex
	bare map[string]bool
}

func (a *fakeArtwork) GetReleaseGroupImages(ctx context.Context, id string) ([]musicbrainz.Image, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bare[id] {
		return nil, nil
	}
	return []musicbrainz.Image{{URL: "http://img/" + id, Front: true}}, nil
}

func (a *fakeArtwork) GetReleaseImages(ctx context.Context, id string) ([]musicbrainz.Image, error) {
	return nil, nil
}

func (a *fakeArtwork) FetchImage(ctx context.Context, url string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("jpeg:" + url)), nil
}

func newArtFetcher(t *testing.T, store fetcher.Store, catalog fetcher.Catalog, art *fakeArtwork) *fetcher.Fetcher {
	t.Helper()
	provider := metadata.New(art, t.TempDir(), hclog.NewNullLogger())
	return fetcher.New(store, catalog, provider, []string{"album", "ep", "single"}, hclog.NewNullLogger())
}

// seedArtist saves an artist with the given musicbrainz id without going
// through the counting commit.
func seedArtist(t *testing.T, store *countingStore, mbid string) *data.Artist {
	t.Helper()
	artist := data.NewArtist("Seeded", "", "")
	artist.IndexerData = []data.IndexerData{{ID: mbid, Site: data.SiteMusicBrainz}}
	require.NoError(t, store.DB.Commit(context.Background(), artist))
	return artist
}

func TestResolveNewArtist(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	root := t.TempDir()

	res, err := newFetcher(store, testArtistCatalog()).ResolveArtist(ctx, "A1", root)
	require.NoError(t, err)

	artist := res.Artist
	assert.Equal(t, "Test Artist", artist.Name)
	assert.Equal(t, "Artist, Test", artist.SortName)
	assert.Equal(t, "US", artist.Country)
	assert.Equal(t, filepath.Join(root, "Test Artist"), artist.Location)
	assert.DirExists(t, artist.Location)

	albums, err := store.AlbumsForArtist(ctx, artist.ID)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	album := albums[0]
	assert.Equal(t, "Test Album", album.Name)
	assert.Equal(t, 2020, album.Year)
	assert.Equal(t, 10, album.Tracks)
	assert.Equal(t, data.StatusIgnored, album.Status)
	assert.Equal(t, "Album", album.Type)
	require.NotNil(t, album.Date)
	assert.Equal(t, "2020-01-01", album.Date.Format("2006-01-02"))
	assert.Equal(t, filepath.Join(root, "Test Artist", "Test Album"), album.Location)
	assert.DirExists(t, album.Location)

	tracks := album.TrackList()
	require.Len(t, tracks, 10)
	assert.Equal(t, "1:01", tracks[0].Duration)
	assert.Equal(t, 2, tracks[9].Disc)

	stored, err := store.ArtistForIndexerData(ctx, "A1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []data.Genre{{Name: "rock"}}, stored.Genres())

	assert.Len(t, res.New, 1)
	assert.Len(t, res.Albums, 1)
}

func TestResolveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	f := newFetcher(store, testArtistCatalog())

	first, err := f.ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)
	second, err := f.ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)

	assert.Equal(t, first.Artist.ID, second.Artist.ID)
	assert.Empty(t, second.New)
	require.Len(t, second.Albums, 1)
	assert.Equal(t, first.Albums[0].ID, second.Albums[0].ID)

	assert.EqualValues(t, 1, count(t, store, "artists", ""))
	assert.EqualValues(t, 1, count(t, store, "albums", ""))
	assert.EqualValues(t, 2, count(t, store, "indexer_data", ""))
	assert.EqualValues(t, 1, count(t, store, "genres", ""))
	assert.EqualValues(t, 1, count(t, store, "indexer_data_genres", ""))
}

func TestResolveExistingBackfillsLocations(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	f := newFetcher(store, testArtistCatalog())

	_, err := f.ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)

	root := t.TempDir()
	res, err := f.ResolveArtist(ctx, "A1", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Test Artist"), res.Artist.Location)

	albums, err := store.AlbumsForArtist(ctx, res.Artist.ID)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, filepath.Join(root, "Test Artist", "Test Album"), albums[0].Location)
	assert.DirExists(t, albums[0].Location)
}

func TestResolveRepairsOrphan(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	orphan := &data.IndexerData{
		ID:     "A1",
		Site:   data.SiteMusicBrainz,
		Genres: []data.Genre{{Name: "stale"}},
	}
	require.NoError(t, store.DB.Commit(ctx, orphan))

	res, err := newFetcher(store, testArtistCatalog()).ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)

	found, err := store.ArtistForIndexerData(ctx, "A1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, res.Artist.ID, found.ID)
	assert.EqualValues(t, 0, count(t, store, "genres", "name = ?", "stale"))
	assert.EqualValues(t, 1, count(t, store, "indexer_data", "id = ?", "A1"))
}

func TestResolveUnknownArtistFails(t *testing.T) {
	store := openStore(t)
	_, err := newFetcher(store, testArtistCatalog()).ResolveArtist(context.Background(), "nobody", "")
	assert.ErrorIs(t, err, musicbrainz.ErrNotFound)
	assert.EqualValues(t, 0, count(t, store, "artists", ""))
}

func TestResolveCommitFailure(t *testing.T) {
	store := openStore(t)
	store.failing = errors.New("disk full")

	_, err := newFetcher(store, testArtistCatalog()).ResolveArtist(context.Background(), "A1", "")
	assert.ErrorIs(t, err, store.failing)
	assert.EqualValues(t, 0, count(t, store, "artists", ""))
}

func TestGenresAreShared(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	catalog := testArtistCatalog()
	catalog.pages = [][]musicbrainz.ReleaseGroup{releaseGroups(1, 2)}
	for _, id := range []string{"AL1", "AL2"} {
		catalog.groups[id] = &musicbrainz.ReleaseGroupDetail{
			Tags: []musicbrainz.Tag{{Name: "rock", Count: 3}, {Name: "unloved", Count: 0}},
			Doc:  data.Document{"id": id},
		}
	}

	_, err := newFetcher(store, catalog).ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)

	assert.EqualValues(t, 1, count(t, store, "genres", ""))
	assert.EqualValues(t, 3, count(t, store, "indexer_data_genres", "genre_name = ?", "rock"))
}

func TestPaginationStopsOnShortPage(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	catalog := &fakeCatalog{pages: [][]musicbrainz.ReleaseGroup{
		releaseGroups(0, 25),
		releaseGroups(25, 25),
		releaseGroups(50, 7),
	}}
	artist := seedArtist(t, store, "A1")

	albums, err := newFetcher(store, catalog).ImportAlbums(ctx, artist)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 25, 50}, catalog.offsets)
	assert.Len(t, albums, 57)
	assert.EqualValues(t, 57, count(t, store, "albums", ""))
}

func TestPaginationStopsOnEmptyPage(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	catalog := &fakeCatalog{pages: [][]musicbrainz.ReleaseGroup{releaseGroups(0, 25)}}
	artist := seedArtist(t, store, "A1")

	albums, err := newFetcher(store, catalog).ImportAlbums(ctx, artist)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 25}, catalog.offsets)
	assert.Len(t, albums, 25)
}

func TestChunkedCommits(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	catalog := &fakeCatalog{pages: [][]musicbrainz.ReleaseGroup{releaseGroups(0, 23)}}
	artist := seedArtist(t, store, "A1")

	albums, err := newFetcher(store, catalog).ImportAlbums(ctx, artist)
	require.NoError(t, err)
	assert.Len(t, albums, 23)
	assert.Equal(t, []int{10, 10, 3}, store.commits)
}

func TestDuplicateReleaseGroups(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	first := releaseGroups(0, 25)
	first[3] = first[1] // same chunk
	second := append(releaseGroups(25, 2), first[0])
	catalog := &fakeCatalog{pages: [][]musicbrainz.ReleaseGroup{first, second}}
	artist := seedArtist(t, store, "A1")

	albums, err := newFetcher(store, catalog).ImportAlbums(ctx, artist)
	require.NoError(t, err)
	assert.Len(t, albums, 28)
	assert.EqualValues(t, 26, count(t, store, "albums", ""))
	assert.Equal(t, albums[0].ID, albums[27].ID)
}

func TestCatalogFailureSalvages(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	catalog := &fakeCatalog{
		pages:       [][]musicbrainz.ReleaseGroup{releaseGroups(0, 25), releaseGroups(25, 25)},
		browseErrAt: 25,
	}
	artist := seedArtist(t, store, "A1")

	albums, err := newFetcher(store, catalog).ImportAlbums(ctx, artist)
	require.NoError(t, err)
	assert.Len(t, albums, 25)
	assert.EqualValues(t, 25, count(t, store, "albums", ""))
	assert.Equal(t, []int{10, 10, 5}, store.commits)
}

func TestCanceledImportKeepsPendingChunk(t *testing.T) {
	store := openStore(t)
	catalog := &fakeCatalog{pages: [][]musicbrainz.ReleaseGroup{releaseGroups(0, 25), releaseGroups(25, 25)}}
	artist := seedArtist(t, store, "A1")

	ctx, cancel := context.WithCancel(context.Background())
	blocking := &cancelingCatalog{fakeCatalog: catalog, cancelAt: 25, cancel: cancel}

	albums, err := newFetcher(store, blocking).ImportAlbums(ctx, artist)
	require.NoError(t, err)
	assert.Len(t, albums, 25)
	assert.EqualValues(t, 25, count(t, store, "albums", ""))
}

// cancelingCatalog cancels the import when asked for a page.
type cancelingCatalog struct {
	*fakeCatalog
	cancelAt int
	cancel   context.CancelFunc
}

func (c *cancelingCatalog) BrowseReleaseGroups(ctx context.Context, artistID string, types []string, limit, offset int) (*musicbrainz.ReleaseGroupPage, error) {
	if offset == c.cancelAt {
		c.cancel()
		return nil, ctx.Err()
	}
	return c.fakeCatalog.BrowseReleaseGroups(ctx, artistID, types, limit, offset)
}

func TestImportWithoutMusicBrainzID(t *testing.T) {
	store := openStore(t)
	albums, err := newFetcher(store, &fakeCatalog{}).ImportAlbums(context.Background(), data.NewArtist("Nobody", "", ""))
	require.NoError(t, err)
	assert.Empty(t, albums)
}

func TestBackfillsTrackListing(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	catalog := testArtistCatalog()
	delete(catalog.tracks, "R1")
	f := newFetcher(store, catalog)

	res, err := f.ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)
	require.Len(t, res.Albums, 1)
	assert.Equal(t, 0, res.Albums[0].Tracks)

	catalog.tracks["R1"] = tenTracks()
	_, err = f.ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)

	album, err := store.AlbumForIndexerData(ctx, "AL1")
	require.NoError(t, err)
	require.NotNil(t, album)
	assert.Equal(t, 10, album.Tracks)
	assert.Len(t, album.TrackList(), 10)
}

func TestMissingReleaseGroupDetail(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	catalog := testArtistCatalog()
	delete(catalog.groups, "AL1")

	res, err := newFetcher(store, catalog).ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)
	require.Len(t, res.Albums, 1)
	assert.Equal(t, "Test Album", res.Albums[0].Name)
	assert.Equal(t, 0, res.Albums[0].Tracks)
}

func TestArtworkSurvivesReimport(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	root := t.TempDir()
	f := newArtFetcher(t, store, testArtistCatalog(), &fakeArtwork{})

	for i := 0; i < 2; i++ {
		_, err := f.ResolveArtist(ctx, "A1", root)
		require.NoError(t, err)

		artist, err := store.ArtistForIndexerData(ctx, "A1")
		require.NoError(t, err)
		require.NotNil(t, artist)
		poster := artist.Poster()
		require.NotNil(t, poster)
		assert.Equal(t, "http://img/AL1", poster.URL)
		assert.Equal(t, artist.ID, *poster.ArtistID)
		assert.Nil(t, poster.AlbumID)

		album, err := store.AlbumForIndexerData(ctx, "AL1")
		require.NoError(t, err)
		require.NotNil(t, album)
		cover := album.Cover()
		require.NotNil(t, cover)
		assert.Equal(t, "http://img/AL1", cover.URL)
		assert.Equal(t, album.ID, *cover.AlbumID)
		assert.Nil(t, cover.ArtistID)

		assert.EqualValues(t, 2, count(t, store, "music_images", ""))
	}

	artistDir := filepath.Join(root, "Test Artist")
	assert.FileExists(t, filepath.Join(artistDir, metadata.ArtistPoster))
	assert.FileExists(t, filepath.Join(artistDir, metadata.ArtistNFO))
	assert.FileExists(t, filepath.Join(artistDir, "Test Album", metadata.AlbumCover))
	assert.FileExists(t, filepath.Join(artistDir, "Test Album", metadata.AlbumNFO))
}

func TestChunkedCommitsWithArtwork(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	catalog := &fakeCatalog{pages: [][]musicbrainz.ReleaseGroup{releaseGroups(0, 23)}}
	artist := seedArtist(t, store, "A1")

	albums, err := newArtFetcher(t, store, catalog, &fakeArtwork{}).ImportAlbums(ctx, artist)
	require.NoError(t, err)
	assert.Len(t, albums, 23)
	assert.Equal(t, []int{10, 10, 3}, store.commits)
	assert.EqualValues(t, 23, count(t, store, "music_images", "album_id IS NOT NULL"))
}

func TestBackfillsCover(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	art := &fakeArtwork{bare: map[string]bool{"AL1": true}}
	f := newArtFetcher(t, store, testArtistCatalog(), art)

	_, err := f.ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)
	album, err := store.AlbumForIndexerData(ctx, "AL1")
	require.NoError(t, err)
	require.NotNil(t, album)
	assert.Nil(t, album.Cover())
	assert.EqualValues(t, 0, count(t, store, "music_images", ""))

	art.mu.Lock()
	art.bare = nil
	art.mu.Unlock()

	res, err := f.ResolveArtist(ctx, "A1", "")
	require.NoError(t, err)
	assert.Empty(t, res.New)

	album, err = store.AlbumForIndexerData(ctx, "AL1")
	require.NoError(t, err)
	require.NotNil(t, album.Cover())
	assert.Equal(t, "http://img/AL1", album.Cover().URL)
	artist, err := store.ArtistForIndexerData(ctx, "A1")
	require.NoError(t, err)
	assert.NotNil(t, artist.Poster())
	assert.EqualValues(t, 2, count(t, store, "music_images", ""))
}
