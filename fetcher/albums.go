package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/amonks/discography/data"
	"github.com/amonks/discography/fsutil"
	"github.com/amonks/discography/musicbrainz"
)

const (
	// pageSize is how many release groups are browsed per request.
	pageSize = 25

	// chunkSize is how many new albums are committed together.
	chunkSize = 10
)

// ImportAlbums pages through the artist's release groups, creating albums
// for the ones the library doesn't have and backfilling the ones it does.
// It returns every album it saw.
//
// Catalog trouble ends the import early with what was salvaged and no
// error; only a failure to commit is returned.
func (f *Fetcher) ImportAlbums(ctx context.Context, artist *data.Artist) ([]*data.Album, error) {
	return f.importAlbums(ctx, newRun(), artist)
}

// chunk holds new albums until they are committed, plus backfilled
// entities to commit alongside them.
type chunk struct {
	albums []*data.Album
	dirty  []any
}

func (f *Fetcher) importAlbums(ctx context.Context, r *run, artist *data.Artist) ([]*data.Album, error) {
	mbid := artist.MusicBrainzID()
	if mbid == "" {
		f.log.Error("can't import albums for an artist without a musicbrainz id", "artist", artist.Name)
		return nil, nil
	}
	log := f.log.With("artist", artist.Name)

	var (
		albums  []*data.Album
		pending chunk
	)
	err := func() error {
		for offset := 0; ; offset += pageSize {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("canceled: %w", err)
			}

			page, err := f.catalog.BrowseReleaseGroups(ctx, mbid, f.releaseTypes, pageSize, offset)
			if err != nil {
				return fmt.Errorf("error browsing release groups at offset %d: %w", offset, err)
			}

			for _, group := range page.ReleaseGroups {
				album, err := f.importAlbum(ctx, r, artist, group, &pending)
				if err != nil {
					return err
				}
				albums = append(albums, album)

				if len(pending.albums) >= chunkSize {
					if err := f.flush(ctx, r, &pending); err != nil {
						return err
					}
				}
			}

			if len(page.ReleaseGroups) < pageSize {
				return nil
			}
		}
	}()

	var commitErr *commitError
	if errors.As(err, &commitErr) {
		return albums, err
	} else if err != nil {
		log.Warn("album import stopped early", "albums", len(albums), "error", err)
	}

	if err := f.flush(ctx, r, &pending); err != nil {
		return albums, err
	}
	log.Info("imported albums", "albums", len(albums), "new", len(r.created))
	return albums, nil
}

// importAlbum returns the library's album for a release group, creating it
// in the pending chunk if there isn't one.
func (f *Fetcher) importAlbum(ctx context.Context, r *run, artist *data.Artist, group musicbrainz.ReleaseGroup, pending *chunk) (*data.Album, error) {
	existing, err := f.store.AlbumForIndexerData(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("error looking up album '%s': %w", group.Title, err)
	}
	if existing != nil {
		pending.dirty = append(pending.dirty, f.backfill(ctx, existing)...)
		return existing, nil
	}
	for _, album := range pending.albums {
		if album.MusicBrainzID() == group.ID {
			return album, nil
		}
	}

	album, err := f.newAlbum(ctx, r, artist, group)
	if err != nil {
		return nil, err
	}
	pending.albums = append(pending.albums, album)
	return album, nil
}

func (f *Fetcher) newAlbum(ctx context.Context, r *run, artist *data.Artist, group musicbrainz.ReleaseGroup) (*data.Album, error) {
	albumType := group.PrimaryType
	if albumType == "" {
		albumType = "Album"
	}

	doc := data.Document{}
	var tags []musicbrainz.Tag
	detail, err := f.catalog.GetReleaseGroup(ctx, group.ID)
	if err != nil {
		f.log.Warn("error getting release group; continuing without it", "release-group", group.ID, "error", err)
	} else {
		doc = detail.Doc
		if doc == nil {
			doc = data.Document{}
		}
		tags = detail.Tags
		if tracks, ok := f.tracks(ctx, detail.Releases); ok {
			doc[data.TrackListKey] = tracks
		}
	}

	album := data.NewAlbum(group.Title, releaseYear(group.FirstReleaseDate), artist.ID, len(doc.Tracks()), albumType)
	album.Date = releaseDate(group.FirstReleaseDate)

	genres, err := f.genres(ctx, r, tags)
	if err != nil {
		return nil, fmt.Errorf("error resolving genres for '%s': %w", group.Title, err)
	}
	album.IndexerData = []data.IndexerData{{
		ID:     group.ID,
		Site:   data.SiteMusicBrainz,
		Data:   doc,
		Genres: genres,
	}}

	if artist.Location != "" {
		album.Location = fsutil.Join(artist.Location, album.Name)
		f.ensureDir(album.Location)
	}
	if image := f.cover(ctx, album); image != nil {
		album.Images = append(album.Images, *image)
	}
	return album, nil
}

// tracks fetches the track listing of the first release.
func (f *Fetcher) tracks(ctx context.Context, releases []musicbrainz.Release) ([]data.Track, bool) {
	if len(releases) == 0 {
		return nil, false
	}
	tracks, err := f.catalog.GetReleaseTracks(ctx, releases[0].ID)
	if err != nil {
		f.log.Warn("error getting tracks", "release", releases[0].ID, "error", err)
		return nil, false
	}
	for i := range tracks {
		tracks[i].Duration = data.FormatDuration(tracks[i].DurationMS)
	}
	if tracks == nil {
		tracks = []data.Track{}
	}
	return tracks, true
}

// backfill fetches a missing cover and track listing for an existing album,
// returning whatever needs saving. A new cover is saved with the album.
func (f *Fetcher) backfill(ctx context.Context, album *data.Album) []any {
	var (
		dirty   []any
		changed bool
	)

	if indexerData := album.MusicBrainz(); indexerData != nil && !indexerData.Data.HasTracks() {
		if tracks, ok := f.tracks(ctx, firstReleases(indexerData.Data)); ok {
			if indexerData.Data == nil {
				indexerData.Data = data.Document{}
			}
			indexerData.Data[data.TrackListKey] = tracks
			album.Tracks = len(tracks)
			dirty = append(dirty, indexerData)
			changed = true
		}
	}

	if album.Cover() == nil {
		if image := f.cover(ctx, album); image != nil {
			album.Images = append(album.Images, *image)
			changed = true
		}
	}

	if changed {
		dirty = append([]any{album}, dirty...)
	}
	return dirty
}

// firstReleases reads the release list out of a stored release group.
func firstReleases(doc data.Document) []musicbrainz.Release {
	if id := doc.FirstReleaseID(); id != "" {
		return []musicbrainz.Release{{ID: id}}
	}
	return nil
}

// cover fetches an album's cover, logging rather than failing.
func (f *Fetcher) cover(ctx context.Context, album *data.Album) *data.Image {
	if f.art == nil {
		return nil
	}
	image, err := f.art.FetchCover(ctx, album)
	if err != nil {
		f.log.Warn("error fetching cover", "album", album.Name, "error", err)
		return nil
	}
	return image
}

type commitError struct{ error }

func (err *commitError) Unwrap() error { return err.error }

// flush commits the pending chunk. New albums carry their covers. The commit
// goes ahead even if ctx is canceled, so shutting down loses no more than the
// albums not yet fetched.
func (f *Fetcher) flush(ctx context.Context, r *run, pending *chunk) error {
	if len(pending.albums) == 0 && len(pending.dirty) == 0 {
		return nil
	}

	entities := make([]any, 0, len(pending.albums)+len(pending.dirty))
	for _, album := range pending.albums {
		entities = append(entities, album)
	}
	entities = append(entities, pending.dirty...)
	if err := f.store.Commit(context.WithoutCancel(ctx), entities...); err != nil {
		return &commitError{fmt.Errorf("error committing %d albums: %w", len(pending.albums), err)}
	}
	r.created = append(r.created, pending.albums...)

	*pending = chunk{}
	return nil
}

// releaseYear reads the year from an ISO date, or 0.
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// releaseDate reads a full ISO date, or nil.
func releaseDate(date string) *time.Time {
	if len(date) < 10 {
		return nil
	}
	t, err := time.Parse(time.DateOnly, date[:10])
	if err != nil {
		return nil
	}
	return &t
}
