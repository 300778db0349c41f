package fetcher

import (
	"context"
	"fmt"

	"github.com/amonks/discography/data"
	"github.com/amonks/discography/fsutil"
)

// A Resolution is the outcome of importing one artist.
type Resolution struct {
	Artist *data.Artist

	// Albums is every album the import saw; New is the ones it created.
	Albums []*data.Album
	New    []*data.Album
}

// ResolveArtist imports the MusicBrainz artist externalID, or refreshes it
// if the library already has it. New directories go under rootDir; with no
// rootDir, artists are imported without a location.
func (f *Fetcher) ResolveArtist(ctx context.Context, externalID, rootDir string) (*Resolution, error) {
	artist, err := f.store.ArtistForIndexerData(ctx, externalID)
	if err != nil {
		return nil, err
	}

	r := newRun()
	if artist != nil {
		err = f.refresh(ctx, r, artist, rootDir)
	} else {
		artist, err = f.create(ctx, r, externalID, rootDir)
	}
	if err != nil {
		return nil, err
	}

	albums, err := f.importAlbums(ctx, r, artist)
	if err != nil {
		return nil, fmt.Errorf("error importing albums for '%s': %w", artist.Name, err)
	}

	f.poster(ctx, artist)
	f.writeNFO(ctx, artist)

	return &Resolution{Artist: artist, Albums: albums, New: r.created}, nil
}

// refresh gives an existing artist, and its albums, a location if they lack
// one and one can be given.
func (f *Fetcher) refresh(ctx context.Context, r *run, artist *data.Artist, rootDir string) error {
	f.log.Debug("artist already imported", "artist", artist.Name, "id", artist.ID)

	if artist.Location == "" && rootDir != "" {
		artist.Location = fsutil.Join(rootDir, artist.Name)
		f.ensureDir(artist.Location)
	}

	dirty := []any{artist}
	if artist.Location != "" {
		albums, err := f.store.AlbumsNeedingLocation(ctx, artist.ID)
		if err != nil {
			return err
		}
		for i := range albums {
			album := &albums[i]
			album.Location = fsutil.Join(artist.Location, album.Name)
			f.ensureDir(album.Location)
			dirty = append(dirty, album)
		}
	}

	if err := f.store.Commit(ctx, dirty...); err != nil {
		return fmt.Errorf("error updating artist '%s': %w", artist.Name, err)
	}
	return nil
}

// create makes a new artist from MusicBrainz. The artist and its indexer
// data are committed before genres are attached to them.
func (f *Fetcher) create(ctx context.Context, r *run, externalID, rootDir string) (*data.Artist, error) {
	detail, err := f.catalog.GetArtist(ctx, externalID)
	if err != nil {
		return nil, err
	}

	artist := data.NewArtist(detail.Name, detail.SortName, detail.Country)
	if rootDir != "" {
		artist.Location = fsutil.Join(rootDir, artist.Name)
		f.ensureDir(artist.Location)
	}
	doc := detail.Doc
	if doc == nil {
		doc = data.Document{}
	}
	artist.IndexerData = []data.IndexerData{{
		ID:   externalID,
		Site: data.SiteMusicBrainz,
		Data: doc,
	}}
	if err := f.store.Commit(ctx, artist); err != nil {
		return nil, fmt.Errorf("error creating artist '%s': %w", artist.Name, err)
	}

	genres, err := f.genres(ctx, r, detail.Tags)
	if err != nil {
		return nil, fmt.Errorf("error resolving genres for '%s': %w", artist.Name, err)
	}
	if len(genres) > 0 {
		indexerData := &artist.IndexerData[0]
		indexerData.Genres = genres
		if err := f.store.Commit(ctx, indexerData); err != nil {
			return nil, fmt.Errorf("error attaching genres to '%s': %w", artist.Name, err)
		}
	}

	f.log.Info("created artist", "artist", artist.Name, "id", artist.ID, "location", artist.Location)
	return artist, nil
}

// poster fetches a missing poster, logging rather than failing.
func (f *Fetcher) poster(ctx context.Context, artist *data.Artist) {
	if f.art == nil || artist.Poster() != nil || ctx.Err() != nil {
		return
	}
	albums, err := f.store.AlbumsForArtist(ctx, artist.ID)
	if err != nil {
		f.log.Warn("error listing albums for poster", "artist", artist.Name, "error", err)
		return
	}
	image, err := f.art.FetchPoster(ctx, artist, albums)
	if err != nil {
		f.log.Warn("error fetching poster", "artist", artist.Name, "error", err)
		return
	}
	if image == nil {
		return
	}
	if err := f.store.Commit(ctx, image); err != nil {
		f.log.Warn("error saving poster", "artist", artist.Name, "error", err)
		return
	}
	artist.Images = append(artist.Images, *image)
}

func (f *Fetcher) writeNFO(ctx context.Context, artist *data.Artist) {
	if f.art == nil || artist.Location == "" || ctx.Err() != nil {
		return
	}
	albums, err := f.store.AlbumsForArtist(ctx, artist.ID)
	if err != nil {
		f.log.Warn("error listing albums for nfo", "artist", artist.Name, "error", err)
		return
	}
	if err := f.art.WriteNFO(artist, albums); err != nil {
		f.log.Warn("error writing nfo", "artist", artist.Name, "error", err)
	}
}
