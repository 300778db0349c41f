// Package metadata writes the artwork and .nfo files media players read from
// artist and album directories.
package metadata

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/data"
	"github.com/amonks/discography/fsutil"
	"github.com/amonks/discography/musicbrainz"
	"github.com/amonks/discography/readthrough"
)

const (
	ArtistNFO    = "artist.nfo"
	AlbumNFO     = "album.nfo"
	ArtistPoster = "artist-poster.jpg"
	AlbumCover   = "cover.jpg"
)

// Provider fetches artwork and writes .nfo files. Images it returns are
// unsaved; the caller commits them.
type Provider interface {
	// FetchPoster returns the artist's poster, downloading it into the
	// artist's directory if it isn't there. albums are the artist's albums,
	// whose artwork stands in for a photo of the artist.
	FetchPoster(ctx context.Context, artist *data.Artist, albums []data.Album) (*data.Image, error)

	// FetchCover returns the album's front cover, downloading it into the
	// album's directory if it isn't there.
	FetchCover(ctx context.Context, album *data.Album) (*data.Image, error)

	// WriteNFO writes artist.nfo, and album.nfo for each album, skipping
	// files that already exist.
	WriteNFO(artist *data.Artist, albums []data.Album) error
}

// Artwork is what the MusicBrainz provider needs from a catalog client.
type Artwork interface {
	GetReleaseGroupImages(ctx context.Context, id string) ([]musicbrainz.Image, error)
	GetReleaseImages(ctx context.Context, id string) ([]musicbrainz.Image, error)
	FetchImage(ctx context.Context, url string) (io.ReadCloser, error)
}

// MusicBrainz takes artwork from the Cover Art Archive.
type MusicBrainz struct {
	catalog Artwork
	cache   *readthrough.ReadThrough
	log     hclog.Logger
}

var _ Provider = &MusicBrainz{}

func New(catalog Artwork, cacheDir string, log hclog.Logger) *MusicBrainz {
	return &MusicBrainz{
		catalog: catalog,
		cache:   readthrough.New(filepath.Join(cacheDir, "art"), "caa-"),
		log:     log.Named("metadata"),
	}
}

func (mb *MusicBrainz) FetchPoster(ctx context.Context, artist *data.Artist, albums []data.Album) (*data.Image, error) {
	known := artist.Poster()
	if known != nil && (known.Path == "" || fsutil.Exists(known.Path)) {
		return known, nil
	}

	for i := range albums {
		album := &albums[i]
		front, err := mb.front(ctx, album)
		if err != nil {
			return nil, err
		}
		if front == nil {
			continue
		}

		image := &data.Image{
			URL:      front.URL,
			Site:     data.SiteMusicBrainz,
			Style:    data.StylePoster,
			ArtistID: &artist.ID,
		}
		if known != nil {
			image.ID = known.ID
		}
		if artist.Location != "" {
			image.Path = filepath.Join(artist.Location, ArtistPoster)
			if err := mb.download(ctx, front.URL, image.Path); err != nil {
				return nil, err
			}
		}
		mb.log.Debug("fetched poster", "artist", artist.Name, "from", album.Name)
		return image, nil
	}
	return nil, nil
}

func (mb *MusicBrainz) FetchCover(ctx context.Context, album *data.Album) (*data.Image, error) {
	known := album.Cover()
	if known != nil && (known.Path == "" || fsutil.Exists(known.Path)) {
		return known, nil
	}
	front, err := mb.front(ctx, album)
	if err != nil || front == nil {
		return nil, err
	}

	image := &data.Image{
		URL:     front.URL,
		Site:    data.SiteMusicBrainz,
		Style:   data.StyleCover,
		AlbumID: &album.ID,
	}
	if known != nil {
		image.ID = known.ID
	}
	if album.Location != "" {
		image.Path = filepath.Join(album.Location, AlbumCover)
		if err := mb.download(ctx, front.URL, image.Path); err != nil {
			return nil, err
		}
	}
	return image, nil
}

// front finds the album's front cover. A release group without artwork falls
// back to its first release's.
func (mb *MusicBrainz) front(ctx context.Context, album *data.Album) (*musicbrainz.Image, error) {
	releaseGroupID := album.MusicBrainzID()
	if releaseGroupID == "" {
		return nil, nil
	}
	images, err := mb.catalog.GetReleaseGroupImages(ctx, releaseGroupID)
	if err != nil {
		return nil, fmt.Errorf("error listing artwork for '%s': %w", releaseGroupID, err)
	}
	if front := musicbrainz.Front(images); front != nil {
		return front, nil
	}

	releaseID := album.FirstReleaseID()
	if releaseID == "" {
		return nil, nil
	}
	images, err = mb.catalog.GetReleaseImages(ctx, releaseID)
	if err != nil {
		return nil, fmt.Errorf("error listing artwork for release '%s': %w", releaseID, err)
	}
	return musicbrainz.Front(images), nil
}

func (mb *MusicBrainz) download(ctx context.Context, url, path string) error {
	bs, err := mb.cache.Bytes(url, func() (io.ReadCloser, error) {
		return mb.catalog.FetchImage(ctx, url)
	})
	if err != nil {
		return fmt.Errorf("error downloading '%s': %w", url, err)
	}
	return fsutil.WriteFile(path, bs)
}

type artistNFO struct {
	XMLName       xml.Name `xml:"artist"`
	Name          string   `xml:"name"`
	SortName      string   `xml:"sortname"`
	MusicBrainzID string   `xml:"musicbrainzid"`
	Country       string   `xml:"country,omitempty"`
	Genres        []string `xml:"genres>genre"`
}

type albumNFO struct {
	XMLName       xml.Name `xml:"album"`
	Title         string   `xml:"title"`
	Artist        string   `xml:"artist"`
	Year          string   `xml:"year"`
	MusicBrainzID string   `xml:"musicbrainzid"`
	Type          string   `xml:"type"`
	Tracks        int      `xml:"tracks"`
	ReleaseDate   string   `xml:"releasedate,omitempty"`
}

func (mb *MusicBrainz) WriteNFO(artist *data.Artist, albums []data.Album) error {
	if artist.Location == "" {
		return nil
	}

	nfo := artistNFO{
		Name:          artist.Name,
		SortName:      artist.SortName,
		MusicBrainzID: artist.MusicBrainzID(),
		Country:       artist.Country,
	}
	for _, genre := range artist.Genres() {
		nfo.Genres = append(nfo.Genres, genre.Name)
	}
	if err := writeXML(filepath.Join(artist.Location, ArtistNFO), nfo); err != nil {
		return err
	}

	for _, album := range albums {
		if album.Location == "" {
			continue
		}
		nfo := albumNFO{
			Title:         album.Name,
			Artist:        artist.Name,
			MusicBrainzID: album.MusicBrainzID(),
			Type:          album.Type,
			Tracks:        album.Tracks,
		}
		if album.Year != 0 {
			nfo.Year = strconv.Itoa(album.Year)
		}
		if album.Date != nil {
			nfo.ReleaseDate = album.Date.Format("2006-01-02")
		}
		if err := writeXML(filepath.Join(album.Location, AlbumNFO), nfo); err != nil {
			return err
		}
	}
	return nil
}

func writeXML(path string, v any) error {
	if fsutil.Exists(path) {
		return nil
	}
	bs, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding '%s': %w", filepath.Base(path), err)
	}
	return fsutil.WriteFile(path, append([]byte(xml.Header), bs...))
}
