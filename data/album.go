package data

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Albums are MusicBrainz release groups belonging to one Artist. Status is
// driven externally (by the user, or by snatching a result); new albums start
// out IGNORED.
type Album struct {
	ID       uint `gorm:"primaryKey"`
	Name     string
	Date     *time.Time
	Year     int
	Status   AlbumStatus
	Paused   bool
	Location string
	Tracks   int
	Type     string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt sql.NullTime
	SearchedAt  sql.NullTime

	Slug string `gorm:"index"`

	ArtistID uint    `gorm:"index;not null"`
	Artist   *Artist `gorm:"foreignKey:ArtistID"`

	// Provider and Size are recorded when a result is snatched.
	Provider string
	Size     int64

	IndexerData []IndexerData `gorm:"foreignKey:AlbumID"`
	Images      []Image       `gorm:"foreignKey:AlbumID"`
	Results     []Result      `gorm:"foreignKey:AlbumID"`
}

// NewAlbum returns an unsaved, IGNORED album owned by artistID. An empty
// albumType becomes "Album".
func NewAlbum(name string, year int, artistID uint, tracks int, albumType string) *Album {
	if albumType == "" {
		albumType = "Album"
	}
	album := &Album{
		Year:     year,
		ArtistID: artistID,
		Tracks:   tracks,
		Type:     albumType,
		Status:   StatusIgnored,
	}
	album.SetName(name)
	return album
}

func (a *Album) SetName(name string) {
	if name != "" && (a.Slug == "" || name != a.Name) {
		a.Slug = Slugify(name)
	}
	a.Name = name
}

func (a *Album) BeforeSave(tx *gorm.DB) error {
	if a.Slug == "" && a.Name != "" {
		a.Slug = Slugify(a.Name)
	}
	return nil
}

func (a *Album) BeforeCreate(tx *gorm.DB) error {
	if a.Status == 0 {
		a.Status = StatusIgnored
	}
	return nil
}

func (a *Album) MusicBrainz() *IndexerData {
	return namedIndexerData(a.IndexerData, SiteMusicBrainz)
}

func (a *Album) MusicBrainzID() string {
	if data := a.MusicBrainz(); data != nil {
		return data.ID
	}
	return ""
}

// TrackList returns the track listing stored in the album's musicbrainz
// document, or nil if it was never fetched.
func (a *Album) TrackList() []Track {
	data := a.MusicBrainz()
	if data == nil {
		return nil
	}
	return data.Data.Tracks()
}

// Cover returns the album's cover image, if one has been fetched.
func (a *Album) Cover() *Image {
	return styledImage(a.Images, StyleCover)
}

// SearchStrings needs the Artist association to be loaded.
func (a *Album) SearchStrings() []string {
	if a.Artist == nil {
		return []string{a.Name}
	}
	return []string{fmt.Sprintf("%s %s", a.Artist.Name, a.Name)}
}

func (a *Album) String() string {
	return a.Name
}

// FirstReleaseID is the first release of the album's release group, if the
// stored document lists one.
func (a *Album) FirstReleaseID() string {
	if data := a.MusicBrainz(); data != nil {
		return data.Data.FirstReleaseID()
	}
	return ""
}
