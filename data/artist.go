package data

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// Artists are created from MusicBrainz by the import job. Location is assigned
// lazily: it stays empty until a music root directory is known.
type Artist struct {
	ID       uint `gorm:"primaryKey"`
	Name     string
	SortName string
	Country  string
	Paused   bool
	Location string

	// SearchStart is how far before a release date a backlog search may
	// begin; SearchInterval is how often it repeats.
	SearchStart    time.Duration
	SearchInterval time.Duration

	CreatedAt  time.Time
	UpdatedAt  time.Time
	SearchedAt sql.NullTime

	Slug string `gorm:"index"`

	IndexerData []IndexerData `gorm:"foreignKey:ArtistID"`
	Images      []Image       `gorm:"foreignKey:ArtistID"`
	Albums      []Album       `gorm:"foreignKey:ArtistID"`
}

const (
	defaultSearchStart    = -7 * 24 * time.Hour
	defaultSearchInterval = 24 * time.Hour
)

// NewArtist returns an unsaved Artist. sortName defaults to name.
func NewArtist(name, sortName, country string) *Artist {
	if sortName == "" {
		sortName = name
	}
	artist := &Artist{
		SortName:       sortName,
		Country:        country,
		SearchStart:    defaultSearchStart,
		SearchInterval: defaultSearchInterval,
	}
	artist.SetName(name)
	return artist
}

// SetName renames the artist, regenerating the slug when it is unset or the
// name actually changed.
func (a *Artist) SetName(name string) {
	if name != "" && (a.Slug == "" || name != a.Name) {
		a.Slug = Slugify(name)
	}
	a.Name = name
}

func (a *Artist) BeforeSave(tx *gorm.DB) error {
	if a.Slug == "" && a.Name != "" {
		a.Slug = Slugify(a.Name)
	}
	return nil
}

// MusicBrainz returns the artist's musicbrainz indexer data, if loaded.
func (a *Artist) MusicBrainz() *IndexerData {
	return namedIndexerData(a.IndexerData, SiteMusicBrainz)
}

// MusicBrainzID returns the artist's MusicBrainz id, or "".
func (a *Artist) MusicBrainzID() string {
	if data := a.MusicBrainz(); data != nil {
		return data.ID
	}
	return ""
}

// Genres returns the genres attached to the artist's musicbrainz data.
func (a *Artist) Genres() []Genre {
	if data := a.MusicBrainz(); data != nil {
		return data.Genres
	}
	return nil
}

// Poster returns the artist's poster image, if one has been fetched.
func (a *Artist) Poster() *Image {
	return styledImage(a.Images, StylePoster)
}

func (a *Artist) SearchStrings() []string {
	return []string{a.Name}
}

func (a *Artist) String() string {
	return a.Name
}
