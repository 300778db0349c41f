package data

// ImageStyle says what an image is used for.
type ImageStyle int

const (
	StylePoster ImageStyle = iota + 1
	StyleCover
)

func (s ImageStyle) String() string {
	switch s {
	case StylePoster:
		return "poster"
	case StyleCover:
		return "cover"
	default:
		return "unknown"
	}
}

// Images are artwork downloaded into an artist or album directory. One source
// URL can back several images: an album's cover is often its artist's poster
// too.
type Image struct {
	ID    uint       `gorm:"primaryKey"`
	URL   string     `gorm:"uniqueIndex:idx_image_use"`
	Path  string
	Site  string
	Style ImageStyle `gorm:"uniqueIndex:idx_image_use"`

	ArtistID *uint `gorm:"index;uniqueIndex:idx_image_use"`
	AlbumID  *uint `gorm:"index;uniqueIndex:idx_image_use"`
}

func (Image) TableName() string {
	return "music_images"
}

func styledImage(images []Image, style ImageStyle) *Image {
	for i := range images {
		if images[i].Style == style {
			return &images[i]
		}
	}
	return nil
}
