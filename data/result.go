package data

import "time"

// A Result is one provider search hit for an Album. Results are written when
// a provider search runs and read back when the user snatches one.
type Result struct {
	ID      uint   `gorm:"primaryKey"`
	AlbumID uint   `gorm:"index;not null"`
	Album   *Album `gorm:"foreignKey:AlbumID"`

	Name     string
	Title    string
	URL      string
	Size     int64
	Year     int
	Provider string
	Seeders  int
	Leechers int
	InfoHash string
	Group    string
	Kind     string
	Quality  string
	Guess    Document `gorm:"serializer:json"`

	FoundAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time
}

func (Result) TableName() string {
	return "music_results"
}

func (r *Result) String() string {
	return r.Name
}
