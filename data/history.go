package data

import "time"

// MusicHistory is an append-only record of snatches.
type MusicHistory struct {
	ID       uint `gorm:"primaryKey"`
	AlbumID  uint `gorm:"index;not null"`
	Provider string
	Quality  string
	Date     time.Time
}
