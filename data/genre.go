package data

// Genres are MusicBrainz tags. The tag text is the primary key, so a tag
// shared by several artists and albums is one row linked to each of their
// IndexerData through indexer_data_genres.
type Genre struct {
	// like "rock"
	Name string `gorm:"primaryKey"`
}

func (g Genre) String() string {
	return g.Name
}
