package data

// SiteMusicBrainz names the MusicBrainz catalog in IndexerData.Site and
// Image.Site.
const SiteMusicBrainz = "musicbrainz"

// IndexerData caches one external catalog's raw response for an Artist or an
// Album. Its primary key is the catalog's own id.
//
// Exactly one of ArtistID and AlbumID is set in valid data. A row with neither
// set is an orphan left behind by an interrupted import; see
// db.ArtistForIndexerData.
type IndexerData struct {
	ID   string `gorm:"primaryKey"`
	Site string
	Data Document `gorm:"serializer:json"`

	ArtistID *uint `gorm:"index"`
	AlbumID  *uint `gorm:"index"`

	Genres []Genre `gorm:"many2many:indexer_data_genres;joinForeignKey:IndexerDataID;joinReferences:GenreName"`
}

func (IndexerData) TableName() string {
	return "indexer_data"
}

// Orphaned reports whether the row has lost its owner.
func (d *IndexerData) Orphaned() bool {
	return d.ArtistID == nil && d.AlbumID == nil
}

func namedIndexerData(all []IndexerData, site string) *IndexerData {
	for i := range all {
		if all[i].Site == site {
			return &all[i]
		}
	}
	return nil
}
