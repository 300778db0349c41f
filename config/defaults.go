package config

import (
	"slices"
	"time"
)

// Release types MusicBrainz understands for release-group browsing.
var releaseTypes = map[string]struct{}{
	"album":       {},
	"single":      {},
	"ep":          {},
	"broadcast":   {},
	"other":       {},
	"compilation": {},
	"soundtrack":  {},
	"live":        {},
}

// ReleaseTypes lists the known release types, sorted.
func ReleaseTypes() []string {
	types := make([]string, 0, len(releaseTypes))
	for t := range releaseTypes {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

const (
	defaultDBPath          = "~/.local/share/discography/music.db"
	defaultCacheDir        = "~/.cache/discography"
	defaultMusicBrainzURL  = "https://musicbrainz.org/ws/2"
	defaultCoverArtURL     = "https://coverartarchive.org"
	defaultUserAgent       = "discography/0.1 ( https://github.com/amonks/discography )"
	defaultRequestDelay    = time.Second
	defaultTimeout         = 30 * time.Second
	defaultRefreshInterval = 24 * time.Hour
	defaultAddr            = "127.0.0.1:8089"
)

func Default() Config {
	return Config{
		Database: Database{
			Driver: "sqlite",
			Path:   defaultDBPath,
		},
		Music: Music{
			ReleaseTypes:    []string{"album", "ep", "single"},
			RefreshInterval: Duration{defaultRefreshInterval},
		},
		MusicBrainz: MusicBrainz{
			BaseURL:      defaultMusicBrainzURL,
			CoverArtURL:  defaultCoverArtURL,
			UserAgent:    defaultUserAgent,
			RequestDelay: Duration{defaultRequestDelay},
			Timeout:      Duration{defaultTimeout},
		},
		Cache:      Cache{Dir: defaultCacheDir},
		Downloader: Downloader{Method: "blackhole"},
		Log:        Log{Level: "info"},
		Server:     Server{Addr: defaultAddr},
	}
}
