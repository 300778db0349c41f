// Package provider searches content providers for downloadable releases.
package provider

import (
	"context"
	"regexp"
	"strings"

	"github.com/amonks/discography/data"
)

// Capabilities say whether a provider may be used for album searches. Music
// reuses the movie search support flag.
type Capabilities struct {
	CanBacklog     bool
	BacklogEnabled bool
	SupportsMovies bool
}

// Searchable reports whether album searches may use the provider.
func (c Capabilities) Searchable() bool {
	return c.CanBacklog && c.BacklogEnabled && c.SupportsMovies
}

// A Hit is one search result.
type Hit struct {
	Name     string
	URL      string
	Size     int64
	Seeders  int
	Leechers int
}

// Result turns the hit into an unsaved result for albumID.
func (h Hit) Result(albumID uint, providerName string) data.Result {
	quality := GuessQuality(h.Name)
	return data.Result{
		AlbumID:  albumID,
		Name:     h.Name,
		Title:    h.Name,
		URL:      h.URL,
		Size:     h.Size,
		Provider: providerName,
		Seeders:  h.Seeders,
		Leechers: h.Leechers,
		Kind:     kind(h.URL),
		Quality:  quality,
		Guess:    data.Document{"quality": quality},
	}
}

type Provider interface {
	ID() string
	Name() string
	Capabilities() Capabilities
	Search(ctx context.Context, terms []string) ([]Hit, error)
}

// Searchable filters providers down to those album searches may use.
func Searchable(providers []Provider) []Provider {
	var ok []Provider
	for _, p := range providers {
		if p.Capabilities().Searchable() {
			ok = append(ok, p)
		}
	}
	return ok
}

var qualities = []struct {
	re      *regexp.Regexp
	quality string
}{
	{regexp.MustCompile(`(?i)\b24[ -]?bit\b|\bhi-?res\b`), "FLAC 24bit"},
	{regexp.MustCompile(`(?i)\bflac\b`), "FLAC"},
	{regexp.MustCompile(`(?i)\balac\b`), "ALAC"},
	{regexp.MustCompile(`(?i)\bv0\b`), "MP3 V0"},
	{regexp.MustCompile(`(?i)\b320(kbps)?\b`), "MP3 320"},
	{regexp.MustCompile(`(?i)\bmp3\b`), "MP3"},
	{regexp.MustCompile(`(?i)\baac\b|\bm4a\b`), "AAC"},
}

// GuessQuality reads an audio quality out of a release name, or returns
// "Unknown".
func GuessQuality(name string) string {
	for _, q := range qualities {
		if q.re.MatchString(name) {
			return q.quality
		}
	}
	return "Unknown"
}

func kind(url string) string {
	if strings.HasPrefix(url, "magnet:") {
		return "magnet"
	}
	return "torrent"
}
