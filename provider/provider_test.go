package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amonks/discography/provider"
)

func TestGuessQuality(t *testing.T) {
	for name, quality := range map[string]string{
		"Test Artist - Test Album (2020) [FLAC]":          "FLAC",
		"Test Artist - Test Album 24bit 96kHz":            "FLAC 24bit",
		"Test Artist - Test Album [MP3 320]":              "MP3 320",
		"Test Artist - Test Album (V0)":                   "MP3 V0",
		"Test Artist - Test Album mp3":                    "MP3",
		"Test Artist - Test Album":                        "Unknown",
		"Test Artist - Test Album [WEB] [FLAC] [mp3 320]": "FLAC",
	} {
		assert.Equal(t, quality, provider.GuessQuality(name), name)
	}
}

func TestHitResult(t *testing.T) {
	hit := provider.Hit{
		Name:     "Test Artist - Test Album [FLAC]",
		URL:      "magnet:?xt=urn:btih:abc",
		Size:     300_000_000,
		Seeders:  12,
		Leechers: 3,
	}
	result := hit.Result(7, "Index")
	assert.Equal(t, uint(7), result.AlbumID)
	assert.Equal(t, "Index", result.Provider)
	assert.Equal(t, "FLAC", result.Quality)
	assert.Equal(t, "magnet", result.Kind)
	assert.Equal(t, int64(300_000_000), result.Size)
	assert.Equal(t, 12, result.Seeders)
}

type fakeProvider struct {
	caps provider.Capabilities
}

func (p fakeProvider) ID() string                           { return "fake" }
func (p fakeProvider) Name() string                         { return "Fake" }
func (p fakeProvider) Capabilities() provider.Capabilities { return p.caps }
func (p fakeProvider) Search(ctx context.Context, terms []string) ([]provider.Hit, error) {
	return nil, nil
}

func TestSearchable(t *testing.T) {
	all := provider.Capabilities{CanBacklog: true, BacklogEnabled: true, SupportsMovies: true}
	disabled := all
	disabled.BacklogEnabled = false
	noBacklog := all
	noBacklog.CanBacklog = false

	providers := []provider.Provider{fakeProvider{all}, fakeProvider{disabled}, fakeProvider{noBacklog}}
	searchable := provider.Searchable(providers)
	assert.Len(t, searchable, 1)
	assert.True(t, searchable[0].Capabilities().Searchable())
}
