package musicbrainz

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amonks/discography/data"
)

// bestMatchScore is the search score above which a hit is taken as the
// artist that was asked for.
const bestMatchScore = 90

// An ArtistMatch is one artist search hit.
type ArtistMatch struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SortName       string `json:"sort-name"`
	Country        string `json:"country"`
	Disambiguation string `json:"disambiguation"`
	Score          int    `json:"score"`
}

type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Artist is an artist lookup. Doc is the full response.
type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
	Country  string `json:"country"`
	Tags     []Tag  `json:"tags"`

	Doc data.Document `json:"-"`
}

// SearchArtists returns up to 10 artists matching name, best first.
func (c *Client) SearchArtists(ctx context.Context, name string) ([]ArtistMatch, error) {
	var result struct {
		Artists []ArtistMatch `json:"artists"`
	}
	if _, err := c.getJSON(ctx, c.baseURL, "/artist",
		jsonQuery("query", name, "limit", strconv.Itoa(10)),
		&result); err != nil {
		return nil, fmt.Errorf("error searching for artist '%s': %w", name, err)
	}
	return result.Artists, nil
}

// FindArtist returns the first search hit scoring above 90, or failing that
// the first hit.
func (c *Client) FindArtist(ctx context.Context, name string) (*ArtistMatch, error) {
	matches, err := c.SearchArtists(ctx, name)
	if err != nil {
		return nil, err
	}
	match := BestMatch(matches)
	if match == nil {
		return nil, fmt.Errorf("no artist found for '%s': %w", name, ErrNotFound)
	}
	return match, nil
}

func BestMatch(matches []ArtistMatch) *ArtistMatch {
	for i := range matches {
		if matches[i].Score > bestMatchScore {
			return &matches[i]
		}
	}
	if len(matches) > 0 {
		return &matches[0]
	}
	return nil
}

// GetArtist looks up an artist with its aliases and tags.
func (c *Client) GetArtist(ctx context.Context, id string) (*Artist, error) {
	var artist Artist
	doc, err := c.getJSON(ctx, c.baseURL, "/artist/"+id, jsonQuery("inc", "aliases tags"), &artist)
	if err != nil {
		return nil, fmt.Errorf("error getting artist '%s': %w", id, err)
	}
	artist.Doc = doc
	return &artist, nil
}
