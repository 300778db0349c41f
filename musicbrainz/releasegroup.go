package musicbrainz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/amonks/discography/data"
)

// A ReleaseGroup is the catalog's notion of an album, covering all its
// editions.
type ReleaseGroup struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	PrimaryType      string   `json:"primary-type"`
	SecondaryTypes   []string `json:"secondary-types"`
	FirstReleaseDate string   `json:"first-release-date"`
}

type ReleaseGroupPage struct {
	ReleaseGroups []ReleaseGroup `json:"release-groups"`
	Count         int            `json:"release-group-count"`
	Offset        int            `json:"release-group-offset"`
}

type Release struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// ReleaseGroupDetail is a release group lookup. Doc is the full response.
type ReleaseGroupDetail struct {
	ReleaseGroup
	Releases []Release `json:"releases"`
	Tags     []Tag     `json:"tags"`

	Doc data.Document `json:"-"`
}

// BrowseReleaseGroups returns one page of the artist's release groups of the
// given types ("album", "ep", ...).
func (c *Client) BrowseReleaseGroups(ctx context.Context, artistID string, types []string, limit, offset int) (*ReleaseGroupPage, error) {
	query := jsonQuery(
		"artist", artistID,
		"limit", strconv.Itoa(limit),
		"offset", strconv.Itoa(offset),
	)
	if len(types) > 0 {
		query.Set("type", strings.Join(types, "|"))
	}

	var page ReleaseGroupPage
	if _, err := c.getJSON(ctx, c.baseURL, "/release-group", query, &page); err != nil {
		return nil, fmt.Errorf("error browsing release groups for '%s' at offset %d: %w", artistID, offset, err)
	}
	return &page, nil
}

// GetReleaseGroup looks up a release group with its releases and tags.
func (c *Client) GetReleaseGroup(ctx context.Context, id string) (*ReleaseGroupDetail, error) {
	var detail ReleaseGroupDetail
	doc, err := c.getJSON(ctx, c.baseURL, "/release-group/"+id, jsonQuery("inc", "releases tags"), &detail)
	if err != nil {
		return nil, fmt.Errorf("error getting release group '%s': %w", id, err)
	}
	detail.Doc = doc
	return &detail, nil
}

// GetReleaseTracks returns a release's tracks across all of its media.
// Durations are left unformatted.
func (c *Client) GetReleaseTracks(ctx context.Context, releaseID string) ([]data.Track, error) {
	var release struct {
		Media []struct {
			Position int `json:"position"`
			Tracks   []struct {
				Position int    `json:"position"`
				Title    string `json:"title"`
				Length   *int64 `json:"length"`
			} `json:"tracks"`
		} `json:"media"`
	}
	if _, err := c.getJSON(ctx, c.baseURL, "/release/"+releaseID, jsonQuery("inc", "recordings"), &release); err != nil {
		return nil, fmt.Errorf("error getting tracks for release '%s': %w", releaseID, err)
	}

	var tracks []data.Track
	for _, medium := range release.Media {
		for _, track := range medium.Tracks {
			var length int64
			if track.Length != nil {
				length = *track.Length
			}
			tracks = append(tracks, data.Track{
				Disc:       medium.Position,
				Position:   track.Position,
				Title:      track.Title,
				DurationMS: length,
			})
		}
	}
	return tracks, nil
}
