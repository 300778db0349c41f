package musicbrainz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/amonks/discography/request"
)

// An Image is one piece of Cover Art Archive artwork.
type Image struct {
	URL   string `json:"image"`
	Front bool   `json:"front"`
}

// GetReleaseGroupImages lists a release group's artwork. A release group
// without artwork has no images and no error.
func (c *Client) GetReleaseGroupImages(ctx context.Context, id string) ([]Image, error) {
	return c.coverArt(ctx, "/release-group/"+id)
}

func (c *Client) GetReleaseImages(ctx context.Context, id string) ([]Image, error) {
	return c.coverArt(ctx, "/release/"+id)
}

func (c *Client) coverArt(ctx context.Context, path string) ([]Image, error) {
	var result struct {
		Images []Image `json:"images"`
	}
	if _, err := c.getJSON(ctx, c.coverArtURL, path, url.Values{}, &result); errors.Is(err, ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting cover art '%s': %w", path, err)
	}
	return result.Images, nil
}

// Front returns the front cover, or the first image if none is marked front.
func Front(images []Image) *Image {
	for i := range images {
		if images[i].Front {
			return &images[i]
		}
	}
	if len(images) > 0 {
		return &images[0]
	}
	return nil
}

// FetchImage downloads image bytes. It is not paced: image hosts are not
// the rate-limited web service.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: error fetching image '%s': %w", ErrMusicBrainz, imageURL, err)
	}
	if err := request.Error(resp); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: error fetching image '%s': %w", ErrMusicBrainz, imageURL, err)
	}
	return resp.Body, nil
}
