// Package musicbrainz is a client for the MusicBrainz web service and the
// Cover Art Archive.
//
// MusicBrainz asks for at most one request per second and a meaningful
// User-Agent; the client paces every request through a limiter and backs off
// when told to with a 429 or 503.
package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/data"
	"github.com/amonks/discography/limiter"
	"github.com/amonks/discography/request"
)

var (
	// ErrMusicBrainz wraps every transport and service failure.
	ErrMusicBrainz = errors.New("musicbrainz error")

	// ErrNotFound is a 404 from the web service.
	ErrNotFound = errors.New("not found")
)

const maxRetries = 3

type Client struct {
	baseURL     string
	coverArtURL string
	userAgent   string

	http *http.Client
	lim  *limiter.Limiter
	log  hclog.Logger
}

// New returns a client configured by cfg, restoring any persisted
// Retry-After from cfg.StateFile.
func New(cfg config.MusicBrainz, log hclog.Logger) (*Client, error) {
	log = log.Named("musicbrainz")
	lim := limiter.New(cfg.StateFile, cfg.RequestDelay.Duration, log)
	if err := lim.Load(); err != nil {
		return nil, fmt.Errorf("error loading musicbrainz rate limit state: %w", err)
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		coverArtURL: cfg.CoverArtURL,
		userAgent:   cfg.UserAgent,
		http:        &http.Client{Timeout: cfg.Timeout.Duration},
		lim:         lim,
		log:         log,
	}, nil
}

// get does a paced GET, retrying throttled responses a few times. The caller
// must close the returned body.
func (c *Client) get(ctx context.Context, base, path string, query url.Values) (io.ReadCloser, error) {
	u, err := url.Parse(base + path)
	if err != nil {
		return nil, fmt.Errorf("error parsing url '%s': %w", base+path, err)
	}
	u.RawQuery = query.Encode()

	for attempt := 1; ; attempt++ {
		if err := c.lim.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("request error: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		c.log.Trace("get", "url", u.String(), "attempt", attempt)
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: error fetching '%s': %w", ErrMusicBrainz, u, err)
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			request.Drain(resp)
			if attempt >= maxRetries {
				return nil, fmt.Errorf("%w: '%s' still throttled after %d attempts", ErrMusicBrainz, u, attempt)
			}
			retryAfter := resp.Header.Get("Retry-After")
			c.log.Warn("throttled", "status", resp.StatusCode, "retry-after", retryAfter)
			if err := c.lim.SetNextAt(retryAfter); err != nil {
				c.log.Warn("bad retry-after; waiting a minute", "error", err)
				if err := c.lim.SetNextAt(""); err != nil {
					return nil, err
				}
			}
			continue
		case http.StatusNotFound:
			request.Drain(resp)
			return nil, fmt.Errorf("%w: '%s'", ErrNotFound, u)
		}

		if err := request.Error(resp); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: fetch error: %w", ErrMusicBrainz, err)
		}
		return resp.Body, nil
	}
}

// getJSON decodes a response into v and also returns it as a raw document.
func (c *Client) getJSON(ctx context.Context, base, path string, query url.Values, v any) (data.Document, error) {
	body, err := c.get(ctx, base, path, query)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	bs, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: error reading '%s': %w", ErrMusicBrainz, path, err)
	}
	if v != nil {
		if err := json.Unmarshal(bs, v); err != nil {
			return nil, fmt.Errorf("%w: error decoding '%s': %w", ErrMusicBrainz, path, err)
		}
	}
	var doc data.Document
	if err := json.Unmarshal(bs, &doc); err != nil {
		return nil, fmt.Errorf("%w: error decoding '%s': %w", ErrMusicBrainz, path, err)
	}
	return doc, nil
}

func jsonQuery(kv ...string) url.Values {
	query := url.Values{"fmt": {"json"}}
	for i := 0; i+1 < len(kv); i += 2 {
		query.Set(kv[i], kv[i+1])
	}
	return query
}
