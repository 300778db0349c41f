// Package blackhole "downloads" by dropping magnet links and torrent files
// into a directory watched by a torrent client.
package blackhole

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/fsutil"
	"github.com/amonks/discography/request"
)

type Client struct {
	http *http.Client
	log  hclog.Logger
}

func New(httpClient *http.Client, log hclog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, log: log.Named("blackhole")}
}

// Send writes a magnet link to dir/name.magnet, or downloads a torrent file
// to dir/name.torrent.
func (c *Client) Send(ctx context.Context, url, name, dir string) error {
	if strings.HasPrefix(url, "magnet:") {
		path := fsutil.Join(dir, name+".magnet")
		if err := fsutil.WriteFile(path, []byte(url+"\n")); err != nil {
			return fmt.Errorf("error writing magnet '%s': %w", path, err)
		}
		c.log.Info("wrote magnet", "path", path)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error building request for '%s': %w", url, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching torrent '%s': %w", url, err)
	}
	defer request.Drain(resp)
	if err := request.Error(resp); err != nil {
		return fmt.Errorf("error fetching torrent '%s': %w", url, err)
	}

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading torrent '%s': %w", url, err)
	}
	if len(bs) == 0 {
		return fmt.Errorf("empty torrent at '%s'", url)
	}

	path := fsutil.Join(dir, name+".torrent")
	if err := fsutil.WriteFile(path, bs); err != nil {
		return fmt.Errorf("error writing torrent '%s': %w", path, err)
	}
	c.log.Info("wrote torrent", "path", path, "bytes", len(bs))
	return nil
}
