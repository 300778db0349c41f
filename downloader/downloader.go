// Package downloader hands snatched results to a download client.
package downloader

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/downloader/blackhole"
)

// A Client downloads url, which is a magnet link or a torrent file, into
// dir. name labels the download.
type Client interface {
	Send(ctx context.Context, url, name, dir string) error
}

// New returns the client selected in cfg.
func New(cfg config.Downloader, httpClient *http.Client, log hclog.Logger) (Client, error) {
	switch cfg.Method {
	case "blackhole":
		return blackhole.New(httpClient, log), nil
	default:
		return nil, fmt.Errorf("unsupported download method '%s'", cfg.Method)
	}
}
