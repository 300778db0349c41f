package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/db"
	"github.com/amonks/discography/downloader"
	"github.com/amonks/discography/fetcher"
	"github.com/amonks/discography/library"
	"github.com/amonks/discography/logging"
	"github.com/amonks/discography/metadata"
	"github.com/amonks/discography/musicbrainz"
	"github.com/amonks/discography/provider"
	"github.com/amonks/discography/provider/htmlindex"
	"github.com/amonks/discography/workers"
)

// app builds the pieces commands need from the loaded config.
type app struct {
	configPath string

	cfg *config.Config
	log hclog.Logger
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cfg.Log, os.Stderr)
	return nil
}

func (a *app) openStore() (*db.DB, error) {
	return db.Open(a.cfg.Database, a.log)
}

func (a *app) catalog() (*musicbrainz.Client, error) {
	return musicbrainz.New(a.cfg.MusicBrainz, a.log)
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.MusicBrainz.Timeout.Duration}
}

// fetcher browses the given release types, or the configured ones.
func (a *app) fetcher(store *db.DB, catalog *musicbrainz.Client, releaseTypes []string) *fetcher.Fetcher {
	if len(releaseTypes) == 0 {
		releaseTypes = a.cfg.Music.ReleaseTypes
	}
	art := metadata.New(catalog, a.cfg.Cache.Dir, a.log)
	return fetcher.New(store, catalog, art, releaseTypes, a.log)
}

func (a *app) queue(f *fetcher.Fetcher) *workers.Queue {
	return workers.NewQueue(f, a.cfg.Music.RootDir(), a.log)
}

func (a *app) providers() []provider.Provider {
	var providers []provider.Provider
	for _, cfg := range a.cfg.Providers {
		providers = append(providers, htmlindex.New(cfg, a.httpClient(), a.log))
	}
	return providers
}

func (a *app) library(store *db.DB, catalog *musicbrainz.Client, queue *workers.Queue) (*library.Library, error) {
	downloads, err := downloader.New(a.cfg.Downloader, a.httpClient(), a.log)
	if err != nil {
		return nil, err
	}
	return library.New(store, catalog, queue, a.providers(), downloads, a.cfg.Music, a.log), nil
}

// open wires up a library whose queue isn't running, for commands that
// don't import.
func (a *app) open() (*library.Library, func(), error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	catalog, err := a.catalog()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	lib, err := a.library(store, catalog, a.queue(a.fetcher(store, catalog, nil)))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return lib, func() { store.Close() }, nil
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id '%s'", s)
	}
	return uint(n), nil
}
