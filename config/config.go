// Package config loads discography's settings: defaults, then a TOML file,
// then DISCOGRAPHY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database    Database    `toml:"database"`
	Music       Music       `toml:"music"`
	MusicBrainz MusicBrainz `toml:"musicbrainz"`
	Cache       Cache       `toml:"cache"`
	Downloader  Downloader  `toml:"downloader"`
	Providers   []Provider  `toml:"providers"`
	Log         Log         `toml:"log"`
	Server      Server      `toml:"server"`
}

// Database selects the store. Driver is "sqlite" (Path) or "postgres" (DSN).
type Database struct {
	Driver string `toml:"driver" env:"DISCOGRAPHY_DB_DRIVER"`
	Path   string `toml:"path" env:"DISCOGRAPHY_DB_PATH"`
	DSN    string `toml:"dsn" env:"DISCOGRAPHY_DB_DSN"`
}

type Music struct {
	// RootDirs are candidate parents for new artist directories; the first
	// one is used.
	RootDirs []string `toml:"root_dirs" env:"DISCOGRAPHY_ROOT_DIRS" envSeparator:":"`
	// DownloadDir receives snatched albums, and doubles as the artist root
	// when no RootDirs are configured.
	DownloadDir     string   `toml:"download_dir" env:"DISCOGRAPHY_DOWNLOAD_DIR"`
	AutoSearch      bool     `toml:"auto_search" env:"DISCOGRAPHY_AUTO_SEARCH"`
	ReleaseTypes    []string `toml:"release_types"`
	RefreshInterval Duration `toml:"refresh_interval"`
}

type MusicBrainz struct {
	BaseURL      string   `toml:"base_url" env:"DISCOGRAPHY_MUSICBRAINZ_URL"`
	CoverArtURL  string   `toml:"cover_art_url"`
	UserAgent    string   `toml:"user_agent" env:"DISCOGRAPHY_USER_AGENT"`
	RequestDelay Duration `toml:"request_delay"`
	Timeout      Duration `toml:"timeout"`
	// StateFile persists the earliest time of the next request across
	// restarts, so a Retry-After is still honoured. Empty disables it.
	StateFile string `toml:"state_file"`
}

type Cache struct {
	Dir string `toml:"dir" env:"DISCOGRAPHY_CACHE_DIR"`
}

type Downloader struct {
	Method string `toml:"method"`
}

// Provider describes an html search page scraped by provider/htmlindex.
type Provider struct {
	ID             string `toml:"id"`
	Name           string `toml:"name"`
	SearchURL      string `toml:"search_url"`
	Row            string `toml:"row"`
	Title          string `toml:"title"`
	Link           string `toml:"link"`
	Size           string `toml:"size"`
	Seeders        string `toml:"seeders"`
	Leechers       string `toml:"leechers"`
	BacklogEnabled bool   `toml:"backlog_enabled"`
}

type Log struct {
	Level string `toml:"level" env:"DISCOGRAPHY_LOG_LEVEL"`
	JSON  bool   `toml:"json" env:"DISCOGRAPHY_LOG_JSON"`
}

type Server struct {
	Addr string `toml:"addr" env:"DISCOGRAPHY_ADDR"`
}

// Duration reads "1s"-style strings from TOML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("error parsing duration '%s': %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads the config file at path, if there is one. An empty path means
// defaults and environment only; a missing file at a given path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		bs, err := os.ReadFile(expandHome(path))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file '%s' does not exist", path)
		} else if err != nil {
			return nil, fmt.Errorf("error reading config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(bs, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file '%s': %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() {
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Database.Path = expandHome(cfg.Database.Path)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Music.DownloadDir = expandHome(cfg.Music.DownloadDir)
	cfg.MusicBrainz.StateFile = expandHome(cfg.MusicBrainz.StateFile)
	cfg.MusicBrainz.BaseURL = strings.TrimRight(cfg.MusicBrainz.BaseURL, "/")
	cfg.MusicBrainz.CoverArtURL = strings.TrimRight(cfg.MusicBrainz.CoverArtURL, "/")

	var roots []string
	for _, dir := range cfg.Music.RootDirs {
		if dir = strings.TrimSpace(dir); dir != "" {
			roots = append(roots, expandHome(dir))
		}
	}
	cfg.Music.RootDirs = roots

	for i, t := range cfg.Music.ReleaseTypes {
		cfg.Music.ReleaseTypes[i] = strings.ToLower(strings.TrimSpace(t))
	}
}

// Validate reports the first setting that can't work.
func (cfg *Config) Validate() error {
	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver '%s'", cfg.Database.Driver)
	}
	if cfg.MusicBrainz.UserAgent == "" {
		return fmt.Errorf("musicbrainz.user_agent is required")
	}
	if cfg.MusicBrainz.RequestDelay.Duration < 0 {
		return fmt.Errorf("musicbrainz.request_delay must not be negative")
	}
	if cfg.Music.RefreshInterval.Duration < 0 {
		return fmt.Errorf("music.refresh_interval must not be negative")
	}
	if len(cfg.Music.ReleaseTypes) == 0 {
		return fmt.Errorf("music.release_types must not be empty")
	}
	for _, t := range cfg.Music.ReleaseTypes {
		if _, ok := releaseTypes[t]; !ok {
			return fmt.Errorf("unsupported release type '%s'", t)
		}
	}
	switch cfg.Downloader.Method {
	case "blackhole":
	default:
		return fmt.Errorf("unsupported downloader method '%s'", cfg.Downloader.Method)
	}
	seen := map[string]struct{}{}
	for _, p := range cfg.Providers {
		if p.ID == "" || p.SearchURL == "" || p.Row == "" {
			return fmt.Errorf("provider '%s' needs id, search_url and row", p.Name)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate provider id '%s'", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// RootDir is the directory new artists are placed under: the first root
// dir, else the download dir, else "".
func (m Music) RootDir() string {
	if len(m.RootDirs) > 0 {
		return m.RootDirs[0]
	}
	return m.DownloadDir
}

// Roots are the directories artists may be placed under: the root dirs, or
// the download dir when there are none.
func (m Music) Roots() []string {
	if len(m.RootDirs) > 0 {
		return m.RootDirs
	}
	if m.DownloadDir != "" {
		return []string{m.DownloadDir}
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
