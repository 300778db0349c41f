package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amonks/discography/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "discography.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, []string{"album", "ep", "single"}, cfg.Music.ReleaseTypes)
	assert.Equal(t, time.Second, cfg.MusicBrainz.RequestDelay.Duration)
	assert.NotContains(t, cfg.Database.Path, "~")
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "/tmp/music.db"

[music]
root_dirs = ["/srv/music", " ", "/mnt/music"]
download_dir = "/srv/downloads"
auto_search = true
release_types = ["Album", "EP"]
refresh_interval = "6h"

[musicbrainz]
base_url = "http://localhost:5000/ws/2/"
request_delay = "250ms"

[[providers]]
id = "example"
name = "Example"
search_url = "https://example.org/search?q=%s"
row = "table tr"
backlog_enabled = true
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/music", "/mnt/music"}, cfg.Music.RootDirs)
	assert.Equal(t, "/srv/music", cfg.Music.RootDir())
	assert.Equal(t, []string{"album", "ep"}, cfg.Music.ReleaseTypes)
	assert.True(t, cfg.Music.AutoSearch)
	assert.Equal(t, 6*time.Hour, cfg.Music.RefreshInterval.Duration)
	assert.Equal(t, "http://localhost:5000/ws/2", cfg.MusicBrainz.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.MusicBrainz.RequestDelay.Duration)
	require.Len(t, cfg.Providers, 1)
	assert.True(t, cfg.Providers[0].BacklogEnabled)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "/tmp/music.db"
`)
	t.Setenv("DISCOGRAPHY_DB_PATH", "/var/lib/discography/music.db")
	t.Setenv("DISCOGRAPHY_ROOT_DIRS", "/a:/b")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/discography/music.db", cfg.Database.Path)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Music.RootDirs)
}

func TestRootDirFallsBackToDownloadDir(t *testing.T) {
	assert.Equal(t, "/dl", config.Music{DownloadDir: "/dl"}.RootDir())
	assert.Equal(t, "", config.Music{}.RootDir())
}

func TestValidate(t *testing.T) {
	for name, body := range map[string]string{
		"driver":       "[database]\ndriver = \"mysql\"",
		"postgres dsn": "[database]\ndriver = \"postgres\"",
		"release type": "[music]\nrelease_types = [\"bootleg\"]",
		"downloader":   "[downloader]\nmethod = \"carrier-pigeon\"",
		"provider":     "[[providers]]\nid = \"x\"",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
