package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".mp4", cfg.Output.Extension)
	assert.Equal(t, "DONE", cfg.Prompts.Sentinel)
	assert.False(t, cfg.Login.Enabled)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty home url", func(c *Config) { c.Site.HomeURL = "" }},
		{"extension without dot", func(c *Config) { c.Output.Extension = "mp4" }},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }},
		{"blank sentinel", func(c *Config) { c.Prompts.Sentinel = "  " }},
		{"negative delay", func(c *Config) { c.Timing.DownloadWaitSeconds = -1 }},
		{"login without timeout", func(c *Config) {
			c.Login.Enabled = true
			c.Login.TimeoutSeconds = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Output.Dir = "/tmp/videos"
	cfg.Browser.ProfileDir = "/tmp/profile"
	require.NoError(t, cfg.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/videos", loaded.Output.Dir)
	assert.Equal(t, "/tmp/profile", loaded.Browser.ProfileDir)
	assert.Equal(t, cfg.Timing, loaded.Timing)
}

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\ndir = \"out\"\n"), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, ".mp4", cfg.Output.Extension)
	assert.Equal(t, "https://hailuoai.video", cfg.Site.HomeURL)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.True(t, os.IsNotExist(err))
}

func TestPathOverrides(t *testing.T) {
	cfg := Default()
	cfg.History.DBPath = "/data/h.db"
	cfg.Prompts.FallbackFile = "/data/p.txt"

	p, err := cfg.HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, "/data/h.db", p)

	p, err = cfg.FallbackPromptPath()
	require.NoError(t, err)
	assert.Equal(t, "/data/p.txt", p)
}
