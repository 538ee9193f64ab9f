package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/promptreel/internal/config"
	"github.com/ibeckermayer/promptreel/internal/console"
	"github.com/ibeckermayer/promptreel/internal/renamer"
)

func setupConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(dir, "videos")
	cfg.Prompts.File = filepath.Join(dir, "prompts.txt")
	return cfg
}

func TestSetupKeepsDefaults(t *testing.T) {
	cfg := setupConfig(t)
	wantOut, wantPrompts := cfg.Output.Dir, cfg.Prompts.File

	con := console.New(strings.NewReader("\n\n"), &bytes.Buffer{})
	require.NoError(t, Setup(con, cfg, Fixed{}))

	assert.Equal(t, wantOut, cfg.Output.Dir)
	assert.Equal(t, wantPrompts, cfg.Prompts.File)
	assert.DirExists(t, cfg.Output.Dir)
}

func TestSetupOverrides(t *testing.T) {
	cfg := setupConfig(t)
	out := filepath.Join(t.TempDir(), "elsewhere")

	con := console.New(strings.NewReader(out+"\n  my_prompts.txt  \n"), &bytes.Buffer{})
	require.NoError(t, Setup(con, cfg, Fixed{}))

	assert.Equal(t, out, cfg.Output.Dir)
	assert.Equal(t, "my_prompts.txt", cfg.Prompts.File)
	assert.DirExists(t, out)
}

func TestSetupSkipsFixedSettings(t *testing.T) {
	cfg := setupConfig(t)
	cfg.Browser.ProfileDir = filepath.Join(t.TempDir(), "missing")

	out := &bytes.Buffer{}
	con := console.New(strings.NewReader(""), out)
	require.NoError(t, Setup(con, cfg, Fixed{Profile: true, Output: true, Prompts: true}))

	assert.Empty(t, out.String())
	assert.NotEmpty(t, cfg.Browser.ProfileDir)
}

func TestSetupMissingProfileFreshProfile(t *testing.T) {
	cfg := setupConfig(t)
	cfg.Browser.ProfileDir = filepath.Join(t.TempDir(), "missing")

	out := &bytes.Buffer{}
	con := console.New(strings.NewReader("y\n\n\n"), out)
	require.NoError(t, Setup(con, cfg, Fixed{}))

	assert.Empty(t, cfg.Browser.ProfileDir)
	assert.Contains(t, out.String(), "profile not found")
}

func TestSetupMissingProfileNewPath(t *testing.T) {
	cfg := setupConfig(t)
	cfg.Browser.ProfileDir = filepath.Join(t.TempDir(), "missing")
	other := t.TempDir()

	con := console.New(strings.NewReader("n\n"+other+"\n\n\n"), &bytes.Buffer{})
	require.NoError(t, Setup(con, cfg, Fixed{}))

	assert.Equal(t, other, cfg.Browser.ProfileDir)
}

func TestSetupExistingProfileKept(t *testing.T) {
	cfg := setupConfig(t)
	cfg.Browser.ProfileDir = t.TempDir()

	con := console.New(strings.NewReader("\n\n"), &bytes.Buffer{})
	require.NoError(t, Setup(con, cfg, Fixed{}))
	assert.DirExists(t, cfg.Browser.ProfileDir)
}

func TestSetupInputClosed(t *testing.T) {
	cfg := setupConfig(t)

	con := console.New(strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, Setup(con, cfg, Fixed{}))
}

func TestRenameVideosReportsNothingToDo(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	out := &bytes.Buffer{}
	con := console.New(strings.NewReader(""), out)
	results, err := RenameVideos(con, renamer.New("video_", ".mp4"), dir)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Contains(t, out.String(), "No videos found in")
}

func TestPreviewVideosLeavesFilesInPlace(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for name, age := range map[string]time.Duration{"new.mp4": 0, "old.mp4": time.Hour} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		require.NoError(t, os.Chtimes(path, now.Add(-age), now.Add(-age)))
	}

	out := &bytes.Buffer{}
	con := console.New(strings.NewReader(""), out)
	require.NoError(t, PreviewVideos(con, renamer.New("video_", ".mp4"), dir))

	assert.Equal(t, "1. old.mp4 -> video_1.mp4\n2. new.mp4 -> video_2.mp4\n", out.String())
	assert.FileExists(t, filepath.Join(dir, "old.mp4"))
	assert.NoFileExists(t, filepath.Join(dir, "video_1.mp4"))
}
