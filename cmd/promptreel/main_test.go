package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/promptreel/internal/app"
	"github.com/ibeckermayer/promptreel/internal/config"
	"github.com/ibeckermayer/promptreel/internal/store"
)

func TestLoadConfigWritesDefaultsOnFirstRun(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "promptreel", "config.toml")
	t.Cleanup(func() { configPath = "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.FileExists(t, configPath)

	// Second load reads the file back
	again, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg.Output, again.Output)
	assert.Equal(t, cfg.Prompts, again.Prompts)
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "config.toml")
	t.Cleanup(func() { configPath = "" })
	require.NoError(t, os.WriteFile(configPath, []byte("[browser\nheadless = "), 0600))

	_, err := loadConfig()
	assert.Error(t, err)
}

func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.StringVarP(&outputDir, "output", "o", "", "")
	f.StringVarP(&promptFile, "prompts", "p", "", "")
	f.StringVar(&profileDir, "profile", "", "")
	f.BoolVar(&headless, "headless", false, "")
	f.BoolVar(&noSetup, "no-setup", false, "")
	require.NoError(t, f.Parse(args))
	t.Cleanup(func() {
		outputDir, promptFile, profileDir = "", "", ""
		headless, noSetup = false, false
	})
	return cmd
}

func TestApplyFlagsOverridesConfig(t *testing.T) {
	cmd := newFlagCommand(t, "--output", "clips", "-p", "mine.txt", "--headless")
	cfg := config.Default()

	fixed := applyFlags(cmd, cfg)

	assert.Equal(t, "clips", cfg.Output.Dir)
	assert.Equal(t, "mine.txt", cfg.Prompts.File)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, app.Fixed{Output: true, Prompts: true}, fixed)
}

func TestApplyFlagsNoSetupFixesEverything(t *testing.T) {
	cmd := newFlagCommand(t, "--no-setup")
	cfg := config.Default()

	fixed := applyFlags(cmd, cfg)

	assert.Equal(t, config.Default().Output.Dir, cfg.Output.Dir)
	assert.Equal(t, app.Fixed{Profile: true, Output: true, Prompts: true}, fixed)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}

func TestSubcommandsLogToFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		logFile.Close()
		logFile = nopCloser{}
		renameDryRun = false
		configPath = ""
	})

	videos := t.TempDir()
	cfgFile := filepath.Join(t.TempDir(), "config.toml")
	rootCmd.SetArgs([]string{"rename", "--dry-run", "--config", cfgFile, videos})
	require.NoError(t, rootCmd.Execute())

	cacheDir, err := config.CacheDir()
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(cacheDir, config.AppName+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Created default config")
}

func TestShowLatestReport(t *testing.T) {
	dir := t.TempDir()
	report := &store.Report{
		RunSummary: store.RunSummary{
			Run:       store.Run{ID: "0123456789", StartedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), PromptFile: "prompts.txt"},
			Processed: 1,
			Renamed:   1,
		},
		Events:  []store.PromptEvent{{Index: 1, Prompt: "A robot walks", Outcome: store.OutcomeProcessed}},
		Renames: []store.RenameEvent{{From: "b.mp4", To: "video_1.mp4"}},
	}
	_, err := store.WriteReport(dir, report)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, showLatestReport(&out, dir))
	assert.Contains(t, out.String(), "Run 0123456789")
	assert.Contains(t, out.String(), "Processed 1, skipped 0, failed 0, renamed 1")
	assert.Contains(t, out.String(), "A robot walks")
	assert.Contains(t, out.String(), "b.mp4 -> video_1.mp4")
}

func TestShowLatestReportWithoutReports(t *testing.T) {
	assert.Error(t, showLatestReport(&bytes.Buffer{}, filepath.Join(t.TempDir(), "none")))
}
