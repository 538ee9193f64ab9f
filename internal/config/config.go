package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// AppName is used for config, cache and data directory names.
const AppName = "promptreel"

// Config holds all application configuration
type Config struct {
	Version int           `toml:"version"`
	Browser BrowserConfig `toml:"browser"`
	Site    SiteConfig    `toml:"site"`
	Login   LoginConfig   `toml:"login"`
	Prompts PromptsConfig `toml:"prompts"`
	Output  OutputConfig  `toml:"output"`
	Timing  TimingConfig  `toml:"timing"`
	History HistoryConfig `toml:"history"`
}

type BrowserConfig struct {
	// ProfileDir is a Chrome user data directory that is already logged in.
	ProfileDir   string `toml:"profile_dir"`
	Headless     bool   `toml:"headless"`
	ExecPath     string `toml:"exec_path"`
	UserAgent    string `toml:"user_agent"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
}

type SiteConfig struct {
	HomeURL string `toml:"home_url"`
}

// LoginConfig drives the optional login form. The selectors are placeholders
// and need adjusting to the live page before enabling.
type LoginConfig struct {
	Enabled            bool     `toml:"enabled"`
	URL                string   `toml:"url"`
	Username           string   `toml:"username"`
	Password           string   `toml:"password"`
	UsernameSelector   string   `toml:"username_selector"`
	PasswordSelector   string   `toml:"password_selector"`
	SubmitSelector     string   `toml:"submit_selector"`
	SuccessURLContains string   `toml:"success_url_contains"`
	TimeoutSeconds     int      `toml:"timeout_seconds"`
	CookieDomain       string   `toml:"cookie_domain"`
	RequiredCookies    []string `toml:"required_cookies"`
}

type PromptsConfig struct {
	File string `toml:"file"`
	// FallbackFile receives prompts typed at the console when File is unreadable.
	// Empty means ~/Desktop/promptreel_prompts.txt.
	FallbackFile string `toml:"fallback_file"`
	Sentinel     string `toml:"sentinel"`
}

type OutputConfig struct {
	Dir        string `toml:"dir"`
	Extension  string `toml:"extension"`
	NamePrefix string `toml:"name_prefix"`
}

type TimingConfig struct {
	SettleDelaySeconds  int `toml:"settle_delay_seconds"`
	DownloadWaitSeconds int `toml:"download_wait_seconds"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Browser: BrowserConfig{
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Site: SiteConfig{
			HomeURL: "https://hailuoai.video",
		},
		Login: LoginConfig{
			Enabled:            false,
			URL:                "https://www.hailuoai.com/login",
			UsernameSelector:   "#username",
			PasswordSelector:   "#password",
			SubmitSelector:     `button[type="submit"]`,
			SuccessURLContains: "dashboard",
			TimeoutSeconds:     10,
			CookieDomain:       "hailuoai",
			RequiredCookies:    []string{},
		},
		Prompts: PromptsConfig{
			File:     "./prompts.txt",
			Sentinel: "DONE",
		},
		Output: OutputConfig{
			Dir:        "./hailuoai_videos",
			Extension:  ".mp4",
			NamePrefix: "video_",
		},
		Timing: TimingConfig{
			SettleDelaySeconds:  2,
			DownloadWaitSeconds: 3,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Validate reports the first setting that would break a run.
func (c *Config) Validate() error {
	if c.Site.HomeURL == "" {
		return errors.New("site.home_url must be set")
	}
	if !strings.HasPrefix(c.Output.Extension, ".") {
		return fmt.Errorf("output.extension must start with a dot, got %q", c.Output.Extension)
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir must be set")
	}
	if c.Output.NamePrefix == "" {
		return errors.New("output.name_prefix must be set")
	}
	if strings.TrimSpace(c.Prompts.Sentinel) == "" {
		return errors.New("prompts.sentinel must be set")
	}
	if c.Timing.SettleDelaySeconds < 0 || c.Timing.DownloadWaitSeconds < 0 {
		return errors.New("timing values must not be negative")
	}
	if c.Login.Enabled && c.Login.TimeoutSeconds <= 0 {
		return errors.New("login.timeout_seconds must be positive when login is enabled")
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory.
// On macOS this is ~/Library/Caches/promptreel/
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// HistoryPath returns the run history database path, honoring history.db_path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// FallbackPromptPath returns where console-captured prompts are saved.
func (c *Config) FallbackPromptPath() (string, error) {
	if c.Prompts.FallbackFile != "" {
		return c.Prompts.FallbackFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Desktop", AppName+"_prompts.txt"), nil
}

// LoadFile reads config from path. Keys missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveFile writes config to path, creating parent directories.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
