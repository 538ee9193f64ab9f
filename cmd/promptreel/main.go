// Command promptreel walks an operator through generating videos on Hailuo AI
// from a list of prompts, then renames the downloaded videos in order.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/promptreel/internal/app"
	"github.com/ibeckermayer/promptreel/internal/auth"
	"github.com/ibeckermayer/promptreel/internal/browser"
	"github.com/ibeckermayer/promptreel/internal/config"
	"github.com/ibeckermayer/promptreel/internal/console"
	"github.com/ibeckermayer/promptreel/internal/store"
)

var (
	configPath string
	outputDir  string
	promptFile string
	profileDir string
	headless   bool
	noSetup    bool
	noHistory  bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "promptreel",
	Short: "Generate Hailuo AI videos from a prompt list",
	Long: `promptreel opens a browser on Hailuo AI and walks you through each prompt:
it copies the prompt to the clipboard, waits while you paste, generate and
download, and finally renames the downloaded videos in download order.

The program never clicks on the page for you. Every step waits for Enter.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		closer, err := setupLogging()
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		logFile = closer
		return nil
	},
	RunE: runWorkflow,
}

// logFile is closed once the command returns.
var logFile io.Closer = nopCloser{}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default is the user config directory)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log to stderr instead of the log file")

	f := rootCmd.Flags()
	f.StringVarP(&outputDir, "output", "o", "", "folder the browser downloads videos into")
	f.StringVarP(&promptFile, "prompts", "p", "", "prompt file, one prompt per line")
	f.StringVar(&profileDir, "profile", "", "Chrome user data directory to reuse")
	f.BoolVar(&headless, "headless", false, "run the browser without a window")
	f.BoolVar(&noSetup, "no-setup", false, "skip the interactive setup questions")
	f.BoolVar(&noHistory, "no-history", false, "do not record this run in the history database")

	rootCmd.AddCommand(renameCmd, historyCmd, openCmd, logoutCmd, botTestCmd)
}

func main() {
	err := rootCmd.Execute()
	logFile.Close()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, writing the defaults on first run.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := config.LoadFile(path)
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	// First run - create default config
	cfg = config.Default()
	if err := cfg.SaveFile(path); err != nil {
		log.Printf("Warning: could not save default config: %v", err)
	} else {
		log.Printf("Created default config at: %s", path)
	}
	return cfg, nil
}

// setupLogging sends the log to a file in the cache directory so it does not
// interleave with the operator prompts.
func setupLogging() (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if verbose {
		return nopCloser{}, nil
	}

	dir, err := config.CacheDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, config.AppName+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return f, nil
}

// applyFlags copies command line overrides into cfg and reports which ones
// Setup should not ask about.
func applyFlags(cmd *cobra.Command, cfg *config.Config) app.Fixed {
	var fixed app.Fixed
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Dir = outputDir
		fixed.Output = true
	}
	if flags.Changed("prompts") {
		cfg.Prompts.File = promptFile
		fixed.Prompts = true
	}
	if flags.Changed("profile") {
		cfg.Browser.ProfileDir = profileDir
		fixed.Profile = true
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if noSetup {
		fixed = app.Fixed{Profile: true, Output: true, Prompts: true}
	}
	return fixed
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fixed := applyFlags(cmd, cfg)

	con := console.New(os.Stdin, os.Stdout)
	con.Heading("=== Hailuo AI Video Generator ===")

	if err := app.Setup(con, cfg, fixed); err != nil {
		return err
	}
	log.Printf("promptreel starting: prompts=%s output=%s", cfg.Prompts.File, cfg.Output.Dir)

	session := browser.NewSession(cfg.Browser, cfg.Output.Dir)
	opts := []app.Option{}

	if cfg.History.Enabled && !noHistory {
		history, err := openHistory(cfg)
		if err != nil {
			log.Printf("Warning: run history disabled: %v", err)
		} else {
			defer history.Close()
			opts = append(opts, app.WithHistory(history))
		}
	}

	if cfg.Login.Enabled {
		manager, err := newAuthManager(cfg)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithAuth(manager))
	}

	err = app.New(cfg, con, session, opts...).Run(context.Background())
	if errors.Is(err, app.ErrBrowserStart) {
		log.Printf("Browser failed to start: %v", err)
	}
	return err
}

func openHistory(cfg *config.Config) (*store.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return store.New(path)
}

func newAuthManager(cfg *config.Config) (*auth.Manager, error) {
	cookieStorePath, err := auth.DefaultCookieStorePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get cookie store path: %w", err)
	}
	cookieStore := auth.NewCookieStore(cookieStorePath, cfg.Login.CookieDomain, cfg.Login.RequiredCookies)
	return auth.NewManager(cfg.Login, cookieStore), nil
}
