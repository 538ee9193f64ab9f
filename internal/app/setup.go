package app

import (
	"fmt"
	"os"

	"github.com/ibeckermayer/promptreel/internal/config"
	"github.com/ibeckermayer/promptreel/internal/console"
)

// Fixed marks settings given on the command line, which Setup leaves alone.
type Fixed struct {
	Profile bool
	Output  bool
	Prompts bool
}

// Setup lets the operator confirm the profile and override the output
// directory and prompt file before the browser starts. It creates the output
// directory and validates the result.
func Setup(con *console.Console, cfg *config.Config, fixed Fixed) error {
	if !fixed.Profile && cfg.Browser.ProfileDir != "" {
		if err := checkProfile(con, cfg); err != nil {
			return err
		}
	}

	if !fixed.Output {
		dir, err := con.Ask(fmt.Sprintf("Enter the video output folder (Enter for default: %s): ", cfg.Output.Dir))
		if err != nil {
			return err
		}
		if dir != "" {
			cfg.Output.Dir = dir
		}
	}

	if !fixed.Prompts {
		file, err := con.Ask(fmt.Sprintf("Enter the path to the prompt file (Enter for default: %s): ", cfg.Prompts.File))
		if err != nil {
			return err
		}
		if file != "" {
			cfg.Prompts.File = file
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	return nil
}

// checkProfile handles a configured profile directory that does not exist:
// the operator either runs with a fresh profile or types another path.
func checkProfile(con *console.Console, cfg *config.Config) error {
	con.Printf("Using browser profile: %s\n", cfg.Browser.ProfileDir)
	if _, err := os.Stat(cfg.Browser.ProfileDir); err == nil {
		return nil
	}

	con.Warn("Warning: profile not found at: %s", cfg.Browser.ProfileDir)
	withoutProfile, err := con.Confirm("Do you want to continue with a fresh browser profile? (y/n): ")
	if err != nil {
		return err
	}
	if withoutProfile {
		cfg.Browser.ProfileDir = ""
		return nil
	}

	path, err := con.Ask("Enter the path to your browser profile: ")
	if err != nil {
		return err
	}
	cfg.Browser.ProfileDir = path
	return nil
}
