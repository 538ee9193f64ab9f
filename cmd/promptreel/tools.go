package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	pkgbrowser "github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/promptreel/internal/app"
	"github.com/ibeckermayer/promptreel/internal/browser"
	"github.com/ibeckermayer/promptreel/internal/config"
	"github.com/ibeckermayer/promptreel/internal/console"
	"github.com/ibeckermayer/promptreel/internal/renamer"
	"github.com/ibeckermayer/promptreel/internal/store"
)

var (
	renameDryRun  bool
	historyLimit  int
	historyRun    string
	historyExport bool
	historyReport bool
)

var renameCmd = &cobra.Command{
	Use:   "rename [dir]",
	Short: "Rename downloaded videos in download order",
	Long: `Rename every video in dir (default: output.dir from the config) to
video_1.mp4, video_2.mp4, ... ordered by modification time, oldest first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir := cfg.Output.Dir
		if len(args) == 1 {
			dir = args[0]
		}

		con := console.New(os.Stdin, os.Stdout)
		r := renamer.New(cfg.Output.NamePrefix, cfg.Output.Extension)
		if renameDryRun {
			return app.PreviewVideos(con, r, dir)
		}
		_, err = app.RenameVideos(con, r, dir)
		return err
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyReport {
			dir, err := store.ReportDir()
			if err != nil {
				return err
			}
			return showLatestReport(os.Stdout, dir)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		history, err := openHistory(cfg)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer history.Close()

		if historyExport {
			return exportReport(history, historyRun)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		if historyRun != "" {
			events, err := history.RunEvents(historyRun)
			if err != nil {
				return err
			}
			printEvents(w, events)
			return nil
		}

		runs, err := history.RecentRuns(historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tPROCESSED\tSKIPPED\tFAILED\tRENAMED\tPROMPTS")
		for _, r := range runs {
			duration := "-"
			if !r.FinishedAt.IsZero() {
				duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), duration,
				r.Processed, r.Skipped, r.Failed, r.Renamed, r.PromptFile)
		}
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:       "open <config|cache|output|reports>",
	Short:     "Open the config file, cache directory, output folder or reports",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"config", "cache", "output", "reports"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		var err error

		switch args[0] {
		case "config":
			path = configPath
			if path == "" {
				path, err = config.ConfigPath()
			}
			if err == nil {
				// Make sure there is something to open
				_, err = loadConfig()
			}
		case "cache":
			path, err = config.CacheDir()
			if err == nil {
				err = os.MkdirAll(path, 0700)
			}
		case "reports":
			path, err = store.ReportDir()
			if err == nil {
				err = os.MkdirAll(path, 0755)
			}
		case "output":
			var cfg *config.Config
			cfg, err = loadConfig()
			if err == nil {
				path = cfg.Output.Dir
			}
		}
		if err != nil {
			return fmt.Errorf("failed to get path: %w", err)
		}

		if err := pkgbrowser.OpenFile(path); err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved login cookies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		manager, err := newAuthManager(cfg)
		if err != nil {
			return err
		}
		if err := manager.Logout(); err != nil {
			return err
		}
		fmt.Println("Saved login cleared.")
		return nil
	},
}

var botTestCmd = &cobra.Command{
	Use:   "bot-test",
	Short: "Open bot.sannysoft.com to audit the browser fingerprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Browser.Headless = false // visible so you can inspect it

		session := browser.NewSession(cfg.Browser, cfg.Output.Dir)
		if err := session.Open(context.Background()); err != nil {
			return fmt.Errorf("%w: %w", app.ErrBrowserStart, err)
		}
		defer session.Close()

		if err := session.Navigate("https://bot.sannysoft.com"); err != nil {
			return fmt.Errorf("failed to navigate: %w", err)
		}

		con := console.New(os.Stdin, os.Stdout)
		_ = con.WaitEnter("Press Enter to close the browser...")
		return nil
	},
}

func init() {
	renameCmd.Flags().BoolVar(&renameDryRun, "dry-run", false, "list the planned names without renaming")
	historyCmd.Flags().BoolVar(&historyReport, "show-report", false, "print the most recently exported report")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show the prompts of one run")
	historyCmd.Flags().BoolVar(&historyExport, "export", false, "write the run (default: latest) as a JSON report")
}

// exportReport writes a run report to the reports directory. An empty runID
// exports the most recent run.
func exportReport(history *store.Store, runID string) error {
	if runID == "" {
		runs, err := history.RecentRuns(1)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return errors.New("no runs recorded yet")
		}
		runID = runs[0].ID
	}

	report, err := history.Report(runID)
	if err != nil {
		return err
	}
	dir, err := store.ReportDir()
	if err != nil {
		return err
	}
	path, err := store.WriteReport(dir, report)
	if err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}

func printEvents(w io.Writer, events []store.PromptEvent) {
	fmt.Fprintln(w, "#\tOUTCOME\tPROMPT\tDETAIL")
	for _, e := range events {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Index, e.Outcome, truncate(e.Prompt, 60), e.Detail)
	}
}

// showLatestReport prints the newest report in dir.
func showLatestReport(out io.Writer, dir string) error {
	path, err := store.LatestReport(dir)
	if err != nil {
		return err
	}
	report, err := store.LoadReport(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Report: %s\n", path)
	fmt.Fprintf(out, "Run %s started %s\n", report.ID, report.StartedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Prompts: %s  Output: %s\n", report.PromptFile, report.OutputDir)
	fmt.Fprintf(out, "Processed %d, skipped %d, failed %d, renamed %d\n\n",
		report.Processed, report.Skipped, report.Failed, report.Renamed)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	printEvents(w, report.Events)
	for _, r := range report.Renames {
		fmt.Fprintf(w, "\trenamed\t%s -> %s\t\n", r.From, r.To)
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
