package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ibeckermayer/promptreel/internal/auth"
	"github.com/ibeckermayer/promptreel/internal/config"
	"github.com/ibeckermayer/promptreel/internal/console"
	"github.com/ibeckermayer/promptreel/internal/flow"
	"github.com/ibeckermayer/promptreel/internal/prompts"
	"github.com/ibeckermayer/promptreel/internal/renamer"
	"github.com/ibeckermayer/promptreel/internal/store"
)

// ErrBrowserStart is returned when the browser could not be launched.
var ErrBrowserStart = errors.New("failed to start browser")

// Session is the browser the run drives.
type Session interface {
	Open(ctx context.Context) error
	Navigate(url string) error
	CopyToClipboard(text string) error
	Close() error
	Done() <-chan struct{}
}

// Authenticator performs the optional login step.
type Authenticator interface {
	IsAuthenticated() bool
	Restore(d auth.Driver) error
	Login(ctx context.Context, d auth.Driver, creds auth.Credentials) error
}

// History records what happened during a run.
type History interface {
	StartRun(promptFile, outputDir string) (*store.Run, error)
	SetPromptFile(runID, promptFile string) error
	RecordPrompt(runID string, index int, prompt string, outcome store.Outcome, detail string) error
	RecordRename(runID, oldName, newName string) error
	FinishRun(runID string) error
}

// App sequences one interactive run.
type App struct {
	cfg     *config.Config
	con     *console.Console
	session Session

	// Optional collaborators, nil when disabled.
	auth    Authenticator
	history History

	clipboards []flow.ClipboardWriter
	sleep      func(time.Duration)
	runID      string
}

// Option configures an App.
type Option func(*App)

// WithAuth enables the login step.
func WithAuth(a Authenticator) Option {
	return func(app *App) { app.auth = a }
}

// WithHistory records the run.
func WithHistory(h History) Option {
	return func(app *App) { app.history = h }
}

// WithClipboards replaces the clipboard writers tried for each prompt.
func WithClipboards(c ...flow.ClipboardWriter) Option {
	return func(app *App) { app.clipboards = c }
}

// WithSleep replaces the function used for fixed delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(app *App) { app.sleep = sleep }
}

// New creates an App. By default prompts go to the clipboard through the
// page first and the operating system clipboard second.
func New(cfg *config.Config, con *console.Console, session Session, opts ...Option) *App {
	a := &App{
		cfg:        cfg,
		con:        con,
		session:    session,
		clipboards: []flow.ClipboardWriter{session, flow.SystemClipboard{}},
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run launches the browser and walks the operator through the whole
// workflow. It returns ErrBrowserStart or prompts.ErrNoPrompts for the two
// fatal cases; everything else is reported to the operator and Run returns
// normally once the session ends.
func (a *App) Run(ctx context.Context) error {
	a.con.Println("\nStarting the browser...")
	if err := a.session.Open(ctx); err != nil {
		a.con.Warn("\nFatal error: %v", err)
		a.con.Println("Check the browser settings and try again.")
		return fmt.Errorf("%w: %w", ErrBrowserStart, err)
	}

	a.startHistory()
	defer a.finishHistory()

	err := a.workflow(ctx)
	switch {
	case errors.Is(err, prompts.ErrNoPrompts):
		a.con.Println("No prompts to process. Exiting.")
		a.closeSession()
		return err
	case errors.Is(err, io.EOF):
		a.con.Println("\nConsole input closed.")
	case err != nil:
		log.Printf("[app] Run failed: %v", err)
		a.con.Warn("\nError during the run: %v", err)
		_ = a.con.WaitEnter("Press Enter to finish...")
	}

	a.finish()
	return nil
}

func (a *App) workflow(ctx context.Context) error {
	if a.cfg.Login.Enabled && a.auth != nil {
		a.authenticate(ctx)
	}

	if err := a.handoff(); err != nil {
		return err
	}

	fallback, err := a.cfg.FallbackPromptPath()
	if err != nil {
		log.Printf("[app] No fallback prompt file: %v", err)
		fallback = ""
	}
	loader := prompts.NewLoader(a.con, a.cfg.Prompts.Sentinel, fallback)
	list, err := loader.Load(a.cfg.Prompts.File)
	if err != nil {
		return err
	}
	if loader.Source() != a.cfg.Prompts.File {
		a.recordSource(loader.Source())
	}

	a.con.Printf("\nFound %d prompts to process.\n", len(list))
	a.con.Println("Starting to process each prompt...")

	if err := a.processAll(ctx, list); err != nil {
		return err
	}

	rename, err := a.con.Confirm("\nDo you want to rename the downloaded videos? (y/n): ")
	if err != nil {
		return err
	}
	if rename {
		a.renameOutputs()
	}

	a.con.Println("\nWorkflow complete!")
	return nil
}

// authenticate restores a saved session or fills in the login form. Failure
// is reported and the run continues; the operator can still log in by hand.
func (a *App) authenticate(ctx context.Context) {
	d, ok := a.session.(auth.Driver)
	if !ok {
		log.Println("[app] Session cannot drive the login form, skipping login")
		return
	}

	if a.auth.IsAuthenticated() {
		err := a.auth.Restore(d)
		if err == nil {
			a.con.Println("Restored saved login session")
			return
		}
		log.Printf("[app] Could not restore session: %v", err)
	}

	a.con.Println("Logging in...")
	if err := a.auth.Login(ctx, d, auth.CredentialsFromConfig(a.cfg.Login)); err != nil {
		a.con.Warn("Login failed: %v", err)
		a.con.Println("Continuing without login. Log in manually in the browser if needed.")
		return
	}
	a.con.Println("Login successful!")
}

// handoff opens the site and waits for the operator to reach the prompt box.
func (a *App) handoff() error {
	a.con.Println("Navigating to the video creation page...")
	if err := a.session.Navigate(a.cfg.Site.HomeURL); err != nil {
		return err
	}

	a.con.Heading("\n=== MANUAL NAVIGATION ===")
	a.con.Println("1. Wait for the page to finish loading")
	a.con.Println("2. Click 'Create Video' in the left menu")
	a.con.Println("3. If needed, switch to the 'Subject Reference' tab or the tab you want")
	a.con.Println("4. Place the cursor in the prompt box when you are ready")

	if err := a.con.WaitEnter("\nWhen you have finished these steps and placed the cursor in the prompt box, press Enter to continue..."); err != nil {
		return err
	}

	a.sleep(time.Duration(a.cfg.Timing.SettleDelaySeconds) * time.Second)
	a.con.Println("Ready to continue with the automated steps...")
	return nil
}

// processAll gates each prompt on the operator. It returns nil when the
// operator stops the run and an error only when the console fails.
func (a *App) processAll(ctx context.Context, list []string) error {
	sub := flow.NewSubmitter(a.con, time.Duration(a.cfg.Timing.DownloadWaitSeconds)*time.Second, a.clipboards...).
		WithSleep(a.sleep).
		OnTransition(func(from, to flow.State) {
			log.Printf("[flow] %s -> %s", from, to)
		})

	total := len(list)
	for i, text := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := i + 1

		a.con.Heading("\n=== PROMPT %d/%d ===", n, total)
		a.con.Printf("Content: %s\n", flow.Preview(text))

		answer, err := a.con.AskChoice("Process this prompt? (y/n/skip/quit): ")
		if err != nil {
			return err
		}
		switch flow.ParseDecision(answer) {
		case flow.DecisionQuit:
			a.con.Println("Stopping the workflow.")
			a.record(n, text, store.OutcomeStopped, "")
			return nil
		case flow.DecisionSkip:
			a.con.Printf("Skipping prompt %d.\n", n)
			a.record(n, text, store.OutcomeSkipped, "")
			continue
		}

		if err := sub.Submit(flow.Prompt{Text: text, Index: n, Total: total}); err != nil {
			a.record(n, text, store.OutcomeFailed, fmt.Sprintf("stopped at %s: %v", sub.State(), err))
			if errors.Is(err, io.EOF) {
				return err
			}
			log.Printf("[app] Prompt %d failed: %v", n, err)
			a.con.Warn("Error while creating the video: %v", err)
			cont, cerr := a.con.Confirm("Continue with the next prompt? (y/n): ")
			if cerr != nil {
				return cerr
			}
			if !cont {
				a.con.Println("Stopping the workflow.")
				return nil
			}
			continue
		}
		a.record(n, text, store.OutcomeProcessed, "")

		if n == total {
			a.con.Printf("\nAll %d prompts finished!\n", total)
			break
		}

		a.con.Printf("\nPrompt %d/%d finished.\n", n, total)
		a.con.Println("\nGet ready for the next prompt:")
		a.con.Println("1. Return to the ready state (refresh the page or click New)")
		a.con.Println("2. Place the cursor in the prompt box")
		if err := a.con.WaitEnter("When you are ready for the next prompt, press Enter..."); err != nil {
			return err
		}

		cont, err := a.con.Confirm(fmt.Sprintf("\nContinue with the next prompt (%d/%d)? (y/n): ", n+1, total))
		if err != nil {
			return err
		}
		if !cont {
			a.con.Println("Stopping the workflow.")
			return nil
		}
	}
	return nil
}

func (a *App) renameOutputs() {
	r := renamer.New(a.cfg.Output.NamePrefix, a.cfg.Output.Extension)
	results, err := RenameVideos(a.con, r, a.cfg.Output.Dir)
	for _, res := range results {
		if res.Renamed() {
			a.recordRename(res)
		}
	}
	if err != nil {
		log.Printf("[app] Rename failed: %v", err)
		a.con.Warn("Renaming stopped: %v", err)
	}
}

// RenameVideos renames the videos in dir and reports each rename on con.
func RenameVideos(con *console.Console, r *renamer.Renamer, dir string) ([]renamer.Result, error) {
	con.Println("Renaming downloaded videos...")
	results, err := r.Rename(dir)

	renamed := 0
	for _, res := range results {
		if !res.Renamed() {
			continue
		}
		renamed++
		con.Printf("Renamed: %s -> %s\n", res.From, res.To)
	}
	if err != nil {
		return results, err
	}

	switch {
	case len(results) == 0:
		con.Printf("No videos found in %s\n", dir)
	case renamed == 0:
		con.Println("All videos already have their final names.")
	}
	return results, nil
}

// PreviewVideos lists the videos in dir in rename order without touching them.
func PreviewVideos(con *console.Console, r *renamer.Renamer, dir string) error {
	names, err := r.Eligible(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		con.Printf("No videos found in %s\n", dir)
		return nil
	}
	for i, name := range names {
		con.Printf("%d. %s -> %s\n", i+1, name, r.Target(i+1))
	}
	return nil
}

// finish asks whether to close the browser. Keeping it open blocks until the
// operator closes the window, since the browser lives only as long as the process.
func (a *App) finish() {
	closeIt, err := a.con.Confirm("\nDo you want to close the browser? (y/n): ")
	if err != nil || closeIt {
		a.con.Println("Closing the browser...")
		a.closeSession()
		return
	}

	a.con.Println("Keeping the browser open. Close the browser window when you are done.")
	<-a.session.Done()
	a.closeSession()
}

func (a *App) closeSession() {
	if err := a.session.Close(); err != nil {
		log.Printf("[app] Failed to close browser: %v", err)
	}
}

func (a *App) startHistory() {
	if a.history == nil {
		return
	}
	run, err := a.history.StartRun(a.cfg.Prompts.File, a.cfg.Output.Dir)
	if err != nil {
		log.Printf("[app] History disabled for this run: %v", err)
		a.history = nil
		return
	}
	a.runID = run.ID
	log.Printf("[app] Run %s started", run.ID)
}

func (a *App) finishHistory() {
	if a.history == nil {
		return
	}
	if err := a.history.FinishRun(a.runID); err != nil {
		log.Printf("[app] Failed to finish run record: %v", err)
	}
}

func (a *App) recordSource(source string) {
	if a.history == nil {
		return
	}
	if err := a.history.SetPromptFile(a.runID, source); err != nil {
		log.Printf("[app] Failed to record prompt source: %v", err)
	}
}

func (a *App) record(index int, prompt string, outcome store.Outcome, detail string) {
	if a.history == nil {
		return
	}
	if err := a.history.RecordPrompt(a.runID, index, prompt, outcome, detail); err != nil {
		log.Printf("[app] Failed to record prompt %d: %v", index, err)
	}
}

func (a *App) recordRename(res renamer.Result) {
	if a.history == nil {
		return
	}
	if err := a.history.RecordRename(a.runID, res.From, res.To); err != nil {
		log.Printf("[app] Failed to record rename: %v", err)
	}
}
