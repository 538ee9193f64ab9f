// Package flow walks the operator through submitting one prompt. The program
// never observes the page; each transition happens when the operator confirms
// the previous step at the console.
package flow

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ibeckermayer/promptreel/internal/console"
)

// State is a step of the per-prompt submission.
type State int

const (
	StateIdle State = iota
	StateAwaitingSubmit
	StateAwaitingGeneration
	StateAwaitingDownload
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSubmit:
		return "awaiting-submit"
	case StateAwaitingGeneration:
		return "awaiting-generation"
	case StateAwaitingDownload:
		return "awaiting-download"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Decision is the operator's answer at the per-prompt gate.
type Decision int

const (
	DecisionProcess Decision = iota
	DecisionSkip
	DecisionQuit
)

// ParseDecision interprets a y/n/skip/quit answer. "n" and "quit" stop the
// run, "skip" skips the prompt, anything else processes it.
func ParseDecision(answer string) Decision {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "n", "quit":
		return DecisionQuit
	case "skip":
		return DecisionSkip
	default:
		return DecisionProcess
	}
}

// Prompt is one item of the run with its 1-based position.
type Prompt struct {
	Text  string
	Index int
	Total int
}

// Submitter drives a prompt from Idle to Done.
type Submitter struct {
	con          *console.Console
	clipboards   []ClipboardWriter
	downloadWait time.Duration
	sleep        func(time.Duration)

	state        State
	onTransition func(from, to State)
}

// NewSubmitter creates a submitter. Clipboards are tried in order.
func NewSubmitter(con *console.Console, downloadWait time.Duration, clipboards ...ClipboardWriter) *Submitter {
	return &Submitter{
		con:          con,
		clipboards:   clipboards,
		downloadWait: downloadWait,
		sleep:        time.Sleep,
	}
}

// WithSleep replaces the function used for fixed delays.
func (s *Submitter) WithSleep(sleep func(time.Duration)) *Submitter {
	s.sleep = sleep
	return s
}

// OnTransition registers a callback invoked on every state change.
func (s *Submitter) OnTransition(fn func(from, to State)) *Submitter {
	s.onTransition = fn
	return s
}

// State returns the current state.
func (s *Submitter) State() State {
	return s.state
}

func (s *Submitter) transition(to State) {
	from := s.state
	s.state = to
	if s.onTransition != nil {
		s.onTransition(from, to)
	}
}

// Submit walks the operator through one prompt. It returns the console error
// that interrupted it, if any; the state then shows where it stopped.
func (s *Submitter) Submit(p Prompt) error {
	s.state = StateIdle

	s.con.Printf("\nProcessing prompt %d: %s...\n", p.Index, truncate(p.Text, 50))
	s.con.Println("Pasting prompt...")
	s.copyPrompt(p.Text)
	if err := s.con.WaitEnter("After pasting the prompt, press Enter to continue..."); err != nil {
		return err
	}
	s.transition(StateAwaitingSubmit)

	s.con.Println("\nPlease click the Create/Generate button to start the video")
	if err := s.con.WaitEnter("After clicking the button, press Enter to continue..."); err != nil {
		return err
	}
	s.transition(StateAwaitingGeneration)

	s.con.Println("Video is generating, please wait...")
	if err := s.con.WaitEnter("When the video has finished generating, press Enter to continue..."); err != nil {
		return err
	}
	s.transition(StateAwaitingDownload)

	s.con.Println("\nPlease click the Download button to save the video")
	if err := s.con.WaitEnter("After clicking download, press Enter to continue..."); err != nil {
		return err
	}

	s.con.Println("Waiting for the download to finish...")
	s.sleep(s.downloadWait)
	s.transition(StateDone)
	return nil
}

// copyPrompt tries each clipboard in turn and falls back to printing the
// text for a manual copy.
func (s *Submitter) copyPrompt(text string) {
	for _, cb := range s.clipboards {
		err := cb.CopyToClipboard(text)
		if err == nil {
			s.con.Println("Prompt copied to clipboard")
			s.con.Println("Press Ctrl+V (Cmd+V on macOS) in the prompt box to paste it")
			return
		}
		log.Printf("[flow] Clipboard write failed: %v", err)
	}

	s.con.Warn("Could not use the clipboard.")
	s.con.Printf("Please copy and paste this prompt yourself:\n\n%s\n\n", text)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Preview returns the prompt for display, cut to 100 runes with an ellipsis.
func Preview(text string) string {
	if len([]rune(text)) > 100 {
		return truncate(text, 100) + "..."
	}
	return text
}
