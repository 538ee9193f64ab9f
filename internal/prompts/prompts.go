// Package prompts reads the ordered prompt list, falling back to console
// capture when the prompt file cannot be read.
package prompts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ibeckermayer/promptreel/internal/console"
)

// ErrNoPrompts is returned when neither the file nor the console produced a prompt.
var ErrNoPrompts = errors.New("no prompts provided")

const utf8BOM = "\uFEFF"

// Parse returns the trimmed, non-blank lines of r in order. Lines have no
// length limit.
func Parse(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)

	var prompts []string
	first := true
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if first {
			line = strings.TrimPrefix(line, utf8BOM)
			first = false
		}
		if line = strings.TrimSpace(line); line != "" {
			prompts = append(prompts, line)
		}
		if err != nil {
			return prompts, nil
		}
	}
}

// openFile opens the prompt file; tests replace it to simulate read errors.
var openFile = os.Open

// ReadFile parses the prompt file at path.
func ReadFile(path string) ([]string, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prompts, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return prompts, nil
}

// Save writes prompts one per line, creating the parent directory.
func Save(path string, prompts []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var sb strings.Builder
	for _, p := range prompts {
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// Loader obtains prompts from a file or, failing that, from the operator.
type Loader struct {
	con          *console.Console
	sentinel     string
	fallbackPath string

	source string
}

// NewLoader creates a loader. fallbackPath may be empty to never persist captured prompts.
func NewLoader(con *console.Console, sentinel, fallbackPath string) *Loader {
	return &Loader{con: con, sentinel: sentinel, fallbackPath: fallbackPath}
}

// SourceConsole is reported by Source when prompts were typed and not saved.
const SourceConsole = "console"

// Source reports where the last Load got its prompts: the prompt file, the
// fallback file the console capture was saved to, or SourceConsole.
func (l *Loader) Source() string {
	return l.source
}

// Load reads prompts from path. A permission error triggers console capture
// and saves the captured prompts to the fallback file; any other read error
// triggers capture without saving. Returns ErrNoPrompts when the result is empty.
func (l *Loader) Load(path string) ([]string, error) {
	l.con.Printf("Reading prompts from file: %s\n", path)

	l.source = SourceConsole
	prompts, err := ReadFile(path)
	switch {
	case err == nil:
		l.source = path
		l.con.Printf("Read %d prompts\n", len(prompts))
	case errors.Is(err, fs.ErrPermission):
		log.Printf("[prompts] Permission denied reading %s: %v", path, err)
		prompts, err = l.captureAfterPermissionError(path)
	default:
		log.Printf("[prompts] Failed to read %s: %v", path, err)
		l.con.Warn("Error reading prompt file: %v", err)
		l.con.Println()
		l.con.Println("You can enter prompts directly instead.")
		prompts, err = l.capture()
	}
	if err != nil {
		return nil, err
	}

	if len(prompts) == 0 {
		l.con.Warn("No prompts were entered.")
		return nil, ErrNoPrompts
	}
	return prompts, nil
}

func (l *Loader) captureAfterPermissionError(path string) ([]string, error) {
	l.con.Warn("PERMISSION ERROR: cannot read file %s", path)
	l.con.Println("The program is not allowed to read the prompt file.")
	l.con.Println()
	l.con.Println("To fix this:")
	l.con.Println("1. Check the file's permissions or ownership")
	l.con.Println("2. Or create a new prompt file in a directory you own")
	l.con.Println("3. Put one prompt per line")

	if l.fallbackPath != "" {
		l.con.Println()
		l.con.Printf("Or type the prompts now and they will be saved to: %s\n", l.fallbackPath)
	}

	prompts, err := l.capture()
	if err != nil || len(prompts) == 0 || l.fallbackPath == "" {
		return prompts, err
	}

	if err := Save(l.fallbackPath, prompts); err != nil {
		l.con.Warn("Could not save prompts to %s: %v", l.fallbackPath, err)
	} else {
		l.source = l.fallbackPath
		l.con.Printf("Saved %d prompts to %s\n", len(prompts), l.fallbackPath)
	}
	return prompts, nil
}

func (l *Loader) capture() ([]string, error) {
	l.con.Printf("Enter one prompt per line. Type '%s' when finished:\n", l.sentinel)
	prompts, err := l.con.ReadUntil(l.sentinel)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts from console: %w", err)
	}
	return prompts, nil
}
