// Package console is the operator-facing control surface: line prompts,
// Enter gates and sentinel-terminated capture over any reader/writer pair.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console reads operator answers line by line and writes instructions.
type Console struct {
	in  *bufio.Reader
	out io.Writer

	heading *color.Color
	warn    *color.Color
}

// New creates a console over in/out.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:      bufio.NewReader(in),
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		warn:    color.New(color.FgYellow),
	}
}

// Printf writes formatted text.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Println writes a line.
func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

// Heading writes a highlighted section title.
func (c *Console) Heading(format string, args ...any) {
	c.heading.Fprintf(c.out, format+"\n", args...)
}

// Warn writes a highlighted warning line.
func (c *Console) Warn(format string, args ...any) {
	c.warn.Fprintf(c.out, format+"\n", args...)
}

// readLine returns the next input line without its line terminator.
// A final unterminated line is returned as-is; io.EOF comes only once input is exhausted.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Ask prints question and returns the trimmed answer.
func (c *Console) Ask(question string) (string, error) {
	fmt.Fprint(c.out, question)
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskChoice is Ask with the answer lowercased, for y/n style gates.
func (c *Console) AskChoice(question string) (string, error) {
	answer, err := c.Ask(question)
	return strings.ToLower(answer), err
}

// Confirm asks a y/n question. Only "y" counts as yes.
func (c *Console) Confirm(question string) (bool, error) {
	answer, err := c.AskChoice(question)
	if err != nil {
		return false, err
	}
	return answer == "y", nil
}

// WaitEnter blocks until the operator presses Enter. Whatever was typed is discarded.
func (c *Console) WaitEnter(message string) error {
	fmt.Fprint(c.out, message)
	_, err := c.readLine()
	return err
}

// ReadUntil collects non-blank trimmed lines until one equals sentinel
// (case-insensitive). Reaching EOF ends capture without an error.
func (c *Console) ReadUntil(sentinel string) ([]string, error) {
	var lines []string
	for {
		fmt.Fprint(c.out, "> ")
		line, err := c.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return lines, nil
			}
			return lines, err
		}

		line = strings.TrimSpace(line)
		if strings.EqualFold(line, sentinel) {
			return lines, nil
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
}
