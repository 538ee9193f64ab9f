package flow

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ClipboardWriter puts text on a clipboard.
type ClipboardWriter interface {
	CopyToClipboard(text string) error
}

// ErrClipboardUnavailable is returned by SystemClipboard when no clipboard utility exists.
var ErrClipboardUnavailable = errors.New("system clipboard is unavailable")

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// SystemClipboard writes to the operating system clipboard (pbcopy, xclip,
// xsel, wl-copy or the Windows API).
type SystemClipboard struct{}

func (SystemClipboard) CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := clipboardWriteAll(text); err != nil {
		return fmt.Errorf("system clipboard write failed: %w", err)
	}
	return nil
}
