package report

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnsupported is returned when no clipboard utility is available.
var ErrClipboardUnsupported = errors.New("report: clipboard unsupported on this system")

var (
	clipboardUnsupported = func() bool { return clipboard.Unsupported }
	clipboardWrite       = clipboard.WriteAll
)

// CopyToClipboard puts text on the system clipboard.
func CopyToClipboard(text string) error {
	if clipboardUnsupported() {
		return ErrClipboardUnsupported
	}
	if err := clipboardWrite(text); err != nil {
		return fmt.Errorf("report: copy to clipboard: %w", err)
	}
	return nil
}
