package cli

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
)

// Test seams for the system clipboard and the clear timer.
var (
	writeClipboard = clipboard.WriteAll
	readClipboard  = clipboard.ReadAll
	afterFunc      = time.AfterFunc
)

// copyToClipboard puts value on the clipboard. With a positive
// ClipboardClearAfter the clipboard is emptied later, unless it has been
// overwritten in the meantime.
func (a *App) copyToClipboard(value, what string) error {
	if err := writeClipboard(value); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}

	d := a.config.ClipboardClearAfter
	if d <= 0 {
		a.printf("%s copied to clipboard.\n", what)
		return nil
	}

	afterFunc(d, func() {
		if current, err := readClipboard(); err == nil && current == value {
			_ = writeClipboard("")
		}
	})
	a.printf("%s copied to clipboard; it will be cleared in %s.\n", what, d)
	return nil
}
