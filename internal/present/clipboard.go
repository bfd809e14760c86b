package present

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// Clipboard copies matched paths to the system clipboard.
type Clipboard struct {
	// For testing: override the platform clipboard writer
	writeAll    func(text string) error
	unsupported bool
}

// NewClipboard creates a clipboard backed by the platform's paste tool.
func NewClipboard() *Clipboard {
	return &Clipboard{
		writeAll:    clipboard.WriteAll,
		unsupported: clipboard.Unsupported,
	}
}

// Available reports whether the platform has a usable clipboard.
func (c *Clipboard) Available() bool {
	return !c.unsupported
}

// CopyPaths writes the paths to the clipboard, one per line. Copying an
// empty result set is a no-op.
func (c *Clipboard) CopyPaths(paths []string) error {
	if c.unsupported {
		return fmt.Errorf("clipboard is not supported on this platform")
	}
	if len(paths) == 0 {
		return nil
	}
	if err := c.writeAll(strings.Join(paths, "\n")); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}
