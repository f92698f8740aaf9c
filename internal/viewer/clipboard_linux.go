//go:build linux

package viewer

import "fmt"

// ClipboardAvailable reports whether the copy command can reach a system clipboard.
const ClipboardAvailable = false

func copyToClipboard(string) error {
	return fmt.Errorf("clipboard not available on this platform (Linux without X11)")
}
