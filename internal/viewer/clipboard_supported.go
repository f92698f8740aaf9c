//go:build !linux

package viewer

import "golang.design/x/clipboard"

// ClipboardAvailable reports whether the copy command can reach a system clipboard.
const ClipboardAvailable = true

func copyToClipboard(text string) error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
