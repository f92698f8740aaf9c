package export

import (
	"fmt"
	"strings"

	"gitchangelog/pkg/changelogtypes"
)

// Simple renders an ungrouped list with author, date and hash per commit.
type Simple struct{}

// Render implements Renderer.
func (Simple) Render(doc changelogtypes.Document) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Changes (%d commits)\n", len(doc.Commits))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, c := range doc.Commits {
		fmt.Fprintf(&b, "• %s\n", c.OriginalSubject())
		fmt.Fprintf(&b, "  Author: %s | Date: %s | Hash: %s\n", c.Author, c.Date, c.Hash)
		if line := firstBodyLine(c.Body); line != "" {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
