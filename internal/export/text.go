package export

import (
	"fmt"
	"strings"

	"gitchangelog/pkg/changelogtypes"
)

// Text renders a plain report grouped by category with emoji headers.
type Text struct{}

// Render implements Renderer.
func (Text) Render(doc changelogtypes.Document) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", doc.Title)
	fmt.Fprintf(&b, "Generated on %s\n", doc.GeneratedOn)

	groups := Group(doc.Commits)
	for _, category := range changelogtypes.Categories {
		commits := groups[category]
		if len(commits) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", category.Heading())
		for _, c := range commits {
			fmt.Fprintf(&b, "  • %s (%s)\n", c.DisplaySubject(), c.Hash)
			indentLines(&b, bodyLines(c.Body), "    ")
		}
	}
	return b.String(), nil
}
