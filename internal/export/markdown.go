package export

import (
	"fmt"
	"strings"

	"gitchangelog/pkg/changelogtypes"
)

// Markdown renders category sections with emoji headings and commit links.
type Markdown struct {
	headingLevel int
	linkBase     string
}

// NewMarkdown applies defaults: level-2 category headings and DefaultLinkBase.
func NewMarkdown(opts Options) Markdown {
	m := Markdown{headingLevel: opts.HeadingLevel, linkBase: opts.LinkBase}
	if m.headingLevel < 1 || m.headingLevel > 6 {
		m.headingLevel = 2
	}
	if m.linkBase == "" {
		m.linkBase = DefaultLinkBase
	}
	return m
}

// Render implements Renderer.
func (m Markdown) Render(doc changelogtypes.Document) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "Generated on %s\n\n", doc.GeneratedOn)
	b.WriteString(m.Sections(doc.Commits))
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// Sections renders only the category sections. It returns "" when commits is empty.
func (m Markdown) Sections(commits []changelogtypes.Commit) string {
	var b strings.Builder
	hashes := strings.Repeat("#", m.headingLevel)
	groups := Group(commits)
	for _, category := range changelogtypes.Categories {
		group := groups[category]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n\n", hashes, category.Heading())
		for _, c := range group {
			b.WriteString(m.bullet(c))
			indentLines(&b, bodyLines(c.Body), "  ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Markdown) bullet(c changelogtypes.Commit) string {
	link := fmt.Sprintf("[%s](%s%s)", c.Hash, m.linkBase, c.Hash)
	if c.Component != "" {
		return fmt.Sprintf("- **%s:** %s (%s)\n", c.Component, c.Subject, link)
	}
	return fmt.Sprintf("- %s (%s)\n", c.Subject, link)
}
