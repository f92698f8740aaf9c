// Package export renders changelog documents as JSON, text, markdown or a simple list,
// and writes them to files atomically.
package export

import (
	"fmt"
	"strings"
	"time"

	"gitchangelog/internal/apperr"
	"gitchangelog/pkg/changelogtypes"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatSimple   = "simple"
)

// Formats lists every supported format in help order.
var Formats = []string{FormatJSON, FormatText, FormatMarkdown, FormatSimple}

// DefaultLinkBase is prepended to commit hashes in markdown links.
const DefaultLinkBase = "../../commit/"

// Renderer turns a document into its final textual form.
type Renderer interface {
	Render(doc changelogtypes.Document) (string, error)
}

// Options tunes the renderers. Zero values select the defaults.
type Options struct {
	HeadingLevel int
	LinkBase     string
}

// ValidateFormat rejects unknown format names.
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return apperr.Newf(apperr.ErrInvalidFormat, "invalid format %q (choose from %s)", format, strings.Join(Formats, ", "))
}

// NewRenderer returns the renderer registered for format.
func NewRenderer(format string, opts Options) (Renderer, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return JSON{}, nil
	case FormatText:
		return Text{}, nil
	case FormatSimple:
		return Simple{}, nil
	default:
		return NewMarkdown(opts), nil
	}
}

// TolerateEmpty reports whether a format can render a document without commits.
func TolerateEmpty(format string) bool {
	return format == FormatJSON
}

// NewDocument stamps commits with a title and generation time.
func NewDocument(title string, commits []changelogtypes.Commit, now time.Time) changelogtypes.Document {
	if commits == nil {
		commits = []changelogtypes.Commit{}
	}
	return changelogtypes.Document{
		Title:       title,
		GeneratedOn: now.Format(changelogtypes.GeneratedOnLayout),
		Commits:     commits,
	}
}

// Group buckets commits by category, keeping their order within each bucket.
func Group(commits []changelogtypes.Commit) map[changelogtypes.Category][]changelogtypes.Commit {
	groups := make(map[changelogtypes.Category][]changelogtypes.Commit)
	for _, c := range commits {
		category := c.Type
		if !category.IsValid() {
			category = changelogtypes.CategoryOther
		}
		groups[category] = append(groups[category], c)
	}
	return groups
}

func bodyLines(body string) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

func firstBodyLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func indentLines(b *strings.Builder, lines []string, indent string) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(b, "%s%s\n", indent, line)
	}
}
