package viewer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"gitchangelog/internal/export"
	"gitchangelog/internal/logger"
	"gitchangelog/pkg/changelogtypes"
)

// RenderOptions controls terminal rendering. An empty Style picks one from the terminal;
// Plain strips every ANSI sequence from the output.
type RenderOptions struct {
	Style    string
	Plain    bool
	WordWrap int
	LinkBase string
}

// Markdown renders doc as the markdown changelog.
func Markdown(doc changelogtypes.Document, linkBase string) (string, error) {
	return export.NewMarkdown(export.Options{LinkBase: linkBase}).Render(doc)
}

// Render renders doc through glamour for terminal display.
func Render(doc changelogtypes.Document, opts RenderOptions) (string, error) {
	md, err := Markdown(doc, opts.LinkBase)
	if err != nil {
		return "", err
	}
	if len(doc.Commits) == 0 {
		md = fmt.Sprintf("# %s\n\n_No commits match._\n", doc.Title)
	}

	renderer, err := newRenderer(opts)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	if opts.Plain {
		out = ansi.Strip(out)
	}
	return out, nil
}

func newRenderer(opts RenderOptions) (*glamour.TermRenderer, error) {
	wrap := opts.WordWrap
	if wrap <= 0 {
		wrap = 80
	}
	style := opts.Style
	if style == "" && (opts.Plain || lipgloss.ColorProfile() == termenv.Ascii) {
		style = "notty"
	}
	if style == "" {
		return glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap))
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithStylePath(style), glamour.WithWordWrap(wrap))
	if err != nil {
		logger.Debug("Failed to create renderer with style, using default", "style", style, "error", err)
		return glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap))
	}
	return renderer, nil
}

// Summary formats one commit for the shell's list command.
func Summary(c changelogtypes.Commit) string {
	return fmt.Sprintf("%s %s %-8s %s (%s)", c.Hash, c.Date, c.Type, c.DisplaySubject(), c.Author)
}

// Detail formats every field of one commit.
func Detail(c changelogtypes.Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "hash:      %s\n", c.Hash)
	fmt.Fprintf(&b, "type:      %s\n", c.Type)
	if c.Component != "" {
		fmt.Fprintf(&b, "component: %s\n", c.Component)
	}
	fmt.Fprintf(&b, "subject:   %s\n", c.Subject)
	fmt.Fprintf(&b, "author:    %s\n", c.Author)
	fmt.Fprintf(&b, "date:      %s\n", c.Date)
	if len(c.Branches) > 0 {
		fmt.Fprintf(&b, "branches:  %s\n", strings.Join(c.Branches, ", "))
	}
	if len(c.Bugs) > 0 {
		labels := make([]string, len(c.Bugs))
		for i, l := range c.Bugs {
			labels[i] = string(l)
		}
		fmt.Fprintf(&b, "bug:       %s\n", strings.Join(labels, ", "))
	}
	if len(c.Files) > 0 {
		b.WriteString("files:\n")
		for _, f := range c.Files {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	if body := strings.TrimSpace(c.Body); body != "" {
		fmt.Fprintf(&b, "\n%s\n", body)
	}
	return b.String()
}

// FormatStats renders Stats as aligned text, categories in rendering order and
// authors by descending count.
func FormatStats(s changelogtypes.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total commits: %d\n", s.TotalCommits)
	b.WriteString("By type:\n")
	for _, category := range changelogtypes.Categories {
		if n := s.TypeCounts[category]; n > 0 {
			fmt.Fprintf(&b, "  %-12s %d\n", category, n)
		}
	}
	b.WriteString("By author:\n")
	for _, author := range sortedAuthors(s.AuthorCounts) {
		fmt.Fprintf(&b, "  %-20s %d\n", author, s.AuthorCounts[author])
	}
	return b.String()
}

func sortedAuthors(counts map[string]int) []string {
	authors := make([]string, 0, len(counts))
	for a := range counts {
		authors = append(authors, a)
	}
	sort.Slice(authors, func(i, j int) bool {
		if counts[authors[i]] != counts[authors[j]] {
			return counts[authors[i]] > counts[authors[j]]
		}
		return authors[i] < authors[j]
	})
	return authors
}
