// Package changelogtypes defines the commit and document types shared by the exporter,
// the release tool and the viewer. The JSON shape of Document is the wire format consumed
// by the browser viewer and by `changelog merge`.
package changelogtypes

import "strings"

// Category is the single classification assigned to every commit.
type Category string

const (
	// CategoryFeature represents new functionality.
	CategoryFeature Category = "feature"

	// CategoryFix represents bug fixes.
	CategoryFix Category = "fix"

	// CategoryDocs represents documentation changes.
	CategoryDocs Category = "docs"

	// CategoryStyle represents formatting-only changes.
	CategoryStyle Category = "style"

	// CategoryRefactor represents code restructuring without behavior change.
	CategoryRefactor Category = "refactor"

	// CategoryPerformance represents performance improvements.
	CategoryPerformance Category = "performance"

	// CategoryTest represents test changes.
	CategoryTest Category = "test"

	// CategoryChore represents maintenance and build changes.
	CategoryChore Category = "chore"

	// CategoryOther is the fallback when nothing else matches.
	CategoryOther Category = "other"
)

// Categories lists every category in rendering order.
var Categories = []Category{
	CategoryFeature,
	CategoryFix,
	CategoryDocs,
	CategoryStyle,
	CategoryRefactor,
	CategoryPerformance,
	CategoryTest,
	CategoryChore,
	CategoryOther,
}

type categoryInfo struct {
	code  string
	title string
	emoji string
}

var categoryTable = map[Category]categoryInfo{
	CategoryFeature:     {code: "feat", title: "Features", emoji: "✨"},
	CategoryFix:         {code: "fix", title: "Bug Fixes", emoji: "🐛"},
	CategoryDocs:        {code: "docs", title: "Documentation", emoji: "📚"},
	CategoryStyle:       {code: "style", title: "Styles", emoji: "💎"},
	CategoryRefactor:    {code: "refactor", title: "Code Refactoring", emoji: "♻️"},
	CategoryPerformance: {code: "perf", title: "Performance Improvements", emoji: "⚡"},
	CategoryTest:        {code: "test", title: "Tests", emoji: "✅"},
	CategoryChore:       {code: "chore", title: "Chores", emoji: "🔧"},
	CategoryOther:       {code: "other", title: "Other Changes", emoji: "📦"},
}

// String returns the long label of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is one of the fixed set.
func (c Category) IsValid() bool {
	_, ok := categoryTable[c]
	return ok
}

// Code returns the short code used in the JSON "type" field (feat, perf, ...).
func (c Category) Code() string {
	if info, ok := categoryTable[c]; ok {
		return info.code
	}
	return categoryTable[CategoryOther].code
}

// Title returns the human readable section title.
func (c Category) Title() string {
	if info, ok := categoryTable[c]; ok {
		return info.title
	}
	return categoryTable[CategoryOther].title
}

// Emoji returns the section emoji.
func (c Category) Emoji() string {
	if info, ok := categoryTable[c]; ok {
		return info.emoji
	}
	return categoryTable[CategoryOther].emoji
}

// Heading returns "<emoji> <title>".
func (c Category) Heading() string {
	return c.Emoji() + " " + c.Title()
}

// ParseCategory accepts either the long label ("feature") or the wire code ("feat").
func ParseCategory(s string) (Category, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if needle == string(c) || needle == categoryTable[c].code {
			return c, true
		}
	}
	return "", false
}

// MarshalText encodes the category as its wire code.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Code()), nil
}

// UnmarshalText decodes either spelling; unknown values become CategoryOther so that
// hand-edited documents still load.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, ok := ParseCategory(string(text))
	if !ok {
		*c = CategoryOther
		return nil
	}
	*c = parsed
	return nil
}
