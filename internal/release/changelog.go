package release

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/export"
	"gitchangelog/pkg/changelogtypes"
)

// StandardHeader starts a newly created changelog file.
const StandardHeader = "# Changelog\n\nAll notable changes to this project will be documented in this file.\n"

// NoChanges is rendered for a release without commits.
const NoChanges = "_No notable changes._"

// RenderSection renders one release entry: a level-2 heading with tag and date, optional
// highlights, then category sections at level 3.
func RenderSection(tag string, date time.Time, commits []changelogtypes.Commit, highlights, linkBase string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## [%s] - %s\n\n", tag, date.Format("2006-01-02"))

	if h := strings.TrimSpace(highlights); h != "" {
		fmt.Fprintf(&b, "### Highlights\n\n%s\n\n", h)
	}

	sections := export.NewMarkdown(export.Options{HeadingLevel: 3, LinkBase: linkBase}).Sections(commits)
	if sections == "" {
		b.WriteString(NoChanges + "\n")
	} else {
		b.WriteString(sections)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Splice inserts section before the first existing release heading ("## "), keeping the
// top-level heading and intro in place. Without a release heading the section is appended.
// An empty document gets StandardHeader first.
func Splice(existing, section string) string {
	if strings.TrimSpace(existing) == "" {
		return StandardHeader + "\n" + section
	}

	lines := strings.SplitAfter(existing, "\n")
	offset := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "## ") {
			return existing[:offset] + section + "\n" + existing[offset:]
		}
		offset += len(line)
	}
	return strings.TrimRight(existing, "\n") + "\n\n" + section
}

// readOptional returns the file content, or "" when it does not exist.
func readOptional(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, apperr.Wrap(apperr.ErrIO, "read "+path, err)
	}
	return string(data), true, nil
}
