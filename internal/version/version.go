// Package version reports build information for the changelog and release binaries.
// The variables below are overwritten at link time:
//
//	go build -ldflags "-X gitchangelog/internal/version.Version=1.0.0 -X gitchangelog/internal/version.GitCommit=$(git rev-parse HEAD)"
package version

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Set via -ldflags.
var (
	Version   = "0.4.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const unknown = "unknown"

// Build describes one binary.
type Build struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"buildDate,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
	Valid     bool   `json:"-"`
}

// Current returns the build information for tool.
func Current(tool string) Build {
	b := Build{
		Tool:      tool,
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if GitCommit != unknown {
		b.Commit = GitCommit
	}
	if BuildDate != unknown {
		b.Date = BuildDate
	}
	if sv, err := semver.NewVersion(Version); err == nil {
		b.Version = sv.String()
		b.Valid = true
	}
	return b
}

// Development reports whether the binary was built without commit or date stamps.
func (b Build) Development() bool {
	return b.Commit == "" || b.Date == ""
}

// Short is the one-line form, e.g. "release v1.2.3, commit 0123456, built 2026-01-02".
func (b Build) Short() string {
	if !b.Valid {
		return fmt.Sprintf("%s v%s (invalid version)", b.Tool, b.Version)
	}
	parts := []string{fmt.Sprintf("%s v%s", b.Tool, b.Version)}
	if b.Commit != "" {
		commit := b.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		parts = append(parts, "commit "+commit)
	}
	if b.Date != "" {
		parts = append(parts, "built "+b.Date)
	}
	return strings.Join(parts, ", ")
}

// Detailed lists every field on its own line.
func (b Build) Detailed() string {
	orUnknown := func(s string) string {
		if s == "" {
			return unknown
		}
		return s
	}
	lines := []string{
		fmt.Sprintf("%s v%s", b.Tool, b.Version),
		"Git Commit: " + orUnknown(b.Commit),
		"Build Date: " + orUnknown(b.Date),
		"Go Version: " + b.GoVersion,
		"Platform: " + b.Platform,
	}
	return strings.Join(lines, "\n")
}

// BuildTime parses Date in the layouts release pipelines commonly stamp.
func (b Build) BuildTime() (time.Time, error) {
	if b.Date == "" {
		return time.Time{}, fmt.Errorf("build date not available")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, b.Date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse build date %q", b.Date)
}
