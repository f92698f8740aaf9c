package config

import (
	"strings"
	"time"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/collect"
	"gitchangelog/internal/export"
	"gitchangelog/internal/gitlog"
	"gitchangelog/internal/release"
)

// ExportOptions is everything the export pipeline needs, validated up front.
type ExportOptions struct {
	Format  string
	Output  string
	Title   string
	Collect collect.Options
	Render  export.Options
}

// ExportOptions validates the export settings without touching the repository.
func (s Settings) ExportOptions() (ExportOptions, error) {
	if err := export.ValidateFormat(s.Format); err != nil {
		return ExportOptions{}, err
	}
	if s.MaxCount < 0 {
		return ExportOptions{}, apperr.Newf(apperr.ErrInvalidInput, "--max-count must not be negative, got %d", s.MaxCount)
	}
	if err := s.checkBackend(); err != nil {
		return ExportOptions{}, err
	}
	if s.Backend == gitlog.BackendNative {
		for _, expr := range []string{s.Since, s.Until} {
			if expr == "" {
				continue
			}
			if _, err := gitlog.ParseDate(expr, time.Now()); err != nil {
				return ExportOptions{}, err
			}
		}
	}

	return ExportOptions{
		Format: s.Format,
		Output: s.Output,
		Title:  Title(s.Title, s.Since),
		Collect: collect.Options{
			Query: gitlog.Query{
				Since:    s.Since,
				Until:    s.Until,
				Branch:   s.Branch,
				MaxCount: s.MaxCount,
			},
			IncludeTime: s.IncludeTime,
			AllowEmpty:  export.TolerateEmpty(s.Format),
		},
		Render: export.Options{
			HeadingLevel: s.HeadingLevel,
			LinkBase:     s.LinkBase,
		},
	}, nil
}

// Title appends "since <date>" to the default title when a start date is given.
func Title(title, since string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	if since != "" && title == DefaultTitle {
		return title + " since " + since
	}
	return title
}

// ReleaseFlags are the per-invocation release switches that never come from files.
type ReleaseFlags struct {
	Version     string
	Increment   string
	Force       bool
	Lightweight bool
	Push        bool
	DryRun      bool
	Commit      bool
	Summarize   bool

	// NoSinceLastTag forces the section to cover the whole history.
	NoSinceLastTag bool
}

// ReleaseOptions merges flags with settings and validates the result.
func (s Settings) ReleaseOptions(f ReleaseFlags) (release.Options, error) {
	if err := s.checkBackend(); err != nil {
		return release.Options{}, err
	}
	return release.Options{
		Version:       f.Version,
		Increment:     f.Increment,
		Message:       s.Message,
		Prefix:        s.Prefix,
		Remote:        s.Remote,
		Force:         f.Force,
		Lightweight:   f.Lightweight,
		Push:          f.Push,
		DryRun:        f.DryRun,
		SinceLastTag:  s.SinceLastTag && !f.NoSinceLastTag,
		Commit:        f.Commit,
		Summarize:     f.Summarize,
		IncludeTime:   s.IncludeTime,
		ChangelogFile: s.ChangelogFile,
		Manifests:     s.Manifests,
		LinkBase:      s.LinkBase,
	}.Validate()
}

func (s Settings) checkBackend() error {
	switch s.Backend {
	case gitlog.BackendCLI, gitlog.BackendNative:
		return nil
	default:
		return apperr.Newf(apperr.ErrInvalidInput, "unknown git backend %q (expected %s or %s)", s.Backend, gitlog.BackendCLI, gitlog.BackendNative)
	}
}
