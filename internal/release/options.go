package release

import (
	"strings"

	"gitchangelog/internal/apperr"
)

// Increment kinds for auto-increment.
const (
	IncrementMajor = "major"
	IncrementMinor = "minor"
	IncrementPatch = "patch"
)

// Defaults applied by Options.Validate.
const (
	DefaultPrefix        = "v"
	DefaultRemote        = "origin"
	DefaultChangelogFile = "CHANGELOG.md"
	DefaultManifest      = "package.json"
)

// Options configures one release run. Build it once and pass it by value.
type Options struct {
	// Version is the explicit version; empty means auto-increment.
	Version   string
	Increment string
	Message   string
	Prefix    string
	Remote    string

	Force        bool
	Lightweight  bool
	Push         bool
	DryRun       bool
	SinceLastTag bool
	Commit       bool
	Summarize    bool
	IncludeTime  bool

	ChangelogFile string
	Manifests     []string
	LinkBase      string
}

// Validate checks flag combinations and fills defaults. It never touches the repository.
func (o Options) Validate() (Options, error) {
	o.Version = strings.TrimSpace(o.Version)
	o.Increment = strings.ToLower(strings.TrimSpace(o.Increment))

	if o.Version != "" && o.Increment != "" {
		return o, apperr.New(apperr.ErrInvalidInput, "give either an explicit version or --auto-increment, not both")
	}
	switch o.Increment {
	case "", IncrementMajor, IncrementMinor, IncrementPatch:
	default:
		return o, apperr.Newf(apperr.ErrInvalidInput, "invalid increment %q (choose from major, minor, patch)", o.Increment)
	}
	if o.Version == "" && o.Increment == "" {
		o.Increment = IncrementPatch
	}
	if o.Version != "" {
		if _, err := ParseVersion(o.Version, o.Prefix); err != nil {
			return o, err
		}
	}
	if o.Remote == "" {
		o.Remote = DefaultRemote
	}
	if o.ChangelogFile == "" {
		o.ChangelogFile = DefaultChangelogFile
	}
	if o.Manifests == nil {
		o.Manifests = []string{DefaultManifest}
	}
	return o, nil
}
