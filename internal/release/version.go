package release

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"gitchangelog/internal/apperr"
)

var plainVersion = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ParseVersion validates an explicit MAJOR.MINOR.PATCH version. A leading prefix is
// stripped first, so "v1.2.3" is accepted when prefix is "v".
func ParseVersion(raw, prefix string) (*semver.Version, error) {
	s := strings.TrimSpace(raw)
	if prefix != "" {
		s = strings.TrimPrefix(s, prefix)
	}
	if !plainVersion.MatchString(s) {
		return nil, apperr.Newf(apperr.ErrInvalidVersion, "invalid version %q: expected MAJOR.MINOR.PATCH", raw)
	}
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidVersion, "invalid version "+raw, err)
	}
	return v, nil
}

// LatestTag returns the highest release tag carrying prefix, ignoring pre-releases and
// names that are not semantic versions. ok is false when there is none.
func LatestTag(tags []string, prefix string) (name string, version *semver.Version, ok bool) {
	for _, tag := range tags {
		if prefix != "" && !strings.HasPrefix(tag, prefix) {
			continue
		}
		v, err := semver.StrictNewVersion(strings.TrimPrefix(tag, prefix))
		if err != nil || v.Prerelease() != "" {
			continue
		}
		if version == nil || v.GreaterThan(version) {
			name, version = tag, v
		}
	}
	return name, version, version != nil
}

// Bump applies an increment kind to v. A nil v counts as 0.0.0.
func Bump(v *semver.Version, kind string) (*semver.Version, error) {
	if v == nil {
		v = semver.New(0, 0, 0, "", "")
	}
	var next semver.Version
	switch kind {
	case IncrementMajor:
		next = v.IncMajor()
	case IncrementMinor:
		next = v.IncMinor()
	case IncrementPatch, "":
		next = v.IncPatch()
	default:
		return nil, apperr.Newf(apperr.ErrInvalidInput, "invalid increment %q", kind)
	}
	return &next, nil
}
