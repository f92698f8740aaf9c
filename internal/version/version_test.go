package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stamp(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate })
}

func TestShort(t *testing.T) {
	t.Run("development build", func(t *testing.T) {
		stamp(t, "1.2.3", "unknown", "unknown")
		b := Current("changelog")
		assert.Equal(t, "changelog v1.2.3", b.Short())
		assert.True(t, b.Development())
	})

	t.Run("release build", func(t *testing.T) {
		stamp(t, "1.2.3", "0123456789abcdef", "2026-01-02")
		b := Current("release")
		assert.Equal(t, "release v1.2.3, commit 0123456, built 2026-01-02", b.Short())
		assert.False(t, b.Development())
	})

	t.Run("invalid version", func(t *testing.T) {
		stamp(t, "not-a-version", "unknown", "unknown")
		assert.Equal(t, "changelog vnot-a-version (invalid version)", Current("changelog").Short())
	})
}

func TestDetailed(t *testing.T) {
	stamp(t, "0.4.0", "abc", "unknown")
	out := Current("changelog").Detailed()
	assert.True(t, strings.HasPrefix(out, "changelog v0.4.0\n"))
	assert.Contains(t, out, "Git Commit: abc")
	assert.Contains(t, out, "Build Date: unknown")
	assert.Contains(t, out, "Go Version: go")
}

func TestBuildTime(t *testing.T) {
	stamp(t, "0.4.0", "abc", "2026-01-02")
	got, err := Current("release").BuildTime()
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())

	stamp(t, "0.4.0", "abc", "unknown")
	_, err = Current("release").BuildTime()
	assert.Error(t, err)
}
