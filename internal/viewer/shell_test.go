package viewer

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/testutils"
	"gitchangelog/pkg/changelogtypes"
)

func newSession(t *testing.T) (*Session, *bytes.Buffer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "changelog.json")
	var out bytes.Buffer
	s := NewSession(newViewer(t), path, &out).WithClock(testutils.FixedClock(testutils.BaseTime))
	return s, &out, path
}

func TestSession_ListAndFilter(t *testing.T) {
	s, out, _ := newSession(t)

	require.NoError(t, s.Exec("list", nil))
	assert.Contains(t, out.String(), "4 commit(s)\n")

	out.Reset()
	require.NoError(t, s.Exec("filter", []string{"type=feat,chore", "author=ben"}))
	assert.Contains(t, out.String(), "b2b2b2b")
	assert.Contains(t, out.String(), "2 commit(s)\n")

	out.Reset()
	require.NoError(t, s.Exec("stats", nil))
	assert.Contains(t, out.String(), "Total commits: 2\n")

	require.NoError(t, s.Exec("filter", []string{"clear"}))
	out.Reset()
	require.NoError(t, s.Exec("list", nil))
	assert.Contains(t, out.String(), "4 commit(s)\n")
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter([]string{"type=fix", "bug=sec", "branch=main", "component=api", "search=nil"})
	require.NoError(t, err)
	assert.Equal(t, Filter{
		Types:     []changelogtypes.Category{changelogtypes.CategoryFix},
		Bug:       changelogtypes.BugSecurity,
		Branch:    "main",
		Component: "api",
		Query:     "nil",
	}, f)

	_, err = ParseFilter([]string{"type"})
	assert.True(t, apperr.Is(err, apperr.ErrUsage))
	_, err = ParseFilter([]string{"type=nope"})
	assert.True(t, apperr.Is(err, apperr.ErrInvalidInput))
	_, err = ParseFilter([]string{"bug=nope"})
	assert.True(t, apperr.Is(err, apperr.ErrInvalidInput))
	_, err = ParseFilter([]string{"color=red"})
	assert.True(t, apperr.Is(err, apperr.ErrUsage))
}

func TestSession_EditAndSave(t *testing.T) {
	s, out, path := newSession(t)

	require.NoError(t, s.Exec("set", []string{"c3c3c3c", "subject", "handle", "missing", "user"}))
	require.NoError(t, s.Exec("delete", []string{"a1a1a1a"}))
	require.NoError(t, s.Exec("show", []string{"c3c3"}))
	assert.Contains(t, out.String(), "subject:   handle missing user\n")
	assert.True(t, s.Viewer().Dirty())

	require.NoError(t, s.Exec("save", nil))
	assert.False(t, s.Viewer().Dirty())

	docs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2025-01-01 00:00:00", docs[0].GeneratedOn)
	assert.Equal(t, []string{"d4d4d4d", "c3c3c3c", "b2b2b2b"}, hashes(docs[0].Commits))
	assert.Equal(t, "handle missing user", docs[0].Commits[1].Subject)
}

func TestSession_Errors(t *testing.T) {
	s, _, _ := newSession(t)

	assert.True(t, apperr.Is(s.Exec("frobnicate", nil), apperr.ErrUsage))
	assert.True(t, apperr.Is(s.Exec("show", nil), apperr.ErrUsage))
	assert.True(t, apperr.Is(s.Exec("set", []string{"c3c3c3c", "subject"}), apperr.ErrUsage))
	assert.True(t, apperr.Is(s.Exec("search", nil), apperr.ErrUsage))
	assert.True(t, apperr.Is(s.Exec("delete", []string{"nope"}), apperr.ErrNotFound))
}

func TestSession_Copy(t *testing.T) {
	if ClipboardAvailable {
		t.Skip("clipboard access depends on the desktop session")
	}
	s, _, _ := newSession(t)
	assert.True(t, apperr.Is(s.Exec("copy", nil), apperr.ErrIO))
}
