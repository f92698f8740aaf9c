package release

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitchangelog/internal/apperr"
	"gitchangelog/pkg/changelogtypes"
)

var releaseDate = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func TestRenderSection(t *testing.T) {
	commits := []changelogtypes.Commit{
		{Type: changelogtypes.CategoryFix, Subject: "stop crash", Hash: "bbb2222"},
		{Type: changelogtypes.CategoryFeature, Component: "cli", Subject: "add --dry-run", Hash: "aaa1111"},
	}

	want := "## [v1.1.0] - 2024-07-01\n" +
		"\n" +
		"### ✨ Features\n" +
		"\n" +
		"- **cli:** add --dry-run ([aaa1111](../../commit/aaa1111))\n" +
		"\n" +
		"### 🐛 Bug Fixes\n" +
		"\n" +
		"- stop crash ([bbb2222](../../commit/bbb2222))\n"
	assert.Equal(t, want, RenderSection("v1.1.0", releaseDate, commits, "", ""))

	withHighlights := RenderSection("v1.1.0", releaseDate, commits, "  Faster and safer.\n", "")
	assert.Contains(t, withHighlights, "## [v1.1.0] - 2024-07-01\n\n### Highlights\n\nFaster and safer.\n\n### ✨ Features\n")
}

func TestRenderSection_Empty(t *testing.T) {
	assert.Equal(t, "## [v0.0.1] - 2024-07-01\n\n_No notable changes._\n", RenderSection("v0.0.1", releaseDate, nil, "", ""))
}

func TestSplice(t *testing.T) {
	section := "## [v1.1.0] - 2024-07-01\n\n- new\n"

	t.Run("new file", func(t *testing.T) {
		assert.Equal(t, StandardHeader+"\n"+section, Splice("", section))
	})

	t.Run("header only", func(t *testing.T) {
		assert.Equal(t, StandardHeader+"\n"+section, Splice(StandardHeader, section))
	})

	t.Run("before previous release", func(t *testing.T) {
		existing := StandardHeader + "\n## [v1.0.0] - 2024-01-01\n\n- old\n"
		want := StandardHeader + "\n" + section + "\n## [v1.0.0] - 2024-01-01\n\n- old\n"
		assert.Equal(t, want, Splice(existing, section))
	})

	t.Run("most recent first", func(t *testing.T) {
		doc := Splice("", "## [v1.0.0] - a\n")
		doc = Splice(doc, "## [v1.1.0] - b\n")
		doc = Splice(doc, "## [v1.2.0] - c\n")
		assert.Less(t, strings.Index(doc, "v1.2.0"), strings.Index(doc, "v1.1.0"))
		assert.Less(t, strings.Index(doc, "v1.1.0"), strings.Index(doc, "v1.0.0"))
		assert.Equal(t, 0, strings.Index(doc, "# Changelog"))
	})
}

func TestLockFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "CHANGELOG.md")

	lock, err := lockFile(target)
	require.NoError(t, err)
	assert.FileExists(t, target+".lock")

	_, err = lockFile(target)
	assert.True(t, apperr.Is(err, apperr.ErrLocked))

	lock.Unlock()
	_, err = os.Stat(target + ".lock")
	assert.True(t, os.IsNotExist(err))

	again, err := lockFile(target)
	require.NoError(t, err)
	again.Unlock()
}
