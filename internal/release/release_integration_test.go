package release_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitchangelog/internal/gitlog"
	"gitchangelog/internal/release"
	"gitchangelog/internal/testutils"
)

func TestRelease_NativeRepository(t *testing.T) {
	repo := testutils.NewGitRepo(t)
	repo.Commit("chore: init", map[string]string{"package.json": "{\"name\":\"demo\",\"version\":\"0.1.0\"}\n"})
	repo.Tag("v0.1.0", "Release v0.1.0")
	repo.Commit("feat(api): add search", map[string]string{"api.go": "package api\n"})
	repo.Commit("fix: off by one @bug:bound", map[string]string{"api.go": "package api\n\n// fixed\n"})

	backend := gitlog.NewNative(repo.Dir)
	seq := release.NewSequencer(backend, nil).WithClock(testutils.FixedClock(testutils.BaseTime))

	result, err := seq.Run(context.Background(), release.Options{
		Prefix: "v", Increment: release.IncrementMinor, SinceLastTag: true, Commit: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "v0.2.0", result.Tag)
	assert.Equal(t, 2, result.Commits)

	changelog := testutils.ReadFile(t, repo.Dir, "CHANGELOG.md")
	assert.Contains(t, changelog, "## [v0.2.0] - 2025-01-01")
	assert.Contains(t, changelog, "### ✨ Features")
	assert.Contains(t, changelog, "### 🐛 Bug Fixes")
	assert.NotContains(t, changelog, "init")
	assert.Equal(t, "{\"name\":\"demo\",\"version\":\"0.2.0\"}\n", testutils.ReadFile(t, repo.Dir, "package.json"))

	ctx := context.Background()
	clean, err := backend.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	head, err := backend.CommitIDs(ctx, gitlog.Query{MaxCount: 1})
	require.NoError(t, err)
	target, err := backend.TagCommit(ctx, "v0.2.0")
	require.NoError(t, err)
	assert.Equal(t, head[0], target)

	meta, err := backend.Meta(ctx, target, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(meta.Subject, "chore(release): v0.2.0"))
}
