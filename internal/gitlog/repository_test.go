package gitlog_test

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/gitlog"
	"gitchangelog/internal/testutils"
)

// backends returns every Repository implementation runnable in this environment.
func backends(t *testing.T, dir string) map[string]gitlog.Repository {
	t.Helper()
	repos := map[string]gitlog.Repository{"native": gitlog.NewNative(dir)}
	if _, err := exec.LookPath("git"); err == nil {
		repos["cli"] = gitlog.NewCLI(dir, gitlog.ExecRunner{})
	}
	return repos
}

func buildHistory(t *testing.T) (*testutils.GitRepo, []string) {
	t.Helper()
	repo := testutils.NewGitRepo(t)
	first := repo.Commit("chore: initial commit", map[string]string{"README.md": "hello\n"})
	repo.Tag("v0.1.0", "Release v0.1.0")
	second := repo.Commit("feat(api): add users endpoint\n\nAdds GET /users.\n@bug:fn", map[string]string{
		"api/users.go":   "package api\n",
		"api/handler.go": "package api\n",
	})
	repo.RemoteBranch("origin", "main")
	third := repo.Commit("fix: handle nil user", map[string]string{"api/users.go": "package api\n\n// fixed\n"})
	return repo, []string{third, second, first}
}

func TestRepository_CommitIDs(t *testing.T) {
	repo, want := buildHistory(t)

	for name, r := range backends(t, repo.Dir) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ids, err := r.CommitIDs(ctx, gitlog.Query{})
			require.NoError(t, err)
			assert.Equal(t, want, ids)

			ids, err = r.CommitIDs(ctx, gitlog.Query{MaxCount: 2})
			require.NoError(t, err)
			assert.Equal(t, want[:2], ids)

			ids, err = r.CommitIDs(ctx, gitlog.Query{FromRef: "v0.1.0"})
			require.NoError(t, err)
			assert.Equal(t, want[:2], ids)
		})
	}
}

func TestRepository_Meta(t *testing.T) {
	repo, ids := buildHistory(t)

	for name, r := range backends(t, repo.Dir) {
		t.Run(name, func(t *testing.T) {
			meta, err := r.Meta(context.Background(), ids[1], true)
			require.NoError(t, err)

			assert.Equal(t, "feat(api): add users endpoint", meta.Subject)
			assert.Equal(t, "Adds GET /users.\n@bug:fn", meta.Body)
			assert.Equal(t, "Test Author", meta.Author)
			assert.Equal(t, "2025-01-01 01:00:00", meta.Date)
			assert.Equal(t, testutils.BaseTime.Unix()+3600, meta.Timestamp)
			assert.True(t, strings.HasPrefix(ids[1], meta.ShortHash))

			meta, err = r.Meta(context.Background(), ids[1], false)
			require.NoError(t, err)
			assert.Equal(t, "2025-01-01", meta.Date)
			assert.Zero(t, meta.Timestamp)
		})
	}
}

func TestRepository_FilesAndBranches(t *testing.T) {
	repo, ids := buildHistory(t)
	repo.Branch("release")

	for name, r := range backends(t, repo.Dir) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			files, err := r.Files(ctx, ids[1])
			require.NoError(t, err)
			assert.Equal(t, []string{"api/handler.go", "api/users.go"}, files)

			files, err = r.Files(ctx, ids[2])
			require.NoError(t, err)
			assert.Equal(t, []string{"README.md"}, files)

			branches, err := r.Branches(ctx, ids[1])
			require.NoError(t, err)
			assert.Equal(t, []string{"main", "release"}, branches)
		})
	}
}

func TestRepository_Tags(t *testing.T) {
	repo, ids := buildHistory(t)

	for name, r := range backends(t, repo.Dir) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			tags, err := r.Tags(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"v0.1.0"}, tags)

			ok, err := r.TagExists(ctx, "v0.1.0")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = r.TagExists(ctx, "v9.9.9")
			require.NoError(t, err)
			assert.False(t, ok)

			target, err := r.TagCommit(ctx, "v0.1.0")
			require.NoError(t, err)
			assert.Equal(t, ids[2], target)
		})
	}
}

func TestNative_CreateTagAndPush(t *testing.T) {
	repo, ids := buildHistory(t)
	remote := testutils.NewBareRemote(t)
	repo.AddRemote("origin", remote)
	r := gitlog.NewNative(repo.Dir)
	ctx := context.Background()

	require.NoError(t, r.CreateTag(ctx, gitlog.TagSpec{Name: "v1.0.0", Message: "Release v1.0.0"}))
	target, err := r.TagCommit(ctx, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, ids[0], target)

	err = r.CreateTag(ctx, gitlog.TagSpec{Name: "v1.0.0", Message: "again"})
	assert.True(t, apperr.Is(err, apperr.ErrTagExists))

	require.NoError(t, r.CreateTag(ctx, gitlog.TagSpec{Name: "v1.0.0", Lightweight: true, Force: true}))

	ok, err := r.HasRemote(ctx, "origin")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, r.PushTag(ctx, "origin", "v1.0.0", false))

	pushed := gitlog.NewNative(remote)
	ok, err = pushed.TagExists(ctx, "v1.0.0")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNative_CommitAndStatus(t *testing.T) {
	repo, _ := buildHistory(t)
	r := gitlog.NewNative(repo.Dir)
	ctx := context.Background()

	clean, err := r.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	testutils.WriteFiles(t, repo.Dir, map[string]string{"CHANGELOG.md": "# Changelog\n"})
	clean, err = r.IsClean(ctx)
	require.NoError(t, err)
	assert.False(t, clean)

	require.NoError(t, r.Commit(ctx, "chore(release): v1.0.0", []string{"CHANGELOG.md"}))
	clean, err = r.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	ids, err := r.CommitIDs(ctx, gitlog.Query{MaxCount: 1})
	require.NoError(t, err)
	meta, err := r.Meta(ctx, ids[0], false)
	require.NoError(t, err)
	assert.Equal(t, "chore(release): v1.0.0", meta.Subject)
}

func TestNative_BareRepository(t *testing.T) {
	remote := testutils.NewBareRemote(t)
	r := gitlog.NewNative(remote)
	ctx := context.Background()

	require.NoError(t, gitlog.RequireRepository(ctx, r))
	tags, err := r.Tags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestRequireRepository(t *testing.T) {
	dir := t.TempDir()
	for name, r := range backends(t, dir) {
		t.Run(name, func(t *testing.T) {
			err := gitlog.RequireRepository(context.Background(), r)
			assert.True(t, apperr.Is(err, apperr.ErrNotRepository))
		})
	}
}

func TestRepository_EmptyRepository(t *testing.T) {
	repo := testutils.NewGitRepo(t)
	for name, r := range backends(t, repo.Dir) {
		t.Run(name, func(t *testing.T) {
			ids, err := r.CommitIDs(context.Background(), gitlog.Query{})
			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestRepository_BranchQuery(t *testing.T) {
	repo, ids := buildHistory(t)
	repo.Branch("feature")
	repo.Checkout("feature")
	extra := repo.Commit("feat: feature only", map[string]string{"feature.txt": "x\n"})
	repo.Checkout("main")

	for name, r := range backends(t, repo.Dir) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := r.CommitIDs(ctx, gitlog.Query{})
			require.NoError(t, err)
			assert.Equal(t, ids, got)

			got, err = r.CommitIDs(ctx, gitlog.Query{Branch: "feature", FromRef: "main"})
			require.NoError(t, err)
			assert.Equal(t, []string{extra}, got)

			branches, err := r.Branches(ctx, extra)
			require.NoError(t, err)
			assert.Equal(t, []string{"feature"}, branches)
		})
	}
}

func TestCLI_CreateTagAndCommit(t *testing.T) {
	testutils.RequireGitBinary(t)
	testutils.GitIdentity(t)
	repo, ids := buildHistory(t)
	r := gitlog.NewCLI(repo.Dir, gitlog.ExecRunner{})
	ctx := context.Background()

	require.NoError(t, r.CreateTag(ctx, gitlog.TagSpec{Name: "v1.0.0", Message: "Release v1.0.0"}))
	target, err := r.TagCommit(ctx, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, ids[0], target)

	testutils.WriteFiles(t, repo.Dir, map[string]string{"CHANGELOG.md": "# Changelog\n"})
	clean, err := r.IsClean(ctx)
	require.NoError(t, err)
	assert.False(t, clean)

	require.NoError(t, r.Commit(ctx, "chore(release): v1.1.0", []string{"CHANGELOG.md"}))
	clean, err = r.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	err = r.Commit(ctx, "empty", nil)
	assert.True(t, apperr.Is(err, apperr.ErrInvalidInput))
}
