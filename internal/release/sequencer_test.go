package release

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/gitlog"
	"gitchangelog/internal/logger"
	"gitchangelog/internal/testutils"
	"gitchangelog/pkg/changelogtypes"
)

type stubSummarizer struct {
	text  string
	err   error
	calls int
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string, _ []changelogtypes.Commit) (string, error) {
	s.calls++
	return s.text, s.err
}

func newReleaseRepo(t *testing.T) *testutils.FakeRepository {
	t.Helper()
	repo := testutils.NewFakeRepository(t.TempDir())
	repo.AddCommit("1111111aaaa", "Ann", "2024-01-01", "feat: first feature", "")
	repo.TagHead("v2.3.9")
	repo.AddCommit("2222222bbbb", "Bob", "2024-02-01", "fix(core): handle empty input", "")
	repo.AddCommit("3333333cccc", "Ann", "2024-02-02", "feat(cli): add --dry-run", "")
	testutils.WriteFiles(t, repo.Root, map[string]string{"package.json": "{\n  \"name\": \"demo\",\n  \"version\": \"2.3.9\"\n}\n"})
	return repo
}

func newSequencer(repo gitlog.Repository, summarizer Summarizer) *Sequencer {
	return NewSequencer(repo, summarizer).WithClock(testutils.FixedClock(releaseDate))
}

func TestSequencer_AutoIncrement(t *testing.T) {
	repo := newReleaseRepo(t)

	result, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", Increment: IncrementMinor, SinceLastTag: true})
	require.NoError(t, err)

	assert.Equal(t, "2.4.0", result.Version)
	assert.Equal(t, "v2.4.0", result.Tag)
	assert.Equal(t, "v2.3.9", result.PreviousTag)
	assert.Equal(t, 2, result.Commits)
	assert.Equal(t, []string{"CHANGELOG.md", "package.json"}, result.Written)

	changelog := testutils.ReadFile(t, repo.Root, "CHANGELOG.md")
	assert.True(t, strings.HasPrefix(changelog, StandardHeader+"\n## [v2.4.0] - 2024-07-01\n"))
	assert.Contains(t, changelog, "- **cli:** add --dry-run ([3333333](../../commit/3333333))")
	assert.Contains(t, changelog, "- **core:** handle empty input")
	assert.NotContains(t, changelog, "first feature")

	assert.Contains(t, testutils.ReadFile(t, repo.Root, "package.json"), "\"version\": \"2.4.0\"")

	require.Len(t, repo.Created, 1)
	assert.Equal(t, gitlog.TagSpec{Name: "v2.4.0", Message: "Release v2.4.0"}, repo.Created[0])
	assert.Empty(t, repo.Pushed)
	assert.Empty(t, repo.Committed)
	assert.False(t, testutils.FileExists(repo.Root, "CHANGELOG.md.lock"))
}

func TestSequencer_FullHistory(t *testing.T) {
	repo := newReleaseRepo(t)

	result, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", SinceLastTag: false})
	require.NoError(t, err)
	assert.Equal(t, "v2.3.10", result.Tag)
	assert.Equal(t, 3, result.Commits)
	assert.Contains(t, result.Section, "first feature")
}

func TestSequencer_NoTags(t *testing.T) {
	repo := testutils.NewFakeRepository(t.TempDir())
	repo.AddCommit("1111111aaaa", "Ann", "2024-01-01", "chore: init", "")

	result, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", Increment: IncrementPatch, SinceLastTag: true})
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", result.Version)
	assert.Equal(t, "", result.PreviousTag)
	assert.Equal(t, []string{"CHANGELOG.md"}, result.Written)
}

func TestSequencer_ExistingChangelog(t *testing.T) {
	repo := newReleaseRepo(t)
	existing := StandardHeader + "\n## [v2.3.9] - 2024-01-01\n\n- old entry\n"
	testutils.WriteFiles(t, repo.Root, map[string]string{"CHANGELOG.md": existing})

	_, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", Version: "3.0.0", SinceLastTag: true})
	require.NoError(t, err)

	changelog := testutils.ReadFile(t, repo.Root, "CHANGELOG.md")
	assert.Less(t, strings.Index(changelog, "## [v3.0.0]"), strings.Index(changelog, "## [v2.3.9]"))
	assert.True(t, strings.HasSuffix(changelog, "- old entry\n"))
}

func TestSequencer_DryRun(t *testing.T) {
	repo := newReleaseRepo(t)
	repo.Remotes = []string{"origin"}
	manifest := testutils.ReadFile(t, repo.Root, "package.json")

	result, err := newSequencer(repo, nil).Run(context.Background(), Options{
		Prefix: "v", Version: "v3.0.0", DryRun: true, Push: true, Commit: true, Force: true, SinceLastTag: true,
	})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, "v3.0.0", result.Tag)
	assert.Empty(t, repo.Mutations())
	assert.Empty(t, repo.Created)
	assert.False(t, testutils.FileExists(repo.Root, "CHANGELOG.md"))
	assert.Equal(t, manifest, testutils.ReadFile(t, repo.Root, "package.json"))
	assert.Empty(t, result.Written)

	require.Len(t, result.Previews, 2)
	assert.Equal(t, "append-to-changelog-file", result.Previews[0].Step)
	assert.Contains(t, result.Previews[0].Diff, "+## [v3.0.0] - 2024-07-01")
	assert.Equal(t, "update-manifest-version", result.Previews[1].Step)
	assert.Contains(t, result.Previews[1].Diff, "-  \"version\": \"2.3.9\"")
	assert.Contains(t, result.Previews[1].Diff, "+  \"version\": \"3.0.0\"")

	assert.Contains(t, result.Steps, "push-tag")
	assert.Contains(t, result.Steps, "commit-working-tree")
}

func TestSequencer_InvalidVersionRejectedEarly(t *testing.T) {
	repo := newReleaseRepo(t)

	_, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", Version: "1.2"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrInvalidVersion))
	assert.Empty(t, repo.Calls)
	assert.False(t, testutils.FileExists(repo.Root, "CHANGELOG.md"))
}

func TestSequencer_StateConflicts(t *testing.T) {
	t.Run("tag exists", func(t *testing.T) {
		repo := newReleaseRepo(t)
		_, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", Version: "2.3.9"})
		assert.True(t, apperr.Is(err, apperr.ErrTagExists))
		assert.Empty(t, repo.Mutations())
		assert.False(t, testutils.FileExists(repo.Root, "CHANGELOG.md"))
	})

	t.Run("tag exists with force", func(t *testing.T) {
		repo := newReleaseRepo(t)
		result, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", Version: "2.3.9", Force: true, SinceLastTag: true})
		require.NoError(t, err)
		assert.Equal(t, "", result.PreviousTag)
		require.Len(t, repo.Created, 1)
		assert.True(t, repo.Created[0].Force)
	})

	t.Run("dirty tree", func(t *testing.T) {
		repo := newReleaseRepo(t)
		repo.Dirty = true
		_, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v"})
		assert.True(t, apperr.Is(err, apperr.ErrDirtyTree))
		assert.Empty(t, repo.Mutations())
	})

	t.Run("dirty tree with force", func(t *testing.T) {
		repo := newReleaseRepo(t)
		repo.Dirty = true
		_, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", Force: true})
		assert.NoError(t, err)
	})

	t.Run("push without remote", func(t *testing.T) {
		repo := newReleaseRepo(t)
		_, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", Push: true})
		assert.True(t, apperr.Is(err, apperr.ErrNoRemote))
		assert.Empty(t, repo.Mutations())
		assert.False(t, testutils.FileExists(repo.Root, "CHANGELOG.md"))
	})

	t.Run("not a repository", func(t *testing.T) {
		repo := newReleaseRepo(t)
		repo.NotRepo = true
		_, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v"})
		assert.True(t, apperr.Is(err, apperr.ErrNotRepository))
	})

	t.Run("changelog locked", func(t *testing.T) {
		repo := newReleaseRepo(t)
		testutils.WriteFiles(t, repo.Root, map[string]string{"CHANGELOG.md.lock": "123\n"})
		_, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v"})
		assert.True(t, apperr.Is(err, apperr.ErrLocked))
		assert.Empty(t, repo.Created)
	})
}

func TestSequencer_PushAndCommit(t *testing.T) {
	repo := newReleaseRepo(t)
	repo.Remotes = []string{"upstream"}

	_, err := newSequencer(repo, nil).Run(context.Background(), Options{
		Prefix: "v", Push: true, Remote: "upstream", Commit: true, Lightweight: true, SinceLastTag: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"chore(release): v2.3.10: CHANGELOG.md,package.json"}, repo.Committed)
	require.Len(t, repo.Created, 1)
	assert.True(t, repo.Created[0].Lightweight)
	assert.Equal(t, []string{"upstream v2.3.10 force=false"}, repo.Pushed)
	assert.Equal(t, []string{"Commit chore(release): v2.3.10", "CreateTag v2.3.10", "PushTag upstream v2.3.10"}, repo.Mutations())
}

func TestSequencer_CustomMessageAndManifests(t *testing.T) {
	repo := newReleaseRepo(t)
	testutils.WriteFiles(t, repo.Root, map[string]string{"VERSION": "2.3.9\n"})

	result, err := newSequencer(repo, nil).Run(context.Background(), Options{
		Prefix: "v", Message: "Big release", Manifests: []string{"VERSION", "missing.toml"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CHANGELOG.md", "VERSION"}, result.Written)
	assert.Equal(t, "2.3.10\n", testutils.ReadFile(t, repo.Root, "VERSION"))
	assert.Equal(t, "Big release", repo.Created[0].Message)
}

func TestSequencer_Summarize(t *testing.T) {
	t.Run("highlights", func(t *testing.T) {
		repo := newReleaseRepo(t)
		summarizer := &stubSummarizer{text: "A faster CLI."}
		result, err := newSequencer(repo, summarizer).Run(context.Background(), Options{Prefix: "v", Summarize: true, SinceLastTag: true})
		require.NoError(t, err)
		assert.Equal(t, 1, summarizer.calls)
		assert.Contains(t, result.Section, "### Highlights\n\nA faster CLI.\n")
	})

	t.Run("failure degrades", func(t *testing.T) {
		repo := newReleaseRepo(t)
		summarizer := &stubSummarizer{err: errors.New("rate limited")}
		result, err := newSequencer(repo, summarizer).Run(context.Background(), Options{Prefix: "v", Summarize: true, SinceLastTag: true})
		require.NoError(t, err)
		assert.NotContains(t, result.Section, "Highlights")
	})

	t.Run("not requested", func(t *testing.T) {
		repo := newReleaseRepo(t)
		summarizer := &stubSummarizer{text: "unused"}
		_, err := newSequencer(repo, summarizer).Run(context.Background(), Options{Prefix: "v"})
		require.NoError(t, err)
		assert.Zero(t, summarizer.calls)
	})
}

func TestSequencer_EmptyRange(t *testing.T) {
	repo := testutils.NewFakeRepository(t.TempDir())
	repo.AddCommit("1111111aaaa", "Ann", "2024-01-01", "feat: first", "")
	repo.TagHead("v1.0.0")

	result, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", SinceLastTag: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Commits)
	assert.Contains(t, result.Section, NoChanges)
}

func TestSequencer_PushFailureAfterTag(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	repo := newReleaseRepo(t)
	repo.Remotes = []string{"origin"}
	repo.Errors["PushTag"] = errors.New("connection refused")

	result, err := newSequencer(repo, nil).Run(context.Background(), Options{Prefix: "v", Push: true, Remote: "origin"})
	require.Error(t, err)
	assert.Len(t, repo.Created, 1)
	assert.NotContains(t, result.Steps, "push-tag")
	assert.Contains(t, logs.String(), "release partially applied")
	assert.Contains(t, logs.String(), "failed=push-tag")
}
