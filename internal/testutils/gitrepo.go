package testutils

import (
	"os/exec"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// GitRepo is a throwaway repository built with go-git, so it works without a git binary.
type GitRepo struct {
	t     *testing.T
	Dir   string
	Repo  *git.Repository
	clock *Clock
}

// NewGitRepo initialises an empty repository on branch main in a temp dir.
// Commits are dated one hour apart starting at BaseTime.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	require.NoError(t, err)
	return &GitRepo{t: t, Dir: dir, Repo: repo, clock: NewClock(time.Hour)}
}

// RequireGitBinary skips the test when git is not on PATH.
func RequireGitBinary(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// Commit writes files and commits them as "Test Author"; it returns the full hash.
func (r *GitRepo) Commit(message string, files map[string]string) string {
	return r.CommitAs("Test Author", message, files)
}

// CommitAs commits files with the given author name.
func (r *GitRepo) CommitAs(author, message string, files map[string]string) string {
	r.t.Helper()
	if len(files) == 0 {
		files = map[string]string{"README.md": message + "\n"}
	}
	WriteFiles(r.t, r.Dir, files)

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	for name := range files {
		_, err := wt.Add(name)
		require.NoError(r.t, err)
	}

	sig := &object.Signature{Name: author, Email: "author@example.com", When: r.clock.Now()}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(r.t, err)
	return hash.String()
}

// Tag tags HEAD, annotated when message is non-empty. Tagging does not advance the commit clock.
func (r *GitRepo) Tag(name, message string) {
	r.t.Helper()
	head, err := r.Repo.Head()
	require.NoError(r.t, err)

	var opts *git.CreateTagOptions
	if message != "" {
		opts = &git.CreateTagOptions{
			Tagger:  &object.Signature{Name: "Test Author", Email: "author@example.com", When: BaseTime},
			Message: message,
		}
	}
	_, err = r.Repo.CreateTag(name, head.Hash(), opts)
	require.NoError(r.t, err)
}

// Branch creates a branch at HEAD without switching to it.
func (r *GitRepo) Branch(name string) {
	r.t.Helper()
	head, err := r.Repo.Head()
	require.NoError(r.t, err)
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	require.NoError(r.t, r.Repo.Storer.SetReference(ref))
}

// RemoteBranch creates refs/remotes/<remote>/<name> at HEAD.
func (r *GitRepo) RemoteBranch(remote, name string) {
	r.t.Helper()
	head, err := r.Repo.Head()
	require.NoError(r.t, err)
	ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName(remote, name), head.Hash())
	require.NoError(r.t, r.Repo.Storer.SetReference(ref))
}

// Checkout switches the work tree to an existing branch.
func (r *GitRepo) Checkout(name string) {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}))
}

// AddRemote configures a remote pointing at url.
func (r *GitRepo) AddRemote(name, url string) {
	r.t.Helper()
	_, err := r.Repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	require.NoError(r.t, err)
}

// NewBareRemote creates a bare repository in a temp dir and returns its path.
func NewBareRemote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInit(dir, true)
	require.NoError(t, err)
	return dir
}
