package gitlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/logger"
)

const defaultTaggerName = "gitchangelog"

// Native implements Repository on go-git, without a git binary.
type Native struct {
	dir  string
	repo *git.Repository
	now  func() time.Time
}

// NewNative creates a Native repository rooted at dir. The repository is opened lazily.
func NewNative(dir string) *Native {
	if dir == "" {
		dir = "."
	}
	return &Native{dir: dir, now: time.Now}
}

// Dir returns the directory the repository was discovered from.
func (n *Native) Dir() string {
	return n.dir
}

func (n *Native) open() (*git.Repository, error) {
	if n.repo != nil {
		return n.repo, nil
	}
	repo, err := git.PlainOpenWithOptions(n.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		// bare repositories have no .git to detect
		repo, err = git.PlainOpen(n.dir)
	}
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, apperr.Wrap(apperr.ErrNotRepository, fmt.Sprintf("not a git repository: %s", n.dir), err)
		}
		return nil, gitError("open "+n.dir, err)
	}
	n.repo = repo
	return repo, nil
}

// IsRepository reports whether dir is inside a git repository.
func (n *Native) IsRepository(_ context.Context) (bool, error) {
	if _, err := n.open(); err != nil {
		if apperr.Is(err, apperr.ErrNotRepository) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (n *Native) resolve(repo *git.Repository, rev string) (plumbing.Hash, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, gitError("resolve "+rev, err)
	}
	return *hash, nil
}

// CommitIDs walks history from the query's branch, newest first.
func (n *Native) CommitIDs(ctx context.Context, q Query) ([]string, error) {
	repo, err := n.open()
	if err != nil {
		return nil, err
	}

	branch := q.Branch
	if branch == "" {
		branch = "HEAD"
	}
	from, err := n.resolve(repo, branch)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) && branch == "HEAD" {
			return nil, nil
		}
		return nil, err
	}

	opts := &git.LogOptions{From: from, Order: git.LogOrderCommitterTime}
	now := n.now()
	if q.Since != "" {
		since, err := ParseDate(q.Since, now)
		if err != nil {
			return nil, err
		}
		opts.Since = &since
	}
	if q.Until != "" {
		until, err := ParseDate(q.Until, now)
		if err != nil {
			return nil, err
		}
		opts.Until = &until
	}

	exclude := map[plumbing.Hash]bool{}
	if q.FromRef != "" {
		if exclude, err = n.reachable(repo, q.FromRef); err != nil {
			return nil, err
		}
	}

	iter, err := repo.Log(opts)
	if err != nil {
		return nil, gitError("log "+q.Rev(), err)
	}
	defer iter.Close()

	var ids []string
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if exclude[c.Hash] {
			return nil
		}
		ids = append(ids, c.Hash.String())
		if q.MaxCount > 0 && len(ids) >= q.MaxCount {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, gitError("log "+q.Rev(), err)
	}
	return ids, nil
}

func (n *Native) reachable(repo *git.Repository, rev string) (map[plumbing.Hash]bool, error) {
	from, err := n.resolve(repo, rev)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return nil, gitError("log "+rev, err)
	}
	defer iter.Close()

	seen := map[plumbing.Hash]bool{}
	err = iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, gitError("log "+rev, err)
	}
	return seen, nil
}

func (n *Native) commit(id string) (*object.Commit, error) {
	repo, err := n.open()
	if err != nil {
		return nil, err
	}
	c, err := repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, gitError("show "+id, err)
	}
	return c, nil
}

// Meta reads subject, author, body and author date from the commit object.
func (n *Native) Meta(_ context.Context, id string, includeTime bool) (Meta, error) {
	c, err := n.commit(id)
	if err != nil {
		return Meta{}, err
	}
	subject, body := splitMessage(c.Message)
	meta := Meta{
		Hash:      c.Hash.String(),
		ShortHash: ShortHash(c.Hash.String()),
		Author:    c.Author.Name,
		Subject:   subject,
		Body:      body,
	}
	if includeTime {
		meta.Date = c.Author.When.Format("2006-01-02 15:04:05")
		meta.Timestamp = c.Author.When.Unix()
	} else {
		meta.Date = c.Author.When.Format("2006-01-02")
	}
	return meta, nil
}

// Files diffs the commit tree against its first parent.
func (n *Native) Files(_ context.Context, id string) ([]string, error) {
	c, err := n.commit(id)
	if err != nil {
		return nil, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, gitError("tree "+id, err)
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, gitError("parent "+id, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, gitError("tree "+parent.Hash.String(), err)
		}
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, gitError("diff "+id, err)
	}
	paths := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.To.Name != "" {
			paths = append(paths, change.To.Name)
		} else {
			paths = append(paths, change.From.Name)
		}
	}
	return uniqueSorted(paths), nil
}

// Branches lists local and remote-tracking branches whose tip contains the commit.
func (n *Native) Branches(_ context.Context, id string) ([]string, error) {
	repo, err := n.open()
	if err != nil {
		return nil, err
	}
	target, err := n.commit(id)
	if err != nil {
		return nil, err
	}

	refs, err := repo.References()
	if err != nil {
		return nil, gitError("references", err)
	}
	defer refs.Close()

	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		if !ref.Name().IsBranch() && !ref.Name().IsRemote() {
			return nil
		}
		name := branchFromRef(ref.Name().String())
		if name == "" {
			return nil
		}
		tip, err := repo.CommitObject(ref.Hash())
		if err != nil {
			logger.Debug("skip unreadable ref", "ref", ref.Name().String(), "error", err)
			return nil
		}
		if tip.Hash == target.Hash {
			names = append(names, name)
			return nil
		}
		ok, err := target.IsAncestor(tip)
		if err != nil {
			return err
		}
		if ok {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, gitError("branch --contains "+id, err)
	}
	if len(names) > 0 {
		return uniqueSorted(names), nil
	}

	head, err := repo.Head()
	if err == nil && head.Name().IsBranch() {
		return []string{head.Name().Short()}, nil
	}
	return nil, nil
}

// IsClean reports whether the work tree status is empty.
func (n *Native) IsClean(_ context.Context) (bool, error) {
	repo, err := n.open()
	if err != nil {
		return false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, gitError("worktree", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, gitError("status", err)
	}
	return status.IsClean(), nil
}

// Tags lists every tag name.
func (n *Native) Tags(_ context.Context) ([]string, error) {
	repo, err := n.open()
	if err != nil {
		return nil, err
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, gitError("tag --list", err)
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, gitError("tag --list", err)
	}
	return tags, nil
}

// TagExists reports whether refs/tags/<name> exists.
func (n *Native) TagExists(_ context.Context, name string) (bool, error) {
	repo, err := n.open()
	if err != nil {
		return false, err
	}
	if _, err := repo.Tag(name); err != nil {
		if errors.Is(err, git.ErrTagNotFound) {
			return false, nil
		}
		return false, gitError("tag --list "+name, err)
	}
	return true, nil
}

// TagCommit peels a tag to its commit hash.
func (n *Native) TagCommit(_ context.Context, name string) (string, error) {
	repo, err := n.open()
	if err != nil {
		return "", err
	}
	ref, err := repo.Tag(name)
	if err != nil {
		return "", gitError("rev-list "+name, err)
	}
	tag, err := repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		c, err := tag.Commit()
		if err != nil {
			return "", gitError("rev-list "+name, err)
		}
		return c.Hash.String(), nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return ref.Hash().String(), nil
	default:
		return "", gitError("rev-list "+name, err)
	}
}

func (n *Native) signature(repo *git.Repository) *object.Signature {
	sig := &object.Signature{Name: defaultTaggerName, When: n.now()}
	cfg, err := repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		logger.Debug("read git identity", "error", err)
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	sig.Email = cfg.User.Email
	return sig
}

// CreateTag tags HEAD; Force deletes an existing tag first.
func (n *Native) CreateTag(_ context.Context, spec TagSpec) error {
	repo, err := n.open()
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return gitError("rev-parse HEAD", err)
	}

	if spec.Force {
		if err := repo.DeleteTag(spec.Name); err != nil && !errors.Is(err, git.ErrTagNotFound) {
			return gitError("tag -d "+spec.Name, err)
		}
	}

	var opts *git.CreateTagOptions
	if !spec.Lightweight {
		opts = &git.CreateTagOptions{Tagger: n.signature(repo), Message: spec.Message}
	}
	if _, err := repo.CreateTag(spec.Name, head.Hash(), opts); err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return apperr.Wrap(apperr.ErrTagExists, fmt.Sprintf("tag %s already exists", spec.Name), err)
		}
		return gitError("tag "+spec.Name, err)
	}
	return nil
}

// HasRemote reports whether the named remote is configured.
func (n *Native) HasRemote(_ context.Context, remote string) (bool, error) {
	repo, err := n.open()
	if err != nil {
		return false, err
	}
	if _, err := repo.Remote(remote); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return false, nil
		}
		return false, gitError("remote", err)
	}
	return true, nil
}

// PushTag pushes refs/tags/<tag> to the remote.
func (n *Native) PushTag(ctx context.Context, remote, tag string, force bool) error {
	repo, err := n.open()
	if err != nil {
		return err
	}
	ref := "refs/tags/" + tag
	spec := ref + ":" + ref
	if force {
		spec = "+" + spec
	}
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(spec)},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return apperr.Wrap(apperr.ErrNoRemote, fmt.Sprintf("remote %s is not configured", remote), err)
		}
		return gitError("push "+remote+" "+tag, err)
	}
	return nil
}

// Commit stages the given paths and records a commit.
func (n *Native) Commit(_ context.Context, message string, paths []string) error {
	if len(paths) == 0 {
		return apperr.New(apperr.ErrInvalidInput, "nothing to commit")
	}
	repo, err := n.open()
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return gitError("worktree", err)
	}
	for _, path := range paths {
		if _, err := wt.Add(strings.TrimPrefix(path, "./")); err != nil {
			return gitError("add "+path, err)
		}
	}
	if _, err := wt.Commit(message, &git.CommitOptions{Author: n.signature(repo)}); err != nil {
		return gitError("commit", err)
	}
	return nil
}
