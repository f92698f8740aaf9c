package gitlog

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/logger"
)

const (
	fieldSep   = "\x1f"
	dateLayout = "format:%Y-%m-%d %H:%M:%S"
)

// CLI implements Repository by shelling out to git.
type CLI struct {
	dir    string
	runner Runner
}

// NewCLI creates a CLI repository rooted at dir.
func NewCLI(dir string, runner Runner) *CLI {
	if dir == "" {
		dir = "."
	}
	return &CLI{dir: dir, runner: runner}
}

// Dir returns the working directory git runs in.
func (c *CLI) Dir() string {
	return c.dir
}

func (c *CLI) git(ctx context.Context, args ...string) (string, error) {
	return c.runner.Run(ctx, c.dir, args...)
}

// IsRepository reports whether the directory is inside a git work tree.
func (c *CLI) IsRepository(ctx context.Context) (bool, error) {
	out, err := c.git(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		if apperr.Is(err, apperr.ErrToolMissing) {
			return false, err
		}
		return false, nil
	}
	return strings.TrimSpace(out) == "true", nil
}

// CommitIDs lists full commit hashes newest first.
func (c *CLI) CommitIDs(ctx context.Context, q Query) ([]string, error) {
	args := []string{"log", "--format=%H"}
	if q.Since != "" {
		args = append(args, "--since="+q.Since)
	}
	if q.Until != "" {
		args = append(args, "--until="+q.Until)
	}
	if q.MaxCount > 0 {
		args = append(args, "-n", strconv.Itoa(q.MaxCount))
	}
	args = append(args, q.Rev(), "--")

	out, err := c.git(ctx, args...)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Stderr, "does not have any commits") {
			return nil, nil
		}
		if q.walksHead() && !c.headExists(ctx) {
			return nil, nil
		}
		return nil, gitError("log "+q.Rev(), err)
	}
	return lines(out), nil
}

// headExists reports whether HEAD resolves to a commit. It does not on an unborn branch.
func (c *CLI) headExists(ctx context.Context) bool {
	_, err := c.git(ctx, "rev-parse", "--verify", "-q", "HEAD^{commit}")
	return err == nil
}

// Meta fetches subject, author, body and date for one commit.
func (c *CLI) Meta(ctx context.Context, id string, includeTime bool) (Meta, error) {
	args := []string{"show", "-s"}
	if includeTime {
		args = append(args, "--date="+dateLayout, "--format=%h%x1f%an%x1f%ad%x1f%at%x1f%s%x1f%b")
	} else {
		args = append(args, "--date=short", "--format=%h%x1f%an%x1f%ad%x1f%s%x1f%b")
	}
	args = append(args, id, "--")

	out, err := c.git(ctx, args...)
	if err != nil {
		return Meta{}, gitError("show "+id, err)
	}
	return parseMeta(id, out, includeTime)
}

func parseMeta(id, out string, includeTime bool) (Meta, error) {
	fieldCount := 5
	if includeTime {
		fieldCount = 6
	}
	parts := strings.SplitN(out, fieldSep, fieldCount)
	if len(parts) < fieldCount-1 {
		return Meta{}, apperr.Newf(apperr.ErrGit, "unexpected git show output for %s", id)
	}

	meta := Meta{
		Hash:      id,
		ShortHash: strings.TrimSpace(parts[0]),
		Author:    strings.TrimSpace(parts[1]),
		Date:      strings.TrimSpace(parts[2]),
	}
	rest := parts[3:]
	if includeTime {
		ts, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
		if err != nil {
			return Meta{}, apperr.Wrap(apperr.ErrGit, "parse commit timestamp", err)
		}
		meta.Timestamp = ts
		rest = parts[4:]
	}
	meta.Subject = strings.TrimSpace(rest[0])
	if len(rest) > 1 {
		meta.Body = strings.TrimSpace(rest[1])
	}
	if meta.ShortHash == "" {
		meta.ShortHash = ShortHash(id)
	}
	return meta, nil
}

// Files lists the paths changed against the first parent, sorted.
func (c *CLI) Files(ctx context.Context, id string) ([]string, error) {
	out, err := c.git(ctx, "diff-tree", "--no-commit-id", "--name-only", "-r", "--root", "-m", "--first-parent", id)
	if err != nil {
		return nil, gitError("diff-tree "+id, err)
	}
	return uniqueSorted(lines(out)), nil
}

// Branches lists local and remote-tracking branches that contain the commit.
func (c *CLI) Branches(ctx context.Context, id string) ([]string, error) {
	out, err := c.git(ctx, "branch", "-a", "--contains", id, "--format=%(refname)")
	if err != nil {
		return nil, gitError("branch --contains "+id, err)
	}

	var names []string
	for _, ref := range lines(out) {
		if name := branchFromRef(ref); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		return uniqueSorted(names), nil
	}

	out, err = c.git(ctx, "name-rev", "--name-only", "--exclude=tags/*", id)
	if err != nil {
		logger.Debug("name-rev fallback failed", "commit", id, "error", err)
		return nil, nil
	}
	if name := branchFromNameRev(out); name != "" {
		return []string{name}, nil
	}
	return nil, nil
}

// IsClean reports whether the work tree has no staged, unstaged or untracked changes.
func (c *CLI) IsClean(ctx context.Context) (bool, error) {
	out, err := c.git(ctx, "status", "--porcelain")
	if err != nil {
		return false, gitError("status", err)
	}
	return strings.TrimSpace(out) == "", nil
}

// Tags lists every tag name.
func (c *CLI) Tags(ctx context.Context) ([]string, error) {
	out, err := c.git(ctx, "tag", "--list")
	if err != nil {
		return nil, gitError("tag --list", err)
	}
	return lines(out), nil
}

// TagExists reports whether a tag with exactly this name exists.
func (c *CLI) TagExists(ctx context.Context, name string) (bool, error) {
	out, err := c.git(ctx, "tag", "--list", name)
	if err != nil {
		return false, gitError("tag --list "+name, err)
	}
	for _, line := range lines(out) {
		if line == name {
			return true, nil
		}
	}
	return false, nil
}

// TagCommit resolves a tag to the commit it points at.
func (c *CLI) TagCommit(ctx context.Context, name string) (string, error) {
	out, err := c.git(ctx, "rev-list", "-n", "1", "refs/tags/"+name)
	if err != nil {
		return "", gitError("rev-list "+name, err)
	}
	return strings.TrimSpace(out), nil
}

// CreateTag creates an annotated or lightweight tag on HEAD.
func (c *CLI) CreateTag(ctx context.Context, spec TagSpec) error {
	args := []string{"tag"}
	if spec.Force {
		args = append(args, "-f")
	}
	if !spec.Lightweight {
		args = append(args, "-a", spec.Name, "-m", spec.Message)
	} else {
		args = append(args, spec.Name)
	}
	if _, err := c.git(ctx, args...); err != nil {
		return gitError("tag "+spec.Name, err)
	}
	return nil
}

// HasRemote reports whether a remote with this name is configured.
func (c *CLI) HasRemote(ctx context.Context, remote string) (bool, error) {
	out, err := c.git(ctx, "remote")
	if err != nil {
		return false, gitError("remote", err)
	}
	for _, line := range lines(out) {
		if line == remote {
			return true, nil
		}
	}
	return false, nil
}

// PushTag pushes a single tag ref to the remote.
func (c *CLI) PushTag(ctx context.Context, remote, tag string, force bool) error {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, remote, "refs/tags/"+tag)
	if _, err := c.git(ctx, args...); err != nil {
		return gitError("push "+remote+" "+tag, err)
	}
	return nil
}

// Commit stages the paths and commits them with message.
func (c *CLI) Commit(ctx context.Context, message string, paths []string) error {
	if len(paths) == 0 {
		return apperr.New(apperr.ErrInvalidInput, "nothing to commit")
	}
	addArgs := append([]string{"add", "--"}, paths...)
	if _, err := c.git(ctx, addArgs...); err != nil {
		return gitError("add", err)
	}
	commitArgs := append([]string{"commit", "-m", message, "--"}, paths...)
	if _, err := c.git(ctx, commitArgs...); err != nil {
		return gitError("commit", err)
	}
	return nil
}
