// Package gitlog reads commit history and manages tags. It is the only package that talks
// to git; everything above it works with plain values.
package gitlog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gitchangelog/internal/apperr"
)

// Query filters the commits returned by CommitIDs.
type Query struct {
	Since    string
	Until    string
	Branch   string
	FromRef  string
	MaxCount int
}

// Rev returns the revision (or range) the query walks.
func (q Query) Rev() string {
	branch := q.Branch
	if branch == "" {
		branch = "HEAD"
	}
	if q.FromRef != "" {
		return q.FromRef + ".." + branch
	}
	return branch
}

func (q Query) walksHead() bool {
	return q.Branch == "" || q.Branch == "HEAD"
}

// Meta is the per-commit metadata fetched for one id.
type Meta struct {
	Hash      string
	ShortHash string
	Author    string
	Date      string
	Timestamp int64
	Subject   string
	Body      string
}

// TagSpec describes a tag to create.
type TagSpec struct {
	Name        string
	Message     string
	Lightweight bool
	Force       bool
}

// Reader is the read side used by the commit enricher.
type Reader interface {
	Dir() string
	IsRepository(ctx context.Context) (bool, error)
	CommitIDs(ctx context.Context, q Query) ([]string, error)
	Meta(ctx context.Context, id string, includeTime bool) (Meta, error)
	Files(ctx context.Context, id string) ([]string, error)
	Branches(ctx context.Context, id string) ([]string, error)
}

// Repository adds the tag and working-tree operations the release sequencer needs.
type Repository interface {
	Reader
	IsClean(ctx context.Context) (bool, error)
	Tags(ctx context.Context) ([]string, error)
	TagExists(ctx context.Context, name string) (bool, error)
	TagCommit(ctx context.Context, name string) (string, error)
	CreateTag(ctx context.Context, spec TagSpec) error
	HasRemote(ctx context.Context, remote string) (bool, error)
	PushTag(ctx context.Context, remote, tag string, force bool) error
	Commit(ctx context.Context, message string, paths []string) error
}

// Backend names accepted by Open.
const (
	BackendCLI    = "cli"
	BackendNative = "native"
)

// Open returns the repository implementation for the named backend.
func Open(backend, dir string) (Repository, error) {
	switch strings.ToLower(backend) {
	case "", BackendCLI:
		return NewCLI(dir, ExecRunner{}), nil
	case BackendNative:
		return NewNative(dir), nil
	default:
		return nil, apperr.Newf(apperr.ErrInvalidInput, "unknown git backend %q (expected %s or %s)", backend, BackendCLI, BackendNative)
	}
}

// RequireRepository returns ErrNotRepository when dir is not inside a work tree.
func RequireRepository(ctx context.Context, r Reader) error {
	ok, err := r.IsRepository(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Newf(apperr.ErrNotRepository, "not a git repository: %s", r.Dir())
	}
	return nil
}

// ShortHash abbreviates a full object id to seven characters.
func ShortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// splitMessage separates the first line of a commit message from the rest.
func splitMessage(message string) (string, string) {
	message = strings.TrimLeft(message, "\n")
	subject, body, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(subject), strings.TrimSpace(body)
}

// uniqueSorted drops blanks and duplicates and sorts the rest.
func uniqueSorted(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

func gitError(op string, err error) error {
	if apperr.CodeOf(err) != "" {
		return err
	}
	return apperr.Wrap(apperr.ErrGit, fmt.Sprintf("git %s", op), err)
}
