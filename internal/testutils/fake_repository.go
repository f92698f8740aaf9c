package testutils

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/gitlog"
)

// FakeCommit is one commit held by FakeRepository.
type FakeCommit struct {
	Meta     gitlog.Meta
	Files    []string
	Branches []string
}

// FakeRepository is an in-memory gitlog.Repository. Commits are stored newest first.
// Every call is recorded in Calls; Errors injects failures keyed by method name.
type FakeRepository struct {
	Root       string
	NotRepo    bool
	Dirty      bool
	Commits    []FakeCommit
	TagTargets map[string]string
	Remotes    []string
	Errors     map[string]error

	Calls     []string
	Created   []gitlog.TagSpec
	Pushed    []string
	Committed []string
}

// NewFakeRepository creates an empty, clean fake rooted at dir.
func NewFakeRepository(dir string) *FakeRepository {
	return &FakeRepository{Root: dir, TagTargets: map[string]string{}, Errors: map[string]error{}}
}

// AddCommit prepends a commit, making it the new HEAD.
func (f *FakeRepository) AddCommit(hash, author, date, subject, body string, files ...string) {
	f.Commits = append([]FakeCommit{{
		Meta: gitlog.Meta{
			Hash:      hash,
			ShortHash: gitlog.ShortHash(hash),
			Author:    author,
			Date:      date,
			Subject:   subject,
			Body:      body,
		},
		Files: files,
	}}, f.Commits...)
}

// TagHead points a tag at the current newest commit.
func (f *FakeRepository) TagHead(name string) {
	if len(f.Commits) > 0 {
		f.TagTargets[name] = f.Commits[0].Meta.Hash
	}
}

func (f *FakeRepository) record(method string, args ...string) error {
	f.Calls = append(f.Calls, strings.TrimSpace(method+" "+strings.Join(args, " ")))
	return f.Errors[method]
}

// Mutations returns the recorded calls that change repository state.
func (f *FakeRepository) Mutations() []string {
	var out []string
	for _, call := range f.Calls {
		for _, m := range []string{"CreateTag", "PushTag", "Commit"} {
			if call == m || strings.HasPrefix(call, m+" ") {
				out = append(out, call)
			}
		}
	}
	return out
}

func (f *FakeRepository) Dir() string { return f.Root }

func (f *FakeRepository) IsRepository(_ context.Context) (bool, error) {
	if err := f.record("IsRepository"); err != nil {
		return false, err
	}
	return !f.NotRepo, nil
}

func (f *FakeRepository) CommitIDs(_ context.Context, q gitlog.Query) ([]string, error) {
	if err := f.record("CommitIDs", q.Rev()); err != nil {
		return nil, err
	}
	stop := ""
	if q.FromRef != "" {
		target, ok := f.TagTargets[q.FromRef]
		if !ok {
			return nil, apperr.Newf(apperr.ErrGit, "unknown revision %s", q.FromRef)
		}
		stop = target
	}

	var ids []string
	for _, c := range f.Commits {
		if c.Meta.Hash == stop {
			break
		}
		if q.Since != "" && c.Meta.Date < q.Since {
			continue
		}
		if q.Until != "" && c.Meta.Date > q.Until {
			continue
		}
		ids = append(ids, c.Meta.Hash)
		if q.MaxCount > 0 && len(ids) >= q.MaxCount {
			break
		}
	}
	return ids, nil
}

func (f *FakeRepository) find(id string) (FakeCommit, error) {
	for _, c := range f.Commits {
		if c.Meta.Hash == id {
			return c, nil
		}
	}
	return FakeCommit{}, apperr.Newf(apperr.ErrGit, "unknown commit %s", id)
}

func (f *FakeRepository) Meta(_ context.Context, id string, includeTime bool) (gitlog.Meta, error) {
	if err := f.record("Meta", id); err != nil {
		return gitlog.Meta{}, err
	}
	c, err := f.find(id)
	if err != nil {
		return gitlog.Meta{}, err
	}
	meta := c.Meta
	if !includeTime {
		meta.Timestamp = 0
	}
	return meta, nil
}

func (f *FakeRepository) Files(_ context.Context, id string) ([]string, error) {
	if err := f.record("Files", id); err != nil {
		return nil, err
	}
	c, err := f.find(id)
	if err != nil {
		return nil, err
	}
	return c.Files, nil
}

func (f *FakeRepository) Branches(_ context.Context, id string) ([]string, error) {
	if err := f.record("Branches", id); err != nil {
		return nil, err
	}
	c, err := f.find(id)
	if err != nil {
		return nil, err
	}
	return c.Branches, nil
}

func (f *FakeRepository) IsClean(_ context.Context) (bool, error) {
	if err := f.record("IsClean"); err != nil {
		return false, err
	}
	return !f.Dirty, nil
}

func (f *FakeRepository) Tags(_ context.Context) ([]string, error) {
	if err := f.record("Tags"); err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(f.TagTargets))
	for name := range f.TagTargets {
		tags = append(tags, name)
	}
	sort.Strings(tags)
	return tags, nil
}

func (f *FakeRepository) TagExists(_ context.Context, name string) (bool, error) {
	if err := f.record("TagExists", name); err != nil {
		return false, err
	}
	_, ok := f.TagTargets[name]
	return ok, nil
}

func (f *FakeRepository) TagCommit(_ context.Context, name string) (string, error) {
	if err := f.record("TagCommit", name); err != nil {
		return "", err
	}
	target, ok := f.TagTargets[name]
	if !ok {
		return "", apperr.Newf(apperr.ErrGit, "unknown tag %s", name)
	}
	return target, nil
}

func (f *FakeRepository) CreateTag(_ context.Context, spec gitlog.TagSpec) error {
	if err := f.record("CreateTag", spec.Name); err != nil {
		return err
	}
	if _, ok := f.TagTargets[spec.Name]; ok && !spec.Force {
		return apperr.Newf(apperr.ErrTagExists, "tag %s already exists", spec.Name)
	}
	f.Created = append(f.Created, spec)
	f.TagHead(spec.Name)
	return nil
}

func (f *FakeRepository) HasRemote(_ context.Context, remote string) (bool, error) {
	if err := f.record("HasRemote", remote); err != nil {
		return false, err
	}
	for _, r := range f.Remotes {
		if r == remote {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeRepository) PushTag(_ context.Context, remote, tag string, force bool) error {
	if err := f.record("PushTag", remote, tag); err != nil {
		return err
	}
	f.Pushed = append(f.Pushed, fmt.Sprintf("%s %s force=%t", remote, tag, force))
	return nil
}

func (f *FakeRepository) Commit(_ context.Context, message string, paths []string) error {
	if err := f.record("Commit", message); err != nil {
		return err
	}
	f.Committed = append(f.Committed, message+": "+strings.Join(paths, ","))
	return nil
}
