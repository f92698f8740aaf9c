// Package collect turns commit ids into enriched, classified changelog records.
package collect

import (
	"context"
	"strings"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/classify"
	"gitchangelog/internal/gitlog"
	"gitchangelog/internal/logger"
	"gitchangelog/pkg/changelogtypes"
)

// Options controls one collection run.
type Options struct {
	Query       gitlog.Query
	IncludeTime bool
	// AllowEmpty returns an empty slice instead of ErrNoCommits when nothing matches.
	AllowEmpty bool
}

// Collector reads commits from a repository and enriches them one at a time.
type Collector struct {
	repo gitlog.Reader
}

// New creates a Collector over repo.
func New(repo gitlog.Reader) *Collector {
	return &Collector{repo: repo}
}

// Collect verifies the repository, lists matching commits newest first and enriches each.
func (c *Collector) Collect(ctx context.Context, opts Options) ([]changelogtypes.Commit, error) {
	if err := gitlog.RequireRepository(ctx, c.repo); err != nil {
		return nil, err
	}

	ids, err := c.repo.CommitIDs(ctx, opts.Query)
	if err != nil {
		return nil, err
	}
	ids = dedupe(ids)
	logger.Debug("collected commit ids", "count", len(ids), "rev", opts.Query.Rev())

	if len(ids) == 0 {
		if opts.AllowEmpty {
			return []changelogtypes.Commit{}, nil
		}
		return nil, apperr.New(apperr.ErrNoCommits, "No commits found matching the criteria.")
	}

	commits := make([]changelogtypes.Commit, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		commit, err := c.Enrich(ctx, id, opts.IncludeTime)
		if err != nil {
			return nil, err
		}
		if seen[commit.Hash] {
			logger.Warn("duplicate short hash, skipping", "hash", commit.Hash, "commit", id)
			continue
		}
		seen[commit.Hash] = true
		commits = append(commits, commit)
	}
	return commits, nil
}

// Enrich builds the record for a single commit. Metadata failures are returned;
// branch and file lookups degrade to empty values.
func (c *Collector) Enrich(ctx context.Context, id string, includeTime bool) (changelogtypes.Commit, error) {
	meta, err := c.repo.Meta(ctx, id, includeTime)
	if err != nil {
		return changelogtypes.Commit{}, err
	}

	body := NormalizeBody(meta.Body)
	result := classify.Classify(meta.Subject, body)

	commit := changelogtypes.Commit{
		Type:       result.Type,
		Component:  result.Component,
		Subject:    result.CleanSubject,
		Hash:       meta.ShortHash,
		Date:       meta.Date,
		Author:     meta.Author,
		Bugs:       result.Bugs,
		Body:       body,
		RawSubject: meta.Subject,
	}
	if commit.Hash == "" {
		commit.Hash = gitlog.ShortHash(id)
	}
	if includeTime {
		ts := meta.Timestamp
		commit.Timestamp = &ts
	}

	if branches, err := c.repo.Branches(ctx, id); err != nil {
		logger.Warn("could not resolve branches", "commit", commit.Hash, "error", err)
	} else if len(branches) > 0 {
		commit.Branches = branches
	}

	if files, err := c.repo.Files(ctx, id); err != nil {
		logger.Warn("could not list changed files", "commit", commit.Hash, "error", err)
	} else if len(files) > 0 {
		commit.Files = files
	}

	return commit, nil
}

// NormalizeBody trims trailing whitespace on every line, drops leading and trailing blank
// lines and collapses runs of blank lines into one.
func NormalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	var out []string
	blank := false
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
