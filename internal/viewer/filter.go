package viewer

import (
	"strings"

	"gitchangelog/pkg/changelogtypes"
)

// Filter selects commits. Empty fields match everything; all set fields must match.
type Filter struct {
	Types     []changelogtypes.Category
	Authors   []string
	Branch    string
	Bug       changelogtypes.BugLabel
	Component string
	Query     string
}

// Empty reports whether the filter matches every commit.
func (f Filter) Empty() bool {
	return len(f.Types) == 0 && len(f.Authors) == 0 && f.Branch == "" && f.Bug == "" && f.Component == "" && f.Query == ""
}

// Match reports whether c satisfies every set criterion. Author, component and query
// comparisons are case-insensitive.
func (f Filter) Match(c changelogtypes.Commit) bool {
	if len(f.Types) > 0 && !containsCategory(f.Types, c.Type) {
		return false
	}
	if len(f.Authors) > 0 && !containsFold(f.Authors, c.Author) {
		return false
	}
	if f.Branch != "" && !containsString(c.Branches, f.Branch) {
		return false
	}
	if f.Bug != "" && !containsBug(c.Bugs, f.Bug) {
		return false
	}
	if f.Component != "" && !strings.EqualFold(f.Component, c.Component) {
		return false
	}
	if f.Query != "" && !matchesQuery(c, f.Query) {
		return false
	}
	return true
}

func matchesQuery(c changelogtypes.Commit, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	fields := []string{c.Hash, c.Subject, c.Body, c.Author, c.Component}
	fields = append(fields, c.Files...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func containsCategory(list []changelogtypes.Category, c changelogtypes.Category) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func containsBug(list []changelogtypes.BugLabel, label changelogtypes.BugLabel) bool {
	for _, item := range list {
		if item == label {
			return true
		}
	}
	return false
}
