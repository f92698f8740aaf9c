// Package classify assigns a changelog category, an optional component and a cleaned
// subject to a commit, and extracts @bug annotations from its message.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"gitchangelog/pkg/changelogtypes"
)

var (
	scopedPrefix = regexp.MustCompile(`^(\w+)\(([^)]*)\)!?:\s*(.*)$`)
	plainPrefix  = regexp.MustCompile(`^(\w+)!?:\s*(.*)$`)
)

// Result is the output of Classify.
type Result struct {
	Type         changelogtypes.Category
	Component    string
	CleanSubject string
	Bugs         []changelogtypes.BugLabel
}

// Parsed is the subject split into its conventional-commit parts.
type Parsed struct {
	Subject      string
	Keyword      string
	Component    string
	CleanSubject string
}

// Rule maps a predicate over the parsed subject onto a category.
type Rule struct {
	Name     string
	Match    func(Parsed) bool
	Category changelogtypes.Category
}

// Rules is evaluated top to bottom; the first match wins.
var Rules = []Rule{
	{Name: "feat", Match: prefixed("feat"), Category: changelogtypes.CategoryFeature},
	{Name: "fix", Match: anyOf(prefixed("fix"), contains("bug", "patch")), Category: changelogtypes.CategoryFix},
	{Name: "docs", Match: prefixed("doc", "docs"), Category: changelogtypes.CategoryDocs},
	{Name: "style", Match: prefixed("style"), Category: changelogtypes.CategoryStyle},
	{Name: "refactor", Match: prefixed("refactor"), Category: changelogtypes.CategoryRefactor},
	{Name: "perf", Match: prefixed("perf"), Category: changelogtypes.CategoryPerformance},
	{Name: "test", Match: prefixed("test"), Category: changelogtypes.CategoryTest},
	{Name: "chore", Match: prefixed("chore"), Category: changelogtypes.CategoryChore},
}

// Parse splits a subject line into keyword, scope and text.
func Parse(subject string) Parsed {
	subject = strings.TrimSpace(subject)
	p := Parsed{Subject: subject, CleanSubject: subject}

	if m := scopedPrefix.FindStringSubmatch(subject); m != nil {
		p.Keyword = strings.ToLower(m[1])
		p.Component = strings.TrimSpace(m[2])
		p.CleanSubject = strings.TrimSpace(m[3])
		return p
	}
	if m := plainPrefix.FindStringSubmatch(subject); m != nil {
		p.Keyword = strings.ToLower(m[1])
		p.CleanSubject = strings.TrimSpace(m[2])
	}
	return p
}

// Category runs the rule table over a parsed subject.
func Category(p Parsed) changelogtypes.Category {
	for _, rule := range Rules {
		if rule.Match(p) {
			return rule.Category
		}
	}
	return changelogtypes.CategoryOther
}

// Classify parses the subject, picks a category and extracts bug tags from subject and body.
func Classify(subject, body string) Result {
	p := Parse(subject)
	return Result{
		Type:         Category(p),
		Component:    p.Component,
		CleanSubject: p.CleanSubject,
		Bugs:         ExtractBugs(subject + "\n" + body),
	}
}

var bugTag = regexp.MustCompile(`(?i)@bug:([a-z][a-z-]*)`)

// ExtractBugs finds @bug:<code> annotations, resolves aliases, and returns the unique
// canonical labels sorted. Unknown codes are ignored.
func ExtractBugs(text string) []changelogtypes.BugLabel {
	seen := make(map[changelogtypes.BugLabel]bool)
	for _, m := range bugTag.FindAllStringSubmatch(text, -1) {
		if label, ok := changelogtypes.ParseBugLabel(m[1]); ok {
			seen[label] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}

	labels := make([]changelogtypes.BugLabel, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// prefixed matches when the subject starts with one of the keywords immediately followed
// by ':' or '(' (case-insensitive).
func prefixed(keywords ...string) func(Parsed) bool {
	return func(p Parsed) bool {
		lower := strings.ToLower(p.Subject)
		for _, kw := range keywords {
			if !strings.HasPrefix(lower, kw) {
				continue
			}
			rest := lower[len(kw):]
			rest = strings.TrimPrefix(rest, "!")
			if strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, "(") {
				return true
			}
		}
		return false
	}
}

// contains matches a case-insensitive substring anywhere in the subject.
func contains(needles ...string) func(Parsed) bool {
	return func(p Parsed) bool {
		lower := strings.ToLower(p.Subject)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
		return false
	}
}

func anyOf(preds ...func(Parsed) bool) func(Parsed) bool {
	return func(p Parsed) bool {
		for _, pred := range preds {
			if pred(p) {
				return true
			}
		}
		return false
	}
}
