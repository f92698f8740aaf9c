// Package viewer loads changelog JSON exports, merges them by commit hash and offers
// filtering, search, editing and re-export over the merged set.
package viewer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/export"
	"gitchangelog/pkg/changelogtypes"
)

// Editable fields accepted by Edit.
const (
	FieldSubject   = "subject"
	FieldBody      = "body"
	FieldAuthor    = "author"
	FieldType      = "type"
	FieldComponent = "component"
	FieldDate      = "date"
)

// Fields lists the editable fields.
var Fields = []string{FieldSubject, FieldBody, FieldAuthor, FieldType, FieldComponent, FieldDate}

// Load reads and parses each path as a changelog document.
func Load(paths ...string) ([]changelogtypes.Document, error) {
	docs := make([]changelogtypes.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrIO, "read "+path, err)
		}
		doc, err := Parse(path, data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Parse decodes one document. name is used in error messages.
func Parse(name string, data []byte) (changelogtypes.Document, error) {
	var doc changelogtypes.Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return doc, apperr.Wrap(apperr.ErrParse, fmt.Sprintf("%s is not a valid changelog document", name), err)
	}
	for i, c := range doc.Commits {
		if strings.TrimSpace(c.Hash) == "" {
			return doc, apperr.Newf(apperr.ErrParse, "%s: commit %d has no commit_hash", name, i)
		}
	}
	return doc, nil
}

// Merge combines documents by commit hash. The first occurrence of a hash keeps its
// scalar fields; branches, files and bug labels are unioned. The result is ordered
// newest first, and ties keep their input order.
func Merge(docs ...changelogtypes.Document) []changelogtypes.Commit {
	index := make(map[string]int)
	var merged []changelogtypes.Commit
	for _, doc := range docs {
		for _, c := range doc.Commits {
			if i, ok := index[c.Hash]; ok {
				merged[i].Branches = union(merged[i].Branches, c.Branches)
				merged[i].Files = union(merged[i].Files, c.Files)
				merged[i].Bugs = unionBugs(merged[i].Bugs, c.Bugs)
				continue
			}
			index[c.Hash] = len(merged)
			c.Branches = union(nil, c.Branches)
			c.Files = union(nil, c.Files)
			c.Bugs = unionBugs(nil, c.Bugs)
			merged = append(merged, c)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return newer(merged[i], merged[j]) })
	return merged
}

// newer orders by day first. Times only break ties when both commits carry one, so
// exports made with and without --include-time interleave by day.
func newer(a, b changelogtypes.Commit) bool {
	if a.Timestamp != nil && b.Timestamp != nil {
		return *a.Timestamp > *b.Timestamp
	}
	dayA, dayB := day(a.Date), day(b.Date)
	if dayA != dayB {
		return dayA > dayB
	}
	if len(a.Date) > len(dayA) && len(b.Date) > len(dayB) {
		return a.Date > b.Date
	}
	return false
}

func day(date string) string {
	if len(date) > len("2006-01-02") {
		return date[:len("2006-01-02")]
	}
	return date
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func unionBugs(a, b []changelogtypes.BugLabel) []changelogtypes.BugLabel {
	var all []string
	for _, l := range append(append([]changelogtypes.BugLabel{}, a...), b...) {
		all = append(all, string(l))
	}
	var out []changelogtypes.BugLabel
	for _, s := range union(nil, all) {
		out = append(out, changelogtypes.BugLabel(s))
	}
	return out
}

// Viewer holds a merged commit set that can be filtered and edited.
type Viewer struct {
	title   string
	commits []changelogtypes.Commit
	dirty   bool
}

// New merges docs into a Viewer. The title comes from the first document.
func New(docs ...changelogtypes.Document) *Viewer {
	title := "Changelog"
	if len(docs) > 0 && docs[0].Title != "" {
		title = docs[0].Title
	}
	return &Viewer{title: title, commits: Merge(docs...)}
}

// Title returns the document title.
func (v *Viewer) Title() string { return v.title }

// Commits returns the current commit set.
func (v *Viewer) Commits() []changelogtypes.Commit { return v.commits }

// Dirty reports whether the set was edited since creation or the last MarkSaved.
func (v *Viewer) Dirty() bool { return v.dirty }

// MarkSaved clears the dirty flag.
func (v *Viewer) MarkSaved() { v.dirty = false }

// Find locates a commit by full hash or unique hash prefix.
func (v *Viewer) Find(hash string) (int, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return -1, apperr.New(apperr.ErrInvalidInput, "commit hash required")
	}
	found := -1
	for i, c := range v.commits {
		if c.Hash == hash {
			return i, nil
		}
		if strings.HasPrefix(c.Hash, hash) {
			if found >= 0 {
				return -1, apperr.Newf(apperr.ErrInvalidInput, "hash prefix %q is ambiguous", hash)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, apperr.Newf(apperr.ErrNotFound, "no commit with hash %q", hash)
	}
	return found, nil
}

// Get returns a copy of the commit with hash.
func (v *Viewer) Get(hash string) (changelogtypes.Commit, error) {
	i, err := v.Find(hash)
	if err != nil {
		return changelogtypes.Commit{}, err
	}
	return v.commits[i], nil
}

// Filter returns the commits matching f.
func (v *Viewer) Filter(f Filter) []changelogtypes.Commit {
	var out []changelogtypes.Commit
	for _, c := range v.commits {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Search is Filter with only a free-text query.
func (v *Viewer) Search(query string) []changelogtypes.Commit {
	return v.Filter(Filter{Query: query})
}

// Edit changes one field of a commit.
func (v *Viewer) Edit(hash, field, value string) error {
	i, err := v.Find(hash)
	if err != nil {
		return err
	}
	c := &v.commits[i]
	switch strings.ToLower(field) {
	case FieldSubject:
		if strings.TrimSpace(value) == "" {
			return apperr.New(apperr.ErrInvalidInput, "subject cannot be empty")
		}
		c.Subject = value
		c.RawSubject = ""
	case FieldBody:
		c.Body = value
	case FieldAuthor:
		c.Author = value
	case FieldType:
		category, ok := changelogtypes.ParseCategory(value)
		if !ok {
			return apperr.Newf(apperr.ErrInvalidInput, "unknown type %q", value)
		}
		c.Type = category
	case FieldComponent:
		c.Component = value
	case FieldDate:
		c.Date = value
	default:
		return apperr.Newf(apperr.ErrInvalidInput, "unknown field %q (editable: %s)", field, strings.Join(Fields, ", "))
	}
	v.dirty = true
	return nil
}

// Delete removes a commit.
func (v *Viewer) Delete(hash string) error {
	i, err := v.Find(hash)
	if err != nil {
		return err
	}
	v.commits = append(v.commits[:i], v.commits[i+1:]...)
	v.dirty = true
	return nil
}

// Stats counts commits by type and by author.
func (v *Viewer) Stats() changelogtypes.Stats {
	return ComputeStats(v.commits)
}

// ComputeStats counts commits by type and by author.
func ComputeStats(commits []changelogtypes.Commit) changelogtypes.Stats {
	stats := changelogtypes.Stats{
		TotalCommits: len(commits),
		TypeCounts:   make(map[changelogtypes.Category]int),
		AuthorCounts: make(map[string]int),
	}
	for _, c := range commits {
		stats.TypeCounts[c.Type]++
		stats.AuthorCounts[c.Author]++
	}
	return stats
}

// Document re-exports the current set. An empty title keeps the merged title.
func (v *Viewer) Document(title string, now time.Time) changelogtypes.Document {
	if title == "" {
		title = v.title
	}
	commits := make([]changelogtypes.Commit, len(v.commits))
	copy(commits, v.commits)
	return export.NewDocument(title, commits, now)
}
