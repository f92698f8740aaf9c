package changelogtypes

// Commit is one enriched, classified git commit.
type Commit struct {
	Type       Category   `json:"type"`
	Component  string     `json:"component,omitempty"`
	Subject    string     `json:"commit_log"`
	Hash       string     `json:"commit_hash"`
	Date       string     `json:"date"`
	Timestamp  *int64     `json:"timestamp,omitempty"`
	Author     string     `json:"author"`
	Branches   []string   `json:"branches,omitempty"`
	Files      []string   `json:"files,omitempty"`
	Bugs       []BugLabel `json:"bug,omitempty"`
	Body       string     `json:"body,omitempty"`
	RawSubject string     `json:"-"`
}

// DisplaySubject returns "component: subject" or just the subject.
func (c Commit) DisplaySubject() string {
	if c.Component == "" {
		return c.Subject
	}
	return c.Component + ": " + c.Subject
}

// OriginalSubject returns the subject as written in the commit, falling back to the
// display form for records loaded from JSON.
func (c Commit) OriginalSubject() string {
	if c.RawSubject != "" {
		return c.RawSubject
	}
	return c.DisplaySubject()
}

// Document is the exported changelog artifact.
type Document struct {
	Title       string   `json:"title"`
	GeneratedOn string   `json:"generated_on"`
	Commits     []Commit `json:"commits"`
}

// GeneratedOnLayout is the time layout of Document.GeneratedOn.
const GeneratedOnLayout = "2006-01-02 15:04:05"

// Stats summarizes a commit set.
type Stats struct {
	TotalCommits int              `json:"total_commits"`
	TypeCounts   map[Category]int `json:"type_counts"`
	AuthorCounts map[string]int   `json:"author_counts"`
}
