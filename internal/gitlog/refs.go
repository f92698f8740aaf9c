package gitlog

import "strings"

// branchFromRef turns a full ref name into a branch name with any remote prefix removed.
// It returns "" for refs that are not branches and for HEAD pointers.
func branchFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	var name string
	switch {
	case strings.HasPrefix(ref, "refs/heads/"):
		name = strings.TrimPrefix(ref, "refs/heads/")
	case strings.HasPrefix(ref, "refs/remotes/"):
		rest := strings.TrimPrefix(ref, "refs/remotes/")
		_, branch, ok := strings.Cut(rest, "/")
		if !ok {
			return ""
		}
		name = branch
	default:
		return ""
	}
	if name == "HEAD" {
		return ""
	}
	return name
}

// branchFromNameRev cleans `git name-rev --name-only` output ("remotes/origin/main~3").
func branchFromNameRev(out string) string {
	name := strings.TrimSpace(out)
	if name == "" || name == "undefined" {
		return ""
	}
	if i := strings.IndexAny(name, "~^"); i >= 0 {
		name = name[:i]
	}
	if strings.HasPrefix(name, "remotes/") {
		_, branch, ok := strings.Cut(strings.TrimPrefix(name, "remotes/"), "/")
		if !ok {
			return ""
		}
		name = branch
	}
	if strings.HasPrefix(name, "tags/") || name == "HEAD" {
		return ""
	}
	return name
}

// lines splits command output into trimmed, non-empty lines.
func lines(out string) []string {
	var result []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
