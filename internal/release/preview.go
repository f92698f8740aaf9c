package release

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is how many unchanged lines surround each change in a preview.
const contextLines = 2

// Preview is the dry-run description of one skipped mutation.
type Preview struct {
	Step string
	Path string
	Diff string
}

// LineDiff renders a line-oriented diff of before and after with +/- markers and
// collapsed unchanged runs. It returns "" when the texts are equal.
func LineDiff(path, before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	type line struct {
		op   diffmatchpatch.Operation
		text string
	}
	var all []line
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, l := range strings.Split(text, "\n") {
			all = append(all, line{op: d.Type, text: l})
		}
	}

	keep := make([]bool, len(all))
	for i, l := range all {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		for j := i - contextLines; j <= i+contextLines; j++ {
			if j >= 0 && j < len(all) {
				keep[j] = true
			}
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\n+++ %s (planned)\n", path, path)
	skipped := false
	for i, l := range all {
		if !keep[i] {
			if !skipped {
				out.WriteString("@@\n")
				skipped = true
			}
			continue
		}
		skipped = false
		switch l.op {
		case diffmatchpatch.DiffInsert:
			out.WriteString("+" + l.text + "\n")
		case diffmatchpatch.DiffDelete:
			out.WriteString("-" + l.text + "\n")
		default:
			out.WriteString(" " + l.text + "\n")
		}
	}
	return out.String()
}
