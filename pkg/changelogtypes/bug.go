package changelogtypes

import (
	"sort"
	"strings"
)

// BugLabel is a canonical defect category parsed from "@bug:<code>" annotations.
type BugLabel string

const (
	BugFunctional  BugLabel = "functional"
	BugLogical     BugLabel = "logical"
	BugWorkflow    BugLabel = "workflow"
	BugUnitTest    BugLabel = "unit-test"
	BugBoundary    BugLabel = "boundary"
	BugSecurity    BugLabel = "security"
	BugPerformance BugLabel = "performance"
)

// bugAliases maps every accepted spelling to its canonical label.
var bugAliases = map[string]BugLabel{
	"fn":          BugFunctional,
	"functional":  BugFunctional,
	"log":         BugLogical,
	"logic":       BugLogical,
	"logical":     BugLogical,
	"flow":        BugWorkflow,
	"workflow":    BugWorkflow,
	"unit":        BugUnitTest,
	"unit-test":   BugUnitTest,
	"bound":       BugBoundary,
	"boundary":    BugBoundary,
	"sec":         BugSecurity,
	"security":    BugSecurity,
	"perf":        BugPerformance,
	"performance": BugPerformance,
}

// ParseBugLabel resolves a long or short alias.
func ParseBugLabel(code string) (BugLabel, bool) {
	label, ok := bugAliases[strings.ToLower(strings.TrimSpace(code))]
	return label, ok
}

// BugAliases returns every accepted alias, sorted.
func BugAliases() []string {
	aliases := make([]string, 0, len(bugAliases))
	for alias := range bugAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}
