package gitlog

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"gitchangelog/internal/apperr"
)

var relativeDate = regexp.MustCompile(`^(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago$`)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate resolves the subset of git date expressions the native backend understands.
// Absolute dates without a zone are read in now's location.
func ParseDate(expr string, now time.Time) (time.Time, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return time.Time{}, apperr.New(apperr.ErrInvalidInput, "empty date expression")
	}

	switch expr {
	case "now":
		return now, nil
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}

	if m := relativeDate.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, apperr.Wrap(apperr.ErrInvalidInput, "parse date "+expr, err)
		}
		switch m[2] {
		case "second":
			return now.Add(-time.Duration(n) * time.Second), nil
		case "minute":
			return now.Add(-time.Duration(n) * time.Minute), nil
		case "hour":
			return now.Add(-time.Duration(n) * time.Hour), nil
		case "day":
			return now.AddDate(0, 0, -n), nil
		case "week":
			return now.AddDate(0, 0, -7*n), nil
		case "month":
			return now.AddDate(0, -n, 0), nil
		default:
			return now.AddDate(-n, 0, 0), nil
		}
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, strings.ToUpper(expr), now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Newf(apperr.ErrInvalidInput, "unsupported date expression %q", expr)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
