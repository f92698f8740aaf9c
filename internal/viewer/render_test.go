package viewer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitchangelog/pkg/changelogtypes"
)

func TestRender_Plain(t *testing.T) {
	v := newViewer(t)
	doc := v.Document("", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	out, err := Render(doc, RenderOptions{Plain: true})
	require.NoError(t, err)
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "Changelog")
	assert.Contains(t, out, "handle nil user")
	assert.Contains(t, out, "Bug Fixes")
}

func TestRender_EmptySet(t *testing.T) {
	doc := changelogtypes.Document{Title: "Nothing"}
	out, err := Render(doc, RenderOptions{Plain: true})
	require.NoError(t, err)
	assert.Contains(t, out, "No commits match.")
}

func TestRender_UnknownStyleFallsBack(t *testing.T) {
	doc := newViewer(t).Document("", time.Now())
	out, err := Render(doc, RenderOptions{Style: "/does/not/exist.json", Plain: true})
	require.NoError(t, err)
	assert.Contains(t, out, "handle nil user")
}

func TestDetail(t *testing.T) {
	c, err := newViewer(t).Get("b2b2b2b")
	require.NoError(t, err)

	out := Detail(c)
	assert.Contains(t, out, "hash:      b2b2b2b\n")
	assert.Contains(t, out, "component: api\n")
	assert.Contains(t, out, "branches:  main, release\n")
	assert.Contains(t, out, "bug:       security\n")
	assert.Contains(t, out, "  api_test.go\n")
	assert.True(t, strings.HasSuffix(out, "\nAdds GET /users.\n"))
}

func TestFormatStats(t *testing.T) {
	out := FormatStats(newViewer(t).Stats())
	assert.Contains(t, out, "Total commits: 4\n")
	assert.Less(t, strings.Index(out, "feature"), strings.Index(out, "chore"))
	assert.Less(t, strings.Index(out, "Ben"), strings.Index(out, "Ana"))
}
