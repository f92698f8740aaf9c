package export

import (
	"bytes"
	"encoding/json"

	"gitchangelog/internal/apperr"
	"gitchangelog/pkg/changelogtypes"
)

// JSON renders the document with two-space indentation and without HTML escaping.
type JSON struct{}

// Render implements Renderer.
func (JSON) Render(doc changelogtypes.Document) (string, error) {
	if doc.Commits == nil {
		doc.Commits = []changelogtypes.Commit{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", apperr.Wrap(apperr.ErrIO, "encode changelog json", err)
	}
	return buf.String(), nil
}
