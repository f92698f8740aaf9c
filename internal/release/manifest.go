package release

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"gitchangelog/internal/apperr"
)

// ManifestEdit is the planned rewrite of one manifest.
type ManifestEdit struct {
	Path       string
	OldVersion string
	NewVersion string
	Before     string
	After      string
}

// Changed reports whether the edit alters the file.
func (e ManifestEdit) Changed() bool {
	return e.Before != e.After
}

// EditManifest rewrites the version field of a manifest, leaving every other byte alone.
// The editor is picked by extension; unknown extensions are treated as a bare version file.
func EditManifest(path, content, version string) (ManifestEdit, error) {
	edit := ManifestEdit{Path: path, NewVersion: version, Before: content}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		edit.OldVersion, edit.After, err = editJSON(content, version)
	case ".yaml", ".yml":
		edit.OldVersion, edit.After, err = editYAML(content, version)
	case ".toml":
		edit.OldVersion, edit.After, err = editTOML(content, version)
	default:
		edit.OldVersion = strings.TrimSpace(content)
		edit.After = version + "\n"
	}
	return edit, err
}

func missingVersion(format string) error {
	return apperr.Newf(apperr.ErrParse, "%s manifest has no version field", format)
}

func editJSON(content, version string) (string, string, error) {
	if !gjson.Valid(content) {
		return "", "", apperr.New(apperr.ErrParse, "manifest is not valid JSON")
	}
	old := gjson.Get(content, "version")
	if !old.Exists() {
		return "", "", missingVersion("JSON")
	}
	updated, err := sjson.Set(content, "version", version)
	if err != nil {
		return "", "", apperr.Wrap(apperr.ErrParse, "set JSON version", err)
	}
	return old.String(), updated, nil
}

func editYAML(content, version string) (string, string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return "", "", apperr.Wrap(apperr.ErrParse, "parse YAML manifest", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return "", "", missingVersion("YAML")
	}

	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Value != "version" || value.Kind != yaml.ScalarNode {
			continue
		}
		updated, err := replaceOnLine(content, value.Line, value.Column-1, value.Value, version)
		if err != nil {
			return "", "", err
		}
		return value.Value, updated, nil
	}
	return "", "", missingVersion("YAML")
}

var (
	tomlTable   = regexp.MustCompile(`^\s*\[\s*([^\]]+?)\s*\]\s*(#.*)?$`)
	tomlVersion = regexp.MustCompile(`^(\s*version\s*=\s*)(["'])([^"']*)(["'])`)
)

// tomlTables are searched in order for a version key; "" is the top level.
var tomlTables = []string{"package", "project", "tool.poetry", ""}

func editTOML(content, version string) (string, string, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal([]byte(content), &doc); err != nil {
		return "", "", apperr.Wrap(apperr.ErrParse, "parse TOML manifest", err)
	}

	for _, table := range tomlTables {
		old, ok := tomlLookup(doc, table)
		if !ok {
			continue
		}
		updated, found := replaceTOMLVersion(content, table, version)
		if !found {
			// Inline or dotted definitions are not rewritten.
			return "", "", apperr.Newf(apperr.ErrParse, "cannot locate version line in [%s]", table)
		}
		return old, updated, nil
	}
	return "", "", missingVersion("TOML")
}

func tomlLookup(doc map[string]interface{}, table string) (string, bool) {
	current := doc
	if table != "" {
		for _, part := range strings.Split(table, ".") {
			next, ok := current[part].(map[string]interface{})
			if !ok {
				return "", false
			}
			current = next
		}
	}
	v, ok := current["version"].(string)
	return v, ok
}

func replaceTOMLVersion(content, table, version string) (string, bool) {
	lines := strings.SplitAfter(content, "\n")
	currentTable := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[[") {
			currentTable = trimmed
			continue
		}
		if m := tomlTable.FindStringSubmatch(line); m != nil {
			currentTable = m[1]
			continue
		}
		if currentTable != table {
			continue
		}
		if m := tomlVersion.FindStringSubmatchIndex(line); m != nil {
			lines[i] = line[:m[6]] + version + line[m[7]:]
			return strings.Join(lines, ""), true
		}
	}
	return content, false
}

// replaceOnLine substitutes the first occurrence of old at or after column col on the
// 1-based line.
func replaceOnLine(content string, line, col int, old, replacement string) (string, error) {
	lines := strings.SplitAfter(content, "\n")
	if line < 1 || line > len(lines) {
		return "", apperr.Newf(apperr.ErrParse, "version line %d out of range", line)
	}
	text := lines[line-1]
	if col < 0 || col > len(text) {
		col = 0
	}
	idx := strings.Index(text[col:], old)
	if idx < 0 {
		return "", apperr.New(apperr.ErrParse, fmt.Sprintf("version %q not found on line %d", old, line))
	}
	idx += col
	lines[line-1] = text[:idx] + replacement + text[idx+len(old):]
	return strings.Join(lines, ""), nil
}
