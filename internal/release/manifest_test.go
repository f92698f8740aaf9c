package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitchangelog/internal/apperr"
)

func TestEditManifest_JSON(t *testing.T) {
	content := "{\n  \"name\": \"demo\",\n  \"version\": \"1.0.0\",\n  \"scripts\": {\n    \"version\": \"echo not-me\"\n  }\n}\n"

	edit, err := EditManifest("package.json", content, "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", edit.OldVersion)
	assert.Equal(t, "{\n  \"name\": \"demo\",\n  \"version\": \"1.1.0\",\n  \"scripts\": {\n    \"version\": \"echo not-me\"\n  }\n}\n", edit.After)
	assert.True(t, edit.Changed())

	_, err = EditManifest("package.json", "{\"name\": \"demo\"}", "1.1.0")
	assert.True(t, apperr.Is(err, apperr.ErrParse))

	_, err = EditManifest("package.json", "{not json", "1.1.0")
	assert.True(t, apperr.Is(err, apperr.ErrParse))
}

func TestEditManifest_YAML(t *testing.T) {
	content := "# chart\nname: demo\nversion: \"1.0.0\" # bumped by release\nappVersion: 1.0.0\ndependencies:\n  - version: 1.0.0\n"

	edit, err := EditManifest("Chart.yaml", content, "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", edit.OldVersion)
	assert.Equal(t, "# chart\nname: demo\nversion: \"2.0.0\" # bumped by release\nappVersion: 1.0.0\ndependencies:\n  - version: 1.0.0\n", edit.After)

	_, err = EditManifest("x.yml", "name: demo\n", "2.0.0")
	assert.True(t, apperr.Is(err, apperr.ErrParse))

	_, err = EditManifest("x.yml", "name: [unclosed\n", "2.0.0")
	assert.True(t, apperr.Is(err, apperr.ErrParse))
}

func TestEditManifest_TOML(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "cargo package",
			content: "[package]\nname = \"demo\"\nversion = \"0.3.1\"\n\n[dependencies]\nserde = { version = \"1.0\" }\n",
			want:    "[package]\nname = \"demo\"\nversion = \"0.4.0\"\n\n[dependencies]\nserde = { version = \"1.0\" }\n",
		},
		{
			name:    "poetry",
			content: "[build-system]\nrequires = [\"poetry\"]\n\n[tool.poetry]\nname = 'demo'\nversion = '0.3.1'\n",
			want:    "[build-system]\nrequires = [\"poetry\"]\n\n[tool.poetry]\nname = 'demo'\nversion = '0.4.0'\n",
		},
		{
			name:    "top level",
			content: "version = \"0.3.1\"\n\n[other]\nversion = \"9.9.9\"\n",
			want:    "version = \"0.4.0\"\n\n[other]\nversion = \"9.9.9\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit, err := EditManifest("pyproject.toml", tt.content, "0.4.0")
			require.NoError(t, err)
			assert.Equal(t, "0.3.1", edit.OldVersion)
			assert.Equal(t, tt.want, edit.After)
		})
	}

	_, err := EditManifest("Cargo.toml", "[package]\nname = \"x\"\n", "1.0.0")
	assert.True(t, apperr.Is(err, apperr.ErrParse))
}

func TestEditManifest_PlainFile(t *testing.T) {
	edit, err := EditManifest("VERSION", "1.0.0\n", "1.0.1")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", edit.OldVersion)
	assert.Equal(t, "1.0.1\n", edit.After)

	edit, err = EditManifest("VERSION", "1.0.1\n", "1.0.1")
	require.NoError(t, err)
	assert.False(t, edit.Changed())
}
