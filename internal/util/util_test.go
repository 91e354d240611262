package util

import (
	"path/filepath"
	"testing"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestGetLanguageFromPath(t *testing.T) {
	tests := []struct {
		path string
		want types.Language
	}{
		{"app.py", types.LangPython},
		{"pkg/module.PY", types.LangPython},
		{"index.js", types.LangJavaScript},
		{"component.jsx", types.LangJavaScript},
		{"esm.mjs", types.LangJavaScript},
		{"common.cjs", types.LangJavaScript},
		{"main.go", ""},
		{"file.ts", ""},
		{"README.md", ""},
		{"Makefile", ""},
		{"compiled.pyc", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetLanguageFromPath(tt.path), "GetLanguageFromPath(%q)", tt.path)
	}
}

func TestGetLanguageFromExtension(t *testing.T) {
	assert.Equal(t, types.LangPython, GetLanguageFromExtension(".Py"))
	assert.Equal(t, types.LangJavaScript, GetLanguageFromExtension(".JS"))
	assert.Equal(t, types.Language(""), GetLanguageFromExtension(""))
	assert.Equal(t, types.Language(""), GetLanguageFromExtension(".xyz"))
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("test.py"))
	assert.True(t, IsSupportedFile("web/app.js"))
	assert.False(t, IsSupportedFile("README.md"))
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".cjs", ".js", ".jsx", ".mjs", ".py"}, SupportedExtensions())
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"hello", []string{"hello"}},
		{"hello\nworld", []string{"hello", "world"}},
		{"a\nb\nc\n", []string{"a", "b", "c"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"\n", []string{""}},
		{"\n\n", []string{"", ""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitLines(tt.input), "SplitLines(%q)", tt.input)
	}
}

func TestLineRange(t *testing.T) {
	lines := []string{"line1", "line2", "line3", "line4", "line5"}

	tests := []struct {
		start, end int
		want       string
	}{
		{2, 4, "line2\nline3\nline4"},
		{1, 1, "line1"},
		{5, 5, "line5"},
		{0, 2, "line1\nline2"},  // start < 1 → clamped
		{4, 10, "line4\nline5"}, // end > lines → clamped
		{3, 2, ""},              // start > end
		{1, 5, "line1\nline2\nline3\nline4\nline5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LineRange(lines, tt.start, tt.end), "LineRange(_, %d, %d)", tt.start, tt.end)
	}
}

func TestRelativePath(t *testing.T) {
	base := filepath.Join("home", "user", "project")
	target := filepath.Join(base, "internal", "main.py")
	assert.Equal(t, "internal/main.py", RelativePath(base, target))
}

func TestRelativePathError(t *testing.T) {
	// Rel fails when mixing relative and absolute paths.
	got := RelativePath("relative", "/absolute/path")
	assert.Equal(t, "/absolute/path", got)
}
