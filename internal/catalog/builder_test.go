package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duyhunghd6/repo-analyzer/internal/loader"
	"github.com/duyhunghd6/repo-analyzer/internal/parser"
	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

const appPy = `"""Application entry."""
import os


class Service:
    """Runs jobs."""

    def start(self):
        return True


def _hidden():
    pass


def main():
    Service().start()
`

const indexJS = `export function render(root) {
  root.innerHTML = '';
}

const mount = (el) => render(el);
`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func createFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"app.py":                   appPy,
		"web/index.js":             indexJS,
		"notes.py":                 "x = 1\ny = 2\n",
		"empty.py":                 "",
		"README.md":                "def not_code():\n",
		"node_modules/lib/index.js": "function vendored() {}\n",
	})
	return root
}

func summarize(elems []types.CodeElement) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = fmt.Sprintf("%s:%s:%s:%d-%d", e.FilePath, e.Type, e.Name, e.StartLine, e.EndLine)
	}
	return out
}

func TestBuildCatalog(t *testing.T) {
	root := createFixture(t)

	elems, err := BuildCatalog(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app.py:class:Service:5-9",
		"app.py:function:start:8-17",
		"app.py:function:main:16-17",
		"web/index.js:function:render:1-5",
		"web/index.js:function:mount:5-5",
	}, summarize(elems))

	assert.Equal(t, "Runs jobs.", elems[0].Docstring)
	assert.Equal(t, types.LangPython, elems[0].Language)
	assert.Equal(t, types.LangJavaScript, elems[3].Language)
	assert.Equal(t, "const mount = (el) => render(el);", elems[4].Code)
}

func TestBuildCatalogLineBounds(t *testing.T) {
	root := createFixture(t)
	elems, err := BuildCatalog(root)
	require.NoError(t, err)

	for _, e := range elems {
		lines, err := loader.ReadLines(filepath.Join(root, filepath.FromSlash(e.FilePath)))
		require.NoError(t, err)

		assert.GreaterOrEqual(t, e.StartLine, 1, e.Name)
		assert.LessOrEqual(t, e.StartLine, e.EndLine, e.Name)
		assert.LessOrEqual(t, e.EndLine, len(lines), e.Name)
		if e.Language == types.LangPython {
			assert.False(t, strings.HasPrefix(e.Name, "_"), e.Name)
		}
	}
}

func TestBuildCatalogNoSpuriousEntries(t *testing.T) {
	root := createFixture(t)
	elems, err := BuildCatalog(root)
	require.NoError(t, err)

	for _, e := range elems {
		assert.NotEqual(t, "notes.py", e.FilePath)
		assert.NotEqual(t, "empty.py", e.FilePath)
		assert.NotEqual(t, "README.md", e.FilePath)
		assert.NotContains(t, e.FilePath, "node_modules")
	}
}

func TestBuildCatalogIdempotent(t *testing.T) {
	root := createFixture(t)

	first, err := BuildCatalog(root)
	require.NoError(t, err)
	second, err := BuildCatalog(root)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestBuildCatalogRootUnavailable(t *testing.T) {
	_, err := BuildCatalog(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, loader.ErrRootUnavailable))

	file := filepath.Join(t.TempDir(), "file.py")
	require.NoError(t, os.WriteFile(file, []byte("def f():\n"), 0o644))
	_, err = BuildCatalog(file)
	assert.ErrorIs(t, err, loader.ErrRootUnavailable)
}

func TestBuildCatalogEmptyTree(t *testing.T) {
	elems, err := BuildCatalog(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, elems)
	assert.Empty(t, elems)
}

func TestBuildSkipsUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := createFixture(t)
	locked := filepath.Join(root, "locked.py")
	require.NoError(t, os.WriteFile(locked, []byte("def secret():\n    pass\n"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o644) })

	res, err := NewBuilder(loader.DefaultConfig(), parser.New()).Build(root)
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "locked.py", res.Failures[0].Path)
	assert.Len(t, res.Elements, 5)
	assert.Equal(t, 5, res.FileCount)
}

func TestBuildDecodesLeniently(t *testing.T) {
	root := t.TempDir()
	content := "\xef\xbb\xbfdef first():\r\n    \"\"\"Caf\xff\xfe docs.\"\"\"\r\n    pass\r\n"
	writeFiles(t, root, map[string]string{"legacy.py": content})

	elems, err := BuildCatalog(root)
	require.NoError(t, err)
	require.Len(t, elems, 1)
	assert.Equal(t, "first", elems[0].Name)
	assert.Equal(t, "Caf docs.", elems[0].Docstring)
	assert.Equal(t, 3, elems[0].EndLine)
	assert.NotContains(t, elems[0].Code, "\r")
}

type recordingReporter struct {
	total  int
	files  []string
	counts []int
	done   int
}

func (r *recordingReporter) OnStart(total int) { r.total = total }
func (r *recordingReporter) OnFile(path string, n int) {
	r.files = append(r.files, path)
	r.counts = append(r.counts, n)
}
func (r *recordingReporter) OnDone(total int) { r.done = total }

func TestBuildReporter(t *testing.T) {
	root := createFixture(t)
	rep := &recordingReporter{}

	b := NewBuilder(loader.DefaultConfig(), nil)
	b.Reporter = rep
	res, err := b.Build(root)
	require.NoError(t, err)

	assert.Equal(t, 4, rep.total)
	assert.Equal(t, []string{"app.py", "empty.py", "notes.py", "web/index.js"}, rep.files)
	assert.Equal(t, []int{3, 0, 0, 2}, rep.counts)
	assert.Equal(t, 5, rep.done)
	assert.Equal(t, filepath.Base(root), res.Name)
}

func TestElementJSONShape(t *testing.T) {
	data, err := json.Marshal(types.CodeElement{
		Type: types.KindFunction, Name: "f", FilePath: "a.py",
		StartLine: 1, EndLine: 2, Code: "def f():", Language: types.LangPython,
	})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		"type", "name", "file_path", "start_line", "end_line", "code", "docstring", "language",
	}, keys)
	assert.Equal(t, "function", fields["type"])
}
