package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func createTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "generated/\n*.bak.py\n!keep.bak.py\n")
	writeFile(t, dir, "app.py", "def hello():\n    pass\n")
	writeFile(t, dir, "web/index.js", "function main() {}\n")
	writeFile(t, dir, "README.md", "# readme\n")
	writeFile(t, dir, "node_modules/lib/ignored.js", "function x() {}\n")
	writeFile(t, dir, ".git/hooks/pre-commit.py", "def hook(): pass\n")
	writeFile(t, dir, "__pycache__/app.cpython-312.pyc", "bytecode")
	writeFile(t, dir, "pkg/__pycache__/mod.py", "def cached(): pass\n")
	writeFile(t, dir, ".env", "SECRET=1\n")
	writeFile(t, dir, ".env.local", "SECRET=2\n")
	writeFile(t, dir, "server.log", "log entry\n")
	writeFile(t, dir, "scratch.tmp", "tmp\n")
	writeFile(t, dir, "compiled.pyc", "bytecode")
	writeFile(t, dir, "generated/out.py", "def gen(): pass\n")
	writeFile(t, dir, "old.bak.py", "def old(): pass\n")
	writeFile(t, dir, "keep.bak.py", "def keep(): pass\n")
	writeFile(t, dir, "dist/bundle.js", "function bundled() {}\n")
	writeFile(t, dir, "vendor.min.js", "function m(){}\n")

	// Slightly above the 1 MiB cap.
	writeFile(t, dir, "huge.py", string(make([]byte, 1024*1024+100)))
	return dir
}

func relPaths(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelativePath)
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, int64(1024*1024), cfg.MaxFileSize)
	assert.Contains(t, cfg.ExcludeDirs, ".git")
	assert.Contains(t, cfg.ExcludeDirs, "node_modules")
	assert.Contains(t, cfg.ExcludeDirs, "__pycache__")
	assert.Contains(t, cfg.ExcludeFiles, ".env")
	assert.Contains(t, cfg.ExcludeFiles, "*.pyc")
	assert.True(t, cfg.UseGitignore)
}

func TestLoadRepository(t *testing.T) {
	dir := createTestRepo(t)

	repo, err := LoadRepository(dir, DefaultConfig())
	require.NoError(t, err)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, repo.RootPath)
	assert.Equal(t, filepath.Base(dir), repo.Name)

	// Lexical walk order; only supported source files survive.
	assert.Equal(t, []string{"app.py", "keep.bak.py", "web/index.js"}, relPaths(repo.Files))
}

func TestLoadRepositoryFileInfo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/util.py", "x = 1\n")
	writeFile(t, dir, "src/widget.jsx", "const W = () => null;\n")

	repo, err := LoadRepository(dir, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, repo.Files, 2)

	py := repo.Files[0]
	assert.Equal(t, "src/util.py", py.RelativePath)
	assert.Equal(t, ".py", py.Extension)
	assert.Equal(t, types.LangPython, py.Language)
	assert.Equal(t, int64(6), py.Size)
	assert.Equal(t, filepath.Join(repo.RootPath, "src", "util.py"), py.Path)

	jsx := repo.Files[1]
	assert.Equal(t, ".jsx", jsx.Extension)
	assert.Equal(t, types.LangJavaScript, jsx.Language)
}

func TestLoadRepositoryNonExistent(t *testing.T) {
	_, err := LoadRepository("/nonexistent/path/xyz123", DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootUnavailable))
}

func TestLoadRepositoryNotDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.py", "x = 1\n")

	_, err := LoadRepository(filepath.Join(dir, "file.py"), DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRootUnavailable)
}

func TestLoadRepositoryEmptyDir(t *testing.T) {
	repo, err := LoadRepository(t.TempDir(), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, repo.Files)
}

func TestLoadRepositoryMaxFileSizeDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.py", string(make([]byte, 2048)))

	cfg := DefaultConfig()
	cfg.MaxFileSize = 1024
	repo, err := LoadRepository(dir, cfg)
	require.NoError(t, err)
	assert.Empty(t, repo.Files)

	cfg.MaxFileSize = 0
	repo, err = LoadRepository(dir, cfg)
	require.NoError(t, err)
	assert.Len(t, repo.Files, 1)
}

func TestLoadRepositoryWithoutGitignore(t *testing.T) {
	dir := createTestRepo(t)

	cfg := DefaultConfig()
	cfg.UseGitignore = false
	repo, err := LoadRepository(dir, cfg)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"app.py", "generated/out.py", "keep.bak.py", "old.bak.py", "web/index.js"},
		relPaths(repo.Files))
}

func TestLoadRepositoryUnreadableSubdir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, "ok.py", "def ok(): pass\n")
	writeFile(t, dir, "locked/hidden.py", "def hidden(): pass\n")
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Chmod(locked, 0000))
	defer os.Chmod(locked, 0755)

	repo, err := LoadRepository(dir, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.py"}, relPaths(repo.Files))
}

func TestListFiles(t *testing.T) {
	dir := createTestRepo(t)

	files, err := ListFiles(dir, DefaultConfig())
	require.NoError(t, err)

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{".gitignore", "README.md", "app.py", "keep.bak.py", "web/index.js"}, paths)

	for _, f := range files {
		if f.Path == "README.md" {
			assert.Equal(t, ".md", f.Extension)
			assert.Equal(t, int64(9), f.Size)
		}
	}
}

func TestListFilesMissingRoot(t *testing.T) {
	_, err := ListFiles(filepath.Join(t.TempDir(), "missing"), DefaultConfig())
	assert.ErrorIs(t, err, ErrRootUnavailable)
}
