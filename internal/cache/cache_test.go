package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

func TestCacheSaveAndLoad(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache"))
	root := "/work/project"

	snap := &Snapshot{
		Root:      root,
		Name:      "project",
		BuiltAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		FileCount: 2,
		Elements: []types.CodeElement{
			{Type: types.KindFunction, Name: "foo", FilePath: "a.py", StartLine: 1, EndLine: 3, Language: types.LangPython},
			{Type: types.KindClass, Name: "Bar", FilePath: "a.py", StartLine: 5, EndLine: 9, Docstring: "Bar things.", Language: types.LangPython},
		},
		Files: []types.FileEntry{{Path: "a.py", Size: 120, Extension: ".py"}},
	}

	require.False(t, c.Exists(root))
	require.NoError(t, c.Save(snap))
	assert.True(t, c.Exists(root))

	loaded, err := c.Load(root)
	require.NoError(t, err)
	assert.Equal(t, snap.Elements, loaded.Elements)
	assert.Equal(t, snap.Files, loaded.Files)
	assert.Equal(t, 2, loaded.FileCount)
	assert.True(t, snap.BuiltAt.Equal(loaded.BuiltAt))

	require.NoError(t, c.Delete(root))
	assert.False(t, c.Exists(root))
}

func TestCacheOverwrite(t *testing.T) {
	c := New(t.TempDir())
	root := "/work/project"

	require.NoError(t, c.Save(&Snapshot{Root: root, FileCount: 1}))
	require.NoError(t, c.Save(&Snapshot{Root: root, FileCount: 7}))

	loaded, err := c.Load(root)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.FileCount)

	entries, err := os.ReadDir(c.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCacheLoadMissing(t *testing.T) {
	_, err := New(t.TempDir()).Load("/nope")
	assert.Error(t, err)
}

func TestCacheLoadCorrupt(t *testing.T) {
	c := New(t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir, Key("/bad")+".gob"), []byte("not gob"), 0o644))

	_, err := c.Load("/bad")
	assert.ErrorContains(t, err, "decode cache")
}

func TestKeySeparatesEqualBaseNames(t *testing.T) {
	a, b := Key("/one/app"), Key("/two/app")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^app-[0-9a-f]{8}$`, a)
	assert.Equal(t, a, Key("/one/app"))
}
