package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// CatalogCache persists built catalogs to disk, one gob file per scanned
// root.
type CatalogCache struct {
	Dir string
}

// New creates a cache rooted at dir.
func New(dir string) *CatalogCache {
	return &CatalogCache{Dir: dir}
}

// Snapshot is the serialized form of one catalog build.
type Snapshot struct {
	Root      string
	Name      string
	BuiltAt   time.Time
	FileCount int
	Elements  []types.CodeElement
	Files     []types.FileEntry
}

// Key derives the cache key of an absolute root path. The base name keeps
// the file recognisable; the digest separates equal base names.
func Key(root string) string {
	sum := sha256.Sum256([]byte(root))
	return filepath.Base(root) + "-" + hex.EncodeToString(sum[:4])
}

// Save writes snap under its root's key. The file is replaced atomically.
func (c *CatalogCache) Save(snap *Snapshot) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	path := c.path(Key(snap.Root))
	tmp, err := os.CreateTemp(c.Dir, ".catalog-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit cache: %w", err)
	}
	return nil
}

// Load reads the snapshot stored for root.
func (c *CatalogCache) Load(root string) (*Snapshot, error) {
	f, err := os.Open(c.path(Key(root)))
	if err != nil {
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	return &snap, nil
}

// Exists reports whether a snapshot is stored for root.
func (c *CatalogCache) Exists(root string) bool {
	_, err := os.Stat(c.path(Key(root)))
	return err == nil
}

// Delete removes the snapshot stored for root.
func (c *CatalogCache) Delete(root string) error {
	return os.Remove(c.path(Key(root)))
}

func (c *CatalogCache) path(key string) string {
	return filepath.Join(c.Dir, key+".gob")
}
