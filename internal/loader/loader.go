package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
	"github.com/duyhunghd6/repo-analyzer/internal/util"
)

// ErrRootUnavailable is returned when the repository root is missing,
// unreadable or not a directory. It is the only walker failure that
// aborts a catalog build.
var ErrRootUnavailable = errors.New("repository root unavailable")

// FileInfo represents a source file selected for scanning.
type FileInfo struct {
	Path         string         `json:"path"`
	RelativePath string         `json:"relative_path"`
	Extension    string         `json:"extension"`
	Language     types.Language `json:"language"`
	Size         int64          `json:"size"`
}

// Config holds loader configuration.
type Config struct {
	MaxFileSize  int64    // Maximum file size in bytes (default: 1MiB)
	ExcludeDirs  []string // Directory names to skip at any depth
	ExcludeFiles []string // Glob patterns matched against file base names
	UseGitignore bool     // Honour the root .gitignore
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{
		MaxFileSize: 1024 * 1024,
		ExcludeDirs: []string{
			".git", ".hg", ".svn",
			"node_modules", "__pycache__",
			"dist", "build",
			".venv", "venv", ".tox", ".mypy_cache", ".pytest_cache",
		},
		ExcludeFiles: []string{
			".env", ".env.*",
			"*.pyc", "*.pyo",
			"*.log", "*.tmp",
			"*.min.js",
		},
		UseGitignore: true,
	}
}

// Repository represents a walked code repository.
type Repository struct {
	RootPath string
	Name     string
	Files    []FileInfo
}

// LoadRepository walks a repository directory and returns all supported
// source files in lexical order.
func LoadRepository(rootPath string, cfg Config) (*Repository, error) {
	absRoot, err := resolveRoot(rootPath)
	if err != nil {
		return nil, err
	}

	repo := &Repository{
		RootPath: absRoot,
		Name:     filepath.Base(absRoot),
	}

	err = walk(absRoot, cfg, func(path, relPath string, size int64) {
		if !util.IsSupportedFile(path) {
			return
		}
		repo.Files = append(repo.Files, FileInfo{
			Path:         path,
			RelativePath: relPath,
			Extension:    filepath.Ext(path),
			Language:     util.GetLanguageFromPath(path),
			Size:         size,
		})
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

// ListFiles returns the file-structure listing of every non-ignored file
// under rootPath, whatever its language.
func ListFiles(rootPath string, cfg Config) ([]types.FileEntry, error) {
	absRoot, err := resolveRoot(rootPath)
	if err != nil {
		return nil, err
	}

	var files []types.FileEntry
	err = walk(absRoot, cfg, func(path, relPath string, size int64) {
		files = append(files, types.FileEntry{
			Path:      relPath,
			Size:      size,
			Extension: filepath.Ext(path),
		})
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func resolveRoot(rootPath string) (string, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return "", fmt.Errorf("%w: invalid path %q: %v", ErrRootUnavailable, rootPath, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return "", fmt.Errorf("%w: cannot access %q: %v", ErrRootUnavailable, absRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %q is not a directory", ErrRootUnavailable, absRoot)
	}
	return absRoot, nil
}

// walk visits every regular file under absRoot that survives the exclude
// rules, the .gitignore and the size cap.
func walk(absRoot string, cfg Config, visit func(path, relPath string, size int64)) error {
	rules := newRuleSet(cfg)
	if cfg.UseGitignore {
		rules.addGitignore(absRoot)
	}

	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return fmt.Errorf("%w: %v", ErrRootUnavailable, err)
			}
			log.Printf("[loader] skip %s: %v", path, err)
			return nil
		}
		if path == absRoot {
			return nil
		}

		relPath := util.RelativePath(absRoot, path)

		if d.IsDir() {
			if rules.skipDir(relPath, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if rules.skipFile(relPath, d.Name()) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			log.Printf("[loader] skip %s: %v", relPath, err)
			return nil
		}
		if cfg.MaxFileSize > 0 && fi.Size() > cfg.MaxFileSize {
			return nil
		}

		visit(path, relPath, fi.Size())
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRootUnavailable) {
			return err
		}
		return fmt.Errorf("walk error: %w", err)
	}
	return nil
}
