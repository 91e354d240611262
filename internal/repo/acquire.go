package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrClone is returned when git cannot materialise a remote source.
	ErrClone = errors.New("clone failed")
	// ErrInvalidSource is returned for sources that are neither a local
	// directory nor a recognised git remote.
	ErrInvalidSource = errors.New("invalid repository source")
)

var (
	scpLikeRemote = regexp.MustCompile(`^[\w.-]+@[\w.-]+:.+$`)
	remoteName    = regexp.MustCompile(`[:/]([^/:]+?)(?:\.git)?/?$`)
	safeID        = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// Checkout is a repository materialised on the local filesystem.
type Checkout struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Local  bool   `json:"local"` // scanned in place, not cloned
	Commit string `json:"commit,omitempty"`
}

// Acquirer turns a repository source into a local checkout.
type Acquirer struct {
	ReposDir string // clone destination root
	Git      string // git binary
}

// NewAcquirer creates an acquirer cloning into reposDir.
func NewAcquirer(reposDir string) *Acquirer {
	return &Acquirer{ReposDir: reposDir, Git: "git"}
}

// IsRemote reports whether source names a git remote.
func IsRemote(source string) bool {
	for _, scheme := range []string{"https://", "http://", "ssh://", "git://"} {
		if strings.HasPrefix(source, scheme) {
			return true
		}
	}
	return scpLikeRemote.MatchString(source)
}

// LocalPath returns the directory a local source refers to.
func LocalPath(source string) string {
	return strings.TrimPrefix(source, "file://")
}

// Name infers a short repository name from a source.
func Name(source string) string {
	s := strings.TrimSpace(source)
	if IsRemote(s) {
		if m := remoteName.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return filepath.Base(filepath.Clean(LocalPath(s)))
}

// Acquire resolves source. Local directories are used in place; remotes
// are shallow-cloned into ReposDir/id, replacing any previous checkout.
func (a *Acquirer) Acquire(ctx context.Context, source, id string) (*Checkout, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", ErrInvalidSource)
	}

	if IsRemote(source) {
		return a.clone(ctx, source, id)
	}

	path, err := filepath.Abs(LocalPath(source))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSource, source, err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a git remote or local directory", ErrInvalidSource, source)
	}
	return &Checkout{Path: path, Name: filepath.Base(path), Local: true}, nil
}

func (a *Acquirer) clone(ctx context.Context, source, id string) (*Checkout, error) {
	if !safeID.MatchString(id) {
		return nil, fmt.Errorf("%w: bad checkout id %q", ErrInvalidSource, id)
	}

	target, err := filepath.Abs(filepath.Join(a.ReposDir, id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClone, err)
	}
	if err := os.RemoveAll(target); err != nil {
		return nil, fmt.Errorf("%w: remove previous checkout: %v", ErrClone, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClone, err)
	}

	log.Printf("[repo] cloning %s into %s", source, target)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.git(), "clone", "--depth", "1", "--", source, target)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrClone, msg)
	}

	return &Checkout{
		Path:   target,
		Name:   Name(source),
		Commit: a.head(target),
	}, nil
}

// head returns the checked-out commit, or "" when git cannot tell.
func (a *Acquirer) head(dir string) string {
	out, err := exec.Command(a.git(), "-C", dir, "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func (a *Acquirer) git() string {
	if a.Git == "" {
		return "git"
	}
	return a.Git
}
