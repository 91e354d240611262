package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

var (
	// ErrNotFound is returned for unknown repository ids.
	ErrNotFound = errors.New("repository not found")
	// ErrBusy is returned when a repository already has a job in flight.
	ErrBusy = errors.New("repository is being processed")
)

// Status is the processing state of a repository.
type Status string

const (
	StatusProcessing Status = "processing" // created, waiting for a worker
	StatusCloning    Status = "cloning"
	StatusParsing    Status = "parsing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// Repository is the public record of one submitted repository.
type Repository struct {
	ID                string            `json:"id"`
	GithubURL         string            `json:"github_url"`
	Status            Status            `json:"status"`
	FileCount         int               `json:"file_count"`
	CodeElementsCount int               `json:"code_elements_count"`
	Error             string            `json:"error,omitempty"`
	Files             []types.FileEntry `json:"files,omitempty"`
	LocalPath         string            `json:"local_path,omitempty"`
	Commit            string            `json:"commit,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type entry struct {
	repo       Repository
	elements   []types.CodeElement
	generation uint64
	busy       bool
}

// Store owns every repository record and catalog of the service. It is
// created at startup and shared by handle.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*entry
	order  []string
	nextID int
	now    func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{byID: make(map[string]*entry), now: time.Now}
}

// Create registers a new repository in the processing state.
func (s *Store) Create(source string) Repository {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("repo_%d", s.nextID)
	now := s.now()
	e := &entry{repo: Repository{
		ID:        id,
		GithubURL: source,
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.byID[id] = e
	s.order = append(s.order, id)
	return e.repo
}

// Get returns a copy of the record for id.
func (s *Store) Get(id string) (Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return Repository{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.repo, nil
}

// List returns every record in creation order.
func (s *Store) List() []Repository {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Repository, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].repo)
	}
	return out
}

// BeginJob marks id as owned by a processing job. A second job for the
// same repository gets ErrBusy until EndJob.
func (s *Store) BeginJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if e.busy {
		return fmt.Errorf("%w: %s", ErrBusy, id)
	}
	e.busy = true
	e.repo.Status = StatusProcessing
	e.repo.UpdatedAt = s.now()
	return nil
}

// EndJob releases the job claim taken by BeginJob.
func (s *Store) EndJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byID[id]; ok {
		e.busy = false
	}
}

// Busy reports whether id has a job in flight.
func (s *Store) Busy(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	return ok && e.busy
}

// SetStatus moves id to status and clears any previous error.
func (s *Store) SetStatus(id string, status Status) error {
	return s.update(id, func(r *Repository) {
		r.Status = status
		r.Error = ""
	})
}

// SetCheckout records where the repository was materialised.
func (s *Store) SetCheckout(id, path, commit string) error {
	return s.update(id, func(r *Repository) {
		r.LocalPath = path
		r.Commit = commit
	})
}

// Fail moves id to the error state, keeping any previous catalog.
func (s *Store) Fail(id string, cause error) error {
	return s.update(id, func(r *Repository) {
		r.Status = StatusError
		r.Error = cause.Error()
	})
}

// ReplaceCatalog swaps in a freshly built catalog and file listing and
// marks the repository ready.
func (s *Store) ReplaceCatalog(id string, elements []types.CodeElement, files []types.FileEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.elements = elements
	e.generation++
	e.repo.Files = files
	e.repo.FileCount = len(files)
	e.repo.CodeElementsCount = len(elements)
	e.repo.Status = StatusReady
	e.repo.Error = ""
	e.repo.UpdatedAt = s.now()
	return nil
}

// Catalog returns the current catalog of id and its generation, which
// increases on every replacement. ok is false until a catalog exists.
// The slice must not be modified.
func (s *Store) Catalog(id string) (elements []types.CodeElement, generation uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, found := s.byID[id]
	if !found || e.generation == 0 {
		return nil, 0, false
	}
	return e.elements, e.generation, true
}

func (s *Store) update(id string, fn func(*Repository)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(&e.repo)
	e.repo.UpdatedAt = s.now()
	return nil
}
