package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter"
	"golang.org/x/sync/semaphore"

	"github.com/duyhunghd6/repo-analyzer/internal/agent"
	"github.com/duyhunghd6/repo-analyzer/internal/catalog"
	"github.com/duyhunghd6/repo-analyzer/internal/loader"
	"github.com/duyhunghd6/repo-analyzer/internal/repo"
	"github.com/duyhunghd6/repo-analyzer/internal/store"
	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

var (
	// ErrNotReady is returned when a repository has no catalog yet.
	ErrNotReady = errors.New("repository not ready")
	// ErrClosed is returned for jobs requested after Close.
	ErrClosed = errors.New("engine closed")
)

// Tracker is told about repositories scanned in place, so it can request
// reprocessing when their files change.
type Tracker interface {
	Track(id, root string) error
}

// Engine runs repository jobs on a fixed pool of worker slots and serves
// searches and questions against the resulting catalogs.
type Engine struct {
	cfg      Config
	store    *store.Store
	acquirer *repo.Acquirer
	answerer *agent.Answerer

	slots   *semaphore.Weighted
	answers otter.Cache[string, *agent.Answer]

	ctx    context.Context
	cancel context.CancelFunc
	jobs   sync.WaitGroup

	mu      sync.Mutex
	tracker Tracker
	closed  bool
}

// NewEngine creates an engine over an existing store.
func NewEngine(cfg Config, st *store.Store, acq *repo.Acquirer, ans *agent.Answerer) (*Engine, error) {
	cfg = cfg.withDefaults()

	answers, err := otter.MustBuilder[string, *agent.Answer](cfg.AnswerCapacity).
		WithTTL(cfg.AnswerTTL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("answer cache: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:      cfg,
		store:    st,
		acquirer: acq,
		answerer: ans,
		slots:    semaphore.NewWeighted(int64(cfg.Workers)),
		answers:  answers,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Store returns the engine's repository store.
func (e *Engine) Store() *store.Store { return e.store }

// SetTracker installs the tracker for in-place repositories.
func (e *Engine) SetTracker(t Tracker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracker = t
}

// Submit registers source and queues its first job.
func (e *Engine) Submit(source string) (store.Repository, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return store.Repository{}, fmt.Errorf("%w: empty source", repo.ErrInvalidSource)
	}
	if e.isClosed() {
		return store.Repository{}, ErrClosed
	}

	r := e.store.Create(source)
	if err := e.store.BeginJob(r.ID); err != nil {
		return store.Repository{}, err
	}
	if err := e.enqueue(r.ID, source); err != nil {
		_ = e.store.Fail(r.ID, err)
		return store.Repository{}, err
	}
	return r, nil
}

// Reprocess queues a new job for id. The catalog is replaced only when the
// job succeeds.
func (e *Engine) Reprocess(id string) error {
	r, err := e.store.Get(id)
	if err != nil {
		return err
	}
	if e.isClosed() {
		return ErrClosed
	}
	if err := e.store.BeginJob(id); err != nil {
		return err
	}
	if err := e.enqueue(id, r.GithubURL); err != nil {
		_ = e.store.SetStatus(id, r.Status)
		return err
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// enqueue starts the job goroutine for id. The job slot taken by BeginJob
// is released here when the engine is already closed.
func (e *Engine) enqueue(id, source string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.store.EndJob(id)
		return ErrClosed
	}
	e.jobs.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.jobs.Done()
		defer e.store.EndJob(id)

		if err := e.slots.Acquire(e.ctx, 1); err != nil {
			e.fail(id, fmt.Errorf("job cancelled: %w", err))
			return
		}
		defer e.slots.Release(1)

		e.process(id, source)
	}()
}

// process runs one job: acquire, list, build, publish.
func (e *Engine) process(id, source string) {
	start := time.Now()
	_ = e.store.SetStatus(id, store.StatusCloning)

	co, err := e.acquirer.Acquire(e.ctx, source, id)
	if err != nil {
		e.fail(id, err)
		return
	}
	_ = e.store.SetCheckout(id, co.Path, co.Commit)
	_ = e.store.SetStatus(id, store.StatusParsing)

	files, err := loader.ListFiles(co.Path, e.cfg.Loader)
	if err != nil {
		e.fail(id, err)
		return
	}
	res, err := e.cfg.NewBuilder().Build(co.Path)
	if err != nil {
		e.fail(id, err)
		return
	}
	if err := e.store.ReplaceCatalog(id, res.Elements, files); err != nil {
		log.Printf("[engine] %s: %v", id, err)
		return
	}
	log.Printf("[engine] %s ready: %d elements from %d files in %s",
		id, len(res.Elements), res.FileCount, time.Since(start).Round(time.Millisecond))

	if co.Local {
		e.mu.Lock()
		t := e.tracker
		e.mu.Unlock()
		if t != nil {
			if err := t.Track(id, co.Path); err != nil {
				log.Printf("[engine] %s: watch %s: %v", id, co.Path, err)
			}
		}
	}
}

func (e *Engine) fail(id string, err error) {
	log.Printf("[engine] %s failed: %v", id, err)
	_ = e.store.Fail(id, err)
}

// catalogOf returns the current catalog of id or ErrNotFound/ErrNotReady.
func (e *Engine) catalogOf(id string) ([]types.CodeElement, uint64, error) {
	r, err := e.store.Get(id)
	if err != nil {
		return nil, 0, err
	}
	elems, gen, ok := e.store.Catalog(id)
	if !ok {
		if r.Status == store.StatusError {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotReady, r.Error)
		}
		return nil, 0, fmt.Errorf("%w: status %s", ErrNotReady, r.Status)
	}
	return elems, gen, nil
}

// Search runs a substring search over the catalog of id.
func (e *Engine) Search(id, query string) ([]types.CodeElement, error) {
	elems, _, err := e.catalogOf(id)
	if err != nil {
		return nil, err
	}
	return catalog.Search(elems, query), nil
}

// Ask answers question about the catalog of id. Answers are cached per
// catalog generation.
func (e *Engine) Ask(ctx context.Context, id, question string) (*agent.Answer, error) {
	elems, gen, err := e.catalogOf(id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s\x00%d\x00%s", id, gen, strings.ToLower(strings.TrimSpace(question)))
	if ans, ok := e.answers.Get(key); ok {
		return withQuestion(ans, question), nil
	}

	ans, err := e.answerer.Answer(ctx, question, elems)
	if err != nil {
		return nil, err
	}
	e.answers.Set(key, ans)
	return withQuestion(ans, question), nil
}

// withQuestion returns a copy of a shared cached answer carrying the
// caller's own question text.
func withQuestion(ans *agent.Answer, question string) *agent.Answer {
	cp := *ans
	cp.Question = question
	return &cp
}

// Wait blocks until every queued job has finished.
func (e *Engine) Wait() {
	e.jobs.Wait()
}

// Close cancels queued jobs, waits for running ones and releases the
// answer cache.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.jobs.Wait()
	e.answers.Close()
}
