package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/duyhunghd6/repo-analyzer/internal/agent"
	"github.com/duyhunghd6/repo-analyzer/internal/cache"
	"github.com/duyhunghd6/repo-analyzer/internal/config"
	"github.com/duyhunghd6/repo-analyzer/internal/llm"
	"github.com/duyhunghd6/repo-analyzer/internal/loader"
	"github.com/duyhunghd6/repo-analyzer/internal/orchestrator"
	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// scanSummary is the JSON output of the scan command.
type scanSummary struct {
	Root      string    `json:"root"`
	Name      string    `json:"name"`
	Files     int       `json:"files"`
	Elements  int       `json:"elements"`
	Functions int       `json:"functions"`
	Classes   int       `json:"classes"`
	Cached    bool      `json:"cached"`
	BuiltAt   time.Time `json:"built_at"`
}

// loadCatalog returns the catalog of a local directory, from the cache
// unless force is set or no snapshot exists. Fresh builds are saved.
func loadCatalog(cfg *config.Config, path string, force, quiet bool) (*cache.Snapshot, bool, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, false, fmt.Errorf("resolve %s: %w", path, err)
	}

	cc := cache.New(cfg.Cache.Dir)
	if !force && cc.Exists(root) {
		snap, err := cc.Load(root)
		if err == nil {
			return snap, true, nil
		}
		log.Printf("[cache] ignoring snapshot of %s: %v", root, err)
	}

	ecfg := orchestrator.FromConfig(cfg)
	b := ecfg.NewBuilder()
	if !quiet {
		b.Reporter = newProgressReporter()
	}
	res, err := b.Build(root)
	if err != nil {
		return nil, false, err
	}
	files, err := loader.ListFiles(root, ecfg.Loader)
	if err != nil {
		return nil, false, err
	}

	snap := &cache.Snapshot{
		Root:      res.Root,
		Name:      res.Name,
		BuiltAt:   time.Now(),
		FileCount: len(files),
		Elements:  res.Elements,
		Files:     files,
	}
	if err := cc.Save(snap); err != nil {
		log.Printf("[cache] save %s: %v", root, err)
	}
	return snap, false, nil
}

func summarize(snap *cache.Snapshot, cached bool) scanSummary {
	s := scanSummary{
		Root:     snap.Root,
		Name:     snap.Name,
		Files:    snap.FileCount,
		Elements: len(snap.Elements),
		Cached:   cached,
		BuiltAt:  snap.BuiltAt,
	}
	for _, e := range snap.Elements {
		switch e.Type {
		case types.KindFunction:
			s.Functions++
		case types.KindClass:
			s.Classes++
		}
	}
	return s
}

// newAnswerer builds an answerer from the LLM settings. A missing
// provider is not an error; answers then come from the summarizer.
func newAnswerer(cfg *config.Config) (*agent.Answerer, error) {
	p, err := llm.NewProvider(cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrNoProvider):
		log.Printf("[llm] no provider configured, answering with summaries")
		p = nil
	case err != nil:
		return nil, err
	}
	return agent.NewAnswerer(p, cfg.LLM.ContextElements), nil
}

func askLocal(ctx context.Context, cfg *config.Config, path, question string, force bool) (*agent.Answer, error) {
	snap, _, err := loadCatalog(cfg, path, force, true)
	if err != nil {
		return nil, err
	}
	ans, err := newAnswerer(cfg)
	if err != nil {
		return nil, err
	}
	defer ans.Close()
	return ans.Answer(ctx, question, snap.Elements)
}
