package catalog

import (
	"fmt"
	"log"

	"github.com/duyhunghd6/repo-analyzer/internal/loader"
	"github.com/duyhunghd6/repo-analyzer/internal/parser"
	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// Reporter receives progress callbacks during a build.
type Reporter interface {
	OnStart(totalFiles int)
	OnFile(relPath string, elements int)
	OnDone(totalElements int)
}

// Failure records one file that contributed no elements because it could
// not be read.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Result is the outcome of one catalog build.
type Result struct {
	Root      string              `json:"root"`
	Name      string              `json:"name"`
	Elements  []types.CodeElement `json:"elements"`
	FileCount int                 `json:"file_count"`
	Failures  []Failure           `json:"failures,omitempty"`
}

// Builder scans a directory tree and assembles its code elements.
type Builder struct {
	Loader   loader.Config
	Parser   *parser.Parser
	Reporter Reporter // optional
}

// NewBuilder creates a builder with the given walker config and parser.
func NewBuilder(cfg loader.Config, p *parser.Parser) *Builder {
	if p == nil {
		p = parser.New()
	}
	return &Builder{Loader: cfg, Parser: p}
}

// BuildCatalog scans root with the default configuration and returns its
// elements in file order, then line order. Only an unavailable root is an
// error.
func BuildCatalog(root string) ([]types.CodeElement, error) {
	res, err := NewBuilder(loader.DefaultConfig(), parser.New()).Build(root)
	if err != nil {
		return nil, err
	}
	return res.Elements, nil
}

// Build walks root and parses every supported file sequentially.
// Per-file read failures are logged and recorded in Result.Failures.
func (b *Builder) Build(root string) (*Result, error) {
	repo, err := loader.LoadRepository(root, b.Loader)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	res := &Result{
		Root:      repo.RootPath,
		Name:      repo.Name,
		FileCount: len(repo.Files),
		Elements:  []types.CodeElement{},
	}
	if b.Reporter != nil {
		b.Reporter.OnStart(len(repo.Files))
	}

	for _, fi := range repo.Files {
		n := b.buildFile(fi, res)
		if b.Reporter != nil {
			b.Reporter.OnFile(fi.RelativePath, n)
		}
	}

	if b.Reporter != nil {
		b.Reporter.OnDone(len(res.Elements))
	}
	log.Printf("[catalog] %d elements from %s (%d files, %d skipped)",
		len(res.Elements), repo.Name, len(repo.Files), len(res.Failures))
	return res, nil
}

func (b *Builder) buildFile(fi loader.FileInfo, res *Result) int {
	if !b.Parser.Supports(fi.Language) {
		return 0
	}

	lines, err := loader.ReadLines(fi.Path)
	if err != nil {
		log.Printf("[catalog] skip %s: %v", fi.RelativePath, err)
		res.Failures = append(res.Failures, Failure{Path: fi.RelativePath, Err: err.Error()})
		return 0
	}

	elems := b.Parser.ParseLines(fi.RelativePath, fi.Language, lines)
	res.Elements = append(res.Elements, elems...)
	return len(elems)
}
