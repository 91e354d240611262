package orchestrator

import (
	"time"

	"github.com/duyhunghd6/repo-analyzer/internal/catalog"
	"github.com/duyhunghd6/repo-analyzer/internal/config"
	"github.com/duyhunghd6/repo-analyzer/internal/loader"
	"github.com/duyhunghd6/repo-analyzer/internal/parser"
	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// Config holds engine configuration.
type Config struct {
	Workers        int
	Loader         loader.Config
	Limits         parser.Limits
	AnswerTTL      time.Duration
	AnswerCapacity int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        2,
		Loader:         loader.DefaultConfig(),
		Limits:         parser.DefaultLimits(),
		AnswerTTL:      30 * time.Minute,
		AnswerCapacity: 1000,
	}
}

// FromConfig maps the file configuration onto engine settings.
func FromConfig(c *config.Config) Config {
	cfg := DefaultConfig()
	cfg.Workers = c.Server.Workers
	cfg.Loader.MaxFileSize = c.Extraction.MaxFileSize
	cfg.Limits = parser.Limits{
		FunctionLines: c.Extraction.FunctionLines,
		ClassLines:    c.Extraction.ClassLines,
		LanguageFunctionLines: map[types.Language]int{
			types.LangJavaScript: c.Extraction.ScriptFunctionLines,
		},
		DocstringLookahead: c.Extraction.DocstringLookahead,
		DocstringSpan:      c.Extraction.DocstringSpan,
	}
	cfg.AnswerTTL = time.Duration(c.Cache.AnswerTTLSecs) * time.Second
	cfg.AnswerCapacity = c.Cache.AnswerCapacity
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.AnswerTTL <= 0 {
		c.AnswerTTL = d.AnswerTTL
	}
	if c.AnswerCapacity <= 0 {
		c.AnswerCapacity = d.AnswerCapacity
	}
	if c.Loader.MaxFileSize <= 0 {
		c.Loader.MaxFileSize = d.Loader.MaxFileSize
	}
	return c
}

// NewBuilder returns a catalog builder using these settings.
func (c Config) NewBuilder() *catalog.Builder {
	return catalog.NewBuilder(c.Loader, parser.NewWith(parser.DefaultMatcher(), c.Limits))
}
