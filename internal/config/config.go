package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds global configuration loaded from ~/.repo-analyzer/config.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Cache      CacheConfig      `yaml:"cache"`
}

// ServerConfig configures the HTTP service and its worker pool.
type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	Workers           int      `yaml:"workers"`
	ReposDir          string   `yaml:"repos_dir"`
	AllowLocalSources bool     `yaml:"allow_local_sources"` // server-side paths in POST /repositories
	Watch             bool     `yaml:"watch"`
	WatchDebounceMS   int      `yaml:"watch_debounce_ms"`
}

// LLMConfig selects and tunes the answer provider.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // "", openai, google, anthropic, none
	Model           string  `yaml:"model"`
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
	TimeoutSecs     int     `yaml:"timeout_secs"`
	ContextElements int     `yaml:"context_elements"`

	// Provider keys, usually supplied through the environment.
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	GoogleAPIKey    string `yaml:"google_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
}

// ExtractionConfig holds the line windows of the element extractor.
type ExtractionConfig struct {
	FunctionLines       int   `yaml:"function_lines"`
	ClassLines          int   `yaml:"class_lines"`
	ScriptFunctionLines int   `yaml:"script_function_lines"`
	DocstringLookahead  int   `yaml:"docstring_lookahead"`
	DocstringSpan       int   `yaml:"docstring_span"`
	MaxFileSize         int64 `yaml:"max_file_size"`
}

// CacheConfig configures the on-disk catalog cache and the answer cache.
type CacheConfig struct {
	Dir            string `yaml:"dir"`
	AnswerTTLSecs  int    `yaml:"answer_ttl_secs"`
	AnswerCapacity int    `yaml:"answer_capacity"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			AllowedOrigins:  []string{"http://localhost:3000"},
			Workers:         2,
			ReposDir:        "./repos",
			WatchDebounceMS: 500,
		},
		LLM: LLMConfig{
			Temperature:     0.3,
			MaxTokens:       2000,
			TimeoutSecs:     120,
			ContextElements: 15,
		},
		Extraction: ExtractionConfig{
			FunctionLines:       10,
			ClassLines:          5,
			ScriptFunctionLines: 8,
			DocstringLookahead:  4,
			DocstringSpan:       10,
			MaxFileSize:         1024 * 1024,
		},
		Cache: CacheConfig{
			Dir:            filepath.Join(homeDir(), ".repo-analyzer", "cache"),
			AnswerTTLSecs:  1800,
			AnswerCapacity: 1000,
		},
	}
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".repo-analyzer", "config.yaml")
}

// Load reads the default config file and applies environment overrides.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom reads a specific YAML config file over the defaults, then
// applies environment overrides. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Server.ReposDir = expandHome(cfg.Server.ReposDir)
	return cfg, nil
}

// applyEnv overlays environment variables; set variables win over the file.
func (c *Config) applyEnv() {
	setFromEnv(&c.LLM.OpenAIAPIKey, "OPENAI_API_KEY")
	setFromEnv(&c.LLM.GoogleAPIKey, "GEMINI_API_KEY")
	setFromEnv(&c.LLM.GoogleAPIKey, "GOOGLE_API_KEY")
	setFromEnv(&c.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setFromEnv(&c.LLM.Provider, "LLM_PROVIDER")
	setFromEnv(&c.LLM.Model, "MODEL")
	setFromEnv(&c.LLM.BaseURL, "BASE_URL")
	setFromEnv(&c.Server.Addr, "REPO_ANALYZER_ADDR")
	setFromEnv(&c.Server.ReposDir, "REPO_ANALYZER_REPOS_DIR")
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func homeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}
