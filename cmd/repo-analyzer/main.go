package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/duyhunghd6/repo-analyzer/internal/catalog"
	"github.com/duyhunghd6/repo-analyzer/internal/config"
	"github.com/duyhunghd6/repo-analyzer/internal/orchestrator"
	"github.com/duyhunghd6/repo-analyzer/internal/repo"
	"github.com/duyhunghd6/repo-analyzer/internal/server"
	"github.com/duyhunghd6/repo-analyzer/internal/store"
	"github.com/duyhunghd6/repo-analyzer/internal/watch"
)

var version = "0.1.0-dev"

func main() {
	// .env first, so its values take part in the config env overrides.
	_ = godotenv.Load()

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// buildRootCmd creates the root cobra command with all subcommands.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "repo-analyzer",
		Short: "Repo Analyzer: code element catalogs and questions over repositories",
		Long: `Repo Analyzer scans Python and JavaScript repositories for function and
class declarations, keeps a searchable catalog of them and answers
questions about the code through a language model or a built-in summary.`,
		Version:      version,
		SilenceUsage: true,
	}

	var configPath string
	var cacheDir string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.repo-analyzer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Catalog cache directory (default: from config)")

	loadConfig := func() (*config.Config, error) {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return nil, err
		}
		if cacheDir != "" {
			cfg.Cache.Dir = cacheDir
		}
		return cfg, nil
	}

	rootCmd.AddCommand(
		buildServeCmd(loadConfig),
		buildScanCmd(loadConfig),
		buildSearchCmd(loadConfig),
		buildAskCmd(loadConfig),
		buildServeMCPCmd(loadConfig),
		buildCompletionCmd(),
	)
	return rootCmd
}

type configLoader func() (*config.Config, error)

func buildServeCmd(loadConfig configLoader) *cobra.Command {
	var addr string
	var workers int
	var watchRepos, allowLocal bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Serve the repository API: submit repositories, poll their status, search catalogs and ask questions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("workers") {
				cfg.Server.Workers = workers
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watchRepos
			}
			if cmd.Flags().Changed("allow-local") {
				cfg.Server.AllowLocalSources = allowLocal
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	cmd.Flags().IntVar(&workers, "workers", 2, "Concurrent repository jobs")
	cmd.Flags().BoolVar(&watchRepos, "watch", false, "Reprocess local repositories when their files change")
	cmd.Flags().BoolVar(&allowLocal, "allow-local", false, "Accept server-side directories as repository sources")
	return cmd
}

// runServer wires the store, engine, optional watcher and HTTP layer, and
// serves until ctx is cancelled.
func runServer(ctx context.Context, cfg *config.Config) error {
	ans, err := newAnswerer(cfg)
	if err != nil {
		return err
	}
	defer ans.Close()

	ecfg := orchestrator.FromConfig(cfg)
	engine, err := orchestrator.NewEngine(ecfg, store.New(), repo.NewAcquirer(cfg.Server.ReposDir), ans)
	if err != nil {
		return err
	}
	defer engine.Close()

	if cfg.Server.Watch {
		w, err := watch.New(engine, watch.Config{
			ExcludeDirs: ecfg.Loader.ExcludeDirs,
			Debounce:    time.Duration(cfg.Server.WatchDebounceMS) * time.Millisecond,
		})
		if err != nil {
			return err
		}
		defer w.Stop()
		engine.SetTracker(w)
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[watch] stopped: %v", err)
			}
		}()
	}

	srv := server.New(engine, server.Options{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		AllowLocalSources: cfg.Server.AllowLocalSources,
		Version:           version,
	})
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func buildScanCmd(loadConfig configLoader) *cobra.Command {
	var force, jsonOutput, quiet bool

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Build the element catalog of a local directory",
		Long:  "Scan a directory for function and class declarations and cache the catalog.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			start := time.Now()
			snap, cached, err := loadCatalog(cfg, args[0], force, quiet || jsonOutput)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			sum := summarize(snap, cached)

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, sum)
			}
			fmt.Fprintf(out, "Scanned %s in %s\n", sum.Name, time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(out, "   Files:     %d\n", sum.Files)
			fmt.Fprintf(out, "   Elements:  %d (%d functions, %d classes)\n", sum.Elements, sum.Functions, sum.Classes)
			if cached {
				fmt.Fprintln(out, "   Source:    cache (use --force to rescan)")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Rescan even when a cached catalog exists")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}

func buildSearchCmd(loadConfig configLoader) *cobra.Command {
	var force, jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <path> [query...]",
		Short: "Search the catalog of a local directory",
		Long:  "Case-insensitive substring search over element names, docstrings and code. An empty query lists the first elements.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			snap, _, err := loadCatalog(cfg, args[0], force, true)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			query := strings.Join(args[1:], " ")
			results := catalog.Search(snap.Elements, query)

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, map[string]any{"query": query, "results": results, "total": len(results)})
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No matching code elements found.")
				return nil
			}
			for _, e := range results {
				fmt.Fprintf(out, "%-8s %-30s %s:%d-%d\n", e.Type, e.Name, e.FilePath, e.StartLine, e.EndLine)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Rescan before searching")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func buildAskCmd(loadConfig configLoader) *cobra.Command {
	var force, jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ask <path> <question...>",
		Short: "Ask a question about a local directory",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			question := strings.Join(args[1:], " ")
			start := time.Now()
			ans, err := askLocal(cmd.Context(), cfg, args[0], question, force)
			if err != nil {
				return fmt.Errorf("ask failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, ans)
			}
			fmt.Fprintln(out, ans.Answer)
			fmt.Fprintf(out, "\n---\n%s | source: %s | type: %s | elements: %d\n",
				time.Since(start).Round(time.Millisecond), ans.Source, ans.QueryType, len(ans.RelevantElements))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Rescan before answering")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func buildServeMCPCmd(loadConfig configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Start an MCP (Model Context Protocol) server on stdio",
		Long:  "Expose scan, search and ask as MCP tools for editors and agents.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serveMCP(cmd.Context(), cfg)
		},
	}
}

func buildCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for repo-analyzer.

To load completions:

Bash:
  $ source <(repo-analyzer completion bash)

Zsh:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc  # once
  $ repo-analyzer completion zsh > "${fpath[1]}/_repo-analyzer"
  $ exec zsh

Fish:
  $ repo-analyzer completion fish | source

PowerShell:
  PS> repo-analyzer completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
