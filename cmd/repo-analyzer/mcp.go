package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/duyhunghd6/repo-analyzer/internal/catalog"
	"github.com/duyhunghd6/repo-analyzer/internal/config"
)

// serveMCP runs an MCP server on stdio until the client disconnects or
// ctx is cancelled.
func serveMCP(ctx context.Context, cfg *config.Config) error {
	s := newMCPServer(cfg)
	log.Printf("[mcp] serving on stdio")
	if err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// newMCPServer registers the catalog tools.
func newMCPServer(cfg *config.Config) *server.MCPServer {
	s := server.NewMCPServer("repo-analyzer", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("scan_repository",
		mcp.WithDescription("Scan a local repository for Python and JavaScript functions and classes and cache the catalog."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the repository")),
		mcp.WithBoolean("force", mcp.Description("Rescan even when a cached catalog exists")),
	), scanHandler(cfg))

	s.AddTool(mcp.NewTool("search_code",
		mcp.WithDescription("Case-insensitive substring search over element names, docstrings and code. Returns at most 20 elements."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the repository")),
		mcp.WithString("query", mcp.Description("Search text; empty lists the first elements")),
		mcp.WithReadOnlyHintAnnotation(true),
	), searchHandler(cfg))

	s.AddTool(mcp.NewTool("ask_codebase",
		mcp.WithDescription("Answer a natural-language question about a repository from its code elements."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the repository")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
	), askHandler(cfg))

	return s
}

type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func scanHandler(cfg *config.Config) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		snap, cached, err := loadCatalog(cfg, path, req.GetBool("force", false), true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolJSON(summarize(snap, cached))
	}
}

func searchHandler(cfg *config.Config) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		snap, _, err := loadCatalog(cfg, path, false, true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query := req.GetString("query", "")
		results := catalog.Search(snap.Elements, query)
		return toolJSON(map[string]any{"query": query, "results": results, "total": len(results)})
	}
}

func askHandler(cfg *config.Config) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		question, err := req.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ans, err := askLocal(ctx, cfg, path, question, false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolJSON(ans)
	}
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
