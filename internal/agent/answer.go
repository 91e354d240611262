package agent

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/duyhunghd6/repo-analyzer/internal/llm"
	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// Answer sources.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// DefaultContextElements bounds the elements placed in a prompt.
const DefaultContextElements = 15

// Answer is the reply to one question about a catalog.
type Answer struct {
	Question         string              `json:"question"`
	Answer           string              `json:"answer"`
	Source           string              `json:"source"`
	Provider         string              `json:"provider,omitempty"`
	QueryType        QueryType           `json:"query_type"`
	RelevantElements []types.CodeElement `json:"relevant_elements"`
}

// Answerer answers questions from catalog elements, through a language
// model when one is configured and with a deterministic summary otherwise.
type Answerer struct {
	provider     llm.Provider // nil selects the fallback summary
	contextLimit int
}

// NewAnswerer creates an answerer. provider may be nil.
func NewAnswerer(provider llm.Provider, contextLimit int) *Answerer {
	if contextLimit <= 0 {
		contextLimit = DefaultContextElements
	}
	return &Answerer{provider: provider, contextLimit: contextLimit}
}

// HasProvider reports whether answers can come from a language model.
func (a *Answerer) HasProvider() bool { return a.provider != nil }

// Close releases the provider's client when it holds one.
func (a *Answerer) Close() error {
	if c, ok := a.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Answer selects context for question and produces a reply. A failing
// provider call degrades to the fallback summary; only a cancelled ctx is
// returned as an error.
func (a *Answerer) Answer(ctx context.Context, question string, elements []types.CodeElement) (*Answer, error) {
	pq := ProcessQuery(question)
	relevant := SelectContext(pq, elements, a.contextLimit)

	ans := &Answer{
		Question:         question,
		QueryType:        pq.QueryType,
		RelevantElements: relevant,
	}

	if a.provider != nil {
		text, err := a.provider.Generate(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: answerSystemPrompt()},
			{Role: llm.RoleUser, Content: buildPrompt(pq, relevant)},
		})
		if err == nil && strings.TrimSpace(text) != "" {
			ans.Answer = text
			ans.Source = SourceLLM
			ans.Provider = a.provider.Name()
			return ans, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("generate answer: %w", ctx.Err())
		}
		log.Printf("[agent] %s provider failed, using summary: %v", a.provider.Name(), err)
	}

	ans.Answer = Summarize(relevant)
	ans.Source = SourceFallback
	return ans, nil
}

// Summarize lists elements in a fixed format. It is the answer used when
// no language model is available.
func Summarize(elements []types.CodeElement) string {
	if len(elements) == 0 {
		return "No matching code elements found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d relevant code elements:\n", len(elements))
	for _, e := range elements {
		fmt.Fprintf(&sb, "\n- [%s] %s (%s:L%d-%d)", e.Type, e.Name, e.FilePath, e.StartLine, e.EndLine)
		if e.Docstring != "" {
			fmt.Fprintf(&sb, ": %s", truncateStr(e.Docstring, 160))
		}
	}
	return sb.String()
}

func buildPrompt(pq *ProcessedQuery, elements []types.CodeElement) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## User Question\n%s\n\n", pq.Cleaned)
	fmt.Fprintf(&sb, "## Query Type: %s | Complexity: %d/100\n\n", pq.QueryType, pq.Complexity)

	if len(elements) == 0 {
		sb.WriteString("## Retrieved Code Context\nNo functions or classes were found in this repository.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "## Retrieved Code Context (%d elements)\n\n", len(elements))
	for _, e := range elements {
		fmt.Fprintf(&sb, "### [%s] %s\n", e.Type, e.Name)
		fmt.Fprintf(&sb, "**File:** `%s` (L%d-%d) | **Language:** %s\n", e.FilePath, e.StartLine, e.EndLine, e.Language)
		if e.Docstring != "" {
			fmt.Fprintf(&sb, "**Docstring:** %s\n", truncateStr(e.Docstring, 200))
		}
		if e.Code != "" {
			fmt.Fprintf(&sb, "```%s\n%s\n```\n", e.Language, truncateStr(e.Code, 1000))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func answerSystemPrompt() string {
	return `You are an expert code analyst. Answer the user's question about a codebase using
ONLY the provided code context: function and class declarations with the first lines of
their bodies. Reference element names, file paths and line numbers when possible.

If the context is insufficient, say so clearly and name the files or elements that look
most related.`
}

// truncateStr cuts s to at most maxLen bytes without splitting a rune.
func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
