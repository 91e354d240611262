package agent

import (
	"strings"
	"unicode"
)

// QueryType is the coarse intent of a question.
type QueryType string

const (
	QueryLocate     QueryType = "locate"
	QueryDebug      QueryType = "debug"
	QueryHowTo      QueryType = "howto"
	QueryOverview   QueryType = "overview"
	QueryUnderstand QueryType = "understand"
)

// ProcessedQuery is a question reduced to retrieval terms and intent.
type ProcessedQuery struct {
	Original   string    `json:"original"`
	Cleaned    string    `json:"cleaned"`
	Keywords   []string  `json:"keywords"`
	Complexity int       `json:"complexity"` // 0-100
	QueryType  QueryType `json:"query_type"`
}

var stopWords = map[string]bool{
	"the": true, "is": true, "at": true, "which": true, "on": true,
	"a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "of": true, "to": true, "for": true, "with": true,
	"how": true, "what": true, "where": true, "when": true, "why": true,
	"does": true, "do": true, "this": true, "that": true, "it": true,
	"from": true, "are": true, "was": true, "were": true, "be": true,
	"has": true, "have": true, "had": true, "can": true, "could": true,
	"would": true, "should": true, "will": true, "i": true, "me": true,
	"my": true, "we": true, "our": true, "you": true, "your": true,
	"code": true, "codebase": true, "repo": true, "repository": true,
	"function": true, "functions": true, "class": true, "classes": true,
}

// intents are checked in order; the first with a matching cue wins.
var intents = []struct {
	typ  QueryType
	cues []string
}{
	{QueryLocate, []string{"where", "find", "locate", "which file"}},
	{QueryDebug, []string{"bug", "error", "fix", "wrong", "fail", "crash"}},
	{QueryHowTo, []string{"how to", "how do", "how can", "implement", "add a"}},
	{QueryOverview, []string{"overview", "architecture", "structure", "summar"}},
}

var (
	multiConceptCues = []string{" and ", "also", "both", "between", "compare", "relationship", "interact", "flow"}
	depthCues        = []string{"architecture", "design pattern", "inheritance", "dependency", "concurrency",
		"thread", "async", "lifecycle", "pipeline", "algorithm"}
)

// ProcessQuery extracts keywords, complexity and intent from a question.
func ProcessQuery(query string) *ProcessedQuery {
	cleaned := strings.TrimSpace(query)
	lower := strings.ToLower(cleaned)
	keywords := extractKeywords(lower)

	return &ProcessedQuery{
		Original:   query,
		Cleaned:    cleaned,
		Keywords:   keywords,
		Complexity: scoreComplexity(lower, keywords),
		QueryType:  classifyQuery(lower),
	}
}

// extractKeywords returns distinct non-stop-word terms of two or more
// characters. Identifiers keep their underscores and dots.
func extractKeywords(lower string) []string {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.'
	})

	var keywords []string
	seen := make(map[string]bool)
	for _, w := range words {
		w = strings.Trim(w, ".")
		if len(w) < 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}

// scoreComplexity rates a lower-cased question from 0 to 100.
func scoreComplexity(lower string, keywords []string) int {
	score := 10
	switch n := len(strings.Fields(lower)); {
	case n > 15:
		score = 30
	case n > 8:
		score = 20
	}

	switch {
	case len(keywords) > 6:
		score += 20
	case len(keywords) > 3:
		score += 10
	}

	if containsAny(lower, multiConceptCues) {
		score += 10
	}
	if containsAny(lower, depthCues) {
		score += 15
	}
	if strings.Contains(lower, "?") {
		score += 5
	}
	return min(score, 100)
}

func classifyQuery(lower string) QueryType {
	for _, in := range intents {
		if containsAny(lower, in.cues) {
			return in.typ
		}
	}
	return QueryUnderstand
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
