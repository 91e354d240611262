package catalog

import (
	"strings"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// MaxSearchResults caps the result of Search.
const MaxSearchResults = 20

// Search returns the first MaxSearchResults elements whose name, docstring
// or code contains query, compared case-insensitively, in catalog order.
// An empty query returns the first MaxSearchResults elements; whitespace
// is searched for like any other text.
func Search(elements []types.CodeElement, query string) []types.CodeElement {
	return SearchN(elements, query, MaxSearchResults)
}

// SearchN is Search with an explicit cap. limit <= 0 means no cap.
func SearchN(elements []types.CodeElement, query string, limit int) []types.CodeElement {
	if limit <= 0 || limit > len(elements) {
		limit = len(elements)
	}

	if query == "" {
		out := make([]types.CodeElement, limit)
		copy(out, elements[:limit])
		return out
	}

	q := strings.ToLower(query)
	out := []types.CodeElement{}
	for _, e := range elements {
		if len(out) == limit {
			break
		}
		if Matches(e, q) {
			out = append(out, e)
		}
	}
	return out
}

// Matches reports whether e contains the lower-cased query lq.
func Matches(e types.CodeElement, lq string) bool {
	return strings.Contains(strings.ToLower(e.Name), lq) ||
		strings.Contains(strings.ToLower(e.Docstring), lq) ||
		strings.Contains(strings.ToLower(e.Code), lq)
}
