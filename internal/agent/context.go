package agent

import (
	"strings"

	"github.com/duyhunghd6/repo-analyzer/internal/catalog"
	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// SelectContext picks at most k elements relevant to pq. BM25 ranking over
// the keywords comes first; when nothing scores, elements containing any
// keyword are taken in catalog order; failing that, the first k elements.
func SelectContext(pq *ProcessedQuery, elements []types.CodeElement, k int) []types.CodeElement {
	if k <= 0 || len(elements) == 0 {
		return []types.CodeElement{}
	}

	query := strings.Join(pq.Keywords, " ")
	if query == "" {
		query = pq.Cleaned
	}
	if ranked := catalog.Rank(elements, query, k); len(ranked) > 0 {
		return ranked
	}

	var matched []types.CodeElement
	for _, e := range elements {
		if len(matched) == k {
			break
		}
		for _, kw := range pq.Keywords {
			if catalog.Matches(e, kw) {
				matched = append(matched, e)
				break
			}
		}
	}
	if len(matched) > 0 {
		return matched
	}

	return catalog.SearchN(elements, "", k)
}
