package catalog

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// BM25 is an Okapi BM25 index over positional documents. IDF values use
// the rank_bm25 formulation: negative IDFs are floored at epsilon times
// the mean IDF.
type BM25 struct {
	k1      float64
	b       float64
	epsilon float64

	docs  []bm25Doc
	df    map[string]int
	idf   map[string]float64
	avgDL float64
	dirty bool
}

type bm25Doc struct {
	length int
	tf     map[string]float64
}

// Scored is one ranked document position.
type Scored struct {
	Doc   int
	Score float64
}

// NewBM25 creates an index. Zero parameters select k1=1.5 and b=0.75.
func NewBM25(k1, b float64) *BM25 {
	if k1 == 0 {
		k1 = 1.5
	}
	if b == 0 {
		b = 0.75
	}
	return &BM25{
		k1:      k1,
		b:       b,
		epsilon: 0.25,
		df:      make(map[string]int),
		idf:     make(map[string]float64),
	}
}

// Add appends a document and returns its position.
func (bm *BM25) Add(text string) int {
	tf := make(map[string]float64)
	tokens := Tokenize(text)
	for _, t := range tokens {
		if tf[t] == 0 {
			bm.df[t]++
		}
		tf[t]++
	}
	bm.docs = append(bm.docs, bm25Doc{length: len(tokens), tf: tf})
	bm.dirty = true
	return len(bm.docs) - 1
}

// Len returns the number of documents.
func (bm *BM25) Len() int { return len(bm.docs) }

// prepare recomputes the average length and IDF table after additions.
func (bm *BM25) prepare() {
	if !bm.dirty {
		return
	}
	bm.dirty = false

	total := 0
	for _, d := range bm.docs {
		total += d.length
	}
	n := float64(len(bm.docs))
	bm.avgDL = float64(total) / n

	var sum float64
	var negative []string
	for term, freq := range bm.df {
		idf := math.Log(n-float64(freq)+0.5) - math.Log(float64(freq)+0.5)
		bm.idf[term] = idf
		sum += idf
		if idf < 0 {
			negative = append(negative, term)
		}
	}
	floor := 0.0
	if len(bm.idf) > 0 {
		floor = bm.epsilon * sum / float64(len(bm.idf))
	}
	for _, term := range negative {
		bm.idf[term] = floor
	}
}

// Search returns up to topK positive-scoring documents, best first.
// Ties keep insertion order.
func (bm *BM25) Search(query string, topK int) []Scored {
	terms := Tokenize(query)
	if len(terms) == 0 || len(bm.docs) == 0 || topK <= 0 {
		return nil
	}
	bm.prepare()

	var hits []Scored
	for i, d := range bm.docs {
		var score float64
		for _, term := range terms {
			f := d.tf[term]
			if f == 0 {
				continue
			}
			norm := f + bm.k1*(1-bm.b+bm.b*float64(d.length)/bm.avgDL)
			score += bm.idf[term] * f * (bm.k1 + 1) / norm
		}
		if score > 0 {
			hits = append(hits, Scored{Doc: i, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Tokenize lower-cases text and splits it into alphanumeric words,
// breaking snake_case and camelCase identifiers. Single-character tokens
// are dropped.
func Tokenize(text string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 1 {
			tokens = append(tokens, strings.ToLower(string(cur)))
		}
		cur = cur[:0]
	}

	var prev rune
	for _, r := range text {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if unicode.IsUpper(r) && unicode.IsLower(prev) {
				flush()
			}
			cur = append(cur, r)
		default:
			flush()
		}
		prev = r
	}
	flush()
	return tokens
}

// Index ranks the elements of one catalog by relevance to a query.
type Index struct {
	elements []types.CodeElement
	bm       *BM25
}

// NewIndex indexes each element's name, docstring and code.
func NewIndex(elements []types.CodeElement) *Index {
	ix := &Index{elements: elements, bm: NewBM25(0, 0)}
	for _, e := range elements {
		ix.bm.Add(e.Name + " " + e.Docstring + " " + e.Code)
	}
	return ix
}

// Rank returns the k most relevant elements, best first.
func (ix *Index) Rank(query string, k int) []types.CodeElement {
	hits := ix.bm.Search(query, k)
	out := make([]types.CodeElement, len(hits))
	for i, h := range hits {
		out[i] = ix.elements[h.Doc]
	}
	return out
}

// Rank is a one-shot NewIndex(elements).Rank(query, k).
func Rank(elements []types.CodeElement, query string, k int) []types.CodeElement {
	return NewIndex(elements).Rank(query, k)
}
