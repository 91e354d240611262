package parser

import (
	"strings"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
	"github.com/duyhunghd6/repo-analyzer/internal/util"
)

// Limits bounds snippet and docstring windows, counted in lines.
type Limits struct {
	FunctionLines int
	ClassLines    int
	// LanguageFunctionLines overrides FunctionLines per language family.
	LanguageFunctionLines map[types.Language]int

	DocstringLookahead int
	DocstringSpan      int
}

// DefaultLimits returns the standard extraction windows.
func DefaultLimits() Limits {
	return Limits{
		FunctionLines:         10,
		ClassLines:            5,
		LanguageFunctionLines: map[types.Language]int{types.LangJavaScript: 8},
		DocstringLookahead:    4,
		DocstringSpan:         10,
	}
}

// normalized replaces non-positive windows, per-language ones included,
// with their defaults.
func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.FunctionLines <= 0 {
		l.FunctionLines = d.FunctionLines
	}
	if l.ClassLines <= 0 {
		l.ClassLines = d.ClassLines
	}
	langs := make(map[types.Language]int, len(d.LanguageFunctionLines))
	for lang, n := range d.LanguageFunctionLines {
		langs[lang] = n
	}
	for lang, n := range l.LanguageFunctionLines {
		if n > 0 {
			langs[lang] = n
		}
	}
	l.LanguageFunctionLines = langs
	if l.DocstringLookahead <= 0 {
		l.DocstringLookahead = d.DocstringLookahead
	}
	if l.DocstringSpan <= 0 {
		l.DocstringSpan = d.DocstringSpan
	}
	return l
}

// SnippetLines returns the snippet window for a declaration kind.
func (l Limits) SnippetLines(lang types.Language, kind types.ElementKind) int {
	if kind == types.KindClass {
		return l.ClassLines
	}
	if n, ok := l.LanguageFunctionLines[lang]; ok && n > 0 {
		return n
	}
	return l.FunctionLines
}

// Parser turns the lines of one source file into code elements.
type Parser struct {
	matcher *Matcher
	limits  Limits
}

// New creates a parser with the built-in rule tables and default limits.
func New() *Parser {
	return NewWith(DefaultMatcher(), DefaultLimits())
}

// NewWith creates a parser with a custom matcher and limits.
func NewWith(m *Matcher, lim Limits) *Parser {
	if m == nil {
		m = DefaultMatcher()
	}
	return &Parser{matcher: m, limits: lim.normalized()}
}

// Limits returns the windows in effect.
func (p *Parser) Limits() Limits { return p.limits }

// Supports reports whether lang has a registered rule table.
func (p *Parser) Supports(lang types.Language) bool {
	_, ok := p.matcher.RuleSet(lang)
	return ok
}

// ParseLines scans lines top to bottom and emits one element per matching
// declaration line, in line order. relPath is recorded verbatim.
func (p *Parser) ParseLines(relPath string, lang types.Language, lines []string) []types.CodeElement {
	rs, ok := p.matcher.RuleSet(lang)
	if !ok {
		return nil
	}

	var elems []types.CodeElement
	for i, line := range lines {
		m, ok := p.matcher.Match(lang, line)
		if !ok {
			continue
		}
		if rs.SkipPrivate && strings.HasPrefix(m.Name, "_") {
			continue
		}

		start := i + 1
		end := min(i+p.limits.SnippetLines(lang, m.Kind), len(lines))

		var doc string
		if rs.Docstrings {
			doc, _ = ExtractDocstring(lines, i, p.limits)
		}

		elems = append(elems, types.CodeElement{
			Type:      m.Kind,
			Name:      m.Name,
			FilePath:  relPath,
			StartLine: start,
			EndLine:   end,
			Code:      util.LineRange(lines, start, end),
			Docstring: doc,
			Language:  lang,
		})
	}
	return elems
}

// ParseSource splits text into lines and parses them.
func (p *Parser) ParseSource(relPath string, lang types.Language, text string) []types.CodeElement {
	return p.ParseLines(relPath, lang, util.SplitLines(text))
}
