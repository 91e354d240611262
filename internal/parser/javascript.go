package parser

import (
	"regexp"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// JS-like function shapes, in priority order. The patterns are unanchored
// so declarations after `export`, `async` or indentation still match.
var (
	jsNamedFunc   = regexp.MustCompile(`function\s+(` + ident + `+)\s*\(`)
	jsMethodFunc  = regexp.MustCompile(`(` + ident + `+)\s*:\s*function\s*\(`)
	jsConstArrow  = regexp.MustCompile(`const\s+(` + ident + `+)\s*=\s*.*=>`)
	jsLetArrow    = regexp.MustCompile(`let\s+(` + ident + `+)\s*=\s*.*=>`)
	jsVarArrow    = regexp.MustCompile(`var\s+(` + ident + `+)\s*=\s*.*=>`)
	jsAssignArrow = regexp.MustCompile(`(` + ident + `+)\s*=\s*.*=>`)
)

// JavaScriptRules returns the rule table for the brace-delimited family.
// When several shapes match one line the earliest rule names it.
func JavaScriptRules() *RuleSet {
	return &RuleSet{
		Language: types.LangJavaScript,
		Rules: []Rule{
			{Kind: types.KindFunction, Pattern: jsNamedFunc},
			{Kind: types.KindFunction, Pattern: jsMethodFunc},
			{Kind: types.KindFunction, Pattern: jsConstArrow},
			{Kind: types.KindFunction, Pattern: jsLetArrow},
			{Kind: types.KindFunction, Pattern: jsVarArrow},
			{Kind: types.KindFunction, Pattern: jsAssignArrow},
		},
	}
}
