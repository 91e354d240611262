package parser

import (
	"regexp"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

var (
	pyFunc  = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(` + ident + `+)\s*\(`)
	pyClass = regexp.MustCompile(`^\s*class\s+(` + ident + `+)`)
)

// PythonRules returns the rule table for the indentation-based family.
// Declarations are anchored at the start of the line.
func PythonRules() *RuleSet {
	return &RuleSet{
		Language: types.LangPython,
		Rules: []Rule{
			{Kind: types.KindFunction, Pattern: pyFunc},
			{Kind: types.KindClass, Pattern: pyClass},
		},
		SkipPrivate: true,
		Docstrings:  true,
	}
}
