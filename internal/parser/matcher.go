package parser

import (
	"regexp"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// Rule recognises the first line of one declaration shape. Pattern must
// capture the declared name in its first group.
type Rule struct {
	Kind    types.ElementKind
	Pattern *regexp.Regexp
}

// Match reports whether line starts a declaration of this shape and
// returns the declared name.
func (r Rule) Match(line string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(line)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// RuleSet is the ordered rule table of one language family. Earlier
// rules take priority over later ones.
type RuleSet struct {
	Language types.Language
	Rules    []Rule

	// SkipPrivate drops declarations whose name starts with an underscore.
	SkipPrivate bool
	// Docstrings enables triple-quote docstring extraction.
	Docstrings bool
}

// Match is a declaration found on a single line.
type Match struct {
	Kind types.ElementKind
	Name string
}

// Matcher dispatches a line to the rule table of its language family.
type Matcher struct {
	sets map[types.Language]*RuleSet
}

// NewMatcher creates a matcher over the given rule tables.
func NewMatcher(sets ...*RuleSet) *Matcher {
	m := &Matcher{sets: make(map[types.Language]*RuleSet, len(sets))}
	for _, rs := range sets {
		m.Register(rs)
	}
	return m
}

// DefaultMatcher returns a matcher for every built-in language family.
func DefaultMatcher() *Matcher {
	return NewMatcher(PythonRules(), JavaScriptRules())
}

// Register adds or replaces the rule table for rs.Language.
func (m *Matcher) Register(rs *RuleSet) {
	m.sets[rs.Language] = rs
}

// RuleSet returns the rule table registered for lang.
func (m *Matcher) RuleSet(lang types.Language) (*RuleSet, bool) {
	rs, ok := m.sets[lang]
	return rs, ok
}

// Match tests line against the rules of lang in priority order. Only the
// first matching rule is reported. Unknown languages never match.
func (m *Matcher) Match(lang types.Language, line string) (Match, bool) {
	rs, ok := m.sets[lang]
	if !ok {
		return Match{}, false
	}
	for _, r := range rs.Rules {
		if name, ok := r.Match(line); ok {
			return Match{Kind: r.Kind, Name: name}, true
		}
	}
	return Match{}, false
}
