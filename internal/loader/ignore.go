package loader

import (
	"bufio"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// ignoreRule is one compiled .gitignore line.
type ignoreRule struct {
	pattern  string
	glob     glob.Glob
	negate   bool
	dirOnly  bool
	anchored bool // matched against the relative path instead of the base name
}

func (r ignoreRule) match(relPath, name string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	if r.anchored {
		return r.glob.Match(relPath)
	}
	return r.glob.Match(name)
}

// ruleSet combines the configured excludes with .gitignore rules.
type ruleSet struct {
	excludeDirs  map[string]bool
	excludeFiles []glob.Glob
	gitignore    []ignoreRule
}

func newRuleSet(cfg Config) *ruleSet {
	rs := &ruleSet{excludeDirs: make(map[string]bool, len(cfg.ExcludeDirs))}
	for _, d := range cfg.ExcludeDirs {
		rs.excludeDirs[d] = true
	}
	for _, pat := range cfg.ExcludeFiles {
		g, err := glob.Compile(pat)
		if err != nil {
			log.Printf("[loader] bad exclude pattern %q: %v", pat, err)
			continue
		}
		rs.excludeFiles = append(rs.excludeFiles, g)
	}
	return rs
}

func (rs *ruleSet) skipDir(relPath, name string) bool {
	if rs.excludeDirs[name] {
		return true
	}
	return rs.gitignored(relPath, name, true)
}

func (rs *ruleSet) skipFile(relPath, name string) bool {
	for _, g := range rs.excludeFiles {
		if g.Match(name) {
			return true
		}
	}
	return rs.gitignored(relPath, name, false)
}

// gitignored evaluates the rules in order; the last matching rule wins.
// Files under an ignored directory never get here because the walk skips
// the directory itself.
func (rs *ruleSet) gitignored(relPath, name string, isDir bool) bool {
	ignored := false
	for _, r := range rs.gitignore {
		if r.match(relPath, name, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// addGitignore loads .gitignore patterns from the repository root.
func (rs *ruleSet) addGitignore(rootPath string) {
	f, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if rule, ok := parseIgnoreLine(scanner.Text()); ok {
			rs.gitignore = append(rs.gitignore, rule)
		}
	}
}

func parseIgnoreLine(line string) (ignoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	rule := ignoreRule{pattern: line}
	if strings.HasPrefix(line, "!") {
		rule.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		rule.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		rule.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if strings.Contains(line, "/") {
		rule.anchored = true
	}
	if line == "" {
		return ignoreRule{}, false
	}

	g, err := glob.Compile(line, '/')
	if err != nil {
		log.Printf("[loader] bad .gitignore pattern %q: %v", rule.pattern, err)
		return ignoreRule{}, false
	}
	rule.glob = g
	return rule, true
}
