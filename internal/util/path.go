package util

import (
	"path/filepath"
	"strings"
)

// RelativePath returns the slash-separated path of target relative to base.
// If no relative path exists, target is returned unchanged.
func RelativePath(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// SplitLines splits text into lines. "\r\n" is treated as a single line
// break and a trailing newline does not start an extra empty line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// LineRange joins lines [startLine, endLine] (1-indexed, inclusive).
// Out-of-range bounds are clamped.
func LineRange(lines []string, startLine, endLine int) string {
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return ""
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}
