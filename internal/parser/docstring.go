package parser

import "strings"

var docstringMarkers = []string{`"""`, `'''`}

// ExtractDocstring looks for a triple-quoted block opening within the
// lim.DocstringLookahead lines after the declaration at index decl.
//
// A block closed on its opening line yields the text between the markers.
// Otherwise lines are accumulated until one contains the same marker, for
// at most lim.DocstringSpan lines counting the opening one; an unclosed
// block yields whatever was accumulated. ok is false when no block opens.
//
// Whitespace is normalized: every accumulated line is trimmed, blank lines
// are dropped and the rest are joined with single spaces, so a blank line
// inside the block never produces a double space.
func ExtractDocstring(lines []string, decl int, lim Limits) (doc string, ok bool) {
	if decl < 0 || decl >= len(lines) {
		return "", false
	}

	last := min(decl+lim.DocstringLookahead, len(lines)-1)
	for i := decl + 1; i <= last; i++ {
		line := strings.TrimSpace(lines[i])
		marker := openingMarker(line)
		if marker == "" {
			continue
		}

		rest := line[len(marker):]
		if end := strings.Index(rest, marker); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}

		pieces := []string{rest}
		stop := min(i+lim.DocstringSpan, len(lines))
		for j := i + 1; j < stop; j++ {
			if end := strings.Index(lines[j], marker); end >= 0 {
				pieces = append(pieces, lines[j][:end])
				return joinPieces(pieces), true
			}
			pieces = append(pieces, lines[j])
		}
		return joinPieces(pieces), true
	}
	return "", false
}

func openingMarker(line string) string {
	for _, m := range docstringMarkers {
		if strings.HasPrefix(line, m) {
			return m
		}
	}
	return ""
}

// joinPieces trims each piece and joins the non-empty ones with a space.
func joinPieces(pieces []string) string {
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
