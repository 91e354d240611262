package loader

import (
	"os"
	"strings"

	"github.com/duyhunghd6/repo-analyzer/internal/util"
)

const utf8BOM = "\uFEFF"

// ReadLines reads one file and returns its lines in order.
// Decoding is lenient: see DecodeText.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return util.SplitLines(DecodeText(data)), nil
}

// DecodeText converts raw file bytes to text. Invalid UTF-8 sequences are
// dropped and a leading byte-order mark is removed.
func DecodeText(data []byte) string {
	s := strings.ToValidUTF8(string(data), "")
	return strings.TrimPrefix(s, utf8BOM)
}
