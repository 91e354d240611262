package util

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/duyhunghd6/repo-analyzer/internal/types"
)

// Supported language extensions. Each maps to the family whose rule table
// the parser applies to the file.
var languageExtensions = map[string]types.Language{
	".py":  types.LangPython,
	".js":  types.LangJavaScript,
	".jsx": types.LangJavaScript,
	".mjs": types.LangJavaScript,
	".cjs": types.LangJavaScript,
}

// GetLanguageFromExtension returns the language family for a file extension.
// Returns empty string if unsupported.
func GetLanguageFromExtension(ext string) types.Language {
	return languageExtensions[strings.ToLower(ext)]
}

// GetLanguageFromPath returns the language family for a file path.
func GetLanguageFromPath(filePath string) types.Language {
	return GetLanguageFromExtension(filepath.Ext(filePath))
}

// IsSupportedFile returns true if the file extension is a supported language.
func IsSupportedFile(filePath string) bool {
	return GetLanguageFromPath(filePath) != ""
}

// SupportedExtensions returns all supported file extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(languageExtensions))
	for ext := range languageExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
