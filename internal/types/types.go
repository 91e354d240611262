package types

// ElementKind is the kind of a declaration found in source.
type ElementKind string

const (
	KindFunction ElementKind = "function"
	KindClass    ElementKind = "class"
)

// Language identifies a supported language family.
type Language string

const (
	LangPython     Language = "python"     // indentation-based declarations
	LangJavaScript Language = "javascript" // brace-delimited, dynamic idioms
)

// CodeElement is one function or class declaration detected in a file.
// Values are created fresh on every catalog build and never mutated after.
type CodeElement struct {
	Type      ElementKind `json:"type"`
	Name      string      `json:"name"`
	FilePath  string      `json:"file_path"` // relative to the scanned root, slash-separated
	StartLine int         `json:"start_line"`
	EndLine   int         `json:"end_line"`
	Code      string      `json:"code"`
	Docstring string      `json:"docstring"`
	Language  Language    `json:"language"`
}

// FileEntry is one row of a repository's file-structure listing.
type FileEntry struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
}
