package ui

import (
	"time"

	"github.com/flitreader/flit/utils"
)

// Document is a piece of text the user wants to read. It can come from a
// local file, a URL, stdin, or the text input screen.
type Document struct {
	// Full contents, with any frontmatter already stripped.
	Body string

	// What to call the document in the status bar. For files this is the
	// path relative to the working directory.
	Note string

	// Path on disk, when the document is backed by a local file. Documents
	// from stdin, URLs, or typed text leave it empty.
	Path string

	Modtime time.Time
}

// isCode reports whether the document should be treated as source code
// rather than markdown or prose.
func (d Document) isCode() bool {
	return d.Path != "" && !utils.IsMarkdownFile(d.Path)
}
