// Package pdfaf normalizes PDF text, image and table extraction across
// interchangeable parsing backends. Every backend consumes a Blob and emits
// the same kind of Document records, so callers can swap extraction engines
// without touching downstream code.
package pdfaf

import (
	"fmt"
	"strings"
)

// Document is one unit of extracted content: a single page in page mode, or
// the whole file in single mode. Metadata always carries the canonical keys
// checked by ValidateMetadata.
type Document struct {
	Content  string         `json:"page_content"`
	Metadata map[string]any `json:"metadata"`
}

// Mode controls how a parser slices a file into Documents.
type Mode string

const (
	// ModePage emits one Document per page.
	ModePage Mode = "page"
	// ModeSingle emits one Document for the whole file, pages joined with
	// the configured delimiter.
	ModeSingle Mode = "single"
)

// DefaultPagesDelimiter separates pages in single mode. The form feed keeps
// page boundaries recoverable after concatenation.
const DefaultPagesDelimiter = "\n\f"

// ImagesFormat selects how recognized image text is embedded in page content.
type ImagesFormat string

const (
	// ImagesText inlines the recognized text as-is.
	ImagesText ImagesFormat = "text"
	// ImagesMarkdown wraps the recognized text in a markdown image tag.
	ImagesMarkdown ImagesFormat = "markdown-img"
	// ImagesHTML wraps the recognized text in an HTML img tag.
	ImagesHTML ImagesFormat = "html-img"
)

// TableFormat selects how detected tables are rendered into page content.
type TableFormat string

const (
	// TablesNone disables table extraction.
	TablesNone TableFormat = ""
	// TablesMarkdown renders tables as markdown pipe tables.
	TablesMarkdown TableFormat = "markdown"
	// TablesHTML renders tables as HTML <table> elements.
	TablesHTML TableFormat = "html"
	// TablesCSV renders tables as RFC 4180 CSV.
	TablesCSV TableFormat = "csv"
)

// TextMode selects the text assembly strategy for backends that expose
// positioned text runs.
type TextMode string

const (
	// TextPlain uses the backend's native reading-order extraction.
	TextPlain TextMode = "plain"
	// TextLayout reassembles text from positioned runs, preserving rows
	// and paragraph gaps.
	TextLayout TextMode = "layout"
)

func normalizeMode(m Mode) (Mode, error) {
	switch m {
	case "":
		return ModePage, nil
	case ModePage, ModeSingle:
		return m, nil
	}
	return "", fmt.Errorf("mode must be %q or %q, got %q", ModeSingle, ModePage, m)
}

func normalizeImagesFormat(f ImagesFormat) (ImagesFormat, error) {
	switch f {
	case "":
		return ImagesText, nil
	case ImagesText, ImagesMarkdown, ImagesHTML:
		return f, nil
	}
	return "", fmt.Errorf("images format must be %q, %q or %q, got %q",
		ImagesText, ImagesMarkdown, ImagesHTML, f)
}

func normalizeTableFormat(f TableFormat) (TableFormat, error) {
	switch f {
	case TablesNone, TablesMarkdown, TablesHTML, TablesCSV:
		return f, nil
	}
	return "", fmt.Errorf("table format must be %q, %q or %q, got %q",
		TablesMarkdown, TablesHTML, TablesCSV, f)
}

func normalizeTextMode(m TextMode) (TextMode, error) {
	switch m {
	case "":
		return TextPlain, nil
	case TextPlain, TextLayout:
		return m, nil
	}
	return "", fmt.Errorf("text mode must be %q or %q, got %q", TextPlain, TextLayout, m)
}

// normalizeNewlines collapses CR and CRLF line endings to plain newlines so
// paragraph boundaries look the same regardless of backend.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
