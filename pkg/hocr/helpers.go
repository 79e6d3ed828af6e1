package hocr

import (
	"strings"

	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

// ExtractText extracts all text from a document.
// Each OCR line becomes one line of text, paragraphs are separated by a
// blank line and pages by a form feed.
func ExtractText(doc *ocrtree.Document) string {
	var builder strings.Builder

	for i, page := range doc.Pages {
		if i > 0 {
			builder.WriteString("\f")
		}
		extractPageText(&builder, page)
	}

	return builder.String()
}

// extractPageText writes the lines of page, grouped by paragraph.
func extractPageText(builder *strings.Builder, page *ocrtree.Element) {
	paragraphs := page.Paragraphs()
	if len(paragraphs) == 0 {
		paragraphs = []*ocrtree.Element{page}
	}

	// Track processed lines to avoid duplication
	processed := make(map[*ocrtree.Element]bool)
	for i, para := range paragraphs {
		if i > 0 {
			builder.WriteString("\n")
		}
		extractLinesText(builder, para, processed)
	}

	// Lines outside of any paragraph
	var rest []*ocrtree.Element
	for _, line := range page.Lines() {
		if !processed[line] {
			rest = append(rest, line)
		}
	}
	if len(rest) > 0 && len(processed) > 0 {
		builder.WriteString("\n")
	}
	for _, line := range rest {
		extractLineText(builder, line)
	}
}

// extractLinesText writes every line of el, or all of its words as a
// single line when el has no line elements.
func extractLinesText(builder *strings.Builder, el *ocrtree.Element, processed map[*ocrtree.Element]bool) {
	lines := el.Lines()
	if len(lines) == 0 {
		if text := el.Content(); text != "" {
			extractLineText(builder, el)
		}
		return
	}
	for _, line := range lines {
		extractLineText(builder, line)
		processed[line] = true
	}
}

// extractLineText processes text from a line and its words
func extractLineText(builder *strings.Builder, line *ocrtree.Element) {
	builder.WriteString(line.Content())
	builder.WriteString("\n")
}
