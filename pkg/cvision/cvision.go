// Package cvision reads the JSON output of Google Cloud Vision document
// text detection into ocrtree pages.
//
// Vision has no line level: words are grouped into lines by the detected
// breaks on their last symbol, and the boxes of lines, paragraphs and
// blocks are derived from their words once each page is complete.
package cvision

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gardar/hocrpdf/pkg/geometry"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

// lineEnding lists the break types that end a line.
var lineEnding = map[string]bool{
	BreakLineBreak:    true,
	BreakEOLSureSpace: true,
	BreakHyphen:       true,
}

// ParseDocument converts the first response of a Vision JSON document
// into pages. A response without text yields one empty zero-sized page.
// A nil logger means slog.Default().
func ParseDocument(data []byte, logger *slog.Logger) (*ocrtree.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ocrtree.InputFormatError{Source: "vision", Reason: "invalid JSON", Err: err}
	}

	doc := &ocrtree.Document{
		Metadata: map[string]string{
			"ocr-system":       "Google Cloud Vision",
			"ocr-capabilities": "ocr_page ocr_carea ocr_par ocr_line ocrx_word",
		},
	}

	var annotation *TextAnnotation
	if len(resp.Responses) > 0 {
		if len(resp.Responses) > 1 {
			logger.Warn("Vision JSON contains more than one response, using the first", "responses", len(resp.Responses))
		}
		r := resp.Responses[0]
		if r.Error != nil {
			return nil, &ocrtree.InputFormatError{
				Source: "vision",
				Reason: fmt.Sprintf("response carries error %d: %s", r.Error.Code, r.Error.Message),
			}
		}
		annotation = r.FullTextAnnotation
	}

	if annotation == nil || len(annotation.Pages) == 0 {
		logger.Warn("Vision response has no text, producing an empty page")
		doc.Pages = []*ocrtree.Element{emptyPage()}
		return doc, nil
	}

	p := parser{logger: logger}
	for i, vp := range annotation.Pages {
		doc.Pages = append(doc.Pages, p.page(vp, i+1))
	}
	if len(doc.Pages) > 0 {
		doc.Language = doc.Pages[0].Language
	}
	return doc, nil
}

// ParsePage returns the first page of a Vision JSON document.
func ParsePage(data []byte, logger *slog.Logger) (*ocrtree.Element, error) {
	doc, err := ParseDocument(data, logger)
	if err != nil {
		return nil, err
	}
	return doc.Pages[0], nil
}

func emptyPage() *ocrtree.Element {
	return ocrtree.NewElement(ocrtree.ClassPage, &geometry.BoundingBox{})
}

type parser struct {
	logger *slog.Logger
}

// page builds the tree for one Vision page: leaves first, then the
// derived boxes of every interior node.
func (p *parser) page(vp Page, number int) *ocrtree.Element {
	page := ocrtree.NewElement(ocrtree.ClassPage, &geometry.BoundingBox{
		Right:  float64(max(vp.Width, 0)),
		Bottom: float64(max(vp.Height, 0)),
	})
	page.ID = fmt.Sprintf("page_%d", number)
	page.PageNumber = number - 1
	page.Language = language(vp.Property)
	page.Confidence = confidence(vp.Confidence)

	for bi, block := range vp.Blocks {
		area := ocrtree.NewElement(ocrtree.ClassContentArea, nil)
		area.ID = fmt.Sprintf("block_%d_%d", number, bi+1)
		area.Polygon = polygon(block.BoundingBox)
		area.Language = language(block.Property)
		area.Confidence = confidence(block.Confidence)
		if block.BlockType != "" {
			area.Metadata = map[string]string{"block_type": block.BlockType}
		}

		for pi, para := range block.Paragraphs {
			par := ocrtree.NewElement(ocrtree.ClassParagraph, nil)
			par.ID = fmt.Sprintf("par_%d_%d_%d", number, bi+1, pi+1)
			par.Polygon = polygon(para.BoundingBox)
			par.Language = language(para.Property)
			par.Confidence = confidence(para.Confidence)
			p.lines(par, para.Words)
			area.Append(par)
		}
		page.Append(area)
	}

	page.MaximizeBBoxes()
	return page
}

// lines cuts the words of a paragraph into lines at line-ending breaks.
func (p *parser) lines(par *ocrtree.Element, words []Word) {
	var current *ocrtree.Element
	for _, w := range words {
		if current == nil {
			current = ocrtree.NewElement(ocrtree.ClassLine, nil)
			current.ID = fmt.Sprintf("%s_line_%d", par.ID, len(par.Children)+1)
			par.Append(current)
		}
		word := p.word(w)
		word.ID = fmt.Sprintf("%s_word_%d", current.ID, len(current.Children)+1)
		current.Append(word)

		if n := len(w.Symbols); n > 0 {
			if prop := w.Symbols[n-1].Property; prop != nil && prop.DetectedBreak != nil &&
				lineEnding[prop.DetectedBreak.Type] {
				current = nil
			}
		}
	}
}

func (p *parser) word(w Word) *ocrtree.Element {
	var text strings.Builder
	for _, s := range w.Symbols {
		text.WriteString(s.Text)
	}

	el := ocrtree.NewElement(ocrtree.ClassWord, nil)
	el.Text = text.String()
	el.Polygon = polygon(w.BoundingBox)
	el.Language = language(w.Property)
	el.Confidence = confidence(w.Confidence)

	box, ok := geometry.BoundsOf(el.Polygon)
	if !ok {
		p.logger.Warn("Vision word has no bounding polygon, using a zero box", "text", el.Text)
	}
	el.BBox = &box
	return el
}

// polygon converts vertices to points. Negative coordinates, which
// Vision reports for text touching the image edge, are clamped to zero.
func polygon(bp *BoundingPoly) []geometry.Point {
	if bp == nil {
		return nil
	}
	points := make([]geometry.Point, 0, len(bp.Vertices))
	for _, v := range bp.Vertices {
		points = append(points, geometry.Point{X: float64(max(v.X, 0)), Y: float64(max(v.Y, 0))})
	}
	return points
}

func language(prop *TextProperty) string {
	if prop == nil || len(prop.DetectedLanguages) == 0 {
		return ""
	}
	return prop.DetectedLanguages[0].LanguageCode
}

func confidence(c float64) *float64 {
	if c <= 0 {
		return nil
	}
	c = min(c, 1)
	return &c
}
