package gdocai

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/hocrpdf/pkg/geometry"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

// FromProto converts a Document AI document into pages.
// A nil logger means slog.Default().
func FromProto(docProto *documentaipb.Document, logger *slog.Logger) *ocrtree.Document {
	if logger == nil {
		logger = slog.Default()
	}

	docLang := getDocumentLanguage(docProto)
	result := &ocrtree.Document{
		Title:    "Document OCR",
		Language: docLang,
		Metadata: map[string]string{
			"ocr-system":          "Document AI OCR",
			"ocr-number-of-pages": fmt.Sprintf("%d", len(docProto.GetPages())),
			"ocr-capabilities":    "ocrp_lang ocr_page ocr_carea ocr_par ocr_line ocrx_word",
		},
	}

	c := converter{logger: logger, fullText: []rune(docProto.GetText())}
	for _, page := range docProto.GetPages() {
		result.Pages = append(result.Pages, c.page(page))
	}
	if len(result.Pages) == 0 {
		logger.Warn("Document AI document has no pages, producing an empty page")
		result.Pages = []*ocrtree.Element{ocrtree.NewElement(ocrtree.ClassPage, &geometry.BoundingBox{})}
	}

	if langs := documentLanguages(result); langs != "" {
		result.Metadata["ocr-langs"] = langs
	}
	return result
}

type converter struct {
	logger   *slog.Logger
	fullText []rune
}

// page converts a single Document AI page. Paragraphs are attached to
// the block containing them, lines to their paragraph and tokens to
// their line; whatever has no container hangs off the page.
func (c *converter) page(page *documentaipb.Document_Page) *ocrtree.Element {
	pageNumber := int(page.GetPageNumber())
	dim := page.GetDimension()
	if dim == nil || dim.GetWidth() <= 0 || dim.GetHeight() <= 0 {
		c.logger.Warn("Document AI page has no dimension", "page", pageNumber)
		dim = nil
	}

	pageBox := geometry.BoundingBox{}
	if dim != nil {
		pageBox.Right = math.Round(float64(dim.GetWidth()))
		pageBox.Bottom = math.Round(float64(dim.GetHeight()))
	}
	ocrPage := ocrtree.NewElement(ocrtree.ClassPage, &pageBox)
	ocrPage.ID = fmt.Sprintf("page_%d", pageNumber)
	ocrPage.PageNumber = max(pageNumber-1, 0)
	ocrPage.Language = detectedLanguage(page.GetDetectedLanguages())

	// Track which paragraphs and lines are assigned to avoid duplication
	assignedParas := make(map[int]bool)
	assignedLines := make(map[int]bool)

	paragraph := func(pidx int, para *documentaipb.Document_Page_Paragraph, id string) *ocrtree.Element {
		ocrPar := ocrtree.NewElement(ocrtree.ClassParagraph, c.bbox(para.GetLayout(), dim, false))
		ocrPar.ID = id
		ocrPar.Language = detectedLanguage(para.GetDetectedLanguages())
		ocrPar.Confidence = confidence(para.GetLayout())
		for lidx, line := range page.GetLines() {
			if assignedLines[lidx] || !isElementInParent(line.GetLayout(), para.GetLayout()) {
				continue
			}
			assignedLines[lidx] = true
			ocrPar.Append(c.line(line, page, dim, fmt.Sprintf("%s_line_%d", id, lidx)))
		}
		assignedParas[pidx] = true
		return ocrPar
	}

	// Convert content areas (using ocr_carea class)
	for aidx, block := range page.GetBlocks() {
		ocrArea := ocrtree.NewElement(ocrtree.ClassContentArea, c.bbox(block.GetLayout(), dim, false))
		ocrArea.ID = fmt.Sprintf("carea_%d_%d", pageNumber, aidx)
		ocrArea.Language = detectedLanguage(block.GetDetectedLanguages())

		for pidx, para := range page.GetParagraphs() {
			if assignedParas[pidx] || !isElementInParent(para.GetLayout(), block.GetLayout()) {
				continue
			}
			ocrArea.Append(paragraph(pidx, para, fmt.Sprintf("par_%d_%d_%d", pageNumber, aidx, pidx)))
		}
		ocrPage.Append(ocrArea)
	}

	// Paragraphs not assigned to any block
	for pidx, para := range page.GetParagraphs() {
		if !assignedParas[pidx] {
			ocrPage.Append(paragraph(pidx, para, fmt.Sprintf("par_%d_direct_%d", pageNumber, pidx)))
		}
	}

	// Lines not assigned to any paragraph
	for lidx, line := range page.GetLines() {
		if !assignedLines[lidx] {
			ocrPage.Append(c.line(line, page, dim, fmt.Sprintf("line_%d_direct_%d", pageNumber, lidx)))
		}
	}

	// Without any lines the tokens are the only content left
	if len(page.GetLines()) == 0 {
		for tidx, token := range page.GetTokens() {
			ocrPage.Append(c.token(token, dim, fmt.Sprintf("word_%d_%d", pageNumber, tidx)))
		}
	}

	ocrPage.MaximizeBBoxes()
	return ocrPage
}

// line converts a proto line and the tokens it contains.
func (c *converter) line(line *documentaipb.Document_Page_Line, page *documentaipb.Document_Page,
	dim *documentaipb.Document_Page_Dimension, id string) *ocrtree.Element {

	ocrLine := ocrtree.NewElement(ocrtree.ClassLine, c.bbox(line.GetLayout(), dim, false))
	ocrLine.ID = id
	ocrLine.Language = detectedLanguage(line.GetDetectedLanguages())
	ocrLine.Confidence = confidence(line.GetLayout())

	for tidx, token := range page.GetTokens() {
		if !isElementInParent(token.GetLayout(), line.GetLayout()) {
			continue
		}
		ocrLine.Append(c.token(token, dim, fmt.Sprintf("%s_word_%d", id, tidx)))
	}
	return ocrLine
}

func (c *converter) token(token *documentaipb.Document_Page_Token,
	dim *documentaipb.Document_Page_Dimension, id string) *ocrtree.Element {

	word := ocrtree.NewElement(ocrtree.ClassWord, c.bbox(token.GetLayout(), dim, true))
	word.ID = id
	word.Text = tokenText(token, c.fullText)
	word.Language = detectedLanguage(token.GetDetectedLanguages())
	word.Confidence = confidence(token.GetLayout())
	if style := token.GetStyleInfo(); style != nil {
		word.Font = &ocrtree.FontInfo{
			Family:    style.GetFontType(),
			Size:      float64(style.GetFontSize()),
			Bold:      style.GetBold(),
			Italic:    style.GetItalic(),
			Underline: style.GetUnderlined(),
			SmallCaps: style.GetSmallcaps(),
		}
	}
	return word
}

// bbox converts Document AI coordinates to pixel coordinates.
// Normalized vertices (0-1) are scaled by the page dimension; absolute
// vertices are used as they are. A layout without a polygon yields nil,
// or the zero box for leaves.
func (c *converter) bbox(layout *documentaipb.Document_Page_Layout,
	dim *documentaipb.Document_Page_Dimension, leaf bool) *geometry.BoundingBox {

	var points []geometry.Point
	poly := layout.GetBoundingPoly()
	switch {
	case len(poly.GetNormalizedVertices()) > 0 && dim != nil:
		for _, v := range poly.GetNormalizedVertices() {
			points = append(points, geometry.Point{
				X: math.Round(float64(v.GetX() * dim.GetWidth())),
				Y: math.Round(float64(v.GetY() * dim.GetHeight())),
			})
		}
	case len(poly.GetVertices()) > 0:
		for _, v := range poly.GetVertices() {
			points = append(points, geometry.Point{X: float64(v.GetX()), Y: float64(v.GetY())})
		}
	}
	for i := range points {
		points[i].X = max(points[i].X, 0)
		points[i].Y = max(points[i].Y, 0)
	}

	box, ok := geometry.BoundsOf(points)
	if !ok {
		if !leaf {
			return nil
		}
		c.logger.Warn("Document AI token has no bounding polygon, using a zero box")
	}
	return &box
}

func confidence(layout *documentaipb.Document_Page_Layout) *float64 {
	if layout == nil || layout.GetConfidence() <= 0 {
		return nil
	}
	conf := min(float64(layout.GetConfidence()), 1)
	return &conf
}

func detectedLanguage(langs []*documentaipb.Document_Page_DetectedLanguage) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0].GetLanguageCode()
}

// getDocumentLanguage finds the most common language in the document
// by counting language occurrences across all elements
func getDocumentLanguage(doc *documentaipb.Document) string {
	langCount := make(map[string]int)

	for _, page := range doc.GetPages() {
		for _, lang := range page.GetDetectedLanguages() {
			langCount[lang.GetLanguageCode()]++
		}
		for _, token := range page.GetTokens() {
			for _, lang := range token.GetDetectedLanguages() {
				langCount[lang.GetLanguageCode()]++
			}
		}
	}

	// Find the most frequent language, ties broken by name
	var mostCommonLang string
	var highestCount int
	for lang, count := range langCount {
		if count > highestCount || count == highestCount && lang < mostCommonLang {
			highestCount = count
			mostCommonLang = lang
		}
	}
	return mostCommonLang
}

// documentLanguages collects all languages used in the document
func documentLanguages(doc *ocrtree.Document) string {
	allLangs := make(map[string]bool)
	if doc.Language != "" {
		allLangs[doc.Language] = true
	}
	for _, page := range doc.Pages {
		page.Walk(func(el *ocrtree.Element) bool {
			if el.Language != "" {
				allLangs[el.Language] = true
			}
			return true
		})
	}

	langsList := make([]string, 0, len(allLangs))
	for lang := range allLangs {
		langsList = append(langsList, lang)
	}
	sort.Strings(langsList)
	return strings.Join(langsList, ", ")
}

// isElementInParent checks if an element's text is contained within a
// parent's text, comparing their first text segments.
func isElementInParent(elementLayout, parentLayout *documentaipb.Document_Page_Layout) bool {
	elementSegs := elementLayout.GetTextAnchor().GetTextSegments()
	parentSegs := parentLayout.GetTextAnchor().GetTextSegments()
	if len(elementSegs) == 0 || len(parentSegs) == 0 {
		return false
	}

	elementStart := elementSegs[0].GetStartIndex()
	elementEnd := elementSegs[0].GetEndIndex()
	parentStart := parentSegs[0].GetStartIndex()
	parentEnd := parentSegs[0].GetEndIndex()

	return elementStart >= parentStart && elementEnd <= parentEnd
}
