package hocr

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/gardar/hocrpdf/pkg/geometry"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

var charsetPattern = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?([A-Za-z0-9._:-]+)`)

// ParseDocument converts raw hOCR data into a Document holding every
// ocr_page element. The first page must have a usable bbox or the result
// is an InputFormatError; later pages without one are logged and skipped.
// A nil logger means slog.Default().
func ParseDocument(data []byte, logger *slog.Logger) (*ocrtree.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	result, nodes, err := parseTree(data, logger)
	if err != nil {
		return nil, err
	}

	p := parser{logger: logger}
	for i, n := range nodes {
		page, err := p.processPage(n)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			logger.Warn("skipping unusable ocr_page", "index", i, "id", getAttrVal(n, "id"), "error", err)
			continue
		}
		result.Pages = append(result.Pages, page)
	}
	return result, nil
}

// ParsePage returns the first page of an hOCR document. Further pages are
// logged and ignored without being parsed.
func ParsePage(data []byte, logger *slog.Logger) (*ocrtree.Element, error) {
	if logger == nil {
		logger = slog.Default()
	}
	_, nodes, err := parseTree(data, logger)
	if err != nil {
		return nil, err
	}
	if n := len(nodes); n > 1 {
		logger.Warn("hOCR contains more than one ocr_page, using the first", "pages", n)
	}
	p := parser{logger: logger}
	return p.processPage(nodes[0])
}

// parseTree decodes and parses data, returning the document metadata
// and the ocr_page nodes in document order.
func parseTree(data []byte, logger *slog.Logger) (*ocrtree.Document, []*html.Node, error) {
	decoded, err := decode(data, logger)
	if err != nil {
		return nil, nil, &ocrtree.InputFormatError{Source: "hocr", Reason: "cannot decode document", Err: err}
	}

	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, nil, &ocrtree.InputFormatError{Source: "hocr", Reason: "invalid markup", Err: err}
	}

	result := &ocrtree.Document{Metadata: make(map[string]string)}
	extractDocumentMeta(result, doc)

	// Find all ocr_page elements; pages nested in pages are not pages
	var pages []*html.Node
	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, string(ocrtree.ClassPage)) {
			pages = append(pages, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)

	if len(pages) == 0 {
		return nil, nil, &ocrtree.InputFormatError{Source: "hocr", Reason: "no ocr_page elements found"}
	}
	return result, pages, nil
}

// decode converts data to UTF-8 according to its declared charset.
// Charsets that cannot be resolved are read as ISO-8859-1.
func decode(data []byte, logger *slog.Logger) ([]byte, error) {
	m := charsetPattern.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	name := strings.ToLower(string(m[1]))
	if name == "utf-8" || name == "utf8" {
		return data, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		logger.Warn("unknown hOCR charset, decoding as ISO-8859-1", "charset", name)
		enc = charmap.ISO8859_1
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return decoded, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) Properties {
	result := make(Properties)
	parts := strings.Split(title, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		items := strings.Fields(part)
		if len(items) > 0 {
			key := items[0]
			values := items[1:]
			result[key] = values
		}
	}

	return result
}

// ParseBoundingBoxFromTitle extracts the bbox property of a title string.
func ParseBoundingBoxFromTitle(title string) (geometry.BoundingBox, error) {
	return ParseTitle(title).BBox()
}

// extractDocumentMeta extracts document-level metadata from the head section
func extractDocumentMeta(result *ocrtree.Document, doc *html.Node) {
	var findHead func(*html.Node) *html.Node
	findHead = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "head" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := findHead(c); found != nil {
				return found
			}
		}
		return nil
	}

	// Check for lang attribute on the html tag
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "html" {
			result.Language = langOf(c)
		}
	}

	head := findHead(doc)
	if head == nil {
		return
	}

	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "title":
			if c.FirstChild != nil {
				result.Title = strings.TrimSpace(c.FirstChild.Data)
			}
		case "meta":
			name := getAttrVal(c, "name")
			content := getAttrVal(c, "content")
			if name == "" || content == "" {
				continue
			}
			switch {
			case strings.HasPrefix(name, "ocr-"):
				result.Metadata[name] = content
			case name == "description":
				result.Description = content
			case name == "dc.language":
				result.Language = content
			}
		}
	}
}

type parser struct {
	logger *slog.Logger
}

// processPage builds the page element and its subtree. The page bbox is
// mandatory since it carries the page dimensions.
func (p *parser) processPage(n *html.Node) (*ocrtree.Element, error) {
	title := getAttrVal(n, "title")
	props := ParseTitle(title)
	bbox, err := props.BBox()
	if err != nil {
		return nil, &ocrtree.InputFormatError{Source: "hocr", Reason: "ocr_page has no usable bbox", Err: err}
	}
	if bbox.IsZero() {
		return nil, &ocrtree.InputFormatError{Source: "hocr", Reason: "ocr_page has zero size"}
	}

	page := ocrtree.NewElement(ocrtree.ClassPage, &bbox)
	p.applyAttributes(page, n)
	p.applyProperties(page, props)

	if res, ok := props["scan_res"]; ok && len(res) > 0 {
		if dpi, ok := props.Float("scan_res"); ok && dpi > 0 {
			page.DPI = dpi
		} else {
			p.logger.Warn("ignoring malformed scan_res", "value", strings.Join(res, " "))
		}
	}
	if v, ok := props.Int("ppageno"); ok {
		page.PageNumber = v
	}
	if v, ok := props.Int("lpageno"); ok {
		page.LogicalPageNumber = v
	}
	if img, ok := props.String("image"); ok {
		page.ImageName = img
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.processChildren(page, c)
	}
	page.MaximizeBBoxes()
	return page, nil
}

// processChildren attaches the recognized elements found at or below n
// to parent. Unrecognized elements are transparent.
func (p *parser) processChildren(parent *ocrtree.Element, n *html.Node) {
	if n.Type != html.ElementNode {
		return
	}

	class, ok := classOf(n)
	if !ok || class == ocrtree.ClassPage {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.processChildren(parent, c)
		}
		return
	}

	el := p.processElement(class, n)
	parent.Append(el)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.processChildren(el, c)
	}
}

// processElement builds a non-page element. Missing or malformed word
// and character coordinates degrade to a zero bbox. Interior elements
// without a usable bbox are left without a box so it can be derived from
// their children.
func (p *parser) processElement(class ocrtree.Class, n *html.Node) *ocrtree.Element {
	el := ocrtree.NewElement(class, nil)
	p.applyAttributes(el, n)

	title, hasTitle := attr(n, "title")
	props := ParseTitle(title)

	leaf := class == ocrtree.ClassWord || class == ocrtree.ClassChar
	if hasTitle || leaf {
		bbox, err := props.BBox()
		switch {
		case err == nil:
			el.BBox = &bbox
		case leaf:
			p.logger.Warn("malformed bbox, using a zero box",
				"class", class, "id", el.ID, "title", title, "error", err)
			el.BBox = &geometry.BoundingBox{}
		default:
			p.logger.Warn("malformed bbox, deriving it from children",
				"class", class, "id", el.ID, "title", title, "error", err)
		}
	}
	p.applyProperties(el, props)

	if class.IsLine() {
		bl, err := props.Baseline()
		if err != nil {
			p.logger.Warn("malformed baseline, using horizontal baseline", "id", el.ID, "error", err)
		}
		el.Baseline = bl
	}

	if leaf {
		el.Text = extractTextContent(n)
	}
	return el
}

// applyAttributes copies the id, language and direction attributes.
func (p *parser) applyAttributes(el *ocrtree.Element, n *html.Node) {
	el.ID = getAttrVal(n, "id")
	el.Language = langOf(n)
	switch strings.ToLower(getAttrVal(n, "dir")) {
	case "ltr":
		el.Direction = ocrtree.DirectionLTR
	case "rtl":
		el.Direction = ocrtree.DirectionRTL
	}
}

// applyProperties copies the common title properties.
func (p *parser) applyProperties(el *ocrtree.Element, props Properties) {
	if angle, ok := props.Float("textangle"); ok {
		el.TextAngle = angle
	}
	if conf, ok := props.Float("x_wconf"); ok {
		c := min(max(conf/100, 0), 1)
		el.Confidence = &c
	}
	family, hasFamily := props.String("x_font")
	size, hasSize := props.Float("x_fsize")
	if hasFamily || hasSize {
		el.Font = &ocrtree.FontInfo{Family: family, Size: size}
	}

	for k, v := range props {
		if handled[k] {
			continue
		}
		if el.Metadata == nil {
			el.Metadata = make(map[string]string)
		}
		el.Metadata[k] = strings.Join(v, " ")
	}
}

// classOf returns the first recognized hOCR class of n.
func classOf(n *html.Node) (ocrtree.Class, bool) {
	for _, name := range strings.Fields(getAttrVal(n, "class")) {
		if c, ok := ocrtree.ParseClass(name); ok {
			return c, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	for _, name := range strings.Fields(getAttrVal(n, "class")) {
		if name == class {
			return true
		}
	}
	return false
}

func langOf(n *html.Node) string {
	if v := getAttrVal(n, "lang"); v != "" {
		return v
	}
	return getAttrVal(n, "xml:lang")
}

// extractTextContent gets all text from a node and its children
func extractTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractTextContent(c))
	}
	return strings.TrimSpace(text.String())
}

// attr returns the value of attribute key, matching namespaced keys such
// as xml:lang by their full name.
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		if name == key {
			return a.Val, true
		}
	}
	return "", false
}

// Get the value of a specific attribute from a node
func getAttrVal(n *html.Node, attrName string) string {
	v, _ := attr(n, attrName)
	return v
}
