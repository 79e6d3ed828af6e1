package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/net/html"

	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

var hocrTemplate = template.Must(template.New("hocr.tmpl").Funcs(template.FuncMap{
	"esc":   html.EscapeString,
	"tag":   tagOf,
	"title": titleOf,
	"leaf":  func(el *ocrtree.Element) bool { return len(el.Children) == 0 },
}).ParseFS(templateFS, "templates/hocr.tmpl"))

// Generate creates an hOCR document from doc.
// Uses the embedded template to generate a complete XHTML document
func Generate(doc *ocrtree.Document) (string, error) {
	var buf bytes.Buffer
	if err := hocrTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("error rendering hOCR template: %w", err)
	}
	return buf.String(), nil
}

func tagOf(el *ocrtree.Element) string {
	switch el.Class {
	case ocrtree.ClassPage, ocrtree.ClassContentArea:
		return "div"
	case ocrtree.ClassParagraph:
		return "p"
	}
	return "span"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// titleOf renders the title attribute of el.
func titleOf(el *ocrtree.Element) string {
	var props []string
	if el.BBox != nil {
		b := el.BBox
		props = append(props, fmt.Sprintf("bbox %s %s %s %s", num(b.Left), num(b.Top), num(b.Right), num(b.Bottom)))
	}
	if el.Class.IsLine() {
		props = append(props, fmt.Sprintf("baseline %s %s", num(el.Baseline.Slope), num(el.Baseline.Intercept)))
	}
	if el.TextAngle != 0 {
		props = append(props, "textangle "+num(el.TextAngle))
	}
	if el.Class == ocrtree.ClassPage {
		if el.ImageName != "" {
			props = append(props, "image "+strconv.Quote(el.ImageName))
		}
		if el.DPI > 0 {
			props = append(props, fmt.Sprintf("scan_res %s %s", num(el.DPI), num(el.DPI)))
		}
		props = append(props, "ppageno "+strconv.Itoa(el.PageNumber))
		if el.LogicalPageNumber != 0 {
			props = append(props, "lpageno "+strconv.Itoa(el.LogicalPageNumber))
		}
	}
	if el.Confidence != nil {
		props = append(props, "x_wconf "+strconv.Itoa(int(*el.Confidence*100+0.5)))
	}
	if el.Font != nil {
		if el.Font.Family != "" {
			props = append(props, "x_font "+strconv.Quote(el.Font.Family))
		}
		if el.Font.Size > 0 {
			props = append(props, "x_fsize "+num(el.Font.Size))
		}
	}

	keys := make([]string, 0, len(el.Metadata))
	for k := range el.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		props = append(props, strings.TrimSpace(k+" "+el.Metadata[k]))
	}
	return strings.Join(props, "; ")
}
