package pdfocr

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/gardar/hocrpdf/pkg/fonts"
)

// DetectTextLayer returns the 1-based numbers of the pages that already
// use a glyphless OCR font.
func DetectTextLayer(pdfData []byte) ([]int, error) {
	if len(pdfData) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}
	ctx, err := readContext(pdfData)
	if err != nil {
		return nil, err
	}

	var pages []int
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		found, err := hasTextLayer(ctx.XRefTable, pageNr)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		if found {
			pages = append(pages, pageNr)
		}
	}
	return pages, nil
}

// hasTextLayer reports whether any font reachable from the page's own or
// inherited resources is a glyphless OCR font.
func hasTextLayer(x *model.XRefTable, pageNr int) (bool, error) {
	pageDict, _, inh, err := x.PageDict(pageNr, false)
	if err != nil {
		return false, err
	}

	resDict, err := x.DereferenceDict(pageDict["Resources"])
	if err != nil {
		return false, err
	}
	if resDict == nil && inh != nil {
		resDict = inh.Resources
	}
	if resDict == nil {
		return false, nil
	}

	fontDict, err := x.DereferenceDict(resDict["Font"])
	if err != nil || fontDict == nil {
		return false, err
	}
	for _, obj := range fontDict {
		d, err := x.DereferenceDict(obj)
		if err != nil {
			return false, err
		}
		if d != nil && fonts.IsGlyphless(d) {
			return true, nil
		}
	}
	return false, nil
}

// readContext parses a PDF with pdfcpu using relaxed validation.
func readContext(pdfData []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(pdfData), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	return ctx, nil
}
