package pdfocr

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// normalizeScale returns the factors that rescale an OCR page of ocrW by
// ocrH points onto a PDF page of pdfW by pdfH points.
func normalizeScale(ocrW, ocrH, pdfW, pdfH float64) (sx, sy float64) {
	sx, sy = 1, 1
	if ocrW > 0 {
		sx = pdfW / ocrW
	}
	if ocrH > 0 {
		sy = pdfH / ocrH
	}
	return sx, sy
}

// mediaBox returns the page's own or inherited MediaBox, falling back to
// the page dimensions pdfcpu reports.
func mediaBox(x *model.XRefTable, pageNr int) (*types.Rectangle, error) {
	pageDict, _, inh, err := x.PageDict(pageNr, false)
	if err != nil {
		return nil, err
	}

	arr, err := x.DereferenceArray(pageDict["MediaBox"])
	if err != nil {
		return nil, fmt.Errorf("invalid MediaBox: %w", err)
	}
	if len(arr) == 4 {
		return x.RectForArray(arr)
	}
	if inh != nil && inh.MediaBox != nil {
		return inh.MediaBox, nil
	}

	dims, err := x.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to get page dimensions: %w", err)
	}
	if pageNr > len(dims) {
		return nil, fmt.Errorf("no dimensions for page %d", pageNr)
	}
	d := dims[pageNr-1]
	return types.NewRectangle(0, 0, d.Width, d.Height), nil
}
