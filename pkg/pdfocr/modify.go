package pdfocr

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gardar/hocrpdf/pkg/content"
	"github.com/gardar/hocrpdf/pkg/fonts"
)

// ErrTextLayerExists is returned by ApplyOCR for a page that already has
// a glyphless text layer when Force is not set.
var ErrTextLayerExists = errors.New("page already has an OCR text layer")

// ApplyOCR adds the text layers of inputs to an existing PDF, starting at
// the 1-based page startPage, and writes the result to w. Each layer is
// scaled from the OCR page size to the target page's MediaBox. Input
// images are only used by hooks; the existing page content stays as is.
func ApplyOCR(pdfData []byte, inputs []PageInput, startPage int, cfg Config, w io.Writer) error {
	if len(pdfData) == 0 {
		return fmt.Errorf("input PDF data is empty")
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no OCR pages provided")
	}
	if startPage < 1 {
		return fmt.Errorf("start page must be at least 1, got %d", startPage)
	}

	pdfCtx, err := readContext(pdfData)
	if err != nil {
		return err
	}
	last := startPage + len(inputs) - 1
	if last > pdfCtx.PageCount {
		return fmt.Errorf("OCR pages %d-%d exceed the %d pages of the PDF", startPage, last, pdfCtx.PageCount)
	}

	logger := cfg.logger()
	for i := range inputs {
		pageNr := startPage + i
		found, err := hasTextLayer(pdfCtx.XRefTable, pageNr)
		if err != nil {
			return fmt.Errorf("layer detection failed on page %d: %w", pageNr, err)
		}
		if !found {
			continue
		}
		if !cfg.Force {
			return fmt.Errorf("page %d: %w, use --force to reapply", pageNr, ErrTextLayerExists)
		}
		logger.Warn("page already has OCR, reapplying will duplicate the text", "page", pageNr)
	}

	font, err := fonts.New(cfg.Font)
	if err != nil {
		return err
	}
	rendered, _, err := renderPages(context.Background(), inputs, cfg, font)
	if err != nil {
		return err
	}

	fontRef, err := font.Register(pdfCtx.XRefTable)
	if err != nil {
		return fmt.Errorf("failed to register font: %w", err)
	}
	for i, page := range rendered {
		pageNr := startPage + i
		box, err := mediaBox(pdfCtx.XRefTable, pageNr)
		if err != nil {
			return fmt.Errorf("page %d: %w", pageNr, err)
		}
		sx, sy := normalizeScale(page.Width, page.Height, box.Width(), box.Height())
		logger.Debug("scaling text layer to page", "page", pageNr, "sx", sx, "sy", sy)

		scaled := make([]content.Instruction, 0, len(page.Instructions)+3)
		scaled = append(scaled,
			content.Instruction{Operator: "q"},
			content.Instruction{
				Operands: []content.Operand{
					content.Number(sx), content.Number(0), content.Number(0),
					content.Number(sy), content.Number(box.LL.X), content.Number(box.LL.Y),
				},
				Operator: "cm",
			})
		scaled = append(scaled, page.Instructions...)
		scaled = append(scaled, content.Instruction{Operator: "Q"})

		if err := addTextLayer(pdfCtx.XRefTable, pageNr, *fontRef, content.Serialize(scaled), true); err != nil {
			return fmt.Errorf("failed to add text layer to page %d: %w", pageNr, err)
		}
	}

	return writeContext(pdfCtx, cfg, w)
}
