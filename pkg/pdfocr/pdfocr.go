// Package pdfocr assembles searchable PDFs from OCR pages.
//
// A text layer is rendered for every page and grafted onto a PDF page,
// either a new page built around the scanned image or a page of an
// existing PDF. The text is positioned exactly over the words it was
// recognized from and, by default, is invisible: the page looks like
// the scan but can be searched, selected and copied.
//
// Key Features:
//
// - Build new PDFs from OCR pages and their background images
// - Add text layers to existing PDFs, scaled to each page's MediaBox
// - Detect existing glyphless text layers to prevent duplication
// - Validate the result with pdfcpu
//
// Main Functions:
//
// - Transform and TransformDocument: create a new PDF
// - ApplyOCR: add text layers to an existing PDF
// - DetectTextLayer: find pages that already carry OCR text
package pdfocr

import (
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/gardar/hocrpdf/pkg/fonts"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
	"github.com/gardar/hocrpdf/pkg/render"
)

// PageInput is one OCR page and its optional background image.
type PageInput struct {
	Page  *ocrtree.Element
	Image []byte // PNG, JPEG, GIF, TIFF, BMP or WebP; nil for none
}

// Transform writes a single-page PDF for in to w.
func Transform(in PageInput, cfg Config, w io.Writer) error {
	return TransformDocument(context.Background(), []PageInput{in}, cfg, w)
}

// TransformDocument writes a PDF with one page per input to w. Pages are
// rendered concurrently and assembled in order; all pages share one font.
func TransformDocument(ctx context.Context, inputs []PageInput, cfg Config, w io.Writer) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no pages to transform")
	}
	font, err := fonts.New(cfg.Font)
	if err != nil {
		return err
	}

	rendered, images, err := renderPages(ctx, inputs, cfg, font)
	if err != nil {
		return err
	}

	base, err := createBasePDF(rendered, images)
	if err != nil {
		return err
	}
	pdfCtx, err := readContext(base)
	if err != nil {
		return err
	}

	fontRef, err := font.Register(pdfCtx.XRefTable)
	if err != nil {
		return fmt.Errorf("failed to register font: %w", err)
	}
	for i, page := range rendered {
		if err := addTextLayer(pdfCtx.XRefTable, i+1, *fontRef, page.Content(), false); err != nil {
			return fmt.Errorf("failed to add text layer to page %d: %w", i+1, err)
		}
	}

	return writeContext(pdfCtx, cfg, w)
}

// renderPages runs the hooks and renders every input. The returned
// images are the hook-filtered background images.
func renderPages(ctx context.Context, inputs []PageInput, cfg Config, font fonts.Font) ([]*render.Page, [][]byte, error) {
	rendered := make([]*render.Page, len(inputs))
	images := make([][]byte, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if in.Page == nil {
				return fmt.Errorf("page %d: no OCR page", i+1)
			}
			img, err := runHooks(cfg.Hooks, in.Page, in.Image)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			p, err := render.Render(in.Page, cfg.renderOptions(font))
			if err != nil {
				return fmt.Errorf("failed to render page %d: %w", i+1, err)
			}
			rendered[i], images[i] = p, img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rendered, images, nil
}

// writeContext optionally validates the document and writes it to w.
func writeContext(ctx *model.Context, cfg Config, w io.Writer) error {
	if cfg.Validate {
		if err := api.ValidateContext(ctx); err != nil {
			return fmt.Errorf("generated PDF is invalid: %w", err)
		}
		cfg.logger().Debug("generated PDF passed validation", "pages", ctx.PageCount)
	}
	if err := api.WriteContext(ctx, w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
