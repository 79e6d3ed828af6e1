package pdfocr

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/gardar/hocrpdf/pkg/geometry"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

// Hook customizes how a page is assembled. Hooks run in registration
// order before the page is rendered and may be called concurrently for
// different pages.
type Hook interface {
	// FilterImage may replace the background image of page. A nil result
	// leaves the decision to the next hook.
	FilterImage(page *ocrtree.Element, img []byte) ([]byte, error)
	// Validate rejects a page that cannot be assembled.
	Validate(page *ocrtree.Element, img []byte) error
}

// runHooks applies FilterImage until a hook returns an image, then runs
// every Validate and stops at the first error.
func runHooks(hooks []Hook, page *ocrtree.Element, img []byte) ([]byte, error) {
	for _, h := range hooks {
		filtered, err := h.FilterImage(page, img)
		if err != nil {
			return nil, fmt.Errorf("filter image: %w", err)
		}
		if filtered != nil {
			img = filtered
			break
		}
	}
	for _, h := range hooks {
		if err := h.Validate(page, img); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// PageGeometryHook gives a page without dimensions the pixel size of its
// background image. Cloud OCR results without page dimensions depend on
// it. Pages that are still zero-sized afterwards fail validation.
type PageGeometryHook struct {
	Logger *slog.Logger
}

func (h PageGeometryHook) FilterImage(page *ocrtree.Element, img []byte) ([]byte, error) {
	if page.BBox != nil && !page.BBox.IsZero() || len(img) == 0 {
		return nil, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}
	box := geometry.BoundingBox{Right: float64(cfg.Width), Bottom: float64(cfg.Height)}
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("page has no dimensions, using image size", "page", page.ID, "width", cfg.Width, "height", cfg.Height)
	page.BBox = &box
	return nil, nil
}

func (PageGeometryHook) Validate(page *ocrtree.Element, _ []byte) error {
	if page.BBox == nil || page.BBox.IsZero() {
		return &ocrtree.InputFormatError{Reason: fmt.Sprintf("page %q has no dimensions, supply its image to size it", page.ID)}
	}
	return nil
}
