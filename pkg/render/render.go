// Package render turns an OCR page into PDF content stream instructions
// that place each recognized word over its position in the scanned image.
//
// Every line becomes one text object whose text matrix carries the
// line's baseline rotation. Words are positioned with relative moves
// along that line and stretched with horizontal scaling so the measured
// text spans the word's bounding box exactly. All coordinates are
// converted to PDF user space (bottom-left origin) as they are emitted;
// no page-level flip matrix is used.
package render

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/gardar/hocrpdf/pkg/content"
	"github.com/gardar/hocrpdf/pkg/fonts"
	"github.com/gardar/hocrpdf/pkg/geometry"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

const (
	// DefaultDPI applies when neither the page nor the options carry a
	// resolution.
	DefaultDPI = 300.0
	// MinFontSize is the smallest font size emitted, in points.
	MinFontSize = 0.1
	// SlopeSnap is the baseline slope below which lines are treated as
	// horizontal.
	SlopeSnap = 0.005
	// MaxLineAngle is the steepest baseline, in degrees, that is rendered.
	MaxLineAngle = 89.0
)

// Options control rendering.
type Options struct {
	ShowBoundingBoxes bool         // Draw paragraph, line and word boxes
	InvisibleText     bool         // Text render mode 3 instead of 0
	InterwordSpaces   bool         // Append a space to every word
	Font              fonts.Font   // Defaults to the glyphless font
	DPI               float64      // Overrides the page resolution when > 0
	Logger            *slog.Logger // Defaults to slog.Default()
}

// TransformError describes a line or word that could not be rendered.
// Rendering logs it and carries on with the rest of the page.
type TransformError struct {
	Class  ocrtree.Class
	ID     string
	Reason string
}

func (e *TransformError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("render %s %q: %s", e.Class, e.ID, e.Reason)
	}
	return fmt.Sprintf("render %s: %s", e.Class, e.Reason)
}

// Page is the rendered text layer of one OCR page.
type Page struct {
	Width        float64 // Page width in points
	Height       float64 // Page height in points
	DPI          float64 // Resolution used for the conversion
	Font         fonts.Font
	Instructions []content.Instruction
}

// Content returns the serialized content stream.
func (p *Page) Content() []byte {
	return content.Serialize(p.Instructions)
}

// renderer holds the per-call state of Render.
type renderer struct {
	opts     Options
	font     fonts.Font
	logger   *slog.Logger
	dpi      float64
	origin   geometry.BoundingBox
	pageHpx  float64
	height   float64
	builder  *content.Builder
	textMode int
}

// Render converts page, which must be a page element with a bounding box,
// into content stream instructions. The tree is only read.
func Render(page *ocrtree.Element, opts Options) (*Page, error) {
	if page == nil || page.Class != ocrtree.ClassPage {
		return nil, &ocrtree.InputFormatError{Reason: "render needs an ocr_page element"}
	}
	if page.BBox == nil || page.BBox.IsZero() {
		return nil, &ocrtree.InputFormatError{Reason: "page has no dimensions"}
	}

	dpi := DefaultDPI
	if page.DPI > 0 {
		dpi = page.DPI
	}
	if opts.DPI != 0 {
		dpi = opts.DPI
	}
	if err := geometry.ValidateDPI(dpi); err != nil {
		return nil, err
	}

	r := &renderer{
		opts:    opts,
		font:    opts.Font,
		logger:  opts.Logger,
		dpi:     dpi,
		origin:  *page.BBox,
		pageHpx: page.BBox.Height(),
	}
	if r.font == nil {
		r.font = fonts.NewGlyphless()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.textMode = content.RenderFill
	if opts.InvisibleText {
		r.textMode = content.RenderInvisible
	}
	r.height = geometry.PixelToPoint(r.pageHpx, dpi)
	r.builder = content.NewBuilder(r.logger)

	r.builder.Push()
	if opts.ShowBoundingBoxes {
		r.drawParagraphs(page)
	}
	for _, l := range r.collectLines(page) {
		r.renderLine(l)
	}
	r.builder.Pop()

	return &Page{
		Width:        geometry.PixelToPoint(page.BBox.Width(), dpi),
		Height:       r.height,
		DPI:          dpi,
		Font:         r.font,
		Instructions: r.builder.Build(),
	}, nil
}

// rect converts a pixel box, relative to the page origin, into PDF space.
func (r *renderer) rect(b geometry.BoundingBox) geometry.Rect {
	shifted := geometry.BoundingBox{
		Left:   b.Left - r.origin.Left,
		Top:    b.Top - r.origin.Top,
		Right:  b.Right - r.origin.Left,
		Bottom: b.Bottom - r.origin.Top,
	}
	rect, err := geometry.BBoxToRect(shifted, r.dpi, r.pageHpx)
	if err != nil {
		r.logger.Warn("cannot convert bounding box", "bbox", b, "error", err)
	}
	return rect
}

// boxOf returns the bounding box of el, deriving it from the children
// when el has none or only the degraded all-zero box. Degraded boxes of
// children do not count.
func boxOf(el *ocrtree.Element) (geometry.BoundingBox, bool) {
	if el.BBox != nil && *el.BBox != (geometry.BoundingBox{}) {
		return *el.BBox, true
	}
	var (
		box   geometry.BoundingBox
		found bool
	)
	for _, c := range el.Children {
		cb, ok := boxOf(c)
		if !ok {
			continue
		}
		if !found {
			box, found = cb, true
			continue
		}
		box = box.Union(cb)
	}
	return box, found
}

func (r *renderer) drawParagraphs(page *ocrtree.Element) {
	for _, par := range page.Paragraphs() {
		if par.Content() == "" {
			continue
		}
		box, ok := boxOf(par)
		if !ok {
			continue
		}
		pr := r.rect(box)
		r.builder.Push().
			SetFillColor(0, 1, 1).
			SetLineWidth(0).
			Rect(pr.X1, pr.Y1, pr.Width(), pr.Height()).
			Fill().
			Pop()
	}
}

type line struct {
	el  *ocrtree.Element
	box geometry.BoundingBox
}

// collectLines returns the line-class elements of page sorted top to
// bottom. A page with words but no lines yields a single pseudo-line
// holding all of its words.
func (r *renderer) collectLines(page *ocrtree.Element) []line {
	elements := page.Lines()
	if len(elements) == 0 {
		words := page.Words()
		if len(words) == 0 {
			return nil
		}
		pseudo := &ocrtree.Element{Class: ocrtree.ClassLine, Children: words}
		elements = []*ocrtree.Element{pseudo}
	}

	lines := make([]line, 0, len(elements))
	for _, el := range elements {
		box, ok := boxOf(el)
		if !ok {
			r.logger.Warn("skipping line without bounding box", "line", el.ID)
			continue
		}
		lines = append(lines, line{el: el, box: box})
	}
	slices.SortStableFunc(lines, func(a, b line) int {
		return cmp.Compare(a.box.Top, b.box.Top)
	})
	return lines
}

// lineMetrics holds the placement of one line in PDF space.
type lineMetrics struct {
	rect      geometry.Rect
	slope     float64
	cos, sin  float64
	fontSize  float64
	baselineY float64
}

// metrics computes rotation, font size and baseline of a line.
func (r *renderer) metrics(l line) (lineMetrics, error) {
	m := lineMetrics{rect: r.rect(l.box)}
	lineHeight := m.rect.Height()

	m.slope = l.el.Baseline.Slope
	if math.Abs(m.slope) < SlopeSnap {
		m.slope = 0
	}
	angle := math.Atan(m.slope)
	if math.Abs(angle) > MaxLineAngle*math.Pi/180 {
		return m, &TransformError{
			Class:  l.el.Class,
			ID:     l.el.ID,
			Reason: fmt.Sprintf("baseline angle %.2f° is too steep", angle*180/math.Pi),
		}
	}
	m.cos, m.sin = math.Cos(angle), math.Sin(angle)

	intercept := geometry.PixelToPoint(l.el.Baseline.Intercept, r.dpi)
	var clamped bool
	m.fontSize, clamped = fontSize(lineHeight, intercept, m.cos)
	if clamped {
		r.logger.Warn("line too small, clamping font size",
			"line", l.el.ID, "height", lineHeight, "intercept", intercept, "size", MinFontSize)
	}
	m.baselineY = m.rect.Y1 - intercept
	return m, nil
}

// fontSize returns the font size that fills a line of height lineHeight
// above a baseline offset by intercept, clamped to MinFontSize.
func fontSize(lineHeight, intercept, cos float64) (size float64, clamped bool) {
	size = (lineHeight - math.Abs(intercept)) / cos
	if math.IsNaN(size) || size < MinFontSize {
		return MinFontSize, true
	}
	return size, false
}

func (r *renderer) renderLine(l line) {
	m, err := r.metrics(l)
	if err != nil {
		r.logger.Warn("skipping line", "error", err)
		return
	}

	b := r.builder
	if r.opts.ShowBoundingBoxes {
		lr := m.rect
		b.Push().
			SetStrokeColor(0, 0, 1).
			SetLineWidth(0.5).
			Rect(lr.X1, lr.Y1, lr.Width(), lr.Height()).
			Stroke().
			SetStrokeColor(1, 0, 1).
			Line(lr.X1, m.baselineY, lr.X2, m.baselineY-m.slope*lr.Width()).
			Pop()
	}

	b.BeginText().
		SetFont(r.font.ResourceName(), m.fontSize).
		SetTextRenderMode(r.textMode)
	if r.textMode == content.RenderFill {
		b.SetFillGray(0)
	}
	b.SetTextMatrix(m.cos, -m.sin, m.sin, m.cos, m.rect.X1, m.baselineY)

	items := l.el.Words()
	if len(items) == 0 {
		items = l.el.Chars()
	}

	cursorX, cursorY := m.rect.X1, m.baselineY
	var drawn []geometry.Rect
	for _, w := range items {
		text := CleanText(w.Text)
		if text == "" {
			continue
		}
		box, ok := boxOf(w)
		if !ok || box.Width() == 0 {
			r.logger.Warn("skipping word with empty bounding box", "word", w.ID, "text", text)
			continue
		}
		wr := r.rect(box)
		boxWidth := wr.Width()
		if r.opts.InterwordSpaces {
			text += " "
			boxWidth += r.font.TextWidth(" ", m.rect.Height())
		}

		b.MoveText(wr.X1-cursorX, m.baselineY-cursorY)
		cursorX, cursorY = wr.X1, m.baselineY

		if measured := r.font.TextWidth(text, m.fontSize); measured > 0 {
			encoded, err := r.font.TextEncode(text)
			if err != nil {
				r.logger.Warn("cannot encode word", "word", w.ID, "error", err)
			} else {
				b.SetHorizontalScaling(HorizontalScale(boxWidth, measured)).
					ShowText(encoded)
			}
		}
		drawn = append(drawn, wr)
	}
	b.EndText()

	if r.opts.ShowBoundingBoxes && len(drawn) > 0 {
		b.Push().
			SetStrokeColor(0, 1, 0).
			SetLineWidth(0.25).
			SetDash([]float64{2, 2}, 0)
		for _, wr := range drawn {
			b.Rect(wr.X1, wr.Y1, wr.Width(), wr.Height()).Stroke()
		}
		b.Pop()
	}
}

// HorizontalScale returns the Tz percentage that stretches text measuring
// measured points to span boxWidth points.
func HorizontalScale(boxWidth, measured float64) float64 {
	return 100 * (boxWidth / measured)
}
