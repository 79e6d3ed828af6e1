package ocrtree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/hocrpdf/pkg/geometry"
)

func box(l, t, r, b float64) *geometry.BoundingBox {
	return &geometry.BoundingBox{Left: l, Top: t, Right: r, Bottom: b}
}

func word(text string, bb *geometry.BoundingBox) *Element {
	w := NewElement(ClassWord, bb)
	w.Text = text
	return w
}

func TestMaximizeBBoxesIsBottomUp(t *testing.T) {
	line1 := NewElement(ClassLine, nil).Append(
		word("Hello", box(10, 10, 50, 30)),
		word("world", box(60, 12, 120, 32)),
	)
	line2 := NewElement(ClassLine, nil).Append(
		word("again", box(10, 40, 70, 60)),
	)
	par := NewElement(ClassParagraph, nil).Append(line1, line2)
	area := NewElement(ClassContentArea, nil).Append(par)
	page := NewElement(ClassPage, box(0, 0, 200, 100)).Append(area)

	page.MaximizeBBoxes()

	assert.Equal(t, *box(10, 10, 120, 32), *line1.BBox)
	assert.Equal(t, *box(10, 40, 70, 60), *line2.BBox)
	assert.Equal(t, *box(10, 10, 120, 60), *par.BBox)
	assert.Equal(t, *box(10, 10, 120, 60), *area.BBox)
	assert.Equal(t, *box(0, 0, 200, 100), *page.BBox, "explicit boxes are kept")
}

func TestMaximizeBBoxesSkipsEmpty(t *testing.T) {
	par := NewElement(ClassParagraph, nil)
	page := NewElement(ClassPage, box(0, 0, 10, 10)).Append(par)
	page.MaximizeBBoxes()
	assert.Nil(t, par.BBox)
}

func TestMaximizeBBoxesIgnoresDegradedBoxes(t *testing.T) {
	line := NewElement(ClassLine, nil).Append(
		word("ok", box(40, 50, 80, 70)),
		word("bad", box(0, 0, 0, 0)),
	)
	line.MaximizeBBoxes()
	assert.Equal(t, *box(40, 50, 80, 70), *line.BBox)
}

func TestLinesAtAnyDepth(t *testing.T) {
	header := NewElement(ClassHeader, box(0, 0, 10, 10))
	line := NewElement(ClassLine, box(0, 20, 10, 30))
	caption := NewElement(ClassCaption, box(0, 40, 10, 50))
	page := NewElement(ClassPage, box(0, 0, 100, 100)).Append(
		header,
		NewElement(ClassContentArea, nil).Append(
			NewElement(ClassParagraph, nil).Append(line),
		),
		caption,
	)

	lines := page.Lines()
	require.Len(t, lines, 3)
	assert.Same(t, header, lines[0])
	assert.Same(t, line, lines[1])
	assert.Same(t, caption, lines[2])
}

func TestContent(t *testing.T) {
	par := NewElement(ClassParagraph, nil).Append(
		NewElement(ClassLine, nil).Append(word("Hello", nil), word(" ", nil), word("world", nil)),
	)
	assert.Equal(t, "Hello world", par.Content())
	assert.Equal(t, "", NewElement(ClassParagraph, nil).Content())
}

func TestParseClass(t *testing.T) {
	c, ok := ParseClass("ocr_textfloat")
	assert.True(t, ok)
	assert.True(t, c.IsLine())

	_, ok = ParseClass("ocr_separator")
	assert.False(t, ok)
	assert.False(t, ClassWord.IsLine())
}

func TestInputFormatError(t *testing.T) {
	inner := errors.New("boom")
	err := error(&InputFormatError{Source: "page.hocr", Reason: "no ocr_page", Err: inner})
	assert.Equal(t, "page.hocr: no ocr_page: boom", err.Error())
	assert.ErrorIs(t, err, inner)
}
