package hocr

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/hocrpdf/pkg/geometry"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument(readFixture(t, "page.hocr"), nil)
	require.NoError(t, err)

	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, "tesseract 5.3.0", doc.Metadata["ocr-system"])
	require.Len(t, doc.Pages, 1)

	page := doc.Pages[0]
	assert.Equal(t, ocrtree.ClassPage, page.Class)
	assert.Equal(t, geometry.BoundingBox{Right: 1000, Bottom: 1400}, *page.BBox)
	assert.Equal(t, 300.0, page.DPI)
	assert.Equal(t, "scan 01.png", page.ImageName)
	assert.Equal(t, 0, page.PageNumber)

	lines := page.Lines()
	require.Len(t, lines, 3)

	first := lines[0]
	assert.Equal(t, geometry.Baseline{Slope: -0.1, Intercept: -3}, first.Baseline)
	assert.Equal(t, "40", first.Metadata["x_size"])
	require.Len(t, first.Children, 2)

	hello := first.Children[0]
	assert.Equal(t, "Hello", hello.Text)
	require.NotNil(t, hello.Confidence)
	assert.InDelta(t, 0.96, *hello.Confidence, 1e-9)

	world := first.Children[1]
	assert.Equal(t, "world", world.Text)
	require.NotNil(t, world.Font)
	assert.Equal(t, "Times New Roman", world.Font.Family)
	assert.Equal(t, 12.0, world.Font.Size)

	assert.Equal(t, ocrtree.ClassHeader, lines[1].Class)

	par := page.Paragraphs()[0]
	assert.Equal(t, "eng", par.Language)
	assert.Equal(t, ocrtree.DirectionLTR, par.Direction)
}

func TestMalformedWordBBoxDegrades(t *testing.T) {
	logger, logs := testLogger()
	page, err := ParsePage(readFixture(t, "page.hocr"), logger)
	require.NoError(t, err)

	header := page.Lines()[1]
	broken := header.Children[0]
	assert.Equal(t, "broken", broken.Text)
	require.NotNil(t, broken.BBox)
	assert.Equal(t, geometry.BoundingBox{}, *broken.BBox)
	assert.Contains(t, logs.String(), "malformed bbox")
}

func TestMissingBBoxesAreDerived(t *testing.T) {
	page, err := ParsePage(readFixture(t, "page.hocr"), nil)
	require.NoError(t, err)

	want := geometry.BoundingBox{Left: 500, Top: 1000, Right: 900, Bottom: 1050}
	line := page.Lines()[2]
	assert.Equal(t, want, *line.BBox)

	area := page.Children[1]
	assert.Equal(t, ocrtree.ClassContentArea, area.Class)
	assert.Equal(t, want, *area.BBox)
}

func TestParsePageErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no page", `<html><body><p>nothing</p></body></html>`},
		{"page without bbox", `<div class="ocr_page" title="image x.png"></div>`},
		{"page with zero size", `<div class="ocr_page" title="bbox 0 0 0 0"></div>`},
		{"page with negative bbox", `<div class="ocr_page" title="bbox -1 0 10 10"></div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePage([]byte(tt.data), nil)
			var ierr *ocrtree.InputFormatError
			assert.True(t, errors.As(err, &ierr), "got %v", err)
		})
	}
}

func TestParsePageUsesFirstPage(t *testing.T) {
	data := `<body>
<div class="ocr_page" id="p1" title="bbox 0 0 100 100"></div>
<div class="ocr_page" id="p2" title="bbox 0 0 200 200"></div>
</body>`
	logger, logs := testLogger()
	page, err := ParsePage([]byte(data), logger)
	require.NoError(t, err)
	assert.Equal(t, "p1", page.ID)
	assert.Contains(t, logs.String(), "more than one ocr_page")

	doc, err := ParseDocument([]byte(data), logger)
	require.NoError(t, err)
	assert.Len(t, doc.Pages, 2)
}

func TestLaterUnusablePagesAreSkipped(t *testing.T) {
	data := `<body>
<div class="ocr_page" id="p1" title="bbox 0 0 100 100">
 <span class="ocrx_word" title="bbox 10 10 50 30">ok</span>
</div>
<div class="ocr_page" id="p2" title="no bbox here"></div>
</body>`

	logger, logs := testLogger()
	page, err := ParsePage([]byte(data), logger)
	require.NoError(t, err)
	assert.Equal(t, "p1", page.ID)
	assert.Equal(t, "ok", page.Words()[0].Text)

	logs.Reset()
	doc, err := ParseDocument([]byte(data), logger)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "p1", doc.Pages[0].ID)
	assert.Contains(t, logs.String(), "skipping unusable ocr_page")
	assert.Contains(t, logs.String(), "id=p2")

	swapped := `<body>
<div class="ocr_page" id="p1" title="no bbox here"></div>
<div class="ocr_page" id="p2" title="bbox 0 0 100 100"></div>
</body>`
	_, err = ParseDocument([]byte(swapped), nil)
	var ierr *ocrtree.InputFormatError
	assert.ErrorAs(t, err, &ierr)
	_, err = ParsePage([]byte(swapped), nil)
	assert.ErrorAs(t, err, &ierr)
}

func TestMalformedLineBBoxIsDerived(t *testing.T) {
	data := `<div class="ocr_page" title="bbox 0 0 1000 1400">
 <span class="ocr_line" id="l1" title="bbox 100 100 30x 150; baseline 0 -3">
  <span class="ocrx_word" title="bbox 100 100 300 150">Hello</span>
 </span>
</div>`
	logger, logs := testLogger()
	page, err := ParsePage([]byte(data), logger)
	require.NoError(t, err)

	line := page.Lines()[0]
	require.NotNil(t, line.BBox)
	assert.Equal(t, geometry.BoundingBox{Left: 100, Top: 100, Right: 300, Bottom: 150}, *line.BBox)
	assert.Equal(t, geometry.Baseline{Intercept: -3}, line.Baseline)
	assert.Contains(t, logs.String(), "deriving it from children")
}

func TestParseLatin1(t *testing.T) {
	page, err := ParsePage(readFixture(t, "latin1.hocr"), nil)
	require.NoError(t, err)
	words := page.Words()
	require.Len(t, words, 1)
	assert.Equal(t, "café", words[0].Text)
}

func TestCharacters(t *testing.T) {
	data := `<div class="ocr_page" title="bbox 0 0 100 100">
<span class="ocr_line" title="bbox 0 0 50 20">
<span class="ocrx_cinfo" title="bbox 0 0 10 20">a</span><span class="ocrx_cinfo" title="bbox 10 0 20 20">b</span>
</span></div>`
	page, err := ParsePage([]byte(data), nil)
	require.NoError(t, err)
	line := page.Lines()[0]
	assert.Empty(t, line.Words())
	assert.Len(t, line.Chars(), 2)
	assert.Equal(t, "a b", line.Content())
}

func TestTitleProperties(t *testing.T) {
	props := ParseTitle(`bbox 1 2 3 4; baseline 0.015 -18; textangle 90; x_wconf 93`)

	b, err := props.BBox()
	require.NoError(t, err)
	assert.Equal(t, geometry.BoundingBox{Left: 1, Top: 2, Right: 3, Bottom: 4}, b)

	bl, err := props.Baseline()
	require.NoError(t, err)
	assert.Equal(t, geometry.Baseline{Slope: 0.015, Intercept: -18}, bl)

	angle, ok := props.Float("textangle")
	assert.True(t, ok)
	assert.Equal(t, 90.0, angle)

	for _, title := range []string{"bbox 1 2 3", "bbox 1.5 2 3 4", "bbox 5 5 1 1", "no bbox here"} {
		_, err := ParseBoundingBoxFromTitle(title)
		assert.Error(t, err, title)
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	doc, err := ParseDocument(readFixture(t, "page.hocr"), nil)
	require.NoError(t, err)

	out, err := Generate(doc)
	require.NoError(t, err)
	assert.Contains(t, out, `class="ocr_page"`)
	assert.Contains(t, out, `<meta name="ocr-system" content="tesseract 5.3.0"/>`)

	again, err := ParseDocument([]byte(out), nil)
	require.NoError(t, err)
	require.Len(t, again.Pages, 1)

	a, b := doc.Pages[0], again.Pages[0]
	assert.Equal(t, *a.BBox, *b.BBox)
	assert.Equal(t, a.DPI, b.DPI)
	assert.Equal(t, a.ImageName, b.ImageName)

	wa, wb := a.Words(), b.Words()
	require.Len(t, wb, len(wa))
	for i := range wa {
		assert.Equal(t, wa[i].Text, wb[i].Text)
		assert.Equal(t, *wa[i].BBox, *wb[i].BBox)
	}
	assert.Equal(t, a.Lines()[0].Baseline, b.Lines()[0].Baseline)
}

func TestExtractText(t *testing.T) {
	doc, err := ParseDocument(readFixture(t, "page.hocr"), nil)
	require.NoError(t, err)

	assert.Equal(t, "Hello world\nbroken ﬁle\n\nagain here\n", ExtractText(doc))
}
