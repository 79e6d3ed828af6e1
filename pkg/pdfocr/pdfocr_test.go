package pdfocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/gardar/hocrpdf/pkg/fonts"
	"github.com/gardar/hocrpdf/pkg/geometry"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

func testPage() *ocrtree.Element {
	word := func(text string, l, t, r, b float64) *ocrtree.Element {
		w := ocrtree.NewElement(ocrtree.ClassWord, &geometry.BoundingBox{Left: l, Top: t, Right: r, Bottom: b})
		w.Text = text
		return w
	}
	line := ocrtree.NewElement(ocrtree.ClassLine, &geometry.BoundingBox{Left: 100, Top: 100, Right: 600, Bottom: 150}).Append(
		word("Hello", 100, 100, 300, 150),
		word("world", 350, 100, 600, 150),
	)
	line.Baseline = geometry.Baseline{Intercept: -10}
	page := ocrtree.NewElement(ocrtree.ClassPage, &geometry.BoundingBox{Right: 1000, Bottom: 1400}).Append(
		ocrtree.NewElement(ocrtree.ClassParagraph, nil).Append(line),
	)
	page.MaximizeBBoxes()
	return page
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func scannedPDF(t *testing.T) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(50, 50, "scan")
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestTransformSinglePage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Validate = true

	var out bytes.Buffer
	require.NoError(t, Transform(PageInput{Page: testPage()}, cfg, &out))

	ctx, err := readContext(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, ctx.PageCount)

	dims, err := ctx.PageDims()
	require.NoError(t, err)
	assert.InDelta(t, 240, dims[0].Width, 0.01)
	assert.InDelta(t, 336, dims[0].Height, 0.01)

	pages, err := DetectTextLayer(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, pages)
}

func TestTransformDocumentWithImages(t *testing.T) {
	second := testPage()
	second.DPI = 150

	inputs := []PageInput{
		{Page: testPage(), Image: testPNG(t, 100, 140)},
		{Page: second, Image: testPNG(t, 50, 70)},
	}
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.Validate = true

	var out bytes.Buffer
	require.NoError(t, TransformDocument(context.Background(), inputs, cfg, &out))

	ctx, err := readContext(out.Bytes())
	require.NoError(t, err)
	require.Equal(t, 2, ctx.PageCount)
	dims, err := ctx.PageDims()
	require.NoError(t, err)
	assert.InDelta(t, 240, dims[0].Width, 0.01)
	assert.InDelta(t, 480, dims[1].Width, 0.01, "page resolution is honoured")

	pages, err := DetectTextLayer(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, pages)
}

func TestTransformCourier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Font = fonts.Courier
	cfg.Visible = true

	var out bytes.Buffer
	require.NoError(t, Transform(PageInput{Page: testPage()}, cfg, &out))

	pages, err := DetectTextLayer(out.Bytes())
	require.NoError(t, err)
	assert.Empty(t, pages, "Courier is not a glyphless layer")
}

func TestTransformErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, TransformDocument(context.Background(), nil, DefaultConfig(), &out))
	assert.Error(t, Transform(PageInput{}, DefaultConfig(), &out))

	empty := ocrtree.NewElement(ocrtree.ClassPage, &geometry.BoundingBox{})
	err := Transform(PageInput{Page: empty}, DefaultConfig(), &out)
	var inputErr *ocrtree.InputFormatError
	assert.True(t, errors.As(err, &inputErr))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err = TransformDocument(cancelled, []PageInput{{Page: testPage()}}, DefaultConfig(), &out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransformUsesImageSizeForEmptyPage(t *testing.T) {
	page := ocrtree.NewElement(ocrtree.ClassPage, &geometry.BoundingBox{})
	var out bytes.Buffer
	require.NoError(t, Transform(PageInput{Page: page, Image: testPNG(t, 600, 300)}, DefaultConfig(), &out))

	ctx, err := readContext(out.Bytes())
	require.NoError(t, err)
	dims, err := ctx.PageDims()
	require.NoError(t, err)
	assert.InDelta(t, 144, dims[0].Width, 0.01)
	assert.InDelta(t, 72, dims[0].Height, 0.01)
}

func TestApplyOCR(t *testing.T) {
	input := scannedPDF(t)

	pages, err := DetectTextLayer(input)
	require.NoError(t, err)
	assert.Empty(t, pages)

	cfg := DefaultConfig()
	cfg.Validate = true
	var out bytes.Buffer
	require.NoError(t, ApplyOCR(input, []PageInput{{Page: testPage()}}, 1, cfg, &out))

	pages, err = DetectTextLayer(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, pages)

	var again bytes.Buffer
	err = ApplyOCR(out.Bytes(), []PageInput{{Page: testPage()}}, 1, DefaultConfig(), &again)
	assert.ErrorIs(t, err, ErrTextLayerExists)

	cfg.Force = true
	require.NoError(t, ApplyOCR(out.Bytes(), []PageInput{{Page: testPage()}}, 1, cfg, &again))
}

func TestApplyOCRPageRange(t *testing.T) {
	input := scannedPDF(t)
	var out bytes.Buffer
	assert.Error(t, ApplyOCR(input, []PageInput{{Page: testPage()}}, 2, DefaultConfig(), &out))
	assert.Error(t, ApplyOCR(input, []PageInput{{Page: testPage()}}, 0, DefaultConfig(), &out))
	assert.Error(t, ApplyOCR(nil, []PageInput{{Page: testPage()}}, 1, DefaultConfig(), &out))
	assert.Error(t, ApplyOCR(input, nil, 1, DefaultConfig(), &out))
}

func TestNormalizeScale(t *testing.T) {
	sx, sy := normalizeScale(240, 336, 595.28, 841.89)
	assert.InDelta(t, 595.28/240, sx, 1e-9)
	assert.InDelta(t, 841.89/336, sy, 1e-9)

	sx, sy = normalizeScale(0, 0, 100, 100)
	assert.Equal(t, 1.0, sx)
	assert.Equal(t, 1.0, sy)
}

func TestPrepareImageConvertsBMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))

	data, imageType, err := prepareImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "PNG", imageType)
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	pngData := testPNG(t, 4, 4)
	data, imageType, err = prepareImage(pngData)
	require.NoError(t, err)
	assert.Equal(t, "PNG", imageType)
	assert.Equal(t, pngData, data)

	_, _, err = prepareImage([]byte("not an image"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := "bounding_boxes: true\nresolution: 150\nfont: courier\nworkers: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.BoundingBoxes)
	assert.Equal(t, 150.0, cfg.DPI)
	assert.Equal(t, fonts.Courier, cfg.Font)
	assert.Equal(t, 4, cfg.Workers)
	assert.Len(t, cfg.Hooks, 1, "defaults are kept")

	require.NoError(t, os.WriteFile(path, []byte("font: comic-sans\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
