package cvision

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/hocrpdf/pkg/geometry"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

func TestParseGroupsWordsIntoLines(t *testing.T) {
	data, err := os.ReadFile("testdata/vision.json")
	require.NoError(t, err)

	page, err := ParsePage(data, nil)
	require.NoError(t, err)

	assert.Equal(t, geometry.BoundingBox{Right: 1000, Bottom: 1400}, *page.BBox)
	assert.Equal(t, "en", page.Language)

	lines := page.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "Hello world", lines[0].Content())
	assert.Equal(t, "sec-", lines[1].Content())
	assert.Equal(t, "ond line", lines[2].Content())

	hello := lines[0].Children[0]
	require.NotNil(t, hello.Confidence)
	assert.InDelta(t, 0.99, *hello.Confidence, 1e-9)
	assert.Len(t, hello.Polygon, 4)
}

func TestParseDerivesInteriorBoxes(t *testing.T) {
	data, err := os.ReadFile("testdata/vision.json")
	require.NoError(t, err)

	page, err := ParsePage(data, nil)
	require.NoError(t, err)
	lines := page.Lines()

	assert.Equal(t, geometry.BoundingBox{Left: 100, Top: 100, Right: 600, Bottom: 152}, *lines[0].BBox)
	assert.Equal(t, geometry.BoundingBox{Left: 0, Top: 298, Right: 420, Bottom: 345}, *lines[2].BBox,
		"omitted zero coordinates default to 0")

	par := page.Paragraphs()[0]
	assert.Equal(t, geometry.BoundingBox{Left: 0, Top: 100, Right: 600, Bottom: 345}, *par.BBox)

	area := page.Children[0]
	assert.Equal(t, *par.BBox, *area.BBox, "the block polygon is not used as its box")
	assert.Equal(t, "TEXT", area.Metadata["block_type"])
}

func TestParseEmptyResponse(t *testing.T) {
	for _, data := range []string{
		`{"responses": []}`,
		`{"responses": [{}]}`,
		`{"responses": [{"fullTextAnnotation": {"pages": []}}]}`,
	} {
		doc, err := ParseDocument([]byte(data), nil)
		require.NoError(t, err, data)
		require.Len(t, doc.Pages, 1)
		page := doc.Pages[0]
		assert.Equal(t, ocrtree.ClassPage, page.Class)
		assert.True(t, page.BBox.IsZero())
		assert.Empty(t, page.Children)
	}
}

func TestParseErrors(t *testing.T) {
	var ierr *ocrtree.InputFormatError

	_, err := ParsePage([]byte(`{"responses": [`), nil)
	assert.True(t, errors.As(err, &ierr))

	_, err = ParsePage([]byte(`{"responses": [{"error": {"code": 3, "message": "Bad image data."}}]}`), nil)
	require.True(t, errors.As(err, &ierr))
	assert.Contains(t, err.Error(), "Bad image data.")
}

func TestWordWithoutPolygon(t *testing.T) {
	data := `{"responses": [{"fullTextAnnotation": {"pages": [{"width": 100, "height": 100, "blocks": [
		{"paragraphs": [{"words": [{"symbols": [{"text": "x"}]}]}]}]}]}}]}`
	page, err := ParsePage([]byte(data), nil)
	require.NoError(t, err)

	words := page.Words()
	require.Len(t, words, 1)
	assert.Equal(t, geometry.BoundingBox{}, *words[0].BBox)
	assert.Nil(t, page.Lines()[0].BBox, "degraded words do not contribute to the line box")
}
