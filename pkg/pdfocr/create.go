package pdfocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gardar/hocrpdf/pkg/render"
)

// createBasePDF builds one fpdf page per rendered page, sized in points
// and carrying the page's background image, if any, over its full area.
// The text layers are grafted on afterwards.
func createBasePDF(pages []*render.Page, images [][]byte) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("hocrpdf", true)

	for i, page := range pages {
		w, h := page.Width, page.Height
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		if i >= len(images) || len(images[i]) == 0 {
			continue
		}
		data, imageType, err := prepareImage(images[i])
		if err != nil {
			return nil, fmt.Errorf("failed to prepare image for page %d: %w", i+1, err)
		}

		imageName := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(data))
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to draw image for page %d: %w", i+1, err)
		}
	}

	// Generate base PDF
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// prepareImage returns image data fpdf can embed together with its type.
// Formats fpdf does not read (TIFF, BMP, WebP) are converted to PNG.
func prepareImage(data []byte) ([]byte, string, error) {
	imageType, err := detectImageType(data)
	if err != nil {
		return nil, "", err
	}
	switch imageType {
	case "PNG", "JPEG", "JPG", "GIF":
		return data, imageType, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", imageType, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("failed to convert %s image to PNG: %w", imageType, err)
	}
	return buf.Bytes(), "PNG", nil
}

// detectImageType tries to figure out whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}
