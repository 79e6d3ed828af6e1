// hocrtransform is a command-line tool for turning OCR results into a
// searchable PDF text layer.
//
// It reads one OCR result (hOCR, Google Cloud Vision JSON or Google
// Document AI JSON) and either builds a new PDF, optionally drawing the
// scanned image underneath the text, or adds the text layer to the pages
// of an existing PDF.
//
// Usage:
//
//	hocrtransform [flags] <ocr_file> <output_file>
//
// Examples:
//
// Build a searchable page from hOCR and its scan:
//
//	hocrtransform -i scan.png page.hocr page.pdf
//
// Add text layers to every page of an existing PDF:
//
//	hocrtransform --all-pages --pdf scan.pdf document.hocr searchable.pdf
//
// Inspect the text placement with visible text and debug boxes:
//
//	hocrtransform -b --visible --font courier page.hocr debug.pdf
//
// Convert a Document AI result, using the page images it carries:
//
//	hocrtransform --format docai --all-pages document.json document.pdf
//
// Cloud Vision results carry no page size when no text was found. Pass
// the scan with -i so the page is sized from the image:
//
//	hocrtransform --format vision -i scan.png vision.json page.pdf
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/gardar/hocrpdf/pkg/cvision"
	"github.com/gardar/hocrpdf/pkg/fonts"
	"github.com/gardar/hocrpdf/pkg/gdocai"
	"github.com/gardar/hocrpdf/pkg/hocr"
	"github.com/gardar/hocrpdf/pkg/ocrtree"
	"github.com/gardar/hocrpdf/pkg/pdfocr"
)

var (
	app = kingpin.New("hocrtransform", "Renders OCR results as a searchable PDF text layer")

	ocrFile    = app.Arg("ocr_file", "OCR result to convert").Required().ExistingFile()
	outputFile = app.Arg("output_file", "PDF file to write").Required().String()

	boundingBoxes   = app.Flag("boundingboxes", "draw paragraph, line and word boxes").Short('b').Bool()
	resolution      = app.Flag("resolution", "image resolution in DPI").Short('r').Default("300").Float64()
	images          = app.Flag("image", "background image, repeat for several pages; pages without a size (empty Vision results) take it from the image").Short('i').ExistingFiles()
	interwordSpaces = app.Flag("interword-spaces", "add a space after every word").Bool()
	configPath      = app.Flag("config", "YAML configuration file").ExistingFile()
	format          = app.Flag("format", "OCR input format").Default("hocr").Enum("hocr", "vision", "docai")
	fontName        = app.Flag("font", "font backend").Enum("glyphless", "courier")
	visible         = app.Flag("visible", "render text visibly").Bool()
	allPages        = app.Flag("all-pages", "convert every OCR page instead of the first").Bool()
	pdfPath         = app.Flag("pdf", "existing PDF to add the text layer to").ExistingFile()
	startPage       = app.Flag("page", "first PDF page that receives a text layer (with --pdf)").Default("1").Int()
	force           = app.Flag("force", "add a text layer even if the page already has one").Bool()
	sidecarPath     = app.Flag("sidecar", "write the recognized text to this file").String()
	dumpHOCRPath    = app.Flag("dump-hocr", "write the parsed OCR result as hOCR to this file").String()
	validate        = app.Flag("validate", "validate the generated PDF").Bool()
	verbose         = app.Flag("verbose", "enable verbose logging").Short('v').Bool()

	resolutionSet bool
)

func init() {
	app.GetFlag("resolution").IsSetByUser(&resolutionSet)
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := buildConfig(logger)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*ocrFile)
	if err != nil {
		return fmt.Errorf("failed to read OCR file: %w", err)
	}
	doc, embedded, err := parse(data, logger)
	if err != nil {
		return err
	}

	pages := doc.Pages
	if !*allPages && len(pages) > 1 {
		logger.Warn("OCR result has more than one page, using the first", "pages", len(pages))
		pages = pages[:1]
	}

	inputs := make([]pdfocr.PageInput, len(pages))
	for i, page := range pages {
		inputs[i].Page = page
		if i < len(embedded) {
			inputs[i].Image = embedded[i]
		}
	}
	for i, path := range *images {
		if i >= len(inputs) {
			logger.Warn("more images than pages, ignoring the rest", "image", path)
			break
		}
		img, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image %s: %w", path, err)
		}
		inputs[i].Image = img
	}

	if *dumpHOCRPath != "" {
		out, err := hocr.Generate(&ocrtree.Document{
			Title:       doc.Title,
			Description: doc.Description,
			Language:    doc.Language,
			Metadata:    doc.Metadata,
			Pages:       pages,
		})
		if err != nil {
			return fmt.Errorf("failed to generate hOCR: %w", err)
		}
		if err := os.WriteFile(*dumpHOCRPath, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write hOCR output: %w", err)
		}
		logger.Info("hOCR saved", "path", *dumpHOCRPath)
	}

	// Render and assemble the PDF in memory so a failure leaves no partial output
	var buf bytes.Buffer
	if *pdfPath != "" {
		input, err := os.ReadFile(*pdfPath)
		if err != nil {
			return fmt.Errorf("failed to read input PDF: %w", err)
		}
		if err := pdfocr.ApplyOCR(input, inputs, *startPage, cfg, &buf); err != nil {
			return fmt.Errorf("failed to apply OCR to existing PDF: %w", err)
		}
	} else if err := pdfocr.TransformDocument(context.Background(), inputs, cfg, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(*outputFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output PDF: %w", err)
	}
	logger.Info("searchable PDF created", "path", *outputFile, "pages", len(inputs))

	if *sidecarPath != "" {
		text := hocr.ExtractText(&ocrtree.Document{Pages: pages})
		if err := os.WriteFile(*sidecarPath, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write sidecar text: %w", err)
		}
		logger.Info("text saved", "path", *sidecarPath)
	}
	return nil
}

// buildConfig loads the optional config file and applies the flags on top.
func buildConfig(logger *slog.Logger) (pdfocr.Config, error) {
	cfg := pdfocr.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = pdfocr.LoadConfig(*configPath); err != nil {
			return cfg, err
		}
	}
	cfg.Logger = logger
	cfg.Hooks = []pdfocr.Hook{pdfocr.PageGeometryHook{Logger: logger}}

	cfg.BoundingBoxes = cfg.BoundingBoxes || *boundingBoxes
	cfg.InterwordSpaces = cfg.InterwordSpaces || *interwordSpaces
	cfg.Visible = cfg.Visible || *visible
	cfg.Force = cfg.Force || *force
	cfg.Validate = cfg.Validate || *validate
	if resolutionSet {
		cfg.DPI = *resolution
	}
	if *fontName != "" {
		backend, err := fonts.ParseBackend(*fontName)
		if err != nil {
			return cfg, err
		}
		cfg.Font = backend
	}
	return cfg, nil
}

// parse reads data in the selected format. Document AI results may
// carry page images; they are returned per page, nil where missing.
func parse(data []byte, logger *slog.Logger) (*ocrtree.Document, [][]byte, error) {
	switch *format {
	case "vision":
		doc, err := cvision.ParseDocument(data, logger)
		return doc, nil, err
	case "docai":
		proto, err := gdocai.Unmarshal(data)
		if err != nil {
			return nil, nil, err
		}
		var embedded [][]byte
		for i, page := range proto.GetPages() {
			img, mimeType, err := gdocai.ExtractImageFromPage(page)
			if err != nil {
				logger.Debug("no page image in Document AI result", "page", i+1, "reason", err)
			} else {
				logger.Debug("using Document AI page image", "page", i+1, "type", mimeType, "bytes", len(img))
			}
			embedded = append(embedded, img)
		}
		return gdocai.FromProto(proto, logger), embedded, nil
	default:
		doc, err := hocr.ParseDocument(data, logger)
		return doc, nil, err
	}
}
