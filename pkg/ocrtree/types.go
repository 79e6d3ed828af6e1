package ocrtree

import (
	"github.com/gardar/hocrpdf/pkg/geometry"
)

// Class identifies the role of an element in the OCR hierarchy.
// The values are the hOCR class names.
type Class string

const (
	ClassPage        Class = "ocr_page"
	ClassContentArea Class = "ocr_carea"
	ClassParagraph   Class = "ocr_par"
	ClassLine        Class = "ocr_line"
	ClassHeader      Class = "ocr_header"
	ClassFooter      Class = "ocr_footer"
	ClassCaption     Class = "ocr_caption"
	ClassTextFloat   Class = "ocr_textfloat"
	ClassWord        Class = "ocrx_word"
	ClassChar        Class = "ocrx_cinfo"
)

var knownClasses = map[Class]bool{
	ClassPage:        true,
	ClassContentArea: true,
	ClassParagraph:   true,
	ClassLine:        true,
	ClassHeader:      true,
	ClassFooter:      true,
	ClassCaption:     true,
	ClassTextFloat:   true,
	ClassWord:        true,
	ClassChar:        true,
}

// ParseClass maps an hOCR class name onto a Class. ok is false for class
// names outside the supported vocabulary.
func ParseClass(name string) (Class, bool) {
	c := Class(name)
	return c, knownClasses[c]
}

// IsLine reports whether c is one of the line-like classes.
func (c Class) IsLine() bool {
	switch c {
	case ClassLine, ClassHeader, ClassFooter, ClassCaption, ClassTextFloat:
		return true
	}
	return false
}

// Direction is the writing direction of an element.
type Direction string

const (
	DirectionUnknown Direction = ""
	DirectionLTR     Direction = "ltr"
	DirectionRTL     Direction = "rtl"
)

// FontInfo carries optional font hints reported by the OCR engine.
// They are rendering hints only.
type FontInfo struct {
	Family    string
	Size      float64
	Bold      bool
	Italic    bool
	Monospace bool
	Serif     bool
	SmallCaps bool
	Underline bool
}

// Element is a node of the OCR result tree
type Element struct {
	Class             Class                 // Role in the hierarchy
	ID                string                // Identifier from the source, if any
	BBox              *geometry.BoundingBox // Pixel bounds, nil when unknown
	Polygon           []geometry.Point      // Non axis-aligned bounds
	Text              string                // Recognized text (leaf nodes)
	Confidence        *float64              // Recognition confidence in [0,1]
	Children          []*Element            // Children in reading order
	Direction         Direction             // Writing direction
	Language          string                // Language code
	Baseline          geometry.Baseline     // Line baseline (line classes)
	TextAngle         float64               // Counter-clockwise rotation in degrees
	Font              *FontInfo             // Font hints
	DPI               float64               // Image resolution (page only)
	PageNumber        int                   // Physical page number (page only)
	LogicalPageNumber int                   // Logical page number (page only)
	ImageName         string                // Source image (page only)
	Metadata          map[string]string     // Other source properties
}

// NewElement returns an element of class c with the given bounds.
func NewElement(c Class, bbox *geometry.BoundingBox) *Element {
	return &Element{Class: c, BBox: bbox}
}

// Append adds children at the end of e's child list.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Box returns e's bounding box, or the zero box when it has none.
func (e *Element) Box() geometry.BoundingBox {
	if e == nil || e.BBox == nil {
		return geometry.BoundingBox{}
	}
	return *e.BBox
}

// Document groups the pages parsed from a single OCR result file.
type Document struct {
	Title       string            // Document title
	Description string            // Document description
	Language    string            // Document language
	Metadata    map[string]string // ocr-system, ocr-capabilities, ...
	Pages       []*Element        // Page elements in document order
}
