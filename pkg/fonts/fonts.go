// Package fonts provides the PDF fonts used to place OCR text on a page.
//
// Two backends exist. Glyphless is a composite (Type0) font whose every
// character maps to the same placeholder glyph, with a ToUnicode map that
// recovers the original text; it keeps invisible text selectable and
// searchable. Courier is the standard base-14 font, useful to look at the
// text layer while debugging.
package fonts

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ResourceName is the key under which the font is stored in a page's
// /Font resource dictionary.
const ResourceName = "f-0-0"

// Font is a PDF font that can measure and encode text.
type Font interface {
	// ResourceName returns the font resource key used by Tf.
	ResourceName() string
	// TextWidth estimates the advance width of text at size, in points.
	TextWidth(text string, size float64) float64
	// TextEncode converts text into the byte string shown with TJ.
	TextEncode(text string) ([]byte, error)
	// Register adds the font objects to x and returns a reference to the
	// top-level font dictionary.
	Register(x *model.XRefTable) (*types.IndirectRef, error)
}

// Backend enumerates the available fonts.
type Backend int

const (
	Glyphless Backend = iota
	Courier
)

func (b Backend) String() string {
	switch b {
	case Glyphless:
		return "glyphless"
	case Courier:
		return "courier"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend maps a backend name onto a Backend.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "glyphless":
		return Glyphless, nil
	case "courier":
		return Courier, nil
	}
	return 0, fmt.Errorf("unknown font backend %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (b Backend) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Backend) UnmarshalText(text []byte) error {
	v, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// New returns the font for backend b.
func New(b Backend) (Font, error) {
	switch b {
	case Glyphless:
		return NewGlyphless(), nil
	case Courier:
		return NewCourier(), nil
	}
	return nil, fmt.Errorf("unknown font backend %d", int(b))
}
