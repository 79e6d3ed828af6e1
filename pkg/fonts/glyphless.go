package fonts

import (
	"bytes"
	"fmt"
	"sync"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

const (
	// CharAspect is the height to advance-width ratio of every glyph.
	CharAspect = 2

	glyphlessName = "GlyphLessFont"
	cidCount      = 1 << 16
	placeholderID = 1
)

// fontProgram returns the TrueType program embedded as FontFile2. Its
// glyphs are never addressed other than through the placeholder ID, so
// any parseable TrueType font with at least two glyphs will do.
var fontProgram = sync.OnceValues(func() ([]byte, error) {
	f, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	if f.NumGlyphs() <= placeholderID {
		return nil, fmt.Errorf("embedded font has %d glyphs", f.NumGlyphs())
	}
	return goregular.TTF, nil
})

// GlyphlessFont is the composite font used for invisible OCR text.
type GlyphlessFont struct{}

// NewGlyphless returns the glyphless font.
func NewGlyphless() *GlyphlessFont { return &GlyphlessFont{} }

func (*GlyphlessFont) ResourceName() string { return ResourceName }

// TextWidth counts the UTF-16 code units of the NFKC-normalized text at a
// fixed aspect ratio. Compatibility characters such as ligatures measure
// like their decomposition, and characters outside the BMP count twice
// since TextEncode writes them as two CIDs.
func (*GlyphlessFont) TextWidth(text string, size float64) float64 {
	var n int
	for _, r := range norm.NFKC.String(text) {
		n += max(utf16.RuneLen(r), 1)
	}
	return float64(n) * size / CharAspect
}

// TextEncode returns text as UTF-16BE. Identity-H maps each two-byte
// code straight onto a CID.
func (*GlyphlessFont) TextEncode(text string) ([]byte, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	b, err := enc.Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %q as UTF-16BE: %w", text, err)
	}
	return b, nil
}

// CIDToGIDMap returns the uncompressed CIDToGIDMap stream data: every
// 16-bit CID maps to the placeholder glyph.
func CIDToGIDMap() []byte {
	return bytes.Repeat([]byte{placeholderID >> 8, placeholderID & 0xff}, cidCount)
}

// ToUnicodeCMap returns a CMap mapping every two-byte code onto the same
// Unicode value.
func ToUnicodeCMap() []byte {
	return []byte(`/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo
<<
  /Registry (Adobe)
  /Ordering (UCS)
  /Supplement 0
>> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<0000> <FFFF> <0000>
endbfrange
endcmap
CMapName currentdict /CMapResource defineresource pop
end
end
`)
}

func flateStream(x *model.XRefTable, data []byte, extra types.Dict) (*types.IndirectRef, error) {
	sd, err := x.NewStreamDictForBuf(data)
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		sd.Insert(k, v)
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return x.IndRefForNewObject(*sd)
}

// Register writes the Type0 font, its descendant CIDFontType2, the font
// descriptor and the three streams (program, CIDToGIDMap, ToUnicode).
func (*GlyphlessFont) Register(x *model.XRefTable) (*types.IndirectRef, error) {
	program, err := fontProgram()
	if err != nil {
		return nil, err
	}

	fileRef, err := flateStream(x, program, types.Dict{"Length1": types.Integer(len(program))})
	if err != nil {
		return nil, fmt.Errorf("font program: %w", err)
	}

	descriptor := types.Dict{
		"Type":        types.Name("FontDescriptor"),
		"FontName":    types.Name(glyphlessName),
		"Flags":       types.Integer(5),
		"FontBBox":    types.Array{types.Integer(0), types.Integer(0), types.Integer(1000 / CharAspect), types.Integer(1000)},
		"ItalicAngle": types.Integer(0),
		"Ascent":      types.Integer(1000),
		"Descent":     types.Integer(0),
		"CapHeight":   types.Integer(1000),
		"StemV":       types.Integer(80),
		"FontFile2":   *fileRef,
	}
	descRef, err := x.IndRefForNewObject(descriptor)
	if err != nil {
		return nil, fmt.Errorf("font descriptor: %w", err)
	}

	gidRef, err := flateStream(x, CIDToGIDMap(), nil)
	if err != nil {
		return nil, fmt.Errorf("CIDToGIDMap: %w", err)
	}

	cidFont := types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("CIDFontType2"),
		"BaseFont": types.Name(glyphlessName),
		"CIDSystemInfo": types.Dict{
			"Registry":   types.StringLiteral("Adobe"),
			"Ordering":   types.StringLiteral("Identity"),
			"Supplement": types.Integer(0),
		},
		"FontDescriptor": *descRef,
		"DW":             types.Integer(1000 / CharAspect),
		"CIDToGIDMap":    *gidRef,
	}
	cidRef, err := x.IndRefForNewObject(cidFont)
	if err != nil {
		return nil, fmt.Errorf("descendant font: %w", err)
	}

	toUniRef, err := flateStream(x, ToUnicodeCMap(), nil)
	if err != nil {
		return nil, fmt.Errorf("ToUnicode: %w", err)
	}

	type0 := types.Dict{
		"Type":            types.Name("Font"),
		"Subtype":         types.Name("Type0"),
		"BaseFont":        types.Name(glyphlessName),
		"Encoding":        types.Name("Identity-H"),
		"DescendantFonts": types.Array{*cidRef},
		"ToUnicode":       *toUniRef,
	}
	return x.IndRefForNewObject(type0)
}

// IsGlyphless reports whether a font dictionary is a glyphless OCR font.
func IsGlyphless(d types.Dict) bool {
	name := d.NameEntry("BaseFont")
	return name != nil && *name == glyphlessName
}
