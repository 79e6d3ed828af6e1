package fonts

import (
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
)

// CourierFont is the base-14 Courier font with WinAnsiEncoding. It is
// not embedded.
type CourierFont struct{}

// NewCourier returns the Courier font.
func NewCourier() *CourierFont { return &CourierFont{} }

func (*CourierFont) ResourceName() string { return ResourceName }

// TextWidth uses one em per character. This overestimates Courier's real
// 0.6 em advance; horizontal scaling absorbs the difference.
func (*CourierFont) TextWidth(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size
}

// TextEncode encodes text as Windows-1252. Characters without a
// Windows-1252 code become '?'.
func (*CourierFont) TextEncode(text string) ([]byte, error) {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out, nil
}

func (*CourierFont) Register(x *model.XRefTable) (*types.IndirectRef, error) {
	return x.IndRefForNewObject(types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name("Courier"),
		"Encoding": types.Name("WinAnsiEncoding"),
	})
}
