package render

import (
	"strings"
)

// ligatures maps presentation-form ligatures onto their letters. ﬃ keeps
// zero-width non-joiners so it does not re-form a single ligature glyph.
var ligatures = strings.NewReplacer(
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬃ", "f\u200cf\u200ci",
	"ﬄ", "ffl",
	"ﬅ", "st",
	"ﬆ", "st",
)

// CleanText trims text and replaces ligature characters.
func CleanText(text string) string {
	return ligatures.Replace(strings.TrimSpace(text))
}
