// Package ocrtree holds an engine-agnostic representation of OCR results.
//
// A result is a tree rooted at a page element. Interior nodes are content
// areas, paragraphs and lines; leaves are words and, optionally,
// characters. Every node may carry a pixel bounding box; text lives
// mainly on words.
//
// Parsers for concrete formats (hOCR, Cloud Vision JSON, Document AI
// JSON) build trees in two phases: leaves and their exact boxes first,
// then MaximizeBBoxes fills the missing boxes of interior nodes with the
// union of their children.
package ocrtree

import (
	"fmt"
	"strings"

	"github.com/gardar/hocrpdf/pkg/geometry"
)

// InputFormatError reports OCR input that cannot be turned into a page,
// for example a document without pages or a page without dimensions.
type InputFormatError struct {
	Source string // Format or file name
	Reason string
	Err    error
}

func (e *InputFormatError) Error() string {
	msg := e.Reason
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InputFormatError) Unwrap() error { return e.Err }

// Walk calls fn for e and every descendant in document order. Returning
// false from fn skips the children of that element.
func (e *Element) Walk(fn func(*Element) bool) {
	if e == nil {
		return
	}
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// FindAll returns the descendants of e (excluding e) matching pred, in
// document order. Matching elements are not searched further.
func (e *Element) FindAll(pred func(*Element) bool) []*Element {
	var found []*Element
	for _, c := range e.Children {
		c.Walk(func(n *Element) bool {
			if pred(n) {
				found = append(found, n)
				return false
			}
			return true
		})
	}
	return found
}

// Lines returns every line-class descendant of e.
func (e *Element) Lines() []*Element {
	return e.FindAll(func(n *Element) bool { return n.Class.IsLine() })
}

// Paragraphs returns every paragraph descendant of e.
func (e *Element) Paragraphs() []*Element {
	return e.FindAll(func(n *Element) bool { return n.Class == ClassParagraph })
}

// Words returns every word descendant of e.
func (e *Element) Words() []*Element {
	return e.FindAll(func(n *Element) bool { return n.Class == ClassWord })
}

// Chars returns every character descendant of e.
func (e *Element) Chars() []*Element {
	return e.FindAll(func(n *Element) bool { return n.Class == ClassChar })
}

// Content returns the text of e: its own text for leaves, otherwise the
// words below it joined by single spaces.
func (e *Element) Content() string {
	if e.Class == ClassWord || e.Class == ClassChar || len(e.Children) == 0 {
		return e.Text
	}
	leaves := e.Words()
	if len(leaves) == 0 {
		leaves = e.Chars()
	}
	parts := make([]string, 0, len(leaves))
	for _, w := range leaves {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// MaximizeBBoxes assigns every element without a bounding box the union of
// its children's boxes, working bottom-up. Elements that already have a
// box keep it. Children carrying the all-zero box left by a malformed
// source are ignored. Call it once after the whole tree is built.
func (e *Element) MaximizeBBoxes() {
	if e == nil {
		return
	}
	for _, c := range e.Children {
		c.MaximizeBBoxes()
	}
	if e.BBox != nil {
		return
	}
	for _, c := range e.Children {
		if c.BBox == nil || *c.BBox == (geometry.BoundingBox{}) {
			continue
		}
		if e.BBox == nil {
			b := *c.BBox
			e.BBox = &b
			continue
		}
		u := e.BBox.Union(*c.BBox)
		e.BBox = &u
	}
}
