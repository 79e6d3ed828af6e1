// Package geometry converts OCR pixel coordinates into PDF point space.
//
// OCR engines report positions in image pixels with the origin in the
// top-left corner of the page. PDF user space is measured in points
// (1/72 inch) with the origin in the bottom-left corner. The helpers in
// this package perform that conversion for a given image resolution.
package geometry

import (
	"fmt"
	"math"
)

// PointsPerInch is the number of PDF points in one inch.
const PointsPerInch = 72.0

// GeometryError reports an invalid bounding box or resolution.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "geometry: " + e.Reason
}

// BoundingBox is an axis-aligned rectangle in source pixel coordinates
// with a top-left origin. Right >= Left and Bottom >= Top always hold for
// boxes built with NewBoundingBox.
type BoundingBox struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// NewBoundingBox builds a bounding box and rejects inverted coordinates.
func NewBoundingBox(left, top, right, bottom float64) (BoundingBox, error) {
	if right < left || bottom < top {
		return BoundingBox{}, &GeometryError{
			Reason: fmt.Sprintf("inverted bounding box (%g,%g,%g,%g)", left, top, right, bottom),
		}
	}
	return BoundingBox{Left: left, Top: top, Right: right, Bottom: bottom}, nil
}

// Width of the box in pixels.
func (b BoundingBox) Width() float64 { return b.Right - b.Left }

// Height of the box in pixels.
func (b BoundingBox) Height() float64 { return b.Bottom - b.Top }

// IsZero reports whether the box encloses no area.
func (b BoundingBox) IsZero() bool { return b.Width() == 0 || b.Height() == 0 }

// Union returns the smallest box enclosing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		Left:   math.Min(b.Left, o.Left),
		Top:    math.Min(b.Top, o.Top),
		Right:  math.Max(b.Right, o.Right),
		Bottom: math.Max(b.Bottom, o.Bottom),
	}
}

// Point is a vertex of a polygon in pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// BoundsOf returns the bounding box of a polygon. ok is false for an
// empty polygon.
func BoundsOf(points []Point) (box BoundingBox, ok bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}
	box = BoundingBox{Left: points[0].X, Top: points[0].Y, Right: points[0].X, Bottom: points[0].Y}
	for _, p := range points[1:] {
		box = box.Union(BoundingBox{Left: p.X, Top: p.Y, Right: p.X, Bottom: p.Y})
	}
	return box, true
}

// Baseline describes y = Slope*x + Intercept relative to the bottom-left
// corner of the owning line's bounding box, in pixels.
type Baseline struct {
	Slope     float64
	Intercept float64
}

// Rect is a rectangle in PDF user space (points, y-up).
type Rect struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Width of the rectangle in points.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height of the rectangle in points.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// ValidateDPI returns a GeometryError when dpi is not a positive number.
func ValidateDPI(dpi float64) error {
	if dpi <= 0 || math.IsNaN(dpi) || math.IsInf(dpi, 0) {
		return &GeometryError{Reason: fmt.Sprintf("resolution must be positive, got %g", dpi)}
	}
	return nil
}

// PixelToPoint converts a pixel distance at dpi into points.
func PixelToPoint(px, dpi float64) float64 {
	return px / dpi * PointsPerInch
}

// PointToPixel converts a distance in points back into pixels at dpi.
func PointToPixel(pt, dpi float64) float64 {
	return pt / PointsPerInch * dpi
}

// BBoxToRect converts a pixel bounding box into PDF point space, flipping
// the y axis against the page height (also in pixels).
func BBoxToRect(b BoundingBox, dpi, pageHeightPx float64) (Rect, error) {
	if err := ValidateDPI(dpi); err != nil {
		return Rect{}, err
	}
	if b.Right < b.Left || b.Bottom < b.Top {
		return Rect{}, &GeometryError{Reason: "inverted bounding box"}
	}
	pageHeight := PixelToPoint(pageHeightPx, dpi)
	return Rect{
		X1: PixelToPoint(b.Left, dpi),
		Y1: pageHeight - PixelToPoint(b.Bottom, dpi),
		X2: PixelToPoint(b.Right, dpi),
		Y2: pageHeight - PixelToPoint(b.Top, dpi),
	}, nil
}

// RectToBBox is the inverse of BBoxToRect.
func RectToBBox(r Rect, dpi, pageHeightPx float64) (BoundingBox, error) {
	if err := ValidateDPI(dpi); err != nil {
		return BoundingBox{}, err
	}
	pageHeight := PixelToPoint(pageHeightPx, dpi)
	return NewBoundingBox(
		PointToPixel(r.X1, dpi),
		PointToPixel(pageHeight-r.Y2, dpi),
		PointToPixel(r.X2, dpi),
		PointToPixel(pageHeight-r.Y1, dpi),
	)
}
