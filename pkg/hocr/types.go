package hocr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gardar/hocrpdf/pkg/geometry"
)

// Properties holds the parsed properties of an hOCR title attribute,
// keyed by property name.
// Example: "bbox 100 200 300 400; x_wconf 95" → {"bbox": [100 200 300 400], "x_wconf": [95]}
type Properties map[string][]string

var nonNegativeInt = regexp.MustCompile(`^\d+$`)

// BBox returns the bbox property. It must consist of exactly four
// non-negative integers describing a non-inverted box.
func (p Properties) BBox() (geometry.BoundingBox, error) {
	vals, ok := p["bbox"]
	if !ok {
		return geometry.BoundingBox{}, fmt.Errorf("no bbox")
	}
	if len(vals) != 4 {
		return geometry.BoundingBox{}, fmt.Errorf("bbox needs 4 values, got %d", len(vals))
	}
	var c [4]float64
	for i, v := range vals {
		if !nonNegativeInt.MatchString(v) {
			return geometry.BoundingBox{}, fmt.Errorf("bbox value %q is not a non-negative integer", v)
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return geometry.BoundingBox{}, err
		}
		c[i] = n
	}
	return geometry.NewBoundingBox(c[0], c[1], c[2], c[3])
}

// Baseline returns the baseline property, or the horizontal default.
func (p Properties) Baseline() (geometry.Baseline, error) {
	vals, ok := p["baseline"]
	if !ok {
		return geometry.Baseline{}, nil
	}
	if len(vals) != 2 {
		return geometry.Baseline{}, fmt.Errorf("baseline needs 2 values, got %d", len(vals))
	}
	slope, err := strconv.ParseFloat(vals[0], 64)
	if err != nil {
		return geometry.Baseline{}, fmt.Errorf("baseline slope: %w", err)
	}
	intercept, err := strconv.ParseFloat(vals[1], 64)
	if err != nil {
		return geometry.Baseline{}, fmt.Errorf("baseline intercept: %w", err)
	}
	return geometry.Baseline{Slope: slope, Intercept: intercept}, nil
}

// Float returns the first value of property key as a number.
func (p Properties) Float(key string) (float64, bool) {
	vals, ok := p[key]
	if !ok || len(vals) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(vals[0], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the first value of property key as an integer.
func (p Properties) Int(key string) (int, bool) {
	vals, ok := p[key]
	if !ok || len(vals) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns property key as a single string with quotes removed.
func (p Properties) String(key string) (string, bool) {
	vals, ok := p[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.Trim(strings.Join(vals, " "), `"'`), true
}

// handled lists the properties that map onto Element fields. Everything
// else is kept in Element.Metadata.
var handled = map[string]bool{
	"bbox":      true,
	"baseline":  true,
	"textangle": true,
	"x_wconf":   true,
	"x_font":    true,
	"x_fsize":   true,
	"scan_res":  true,
	"ppageno":   true,
	"lpageno":   true,
	"image":     true,
}
