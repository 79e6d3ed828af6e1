// Package content builds PDF page content streams as an ordered list of
// instructions.
//
// The Builder is append-only: every method appends one or a fixed number
// of instructions and returns the builder so calls can be chained.
// Graphics state nesting (q/Q) and text objects (BT/ET) are tracked; an
// unbalanced stream is reported when it is built but never rejected.
package content

import (
	"log/slog"
)

// Text render modes used with SetTextRenderMode.
const (
	RenderFill      = 0
	RenderInvisible = 3
)

// Builder accumulates content stream instructions.
type Builder struct {
	instructions []Instruction
	depth        int
	inText       bool
	logger       *slog.Logger
}

// NewBuilder returns an empty builder. A nil logger means slog.Default().
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

func (b *Builder) add(op string, operands ...Operand) *Builder {
	b.instructions = append(b.instructions, Instruction{Operands: operands, Operator: op})
	return b
}

func numbers(vs ...float64) []Operand {
	ops := make([]Operand, len(vs))
	for i, v := range vs {
		ops[i] = Number(v)
	}
	return ops
}

// Len returns the number of instructions appended so far.
func (b *Builder) Len() int { return len(b.instructions) }

// Depth returns the current graphics state nesting depth.
func (b *Builder) Depth() int { return b.depth }

// InText reports whether a text object is open.
func (b *Builder) InText() bool { return b.inText }

// --- Graphics state ---

// Push saves the graphics state (q).
func (b *Builder) Push() *Builder {
	b.depth++
	return b.add("q")
}

// Pop restores the graphics state (Q).
func (b *Builder) Pop() *Builder {
	if b.depth == 0 {
		b.logger.Warn("content stream: Q without matching q")
	}
	b.depth--
	return b.add("Q")
}

// Transform concatenates a matrix onto the CTM (cm).
func (b *Builder) Transform(a, bb, c, d, e, f float64) *Builder {
	return b.add("cm", numbers(a, bb, c, d, e, f)...)
}

// --- Text objects ---

// BeginText opens a text object (BT).
func (b *Builder) BeginText() *Builder {
	if b.inText {
		b.logger.Warn("content stream: nested BT")
	}
	b.inText = true
	return b.add("BT")
}

// EndText closes a text object (ET).
func (b *Builder) EndText() *Builder {
	if !b.inText {
		b.logger.Warn("content stream: ET without matching BT")
	}
	b.inText = false
	return b.add("ET")
}

// SetFont selects a font resource and size (Tf).
func (b *Builder) SetFont(resource string, size float64) *Builder {
	return b.add("Tf", Name(resource), Number(size))
}

// SetTextMatrix sets the text matrix and text line matrix (Tm).
func (b *Builder) SetTextMatrix(a, bb, c, d, e, f float64) *Builder {
	return b.add("Tm", numbers(a, bb, c, d, e, f)...)
}

// SetTextRenderMode sets the text rendering mode (Tr).
func (b *Builder) SetTextRenderMode(mode int) *Builder {
	return b.add("Tr", Number(mode))
}

// SetHorizontalScaling sets horizontal scaling in percent (Tz).
func (b *Builder) SetHorizontalScaling(percent float64) *Builder {
	return b.add("Tz", Number(percent))
}

// ShowText shows font-encoded bytes (TJ).
func (b *Builder) ShowText(encoded []byte) *Builder {
	return b.add("TJ", Array{String(encoded)})
}

// MoveText moves to the start of the next line, offset from the start
// of the current one (Td).
func (b *Builder) MoveText(dx, dy float64) *Builder {
	return b.add("Td", Number(dx), Number(dy))
}

// --- Colour and line state ---

// SetStrokeColor sets the RGB stroke colour (RG).
func (b *Builder) SetStrokeColor(r, g, bl float64) *Builder {
	return b.add("RG", numbers(r, g, bl)...)
}

// SetFillColor sets the RGB fill colour (rg).
func (b *Builder) SetFillColor(r, g, bl float64) *Builder {
	return b.add("rg", numbers(r, g, bl)...)
}

// SetFillGray sets a gray fill colour (g).
func (b *Builder) SetFillGray(gray float64) *Builder {
	return b.add("g", Number(gray))
}

// SetLineWidth sets the stroke width (w).
func (b *Builder) SetLineWidth(width float64) *Builder {
	return b.add("w", Number(width))
}

// SetDash sets the dash pattern (d). An empty pattern means a solid line.
func (b *Builder) SetDash(pattern []float64, phase float64) *Builder {
	arr := make(Array, len(pattern))
	for i, v := range pattern {
		arr[i] = Number(v)
	}
	return b.add("d", arr, Number(phase))
}

// --- Paths ---

// Rect appends a rectangle with its lower-left corner at (x, y) (re).
func (b *Builder) Rect(x, y, w, h float64) *Builder {
	return b.add("re", numbers(x, y, w, h)...)
}

// Line strokes a single segment (m, l, S).
func (b *Builder) Line(x1, y1, x2, y2 float64) *Builder {
	return b.MoveTo(x1, y1).LineTo(x2, y2).Stroke()
}

// MoveTo begins a subpath (m).
func (b *Builder) MoveTo(x, y float64) *Builder {
	return b.add("m", Number(x), Number(y))
}

// LineTo appends a segment to the current subpath (l).
func (b *Builder) LineTo(x, y float64) *Builder {
	return b.add("l", Number(x), Number(y))
}

// Stroke strokes the current path (S).
func (b *Builder) Stroke() *Builder { return b.add("S") }

// Fill fills the current path (f).
func (b *Builder) Fill() *Builder { return b.add("f") }

// FillStroke fills and strokes the current path (B).
func (b *Builder) FillStroke() *Builder { return b.add("B") }

// ClosePath closes the current subpath (h).
func (b *Builder) ClosePath() *Builder { return b.add("h") }

// CloseStroke closes and strokes the current subpath (s).
func (b *Builder) CloseStroke() *Builder { return b.add("s") }

// Build returns a copy of the instructions appended so far. It logs a
// warning when the graphics state stack is unbalanced or a text object
// is still open; the instructions are returned regardless.
func (b *Builder) Build() []Instruction {
	if b.depth != 0 {
		b.logger.Warn("content stream has unbalanced graphics state", "depth", b.depth)
	}
	if b.inText {
		b.logger.Warn("content stream ends inside a text object")
	}
	out := make([]Instruction, len(b.instructions))
	copy(out, b.instructions)
	return out
}

// Bytes builds and serializes the stream.
func (b *Builder) Bytes() []byte {
	return Serialize(b.Build())
}
