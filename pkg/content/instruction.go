package content

import (
	"bytes"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Operand is a value consumed by a content stream operator.
type Operand interface {
	appendTo(buf *bytes.Buffer)
}

// Number is a numeric operand.
type Number float64

// Name is a PDF name operand, written without the leading slash.
type Name string

// String is a byte string operand. It is always written in hex form.
type String []byte

// Array is an array operand.
type Array []Operand

func (n Number) appendTo(buf *bytes.Buffer) {
	buf.WriteString(FormatNumber(float64(n)))
}

func (n Name) appendTo(buf *bytes.Buffer) {
	buf.WriteByte('/')
	for _, c := range []byte(n) {
		if c < '!' || c > '~' || strings.IndexByte("/%()<>[]{}#", c) >= 0 {
			buf.WriteByte('#')
			buf.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
			continue
		}
		buf.WriteByte(c)
	}
}

func (s String) appendTo(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(strings.ToUpper(hex.EncodeToString(s)))
	buf.WriteByte('>')
}

func (a Array) appendTo(buf *bytes.Buffer) {
	buf.WriteByte('[')
	for i, op := range a {
		if i > 0 {
			buf.WriteByte(' ')
		}
		op.appendTo(buf)
	}
	buf.WriteByte(']')
}

// Instruction is a single content stream operation: zero or more operands
// followed by an operator token.
type Instruction struct {
	Operands []Operand
	Operator string
}

// String returns the instruction as it appears in a content stream.
func (in Instruction) String() string {
	var buf bytes.Buffer
	in.appendTo(&buf)
	return buf.String()
}

func (in Instruction) appendTo(buf *bytes.Buffer) {
	for _, op := range in.Operands {
		op.appendTo(buf)
		buf.WriteByte(' ')
	}
	buf.WriteString(in.Operator)
}

// FormatNumber writes v in fixed-point notation with at most six
// decimals. PDF has no exponent syntax.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Serialize renders instructions as content stream bytes, one
// instruction per line.
func Serialize(instructions []Instruction) []byte {
	var buf bytes.Buffer
	for _, in := range instructions {
		in.appendTo(&buf)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
