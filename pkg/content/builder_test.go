package content

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder() (*Builder, *bytes.Buffer) {
	var logs bytes.Buffer
	return NewBuilder(slog.New(slog.NewTextHandler(&logs, nil))), &logs
}

func TestBuilderSerialize(t *testing.T) {
	b, logs := newTestBuilder()
	b.Push().
		BeginText().
		SetFont("f-0-0", 12).
		SetTextRenderMode(RenderInvisible).
		SetTextMatrix(1, 0, 0, 1, 24, 312.5).
		MoveText(0, 0).
		SetHorizontalScaling(87.5).
		ShowText([]byte{0x00, 0x48, 0x00, 0x69}).
		EndText().
		Pop()

	want := "q\n" +
		"BT\n" +
		"/f-0-0 12 Tf\n" +
		"3 Tr\n" +
		"1 0 0 1 24 312.5 Tm\n" +
		"0 0 Td\n" +
		"87.5 Tz\n" +
		"[<00480069>] TJ\n" +
		"ET\n" +
		"Q\n"
	assert.Equal(t, want, string(b.Bytes()))
	assert.Empty(t, logs.String())
}

func TestBuilderPaths(t *testing.T) {
	b, _ := newTestBuilder()
	b.SetStrokeColor(0, 0, 1).
		SetLineWidth(0).
		SetDash([]float64{3, 1}, 0).
		Rect(1, 2, 3, 4).
		Stroke().
		SetDash(nil, 0).
		Line(0, 0, 10, 0)

	ins := b.Build()
	require.Len(t, ins, 9)
	assert.Equal(t, "[3 1] 0 d", ins[2].String())
	assert.Equal(t, "[] 0 d", ins[5].String())
	assert.Equal(t, "m", ins[6].Operator)
	assert.Equal(t, "l", ins[7].Operator)
	assert.Equal(t, "S", ins[8].Operator)
}

func TestBuildWarnsOnUnbalancedState(t *testing.T) {
	b, logs := newTestBuilder()
	b.Push().BeginText()

	ins := b.Build()
	assert.Len(t, ins, 2, "instructions are returned anyway")
	assert.Contains(t, logs.String(), "unbalanced graphics state")
	assert.Contains(t, logs.String(), "inside a text object")
	assert.Equal(t, 1, b.Depth())
}

func TestBuildIsACopy(t *testing.T) {
	b, _ := newTestBuilder()
	b.Push().Pop()
	first := b.Build()
	b.Push().Pop()
	assert.Len(t, first, 2)
	assert.Equal(t, 4, b.Len())
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-0.0000001, "0"},
		{12, "12"},
		{-3.25, "-3.25"},
		{1.0 / 3, "0.333333"},
		{1e-9, "0"},
		{123456789, "123456789"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "%v", tt.in)
	}
}

func TestNameEscaping(t *testing.T) {
	in := Instruction{Operands: []Operand{Name("a b#c")}, Operator: "Do"}
	assert.Equal(t, "/a#20b#23c Do", in.String())
}
