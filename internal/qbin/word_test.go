package qbin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_CanonicalLayout(t *testing.T) {
	// INIT chunk 5 depth 3 has a hand-computable byte image:
	// opcode 0x01 in bits 0-15, target 5 in bits 16-31, op1 3 in bits 32-47.
	w, err := Instruction{Opcode: OpInit, Target: 5, Op1: 3}.Encode()
	require.NoError(t, err)

	want := []byte{0x01, 0x00, 0x05, 0x00, 0x03, 0x00, 0x00, 0x00}
	assert.Equal(t, want, w.AppendBytes(nil))
}

func TestEncode_AllFieldsPlaced(t *testing.T) {
	w, err := Instruction{Opcode: 0x0B, Target: 0x1122, Op1: 0x3344, Op2: 0x5566}.Encode()
	require.NoError(t, err)

	// Little-endian: opcode low, op2 high.
	want := []byte{0x0B, 0x00, 0x22, 0x11, 0x44, 0x33, 0x66, 0x55}
	assert.Equal(t, want, w.AppendBytes(nil))
}

func TestEncode_HaltWord(t *testing.T) {
	w, err := Instruction{Opcode: OpHalt}.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, w.AppendBytes(nil))
}

func TestEncode_OverflowRejected(t *testing.T) {
	tests := []struct {
		name  string
		in    Instruction
		field string
	}{
		{"opcode", Instruction{Opcode: 0x10000}, "opcode"},
		{"target", Instruction{Opcode: OpInit, Target: 0x10000}, "target"},
		{"op1", Instruction{Opcode: OpInit, Op1: fieldMax + 1}, "op1"},
		{"op2", Instruction{Opcode: OpInit, Op2: 0xFFFFFFFF}, "op2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Encode()
			require.Error(t, err)

			var overflow *OverflowError
			require.ErrorAs(t, err, &overflow)
			assert.Equal(t, tt.field, overflow.Field)
		})
	}
}

func TestEncode_MaxFieldValuesFit(t *testing.T) {
	w, err := Instruction{Opcode: fieldMax, Target: fieldMax, Op1: fieldMax, Op2: fieldMax}.Encode()
	require.NoError(t, err)
	assert.Equal(t, Word(0xFFFFFFFFFFFFFFFF), w)
}

func TestDecode_RoundTrip(t *testing.T) {
	tests := []Instruction{
		{Opcode: OpInit, Target: 5, Op1: 3},
		{Opcode: OpOracle, Target: 12, Op1: OracleDivisor},
		{Opcode: OpStoreLo, Target: 200, Op1: 0xBEEF, Op2: 0xDEAD},
		{Opcode: OpHalt},
	}
	for _, in := range tests {
		w, err := in.Encode()
		require.NoError(t, err)
		assert.Equal(t, in, Decode(w))
	}
}

func TestOpcodeName(t *testing.T) {
	assert.Equal(t, "INIT", OpcodeName(OpInit))
	assert.Equal(t, "HALT", OpcodeName(OpHalt))
	assert.Equal(t, "OP_0x42", OpcodeName(0x42))
}
