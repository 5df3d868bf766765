package qbin

import (
	"encoding/binary"
	"fmt"
)

// WordSize is the byte length of one encoded instruction.
const WordSize = 8

// fieldMax is the largest value representable in one 16-bit wire field.
const fieldMax = 0xFFFF

// Instruction is one fixed-width engine operation before encoding.
//
// Fields are uint32 rather than uint16 so that out-of-range operands survive
// until Encode, where they are rejected with OverflowError instead of being
// truncated by the type system.
type Instruction struct {
	Opcode uint32
	Target uint32
	Op1    uint32
	Op2    uint32
}

// Word is one encoded instruction in the canonical 64-bit layout.
type Word uint64

// OverflowError reports an instruction field that does not fit its declared
// 16-bit wire width.
type OverflowError struct {
	Field string // "opcode", "target", "op1" or "op2"
	Value uint32
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("instruction field %s value %#x exceeds 16-bit wire width", e.Field, e.Value)
}

// Encode packs the instruction into the canonical word layout.
// Returns OverflowError if any field exceeds 16 bits.
func (in Instruction) Encode() (Word, error) {
	fields := []struct {
		name  string
		value uint32
	}{
		{"opcode", in.Opcode},
		{"target", in.Target},
		{"op1", in.Op1},
		{"op2", in.Op2},
	}
	for _, f := range fields {
		if f.value > fieldMax {
			return 0, &OverflowError{Field: f.name, Value: f.value}
		}
	}
	w := uint64(in.Opcode) |
		uint64(in.Target)<<16 |
		uint64(in.Op1)<<32 |
		uint64(in.Op2)<<48
	return Word(w), nil
}

// Decode unpacks a canonical-layout word. It is the exact inverse of Encode
// and exists to support artifact inspection (compose --dump).
func Decode(w Word) Instruction {
	return Instruction{
		Opcode: uint32(w) & fieldMax,
		Target: uint32(w>>16) & fieldMax,
		Op1:    uint32(w>>32) & fieldMax,
		Op2:    uint32(w>>48) & fieldMax,
	}
}

// AppendBytes appends the word's little-endian serialization to buf.
func (w Word) AppendBytes(buf []byte) []byte {
	return binary.LittleEndian.AppendUint64(buf, uint64(w))
}

// String renders the instruction as a mnemonic line for dumps.
func (in Instruction) String() string {
	return fmt.Sprintf("%-12s target=%d op1=%d op2=%d", OpcodeName(in.Opcode), in.Target, in.Op1, in.Op2)
}

func hexName(opcode uint32) string {
	return fmt.Sprintf("OP_0x%02X", opcode)
}
