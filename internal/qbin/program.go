package qbin

import (
	"errors"
	"fmt"
)

// Program is an ordered instruction sequence for one engine execution.
//
// A program is built by appending instructions and sealed with Seal, which
// emits the terminal HALT. After sealing, Append returns an error; the
// program is then safe to hand off across goroutines.
type Program struct {
	instrs []Instruction
	words  []Word
	sealed bool
}

// ErrSealed is returned by Append after Seal has been called.
var ErrSealed = errors.New("program is sealed")

// ErrNotSealed is returned by Bytes when the program has no terminal HALT.
var ErrNotSealed = errors.New("program has no terminal HALT")

// Append validates and encodes one instruction onto the program.
// Encoding failures (OverflowError) reject the instruction and leave the
// program unchanged.
func (p *Program) Append(in Instruction) error {
	if p.sealed {
		return ErrSealed
	}
	w, err := in.Encode()
	if err != nil {
		return fmt.Errorf("encode instruction %d: %w", len(p.instrs), err)
	}
	p.instrs = append(p.instrs, in)
	p.words = append(p.words, w)
	return nil
}

// Seal emits the terminal HALT and freezes the program.
// Sealing twice is an error.
func (p *Program) Seal() error {
	if err := p.Append(Instruction{Opcode: OpHalt}); err != nil {
		return err
	}
	p.sealed = true
	return nil
}

// Len returns the instruction count, including HALT once sealed.
func (p *Program) Len() int {
	return len(p.instrs)
}

// ByteLen returns the serialized length: WordSize times the instruction count.
func (p *Program) ByteLen() int {
	return len(p.words) * WordSize
}

// Bytes serializes the program in the canonical wire layout.
// Fails unless the program has been sealed (the engine rejects artifacts
// without a terminal HALT by running off the end).
func (p *Program) Bytes() ([]byte, error) {
	if !p.sealed {
		return nil, ErrNotSealed
	}
	buf := make([]byte, 0, p.ByteLen())
	for _, w := range p.words {
		buf = w.AppendBytes(buf)
	}
	return buf, nil
}

// Instructions returns a copy of the instruction sequence for inspection.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.instrs))
	copy(out, p.instrs)
	return out
}
