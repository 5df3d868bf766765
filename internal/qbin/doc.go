// Package qbin defines the binary program format consumed by the external
// qutrit engine.
//
// This package contains the wire types only. All other internal packages
// import qbin; qbin imports nothing internal. This keeps the wire layer the
// foundational layer with no circular dependencies.
//
// Wire format (canonical layout):
//
//	one 64-bit little-endian word per instruction
//	opcode:16 | target:16 | op1:16 | op2:16   (low bits to high bits)
//
// A well-formed program is a word sequence whose final word is HALT. The
// engine decodes internally; the only decoder here exists to support
// artifact inspection and round-trip tests.
//
// Key design constraints:
//   - Every field is range-checked before serialization. Out-of-range
//     operands fail with OverflowError; silent truncation is never
//     performed (truncated addressing corrupts chunk targeting).
//   - Programs are immutable once sealed with HALT.
package qbin
