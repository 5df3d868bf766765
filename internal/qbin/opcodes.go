package qbin

// Opcodes recognized by the engine. Values are fixed by the engine protocol
// and must not be renumbered.
const (
	// OpInit allocates a chunk: target = chunk index, op1 = depth (qutrits).
	OpInit = 0x01

	// OpMeasure collapses a chunk and reports its local value on stdout.
	OpMeasure = 0x07

	// OpOracle invokes a named engine predicate/transform on a chunk:
	// target = chunk index, op1 = oracle id.
	OpOracle = 0x0B

	// OpStoreLo writes the low 32 bits of a register: target = register,
	// op1 = bits 0-15, op2 = bits 16-31.
	OpStoreLo = 0x17

	// OpStoreHi writes the high 32 bits of a register: target = register,
	// op1 = bits 32-47, op2 = bits 48-63.
	OpStoreHi = 0x18

	// OpLoadWeights loads the engine's amplitude weight tables. Emitted once
	// as a program preamble.
	OpLoadWeights = 0x1A

	// OpHalt terminates execution. Every program ends with exactly one.
	OpHalt = 0xFF
)

// Oracle ids accepted by OpOracle.
const (
	// OracleSuperpose spreads a freshly initialized chunk into uniform
	// superposition over its local value space.
	OracleSuperpose = 0x09

	// OracleDiffuse is the diffusion/amplification transform applied after
	// each divisor test to bias subsequent measurement toward marked states.
	OracleDiffuse = 0x0B

	// OracleDivisor marks local states whose global candidate divides the
	// modulus held in the reserved modulus registers.
	OracleDivisor = 0x0C
)

// opcodeNames maps opcodes to mnemonic strings for artifact dumps.
var opcodeNames = map[uint32]string{
	OpInit:        "INIT",
	OpMeasure:     "MEASURE",
	OpOracle:      "ORACLE",
	OpStoreLo:     "STORE_LO",
	OpStoreHi:     "STORE_HI",
	OpLoadWeights: "LOAD_WEIGHTS",
	OpHalt:        "HALT",
}

// OpcodeName returns the mnemonic for an opcode, or a hex literal for
// opcodes this package does not name.
func OpcodeName(opcode uint32) string {
	if name, ok := opcodeNames[opcode]; ok {
		return name
	}
	return hexName(opcode)
}
