package compose

// registerCeiling is the number of addressable engine registers. Register
// indices ride in a 16-bit instruction field.
const registerCeiling = 0x10000

// RegisterLayout assigns disjoint register ranges to the three values a block
// program touches. The observed protocol reused measurement slots for the
// modulus and the offset, which corrupts results once those chunks are
// measured; an explicit layout makes the separation checkable.
type RegisterLayout struct {
	// MeasureSlots reserves registers [0, MeasureSlots) for per-chunk
	// measurement results. Must be at least the engine chunk ceiling.
	MeasureSlots uint32

	// OffsetBase is the first register of the per-chunk global offset,
	// written as OffsetLimbs 64-bit limbs before every oracle invocation.
	OffsetBase uint32

	// OffsetLimbs is the reserved offset width in 64-bit limbs.
	OffsetLimbs int

	// ModulusBase is the first register of the modulus limb sequence. The
	// modulus width is determined by the modulus itself at build time.
	ModulusBase uint32
}

// DefaultLayout returns the layout used in production: measurement slots
// cover the default chunk ceiling, the offset sits directly above them and
// the modulus above the offset.
func DefaultLayout() RegisterLayout {
	return RegisterLayout{
		MeasureSlots: 1024,
		OffsetBase:   1024,
		OffsetLimbs:  8,
		ModulusBase:  1040,
	}
}

// validate checks range disjointness given the modulus limb count for this
// build. modulusLimbs is the number of 64-bit limbs the modulus occupies.
func (l RegisterLayout) validate(modulusLimbs int) error {
	if l.OffsetLimbs < 1 {
		return newBuildError(ErrCodeBadLayout, "offset register range is empty")
	}
	offsetEnd := uint64(l.OffsetBase) + uint64(l.OffsetLimbs)
	modulusEnd := uint64(l.ModulusBase) + uint64(modulusLimbs)

	if uint64(l.OffsetBase) < uint64(l.MeasureSlots) {
		return newBuildError(ErrCodeBadLayout, "offset registers overlap measurement slots")
	}
	if uint64(l.ModulusBase) < uint64(l.MeasureSlots) {
		return newBuildError(ErrCodeBadLayout, "modulus registers overlap measurement slots")
	}
	if uint64(l.ModulusBase) < offsetEnd && uint64(l.OffsetBase) < modulusEnd {
		return newBuildError(ErrCodeBadLayout, "modulus registers overlap offset registers")
	}
	if offsetEnd > registerCeiling || modulusEnd > registerCeiling {
		return newBuildError(ErrCodeBadLayout, "register range exceeds 16-bit addressing")
	}
	return nil
}
