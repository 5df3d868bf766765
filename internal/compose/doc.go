// Package compose synthesizes engine programs for one worker's search block.
//
// A block program follows a fixed shape:
//
//  1. LOAD_WEIGHTS preamble
//  2. INIT per active chunk
//  3. modulus limbs written to the reserved modulus registers
//  4. one superposition pass (offset store + SUPERPOSE oracle per chunk)
//  5. N refinement rounds: per chunk, offset store, DIVISOR oracle,
//     DIFFUSE oracle
//  6. MEASURE per active chunk
//  7. HALT
//
// All register addressing goes through an explicit RegisterLayout so that the
// modulus, the per-chunk offset and the measurement slots occupy disjoint
// register ranges. The engine's addressable chunk ceiling is validated here,
// before anything is dispatched, rather than discovered via engine crash.
package compose
