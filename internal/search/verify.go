package search

import "math/big"

var one = big.NewInt(1)

// IsFactor reports whether candidate is a non-trivial divisor of n:
// 1 < candidate < n and n mod candidate = 0. Pure and arbitrary precision;
// this is the single source of truth for accepting engine output.
func IsFactor(n, candidate *big.Int) bool {
	if n == nil || candidate == nil {
		return false
	}
	if candidate.Cmp(one) <= 0 || candidate.Cmp(n) >= 0 {
		return false
	}
	return new(big.Int).Mod(n, candidate).Sign() == 0
}
