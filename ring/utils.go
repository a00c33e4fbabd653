package ring

import (
	"math/bits"
)

// MulMod returns a * b mod q for any q > 0.
func MulMod(a, b, q uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, q)
}

// MulAddMod returns a * b + c mod q for any q > 0.
func MulAddMod(a, b, c, q uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	var carry uint64
	lo, carry = bits.Add64(lo, c, 0)
	hi += carry
	return bits.Rem64(hi, lo, q)
}
