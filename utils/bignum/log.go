package bignum

import (
	"math/big"
	"math/bits"

	"github.com/ALTree/bigfloat"
)

// Log2 returns an approximation of log2(x) as a float64.
// It is used for reporting only and must not drive any decision on the
// evaluation path. Returns 0 for x <= 0.
func Log2(x *big.Int) float64 {
	if x.Sign() <= 0 {
		return 0
	}

	const prec = 128

	ln2 := bigfloat.Log(new(big.Float).SetPrec(prec).SetInt64(2))
	lnx := bigfloat.Log(new(big.Float).SetPrec(prec).SetInt(x))

	f, _ := lnx.Quo(lnx, ln2).Float64()
	return f
}

// log2FracBits is the number of fractional bits computed by [Log2Millibits].
const log2FracBits = 20

// Log2Millibits returns floor(1000 * log2(x)), up to a truncation error of at
// most one millibit, using integer arithmetic only.
// Returns 0 for x <= 1.
func Log2Millibits(x *big.Int) int64 {

	if x.Cmp(big.NewInt(1)) <= 0 {
		return 0
	}

	n := x.BitLen() - 1

	// Mantissa in Q1.62: m/2^62 in [1, 2).
	var m uint64
	if n <= 62 {
		m = x.Uint64() << (62 - n)
	} else {
		m = new(big.Int).Rsh(x, uint(n-62)).Uint64()
	}

	var frac uint64
	for i := 0; i < log2FracBits; i++ {
		hi, lo := bits.Mul64(m, m)
		m = hi<<2 | lo>>62
		frac <<= 1
		if m >= 1<<63 {
			frac |= 1
			m >>= 1
		}
	}

	return int64(n)*1000 + int64((frac*1000)>>log2FracBits)
}

// Log2MillibitsUint64 is [Log2Millibits] for a machine word.
func Log2MillibitsUint64(x uint64) int64 {
	return Log2Millibits(new(big.Int).SetUint64(x))
}
