// Package utils implements small generic helpers shared by the other packages.
package utils

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// IsPowerOfTwo returns true if x is a non-zero power of two.
func IsPowerOfTwo[V constraints.Unsigned](x V) bool {
	return x != 0 && x&(x-1) == 0
}

// BitReverse64 returns the bit-reverse value of index on bitLen bits.
func BitReverse64(index, bitLen uint64) uint64 {
	return bits.Reverse64(index) >> (64 - bitLen)
}

// GCD computes the greatest common divisor of a and b.
func GCD[V constraints.Unsigned](a, b V) V {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// AllDistinct returns true if all elements in s are distinct, and false otherwise.
func AllDistinct[V comparable](s []V) bool {
	m := make(map[V]struct{}, len(s))
	for _, si := range s {
		if _, exists := m[si]; exists {
			return false
		}
		m[si] = struct{}{}
	}
	return true
}

// MaxSlice returns the maximum value in the slice, or the zero value if s is empty.
func MaxSlice[V constraints.Ordered](s []V) (m V) {
	for i, v := range s {
		if i == 0 || v > m {
			m = v
		}
	}
	return
}

// SumBitLen returns the sum of the bit-lengths of the elements of s.
func SumBitLen(s []uint64) (n int) {
	for _, v := range s {
		n += bits.Len64(v)
	}
	return
}

// Alias1D returns true if x and y share the same base array.
func Alias1D[V any](x, y []V) bool {
	return cap(x) > 0 && cap(y) > 0 && &x[0:cap(x)][cap(x)-1] == &y[0:cap(y)][cap(y)-1]
}
