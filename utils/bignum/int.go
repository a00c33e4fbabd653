// Package bignum implements arbitrary and fixed-width integer helpers:
// *big.Int constructors and rounding, checked 128/256-bit unsigned integers,
// and integer-only base-two logarithms.
package bignum

import (
	"fmt"
	"math/big"
)

// NewInt allocates a new *big.Int.
// Accepted types are: string, uint, uint64, int64, int or *big.Int.
func NewInt(x interface{}) (y *big.Int) {

	y = new(big.Int)

	if x == nil {
		return
	}

	switch x := x.(type) {
	case string:
		if _, ok := y.SetString(x, 0); !ok {
			panic(fmt.Errorf("cannot NewInt: invalid string %q", x))
		}
	case uint:
		y.SetUint64(uint64(x))
	case uint64:
		y.SetUint64(x)
	case int64:
		y.SetInt64(x)
	case int:
		y.SetInt64(int64(x))
	case *big.Int:
		y.Set(x)
	default:
		panic(fmt.Errorf("cannot NewInt: accepted types are string, uint, uint64, int, int64, *big.Int, but is %T", x))
	}

	return
}

// Product returns the product of the given moduli.
func Product(moduli []uint64) (p *big.Int) {
	p = big.NewInt(1)
	tmp := new(big.Int)
	for _, q := range moduli {
		p.Mul(p, tmp.SetUint64(q))
	}
	return
}

// DivRound sets the target i to round(a/b), rounding half away from zero.
func DivRound(a, b, i *big.Int) {
	_a := new(big.Int).Set(a)
	i.Quo(_a, b)
	r := new(big.Int).Rem(_a, b)
	r.Lsh(r, 1)
	if r.CmpAbs(b) != -1 {
		if _a.Sign() == b.Sign() {
			i.Add(i, big.NewInt(1))
		} else {
			i.Sub(i, big.NewInt(1))
		}
	}
}

// Center sets x to its centered representative modulo m, in
// [-(m-1)/2, m/2], and returns x. x must already be in [0, m).
func Center(x, m *big.Int) *big.Int {
	half := new(big.Int).Rsh(m, 1)
	if x.Cmp(half) > 0 {
		x.Sub(x, m)
	}
	return x
}
