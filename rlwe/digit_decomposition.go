package rlwe

import (
	"fmt"

	"github.com/Pro7ech/rnsfhe/ring"
)

// Decomposer computes the gadget decomposition of polynomials over the main
// primes: the residue modulo the i-th prime is split into base 2^w digits,
// and each digit is lifted on every main prime. With w = 0 every residue is
// a single digit (plain RNS decomposition).
type Decomposer struct {
	moduli   []uint64
	w        int
	perPrime int
}

// NewDecomposer creates a new [Decomposer] for the main primes and the base
// two decomposition of the parameters.
func NewDecomposer(params ParameterProvider) *Decomposer {
	p := params.GetRLWEParameters()
	perPrime, _ := p.DecompositionDigits()
	return &Decomposer{
		moduli:   p.Q(),
		w:        p.BaseTwoDecomposition(),
		perPrime: perPrime,
	}
}

// Digits returns the number of primes and of digits per prime.
func (d *Decomposer) Digits() (primes, perPrime int) {
	return len(d.moduli), d.perPrime
}

// Gadget returns the value of the gadget g_{i,j} on the i-th prime,
// i.e. 2^{w*j} mod q_i. The gadget is zero on the other primes.
func (d *Decomposer) Gadget(i, j int) uint64 {
	return (uint64(1) << (d.w * j)) % d.moduli[i]
}

// Decompose sets digit to the j-th digit of the residues of p modulo the
// i-th prime, lifted on every main prime, such that
// sum_{i,j} Decompose(i, j, p) * g_{i,j} = p mod Q.
func (d *Decomposer) Decompose(i, j int, p, digit ring.RNSPoly) {

	if i < 0 || i >= len(d.moduli) || j < 0 || j >= d.perPrime {
		panic(fmt.Errorf("invalid digit (%d, %d): decomposer has %dx%d digits", i, j, len(d.moduli), d.perPrime))
	}

	var mask uint64
	var shift int
	if d.w != 0 {
		mask = uint64(1)<<d.w - 1
		shift = d.w * j
	}

	for k, v := range p[i] {

		if d.w != 0 {
			v = (v >> shift) & mask
		}

		for l, ql := range d.moduli {
			if v < ql {
				digit[l][k] = v
			} else {
				digit[l][k] = v % ql
			}
		}
	}
}
