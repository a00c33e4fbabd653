package ring

import (
	"fmt"
	"math/big"

	"github.com/Pro7ech/rnsfhe/utils/bignum"
	"github.com/Pro7ech/rnsfhe/utils/concurrency"
)

// RNSRing is a set of [Ring] of the same degree over pairwise distinct
// primes, operating on [RNSPoly] row by row. Rows are independent: when
// created with [RNSRing.WithWorkers], operations are spread over a pool of
// workers, one row per task, without locking.
// An RNSRing is read-only after creation and safe for concurrent use, the
// concurrent operations then sharing the workers of the pool.
type RNSRing struct {
	rings []*Ring
	basis *RNSBasis
	pool  *concurrency.Pool[int]
}

// NewRNSRing creates a new [RNSRing] with degree N and moduli chain ModuliChain.
// N must be a power of two and every modulus a prime equal to 1 mod 2N.
// Moduli must be pairwise distinct.
func NewRNSRing(N int, ModuliChain []uint64) (r RNSRing, err error) {

	if len(ModuliChain) == 0 {
		return r, fmt.Errorf("invalid ModuliChain (must be a non-empty []uint64)")
	}

	if r.basis, err = NewRNSBasis(ModuliChain); err != nil {
		return r, fmt.Errorf("invalid ModuliChain: %w", err)
	}

	r.rings = make([]*Ring, len(ModuliChain))
	for i, qi := range ModuliChain {
		if r.rings[i], err = NewRing(N, qi); err != nil {
			return RNSRing{}, err
		}
	}

	return
}

// WithWorkers returns a shallow copy of the receiver whose operations are
// spread over n workers. n <= 1 returns a sequential ring.
func (r RNSRing) WithWorkers(n int) RNSRing {
	if n <= 1 {
		r.pool = nil
		return r
	}
	workers := make([]int, n)
	for i := range workers {
		workers[i] = i
	}
	r.pool = concurrency.NewPool(workers)
	return r
}

// Slice returns the sub-ring of the moduli [start, end).
// The returned ring shares the tables and the worker pool of the receiver.
func (r RNSRing) Slice(start, end int) RNSRing {

	basis, err := NewRNSBasis(r.basis.moduli[start:end])

	// Sanity check
	if err != nil {
		panic(fmt.Errorf("cannot Slice: %w", err))
	}

	return RNSRing{rings: r.rings[start:end], basis: basis, pool: r.pool}
}

// At returns the i-th [Ring].
func (r RNSRing) At(i int) *Ring {
	return r.rings[i]
}

// N returns the ring degree.
func (r RNSRing) N() int {
	return r.rings[0].N
}

// LogN returns log2(N).
func (r RNSRing) LogN() int {
	return r.rings[0].LogN()
}

// Len returns the number of moduli.
func (r RNSRing) Len() int {
	return len(r.rings)
}

// Level returns the number of moduli minus 1.
func (r RNSRing) Level() int {
	return len(r.rings) - 1
}

// ModuliChain returns the list of primes in the modulus chain.
func (r RNSRing) ModuliChain() (moduli []uint64) {
	return r.basis.Moduli()
}

// Basis returns the [RNSBasis] of the moduli of the receiver.
func (r RNSRing) Basis() *RNSBasis {
	return r.basis
}

// Modulus returns the product of the moduli.
func (r RNSRing) Modulus() *big.Int {
	return r.basis.Capacity()
}

// NewRNSPoly allocates a new zero [RNSPoly] with one row per modulus.
func (r RNSRing) NewRNSPoly() RNSPoly {
	return NewRNSPoly(r.N(), r.Level())
}

// forEach applies f on each row index, sequentially or on the worker pool.
func (r RNSRing) forEach(f func(i int, s *Ring)) {

	if r.pool == nil {
		for i, s := range r.rings {
			f(i, s)
		}
		return
	}

	// A panicking row is reported by the pool and raised again on the
	// calling goroutine, as the sequential path would.
	if err := r.pool.ForEach(len(r.rings), func(i, _ int) error {
		f(i, r.rings[i])
		return nil
	}); err != nil {
		panic(fmt.Errorf("cannot forEach: %w", err))
	}
}

// Add evaluates p3 = p1 + p2.
func (r RNSRing) Add(p1, p2, p3 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.Add(p1[i], p2[i], p3[i]) })
}

// Sub evaluates p3 = p1 - p2.
func (r RNSRing) Sub(p1, p2, p3 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.Sub(p1[i], p2[i], p3[i]) })
}

// Neg evaluates p2 = -p1.
func (r RNSRing) Neg(p1, p2 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.Neg(p1[i], p2[i]) })
}

// Reduce evaluates p2 = p1 mod each modulus.
func (r RNSRing) Reduce(p1, p2 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.Reduce(p1[i], p2[i]) })
}

// MulScalar evaluates p2 = p1 * scalar.
func (r RNSRing) MulScalar(p1 RNSPoly, scalar uint64, p2 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.MulScalar(p1[i], scalar, p2[i]) })
}

// MulScalarBigint evaluates p2 = p1 * scalar for a scalar of any size and sign.
func (r RNSRing) MulScalarBigint(p1 RNSPoly, scalar *big.Int, p2 RNSPoly) {
	residues := r.basis.Encode(scalar)
	r.forEach(func(i int, s *Ring) { s.MulScalar(p1[i], residues[i], p2[i]) })
}

// MulScalarThenAdd evaluates p2 = p2 + p1 * scalar.
func (r RNSRing) MulScalarThenAdd(p1 RNSPoly, scalar uint64, p2 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.MulScalarThenAdd(p1[i], scalar, p2[i]) })
}

// NTT evaluates p2 = NTT(p1) row by row.
func (r RNSRing) NTT(p1, p2 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.NTT(p1[i], p2[i]) })
}

// INTT evaluates p2 = INTT(p1) row by row.
func (r RNSRing) INTT(p1, p2 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.INTT(p1[i], p2[i]) })
}

// MForm switches p1 to the Montgomery domain on p2.
func (r RNSRing) MForm(p1, p2 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.MForm(p1[i], p2[i]) })
}

// IMForm switches p1 from the Montgomery domain on p2.
func (r RNSRing) IMForm(p1, p2 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.IMForm(p1[i], p2[i]) })
}

// MulCoeffs evaluates p3 = p1 * p2 coefficient-wise.
func (r RNSRing) MulCoeffs(p1, p2, p3 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.MulCoeffs(p1[i], p2[i], p3[i]) })
}

// MulCoeffsMontgomery evaluates p3 = p1 * p2 coefficient-wise, with p2 in the Montgomery domain.
func (r RNSRing) MulCoeffsMontgomery(p1, p2, p3 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.MulCoeffsMontgomery(p1[i], p2[i], p3[i]) })
}

// MulCoeffsMontgomeryThenAdd evaluates p3 = p3 + p1 * p2 coefficient-wise,
// with p2 in the Montgomery domain.
func (r RNSRing) MulCoeffsMontgomeryThenAdd(p1, p2, p3 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.MulCoeffsMontgomeryThenAdd(p1[i], p2[i], p3[i]) })
}

// MulPoly evaluates p3 = p1 * p2 in the ring, row by row through the NTT.
// Inputs and output are in the coefficient domain.
func (r RNSRing) MulPoly(p1, p2, p3 RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.MulPoly(p1[i], p2[i], p3[i]) })
}

// SetCoefficientsInt64 sets the coefficients of p from signed integers.
func (r RNSRing) SetCoefficientsInt64(coeffs []int64, p RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.SetCoefficientsInt64(coeffs, p[i]) })
}

// SetCoefficientsBigint sets the coefficients of p from integers of any size and sign.
func (r RNSRing) SetCoefficientsBigint(coeffs []big.Int, p RNSPoly) {
	r.forEach(func(i int, s *Ring) { s.SetCoefficientsBigint(coeffs, p[i]) })
}

// PolyToBigint reconstructs the coefficients of p in [0, Q) on values.
func (r RNSRing) PolyToBigint(p RNSPoly, values []big.Int) (err error) {

	res := make([]uint64, r.Len())

	for j := range values {
		for i := range res {
			res[i] = p[i][j]
		}
		var X *big.Int
		if X, err = r.basis.Decode(res); err != nil {
			return fmt.Errorf("cannot PolyToBigint: coefficient %d: %w", j, err)
		}
		values[j].Set(X)
	}

	return
}

// PolyToBigintCentered reconstructs the coefficients of p in [-Q/2, Q/2) on values.
func (r RNSRing) PolyToBigintCentered(p RNSPoly, values []big.Int) (err error) {

	if err = r.PolyToBigint(p, values); err != nil {
		return
	}

	Q := r.basis.capacity
	for j := range values {
		bignum.Center(&values[j], Q)
	}

	return
}
