package ring

import (
	"fmt"
	"math/bits"
)

// NTT evaluates p2 = NTT(p1), i.e. p2[k] = p1(psi^(2k+1)).
// p1 and p2 can be the same slice.
func (r Ring) NTT(p1, p2 []uint64) {
	r.Forward(p1, p2)
}

// INTT evaluates p2 = INTT(p1). p1 and p2 can be the same slice.
func (r Ring) INTT(p1, p2 []uint64) {
	r.Backward(p1, p2)
}

// Forward computes the negacyclic NTT of p1 on p2: the coefficients are
// twisted by psi^i, permuted in bit-reversed order and transformed by
// log2(N) Cooley-Tukey decimation-in-time stages with omega = psi^2.
func (r Ring) Forward(p1, p2 []uint64) {

	r.checkSize(p1, p2)

	q, mrc := r.Q, r.MRedConstant

	for i := range p1 {
		p2[i] = MRed(p1[i], r.Twist[i], q, mrc)
	}

	bitReverse(p2)
	dit(p2, r.RootsForward, q, mrc)
}

// Backward computes the inverse negacyclic NTT of p1 on p2: bit-reversed
// order, log2(N) decimation-in-time stages with omega^-1, then untwist by
// N^-1 * psi^-i.
func (r Ring) Backward(p1, p2 []uint64) {

	r.checkSize(p1, p2)

	q, mrc := r.Q, r.MRedConstant

	copy(p2, p1)
	bitReverse(p2)
	dit(p2, r.RootsBackward, q, mrc)

	for i := range p2 {
		p2[i] = MRed(p2[i], r.Untwist[i], q, mrc)
	}
}

func (r Ring) checkSize(p1, p2 []uint64) {
	// Sanity check
	if len(p1) != r.N || len(p2) != r.N {
		panic(fmt.Errorf("invalid polynomial size: len(p1)=%d, len(p2)=%d but N=%d", len(p1), len(p2), r.N))
	}
}

// bitReverse permutes p in place in bit-reversed index order.
func bitReverse(p []uint64) {
	N := len(p)
	logN := bits.Len64(uint64(N)) - 1
	for i := 0; i < N; i++ {
		j := int(bits.Reverse64(uint64(i)) >> (64 - logN))
		if i < j {
			p[i], p[j] = p[j], p[i]
		}
	}
}

// dit applies the iterative Cooley-Tukey butterflies on p, given in
// bit-reversed order, with roots[j] = omega^j in Montgomery form.
// Output is in natural order and reduced in [0, q).
func dit(p, roots []uint64, q, mrc uint64) {

	N := len(p)

	for m := 2; m <= N; m <<= 1 {

		h := m >> 1
		stride := N / m

		for start := 0; start < N; start += m {
			for j := 0; j < h; j++ {
				u := p[start+j]
				v := MRed(p[start+j+h], roots[j*stride], q, mrc)
				p[start+j] = CRed(u+v, q)
				p[start+j+h] = CRed(u+q-v, q)
			}
		}
	}
}

// MulPoly evaluates p3 = p1 * p2 in Z_q[X]/(X^N+1) through the NTT.
// p3 can alias p1 or p2.
func (r Ring) MulPoly(p1, p2, p3 []uint64) {

	a := make([]uint64, r.N)
	b := make([]uint64, r.N)

	r.Forward(p1, a)
	r.Forward(p2, b)

	r.MulCoeffs(a, b, a)

	r.Backward(a, p3)
}

// MulPolyNaive evaluates p3 = p1 * p2 in Z_q[X]/(X^N+1) with the
// schoolbook negacyclic convolution. It serves as a reference for [Ring.MulPoly].
func (r Ring) MulPolyNaive(p1, p2, p3 []uint64) {

	r.checkSize(p1, p2)

	N := r.N
	acc := make([]uint64, N)

	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			prod := r.Modulus.Mul(p1[i], p2[j])
			if k := i + j; k < N {
				acc[k] = r.Modulus.Add(acc[k], prod)
			} else {
				// X^N = -1
				acc[k-N] = r.Modulus.Sub(acc[k-N], prod)
			}
		}
	}

	copy(p3, acc)
}
