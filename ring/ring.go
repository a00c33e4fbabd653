// Package ring implements RNS-accelerated modular arithmetic on polynomials of
// Z_q[X]/(X^N+1), including: constant-time Montgomery and Barrett arithmetic,
// the negacyclic number theoretic transform (NTT), RNS bases with Garner
// reconstruction, and sampling of uniform, ternary and centered binomial
// polynomials.
package ring

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/Pro7ech/rnsfhe/utils"
)

// MinimumRingDegree is the smallest supported ring degree.
const MinimumRingDegree = 2

// ErrNTTConfig is returned when a modulus does not enable the
// negacyclic NTT of the requested degree, i.e. q != 1 mod 2N.
var ErrNTTConfig = errors.New("invalid NTT configuration")

// Ring is a struct storing precomputation for fast modular
// reduction and NTT for a given prime modulus and degree.
// A Ring is immutable after creation and safe for concurrent use.
type Ring struct {
	*Modulus

	// Polynomial degree
	N int

	*NTTTable
}

// NTTTable stores the constants of the negacyclic NTT.
// All tables are in Montgomery form.
type NTTTable struct {
	NthRoot       uint64   // 2N
	PrimitiveRoot uint64   // psi, a primitive 2N-th root of unity (standard form)
	Twist         []uint64 // psi^i
	Untwist       []uint64 // N^-1 * psi^-i
	RootsForward  []uint64 // omega^j, omega = psi^2, j < N/2
	RootsBackward []uint64 // omega^-j, j < N/2
	NInv          uint64   // N^-1
}

// NewRing creates a new [Ring] of degree N and prime modulus q
// together with its NTT tables.
// N must be a power of two and q a prime equal to 1 mod 2N.
func NewRing(N int, q uint64) (r *Ring, err error) {

	if N < MinimumRingDegree || !utils.IsPowerOfTwo(uint64(N)) {
		return nil, fmt.Errorf("invalid ring degree: N=%d must be a power of two greater or equal to %d", N, MinimumRingDegree)
	}

	var m *Modulus
	if m, err = NewModulus(q); err != nil {
		return nil, fmt.Errorf("invalid ring modulus: %w", err)
	}

	if (q-1)%uint64(2*N) != 0 {
		return nil, fmt.Errorf("%w: q=%d != 1 mod 2N=%d", ErrNTTConfig, q, 2*N)
	}

	r = &Ring{Modulus: m, N: N}

	if err = r.genNTTTable(); err != nil {
		return nil, err
	}

	return
}

// LogN returns log2(N).
func (r Ring) LogN() int {
	return bits.Len64(uint64(r.N) - 1)
}

// NewPoly allocates a new zero polynomial of degree N.
func (r Ring) NewPoly() Poly {
	return NewPoly(r.N)
}

// genNTTTable generates the NTT tables of the receiver.
func (r *Ring) genNTTTable() (err error) {

	N, q := r.N, r.Q
	NthRoot := uint64(2 * N)

	var psi uint64
	if psi, err = PrimitiveNthRoot(q, NthRoot); err != nil {
		return
	}

	psiMont := r.Modulus.MForm(psi)
	psiInvMont := r.Modulus.MForm(r.Modulus.PowVarTime(psi, NthRoot-1))

	// psi^N = -1
	if r.Modulus.IMForm(ModExpMontgomery(psiMont, NthRoot>>1, q, r.MRedConstant, r.BRedConstant)) != q-1 {
		return fmt.Errorf("invalid 2N-th primitive root: psi^N != -1 mod %d", q)
	}

	nInv := r.Modulus.PowVarTime(uint64(N), q-2)

	t := &NTTTable{
		NthRoot:       NthRoot,
		PrimitiveRoot: psi,
		Twist:         make([]uint64, N),
		Untwist:       make([]uint64, N),
		RootsForward:  make([]uint64, N>>1),
		RootsBackward: make([]uint64, N>>1),
		NInv:          r.Modulus.MForm(nInv),
	}

	one := r.Modulus.MForm(1)
	t.Twist[0] = one
	t.Untwist[0] = t.NInv
	for i := 1; i < N; i++ {
		t.Twist[i] = MRed(t.Twist[i-1], psiMont, q, r.MRedConstant)
		t.Untwist[i] = MRed(t.Untwist[i-1], psiInvMont, q, r.MRedConstant)
	}

	omega := MRed(psiMont, psiMont, q, r.MRedConstant)
	omegaInv := MRed(psiInvMont, psiInvMont, q, r.MRedConstant)

	t.RootsForward[0] = one
	t.RootsBackward[0] = one
	for j := 1; j < N>>1; j++ {
		t.RootsForward[j] = MRed(t.RootsForward[j-1], omega, q, r.MRedConstant)
		t.RootsBackward[j] = MRed(t.RootsBackward[j-1], omegaInv, q, r.MRedConstant)
	}

	r.NTTTable = t

	return
}

// PrimitiveNthRoot returns a primitive NthRoot-th root of unity modulo the
// prime q, for NthRoot a power of two dividing q-1. Since the order of
// x = g^((q-1)/NthRoot) divides NthRoot, x is primitive if and only if
// x^(NthRoot/2) = -1.
func PrimitiveNthRoot(q, NthRoot uint64) (uint64, error) {

	if NthRoot < 2 || (q-1)%NthRoot != 0 {
		return 0, fmt.Errorf("%w: q=%d != 1 mod %d", ErrNTTConfig, q, NthRoot)
	}

	e := (q - 1) / NthRoot

	for g := uint64(2); g < q; g++ {
		if x := ModExp(g, e, q); ModExp(x, NthRoot>>1, q) == q-1 {
			return x, nil
		}
	}

	return 0, fmt.Errorf("%w: no primitive %d-th root of unity modulo %d", ErrNTTConfig, NthRoot, q)
}
