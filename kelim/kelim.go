// Package kelim implements exact reconstruction and exact division over a
// dual main/anchor RNS basis with the K-Elimination algorithm, the capacity
// tracking that keeps intermediates inside the dual capacity, and the exact
// rescaling of BFV tensor products built on both.
package kelim

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Pro7ech/rnsfhe/ring"
)

var (
	// ErrAnchorZero is returned when the anchor modulus is zero.
	ErrAnchorZero = errors.New("anchor modulus is zero")
	// ErrRangeOverflow is returned when a value or a residue exceeds its modulus.
	ErrRangeOverflow = errors.New("value exceeds the capacity")
	// ErrInexactDivision is returned when the divisor does not divide the value.
	ErrInexactDivision = errors.New("division is not exact")
	// ErrDivisorZero is returned when the divisor is zero.
	ErrDivisorZero = errors.New("divisor is zero")
)

// Eliminator reconstructs a value X < alpha * beta from its residues
// vAlpha = X mod alpha and vBeta = X mod beta.
// An Eliminator is read-only after creation and safe for concurrent use.
type Eliminator struct {
	alpha    *big.Int
	beta     *big.Int
	capacity *big.Int
	// alpha^-1 mod beta
	alphaInv *big.Int
}

// New creates a new [Eliminator] for the main capacity alpha and the anchor
// capacity beta. Both must be positive and coprime.
func New(alpha, beta *big.Int) (e *Eliminator, err error) {

	if alpha == nil || alpha.Sign() == 0 {
		return nil, fmt.Errorf("invalid main capacity: %w", ring.ErrModulusZero)
	}

	if beta == nil || beta.Sign() == 0 {
		return nil, fmt.Errorf("invalid anchor capacity: %w", ErrAnchorZero)
	}

	if alpha.Sign() < 0 || beta.Sign() < 0 {
		return nil, fmt.Errorf("invalid capacities: alpha=%v and beta=%v must be positive", alpha, beta)
	}

	if g := new(big.Int).GCD(nil, nil, alpha, beta); g.Cmp(big.NewInt(1)) != 0 {
		return nil, &ring.NotCoprimeError{
			M:   new(big.Int).Set(alpha),
			A:   new(big.Int).Set(beta),
			GCD: g,
		}
	}

	e = &Eliminator{
		alpha:    new(big.Int).Set(alpha),
		beta:     new(big.Int).Set(beta),
		capacity: new(big.Int).Mul(alpha, beta),
	}

	e.alphaInv = new(big.Int).Mod(alpha, beta)
	e.alphaInv.ModInverse(e.alphaInv, beta)

	return
}

// NewFromBases creates a new [Eliminator] whose capacities are the
// products of the main and anchor bases.
func NewFromBases(main, anchor *ring.RNSBasis) (e *Eliminator, err error) {
	return New(main.Capacity(), anchor.Capacity())
}

// Alpha returns a copy of the main capacity.
func (e *Eliminator) Alpha() *big.Int {
	return new(big.Int).Set(e.alpha)
}

// Beta returns a copy of the anchor capacity.
func (e *Eliminator) Beta() *big.Int {
	return new(big.Int).Set(e.beta)
}

// Capacity returns a copy of alpha * beta.
func (e *Eliminator) Capacity() *big.Int {
	return new(big.Int).Set(e.capacity)
}

// CapacityBits returns the bit-length of alpha * beta.
func (e *Eliminator) CapacityBits() int {
	return e.capacity.BitLen()
}

// Residues returns X mod alpha and X mod beta.
// It returns [ErrRangeOverflow] unless 0 <= X < alpha * beta.
func (e *Eliminator) Residues(X *big.Int) (vAlpha, vBeta *big.Int, err error) {
	if X.Sign() < 0 || X.Cmp(e.capacity) >= 0 {
		return nil, nil, fmt.Errorf("cannot Residues: X of %d bits for a capacity of %d bits: %w", X.BitLen(), e.capacity.BitLen(), ErrRangeOverflow)
	}
	return new(big.Int).Mod(X, e.alpha), new(big.Int).Mod(X, e.beta), nil
}

// Quotient returns k = floor(X / alpha) = (vBeta - vAlpha) * alpha^-1 mod beta.
func (e *Eliminator) Quotient(vAlpha, vBeta *big.Int) (k *big.Int, err error) {

	if vAlpha.Sign() < 0 || vAlpha.Cmp(e.alpha) >= 0 {
		return nil, fmt.Errorf("cannot Quotient: vAlpha=%v not in [0, alpha): %w", vAlpha, ErrRangeOverflow)
	}

	if vBeta.Sign() < 0 || vBeta.Cmp(e.beta) >= 0 {
		return nil, fmt.Errorf("cannot Quotient: vBeta=%v not in [0, beta): %w", vBeta, ErrRangeOverflow)
	}

	k = new(big.Int).Sub(vBeta, vAlpha)
	k.Mul(k, e.alphaInv)
	k.Mod(k, e.beta)

	return
}

// Reconstruct returns the unique X in [0, alpha * beta) such that
// X = vAlpha mod alpha and X = vBeta mod beta.
func (e *Eliminator) Reconstruct(vAlpha, vBeta *big.Int) (X *big.Int, err error) {

	var k *big.Int
	if k, err = e.Quotient(vAlpha, vBeta); err != nil {
		return nil, fmt.Errorf("cannot Reconstruct: %w", err)
	}

	X = k.Mul(k, e.alpha)
	return X.Add(X, vAlpha), nil
}

// ExactDivide returns X / d. The value is routed through its dual residues and
// reconstructed before the division.
// It returns [ErrRangeOverflow] if X is not in [0, alpha * beta) and
// [ErrInexactDivision] if d does not divide X.
func (e *Eliminator) ExactDivide(X, d *big.Int) (Z *big.Int, err error) {

	if d.Sign() == 0 {
		return nil, fmt.Errorf("cannot ExactDivide: %w", ErrDivisorZero)
	}

	if d.Sign() < 0 {
		return nil, fmt.Errorf("cannot ExactDivide: divisor %v must be positive", d)
	}

	var vAlpha, vBeta *big.Int
	if vAlpha, vBeta, err = e.Residues(X); err != nil {
		return nil, fmt.Errorf("cannot ExactDivide: %w", err)
	}

	if X, err = e.Reconstruct(vAlpha, vBeta); err != nil {
		return nil, fmt.Errorf("cannot ExactDivide: %w", err)
	}

	Z, r := new(big.Int).QuoRem(X, d, new(big.Int))
	if r.Sign() != 0 {
		return nil, fmt.Errorf("cannot ExactDivide: %v mod %v = %v: %w", X, d, r, ErrInexactDivision)
	}

	return Z, nil
}

// DivideExactRNS divides the value X represented by residues over basis by d,
// channel by channel, and returns the residues of X / d.
// d must be coprime with every modulus of the basis. The division is
// verified by reconstruction and returns [ErrInexactDivision] if d does not
// divide X.
func DivideExactRNS(basis *ring.RNSBasis, residues []uint64, d uint64) (quotient []uint64, err error) {

	if d == 0 {
		return nil, fmt.Errorf("cannot DivideExactRNS: %w", ErrDivisorZero)
	}

	moduli := basis.Moduli()

	if len(residues) != len(moduli) {
		return nil, fmt.Errorf("cannot DivideExactRNS: %d residues for a basis of %d moduli", len(residues), len(moduli))
	}

	quotient = make([]uint64, len(moduli))

	bd, bq := new(big.Int).SetUint64(d), new(big.Int)

	for i, qi := range moduli {

		bq.SetUint64(qi)

		dInv := new(big.Int).ModInverse(bd, bq)

		if dInv == nil {
			g := new(big.Int).GCD(nil, nil, bd, bq)
			return nil, fmt.Errorf("cannot DivideExactRNS: %w", &ring.NotCoprimeError{M: bd, A: bq, GCD: g})
		}

		if residues[i] >= qi {
			return nil, fmt.Errorf("cannot DivideExactRNS: residue %d = %d >= %d: %w", i, residues[i], qi, ring.ErrCoefficientRange)
		}

		r := new(big.Int).SetUint64(residues[i])
		r.Mul(r, dInv)
		quotient[i] = r.Mod(r, bq).Uint64()
	}

	// Z = X * d^-1 mod P is the quotient iff Z * d < P.
	var Z *big.Int
	if Z, err = basis.Decode(quotient); err != nil {
		return nil, fmt.Errorf("cannot DivideExactRNS: %w", err)
	}

	if Z.Mul(Z, bd).Cmp(basis.Capacity()) >= 0 {
		return nil, fmt.Errorf("cannot DivideExactRNS: %d does not divide the value: %w", d, ErrInexactDivision)
	}

	return
}
