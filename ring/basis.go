package ring

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Pro7ech/rnsfhe/utils"
	"github.com/Pro7ech/rnsfhe/utils/bignum"
)

var (
	// ErrNotCoprime is matched by [*NotCoprimeError] with [errors.Is].
	ErrNotCoprime = errors.New("moduli are not coprime")
	// ErrModulusZero is returned when a modulus (or a modulus product) is zero.
	ErrModulusZero = errors.New("modulus is zero")
	// ErrEmptyBasis is returned when creating a basis without moduli.
	ErrEmptyBasis = errors.New("empty basis")
)

// NotCoprimeError reports two moduli M and A sharing the factor GCD.
type NotCoprimeError struct {
	M, A, GCD *big.Int
}

// NewNotCoprimeError returns a [*NotCoprimeError] for machine word moduli.
func NewNotCoprimeError(m, a, gcd uint64) *NotCoprimeError {
	return &NotCoprimeError{
		M:   new(big.Int).SetUint64(m),
		A:   new(big.Int).SetUint64(a),
		GCD: new(big.Int).SetUint64(gcd),
	}
}

func (e *NotCoprimeError) Error() string {
	return fmt.Sprintf("moduli %v and %v are not coprime: gcd=%v", e.M, e.A, e.GCD)
}

// Is makes [errors.Is] match [ErrNotCoprime].
func (e *NotCoprimeError) Is(target error) bool {
	return target == ErrNotCoprime
}

// RNSBasis is a set of pairwise coprime moduli together with the
// precomputed constants for Garner's mixed-radix reconstruction.
// An RNSBasis is immutable after creation and safe for concurrent use.
type RNSBasis struct {
	moduli   []uint64
	capacity *big.Int

	// garner[i] = (q_0 * ... * q_{i-1})^-1 mod q_i
	garner []uint64
	// prefix[i][j] = q_j mod q_i, for j < i
	prefix [][]uint64
}

// NewRNSBasis creates a new [RNSBasis] from pairwise coprime moduli.
// Moduli need not be prime but must be at least 2 and smaller than 2^63.
func NewRNSBasis(moduli []uint64) (b *RNSBasis, err error) {

	if len(moduli) == 0 {
		return nil, fmt.Errorf("invalid basis: %w", ErrEmptyBasis)
	}

	for i, qi := range moduli {
		if qi == 0 {
			return nil, fmt.Errorf("invalid basis: modulus %d: %w", i, ErrModulusZero)
		}
		if qi == 1 || qi >= 1<<63 {
			return nil, fmt.Errorf("invalid basis: modulus %d = %d must be in [2, 2^63)", i, qi)
		}
		for _, qj := range moduli[:i] {
			if g := utils.GCD(qi, qj); g != 1 {
				return nil, NewNotCoprimeError(qj, qi, g)
			}
		}
	}

	b = &RNSBasis{
		moduli:   append([]uint64{}, moduli...),
		capacity: bignum.Product(moduli),
		garner:   make([]uint64, len(moduli)),
		prefix:   make([][]uint64, len(moduli)),
	}

	for i, qi := range moduli {

		b.prefix[i] = make([]uint64, i)

		// Moduli are coprime but not necessarily prime:
		// inverses are computed with big.Int.
		acc := big.NewInt(1)
		bqi := new(big.Int).SetUint64(qi)
		for j, qj := range moduli[:i] {
			b.prefix[i][j] = qj % qi
			acc.Mul(acc, new(big.Int).SetUint64(qj))
			acc.Mod(acc, bqi)
		}

		b.garner[i] = new(big.Int).ModInverse(acc, bqi).Uint64()
	}

	return
}

// Moduli returns a copy of the moduli of the basis.
func (b *RNSBasis) Moduli() []uint64 {
	return append([]uint64{}, b.moduli...)
}

// Len returns the number of moduli of the basis.
func (b *RNSBasis) Len() int {
	return len(b.moduli)
}

// Capacity returns a copy of the product of the moduli.
func (b *RNSBasis) Capacity() *big.Int {
	return new(big.Int).Set(b.capacity)
}

// CapacityBits returns the bit-length of the product of the moduli.
func (b *RNSBasis) CapacityBits() int {
	return b.capacity.BitLen()
}

// Encode returns the residues of X modulo each modulus of the basis.
// Negative values are mapped to their representative in [0, Capacity()).
func (b *RNSBasis) Encode(X *big.Int) (res []uint64) {
	res = make([]uint64, len(b.moduli))
	tmp, qi := new(big.Int), new(big.Int)
	for i, q := range b.moduli {
		res[i] = tmp.Mod(X, qi.SetUint64(q)).Uint64()
	}
	return
}

// EncodeUint64 returns the residues of x modulo each modulus of the basis.
func (b *RNSBasis) EncodeUint64(x uint64) (res []uint64) {
	res = make([]uint64, len(b.moduli))
	for i, q := range b.moduli {
		res[i] = x % q
	}
	return
}

// digits computes the mixed-radix digits y of the residues:
// X = y_0 + y_1 q_0 + y_2 q_0 q_1 + ...
func (b *RNSBasis) digits(res []uint64) (y []uint64, err error) {

	if len(res) != len(b.moduli) {
		return nil, fmt.Errorf("invalid residues: %d residues for a basis of %d moduli", len(res), len(b.moduli))
	}

	for i, r := range res {
		if r >= b.moduli[i] {
			return nil, fmt.Errorf("invalid residues: %w: residue %d = %d >= %d", ErrCoefficientRange, i, r, b.moduli[i])
		}
	}

	y = make([]uint64, len(res))

	for i, qi := range b.moduli {

		// t = y_0 + y_1 q_0 + ... + y_{i-1} q_0...q_{i-2} mod q_i, by Horner.
		var t uint64
		for j := i - 1; j >= 0; j-- {
			t = MulAddMod(t, b.prefix[i][j], y[j]%qi, qi)
		}

		d := (res[i] + qi - t) % qi
		y[i] = MulMod(d, b.garner[i], qi)
	}

	return
}

// Decode reconstructs X in [0, Capacity()) from its residues with Garner's algorithm.
func (b *RNSBasis) Decode(res []uint64) (X *big.Int, err error) {

	var y []uint64
	if y, err = b.digits(res); err != nil {
		return nil, fmt.Errorf("cannot Decode: %w", err)
	}

	X = new(big.Int)
	tmp := new(big.Int)
	for i := len(y) - 1; i >= 0; i-- {
		X.Mul(X, tmp.SetUint64(b.moduli[i]))
		X.Add(X, tmp.SetUint64(y[i]))
	}

	return
}

// DecodeWide is identical to [RNSBasis.Decode] but returns a [bignum.Uint256].
// It requires O(k) wide operations and returns [bignum.ErrOverflow] if the
// capacity of the basis exceeds 256 bits.
func (b *RNSBasis) DecodeWide(res []uint64) (X bignum.Uint256, err error) {

	if b.capacity.BitLen() > 256 {
		return X, fmt.Errorf("cannot DecodeWide: capacity of %d bits: %w", b.capacity.BitLen(), bignum.ErrOverflow)
	}

	var y []uint64
	if y, err = b.digits(res); err != nil {
		return X, fmt.Errorf("cannot DecodeWide: %w", err)
	}

	for i := len(y) - 1; i >= 0; i-- {
		if X, err = X.Mul64(b.moduli[i]); err != nil {
			return X, fmt.Errorf("cannot DecodeWide: %w", err)
		}
		if X, err = X.Add(bignum.NewUint256(y[i])); err != nil {
			return X, fmt.Errorf("cannot DecodeWide: %w", err)
		}
	}

	return
}
