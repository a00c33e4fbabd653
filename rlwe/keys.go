package rlwe

import (
	"fmt"
	"runtime"

	"github.com/google/go-cmp/cmp"

	"github.com/Pro7ech/rnsfhe/ring"
)

// SecretKey is a ternary polynomial over the main primes,
// in the coefficient domain.
type SecretKey struct {
	Value ring.RNSPoly
}

// NewSecretKey generates a new [SecretKey] with zero values.
func NewSecretKey(params ParameterProvider) *SecretKey {
	return &SecretKey{Value: params.GetRLWEParameters().RingQ().NewRNSPoly()}
}

// N returns the ring degree of the key.
func (sk *SecretKey) N() int {
	return sk.Value.N()
}

// Clone returns a deep copy of the key.
func (sk *SecretKey) Clone() *SecretKey {
	return &SecretKey{Value: sk.Value.Clone()}
}

// Equal performs a deep equal.
func (sk *SecretKey) Equal(other *SecretKey) bool {
	return other != nil && sk.Value.Equal(other.Value)
}

// Zeroize overwrites every coefficient of the key with zero.
// The key must not be used afterward.
func (sk *SecretKey) Zeroize() {
	if sk == nil {
		return
	}
	for i := range sk.Value {
		zeroize(sk.Value[i])
	}
	runtime.KeepAlive(sk.Value)
}

//go:noinline
func zeroize(p []uint64) {
	for i := range p {
		p[i] = 0
	}
}

// WithSecretKey calls f with sk and zeroizes sk when f returns,
// whether it succeeded or not.
func WithSecretKey(sk *SecretKey, f func(sk *SecretKey) error) error {
	defer sk.Zeroize()
	return f(sk)
}

// PublicKey is an encryption of zero (pk0, pk1) = (-a*s + e, a)
// over the main primes, in the coefficient domain.
type PublicKey struct {
	Value [2]ring.RNSPoly
}

// NewPublicKey returns a new [PublicKey] with zero values.
func NewPublicKey(params ParameterProvider) *PublicKey {
	rQ := params.GetRLWEParameters().RingQ()
	return &PublicKey{Value: [2]ring.RNSPoly{rQ.NewRNSPoly(), rQ.NewRNSPoly()}}
}

// Equal performs a deep equal.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return other != nil && pk.Value[0].Equal(other.Value[0]) && pk.Value[1].Equal(other.Value[1])
}

// EvaluationKey is a relinearization key: for each gadget digit (i, j),
// an encryption (-a*s + e + g_{i,j}*s^2, a) over the main primes, where
// g_{i,j} is 2^{w*j} on the i-th prime and zero on the others.
// The polynomials are stored in the NTT and Montgomery domains.
// An EvaluationKey is never mutated by the evaluation and can be shared.
type EvaluationKey struct {
	BaseTwoDecomposition int
	// Value[i][j] is the key of the j-th digit of the i-th prime.
	Value [][][2]ring.RNSPoly
}

// NewEvaluationKey returns a new [EvaluationKey] with zero values.
func NewEvaluationKey(params ParameterProvider) *EvaluationKey {

	p := params.GetRLWEParameters()

	rQ := p.RingQ()

	perPrime, _ := p.DecompositionDigits()

	evk := &EvaluationKey{
		BaseTwoDecomposition: p.BaseTwoDecomposition(),
		Value:                make([][][2]ring.RNSPoly, p.QCount()),
	}

	for i := range evk.Value {
		evk.Value[i] = make([][2]ring.RNSPoly, perPrime)
		for j := range evk.Value[i] {
			evk.Value[i][j] = [2]ring.RNSPoly{rQ.NewRNSPoly(), rQ.NewRNSPoly()}
		}
	}

	return evk
}

// Digits returns the number of primes and of digits per prime of the key.
func (evk *EvaluationKey) Digits() (primes, perPrime int) {
	if len(evk.Value) == 0 {
		return 0, 0
	}
	return len(evk.Value), len(evk.Value[0])
}

// Equal performs a deep equal.
func (evk *EvaluationKey) Equal(other *EvaluationKey) bool {
	return other != nil && cmp.Equal(evk, other)
}

// checkShape returns an error if the digits of the key do not match the parameters.
func (evk *EvaluationKey) checkShape(p Parameters) error {

	if evk == nil {
		return fmt.Errorf("evaluation key is nil")
	}

	perPrime, _ := p.DecompositionDigits()

	if primes, digits := evk.Digits(); primes != p.QCount() || digits != perPrime || evk.BaseTwoDecomposition != p.BaseTwoDecomposition() {
		return fmt.Errorf("evaluation key has %dx%d digits of %d bits but parameters require %dx%d digits of %d bits",
			primes, digits, evk.BaseTwoDecomposition, p.QCount(), perPrime, p.BaseTwoDecomposition())
	}

	for i := range evk.Value {
		if len(evk.Value[i]) != perPrime {
			return fmt.Errorf("evaluation key has %d digits for prime %d but parameters require %d", len(evk.Value[i]), i, perPrime)
		}
	}

	return nil
}

// Validate checks that the key matches the parameters and that every
// coefficient is reduced modulo its prime.
func (evk *EvaluationKey) Validate(params ParameterProvider) error {

	p := params.GetRLWEParameters()

	if err := evk.checkShape(*p); err != nil {
		return fmt.Errorf("invalid evaluation key: %w", err)
	}

	for i := range evk.Value {
		for j := range evk.Value[i] {
			for k := range 2 {
				if err := evk.Value[i][j][k].Validate(p.N(), p.Q()); err != nil {
					return fmt.Errorf("invalid evaluation key: digit (%d, %d): %w", i, j, err)
				}
			}
		}
	}

	return nil
}
