// Package bfv implements the ciphertext algebra of the Fan-Vercauteren version of
// Brakerski's scale invariant homomorphic encryption scheme (BFV) over a dual
// main/anchor RNS basis, where the rescale following a tensor product is an
// exact division computed with K-Elimination.
package bfv

import (
	"github.com/Pro7ech/rnsfhe/rlwe"
)

// NewPlaintext allocates a new zero [rlwe.Plaintext].
func NewPlaintext(params rlwe.ParameterProvider) (pt *rlwe.Plaintext) {
	return rlwe.NewPlaintext(params)
}

// NewCiphertext allocates a new zero [rlwe.Ciphertext] of the given degree.
func NewCiphertext(params rlwe.ParameterProvider, degree int) (ct *rlwe.Ciphertext) {
	return rlwe.NewCiphertext(params, degree)
}
