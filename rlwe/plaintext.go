package rlwe

import (
	"github.com/Pro7ech/rnsfhe/ring"
)

// Plaintext is a polynomial over the dual basis whose anchor rows are the
// centered extension of its main rows.
type Plaintext struct {
	Value ring.RNSPoly
}

// NewPlaintext returns a new [Plaintext] with zero values.
func NewPlaintext(params ParameterProvider) *Plaintext {
	return &Plaintext{Value: params.GetRLWEParameters().RingQB().NewRNSPoly()}
}

// Equal performs a deep equal.
func (pt *Plaintext) Equal(other *Plaintext) bool {
	return other != nil && pt.Value.Equal(other.Value)
}
