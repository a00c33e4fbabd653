package rlwe

import (
	"errors"
	"fmt"

	"github.com/Pro7ech/rnsfhe/ring"
)

var (
	// ErrAnchorMismatch is returned when the anchor rows of a degree one
	// ciphertext are not the centered extension of its main rows.
	ErrAnchorMismatch = errors.New("anchor rows are not the extension of the main rows")

	// ErrInvalidDegree is returned for a nil ciphertext or a ciphertext
	// whose degree is neither one nor two.
	ErrInvalidDegree = errors.New("invalid ciphertext degree")
)

// Ciphertext is a BFV ciphertext (c0, c1), or the degree-two triple
// (d0, d1, d2) of a tensor product before relinearization.
// Each polynomial is stored in the coefficient domain over the dual basis,
// main primes first. A Ciphertext owns its coefficients.
type Ciphertext struct {
	Value []ring.RNSPoly
}

// NewCiphertext returns a new [Ciphertext] of the given degree with zero values.
func NewCiphertext(params ParameterProvider, degree int) (ct *Ciphertext) {
	rQB := params.GetRLWEParameters().RingQB()
	ct = &Ciphertext{Value: make([]ring.RNSPoly, degree+1)}
	for i := range ct.Value {
		ct.Value[i] = rQB.NewRNSPoly()
	}
	return
}

// Degree returns the degree of the ciphertext.
func (ct *Ciphertext) Degree() int {
	return len(ct.Value) - 1
}

// N returns the ring degree of the ciphertext.
func (ct *Ciphertext) N() int {
	return ct.Value[0].N()
}

// Resize changes the degree of the receiver, allocating or dropping
// polynomials as needed.
func (ct *Ciphertext) Resize(params ParameterProvider, degree int) {
	switch {
	case ct.Degree() > degree:
		ct.Value = ct.Value[:degree+1]
	case ct.Degree() < degree:
		rQB := params.GetRLWEParameters().RingQB()
		for ct.Degree() < degree {
			ct.Value = append(ct.Value, rQB.NewRNSPoly())
		}
	}
}

// Clone returns a deep copy of the receiver.
func (ct *Ciphertext) Clone() *Ciphertext {
	clone := &Ciphertext{Value: make([]ring.RNSPoly, len(ct.Value))}
	for i := range ct.Value {
		clone.Value[i] = ct.Value[i].Clone()
	}
	return clone
}

// Copy copies other on the receiver. Both must have the same degree.
func (ct *Ciphertext) Copy(other *Ciphertext) {
	if ct != other {
		for i := range ct.Value {
			ct.Value[i].Copy(other.Value[i])
		}
	}
}

// Equal performs a deep equal.
func (ct *Ciphertext) Equal(other *Ciphertext) bool {

	if other == nil || len(ct.Value) != len(other.Value) {
		return false
	}

	for i := range ct.Value {
		if !ct.Value[i].Equal(other.Value[i]) {
			return false
		}
	}

	return true
}

// Validate checks that the receiver is a well formed ciphertext for the
// parameters: degree one or two, every polynomial of degree N over the
// dual basis with reduced coefficients and, for degree one, anchor rows
// that are the centered extension of the main rows.
func (ct *Ciphertext) Validate(params ParameterProvider) (err error) {

	p := params.GetRLWEParameters()

	if err = ct.ValidateShape(p); err != nil {
		return
	}

	if ct.Degree() == 1 {
		for i := range ct.Value {
			if _, fits, err := p.Rescaler().Measure(ct.Value[i]); err != nil {
				return fmt.Errorf("invalid ciphertext: polynomial %d: %w", i, err)
			} else if !fits {
				return fmt.Errorf("invalid ciphertext: polynomial %d: %w", i, ErrAnchorMismatch)
			}
		}
	}

	return
}

// ValidateShape is the part of [Ciphertext.Validate] that runs in time
// linear in the size of the receiver: it checks the degree, the number of
// rows and coefficients of every polynomial and that the coefficients are
// reduced, but not the anchor rows.
func (ct *Ciphertext) ValidateShape(params ParameterProvider) (err error) {

	if ct == nil {
		return fmt.Errorf("invalid ciphertext: %w: ciphertext is nil", ErrInvalidDegree)
	}

	if ct.Degree() < 1 || ct.Degree() > 2 {
		return fmt.Errorf("invalid ciphertext: %w: %d must be 1 or 2", ErrInvalidDegree, ct.Degree())
	}

	p := params.GetRLWEParameters()

	moduli := p.RingQB().ModuliChain()

	for i := range ct.Value {
		if err = ct.Value[i].Validate(p.N(), moduli); err != nil {
			return fmt.Errorf("invalid ciphertext: polynomial %d: %w", i, err)
		}
	}

	return
}

// BinarySize returns the serialized size of the object in bytes.
func (ct *Ciphertext) BinarySize() (size int) {
	size = 1
	for i := range ct.Value {
		size += ct.Value[i].BinarySize()
	}
	return
}

// MarshalBinary encodes the object as one byte storing the number of
// polynomials followed by the polynomials.
func (ct *Ciphertext) MarshalBinary() (data []byte, err error) {

	if len(ct.Value) > 0xff {
		return nil, fmt.Errorf("cannot MarshalBinary: too many polynomials (%d)", len(ct.Value))
	}

	data = make([]byte, 1, ct.BinarySize())
	data[0] = uint8(len(ct.Value))
	for i := range ct.Value {
		data = ct.Value[i].AppendBinary(data)
	}

	return
}

// UnmarshalBinary decodes a slice of bytes generated by
// [Ciphertext.MarshalBinary] on the object.
// The decoded ciphertext must still be validated with [Ciphertext.Validate]
// before any evaluation.
func (ct *Ciphertext) UnmarshalBinary(data []byte) (err error) {

	if len(data) < 1 {
		return fmt.Errorf("cannot UnmarshalBinary: %w", ring.ErrInvalidPolynomialDegree)
	}

	ct.Value = make([]ring.RNSPoly, data[0])

	ptr := 1
	for i := range ct.Value {
		var n int
		if n, err = ct.Value[i].DecodeBinary(data[ptr:]); err != nil {
			return fmt.Errorf("cannot UnmarshalBinary: polynomial %d: %w", i, err)
		}
		ptr += n
	}

	if ptr != len(data) {
		return fmt.Errorf("cannot UnmarshalBinary: %d trailing bytes", len(data)-ptr)
	}

	return
}
