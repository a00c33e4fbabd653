package ring

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// RNSPoly is the structure that contains the coefficients of an RNS polynomial:
// one [Poly] (row) per modulus. Rows are backed by a single 1D array.
type RNSPoly []Poly

// BufferSize returns the minimum buffer size
// to instantiate the receiver through [RNSPoly.FromBuffer].
func (p *RNSPoly) BufferSize(N, Level int) int {
	return N * (Level + 1)
}

// FromBuffer assigns new backing array to the receiver.
func (p *RNSPoly) FromBuffer(N, Level int, buf []uint64) {

	if len(buf) < p.BufferSize(N, Level) {
		panic(fmt.Errorf("invalid buffer size: N=%d x (Level+1)=%d < len(p)=%d", N, Level+1, len(buf)))
	}

	*p = make([]Poly, Level+1)
	for i := range Level + 1 {
		(*p)[i] = buf[i*N : (i+1)*N]
	}
}

// NewRNSPoly creates a new polynomial with N coefficients set to zero and Level+1 moduli.
func NewRNSPoly(N, Level int) (p RNSPoly) {
	p.FromBuffer(N, Level, make([]uint64, p.BufferSize(N, Level)))
	return
}

// At returns the i-th row of the receiver.
func (p RNSPoly) At(i int) Poly {
	if i > p.Level() {
		panic(fmt.Errorf("i=%d > p.Level()=%d", i, p.Level()))
	}
	return p[i]
}

// N returns the number of coefficients of the polynomial.
func (p RNSPoly) N() int {
	if len(p) == 0 {
		return 0
	}
	return p[0].N()
}

// LogN returns the base two logarithm of the number of coefficients of the polynomial.
func (p RNSPoly) LogN() int {
	return bits.Len64(uint64(p.N()) - 1)
}

// Level returns the current number of moduli minus 1.
func (p RNSPoly) Level() int {
	return len(p) - 1
}

// Zero sets all coefficients of the target polynomial to 0.
func (p RNSPoly) Zero() {
	for i := range p {
		p[i].Zero()
	}
}

// Equal performs a deep equal.
func (p RNSPoly) Equal(other RNSPoly) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if !p[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the receiver, backed by a single array.
func (p RNSPoly) Clone() RNSPoly {
	c := NewRNSPoly(p.N(), p.Level())
	c.Copy(p)
	return c
}

// Copy copies the rows of other on the receiver, up to the smallest level of the two.
func (p RNSPoly) Copy(other RNSPoly) {
	for i := 0; i < min(len(p), len(other)); i++ {
		p[i].Copy(other[i])
	}
}

// Validate checks that the polynomial has one row of N coefficients per
// modulus and that every coefficient is reduced modulo its row's modulus.
func (p RNSPoly) Validate(N int, moduli []uint64) (err error) {

	if len(p) != len(moduli) {
		return fmt.Errorf("%w: %d rows but expected %d", ErrInvalidPolynomialDegree, len(p), len(moduli))
	}

	for i := range p {
		if err = p[i].Validate(N, moduli[i]); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}

	return
}

// BinarySize returns the serialized size of the object in bytes.
func (p RNSPoly) BinarySize() (size int) {
	size = 4
	for i := range p {
		size += p[i].BinarySize()
	}
	return
}

// MarshalBinary encodes the object as a little-endian uint32
// number of rows followed by the rows.
func (p RNSPoly) MarshalBinary() (data []byte, err error) {
	return p.AppendBinary(make([]byte, 0, p.BinarySize())), nil
}

// AppendBinary appends the serialization of the receiver to data.
func (p RNSPoly) AppendBinary(data []byte) []byte {
	data = binary.LittleEndian.AppendUint32(data, uint32(len(p)))
	for i := range p {
		data = p[i].appendBinary(data)
	}
	return data
}

// UnmarshalBinary decodes a slice of bytes generated by [RNSPoly.MarshalBinary].
// Structural validation against a parameter set is done by [RNSPoly.Validate].
func (p *RNSPoly) UnmarshalBinary(data []byte) (err error) {
	_, err = p.DecodeBinary(data)
	return
}

// DecodeBinary reads an [RNSPoly] from data and returns the number of bytes read.
func (p *RNSPoly) DecodeBinary(data []byte) (n int, err error) {

	if len(data) < 4 {
		return 0, fmt.Errorf("cannot UnmarshalBinary: buffer too small for the header")
	}

	rows := int(binary.LittleEndian.Uint32(data))

	// Each row needs at least its own header.
	if rows > (len(data)-4)/4 {
		return 0, fmt.Errorf("cannot UnmarshalBinary: buffer of %d bytes too small for %d rows", len(data), rows)
	}

	n = 4
	*p = make([]Poly, rows)
	for i := range *p {
		var m int
		if m, err = (*p)[i].decode(data[n:]); err != nil {
			return n, fmt.Errorf("row %d: %w", i, err)
		}
		n += m
	}

	return
}
