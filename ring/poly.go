package ring

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/Pro7ech/rnsfhe/utils"
)

var (
	// ErrInvalidPolynomialDegree is returned when a polynomial does not have
	// the expected number of coefficients or rows.
	ErrInvalidPolynomialDegree = errors.New("invalid polynomial degree")
	// ErrCoefficientRange is returned when a coefficient is not reduced
	// modulo its prime.
	ErrCoefficientRange = errors.New("coefficient out of range")
)

// Poly is a polynomial of Z_q[X]/(X^N+1) for a single prime q,
// stored as its N coefficients in [0, q).
type Poly []uint64

// NewPoly allocates a new [Poly] with N zero coefficients.
func NewPoly(N int) Poly {
	return make([]uint64, N)
}

// N returns the number of coefficients of the polynomial.
func (p Poly) N() int {
	return len(p)
}

// Zero sets all coefficients to zero.
func (p Poly) Zero() {
	clear(p)
}

// Clone returns a deep copy of the receiver.
func (p Poly) Clone() Poly {
	return slices.Clone(p)
}

// Copy copies the coefficients of other on the receiver.
func (p Poly) Copy(other Poly) {
	if !utils.Alias1D(p, other) {
		copy(p, other)
	}
}

// Equal returns true if the receiver and other have identical coefficients.
func (p Poly) Equal(other Poly) bool {
	return slices.Equal(p, other)
}

// Validate checks that the polynomial has N coefficients, all smaller than q.
func (p Poly) Validate(N int, q uint64) error {
	if len(p) != N {
		return fmt.Errorf("%w: %d coefficients but expected %d", ErrInvalidPolynomialDegree, len(p), N)
	}
	for i, c := range p {
		if c >= q {
			return fmt.Errorf("%w: coefficient %d = %d >= %d", ErrCoefficientRange, i, c, q)
		}
	}
	return nil
}

// BinarySize returns the serialized size of the object in bytes.
func (p Poly) BinarySize() int {
	return 4 + 8*len(p)
}

// MarshalBinary encodes the polynomial as a little-endian
// uint32 length followed by the coefficients.
func (p Poly) MarshalBinary() (data []byte, err error) {
	return p.appendBinary(make([]byte, 0, p.BinarySize())), nil
}

func (p Poly) appendBinary(data []byte) []byte {
	data = binary.LittleEndian.AppendUint32(data, uint32(len(p)))
	for _, c := range p {
		data = binary.LittleEndian.AppendUint64(data, c)
	}
	return data
}

// UnmarshalBinary decodes a slice of bytes generated by [Poly.MarshalBinary].
func (p *Poly) UnmarshalBinary(data []byte) (err error) {
	_, err = p.decode(data)
	return
}

// decode reads the polynomial from data and returns the number of bytes read.
func (p *Poly) decode(data []byte) (n int, err error) {

	if len(data) < 4 {
		return 0, fmt.Errorf("cannot UnmarshalBinary: buffer too small for the header")
	}

	N := int(binary.LittleEndian.Uint32(data))

	if len(data)-4 < 8*N {
		return 0, fmt.Errorf("cannot UnmarshalBinary: buffer of %d bytes too small for %d coefficients", len(data), N)
	}

	if len(*p) != N {
		*p = NewPoly(N)
	}

	for i := range *p {
		(*p)[i] = binary.LittleEndian.Uint64(data[4+8*i:])
	}

	return 4 + 8*N, nil
}
