package bfv

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Pro7ech/rnsfhe/ring"
	"github.com/Pro7ech/rnsfhe/rlwe"
)

// ErrMessageOutOfBounds is returned when a message is not in [0, t).
var ErrMessageOutOfBounds = errors.New("message out of bounds")

// Encoder is a structure that stores the parameters to encode integers of
// Z_t on the coefficients of a plaintext scaled by Delta = floor(Q/t).
type Encoder struct {
	params rlwe.Parameters

	deltaModQ []uint64 // Delta mod q_i
	q         *big.Int
	t         *big.Int

	bufB []big.Int
}

// NewEncoder creates a new [Encoder] from the provided parameters.
func NewEncoder(params rlwe.ParameterProvider) *Encoder {

	p := *params.GetRLWEParameters()

	return &Encoder{
		params:    p,
		deltaModQ: p.RingQ().Basis().Encode(p.Delta()),
		q:         p.QBigInt(),
		t:         new(big.Int).SetUint64(p.PlaintextModulus()),
		bufB:      make([]big.Int, p.N()),
	}
}

// ShallowCopy returns a new [Encoder] sharing the read-only data of the
// receiver but with its own buffers.
func (ecd Encoder) ShallowCopy() *Encoder {
	return &Encoder{
		params:    ecd.params,
		deltaModQ: ecd.deltaModQ,
		q:         ecd.q,
		t:         ecd.t,
		bufB:      make([]big.Int, ecd.params.N()),
	}
}

// EncodeNew encodes m on the constant coefficient of a new plaintext.
func (ecd Encoder) EncodeNew(m uint64) (pt *rlwe.Plaintext, err error) {
	pt = NewPlaintext(ecd.params)
	return pt, ecd.Encode(m, pt)
}

// Encode encodes m on pt: the constant coefficient is set to Delta*m mod Q
// and all other coefficients to zero.
// Returns [ErrMessageOutOfBounds] unless 0 <= m < t.
func (ecd Encoder) Encode(m uint64, pt *rlwe.Plaintext) (err error) {
	values := make([]uint64, ecd.params.N())
	values[0] = m
	return ecd.EncodePoly(values, pt)
}

// EncodePoly encodes the coefficients values on pt, each scaled by Delta.
// values can be shorter than N, missing coefficients being zero.
func (ecd Encoder) EncodePoly(values []uint64, pt *rlwe.Plaintext) (err error) {

	p := ecd.params

	if len(values) > p.N() {
		return fmt.Errorf("cannot Encode: %d values but ring degree is %d", len(values), p.N())
	}

	T := p.PlaintextModulus()

	for i, m := range values {
		if m >= T {
			return fmt.Errorf("cannot Encode: value %d = %d >= t=%d: %w", i, m, T, ErrMessageOutOfBounds)
		}
	}

	QCount := p.QCount()

	for i, qi := range p.Q() {
		row := pt.Value[i]
		row.Zero()
		for j, m := range values {
			row[j] = ring.MulMod(m, ecd.deltaModQ[i], qi)
		}
	}

	if err = p.Rescaler().Extend(pt.Value[:QCount], pt.Value[QCount:]); err != nil {
		return fmt.Errorf("cannot Encode: %w", err)
	}

	return
}

// DecodeCoefficient decodes the coefficient c of a phase to
// floor((2*t*c + Q) / (2*Q)) mod t, with c first reduced to [0, Q).
// It uses integer arithmetic only.
func (ecd Encoder) DecodeCoefficient(c *big.Int) uint64 {

	x := new(big.Int).Mod(c, ecd.q)

	// 2*t*x + Q
	x.Mul(x, ecd.t)
	x.Lsh(x, 1)
	x.Add(x, ecd.q)

	den := new(big.Int).Lsh(ecd.q, 1)

	x.Quo(x, den)

	return x.Mod(x, ecd.t).Uint64()
}

// Decode decodes the constant coefficient of the phase pt.
func (ecd Encoder) Decode(pt *rlwe.Plaintext) (m uint64, err error) {

	res := make([]uint64, ecd.params.QCount())
	for i := range res {
		res[i] = pt.Value[i][0]
	}

	var c *big.Int
	if c, err = ecd.params.RingQ().Basis().Decode(res); err != nil {
		return 0, fmt.Errorf("cannot Decode: %w", err)
	}

	return ecd.DecodeCoefficient(c), nil
}

// DecodePoly decodes the first len(values) coefficients of the phase pt on values.
func (ecd Encoder) DecodePoly(pt *rlwe.Plaintext, values []uint64) (err error) {

	p := ecd.params

	if len(values) > p.N() {
		return fmt.Errorf("cannot DecodePoly: %d values but ring degree is %d", len(values), p.N())
	}

	if err = p.RingQ().PolyToBigint(pt.Value[:p.QCount()], ecd.bufB); err != nil {
		return fmt.Errorf("cannot DecodePoly: %w", err)
	}

	for i := range values {
		values[i] = ecd.DecodeCoefficient(&ecd.bufB[i])
	}

	return
}
