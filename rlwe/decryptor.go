package rlwe

import (
	"fmt"

	"github.com/Pro7ech/rnsfhe/ring"
)

// Decryptor is a structure used to decrypt [Ciphertext].
// It stores its own copy of the secret key, erased by [Decryptor.Close].
type Decryptor struct {
	params Parameters
	buff   ring.RNSPoly
	sk     *SecretKey
}

// NewDecryptor instantiates a new [Decryptor] holding a copy of sk.
func NewDecryptor(params ParameterProvider, sk *SecretKey) (*Decryptor, error) {

	p := params.GetRLWEParameters()

	if sk == nil {
		return nil, fmt.Errorf("cannot NewDecryptor: secret key is nil")
	}

	if err := sk.Value.Validate(p.N(), p.Q()); err != nil {
		return nil, fmt.Errorf("cannot NewDecryptor: invalid secret key: %w", err)
	}

	return &Decryptor{
		params: *p,
		buff:   p.RingQ().NewRNSPoly(),
		sk:     sk.Clone(),
	}, nil
}

// GetRLWEParameters returns the underlying [Parameters] of the receiver.
func (d Decryptor) GetRLWEParameters() *Parameters {
	return &d.params
}

// ShallowCopy returns a new [Decryptor] sharing the secret key of the
// receiver but with its own buffer. The copy must not be used after the
// receiver has been closed.
func (d Decryptor) ShallowCopy() *Decryptor {
	return &Decryptor{
		params: d.params,
		buff:   d.params.RingQ().NewRNSPoly(),
		sk:     d.sk,
	}
}

// Close erases the secret key held by the receiver.
func (d *Decryptor) Close() {
	d.sk.Zeroize()
	for i := range d.buff {
		zeroize(d.buff[i])
	}
}

// DecryptNew decrypts a [Ciphertext] and returns the result in a new [Plaintext].
func (d Decryptor) DecryptNew(ct *Ciphertext) (pt *Plaintext, err error) {
	pt = NewPlaintext(d.params)
	return pt, d.Decrypt(ct, pt)
}

// Decrypt writes on pt the phase c0 + c1*s (+ c2*s^2) of ct over the main
// primes, with the anchor rows set to its centered extension.
// ct is checked with [Ciphertext.Validate].
func (d Decryptor) Decrypt(ct *Ciphertext, pt *Plaintext) (err error) {

	if err = ct.Validate(d.params); err != nil {
		return fmt.Errorf("cannot Decrypt: %w", err)
	}

	if pt == nil || len(pt.Value) != d.params.QCount()+d.params.BCount() {
		return fmt.Errorf("cannot Decrypt: plaintext is nil or not over the dual basis: %w", ring.ErrInvalidPolynomialDegree)
	}

	rQ := d.params.RingQ()
	QCount := d.params.QCount()
	s := d.sk.Value

	degree := ct.Degree()

	// Horner: (((c_d)*s + c_{d-1})*s + ... ) + c0
	acc := d.buff
	acc.Copy(ct.Value[degree][:QCount])
	for i := degree; i > 0; i-- {
		rQ.MulPoly(acc, s, acc)
		rQ.Add(acc, ct.Value[i-1][:QCount], acc)
	}

	pt.Value[:QCount].Copy(acc)

	if err = d.params.Rescaler().Extend(pt.Value[:QCount], pt.Value[QCount:]); err != nil {
		return fmt.Errorf("cannot Decrypt: %w", err)
	}

	return
}
