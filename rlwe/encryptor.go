package rlwe

import (
	"fmt"

	"github.com/Pro7ech/rnsfhe/ring"
	"github.com/Pro7ech/rnsfhe/utils/sampling"
)

// Encryptor is a type for encrypting [Plaintext] with a [PublicKey].
// It owns its samplers and buffers and must not be used concurrently;
// use [Encryptor.WithSource] to obtain an instance per goroutine.
type Encryptor struct {
	params Parameters
	pk     *PublicKey

	xsSampler ring.Sampler
	xeSampler ring.Sampler

	buffQ [2]ring.RNSPoly
}

// NewEncryptor creates a new [Encryptor] for the public key pk drawing its
// randomness from source.
func NewEncryptor(params ParameterProvider, pk *PublicKey, source sampling.Source) (enc *Encryptor, err error) {

	p := *params.GetRLWEParameters()

	if pk == nil {
		return nil, fmt.Errorf("cannot NewEncryptor: public key is nil")
	}

	for i := range pk.Value {
		if err = pk.Value[i].Validate(p.N(), p.Q()); err != nil {
			return nil, fmt.Errorf("cannot NewEncryptor: invalid public key: %w", err)
		}
	}

	rQ := p.RingQ()

	enc = &Encryptor{params: p, pk: pk}

	if enc.xsSampler, err = ring.NewSampler(source, rQ, ring.Ternary{}); err != nil {
		return nil, fmt.Errorf("cannot NewEncryptor: %w", err)
	}

	if enc.xeSampler, err = ring.NewSampler(source, rQ, p.Xe()); err != nil {
		return nil, fmt.Errorf("cannot NewEncryptor: %w", err)
	}

	enc.buffQ = [2]ring.RNSPoly{rQ.NewRNSPoly(), rQ.NewRNSPoly()}

	return
}

// WithSource returns a new [Encryptor] sharing the public key of the
// receiver but with its own buffers and samplers reading from source.
func (enc Encryptor) WithSource(source sampling.Source) (*Encryptor, error) {
	return NewEncryptor(enc.params, enc.pk, source)
}

// EncryptNew encrypts the plaintext on a new [Ciphertext] of degree one.
func (enc Encryptor) EncryptNew(pt *Plaintext) (ct *Ciphertext, err error) {
	ct = NewCiphertext(enc.params, 1)
	return ct, enc.Encrypt(pt, ct)
}

// Encrypt encrypts the plaintext on ct, which must be of degree one:
// (c0, c1) = (pk0*u + e0 + pt, pk1*u + e1) over the main primes, with u
// ternary and e0, e1 small, and the anchor rows set to the centered
// extension of the main rows.
func (enc Encryptor) Encrypt(pt *Plaintext, ct *Ciphertext) (err error) {

	if ct.Degree() != 1 {
		return fmt.Errorf("cannot Encrypt: ciphertext degree %d must be 1", ct.Degree())
	}

	p := enc.params
	rQ := p.RingQ()
	QCount := p.QCount()

	if err = pt.Value.Validate(p.N(), p.RingQB().ModuliChain()); err != nil {
		return fmt.Errorf("cannot Encrypt: invalid plaintext: %w", err)
	}

	u, e := enc.buffQ[0], enc.buffQ[1]

	enc.xsSampler.Read(u)

	for i := range 2 {

		c := ct.Value[i][:QCount]

		rQ.MulPoly(enc.pk.Value[i], u, c)

		enc.xeSampler.Read(e)
		rQ.Add(c, e, c)

		if i == 0 {
			rQ.Add(c, pt.Value[:QCount], c)
		}

		if err = p.Rescaler().Extend(c, ct.Value[i][QCount:]); err != nil {
			return fmt.Errorf("cannot Encrypt: %w", err)
		}
	}

	return
}
