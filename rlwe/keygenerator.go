package rlwe

import (
	"fmt"

	"github.com/Pro7ech/rnsfhe/ring"
	"github.com/Pro7ech/rnsfhe/utils/sampling"
)

// KeyGenerator is a structure that stores the elements required to create new keys,
// as well as a memory buffer for intermediate values.
// Key management is owned by the caller: the KeyGenerator is a reference
// implementation used by the tests and the command line tool.
type KeyGenerator struct {
	params Parameters

	xsSampler ring.Sampler
	xeSampler ring.Sampler
	xaSampler ring.Sampler

	buff [2]ring.RNSPoly
}

// NewKeyGenerator creates a new [KeyGenerator] drawing its randomness from source.
func NewKeyGenerator(params ParameterProvider, source sampling.Source) (kgen *KeyGenerator, err error) {

	p := *params.GetRLWEParameters()
	rQ := p.RingQ()

	kgen = &KeyGenerator{params: p}

	if kgen.xsSampler, err = ring.NewSampler(source, rQ, p.Xs()); err != nil {
		return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
	}

	if kgen.xeSampler, err = ring.NewSampler(source, rQ, p.Xe()); err != nil {
		return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
	}

	if kgen.xaSampler, err = ring.NewSampler(source, rQ, ring.Uniform{}); err != nil {
		return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
	}

	kgen.buff = [2]ring.RNSPoly{rQ.NewRNSPoly(), rQ.NewRNSPoly()}

	return
}

// WithPublicSource returns a copy of the receiver drawing the uniform
// component a of the public and relinearization keys from source, for
// instance a [sampling.TranscriptSource] returned by [NewPublicSource].
// The secret key and the errors are still drawn from the source of the
// receiver. The receiver and the returned KeyGenerator share their buffers
// and cannot be used concurrently.
func (kgen KeyGenerator) WithPublicSource(source sampling.Source) (*KeyGenerator, error) {

	xaSampler, err := ring.NewSampler(source, kgen.params.RingQ(), ring.Uniform{})
	if err != nil {
		return nil, fmt.Errorf("cannot WithPublicSource: %w", err)
	}

	kgen.xaSampler = xaSampler

	return &kgen, nil
}

// NewPublicSource returns a [sampling.TranscriptSource] bound to the
// parameters and to seed. Key generators using it as public source produce
// keys whose uniform component can be recomputed by anyone holding the
// parameters and the seed.
func NewPublicSource(params ParameterProvider, seed []byte) (*sampling.TranscriptSource, error) {

	data, err := params.GetRLWEParameters().MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("cannot NewPublicSource: %w", err)
	}

	source := sampling.NewTranscriptSource("rnsfhe public key randomness")
	source.Append("parameters", data)
	source.Append("seed", seed)

	return source, nil
}

// GenSecretKeyNew generates a new ternary [SecretKey].
func (kgen KeyGenerator) GenSecretKeyNew() (sk *SecretKey) {
	sk = NewSecretKey(kgen.params)
	kgen.GenSecretKey(sk)
	return
}

// GenSecretKey generates a ternary [SecretKey] on sk.
func (kgen KeyGenerator) GenSecretKey(sk *SecretKey) {
	kgen.xsSampler.Read(sk.Value)
}

// GenPublicKeyNew generates a new public key from the provided [SecretKey].
func (kgen KeyGenerator) GenPublicKeyNew(sk *SecretKey) (pk *PublicKey) {
	pk = NewPublicKey(kgen.params)
	kgen.GenPublicKey(sk, pk)
	return
}

// GenPublicKey generates a public key (-a*s + e, a) from the provided [SecretKey].
func (kgen KeyGenerator) GenPublicKey(sk *SecretKey, pk *PublicKey) {
	kgen.encryptZero(sk.Value, pk.Value[0], pk.Value[1])
}

// GenKeyPairNew generates a new [SecretKey] and a corresponding [PublicKey].
func (kgen KeyGenerator) GenKeyPairNew() (sk *SecretKey, pk *PublicKey) {
	sk = kgen.GenSecretKeyNew()
	pk = kgen.GenPublicKeyNew(sk)
	return
}

// encryptZero sets (c0, c1) = (-a*s + e, a) with a uniform and e small.
func (kgen KeyGenerator) encryptZero(s, c0, c1 ring.RNSPoly) {
	rQ := kgen.params.RingQ()
	kgen.xaSampler.Read(c1)
	rQ.MulPoly(c1, s, c0)
	rQ.Neg(c0, c0)
	kgen.xeSampler.Read(kgen.buff[0])
	rQ.Add(c0, kgen.buff[0], c0)
}

// GenRelinearizationKeyNew generates a new [EvaluationKey] that will be used
// to relinearize ciphertexts during multiplication.
func (kgen KeyGenerator) GenRelinearizationKeyNew(sk *SecretKey) (rlk *EvaluationKey) {
	rlk = NewEvaluationKey(kgen.params)
	kgen.GenRelinearizationKey(sk, rlk)
	return
}

// GenRelinearizationKey generates on rlk an encryption of g_{i,j}*s^2 for
// every gadget digit (i, j), in the NTT and Montgomery domains.
func (kgen KeyGenerator) GenRelinearizationKey(sk *SecretKey, rlk *EvaluationKey) {

	rQ := kgen.params.RingQ()

	decomposer := NewDecomposer(kgen.params)

	// buff[1] = s^2
	s2 := kgen.buff[1]
	rQ.MulPoly(sk.Value, sk.Value, s2)

	for i := range rlk.Value {
		for j := range rlk.Value[i] {

			c0, c1 := rlk.Value[i][j][0], rlk.Value[i][j][1]

			kgen.encryptZero(sk.Value, c0, c1)

			// c0 += g_{i,j} * s^2, on the i-th prime only.
			rQ.At(i).MulScalarThenAdd(s2[i], decomposer.Gadget(i, j), c0[i])

			for _, c := range []ring.RNSPoly{c0, c1} {
				rQ.NTT(c, c)
				rQ.MForm(c, c)
			}
		}
	}
}
