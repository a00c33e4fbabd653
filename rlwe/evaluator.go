package rlwe

import (
	"errors"
	"fmt"

	"github.com/Pro7ech/rnsfhe/ring"
)

// ErrMissingRelinearizationKey is returned when a relinearization is
// requested from an [Evaluator] without [EvaluationKey].
var ErrMissingRelinearizationKey = errors.New("relinearization key is missing")

// Evaluator is a struct that holds the necessary elements to relinearize
// degree two ciphertexts with a gadget product.
type Evaluator struct {
	params Parameters
	evk    *EvaluationKey
	*EvaluatorBuffers

	decomposer *Decomposer
}

// EvaluatorBuffers are the scratch polynomials of an [Evaluator].
type EvaluatorBuffers struct {
	BuffCt      *Ciphertext     // degree two ciphertext over the dual basis
	BuffDigit   ring.RNSPoly    // digit lifted on the main primes
	BuffGadgetQ [2]ring.RNSPoly // gadget product accumulators, NTT domain
	BuffDecompQ ring.RNSPoly    // copy of the decomposed polynomial
}

// NewEvaluatorBuffers allocates the scratch polynomials of an [Evaluator].
func NewEvaluatorBuffers(p Parameters) *EvaluatorBuffers {

	rQ := p.RingQ()

	return &EvaluatorBuffers{
		BuffCt:      NewCiphertext(p, 2),
		BuffDigit:   rQ.NewRNSPoly(),
		BuffGadgetQ: [2]ring.RNSPoly{rQ.NewRNSPoly(), rQ.NewRNSPoly()},
		BuffDecompQ: rQ.NewRNSPoly(),
	}
}

// NewEvaluator creates a new [Evaluator]. evk can be nil if no
// relinearization is needed.
func NewEvaluator(params ParameterProvider, evk *EvaluationKey) (eval *Evaluator, err error) {

	p := *params.GetRLWEParameters()

	if evk != nil {
		if err = evk.checkShape(p); err != nil {
			return nil, fmt.Errorf("cannot NewEvaluator: %w", err)
		}
	}

	return &Evaluator{
		params:           p,
		evk:              evk,
		EvaluatorBuffers: NewEvaluatorBuffers(p),
		decomposer:       NewDecomposer(p),
	}, nil
}

// GetRLWEParameters returns the underlying [Parameters] of the receiver.
func (eval Evaluator) GetRLWEParameters() *Parameters {
	return &eval.params
}

// RelinearizationKey returns the [EvaluationKey] of the receiver, which can be nil.
func (eval Evaluator) RelinearizationKey() *EvaluationKey {
	return eval.evk
}

// ShallowCopy creates a shallow copy of this Evaluator in which all the read-only data-structures are
// shared with the receiver and the temporary buffers are reallocated. The receiver and the returned
// Evaluators can be used concurrently.
func (eval Evaluator) ShallowCopy() *Evaluator {
	return &Evaluator{
		params:           eval.params,
		evk:              eval.evk,
		EvaluatorBuffers: NewEvaluatorBuffers(eval.params),
		decomposer:       eval.decomposer,
	}
}

// WithKey creates a shallow copy of the receiver Evaluator for which the new EvaluationKey is evk
// and where the temporary buffers are shared. The receiver and the returned Evaluators cannot be used concurrently.
func (eval Evaluator) WithKey(evk *EvaluationKey) (*Evaluator, error) {

	if evk != nil {
		if err := evk.checkShape(eval.params); err != nil {
			return nil, fmt.Errorf("cannot WithKey: %w", err)
		}
	}

	return &Evaluator{
		params:           eval.params,
		evk:              evk,
		EvaluatorBuffers: eval.EvaluatorBuffers,
		decomposer:       eval.decomposer,
	}, nil
}

// GadgetProduct evaluates poly x Gadget -> RLWE where
//
// ct = [<decomp(cx), evk[0]>, <decomp(cx), evk[1]>] mod Q
//
// cx and the two polynomials of ct are over the main primes, in the
// coefficient domain. cx can alias ct[0] or ct[1].
func (eval Evaluator) GadgetProduct(cx ring.RNSPoly, evk *EvaluationKey, ct [2]ring.RNSPoly) {

	rQ := eval.params.RingQ()

	cxCopy := eval.BuffDecompQ
	cxCopy.Copy(cx)

	acc := eval.BuffGadgetQ
	acc[0].Zero()
	acc[1].Zero()

	digit := eval.BuffDigit

	for i := range evk.Value {
		for j := range evk.Value[i] {
			eval.decomposer.Decompose(i, j, cxCopy, digit)
			rQ.NTT(digit, digit)
			rQ.MulCoeffsMontgomeryThenAdd(digit, evk.Value[i][j][0], acc[0])
			rQ.MulCoeffsMontgomeryThenAdd(digit, evk.Value[i][j][1], acc[1])
		}
	}

	rQ.INTT(acc[0], ct[0])
	rQ.INTT(acc[1], ct[1])
}

// Relinearize maps the degree two ciphertext ct = (d0, d1, d2) to the
// degree one ciphertext (d0 + <decomp(d2), evk[0]>, d1 + <decomp(d2), evk[1]>)
// on opOut, which decrypts to the same phase up to the key switching noise.
// opOut can alias ct.
func (eval Evaluator) Relinearize(ct, opOut *Ciphertext) (err error) {

	if eval.evk == nil {
		return fmt.Errorf("cannot Relinearize: %w", ErrMissingRelinearizationKey)
	}

	if err = ct.ValidateShape(eval.params); err != nil {
		return fmt.Errorf("cannot Relinearize: %w", err)
	}

	if ct.Degree() != 2 {
		return fmt.Errorf("cannot Relinearize: %w: input degree %d must be 2", ErrInvalidDegree, ct.Degree())
	}

	if opOut == nil {
		return fmt.Errorf("cannot Relinearize: %w: opOut is nil", ErrInvalidDegree)
	}

	p := eval.params
	rQ := p.RingQ()
	QCount := p.QCount()

	acc := [2]ring.RNSPoly{eval.BuffCt.Value[0][:QCount], eval.BuffCt.Value[1][:QCount]}

	eval.GadgetProduct(ct.Value[2][:QCount], eval.evk, acc)

	opOut.Resize(p, 1)

	for i := range 2 {

		c := opOut.Value[i][:QCount]

		rQ.Add(ct.Value[i][:QCount], acc[i], c)

		if err = p.Rescaler().Extend(c, opOut.Value[i][QCount:]); err != nil {
			return fmt.Errorf("cannot Relinearize: %w", err)
		}
	}

	return
}
