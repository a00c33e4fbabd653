package bfv

import (
	"fmt"

	"github.com/Pro7ech/rnsfhe/kelim"
	"github.com/Pro7ech/rnsfhe/ring"
	"github.com/Pro7ech/rnsfhe/rlwe"
)

// Evaluator is a struct that holds the necessary elements to perform the
// homomorphic operations between ciphertexts and/or plaintexts.
// It also holds a memory buffer used to store intermediate computations.
type Evaluator struct {
	*rlwe.Evaluator
	params rlwe.Parameters
	*evaluatorBuffers
}

type evaluatorBuffers struct {
	buffNTT [4]ring.RNSPoly // NTT of the tensor product operands over the dual basis
	buffMul ring.RNSPoly    // partial products over the dual basis
	buffCt  *rlwe.Ciphertext
}

func newEvaluatorBuffers(params rlwe.Parameters) *evaluatorBuffers {
	rQB := params.RingQB()
	return &evaluatorBuffers{
		buffNTT: [4]ring.RNSPoly{rQB.NewRNSPoly(), rQB.NewRNSPoly(), rQB.NewRNSPoly(), rQB.NewRNSPoly()},
		buffMul: rQB.NewRNSPoly(),
		buffCt:  rlwe.NewCiphertext(params, 2),
	}
}

// NewEvaluator creates a new [Evaluator], that can be used to do homomorphic
// operations on ciphertexts and/or plaintexts. evk can be nil, in which case
// only the operations not requiring a relinearization are available.
func NewEvaluator(params rlwe.ParameterProvider, evk *rlwe.EvaluationKey) (eval *Evaluator, err error) {

	p := *params.GetRLWEParameters()

	var rlweEval *rlwe.Evaluator
	if rlweEval, err = rlwe.NewEvaluator(p, evk); err != nil {
		return nil, fmt.Errorf("cannot NewEvaluator: %w", err)
	}

	return &Evaluator{
		Evaluator:        rlweEval,
		params:           p,
		evaluatorBuffers: newEvaluatorBuffers(p),
	}, nil
}

// GetParameters returns a pointer to the underlying [rlwe.Parameters].
func (eval Evaluator) GetParameters() *rlwe.Parameters {
	return &eval.params
}

// ShallowCopy creates a shallow copy of this Evaluator in which the read-only data-structures are
// shared with the receiver and the temporary buffers are reallocated. The receiver and the returned
// Evaluators can be used concurrently.
func (eval Evaluator) ShallowCopy() *Evaluator {
	return &Evaluator{
		Evaluator:        eval.Evaluator.ShallowCopy(),
		params:           eval.params,
		evaluatorBuffers: newEvaluatorBuffers(eval.params),
	}
}

// WithKey creates a shallow copy of this Evaluator in which the read-only data-structures are
// shared with the receiver but the relinearization key is evk.
func (eval Evaluator) WithKey(evk *rlwe.EvaluationKey) (*Evaluator, error) {
	rlweEval, err := eval.Evaluator.WithKey(evk)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		Evaluator:        rlweEval,
		params:           eval.params,
		evaluatorBuffers: eval.evaluatorBuffers,
	}, nil
}

// checkUnary returns an error if op0 is not a well formed ciphertext or
// opOut is nil.
func (eval Evaluator) checkUnary(op0, opOut *rlwe.Ciphertext) error {

	if err := op0.ValidateShape(eval.params); err != nil {
		return fmt.Errorf("op0: %w", err)
	}

	if opOut == nil {
		return fmt.Errorf("opOut: %w: ciphertext is nil", rlwe.ErrInvalidDegree)
	}

	return nil
}

// checkBinary returns an error if op0 and op1 cannot be added.
func (eval Evaluator) checkBinary(op0, op1, opOut *rlwe.Ciphertext) error {

	if err := eval.checkUnary(op0, opOut); err != nil {
		return err
	}

	if err := op1.ValidateShape(eval.params); err != nil {
		return fmt.Errorf("op1: %w", err)
	}

	if op0.Degree() != op1.Degree() {
		return fmt.Errorf("%w: op0.Degree()=%d != op1.Degree()=%d", rlwe.ErrInvalidDegree, op0.Degree(), op1.Degree())
	}

	return nil
}

// checkFresh returns an error if op0 is not of degree one.
func checkFresh(op0 *rlwe.Ciphertext) error {
	if op0.Degree() != 1 {
		return fmt.Errorf("%w: input degree %d must be 1", rlwe.ErrInvalidDegree, op0.Degree())
	}
	return nil
}

// evaluate applies f on the rows of each polynomial of opOut.
//
// Degree one ciphertexts are centered modulo Q: f runs on the main rows and
// the anchor rows of opOut are set to the extension of its main rows.
// Degree two ciphertexts carry the exact tensor coefficients over the dual
// basis: f runs on every row, so that a linear combination of tensor
// products keeps the magnitude that the next [Evaluator.Rescale] divides.
func (eval Evaluator) evaluate(opOut *rlwe.Ciphertext, f func(r ring.RNSRing, i, rows int)) (err error) {

	if opOut.Degree() == 2 {
		rQB := eval.params.RingQB()
		for i := range opOut.Value {
			f(rQB, i, rQB.Len())
		}
		return
	}

	QCount := eval.params.QCount()
	rQ := eval.params.RingQ()

	for i := range opOut.Value {
		f(rQ, i, QCount)
		if err = eval.params.Rescaler().Extend(opOut.Value[i][:QCount], opOut.Value[i][QCount:]); err != nil {
			return
		}
	}

	return
}

// Add adds op1 to op0 and returns the result in opOut.
// Both operands must have the same degree. Degree two operands are added
// over the dual basis.
func (eval Evaluator) Add(op0, op1, opOut *rlwe.Ciphertext) (err error) {

	if err = eval.checkBinary(op0, op1, opOut); err != nil {
		return fmt.Errorf("cannot Add: %w", err)
	}

	opOut.Resize(eval.params, op0.Degree())

	if err = eval.evaluate(opOut, func(r ring.RNSRing, i, rows int) {
		r.Add(op0.Value[i][:rows], op1.Value[i][:rows], opOut.Value[i][:rows])
	}); err != nil {
		return fmt.Errorf("cannot Add: %w", err)
	}

	return
}

// AddNew adds op1 to op0 and returns the result on a new [rlwe.Ciphertext].
func (eval Evaluator) AddNew(op0, op1 *rlwe.Ciphertext) (opOut *rlwe.Ciphertext, err error) {
	opOut = NewCiphertext(eval.params, 1)
	return opOut, eval.Add(op0, op1, opOut)
}

// Sub subtracts op1 to op0 and returns the result in opOut.
// Both operands must have the same degree.
func (eval Evaluator) Sub(op0, op1, opOut *rlwe.Ciphertext) (err error) {

	if err = eval.checkBinary(op0, op1, opOut); err != nil {
		return fmt.Errorf("cannot Sub: %w", err)
	}

	opOut.Resize(eval.params, op0.Degree())

	if err = eval.evaluate(opOut, func(r ring.RNSRing, i, rows int) {
		r.Sub(op0.Value[i][:rows], op1.Value[i][:rows], opOut.Value[i][:rows])
	}); err != nil {
		return fmt.Errorf("cannot Sub: %w", err)
	}

	return
}

// SubNew subtracts op1 to op0 and returns the result on a new [rlwe.Ciphertext].
func (eval Evaluator) SubNew(op0, op1 *rlwe.Ciphertext) (opOut *rlwe.Ciphertext, err error) {
	opOut = NewCiphertext(eval.params, 1)
	return opOut, eval.Sub(op0, op1, opOut)
}

// Neg negates op0 and returns the result in opOut.
func (eval Evaluator) Neg(op0, opOut *rlwe.Ciphertext) (err error) {

	if err = eval.checkUnary(op0, opOut); err != nil {
		return fmt.Errorf("cannot Neg: %w", err)
	}

	opOut.Resize(eval.params, op0.Degree())

	if err = eval.evaluate(opOut, func(r ring.RNSRing, i, rows int) {
		r.Neg(op0.Value[i][:rows], opOut.Value[i][:rows])
	}); err != nil {
		return fmt.Errorf("cannot Neg: %w", err)
	}

	return
}

// AddPlain adds the plaintext pt to the degree one op0 and returns the
// result in opOut.
func (eval Evaluator) AddPlain(op0 *rlwe.Ciphertext, pt *rlwe.Plaintext, opOut *rlwe.Ciphertext) (err error) {

	if err = eval.checkUnary(op0, opOut); err != nil {
		return fmt.Errorf("cannot AddPlain: %w", err)
	}

	if err = checkFresh(op0); err != nil {
		return fmt.Errorf("cannot AddPlain: %w", err)
	}

	if pt == nil {
		return fmt.Errorf("cannot AddPlain: plaintext is nil")
	}

	if err = pt.Value.Validate(eval.params.N(), eval.params.RingQB().ModuliChain()); err != nil {
		return fmt.Errorf("cannot AddPlain: invalid plaintext: %w", err)
	}

	opOut.Resize(eval.params, 1)

	if err = eval.evaluate(opOut, func(r ring.RNSRing, i, rows int) {
		if i == 0 {
			r.Add(op0.Value[0][:rows], pt.Value[:rows], opOut.Value[0][:rows])
		} else {
			opOut.Value[i][:rows].Copy(op0.Value[i][:rows])
		}
	}); err != nil {
		return fmt.Errorf("cannot AddPlain: %w", err)
	}

	return
}

// MulScalar multiplies the degree one op0 by the scalar m of Z_t and
// returns the result in opOut. The noise is multiplied by m.
func (eval Evaluator) MulScalar(op0 *rlwe.Ciphertext, m uint64, opOut *rlwe.Ciphertext) (err error) {

	if err = eval.checkUnary(op0, opOut); err != nil {
		return fmt.Errorf("cannot MulScalar: %w", err)
	}

	// A scalar of up to log2(t) bits would eat the headroom of the dual
	// capacity reserved for tensor coefficients.
	if err = checkFresh(op0); err != nil {
		return fmt.Errorf("cannot MulScalar: %w", err)
	}

	if T := eval.params.PlaintextModulus(); m >= T {
		return fmt.Errorf("cannot MulScalar: m=%d >= t=%d: %w", m, T, ErrMessageOutOfBounds)
	}

	opOut.Resize(eval.params, 1)

	if err = eval.evaluate(opOut, func(r ring.RNSRing, i, rows int) {
		r.MulScalar(op0.Value[i][:rows], m, opOut.Value[i][:rows])
	}); err != nil {
		return fmt.Errorf("cannot MulScalar: %w", err)
	}

	return
}

// Tensor computes the degree two tensor product (d0, d1, d2) =
// (c0*c0', c0*c1' + c1*c0', c1*c1') of two degree one ciphertexts over the
// dual basis, on opOut. The product is exact over the integers since the
// dual capacity exceeds the worst-case tensor coefficient.
// opOut can alias op0 or op1.
func (eval Evaluator) Tensor(op0, op1, opOut *rlwe.Ciphertext) (err error) {

	if err = eval.checkBinary(op0, op1, opOut); err != nil {
		return fmt.Errorf("cannot Tensor: %w", err)
	}

	if err = checkFresh(op0); err != nil {
		return fmt.Errorf("cannot Tensor: %w", err)
	}

	rQB := eval.params.RingQB()

	a0, a1, b0, b1 := eval.buffNTT[0], eval.buffNTT[1], eval.buffNTT[2], eval.buffNTT[3]

	rQB.NTT(op0.Value[0], a0)
	rQB.NTT(op0.Value[1], a1)
	rQB.NTT(op1.Value[0], b0)
	rQB.NTT(op1.Value[1], b1)

	opOut.Resize(eval.params, 2)

	d0, d1, d2 := opOut.Value[0], opOut.Value[1], opOut.Value[2]

	// d1 = a0*b1 + a1*b0
	rQB.MulCoeffs(a0, b1, d1)
	rQB.MulCoeffs(a1, b0, eval.buffMul)
	rQB.Add(d1, eval.buffMul, d1)

	rQB.MulCoeffs(a0, b0, d0)
	rQB.MulCoeffs(a1, b1, d2)

	rQB.INTT(d0, d0)
	rQB.INTT(d1, d1)
	rQB.INTT(d2, d2)

	return
}

// TensorNew computes the tensor product of op0 and op1 on a new degree two [rlwe.Ciphertext].
func (eval Evaluator) TensorNew(op0, op1 *rlwe.Ciphertext) (opOut *rlwe.Ciphertext, err error) {
	opOut = NewCiphertext(eval.params, 2)
	return opOut, eval.Tensor(op0, op1, opOut)
}

// Rescale divides out one Delta from each polynomial of op0, mapping every
// coefficient X to round(t*X/Q), and returns the result in opOut.
// Each polynomial is rescaled with the strategy selected from its measured
// size: the per-limb fast path when it fits the main product, the exact
// K-Elimination otherwise. The returned strategy is the slowest one used.
// opOut can alias op0.
func (eval Evaluator) Rescale(op0, opOut *rlwe.Ciphertext) (strategy kelim.Strategy, err error) {

	if err = eval.checkUnary(op0, opOut); err != nil {
		return kelim.StrategyPerLimb, fmt.Errorf("cannot Rescale: %w", err)
	}

	opOut.Resize(eval.params, op0.Degree())

	strategy = kelim.StrategyPerLimb

	for i := range op0.Value {

		var s kelim.Strategy
		if s, err = eval.params.Rescaler().Rescale(op0.Value[i], opOut.Value[i]); err != nil {
			return strategy, fmt.Errorf("cannot Rescale: polynomial %d: %w", i, err)
		}

		if s == kelim.StrategyKElimination {
			strategy = s
		}
	}

	return
}

// RescaleNew rescales op0 on a new [rlwe.Ciphertext].
func (eval Evaluator) RescaleNew(op0 *rlwe.Ciphertext) (opOut *rlwe.Ciphertext, err error) {
	opOut = NewCiphertext(eval.params, 1)
	_, err = eval.Rescale(op0, opOut)
	return
}

// RelinearizeNew relinearizes the degree two op0 on a new degree one [rlwe.Ciphertext].
func (eval Evaluator) RelinearizeNew(op0 *rlwe.Ciphertext) (opOut *rlwe.Ciphertext, err error) {
	opOut = NewCiphertext(eval.params, 1)
	return opOut, eval.Relinearize(op0, opOut)
}

// Multiply multiplies op0 by op1 and returns the degree one result in opOut:
// tensor product, exact rescale by Delta and relinearization.
// opOut can alias op0 or op1.
func (eval Evaluator) Multiply(op0, op1, opOut *rlwe.Ciphertext) (err error) {

	if eval.RelinearizationKey() == nil {
		return fmt.Errorf("cannot Multiply: %w", rlwe.ErrMissingRelinearizationKey)
	}

	tmp := eval.buffCt

	if err = eval.Tensor(op0, op1, tmp); err != nil {
		return fmt.Errorf("cannot Multiply: %w", err)
	}

	if _, err = eval.Rescale(tmp, tmp); err != nil {
		return fmt.Errorf("cannot Multiply: %w", err)
	}

	if err = eval.Relinearize(tmp, opOut); err != nil {
		return fmt.Errorf("cannot Multiply: %w", err)
	}

	return
}

// MultiplyNew multiplies op0 by op1 and returns the result on a new [rlwe.Ciphertext].
func (eval Evaluator) MultiplyNew(op0, op1 *rlwe.Ciphertext) (opOut *rlwe.Ciphertext, err error) {
	opOut = NewCiphertext(eval.params, 1)
	return opOut, eval.Multiply(op0, op1, opOut)
}
