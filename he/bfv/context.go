package bfv

import (
	"errors"
	"fmt"

	"github.com/Pro7ech/rnsfhe/he/noise"
	"github.com/Pro7ech/rnsfhe/rlwe"
	"github.com/Pro7ech/rnsfhe/utils/sampling"
)

// ErrMissingSecretKey is returned when a [Context] without secret key is
// asked to decrypt.
var ErrMissingSecretKey = errors.New("secret key is missing")

// Keys is the key material of a [Context].
// Secret and Relinearization are optional: without Secret the context cannot
// decrypt and without Relinearization it cannot multiply.
type Keys struct {
	Public          *rlwe.PublicKey
	Secret          *rlwe.SecretKey
	Relinearization *rlwe.EvaluationKey
}

// Context bundles an [Encoder], an [rlwe.Encryptor], an [rlwe.Decryptor] and
// an [Evaluator] over the same parameters, and exposes the ciphertext algebra
// on scalar messages of Z_t, each operation returning a new ciphertext.
// The guarded variants charge the [noise.CostTable] of the parameters on a
// [noise.Budget] and refuse to run once the budget is exhausted.
//
// A Context owns scratch buffers and must not be used concurrently.
type Context struct {
	params rlwe.Parameters
	costs  noise.CostTable

	ecd  *Encoder
	enc  *rlwe.Encryptor
	dec  *rlwe.Decryptor
	eval *Evaluator
}

// NewContext creates a new [Context] for the parameters and the given keys,
// encrypting with randomness drawn from source.
// The context keeps its own copy of keys.Secret, erased by [Context.Close].
func NewContext(params rlwe.ParameterProvider, keys Keys, source sampling.Source) (ctx *Context, err error) {

	p := *params.GetRLWEParameters()

	ctx = &Context{
		params: p,
		costs:  noise.CostsFor(p),
		ecd:    NewEncoder(p),
	}

	if ctx.enc, err = rlwe.NewEncryptor(p, keys.Public, source); err != nil {
		return nil, fmt.Errorf("cannot NewContext: %w", err)
	}

	if keys.Secret != nil {
		if ctx.dec, err = rlwe.NewDecryptor(p, keys.Secret); err != nil {
			return nil, fmt.Errorf("cannot NewContext: %w", err)
		}
	}

	if ctx.eval, err = NewEvaluator(p, keys.Relinearization); err != nil {
		return nil, fmt.Errorf("cannot NewContext: %w", err)
	}

	return
}

// Params returns the parameters of the receiver.
func (ctx Context) Params() rlwe.Parameters {
	return ctx.params
}

// Encoder returns the [Encoder] of the receiver.
func (ctx Context) Encoder() *Encoder {
	return ctx.ecd
}

// Evaluator returns the [Evaluator] of the receiver.
func (ctx Context) Evaluator() *Evaluator {
	return ctx.eval
}

// Costs returns the noise costs of the operations of the receiver.
func (ctx Context) Costs() noise.CostTable {
	return ctx.costs
}

// NewBudget returns the [noise.Budget] of a fresh encryption.
func (ctx Context) NewBudget() *noise.Budget {
	return noise.NewBudget(noise.InitialBudget(ctx.params))
}

// Close erases the secret key held by the receiver, after which it can
// no longer decrypt.
func (ctx *Context) Close() {
	if ctx.dec != nil {
		ctx.dec.Close()
		ctx.dec = nil
	}
}

// Encrypt encodes and encrypts m.
func (ctx Context) Encrypt(m uint64) (ct *rlwe.Ciphertext, err error) {

	var pt *rlwe.Plaintext
	if pt, err = ctx.ecd.EncodeNew(m); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	return ctx.enc.EncryptNew(pt)
}

// EncryptPoly encodes and encrypts the coefficients values.
func (ctx Context) EncryptPoly(values []uint64) (ct *rlwe.Ciphertext, err error) {

	pt := NewPlaintext(ctx.params)
	if err = ctx.ecd.EncodePoly(values, pt); err != nil {
		return nil, fmt.Errorf("cannot EncryptPoly: %w", err)
	}

	return ctx.enc.EncryptNew(pt)
}

// Decrypt decrypts ct and decodes its constant coefficient.
// The result is only correct if the noise of ct is below Delta/2, which
// the caller ensures with a [noise.Budget].
func (ctx Context) Decrypt(ct *rlwe.Ciphertext) (m uint64, err error) {

	if ctx.dec == nil {
		return 0, fmt.Errorf("cannot Decrypt: %w", ErrMissingSecretKey)
	}

	var pt *rlwe.Plaintext
	if pt, err = ctx.dec.DecryptNew(ct); err != nil {
		return 0, err
	}

	return ctx.ecd.Decode(pt)
}

// DecryptPoly decrypts ct and decodes all its N coefficients.
func (ctx Context) DecryptPoly(ct *rlwe.Ciphertext) (values []uint64, err error) {

	if ctx.dec == nil {
		return nil, fmt.Errorf("cannot DecryptPoly: %w", ErrMissingSecretKey)
	}

	var pt *rlwe.Plaintext
	if pt, err = ctx.dec.DecryptNew(ct); err != nil {
		return nil, err
	}

	values = make([]uint64, ctx.params.N())
	return values, ctx.ecd.DecodePoly(pt, values)
}

// Add returns op0 + op1.
func (ctx Context) Add(op0, op1 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return ctx.eval.AddNew(op0, op1)
}

// Tensor returns the degree two tensor product of op0 and op1, before rescale.
func (ctx Context) Tensor(op0, op1 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return ctx.eval.TensorNew(op0, op1)
}

// Rescale returns op0 with one Delta divided out.
func (ctx Context) Rescale(op0 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return ctx.eval.RescaleNew(op0)
}

// Relinearize returns the degree one relinearization of the degree two op0.
func (ctx Context) Relinearize(op0 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return ctx.eval.RelinearizeNew(op0)
}

// Multiply returns the degree one product of op0 and op1.
func (ctx Context) Multiply(op0, op1 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return ctx.eval.MultiplyNew(op0, op1)
}

// guard runs op if budget can pay for cost and charges it on success.
// Nothing is evaluated and budget is left unchanged if it cannot.
func guard(budget *noise.Budget, cost int64, op func() (*rlwe.Ciphertext, error)) (ct *rlwe.Ciphertext, err error) {

	if !budget.CanPerform(cost) {
		return nil, budget.Consume(cost)
	}

	if ct, err = op(); err != nil {
		return nil, err
	}

	return ct, budget.Consume(cost)
}

// AddGuarded is [Context.Add] charging the cost of an addition on budget.
func (ctx Context) AddGuarded(budget *noise.Budget, op0, op1 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return guard(budget, ctx.costs.Add, func() (*rlwe.Ciphertext, error) {
		return ctx.Add(op0, op1)
	})
}

// TensorRescaleGuarded returns the rescaled degree two tensor product of op0
// and op1, charging the net cost of the multiplication without its
// relinearization on budget.
func (ctx Context) TensorRescaleGuarded(budget *noise.Budget, op0, op1 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return guard(budget, ctx.costs.Multiply, func() (ct *rlwe.Ciphertext, err error) {
		if ct, err = ctx.Tensor(op0, op1); err != nil {
			return
		}
		if _, err = ctx.eval.Rescale(ct, ct); err != nil {
			return nil, err
		}
		return
	})
}

// RelinearizeGuarded is [Context.Relinearize] charging the cost of a
// relinearization on budget.
func (ctx Context) RelinearizeGuarded(budget *noise.Budget, op0 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return guard(budget, ctx.costs.Relinearize, func() (*rlwe.Ciphertext, error) {
		return ctx.Relinearize(op0)
	})
}

// MultiplyGuarded is [Context.Multiply] charging the cost of a full
// multiplication cycle on budget.
func (ctx Context) MultiplyGuarded(budget *noise.Budget, op0, op1 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return guard(budget, ctx.costs.MultiplyCycle(), func() (*rlwe.Ciphertext, error) {
		return ctx.Multiply(op0, op1)
	})
}
