package rlwe

import (
	"encoding/json"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/google/go-cmp/cmp"

	"github.com/Pro7ech/rnsfhe/kelim"
	"github.com/Pro7ech/rnsfhe/ring"
	"github.com/Pro7ech/rnsfhe/utils/bignum"
)

const (
	// MinLogN is the log2 of the smallest supported ring degree.
	MinLogN = 1
	// MaxLogN is the log2 of the largest supported ring degree.
	MaxLogN = 17
)

// ParameterProvider is an interface for types that can provide [rlwe.Parameters].
type ParameterProvider interface {
	GetRLWEParameters() *Parameters
}

// Parameters represents a set of validated BFV parameters over a dual
// main/anchor RNS basis. Its fields are private and immutable.
// See [ParametersLiteral] for user-specified parameters.
type Parameters struct {
	ringQB ring.RNSRing
	ringQ  ring.RNSRing
	ringB  ring.RNSRing

	t                    uint64
	baseTwoDecomposition int
	eta                  int
	policy               SecurityPolicy

	delta    *big.Int
	rescaler *kelim.Rescaler
	report   kelim.CapacityReport
}

// NewParametersFromLiteral instantiates a set of [rlwe.Parameters] from a
// [ParametersLiteral] specification. It returns a typed error if the degree,
// the NTT-friendliness or the coprimality of the primes, the capacity of the
// anchor basis or the security policy is violated.
func NewParametersFromLiteral(paramDef ParametersLiteral) (params Parameters, err error) {

	if paramDef.LogN < MinLogN || paramDef.LogN > MaxLogN {
		return params, fmt.Errorf("invalid parameters: LogN=%d must be in [%d, %d]", paramDef.LogN, MinLogN, MaxLogN)
	}

	N := 1 << paramDef.LogN

	var main, anchor []uint64
	if main, anchor, err = resolveModuli(paramDef, 2*N); err != nil {
		return params, fmt.Errorf("invalid parameters: %w", err)
	}

	if paramDef.BaseTwoDecomposition < 0 || paramDef.BaseTwoDecomposition > ring.MaxModulusBits {
		return params, fmt.Errorf("invalid parameters: BaseTwoDecomposition=%d must be in [0, %d]", paramDef.BaseTwoDecomposition, ring.MaxModulusBits)
	}

	params.baseTwoDecomposition = paramDef.BaseTwoDecomposition

	switch {
	case paramDef.Eta == 0:
		params.eta = DefaultEta
	case paramDef.Eta < 0 || paramDef.Eta > 64:
		return params, fmt.Errorf("invalid parameters: Eta=%d must be in [0, 64]", paramDef.Eta)
	default:
		params.eta = paramDef.Eta
	}

	params.policy = paramDef.Policy

	switch params.policy {
	case Enforce128, AllowInsecure:
	default:
		return params, fmt.Errorf("invalid parameters: %v", params.policy)
	}

	if params.ringQB, err = ring.NewRNSRing(N, append(append([]uint64{}, main...), anchor...)); err != nil {
		return params, fmt.Errorf("invalid parameters: %w", err)
	}

	params.ringQ = params.ringQB.Slice(0, len(main))
	params.ringB = params.ringQB.Slice(len(main), len(main)+len(anchor))

	Q := params.ringQ.Modulus()

	if paramDef.T < 2 || new(big.Int).SetUint64(paramDef.T).Cmp(Q) >= 0 {
		return params, fmt.Errorf("invalid parameters: T=%d must be in [2, Q)", paramDef.T)
	}

	params.t = paramDef.T
	params.delta = new(big.Int).Quo(Q, new(big.Int).SetUint64(params.t))

	if params.policy == Enforce128 {
		if err = checkSecurity(paramDef.LogN, Q.BitLen()); err != nil {
			return params, fmt.Errorf("invalid parameters: %w", err)
		}
	}

	if params.report, err = kelim.ValidateAnchorPrimes(N, main, anchor, params.t); err != nil {
		return params, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.rescaler, err = kelim.NewRescaler(params.ringQ.Basis(), params.ringB.Basis(), params.t); err != nil {
		return params, fmt.Errorf("invalid parameters: %w", err)
	}

	return
}

// resolveModuli returns the main and anchor primes of the literal,
// generating them from their sizes if needed.
func resolveModuli(paramDef ParametersLiteral, NthRoot int) (main, anchor []uint64, err error) {

	switch {
	case len(paramDef.Main) != 0 && len(paramDef.LogMain) != 0:
		return nil, nil, fmt.Errorf("both Main and LogMain are set")
	case len(paramDef.Anchor) != 0 && len(paramDef.LogAnchor) != 0:
		return nil, nil, fmt.Errorf("both Anchor and LogAnchor are set")
	case len(paramDef.Main) == 0 && len(paramDef.LogMain) == 0:
		return nil, nil, fmt.Errorf("neither Main nor LogMain are set")
	case len(paramDef.Anchor) == 0 && len(paramDef.LogAnchor) == 0:
		return nil, nil, fmt.Errorf("invalid anchor basis: %w", kelim.ErrAnchorZero)
	}

	main = append([]uint64{}, paramDef.Main...)
	anchor = append([]uint64{}, paramDef.Anchor...)

	if main, err = generateModuli(main, paramDef.LogMain, NthRoot, anchor); err != nil {
		return nil, nil, fmt.Errorf("LogMain: %w", err)
	}

	if anchor, err = generateModuli(anchor, paramDef.LogAnchor, NthRoot, main); err != nil {
		return nil, nil, fmt.Errorf("LogAnchor: %w", err)
	}

	return
}

// generateModuli appends to moduli one NTT-friendly prime per entry of
// logModuli, none of which is in exclude.
func generateModuli(moduli []uint64, logModuli []int, NthRoot int, exclude []uint64) ([]uint64, error) {

	count := map[int]int{}
	order := []int{}
	for _, logQi := range logModuli {
		if count[logQi] == 0 {
			order = append(order, logQi)
		}
		count[logQi]++
	}

	generated := map[int][]uint64{}
	for _, logQi := range order {
		primes, err := ring.GenerateNTTPrimes(logQi, NthRoot, count[logQi], exclude...)
		if err != nil {
			return nil, err
		}
		generated[logQi] = primes
		exclude = append(exclude, primes...)
	}

	for _, logQi := range logModuli {
		moduli = append(moduli, generated[logQi][0])
		generated[logQi] = generated[logQi][1:]
	}

	return moduli, nil
}

// GetRLWEParameters returns a pointer to the underlying [rlwe.Parameters].
func (p Parameters) GetRLWEParameters() *Parameters {
	return &p
}

// ParametersLiteral returns the [ParametersLiteral] of the target [rlwe.Parameters].
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		LogN:                 p.LogN(),
		Main:                 p.Q(),
		Anchor:               p.B(),
		T:                    p.t,
		BaseTwoDecomposition: p.baseTwoDecomposition,
		Eta:                  p.eta,
		Policy:               p.policy,
	}
}

// N returns the ring degree.
func (p Parameters) N() int {
	return p.ringQ.N()
}

// LogN returns the log2 of the ring degree.
func (p Parameters) LogN() int {
	return p.ringQ.LogN()
}

// RingQ returns the ring over the main primes.
func (p Parameters) RingQ() ring.RNSRing {
	return p.ringQ
}

// RingB returns the ring over the anchor primes.
func (p Parameters) RingB() ring.RNSRing {
	return p.ringB
}

// RingQB returns the ring over the dual basis, main primes first.
func (p Parameters) RingQB() ring.RNSRing {
	return p.ringQB
}

// Q returns a copy of the main primes.
func (p Parameters) Q() []uint64 {
	return p.ringQ.ModuliChain()
}

// B returns a copy of the anchor primes.
func (p Parameters) B() []uint64 {
	return p.ringB.ModuliChain()
}

// QCount returns the number of main primes.
func (p Parameters) QCount() int {
	return p.ringQ.Len()
}

// BCount returns the number of anchor primes.
func (p Parameters) BCount() int {
	return p.ringB.Len()
}

// QBigInt returns the product of the main primes.
func (p Parameters) QBigInt() *big.Int {
	return p.ringQ.Modulus()
}

// LogQ returns the size of the main product in bits.
func (p Parameters) LogQ() float64 {
	return bignum.Log2(p.ringQ.Modulus())
}

// LogB returns the size of the anchor product in bits.
func (p Parameters) LogB() float64 {
	return bignum.Log2(p.ringB.Modulus())
}

// PlaintextModulus returns the plaintext modulus t.
func (p Parameters) PlaintextModulus() uint64 {
	return p.t
}

// Delta returns a copy of floor(Q/t).
func (p Parameters) Delta() *big.Int {
	return new(big.Int).Set(p.delta)
}

// BaseTwoDecomposition returns the base two decomposition of the
// relinearization key, zero meaning one digit per main prime.
func (p Parameters) BaseTwoDecomposition() int {
	return p.baseTwoDecomposition
}

// DecompositionDigits returns the number of base two digits per main prime
// and the total number of gadget digits.
func (p Parameters) DecompositionDigits() (perPrime, total int) {
	perPrime = 1
	if w := p.baseTwoDecomposition; w != 0 {
		for _, qi := range p.Q() {
			perPrime = max(perPrime, (bits.Len64(qi)+w-1)/w)
		}
	}
	return perPrime, perPrime * p.QCount()
}

// Eta returns the parameter of the centered binomial error distribution.
func (p Parameters) Eta() int {
	return p.eta
}

// Xe returns the error distribution.
func (p Parameters) Xe() ring.DistributionParameters {
	return ring.CenteredBinomial{Eta: p.eta}
}

// Xs returns the secret distribution.
func (p Parameters) Xs() ring.DistributionParameters {
	return ring.Ternary{}
}

// Policy returns the security policy the parameters were checked against.
func (p Parameters) Policy() SecurityPolicy {
	return p.policy
}

// Rescaler returns the exact rescaler dividing out one Delta.
func (p Parameters) Rescaler() *kelim.Rescaler {
	return p.rescaler
}

// AnchorReport returns the utilization of the dual capacity by the
// worst-case tensor product intermediate.
func (p Parameters) AnchorReport() kelim.CapacityReport {
	return p.report
}

// Equal returns true if the receiver and other are the same parameters.
func (p Parameters) Equal(other *Parameters) bool {
	return other != nil && cmp.Equal(p.ParametersLiteral(), other.ParametersLiteral())
}

// MarshalBinary returns a []byte representation of the parameters.
func (p Parameters) MarshalBinary() ([]byte, error) {
	return p.MarshalJSON()
}

// UnmarshalBinary decodes a []byte into the receiver.
func (p *Parameters) UnmarshalBinary(data []byte) (err error) {
	return p.UnmarshalJSON(data)
}

// MarshalJSON returns a JSON representation of the parameters.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of the parameters into the receiver.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var params ParametersLiteral
	if err = json.Unmarshal(data, &params); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(params)
	return
}
