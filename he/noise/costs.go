package noise

import (
	"fmt"
	"math/big"

	"github.com/Pro7ech/rnsfhe/rlwe"
	"github.com/Pro7ech/rnsfhe/utils/bignum"
)

const (
	// AddCost is the cost of a ciphertext addition: the noise of the sum is
	// the sum of the noises, about a tenth of a bit above the largest one
	// for independent inputs.
	AddCost = 100
	// RelinearizeCost is the cost of a relinearization, whose key switching
	// noise is of the order of the noise already present.
	RelinearizeCost = 1000
)

// CostTable is the noise cost in millibits of each operation for a fixed
// parameter set. Positive costs consume budget and negative costs refund it.
type CostTable struct {
	// Add is the cost of a ciphertext addition.
	Add int64
	// Multiply is the net cost of a tensor product followed by its rescale.
	Multiply int64
	// Relinearize is the cost of a relinearization.
	Relinearize int64
	// Rescale is the refund of the exact division by Delta, relative to the
	// tensor product it follows.
	Rescale int64
}

// Representative128 are the costs of a representative parameter set
// providing 128-bit security.
var Representative128 = CostTable{
	Add:         AddCost,
	Multiply:    42000,
	Relinearize: RelinearizeCost,
	Rescale:     -81000,
}

// MultiplyCycle returns the cost of a full multiplication: tensor product,
// rescale and relinearization.
func (c CostTable) MultiplyCycle() int64 {
	return c.Multiply + c.Relinearize
}

// Tensor returns the gross cost of a tensor product before its rescale.
func (c CostTable) Tensor() int64 {
	return c.Multiply - c.Rescale
}

func (c CostTable) String() string {
	return fmt.Sprintf("Add=%d Multiply=%d Relinearize=%d Rescale=%d", c.Add, c.Multiply, c.Relinearize, c.Rescale)
}

// CostsFor derives the [CostTable] of the parameters with integer
// arithmetic only. The tensor product of two ciphertexts of noise e
// yields after rescale a noise of at most 2*N^2*t*e, and the rescale divides
// the degree two intermediate by Delta.
func CostsFor(params rlwe.ParameterProvider) CostTable {

	p := params.GetRLWEParameters()

	N := big.NewInt(int64(p.N()))

	growth := new(big.Int).Mul(N, N)
	growth.Lsh(growth, 1)
	growth.Mul(growth, new(big.Int).SetUint64(p.PlaintextModulus()))

	return CostTable{
		Add:         AddCost,
		Multiply:    bignum.Log2Millibits(growth),
		Relinearize: RelinearizeCost,
		Rescale:     -bignum.Log2Millibits(p.Delta()),
	}
}

// FreshNoiseBound returns the bound eta*(2N+1) on the coefficients of the
// noise of a fresh encryption.
func FreshNoiseBound(params rlwe.ParameterProvider) *big.Int {
	p := params.GetRLWEParameters()
	return big.NewInt(int64(p.Eta()) * int64(2*p.N()+1))
}

// InitialBudget returns the budget of a fresh encryption in millibits,
// log2(Delta/2) - log2(eta*(2N+1)), clamped at zero.
func InitialBudget(params rlwe.ParameterProvider) int64 {

	p := params.GetRLWEParameters()

	halfDelta := new(big.Int).Rsh(p.Delta(), 1)

	return max(bignum.Log2Millibits(halfDelta)-bignum.Log2Millibits(FreshNoiseBound(p)), 0)
}
