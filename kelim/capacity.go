package kelim

import (
	"fmt"
	"math/big"

	"github.com/Pro7ech/rnsfhe/ring"
	"github.com/Pro7ech/rnsfhe/utils"
)

// Region classifies the utilization of the dual capacity by a value.
type Region int

const (
	// Safe is a utilization below 80%.
	Safe Region = iota
	// Warn80 is a utilization in [80%, 90%).
	Warn80
	// Warn90 is a utilization in [90%, 100%).
	Warn90
	// Critical is a utilization of 100% or more: the value may not be
	// reconstructed correctly.
	Critical
)

func (r Region) String() string {
	switch r {
	case Safe:
		return "Safe"
	case Warn80:
		return "Warn80"
	case Warn90:
		return "Warn90"
	case Critical:
		return "Critical"
	default:
		return fmt.Sprintf("Region(%d)", int(r))
	}
}

// RegionOf returns the [Region] of a utilization given in percent.
func RegionOf(utilizationPercent int) Region {
	switch {
	case utilizationPercent >= 100:
		return Critical
	case utilizationPercent >= 90:
		return Warn90
	case utilizationPercent >= 80:
		return Warn80
	default:
		return Safe
	}
}

// CapacityReport is the utilization of a capacity by a value, computed
// from bit-lengths only.
type CapacityReport struct {
	Region             Region
	UtilizationPercent int
	ValueBits          int
	CapacityBits       int
}

func (c CapacityReport) String() string {
	return fmt.Sprintf("%s (%d%%: %d/%d bits)", c.Region, c.UtilizationPercent, c.ValueBits, c.CapacityBits)
}

// CapacityProximity returns the [CapacityReport] of a value of valueBits bits
// against a capacity of capacityBits bits.
// A non-positive capacity is always Critical.
func CapacityProximity(valueBits, capacityBits int) CapacityReport {

	if capacityBits <= 0 {
		return CapacityReport{Region: Critical, UtilizationPercent: 100, ValueBits: valueBits, CapacityBits: capacityBits}
	}

	u := 100 * valueBits / capacityBits

	return CapacityReport{
		Region:             RegionOf(u),
		UtilizationPercent: u,
		ValueBits:          valueBits,
		CapacityBits:       capacityBits,
	}
}

// CapacityProximity returns the [CapacityReport] of |X| against alpha * beta.
func (e *Eliminator) CapacityProximity(X *big.Int) CapacityReport {
	return CapacityProximity(X.BitLen(), e.capacity.BitLen())
}

// WorstCaseTensor returns an upper bound on 2|Y|+1 where Y = t*X + floor(Q/2)
// and X is a coefficient of the tensor product of two polynomials of degree N
// with centered coefficients modulo Q. A centered value is recovered exactly
// from the dual basis if and only if 2|Y|+1 <= Q*B.
func WorstCaseTensor(N int, Q *big.Int, t uint64) (bound *big.Int) {
	// |X| <= N * (Q/2)^2 * 2 = N * Q^2 / 2
	bound = new(big.Int).Mul(Q, Q)
	bound.Mul(bound, big.NewInt(int64(N)))
	bound.Mul(bound, new(big.Int).SetUint64(t))
	bound.Rsh(bound, 1)
	bound.Add(bound, new(big.Int).Rsh(Q, 1))
	bound.Lsh(bound, 1)
	return bound.Add(bound, big.NewInt(1))
}

// ValidateAnchorPrimes checks that the anchor primes can carry the exact
// rescaling of tensor products for ring degree N, main primes and plaintext
// modulus t: main and anchor primes must be non-zero and pairwise coprime,
// each basis must fit 256 bits, and the worst-case tensor intermediate must
// stay in the [Safe] region of the dual capacity.
func ValidateAnchorPrimes(N int, main, anchor []uint64, t uint64) (report CapacityReport, err error) {

	if len(anchor) == 0 {
		return report, fmt.Errorf("invalid anchor primes: %w", ErrAnchorZero)
	}

	for i, b := range anchor {
		if b == 0 {
			return report, fmt.Errorf("invalid anchor primes: anchor %d: %w", i, ErrAnchorZero)
		}
	}

	if !utils.AllDistinct(append(append([]uint64{}, main...), anchor...)) {
		return report, fmt.Errorf("invalid anchor primes: main and anchor primes must be pairwise distinct")
	}

	var mainBasis, anchorBasis *ring.RNSBasis
	if mainBasis, err = ring.NewRNSBasis(main); err != nil {
		return report, fmt.Errorf("invalid main primes: %w", err)
	}

	if anchorBasis, err = ring.NewRNSBasis(anchor); err != nil {
		return report, fmt.Errorf("invalid anchor primes: %w", err)
	}

	if _, err = ring.NewRNSBasis(append(append([]uint64{}, main...), anchor...)); err != nil {
		return report, fmt.Errorf("invalid anchor primes: %w", err)
	}

	if bits := mainBasis.CapacityBits(); bits > 256 {
		return report, fmt.Errorf("invalid main primes: capacity of %d bits exceeds 256 bits: %w", bits, ErrRangeOverflow)
	}

	if bits := anchorBasis.CapacityBits(); bits > 256 {
		return report, fmt.Errorf("invalid anchor primes: capacity of %d bits exceeds 256 bits: %w", bits, ErrRangeOverflow)
	}

	QB := new(big.Int).Mul(mainBasis.Capacity(), anchorBasis.Capacity())

	worst := WorstCaseTensor(N, mainBasis.Capacity(), t)

	report = CapacityProximity(worst.BitLen(), QB.BitLen())

	if worst.Cmp(QB) > 0 || report.Region != Safe {
		return report, fmt.Errorf("invalid anchor primes: worst-case tensor intermediate is %s: %w", report, ErrRangeOverflow)
	}

	return report, nil
}
