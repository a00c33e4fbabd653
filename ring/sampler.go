package ring

import (
	"fmt"

	"github.com/Pro7ech/rnsfhe/utils/sampling"
)

// DistributionParameters is an interface for the distributions
// polynomial coefficients can be sampled from.
type DistributionParameters interface {
	// Type returns a string representation of the distribution name.
	Type() string
}

// Uniform is the uniform distribution over Z_Q.
type Uniform struct{}

// Ternary is the uniform distribution over {-1, 0, 1}.
type Ternary struct{}

// CenteredBinomial is the centered binomial distribution of parameter Eta,
// with support [-Eta, Eta] and variance Eta/2.
type CenteredBinomial struct {
	Eta int
}

func (d Uniform) Type() string          { return "Uniform" }
func (d Ternary) Type() string          { return "Ternary" }
func (d CenteredBinomial) Type() string { return "CenteredBinomial" }

// Sampler is an interface for random polynomial samplers.
type Sampler interface {
	// Read samples a new polynomial on pol.
	Read(pol RNSPoly)
	// ReadNew samples a new polynomial.
	ReadNew() RNSPoly
}

// NewSampler instantiates a new [Sampler] of the given distribution over
// the moduli of r, drawing its randomness from source.
func NewSampler(source sampling.Source, r RNSRing, X DistributionParameters) (Sampler, error) {
	switch X := X.(type) {
	case Uniform:
		return &UniformSampler{baseSampler{r, source}}, nil
	case Ternary:
		return &smallSampler{baseSampler{r, source}, source.Ternary}, nil
	case CenteredBinomial:
		if X.Eta < 0 || X.Eta > 64 {
			return nil, fmt.Errorf("invalid CenteredBinomial: Eta=%d must be in [0, 64]", X.Eta)
		}
		return &smallSampler{baseSampler{r, source}, func() int64 { return source.CenteredBinomial(X.Eta) }}, nil
	default:
		return nil, fmt.Errorf("invalid distribution: want Uniform, Ternary or CenteredBinomial but have %T", X)
	}
}

type baseSampler struct {
	r      RNSRing
	source sampling.Source
}

func (s baseSampler) ReadNew() RNSPoly {
	return s.r.NewRNSPoly()
}

// UniformSampler samples polynomials with coefficients uniform modulo Q,
// i.e. independent and uniform modulo each prime.
type UniformSampler struct {
	baseSampler
}

// Read samples a new polynomial on pol.
func (s *UniformSampler) Read(pol RNSPoly) {
	for i := 0; i < s.r.Len(); i++ {
		q := s.r.At(i).Q
		row := pol[i]
		for j := range row {
			row[j] = s.source.Uniform(q)
		}
	}
}

// ReadNew samples a new polynomial.
func (s *UniformSampler) ReadNew() (pol RNSPoly) {
	pol = s.baseSampler.ReadNew()
	s.Read(pol)
	return
}

// smallSampler samples polynomials with small signed integer coefficients,
// identical on every row.
type smallSampler struct {
	baseSampler
	next func() int64
}

func (s *smallSampler) Read(pol RNSPoly) {
	coeffs := make([]int64, s.r.N())
	for j := range coeffs {
		coeffs[j] = s.next()
	}
	s.r.SetCoefficientsInt64(coeffs, pol)
}

func (s *smallSampler) ReadNew() (pol RNSPoly) {
	pol = s.baseSampler.ReadNew()
	s.Read(pol)
	return
}
