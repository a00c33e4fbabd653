package ring

import (
	"math/big"
)

// Add evaluates p3 = p1 + p2 (mod modulus).
func (r Ring) Add(p1, p2, p3 []uint64) {
	q := r.Q
	for i := range p1 {
		p3[i] = CRed(p1[i]+p2[i], q)
	}
}

// Sub evaluates p3 = p1 - p2 (mod modulus).
func (r Ring) Sub(p1, p2, p3 []uint64) {
	q := r.Q
	for i := range p1 {
		p3[i] = CRed(p1[i]+q-p2[i], q)
	}
}

// Neg evaluates p2 = -p1 (mod modulus).
func (r Ring) Neg(p1, p2 []uint64) {
	for i := range p1 {
		p2[i] = r.Modulus.Neg(p1[i])
	}
}

// Reduce evaluates p2 = p1 (mod modulus) for coefficients in [0, 2^64).
func (r Ring) Reduce(p1, p2 []uint64) {
	q, brc := r.Q, r.BRedConstant
	for i := range p1 {
		p2[i] = BRedAdd(p1[i], q, brc)
	}
}

// MulScalar evaluates p2 = p1 * scalar (mod modulus).
func (r Ring) MulScalar(p1 []uint64, scalar uint64, p2 []uint64) {
	q, mrc := r.Q, r.MRedConstant
	s := r.Modulus.MForm(r.Modulus.Reduce(scalar))
	for i := range p1 {
		p2[i] = MRed(p1[i], s, q, mrc)
	}
}

// MulScalarThenAdd evaluates p2 = p2 + p1 * scalar (mod modulus).
func (r Ring) MulScalarThenAdd(p1 []uint64, scalar uint64, p2 []uint64) {
	q, mrc := r.Q, r.MRedConstant
	s := r.Modulus.MForm(r.Modulus.Reduce(scalar))
	for i := range p1 {
		p2[i] = CRed(p2[i]+MRed(p1[i], s, q, mrc), q)
	}
}

// MulCoeffs evaluates p3 = p1 * p2 (mod modulus) coefficient-wise.
func (r Ring) MulCoeffs(p1, p2, p3 []uint64) {
	q, mrc, r2 := r.Q, r.MRedConstant, r.RSquare
	for i := range p1 {
		p3[i] = MRed(MRed(p1[i], p2[i], q, mrc), r2, q, mrc)
	}
}

// MulCoeffsMontgomery evaluates p3 = p1 * p2 (mod modulus) coefficient-wise,
// with p2 in the Montgomery domain.
func (r Ring) MulCoeffsMontgomery(p1, p2, p3 []uint64) {
	q, mrc := r.Q, r.MRedConstant
	for i := range p1 {
		p3[i] = MRed(p1[i], p2[i], q, mrc)
	}
}

// MulCoeffsMontgomeryThenAdd evaluates p3 = p3 + p1 * p2 (mod modulus)
// coefficient-wise, with p2 in the Montgomery domain.
func (r Ring) MulCoeffsMontgomeryThenAdd(p1, p2, p3 []uint64) {
	q, mrc := r.Q, r.MRedConstant
	for i := range p1 {
		p3[i] = CRed(p3[i]+MRed(p1[i], p2[i], q, mrc), q)
	}
}

// MForm evaluates p2 = p1 * 2^64 (mod modulus).
func (r Ring) MForm(p1, p2 []uint64) {
	q, mrc, r2 := r.Q, r.MRedConstant, r.RSquare
	for i := range p1 {
		p2[i] = MRed(p1[i], r2, q, mrc)
	}
}

// IMForm evaluates p2 = p1 * 2^-64 (mod modulus).
func (r Ring) IMForm(p1, p2 []uint64) {
	q, mrc := r.Q, r.MRedConstant
	for i := range p1 {
		p2[i] = MRed(p1[i], 1, q, mrc)
	}
}

// SetCoefficientsInt64 sets p2[i] = coeffs[i] (mod modulus) for signed coefficients.
func (r Ring) SetCoefficientsInt64(coeffs []int64, p2 []uint64) {
	q := r.Q
	for i, c := range coeffs {
		if c < 0 {
			p2[i] = r.Modulus.Neg(r.Modulus.Reduce(uint64(-c)))
		} else {
			p2[i] = BRedAdd(uint64(c), q, r.BRedConstant)
		}
	}
}

// SetCoefficientsBigint sets p2[i] = coeffs[i] (mod modulus).
func (r Ring) SetCoefficientsBigint(coeffs []big.Int, p2 []uint64) {
	qi := new(big.Int).SetUint64(r.Q)
	tmp := new(big.Int)
	for i := range coeffs {
		p2[i] = tmp.Mod(&coeffs[i], qi).Uint64()
	}
}
