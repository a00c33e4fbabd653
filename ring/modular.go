package ring

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
)

// MaxModulusBits is the maximum bit-size of a modulus.
// Moduli are smaller than 2^62 so that lazy sums of two
// values in [0, 2q) never overflow a word.
const MaxModulusBits = 62

var (
	// ErrInvalidModulus is returned for even, composite, too small or too large moduli.
	ErrInvalidModulus = errors.New("invalid modulus")
	// ErrNotInvertible is returned when inverting zero modulo a prime.
	ErrNotInvertible = errors.New("value is not invertible")
)

// Modulus stores a prime modulus q < 2^62 together with its
// precomputed Montgomery (R = 2^64) and Barrett constants.
// A Modulus is immutable after creation and safe for concurrent use.
type Modulus struct {
	Q            uint64
	MRedConstant uint64    // -q^{-1} mod 2^64
	BRedConstant [2]uint64 // floor(2^128/q)
	RSquare      uint64    // 2^128 mod q
}

// NewModulus checks that q is an odd prime in [3, 2^62) and
// precomputes its reduction constants.
func NewModulus(q uint64) (m *Modulus, err error) {

	if q < 3 || q&1 == 0 || bits.Len64(q) > MaxModulusBits || !IsPrime(q) {
		return nil, fmt.Errorf("%w: %d must be an odd prime in [3, 2^%d)", ErrInvalidModulus, q, MaxModulusBits)
	}

	return &Modulus{
		Q:            q,
		MRedConstant: GetMRedConstant(q),
		BRedConstant: GetBRedConstant(q),
		RSquare:      GetRSquare(q),
	}, nil
}

// Reduce returns x mod q.
func (m *Modulus) Reduce(x uint64) uint64 {
	return BRedAdd(x, m.Q, m.BRedConstant)
}

// Add returns a + b mod q for a, b in [0, q).
func (m *Modulus) Add(a, b uint64) uint64 {
	return CRed(a+b, m.Q)
}

// Sub returns a - b mod q for a, b in [0, q).
func (m *Modulus) Sub(a, b uint64) uint64 {
	return CRed(a+m.Q-b, m.Q)
}

// Neg returns -a mod q for a in [0, q).
func (m *Modulus) Neg(a uint64) uint64 {
	// (q - a) & -(a != 0)
	return (m.Q - a) & -((a | -a) >> 63)
}

// Mul returns a * b mod q for a, b in [0, q), in the standard domain.
func (m *Modulus) Mul(a, b uint64) uint64 {
	return MRed(MRed(a, b, m.Q, m.MRedConstant), m.RSquare, m.Q, m.MRedConstant)
}

// MulMontgomery returns a * b * 2^-64 mod q.
func (m *Modulus) MulMontgomery(a, b uint64) uint64 {
	return MRed(a, b, m.Q, m.MRedConstant)
}

// MForm returns a * 2^64 mod q.
func (m *Modulus) MForm(a uint64) uint64 {
	return MRed(a, m.RSquare, m.Q, m.MRedConstant)
}

// IMForm returns a * 2^-64 mod q.
func (m *Modulus) IMForm(a uint64) uint64 {
	return MRed(a, 1, m.Q, m.MRedConstant)
}

// Pow returns base^exp mod q with a Montgomery ladder.
// The sequence of operations does not depend on the bits of exp or
// on base, which makes it suitable for secret exponents.
func (m *Modulus) Pow(base, exp uint64) uint64 {

	q, mrc := m.Q, m.MRedConstant

	r0 := m.MForm(1)
	r1 := m.MForm(m.Reduce(base))

	for i := 63; i >= 0; i-- {
		bit := (exp >> uint(i)) & 1
		r0, r1 = CSwap(r0, r1, bit)
		r1 = MRed(r0, r1, q, mrc)
		r0 = MRed(r0, r0, q, mrc)
		r0, r1 = CSwap(r0, r1, bit)
	}

	return m.IMForm(r0)
}

// PowVarTime returns base^exp mod q with square-and-multiply.
// Its running time depends on exp: it must only be used with public exponents.
func (m *Modulus) PowVarTime(base, exp uint64) uint64 {
	return IMForm(ModExpMontgomery(m.MForm(m.Reduce(base)), exp, m.Q, m.MRedConstant, m.BRedConstant), m.Q, m.MRedConstant)
}

// Inverse returns a^{-1} mod q by Fermat's little theorem.
func (m *Modulus) Inverse(a uint64) (uint64, error) {
	if m.Reduce(a) == 0 {
		return 0, fmt.Errorf("cannot Inverse: %w: 0 mod %d", ErrNotInvertible, m.Q)
	}
	return m.Pow(a, m.Q-2), nil
}

// CSwap swaps a and b if bit = 1 and leaves them unchanged if bit = 0,
// without branching. bit must be 0 or 1.
func CSwap(a, b, bit uint64) (uint64, uint64) {
	mask := -bit
	t := (a ^ b) & mask
	return a ^ t, b ^ t
}

// CRed returns a mod q for a in [0, 2q), without branching.
func CRed(a, q uint64) uint64 {
	a -= q
	return a + (q & -(a >> 63))
}

// GetMRedConstant computes the constant -q^{-1} mod 2^64 required for
// Montgomery reduction, by Newton iteration. q must be odd.
func GetMRedConstant(q uint64) uint64 {
	// q*q = 1 mod 8: the seed is correct on 3 bits and each
	// iteration doubles the number of correct bits.
	inv := q
	for i := 0; i < 6; i++ {
		inv *= 2 - q*inv
	}
	return -inv
}

// GetBRedConstant computes the constant floor(2^128/q) required
// for Barrett reduction, as [high word, low word].
func GetBRedConstant(q uint64) [2]uint64 {
	hi, r := bits.Div64(1, 0, q)
	lo, _ := bits.Div64(r, 0, q)
	return [2]uint64{hi, lo}
}

// GetRSquare returns 2^128 mod q.
func GetRSquare(q uint64) uint64 {
	r := bits.Rem64(1, 0, q)
	hi, lo := bits.Mul64(r, r)
	return bits.Rem64(hi, lo, q)
}

// MForm switches a to the Montgomery domain by computing a*2^64 mod q.
func MForm(a, q uint64, bredconstant [2]uint64) (r uint64) {
	mhi, _ := bits.Mul64(a, bredconstant[1])
	r = -(a*bredconstant[0] + mhi) * q
	return CRed(r, q)
}

// IMForm switches a from the Montgomery domain back to the standard
// domain by computing a*(1/2^64) mod q.
func IMForm(a, q, mredconstant uint64) (r uint64) {
	return MRed(a, 1, q, mredconstant)
}

// MRed computes x * y * (1/2^64) mod q for x, y in [0, q).
func MRed(x, y, q, mredconstant uint64) (r uint64) {
	return CRed(MRedLazy(x, y, q, mredconstant), q)
}

// MRedLazy computes x * y * (1/2^64) mod q with the result in [0, 2q).
func MRedLazy(x, y, q, mredconstant uint64) (r uint64) {
	ahi, alo := bits.Mul64(x, y)
	m := alo * mredconstant
	mhi, mlo := bits.Mul64(m, q)
	_, carry := bits.Add64(alo, mlo, 0)
	return ahi + mhi + carry
}

// BRedAdd computes a mod q for any a in [0, 2^64).
func BRedAdd(a, q uint64, bredconstant [2]uint64) (r uint64) {
	mhi, _ := bits.Mul64(a, bredconstant[0])
	return CRed(a-mhi*q, q)
}

// BRed computes x*y mod q with a Barrett reduction, for x, y in [0, q).
func BRed(x, y, q uint64, bredconstant [2]uint64) (r uint64) {

	var lhi, mhi, mlo, s0, s1, carry uint64

	ahi, alo := bits.Mul64(x, y)

	// (alo*ulo)>>64
	lhi, _ = bits.Mul64(alo, bredconstant[1])

	// ((ahi*ulo + alo*uhi) + (alo*ulo))>>64
	mhi, mlo = bits.Mul64(alo, bredconstant[0])
	s0, carry = bits.Add64(mlo, lhi, 0)
	s1 = mhi + carry

	mhi, mlo = bits.Mul64(ahi, bredconstant[1])
	_, carry = bits.Add64(mlo, s0, 0)
	lhi = mhi + carry

	// (ahi*uhi) + (((ahi*ulo + alo*uhi) + (alo*ulo))>>64)
	s0 = ahi*bredconstant[0] + s1 + lhi

	return CRed(alo-s0*q, q)
}

// ModExp performs the modular exponentiation x^e mod q with
// square-and-multiply. For public exponents only.
func ModExp(x, e, q uint64) (y uint64) {
	y = 1
	x %= q
	for ; e > 0; e >>= 1 {
		if e&1 == 1 {
			hi, lo := bits.Mul64(y, x)
			y = bits.Rem64(hi, lo, q)
		}
		hi, lo := bits.Mul64(x, x)
		x = bits.Rem64(hi, lo, q)
	}
	return
}

// ModExpMontgomery performs the modular exponentiation x^e mod q,
// where x is in Montgomery form, and returns x^e in Montgomery form.
func ModExpMontgomery(x, e, q, mredconstant uint64, bredconstant [2]uint64) (result uint64) {
	result = MForm(1, q, bredconstant)
	for ; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = MRed(result, x, q, mredconstant)
		}
		x = MRed(x, x, q, mredconstant)
	}
	return
}

// IsPrime applies the Baillie-PSW test, which is exact for 64-bit values.
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(0)
}

// GenerateNTTPrimes generates n primes of logQ bits, equal to 1 modulo NthRoot,
// alternating above and below 2^logQ so as to stay as close as possible to it.
// Primes listed in exclude are skipped.
func GenerateNTTPrimes(logQ, NthRoot, n int, exclude ...uint64) (primes []uint64, err error) {

	if logQ < 2 || logQ >= MaxModulusBits {
		return nil, fmt.Errorf("cannot GenerateNTTPrimes: logQ=%d must be in [2, %d)", logQ, MaxModulusBits)
	}

	if NthRoot < 2 || NthRoot&(NthRoot-1) != 0 {
		return nil, fmt.Errorf("cannot GenerateNTTPrimes: NthRoot=%d must be a power of two", NthRoot)
	}

	skip := map[uint64]bool{}
	for _, q := range exclude {
		skip[q] = true
	}

	step := uint64(NthRoot)
	base := uint64(1) << logQ
	lower, upper := uint64(1)<<(logQ-1), uint64(1)<<logQ<<1

	if step > base {
		return nil, fmt.Errorf("cannot GenerateNTTPrimes: NthRoot=%d > 2^%d", NthRoot, logQ)
	}

	next, prev := base+1-step, base+1
	checkNext, checkPrev := true, true

	for len(primes) < n {

		if !checkNext && !checkPrev {
			return primes, fmt.Errorf("cannot GenerateNTTPrimes: not enough %d-bit primes equal to 1 mod %d", logQ, NthRoot)
		}

		if checkNext {
			if next += step; next >= upper {
				checkNext = false
			} else if IsPrime(next) && !skip[next] {
				primes = append(primes, next)
			}
		}

		if checkPrev && len(primes) < n {
			if prev <= lower+step {
				checkPrev = false
			} else if prev -= step; IsPrime(prev) && !skip[prev] {
				primes = append(primes, prev)
			}
		}
	}

	return
}
