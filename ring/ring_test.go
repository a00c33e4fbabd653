package ring

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/rnsfhe/utils/sampling"
)

func testString(opname string, N int, moduli []uint64) string {
	return fmt.Sprintf("%s/N=%d/limbs=%d", opname, N, len(moduli))
}

func newTestSource(t *testing.T) sampling.Source {
	prng, err := sampling.NewKeyedPRNG([]byte{'r', 'i', 'n', 'g'})
	require.NoError(t, err)
	return prng
}

var testModuli = []uint64{3, 17, 97, 65537, 0x1fffffffffe00001, 0x1fffffffffc0001}

func TestModulus(t *testing.T) {

	t.Run("NewModulus/Invalid", func(t *testing.T) {
		for _, q := range []uint64{0, 1, 2, 4, 15, 91, 1 << 62, 0x4000000000000001} {
			_, err := NewModulus(q)
			require.ErrorIs(t, err, ErrInvalidModulus, q)
		}
	})

	src := newTestSource(t)

	for _, q := range testModuli {

		m, err := NewModulus(q)
		require.NoError(t, err)
		bq := new(big.Int).SetUint64(q)

		t.Run(fmt.Sprintf("Constants/q=%d", q), func(t *testing.T) {
			// q * -MRedConstant = 1 mod 2^64
			require.Equal(t, uint64(1), q*(-m.MRedConstant))
			r2 := new(big.Int).Lsh(big.NewInt(1), 128)
			require.Equal(t, r2.Mod(r2, bq).Uint64(), m.RSquare)
		})

		t.Run(fmt.Sprintf("Montgomery/q=%d", q), func(t *testing.T) {
			for i := 0; i < 256; i++ {
				a, b := src.Uniform(q), src.Uniform(q)

				// Idempotence of the domain switch.
				require.Equal(t, a, m.IMForm(m.MForm(a)))
				require.Equal(t, a, IMForm(MForm(a, q, m.BRedConstant), q, m.MRedConstant))

				want := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
				want.Mod(want, bq)

				require.Equal(t, want.Uint64(), m.Mul(a, b))
				require.Equal(t, want.Uint64(), BRed(a, b, q, m.BRedConstant))
				require.Equal(t, want.Uint64(), m.IMForm(m.MulMontgomery(m.MForm(a), m.MForm(b))))
				require.Less(t, MRedLazy(a, b, q, m.MRedConstant), 2*q)

				require.Equal(t, (a+b)%q, m.Add(a, b))
				require.Equal(t, (a+q-b)%q, m.Sub(a, b))
				require.Equal(t, (q-a)%q, m.Neg(a))

				x := src.NextUint64()
				require.Equal(t, x%q, m.Reduce(x))
			}
			require.Equal(t, uint64(0), m.Neg(0))
		})

		t.Run(fmt.Sprintf("Pow/q=%d", q), func(t *testing.T) {
			for i := 0; i < 32; i++ {
				a, e := src.Uniform(q), src.NextUint64()
				want := new(big.Int).Exp(new(big.Int).SetUint64(a), new(big.Int).SetUint64(e), bq).Uint64()
				require.Equal(t, want, m.Pow(a, e))
				require.Equal(t, want, m.PowVarTime(a, e))
				require.Equal(t, want, ModExp(a, e, q))
			}
			require.Equal(t, uint64(1), m.Pow(0, 0))
			require.Equal(t, uint64(0), m.Pow(0, 5))
		})

		t.Run(fmt.Sprintf("Inverse/q=%d", q), func(t *testing.T) {
			for i := 0; i < 32; i++ {
				a := src.Uniform(q-1) + 1
				inv, err := m.Inverse(a)
				require.NoError(t, err)
				require.Equal(t, uint64(1), m.Mul(a, inv))
			}
			_, err := m.Inverse(q)
			require.ErrorIs(t, err, ErrNotInvertible)
		})
	}

	t.Run("CSwap", func(t *testing.T) {
		a, b := CSwap(3, 5, 0)
		require.Equal(t, [2]uint64{3, 5}, [2]uint64{a, b})
		a, b = CSwap(3, 5, 1)
		require.Equal(t, [2]uint64{5, 3}, [2]uint64{a, b})
	})
}

func TestGenerateNTTPrimes(t *testing.T) {

	primes, err := GenerateNTTPrimes(4, 8, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{17}, primes)

	for _, tc := range []struct{ logQ, logN, n int }{{30, 4, 4}, {45, 10, 3}, {60, 12, 2}} {
		NthRoot := 2 << tc.logN
		primes, err := GenerateNTTPrimes(tc.logQ, NthRoot, tc.n)
		require.NoError(t, err)
		require.Len(t, primes, tc.n)
		for _, q := range primes {
			require.True(t, IsPrime(q))
			require.Equal(t, uint64(1), q%uint64(NthRoot))
			require.InDelta(t, tc.logQ, bits.Len64(q), 1)
		}

		others, err := GenerateNTTPrimes(tc.logQ, NthRoot, tc.n, primes...)
		require.NoError(t, err)
		for _, q := range others {
			require.NotContains(t, primes, q)
		}
	}

	_, err = GenerateNTTPrimes(4, 8, 10)
	require.Error(t, err)
	_, err = GenerateNTTPrimes(62, 8, 1)
	require.Error(t, err)
	_, err = GenerateNTTPrimes(30, 12, 1)
	require.Error(t, err)
}

func TestRing(t *testing.T) {

	t.Run("NewRing/Invalid", func(t *testing.T) {
		_, err := NewRing(3, 17)
		require.Error(t, err)
		_, err = NewRing(1, 17)
		require.Error(t, err)
		_, err = NewRing(4, 16)
		require.ErrorIs(t, err, ErrInvalidModulus)
		_, err = NewRing(16, 17)
		require.ErrorIs(t, err, ErrNTTConfig)
		_, err = PrimitiveNthRoot(17, 64)
		require.ErrorIs(t, err, ErrNTTConfig)
	})

	t.Run("N=4/q=17", func(t *testing.T) {
		r, err := NewRing(4, 17)
		require.NoError(t, err)
		psi := r.PrimitiveRoot
		require.Equal(t, uint64(16), ModExp(psi, 4, 17))
		require.Equal(t, uint64(1), ModExp(psi, 8, 17))

		// (1 + X) * X^3 = X^3 + X^4 = -1 + X^3
		p3 := r.NewPoly()
		r.MulPoly([]uint64{1, 1, 0, 0}, []uint64{0, 0, 0, 1}, p3)
		require.Equal(t, Poly{16, 0, 0, 1}, p3)
	})

	src := newTestSource(t)

	for _, tc := range []struct{ logN, logQ int }{{1, 5}, {2, 5}, {3, 20}, {5, 30}, {8, 55}, {10, 61}} {

		N := 1 << tc.logN

		primes, err := GenerateNTTPrimes(tc.logQ, 2*N, 1)
		require.NoError(t, err)

		r, err := NewRing(N, primes[0])
		require.NoError(t, err)

		us, err := NewSampler(src, RNSRing{rings: []*Ring{r}, basis: mustBasis(t, primes)}, Uniform{})
		require.NoError(t, err)

		t.Run(testString("NTT/RoundTrip", N, primes), func(t *testing.T) {
			p := us.ReadNew()[0]
			pNTT := r.NewPoly()
			r.NTT(p, pNTT)
			back := r.NewPoly()
			r.INTT(pNTT, back)
			require.Equal(t, p, back)

			// In place
			c := p.Clone()
			r.NTT(c, c)
			require.Equal(t, pNTT, c)
			r.INTT(c, c)
			require.Equal(t, p, c)
		})

		t.Run(testString("NTT/Evaluation", N, primes), func(t *testing.T) {
			p := us.ReadNew()[0]
			pNTT := r.NewPoly()
			r.NTT(p, pNTT)
			for k := 0; k < N; k++ {
				x := ModExp(r.PrimitiveRoot, uint64(2*k+1), r.Q)
				var acc, xi uint64 = 0, 1
				for i := 0; i < N; i++ {
					acc = r.Modulus.Add(acc, r.Modulus.Mul(p[i], xi))
					xi = r.Modulus.Mul(xi, x)
				}
				require.Equal(t, acc, pNTT[k], k)
			}
		})

		t.Run(testString("MulPoly/Naive", N, primes), func(t *testing.T) {
			a, b := us.ReadNew()[0], us.ReadNew()[0]
			want, have := r.NewPoly(), r.NewPoly()
			r.MulPolyNaive(a, b, want)
			r.MulPoly(a, b, have)
			require.Equal(t, want, have)
		})
	}
}

func mustBasis(t *testing.T, moduli []uint64) *RNSBasis {
	b, err := NewRNSBasis(moduli)
	require.NoError(t, err)
	return b
}

func TestRNSBasis(t *testing.T) {

	t.Run("Invalid", func(t *testing.T) {
		_, err := NewRNSBasis([]uint64{6, 35, 9})
		require.ErrorIs(t, err, ErrNotCoprime)
		var nce *NotCoprimeError
		require.True(t, errors.As(err, &nce))
		require.Equal(t, []int64{6, 9, 3}, []int64{nce.M.Int64(), nce.A.Int64(), nce.GCD.Int64()})

		_, err = NewRNSBasis([]uint64{17, 0})
		require.ErrorIs(t, err, ErrModulusZero)

		_, err = NewRNSBasis(nil)
		require.ErrorIs(t, err, ErrEmptyBasis)
	})

	src := newTestSource(t)

	for _, moduli := range [][]uint64{
		{35, 11},
		{17, 97, 65537},
		{0x1fffffffffe00001, 0x1fffffffffc80001, 0x1fffffffffb40001, 0x1fffffffffc0001},
	} {

		b := mustBasis(t, moduli)

		t.Run(fmt.Sprintf("RoundTrip/limbs=%d", len(moduli)), func(t *testing.T) {

			require.Equal(t, b.Capacity().BitLen(), b.CapacityBits())

			for i := 0; i < 64; i++ {
				X, err := rand(src, b.Capacity())
				require.NoError(t, err)

				res := b.Encode(X)
				Y, err := b.Decode(res)
				require.NoError(t, err)
				require.Zero(t, X.Cmp(Y))

				W, err := b.DecodeWide(res)
				require.NoError(t, err)
				require.Zero(t, X.Cmp(W.Big()))
			}

			// Negative values map to X + Capacity.
			Y, err := b.Decode(b.Encode(big.NewInt(-1)))
			require.NoError(t, err)
			require.Zero(t, new(big.Int).Sub(b.Capacity(), big.NewInt(1)).Cmp(Y))
		})
	}

	t.Run("K-Elimination/Example", func(t *testing.T) {
		b := mustBasis(t, []uint64{35, 11})
		require.Equal(t, []uint64{7, 9}, b.Encode(big.NewInt(42)))
		require.Equal(t, []uint64{7, 9}, b.EncodeUint64(42))
	})

	t.Run("Decode/Invalid", func(t *testing.T) {
		b := mustBasis(t, []uint64{35, 11})
		_, err := b.Decode([]uint64{7})
		require.Error(t, err)
		_, err = b.Decode([]uint64{7, 11})
		require.ErrorIs(t, err, ErrCoefficientRange)
	})
}

// rand samples a uniform integer in [0, bound) from src.
func rand(src sampling.Source, bound *big.Int) (*big.Int, error) {
	words := (bound.BitLen() + 63) / 64
	for {
		x := new(big.Int)
		for i := 0; i < words; i++ {
			x.Lsh(x, 64)
			x.Or(x, new(big.Int).SetUint64(src.NextUint64()))
		}
		x.Rsh(x, uint(64*words-bound.BitLen()))
		if x.Cmp(bound) < 0 {
			return x, nil
		}
	}
}
