package ring

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRNSRing(t *testing.T, logN, logQ, limbs int) RNSRing {
	N := 1 << logN
	primes, err := GenerateNTTPrimes(logQ, 2*N, limbs)
	require.NoError(t, err)
	r, err := NewRNSRing(N, primes)
	require.NoError(t, err)
	return r
}

func TestRNSRing(t *testing.T) {

	t.Run("NewRNSRing/Invalid", func(t *testing.T) {
		_, err := NewRNSRing(4, nil)
		require.Error(t, err)
		_, err = NewRNSRing(4, []uint64{17, 17})
		require.ErrorIs(t, err, ErrNotCoprime)
		_, err = NewRNSRing(4, []uint64{17, 19})
		require.ErrorIs(t, err, ErrNTTConfig)
	})

	src := newTestSource(t)

	for _, workers := range []int{1, 3} {

		r := newTestRNSRing(t, 4, 40, 3).WithWorkers(workers)
		N := r.N()
		Q := r.Modulus()

		us, err := NewSampler(src, r, Uniform{})
		require.NoError(t, err)

		toBig := func(p RNSPoly) []big.Int {
			values := make([]big.Int, N)
			require.NoError(t, r.PolyToBigint(p, values))
			return values
		}

		t.Run(testString("Add/Sub/Neg", N, r.ModuliChain()), func(t *testing.T) {
			a, b := us.ReadNew(), us.ReadNew()
			add, sub, neg := r.NewRNSPoly(), r.NewRNSPoly(), r.NewRNSPoly()
			r.Add(a, b, add)
			r.Sub(a, b, sub)
			r.Neg(a, neg)

			A, B := toBig(a), toBig(b)
			ADD, SUB, NEG := toBig(add), toBig(sub), toBig(neg)
			tmp := new(big.Int)
			for i := 0; i < N; i++ {
				require.Zero(t, tmp.Mod(tmp.Add(&A[i], &B[i]), Q).Cmp(&ADD[i]))
				require.Zero(t, tmp.Mod(tmp.Sub(&A[i], &B[i]), Q).Cmp(&SUB[i]))
				require.Zero(t, tmp.Mod(tmp.Neg(&A[i]), Q).Cmp(&NEG[i]))
			}
		})

		t.Run(testString("MulScalar", N, r.ModuliChain()), func(t *testing.T) {
			a := us.ReadNew()
			out := r.NewRNSPoly()
			scalar := new(big.Int).Lsh(big.NewInt(-12345), 70)
			r.MulScalarBigint(a, scalar, out)

			A, OUT := toBig(a), toBig(out)
			tmp := new(big.Int)
			for i := 0; i < N; i++ {
				require.Zero(t, tmp.Mod(tmp.Mul(&A[i], scalar), Q).Cmp(&OUT[i]))
			}

			acc := r.NewRNSPoly()
			r.MulScalarThenAdd(a, 3, acc)
			r.MulScalarThenAdd(a, 4, acc)
			want := r.NewRNSPoly()
			r.MulScalar(a, 7, want)
			require.True(t, want.Equal(acc))
		})

		t.Run(testString("MulPoly", N, r.ModuliChain()), func(t *testing.T) {
			a, b := us.ReadNew(), us.ReadNew()
			have := r.NewRNSPoly()
			r.MulPoly(a, b, have)

			for i := 0; i < r.Len(); i++ {
				want := NewPoly(N)
				r.At(i).MulPolyNaive(a[i], b[i], want)
				require.Equal(t, want, have[i])
			}

			// NTT + Montgomery pointwise product
			aNTT, bNTT := r.NewRNSPoly(), r.NewRNSPoly()
			r.NTT(a, aNTT)
			r.NTT(b, bNTT)
			r.MForm(bNTT, bNTT)
			prod := r.NewRNSPoly()
			r.MulCoeffsMontgomery(aNTT, bNTT, prod)
			r.INTT(prod, prod)
			require.True(t, have.Equal(prod))

			acc := r.NewRNSPoly()
			r.MulCoeffsMontgomeryThenAdd(aNTT, bNTT, acc)
			r.MulCoeffsMontgomeryThenAdd(aNTT, bNTT, acc)
			r.INTT(acc, acc)
			twice := r.NewRNSPoly()
			r.Add(have, have, twice)
			require.True(t, twice.Equal(acc))

			r.IMForm(bNTT, bNTT)
			r.MulCoeffs(aNTT, bNTT, prod)
			r.INTT(prod, prod)
			require.True(t, have.Equal(prod))
		})

		t.Run(testString("Coefficients/Centered", N, r.ModuliChain()), func(t *testing.T) {
			coeffs := make([]int64, N)
			for i := range coeffs {
				coeffs[i] = int64(i) - int64(N/2)
			}
			p := r.NewRNSPoly()
			r.SetCoefficientsInt64(coeffs, p)

			values := make([]big.Int, N)
			require.NoError(t, r.PolyToBigintCentered(p, values))
			for i := range coeffs {
				require.Equal(t, coeffs[i], values[i].Int64())
			}

			q := r.NewRNSPoly()
			r.SetCoefficientsBigint(values, q)
			require.True(t, p.Equal(q))

			wide := make([]uint64, N)
			for i := range wide {
				wide[i] = ^uint64(i)
			}
			red := r.NewRNSPoly()
			r.Reduce(RNSPoly{wide, wide, wide}, red)
			for i := 0; i < r.Len(); i++ {
				for j := range wide {
					require.Equal(t, wide[j]%r.At(i).Q, red[i][j])
				}
			}
		})
	}

	t.Run("WithWorkers/Concurrent", func(t *testing.T) {

		r := newTestRNSRing(t, 5, 40, 4).WithWorkers(2)

		us, err := NewSampler(src, r, Uniform{})
		require.NoError(t, err)

		callers := 8

		a, b, want := make([]RNSPoly, callers), make([]RNSPoly, callers), make([]RNSPoly, callers)
		for c := range callers {
			a[c], b[c], want[c] = us.ReadNew(), us.ReadNew(), r.NewRNSPoly()
			r.WithWorkers(1).MulPoly(a[c], b[c], want[c])
		}

		have := make([]RNSPoly, callers)

		var wg sync.WaitGroup
		for c := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				have[c] = r.NewRNSPoly()
				for range 8 {
					r.MulPoly(a[c], b[c], have[c])
				}
			}()
		}
		wg.Wait()

		for c := range callers {
			require.True(t, want[c].Equal(have[c]))
		}
	})

	t.Run("WithWorkers/Panic", func(t *testing.T) {
		r := newTestRNSRing(t, 3, 30, 3).WithWorkers(2)
		short := RNSPoly{NewPoly(r.N())}
		require.Panics(t, func() { r.Add(short, short, short) })
	})

	t.Run("Slice", func(t *testing.T) {
		r := newTestRNSRing(t, 3, 30, 4)
		s := r.Slice(1, 3)
		require.Equal(t, 2, s.Len())
		require.Equal(t, r.ModuliChain()[1:3], s.ModuliChain())
		require.Equal(t, r.At(1), s.At(0))
	})
}

func TestSampler(t *testing.T) {

	r := newTestRNSRing(t, 6, 30, 2)
	src := newTestSource(t)

	centered := func(p RNSPoly) []big.Int {
		values := make([]big.Int, r.N())
		require.NoError(t, r.PolyToBigintCentered(p, values))
		return values
	}

	t.Run("Ternary", func(t *testing.T) {
		s, err := NewSampler(src, r, Ternary{})
		require.NoError(t, err)
		for _, v := range centered(s.ReadNew()) {
			require.True(t, v.IsInt64() && v.Int64() >= -1 && v.Int64() <= 1)
		}
	})

	t.Run("CenteredBinomial", func(t *testing.T) {
		s, err := NewSampler(src, r, CenteredBinomial{Eta: 3})
		require.NoError(t, err)
		for _, v := range centered(s.ReadNew()) {
			require.True(t, v.IsInt64() && v.Int64() >= -3 && v.Int64() <= 3)
		}

		s, err = NewSampler(src, r, CenteredBinomial{Eta: 0})
		require.NoError(t, err)
		for _, v := range centered(s.ReadNew()) {
			require.Zero(t, v.Sign())
		}

		_, err = NewSampler(src, r, CenteredBinomial{Eta: -1})
		require.Error(t, err)
	})

	t.Run("Uniform", func(t *testing.T) {
		s, err := NewSampler(src, r, Uniform{})
		require.NoError(t, err)
		p := s.ReadNew()
		require.NoError(t, p.Validate(r.N(), r.ModuliChain()))
	})
}

func TestRNSPoly(t *testing.T) {

	r := newTestRNSRing(t, 3, 30, 2)
	src := newTestSource(t)
	us, err := NewSampler(src, r, Uniform{})
	require.NoError(t, err)

	p := us.ReadNew()

	t.Run("Clone/Copy", func(t *testing.T) {
		c := p.Clone()
		require.True(t, p.Equal(c))
		c[0][0] = r.At(0).Modulus.Add(c[0][0], 1)
		require.False(t, p.Equal(c))
		c.Copy(p)
		require.True(t, p.Equal(c))
		c.Zero()
		require.True(t, c.Equal(r.NewRNSPoly()))
	})

	t.Run("Binary", func(t *testing.T) {
		data, err := p.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, data, p.BinarySize())

		var q RNSPoly
		require.NoError(t, q.UnmarshalBinary(data))
		require.True(t, p.Equal(q))
		require.NoError(t, q.Validate(r.N(), r.ModuliChain()))

		require.Error(t, q.UnmarshalBinary(data[:len(data)-1]))
		require.Error(t, q.UnmarshalBinary(data[:2]))
	})

	t.Run("Validate", func(t *testing.T) {
		require.ErrorIs(t, p.Validate(r.N()*2, r.ModuliChain()), ErrInvalidPolynomialDegree)
		require.ErrorIs(t, p.Validate(r.N(), r.ModuliChain()[:1]), ErrInvalidPolynomialDegree)

		bad := p.Clone()
		bad[1][3] = r.At(1).Q
		require.ErrorIs(t, bad.Validate(r.N(), r.ModuliChain()), ErrCoefficientRange)
	})
}
