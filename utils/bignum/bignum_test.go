package bignum

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInt(t *testing.T) {

	t.Run("NewInt", func(t *testing.T) {
		require.Equal(t, int64(-7), NewInt(-7).Int64())
		require.Equal(t, "340282366920938463463374607431768211456", NewInt("0x100000000000000000000000000000000").String())
		require.Panics(t, func() { NewInt(1.5) })
	})

	t.Run("Product", func(t *testing.T) {
		require.Equal(t, int64(35*11), Product([]uint64{35, 11}).Int64())
		require.Equal(t, int64(1), Product(nil).Int64())
	})

	t.Run("DivRound", func(t *testing.T) {
		for _, tc := range [][3]int64{{7, 2, 4}, {5, 3, 2}, {-7, 2, -4}, {4, 3, 1}, {0, 5, 0}} {
			i := new(big.Int)
			DivRound(big.NewInt(tc[0]), big.NewInt(tc[1]), i)
			require.Equal(t, tc[2], i.Int64(), "%d/%d", tc[0], tc[1])
		}
	})

	t.Run("Center", func(t *testing.T) {
		m := big.NewInt(17)
		require.Equal(t, int64(8), Center(big.NewInt(8), m).Int64())
		require.Equal(t, int64(-8), Center(big.NewInt(9), m).Int64())
	})
}

func TestUint256(t *testing.T) {

	maxU := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	t.Run("Big/RoundTrip", func(t *testing.T) {
		for _, s := range []string{"0", "1", "0xffffffffffffffff", "0x1_0000_0000_0000_0000", maxU.String()} {
			x := NewInt(s)
			w, err := NewUint256FromBig(x)
			require.NoError(t, err)
			require.Zero(t, x.Cmp(w.Big()), s)
		}
		_, err := NewUint256FromBig(new(big.Int).Add(maxU, big.NewInt(1)))
		require.ErrorIs(t, err, ErrOverflow)
		_, err = NewUint256FromBig(big.NewInt(-1))
		require.ErrorIs(t, err, ErrOverflow)
	})

	a := NewInt("0x1234_5678_9abc_def0_1122_3344_5566_7788_99aa_bbcc_ddee_ff00")
	b := NewInt("0xfedc_ba98_7654_3210")
	wa, _ := NewUint256FromBig(a)
	wb, _ := NewUint256FromBig(b)

	t.Run("Add/Sub", func(t *testing.T) {
		s, err := wa.Add(wb)
		require.NoError(t, err)
		require.Zero(t, new(big.Int).Add(a, b).Cmp(s.Big()))

		d, err := wa.Sub(wb)
		require.NoError(t, err)
		require.Zero(t, new(big.Int).Sub(a, b).Cmp(d.Big()))

		_, err = wb.Sub(wa)
		require.ErrorIs(t, err, ErrOverflow)

		wmax, _ := NewUint256FromBig(maxU)
		_, err = wmax.Add(NewUint256(1))
		require.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("Mul", func(t *testing.T) {
		p, err := wa.Mul(wb)
		require.NoError(t, err)
		require.Zero(t, new(big.Int).Mul(a, b).Cmp(p.Big()))

		_, err = wa.Mul(wa)
		require.ErrorIs(t, err, ErrOverflow)

		m, err := wb.Mul64(0xffff_ffff_ffff_fff1)
		require.NoError(t, err)
		require.Zero(t, new(big.Int).Mul(b, new(big.Int).SetUint64(0xffff_ffff_ffff_fff1)).Cmp(m.Big()))

		wmax, _ := NewUint256FromBig(maxU)
		_, err = wmax.Mul64(2)
		require.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("Shift", func(t *testing.T) {
		for _, n := range []uint{0, 1, 63, 64, 65, 100} {
			l, err := wb.Lsh(n)
			require.NoError(t, err)
			require.Zero(t, new(big.Int).Lsh(b, n).Cmp(l.Big()), n)
			require.Zero(t, new(big.Int).Rsh(a, n).Cmp(wa.Rsh(n).Big()), n)
		}
		_, err := wa.Lsh(70)
		require.ErrorIs(t, err, ErrOverflow)
		require.True(t, wa.Rsh(300).IsZero())
	})

	t.Run("DivMod64", func(t *testing.T) {
		d := uint64(0xffff_ffff_0000_0001)
		q, r := wa.DivMod64(d)
		bq, br := new(big.Int).QuoRem(a, new(big.Int).SetUint64(d), new(big.Int))
		require.Zero(t, bq.Cmp(q.Big()))
		require.Equal(t, br.Uint64(), r)
		require.Equal(t, r, wa.Mod64(d))
	})

	t.Run("QuoSmall", func(t *testing.T) {
		d := NewInt("0x1_0000_0000_0000_0000_0000_0000_0000_0001")
		wd, _ := NewUint256FromBig(d)
		for _, k := range []int64{0, 1, 2, 65537, 1 << 40} {
			for _, r := range []*big.Int{big.NewInt(0), big.NewInt(1), new(big.Int).Sub(d, big.NewInt(1))} {
				x := new(big.Int).Add(new(big.Int).Mul(d, big.NewInt(k)), r)
				wx, err := NewUint256FromBig(x)
				require.NoError(t, err)
				q, err := wx.QuoSmall(wd)
				require.NoError(t, err)
				require.Equal(t, uint64(k), q)
			}
		}
		q, err := wa.QuoSmall(NewUint256(0x1_0000))
		require.ErrorIs(t, err, ErrOverflow)
		require.Zero(t, q)
		_, err = wa.QuoSmall(Uint256{})
		require.Error(t, err)
	})

	t.Run("Cmp/BitLen", func(t *testing.T) {
		require.Equal(t, 1, wa.Cmp(wb))
		require.Equal(t, -1, wb.Cmp(wa))
		require.Equal(t, 0, wa.Cmp(wa))
		require.Equal(t, a.BitLen(), wa.BitLen())
		require.Equal(t, b.BitLen(), wb.BitLen())
		v, ok := NewUint256(42).Uint64()
		require.True(t, ok)
		require.Equal(t, uint64(42), v)
		_, ok = wa.Uint64()
		require.False(t, ok)
	})
}

func TestUint128(t *testing.T) {
	x := Uint128{Hi: 1, Lo: ^uint64(0)}
	y, err := x.Add(Uint128{Lo: 1})
	require.NoError(t, err)
	require.Equal(t, Uint128{Hi: 2}, y)

	_, err = Uint128{Hi: ^uint64(0)}.Add(Uint128{Hi: 1})
	require.ErrorIs(t, err, ErrOverflow)

	z, err := y.Sub(x)
	require.NoError(t, err)
	require.Equal(t, Uint128{Lo: 1}, z)

	m, err := Uint128{Lo: 1 << 63}.Mul64(4)
	require.NoError(t, err)
	require.Equal(t, Uint128{Hi: 2}, m)
	require.Equal(t, 66, m.BitLen())
	require.Equal(t, uint64(2), Uint128{Hi: 1, Lo: 0}.Mod64(7))
}

func TestLog2(t *testing.T) {

	t.Run("Millibits", func(t *testing.T) {
		require.Equal(t, int64(0), Log2MillibitsUint64(0))
		require.Equal(t, int64(0), Log2MillibitsUint64(1))
		require.Equal(t, int64(1000), Log2MillibitsUint64(2))
		require.Equal(t, int64(1584), Log2MillibitsUint64(3))
		require.Equal(t, int64(16000), Log2MillibitsUint64(1<<16))
		require.Equal(t, int64(200000), Log2Millibits(new(big.Int).Lsh(big.NewInt(1), 200)))
		// log2(10^30) = 99.6578...
		require.Equal(t, int64(99657), Log2Millibits(NewInt("1000000000000000000000000000000")))
	})

	t.Run("Monotone", func(t *testing.T) {
		prev := int64(0)
		for x := uint64(2); x < 4096; x++ {
			l := Log2MillibitsUint64(x)
			require.GreaterOrEqual(t, l, prev)
			prev = l
		}
	})

	t.Run("Float", func(t *testing.T) {
		require.InDelta(t, 99.6578, Log2(NewInt("1000000000000000000000000000000")), 1e-3)
		require.Equal(t, 0.0, Log2(big.NewInt(0)))
	})
}
