package noise

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/rnsfhe/rlwe"
	"github.com/Pro7ech/rnsfhe/utils/bignum"
)

func TestBudget(t *testing.T) {

	t.Run("Scenario/62000", func(t *testing.T) {
		cycle := Representative128.MultiplyCycle()
		require.Equal(t, int64(43000), cycle)

		b := NewBudget(62000)
		require.NoError(t, b.Consume(cycle))
		require.Equal(t, int64(19000), b.Remaining())

		require.ErrorIs(t, b.Consume(cycle), ErrExhausted)
		require.Equal(t, int64(19000), b.Remaining())
	})

	t.Run("Monotonicity", func(t *testing.T) {
		b := NewBudget(10000)
		prev := b.Remaining()
		for _, cost := range []int64{100, 1000, 2500, 6000, 100, 400, 1} {
			if err := b.Consume(cost); err != nil {
				require.ErrorIs(t, err, ErrExhausted)
				require.Equal(t, prev, b.Remaining())
			} else {
				require.Less(t, b.Remaining(), prev)
			}
			prev = b.Remaining()
		}
	})

	t.Run("CanPerform", func(t *testing.T) {
		b := NewBudget(0)
		require.True(t, b.CanPerform(0))
		require.True(t, b.CanPerform(-81000))
		require.False(t, b.CanPerform(1))

		b = NewBudget(500)
		require.True(t, b.CanPerform(500))
		require.False(t, b.CanPerform(501))
	})

	t.Run("Refund", func(t *testing.T) {
		b := NewBudget(50000)
		require.NoError(t, b.Consume(30000))
		require.NoError(t, b.Consume(-10000))
		require.Equal(t, int64(30000), b.Remaining())
		require.NoError(t, b.Consume(-81000))
		require.Equal(t, b.Initial(), b.Remaining())
	})

	t.Run("Refund/Extreme", func(t *testing.T) {
		b := NewBudget(math.MaxInt64)
		require.NoError(t, b.Consume(math.MaxInt64))
		require.Zero(t, b.Remaining())
		require.NoError(t, b.Consume(math.MinInt64))
		require.Equal(t, int64(math.MaxInt64), b.Remaining())

		b = NewBudget(1000)
		require.NoError(t, b.Consume(math.MinInt64))
		require.Equal(t, int64(1000), b.Remaining())
		require.ErrorIs(t, b.Consume(math.MaxInt64), ErrExhausted)
		require.Equal(t, int64(1000), b.Remaining())
	})

	t.Run("ShouldBootstrap/Extreme", func(t *testing.T) {
		b := NewBudget(math.MaxInt64)
		require.False(t, b.ShouldBootstrap(999))
		require.True(t, b.ShouldBootstrap(1000))
		require.NoError(t, b.Consume(math.MaxInt64/2))
		require.True(t, b.ShouldBootstrap(501))
		require.False(t, b.ShouldBootstrap(499))
	})

	t.Run("ShouldBootstrap", func(t *testing.T) {
		b := NewBudget(10000)
		require.False(t, b.ShouldBootstrap(200))
		require.NoError(t, b.Consume(7999))
		require.False(t, b.ShouldBootstrap(200))
		require.NoError(t, b.Consume(1))
		require.True(t, b.ShouldBootstrap(200))

		b.Reset()
		require.Equal(t, int64(10000), b.Remaining())
		require.True(t, NewBudget(-5).ShouldBootstrap(0))
	})
}

func TestCosts(t *testing.T) {

	t.Run("CostsFor/TestParametersInsecure", func(t *testing.T) {
		params, err := rlwe.NewParametersFromLiteral(rlwe.TestParametersInsecure)
		require.NoError(t, err)

		costs := CostsFor(params)
		require.Equal(t, int64(AddCost), costs.Add)
		require.Equal(t, int64(RelinearizeCost), costs.Relinearize)
		// log2(2 * 16^2 * 257) ~ 17.006
		require.InDelta(t, 17006, costs.Multiply, 2)
		require.Equal(t, -bignum.Log2Millibits(params.Delta()), costs.Rescale)
		require.Less(t, costs.Rescale, int64(0))
		require.Equal(t, costs.Multiply-costs.Rescale, costs.Tensor())

		initial := InitialBudget(params)
		require.Greater(t, initial, costs.MultiplyCycle())
		halfDelta := new(big.Int).Rsh(params.Delta(), 1)
		require.Equal(t, bignum.Log2Millibits(halfDelta)-bignum.Log2Millibits(big.NewInt(20*33)), initial)
	})

	t.Run("CostsFor/ExampleParameters128", func(t *testing.T) {
		params, err := rlwe.NewParametersFromLiteral(rlwe.ExampleParameters128)
		require.NoError(t, err)
		require.InDelta(t, Representative128.MultiplyCycle(), CostsFor(params).MultiplyCycle(), 1500)
	})

	t.Run("InitialBudget/Clamped", func(t *testing.T) {
		params, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
			LogN:   2,
			Main:   []uint64{17},
			Anchor: []uint64{41, 73, 89},
			T:      5,
			Policy: rlwe.AllowInsecure,
		})
		require.NoError(t, err)
		require.Equal(t, int64(0), InitialBudget(params))
	})
}

func TestMeasure(t *testing.T) {

	s, err := Measure([]*big.Int{big.NewInt(0), big.NewInt(1), big.NewInt(-4), big.NewInt(8)})
	require.NoError(t, err)
	require.Equal(t, 4, s.MaxBits)
	require.InDelta(t, 1.25, s.MeanBits, 1e-9)
	require.InDelta(t, 1.0, s.MedianBits, 1e-9)
	require.InDelta(t, 1.299, s.StdDevBits, 1e-3)

	_, err = Measure(nil)
	require.Error(t, err)
}
