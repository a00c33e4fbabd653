package bfv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/rnsfhe/he/bfv"
	"github.com/Pro7ech/rnsfhe/he/noise"
	"github.com/Pro7ech/rnsfhe/rlwe"
	"github.com/Pro7ech/rnsfhe/utils/sampling"
)

func testContextOperations(tc *testContext, t *testing.T) {

	params := tc.params
	T := params.PlaintextModulus()
	ctx := tc.ctx

	t.Run(GetTestName("Context/Add/Multiply", params), func(t *testing.T) {

		a, b := tc.rng.Uint64N(T), tc.rng.Uint64N(T)

		ct0, err := ctx.Encrypt(a)
		require.NoError(t, err)
		ct1, err := ctx.Encrypt(b)
		require.NoError(t, err)

		sum, err := ctx.Add(ct0, ct1)
		require.NoError(t, err)
		m, err := ctx.Decrypt(sum)
		require.NoError(t, err)
		require.Equal(t, (a+b)%T, m)

		prod, err := ctx.Multiply(ct0, ct1)
		require.NoError(t, err)
		m, err = ctx.Decrypt(prod)
		require.NoError(t, err)
		require.Equal(t, (a*b)%T, m)

		// relinearize(rescale(tensor(a, b)))
		ct, err := ctx.Tensor(ct0, ct1)
		require.NoError(t, err)
		ct, err = ctx.Rescale(ct)
		require.NoError(t, err)
		ct, err = ctx.Relinearize(ct)
		require.NoError(t, err)
		require.Equal(t, 1, ct.Degree())
		m, err = ctx.Decrypt(ct)
		require.NoError(t, err)
		require.Equal(t, (a*b)%T, m)
	})

	t.Run(GetTestName("Context/EncryptPoly/DecryptPoly", params), func(t *testing.T) {

		values := make([]uint64, params.N())
		for i := range values {
			values[i] = tc.rng.Uint64N(T)
		}

		ct, err := ctx.EncryptPoly(values)
		require.NoError(t, err)

		have, err := ctx.DecryptPoly(ct)
		require.NoError(t, err)
		require.Equal(t, values, have)
	})

	t.Run(GetTestName("Context/Invalid", params), func(t *testing.T) {

		_, err := ctx.Encrypt(T)
		require.ErrorIs(t, err, bfv.ErrMessageOutOfBounds)

		source, err := sampling.NewKeyedPRNG([]byte{'c', 't', 'x'})
		require.NoError(t, err)

		_, err = bfv.NewContext(params, bfv.Keys{}, source)
		require.Error(t, err)

		public, err := bfv.NewContext(params, bfv.Keys{Public: tc.pk}, source)
		require.NoError(t, err)

		ct, err := public.Encrypt(1)
		require.NoError(t, err)

		_, err = public.Decrypt(ct)
		require.ErrorIs(t, err, bfv.ErrMissingSecretKey)

		_, err = public.Multiply(ct, ct)
		require.ErrorIs(t, err, rlwe.ErrMissingRelinearizationKey)

		private, err := bfv.NewContext(params, bfv.Keys{Public: tc.pk, Secret: tc.sk}, source)
		require.NoError(t, err)

		_, err = private.Decrypt(ct)
		require.NoError(t, err)

		private.Close()

		_, err = private.DecryptPoly(ct)
		require.ErrorIs(t, err, bfv.ErrMissingSecretKey)

		// the caller's key is untouched
		require.NoError(t, tc.sk.Value.Validate(params.N(), params.Q()))
		m, err := ctx.Decrypt(ct)
		require.NoError(t, err)
		require.Equal(t, uint64(1), m)
	})
}

func testGuardedOperations(tc *testContext, t *testing.T) {

	params := tc.params
	T := params.PlaintextModulus()
	ctx := tc.ctx
	costs := ctx.Costs()

	t.Run(GetTestName("Context/Guarded/Budget", params), func(t *testing.T) {
		budget := ctx.NewBudget()
		require.Equal(t, noise.InitialBudget(params), budget.Initial())
		require.Equal(t, budget.Initial(), budget.Remaining())
		require.Equal(t, noise.CostsFor(params), costs)
	})

	t.Run(GetTestName("Context/Guarded/Add", params), func(t *testing.T) {

		a, b := tc.rng.Uint64N(T), tc.rng.Uint64N(T)

		ct0, err := ctx.Encrypt(a)
		require.NoError(t, err)
		ct1, err := ctx.Encrypt(b)
		require.NoError(t, err)

		budget := ctx.NewBudget()

		ct, err := ctx.AddGuarded(budget, ct0, ct1)
		require.NoError(t, err)
		require.Equal(t, budget.Initial()-costs.Add, budget.Remaining())

		m, err := ctx.Decrypt(ct)
		require.NoError(t, err)
		require.Equal(t, (a+b)%T, m)

		empty := noise.NewBudget(0)
		ct, err = ctx.AddGuarded(empty, ct0, ct1)
		require.ErrorIs(t, err, noise.ErrExhausted)
		require.Nil(t, ct)
		require.Zero(t, empty.Remaining())
	})

	t.Run(GetTestName("Context/Guarded/TensorRescale/Relinearize", params), func(t *testing.T) {

		a, b := tc.rng.Uint64N(T), tc.rng.Uint64N(T)

		ct0, err := ctx.Encrypt(a)
		require.NoError(t, err)
		ct1, err := ctx.Encrypt(b)
		require.NoError(t, err)

		budget := ctx.NewBudget()

		if !budget.CanPerform(costs.MultiplyCycle()) {
			t.Skip("fresh budget does not cover a multiplication")
		}

		ct, err := ctx.TensorRescaleGuarded(budget, ct0, ct1)
		require.NoError(t, err)
		require.Equal(t, 2, ct.Degree())

		ct, err = ctx.RelinearizeGuarded(budget, ct)
		require.NoError(t, err)
		require.Equal(t, budget.Initial()-costs.MultiplyCycle(), budget.Remaining())

		m, err := ctx.Decrypt(ct)
		require.NoError(t, err)
		require.Equal(t, (a*b)%T, m)
	})

	t.Run(GetTestName("Context/Guarded/Multiply/Exhaust", params), func(t *testing.T) {

		a, b := tc.rng.Uint64N(T), tc.rng.Uint64N(T)

		acc, err := ctx.Encrypt(a)
		require.NoError(t, err)
		ct1, err := ctx.Encrypt(b)
		require.NoError(t, err)

		budget := ctx.NewBudget()
		cycle := costs.MultiplyCycle()
		want := a

		for n := 0; ; n++ {

			require.Less(t, n, 64)

			before := budget.Remaining()

			next, err := ctx.MultiplyGuarded(budget, acc, ct1)

			if err != nil {
				require.ErrorIs(t, err, noise.ErrExhausted)
				require.Nil(t, next)
				require.Equal(t, before, budget.Remaining())
				require.Less(t, before, cycle)
				break
			}

			require.Equal(t, before-cycle, budget.Remaining())

			want = (want * b) % T
			acc = next

			m, err := ctx.Decrypt(acc)
			require.NoError(t, err)
			require.Equal(t, want, m)
		}
	})
}
