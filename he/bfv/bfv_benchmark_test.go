package bfv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/rnsfhe/he/bfv"
	"github.com/Pro7ech/rnsfhe/kelim"
	"github.com/Pro7ech/rnsfhe/rlwe"
)

func BenchmarkBFV(b *testing.B) {

	for _, paramsLit := range []rlwe.ParametersLiteral{
		rlwe.TestParametersInsecure,
		rlwe.ExampleParameters128,
	} {

		params, err := rlwe.NewParametersFromLiteral(paramsLit)
		require.NoError(b, err)

		tc, err := genTestParams(params)
		require.NoError(b, err)

		benchEvaluator(tc, b)
	}
}

func benchEvaluator(tc *testContext, b *testing.B) {

	params := tc.params
	eval := tc.eval

	_, _, ct0 := newTestVectors(tc, b)
	_, _, ct1 := newTestVectors(tc, b)

	b.Run(GetTestName("Evaluator/Add", params), func(b *testing.B) {
		out := bfv.NewCiphertext(params, 1)
		for i := 0; i < b.N; i++ {
			if err := eval.Add(ct0, ct1, out); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run(GetTestName("Evaluator/Tensor", params), func(b *testing.B) {
		out := bfv.NewCiphertext(params, 2)
		for i := 0; i < b.N; i++ {
			if err := eval.Tensor(ct0, ct1, out); err != nil {
				b.Fatal(err)
			}
		}
	})

	tensor, err := eval.TensorNew(ct0, ct1)
	require.NoError(b, err)

	for _, strategy := range []kelim.Strategy{kelim.StrategyKElimination, kelim.StrategyPerLimb} {
		b.Run(GetTestName("Evaluator/Rescale/"+strategy.String(), params), func(b *testing.B) {
			// PerLimb on a tensor product is incorrect and only measures the cost of the fast path
			out := bfv.NewCiphertext(params, 2)
			for i := 0; i < b.N; i++ {
				for j := range tensor.Value {
					if err := params.Rescaler().RescaleWith(strategy, tensor.Value[j], out.Value[j]); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}

	b.Run(GetTestName("Evaluator/Relinearize", params), func(b *testing.B) {
		out := bfv.NewCiphertext(params, 1)
		for i := 0; i < b.N; i++ {
			if err := eval.Relinearize(tensor, out); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run(GetTestName("Evaluator/Multiply", params), func(b *testing.B) {
		out := bfv.NewCiphertext(params, 1)
		for i := 0; i < b.N; i++ {
			if err := eval.Multiply(ct0, ct1, out); err != nil {
				b.Fatal(err)
			}
		}
	})
}
