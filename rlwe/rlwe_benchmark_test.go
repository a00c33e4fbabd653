package rlwe

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func BenchmarkRLWE(b *testing.B) {

	var err error

	defaultParamsLiteral := testInsecure

	if *flagParamString != "" {
		var jsonParams ParametersLiteral
		if err = json.Unmarshal([]byte(*flagParamString), &jsonParams); err != nil {
			b.Fatal(err)
		}
		defaultParamsLiteral = []ParametersLiteral{jsonParams} // the custom test suite reads the parameters from the -params flag
	}

	for _, paramsLit := range defaultParamsLiteral[:] {

		var params Parameters
		if params, err = NewParametersFromLiteral(paramsLit); err != nil {
			b.Fatal(err)
		}

		tc, err := NewTestContext(params)
		require.NoError(b, err)

		for _, testSet := range []func(tc *TestContext, b *testing.B){
			benchKeyGenerator,
			benchEncryptor,
			benchDecryptor,
			benchEvaluator,
		} {
			testSet(tc, b)
			runtime.GC()
		}
	}
}

func benchKeyGenerator(tc *TestContext, b *testing.B) {

	params := tc.params
	kgen := tc.kgen

	b.Run(testString(params, "KeyGenerator/GenSecretKey"), func(b *testing.B) {
		sk := NewSecretKey(params)
		for i := 0; i < b.N; i++ {
			kgen.GenSecretKey(sk)
		}
	})

	b.Run(testString(params, "KeyGenerator/GenPublicKey"), func(b *testing.B) {
		pk := NewPublicKey(params)
		for i := 0; i < b.N; i++ {
			kgen.GenPublicKey(tc.sk, pk)
		}
	})

	b.Run(testString(params, "KeyGenerator/GenRelinearizationKey"), func(b *testing.B) {
		rlk := NewEvaluationKey(params)
		for i := 0; i < b.N; i++ {
			kgen.GenRelinearizationKey(tc.sk, rlk)
		}
	})
}

func benchEncryptor(tc *TestContext, b *testing.B) {

	params := tc.params

	b.Run(testString(params, "Encryptor/Encrypt"), func(b *testing.B) {
		pt := NewPlaintext(params)
		ct := NewCiphertext(params, 1)
		for i := 0; i < b.N; i++ {
			if err := tc.enc.Encrypt(pt, ct); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func benchDecryptor(tc *TestContext, b *testing.B) {

	params := tc.params

	b.Run(testString(params, "Decryptor/Decrypt"), func(b *testing.B) {
		ct, err := tc.enc.EncryptNew(NewPlaintext(params))
		require.NoError(b, err)
		pt := NewPlaintext(params)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := tc.dec.Decrypt(ct, pt); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func benchEvaluator(tc *TestContext, b *testing.B) {

	params := tc.params

	b.Run(testString(params, "Evaluator/Relinearize"), func(b *testing.B) {
		ct := NewCiphertext(params, 2)
		out := NewCiphertext(params, 1)
		for i := 0; i < b.N; i++ {
			if err := tc.eval.Relinearize(ct, out); err != nil {
				b.Fatal(err)
			}
		}
	})
}
