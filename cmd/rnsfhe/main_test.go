package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/rnsfhe/he/bfv"
	"github.com/Pro7ech/rnsfhe/internal/storage"
	"github.com/Pro7ech/rnsfhe/rlwe"
	"github.com/Pro7ech/rnsfhe/utils/sampling"
)

func TestNewKeyGenerator(t *testing.T) {

	params, err := rlwe.NewParametersFromLiteral(rlwe.TestParametersInsecure)
	require.NoError(t, err)

	keys := func(seed string) (*rlwe.SecretKey, *rlwe.PublicKey) {
		kgen, err := newKeyGenerator(params, []byte(seed), sampling.NewSystemSource())
		require.NoError(t, err)
		return kgen.GenKeyPairNew()
	}

	t.Run("Seed/Reproducible", func(t *testing.T) {
		sk0, pk0 := keys("correct horse")
		sk1, pk1 := keys("correct horse")
		require.True(t, sk0.Equal(sk1))
		require.True(t, pk0.Equal(pk1))
		require.Equal(t, publicKeyHandle(pk0), publicKeyHandle(pk1))

		_, pk2 := keys("battery staple")
		require.False(t, pk0.Equal(pk2))
		require.NotEqual(t, publicKeyHandle(pk0), publicKeyHandle(pk2))
	})

	t.Run("NoSeed", func(t *testing.T) {
		sk0, pk0 := keys("")
		sk1, pk1 := keys("")
		require.False(t, sk0.Equal(sk1))
		require.False(t, pk0.Equal(pk1))
	})

	t.Run("SelfCheck", func(t *testing.T) {

		kgen, err := newKeyGenerator(params, []byte("self-check"), sampling.NewSystemSource())
		require.NoError(t, err)

		sk, pk := kgen.GenKeyPairNew()
		rlk := kgen.GenRelinearizationKeyNew(sk)

		ctx, err := bfv.NewContext(params, bfv.Keys{Public: pk, Secret: sk, Relinearization: rlk}, sampling.NewSystemSource())
		require.NoError(t, err)
		defer ctx.Close()

		store := storage.NewMemoryStore(params)
		defer store.Close()

		require.NoError(t, selfCheck(ctx, store, 3, 5, false))
	})
}
