package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUtils(t *testing.T) {

	t.Run("IsPowerOfTwo", func(t *testing.T) {
		require.True(t, IsPowerOfTwo(uint64(1)))
		require.True(t, IsPowerOfTwo(uint(4096)))
		require.False(t, IsPowerOfTwo(uint64(0)))
		require.False(t, IsPowerOfTwo(uint64(12)))
	})

	t.Run("BitReverse64", func(t *testing.T) {
		require.Equal(t, uint64(4), BitReverse64(1, 3))
		require.Equal(t, uint64(6), BitReverse64(3, 3))
		require.Equal(t, uint64(0), BitReverse64(0, 5))
	})

	t.Run("GCD", func(t *testing.T) {
		require.Equal(t, uint64(5), GCD(uint64(35), uint64(15)))
		require.Equal(t, uint64(1), GCD(uint64(35), uint64(11)))
		require.Equal(t, uint64(7), GCD(uint64(0), uint64(7)))
	})

	t.Run("AllDistinct", func(t *testing.T) {
		require.True(t, AllDistinct([]uint64{17, 41, 73}))
		require.False(t, AllDistinct([]uint64{17, 41, 17}))
	})

	t.Run("MaxSlice", func(t *testing.T) {
		require.Equal(t, 9, MaxSlice([]int{3, 9, 1}))
		require.Equal(t, 0, MaxSlice([]int{}))
	})

	t.Run("SumBitLen", func(t *testing.T) {
		require.Equal(t, 5+7, SumBitLen([]uint64{17, 73}))
	})
}
