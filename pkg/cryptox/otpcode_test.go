package cryptox

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	t.Parallel()

	t.Run("produces codes of the requested length", func(t *testing.T) {
		for range 50 {
			code, err := GenerateNumericCode(6)
			require.NoError(t, err)
			require.Len(t, code, 6)

			n, err := strconv.Atoi(code)
			require.NoError(t, err)
			require.GreaterOrEqual(t, n, 100000)
			require.LessOrEqual(t, n, 999999)
		}
	})

	t.Run("supports other lengths", func(t *testing.T) {
		code, err := GenerateNumericCode(4)
		require.NoError(t, err)
		require.Len(t, code, 4)
	})

	t.Run("rejects out-of-range lengths", func(t *testing.T) {
		_, err := GenerateNumericCode(2)
		require.Error(t, err)
		_, err = GenerateNumericCode(12)
		require.Error(t, err)
	})
}

func TestHashCode(t *testing.T) {
	t.Parallel()

	h := HashCode("123456")
	require.Len(t, h, 64) // hex SHA-256
	require.Equal(t, h, HashCode("123456"))
	require.NotEqual(t, h, HashCode("654321"))
}
