package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	generator := NewTokenGenerator()

	for _, n := range []int{TransferTokenBytes, StateTokenBytes} {
		plain, digest, err := generator.Generate(n)
		require.NoError(t, err)

		assert.Len(t, plain, n*2)
		assert.Len(t, digest, 64)
		assert.Equal(t, generator.Hash(plain), digest)
		assert.NotEqual(t, generator.Hash(plain+"0"), digest)
	}
}

func TestRandom(t *testing.T) {
	generator := NewTokenGenerator()
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		v, err := generator.Random(StateTokenBytes)
		require.NoError(t, err)
		require.NotContains(t, seen, v)
		seen[v] = struct{}{}
	}

	_, err := generator.Random(0)
	assert.Error(t, err)
}

func TestHash_SHA256Vector(t *testing.T) {
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", NewTokenGenerator().Hash("abc"))
}
