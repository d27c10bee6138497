package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SameSeedSameSequence(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
}

func TestNew_ZeroSeedUsesCrypto(t *testing.T) {
	r := New(0)
	assert.NotZero(t, r.Seed())
}

func TestBernoulli_Edges(t *testing.T) {
	r := New(1)
	for i := 0; i < 100; i++ {
		assert.False(t, Bernoulli(r, 0))
		assert.True(t, Bernoulli(r, 1))
	}
}

func TestWeighted(t *testing.T) {
	r := New(3)
	counts := make([]int, 3)
	for i := 0; i < 3000; i++ {
		counts[Weighted(r, []float64{0, 1, 3})]++
	}
	assert.Zero(t, counts[0])
	assert.Greater(t, counts[2], counts[1])
	assert.Equal(t, -1, Weighted(r, nil))
}

func TestPickAndJitter(t *testing.T) {
	r := New(5)
	assert.Equal(t, -1, Pick(r, 0))
	for i := 0; i < 100; i++ {
		idx := Pick(r, 4)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 4)

		j := Jitter(r, 50)
		assert.GreaterOrEqual(t, j, -25.0)
		assert.Less(t, j, 25.0)
	}
}

func TestReader_Reproducible(t *testing.T) {
	a := make([]byte, 16)
	b := make([]byte, 16)
	n, err := Reader{Src: New(9)}.Read(a)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	_, _ = Reader{Src: New(9)}.Read(b)
	assert.Equal(t, a, b)
}
