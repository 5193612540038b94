package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSeedSameStream(t *testing.T) {
	t.Parallel()

	a := New(42)
	b := New(42)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Float64(), b.Float64(), "stream diverged at call %d", i)
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	t.Parallel()

	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 100)
}

func TestFloat64Range(t *testing.T) {
	t.Parallel()

	for _, seed := range []uint32{0, 1, 42, 0xffffffff} {
		r := New(seed)
		for i := 0; i < 10000; i++ {
			v := r.Float64()
			require.GreaterOrEqual(t, v, 0.0)
			require.Less(t, v, 1.0)
		}
	}
}

func TestIntnBounds(t *testing.T) {
	t.Parallel()

	r := New(7)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := r.Intn(5)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 5)
		seen[v] = true
	}
	assert.Len(t, seen, 5, "all values in [0,5) should appear")
}

func TestUint32Deterministic(t *testing.T) {
	t.Parallel()

	a := New(99)
	b := New(99)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Uint32(), b.Uint32())
	}
}
