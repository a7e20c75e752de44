package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	t.Parallel()

	a, b := New(99), New(99)
	for range 16 {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestForkIsIndependentOfLaterParentUse(t *testing.T) {
	t.Parallel()

	p1, p2 := New(5), New(5)
	c1, c2 := Fork(p1), Fork(p2)
	p1.Uint64()
	assert.Equal(t, c1.Uint64(), c2.Uint64())
}

func TestIntnAdapterStaysInRange(t *testing.T) {
	t.Parallel()

	src := Intn{R: New(1)}
	for range 1000 {
		n := src.Intn(256)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 256)
	}
}
