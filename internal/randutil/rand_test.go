package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for range 10 {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
	assert.NotEqual(t, New(1).Uint64(), New(2).Uint64())
}

func TestResolve(t *testing.T) {
	seed := int64(99)
	rng, used := Resolve(&seed)
	assert.Equal(t, seed, used)
	assert.Equal(t, New(99).Uint64(), rng.Uint64())

	_, used = Resolve(nil)
	assert.NotZero(t, used)
}
