package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := FragmentID("doc-1", "fragment text")
		b := FragmentID("doc-1", "fragment text")
		assert.Equal(t, a, b)
	})

	t.Run("valid UUID", func(t *testing.T) {
		id := FragmentID("doc-1", "fragment text")
		_, err := uuid.Parse(id)
		require.NoError(t, err)
	})

	t.Run("differs by parent", func(t *testing.T) {
		assert.NotEqual(t,
			FragmentID("doc-1", "fragment text"),
			FragmentID("doc-2", "fragment text"))
	})

	t.Run("differs by text", func(t *testing.T) {
		assert.NotEqual(t,
			FragmentID("doc-1", "fragment one"),
			FragmentID("doc-1", "fragment two"))
	})
}

func TestZeroVector(t *testing.T) {
	t.Run("requested dimension", func(t *testing.T) {
		v := ZeroVector(1536)
		require.Len(t, v, 1536)
		assert.True(t, IsZeroVector(v))
	})

	t.Run("non-positive dimension", func(t *testing.T) {
		assert.Nil(t, ZeroVector(0))
		assert.Nil(t, ZeroVector(-1))
	})
}

func TestIsZeroVector(t *testing.T) {
	assert.True(t, IsZeroVector(nil))
	assert.True(t, IsZeroVector([]float32{0, 0, 0}))
	assert.False(t, IsZeroVector([]float32{0, 0.001, 0}))
}
