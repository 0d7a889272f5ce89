package handles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAllocAndGet(t *testing.T) {
	s := NewStore()
	id := s.Alloc("hello")
	v, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestStoreUnknownHandle(t *testing.T) {
	s := NewStore()
	_, ok := s.Get(ID(999))
	assert.False(t, ok)
}

func TestStoreFreeThenRecycle(t *testing.T) {
	s := NewStore()
	id := s.Alloc("first")
	s.Free(id)

	_, ok := s.Get(id)
	assert.False(t, ok, "freed handle must not resolve")

	id2 := s.Alloc("second")
	assert.Equal(t, id, id2, "free-list should recycle the most recently freed id")
	v, ok := s.Get(id2)
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestStoreFreeIsIdempotent(t *testing.T) {
	s := NewStore()
	id := s.Alloc("x")
	s.Free(id)
	assert.NotPanics(t, func() {
		s.Free(id)
		s.Free(ID(50))
	})
}

func TestStoreSingletonsReservedAndNeverFreed(t *testing.T) {
	s := NewStore()
	assert.True(t, IsSingleton(IDUndefined))
	assert.True(t, IsSingleton(IDNull))
	assert.True(t, IsSingleton(IDGlobal))
	assert.False(t, IsSingleton(minID))

	s.SetSingleton(IDTrue, true)
	v, ok := s.Get(IDTrue)
	require.True(t, ok)
	assert.Equal(t, true, v)

	s.Free(IDTrue)
	v, ok = s.Get(IDTrue)
	require.True(t, ok, "freeing a singleton must be a no-op")
	assert.Equal(t, true, v)
}

func TestStoreSetSingletonPanicsOnNonSingleton(t *testing.T) {
	s := NewStore()
	assert.Panics(t, func() {
		s.SetSingleton(minID, "nope")
	})
}
