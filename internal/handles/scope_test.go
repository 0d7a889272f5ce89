package handles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackOpenCloseBalanced(t *testing.T) {
	store := NewStore()
	stack := NewStack(store)

	sc := stack.Open(false)
	assert.Equal(t, 1, stack.Depth())

	id := store.Alloc("v")
	stack.Track(id)

	require.NoError(t, stack.Close(sc))
	assert.Equal(t, 0, stack.Depth())

	_, ok := store.Get(id)
	assert.False(t, ok, "closing a scope must release every handle it tracked")
}

func TestStackCloseOutOfOrderFails(t *testing.T) {
	store := NewStore()
	stack := NewStack(store)

	outer := stack.Open(false)
	inner := stack.Open(false)
	_ = inner

	err := stack.Close(outer)
	assert.ErrorIs(t, err, ErrScopeMismatch)
}

func TestScopeEscapePromotesToParent(t *testing.T) {
	store := NewStore()
	stack := NewStack(store)

	outer := stack.Open(false)
	inner := stack.Open(true)

	id := store.Alloc("escaped")
	stack.Track(id)

	require.NoError(t, inner.Escape(id))
	require.NoError(t, stack.Close(inner))

	// still alive: escape moved ownership to outer
	v, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, "escaped", v)

	require.NoError(t, stack.Close(outer))
	_, ok = store.Get(id)
	assert.False(t, ok, "outer close should now free the escaped handle")
}

func TestScopeEscapeRequiresEscapable(t *testing.T) {
	store := NewStore()
	stack := NewStack(store)
	sc := stack.Open(false)
	id := store.Alloc("v")
	stack.Track(id)

	err := sc.Escape(id)
	assert.ErrorIs(t, err, ErrNotEscapable)
}

func TestScopeEscapeCalledTwice(t *testing.T) {
	store := NewStore()
	stack := NewStack(store)
	sc := stack.Open(true)
	a := store.Alloc("a")
	b := store.Alloc("b")
	stack.Track(a)
	stack.Track(b)

	require.NoError(t, sc.Escape(a))
	err := sc.Escape(b)
	assert.ErrorIs(t, err, ErrEscapeCalledTwice)
}

func TestScopeEscapeForeignHandle(t *testing.T) {
	store := NewStore()
	stack := NewStack(store)
	sc := stack.Open(true)
	foreign := store.Alloc("not owned by sc")

	err := sc.Escape(foreign)
	assert.ErrorIs(t, err, ErrForeignHandle)
}

func TestStackScavengeReportsOnlyStaleScopes(t *testing.T) {
	store := NewStore()
	stack := NewStack(store)

	old := stack.Open(false)
	_ = old

	for i := 0; i < 5; i++ {
		stack.Open(false)
	}

	stale := stack.Scavenge(4)
	require.Len(t, stale, 1)
	assert.Equal(t, 0, stale[0].Depth)
	assert.Equal(t, 5, stale[0].Age)

	assert.Empty(t, stack.Scavenge(10), "nothing should be reported once maxAge exceeds every scope's age")
}

func TestScopePinPreventsRelease(t *testing.T) {
	store := NewStore()
	stack := NewStack(store)
	sc := stack.Open(false)
	id := store.Alloc("pinned")
	stack.Track(id)

	sc.Pin(id)
	require.NoError(t, stack.Close(sc))

	v, ok := store.Get(id)
	require.True(t, ok, "pinned handle must survive scope closure")
	assert.Equal(t, "pinned", v)
}
