package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napi-go/napihost/internal/handles"
)

func newManager() (*handles.Store, *handles.Stack, *Manager) {
	store := handles.NewStore()
	stack := handles.NewStack(store)
	mgr := NewManager(store, stack)
	return store, stack, mgr
}

func TestReferenceRefUnrefRoundTrip(t *testing.T) {
	store, _, mgr := newManager()
	id := store.Alloc("target")

	ref := mgr.Create(id, 0, nil, false)
	n, err := ref.Ref()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ref.Ref()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = ref.Unref()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ref.Unref()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReferenceUnrefBelowZeroFails(t *testing.T) {
	store, _, mgr := newManager()
	id := store.Alloc("target")
	ref := mgr.Create(id, 0, nil, false)

	_, err := ref.Unref()
	assert.ErrorIs(t, err, ErrNegativeRefcount)
}

func TestReferenceWeakCollectsOnUnrefToZero(t *testing.T) {
	store, _, mgr := newManager()
	id := store.Alloc("target")
	ref := mgr.Create(id, 1, nil, false)

	_, err := ref.Unref()
	require.NoError(t, err)

	_, ok := store.Get(id)
	assert.False(t, ok, "a weak reference with no other holder collects immediately")
	v, live := ref.Value()
	assert.False(t, live)
	assert.Nil(t, v)
}

func TestReferenceStrongSurvivesScopeClose(t *testing.T) {
	store, stack, mgr := newManager()
	sc := stack.Open(false)
	id := store.Alloc("pinned-by-ref")
	stack.Track(id)

	ref := mgr.Create(id, 1, nil, false)
	require.NoError(t, stack.Close(sc))

	v, ok := store.Get(id)
	require.True(t, ok, "a strong reference must outlive the scope that allocated its target")
	assert.Equal(t, "pinned-by-ref", v)
	_ = ref
}

func TestFinalizerRunsExactlyOnceOnWeakCollection(t *testing.T) {
	store, _, mgr := newManager()
	id := store.Alloc("x")

	var runs int
	fin := &Finalizer{Run: func() { runs++ }}
	ref := mgr.Create(id, 1, fin, false)

	_, err := ref.Unref()
	require.NoError(t, err)
	assert.Equal(t, 1, runs)

	// Deleting an already-finalized (collected) reference must not re-run it.
	require.NoError(t, ref.Delete())
	assert.Equal(t, 1, runs)
}

func TestFinalizerRunsExactlyOnceOnExplicitDeleteOfWrap(t *testing.T) {
	store, _, mgr := newManager()
	id := store.Alloc("wrapped")

	var runs int
	fin := &Finalizer{Run: func() { runs++ }}
	ref := mgr.Create(id, 0, fin, true) // wrap-originated

	require.NoError(t, ref.Delete())
	assert.Equal(t, 1, runs, "deleting a wrap-originated reference must run its finalizer")
}

func TestPlainDeleteNeverRunsFinalizer(t *testing.T) {
	store, _, mgr := newManager()
	id := store.Alloc("plain")

	var runs int
	fin := &Finalizer{Run: func() { runs++ }}
	ref := mgr.Create(id, 0, fin, false) // not wrap-originated

	require.NoError(t, ref.Delete())
	assert.Equal(t, 0, runs, "a plain (non-wrap) reference's Delete must never invoke its finalizer")
}

func TestRemoveWrapNeverRunsFinalizer(t *testing.T) {
	store, _, mgr := newManager()
	id := store.Alloc("wrapped")

	var runs int
	fin := &Finalizer{Run: func() { runs++ }}
	ref := mgr.Create(id, 0, fin, true)

	require.NoError(t, ref.DeleteWithoutFinalizer())
	assert.Equal(t, 0, runs, "napi_remove_wrap's operation must never run the finalizer even for a wrap")
}

func TestDeleteIsNotReentrant(t *testing.T) {
	store, _, mgr := newManager()
	id := store.Alloc("x")
	ref := mgr.Create(id, 0, nil, true)

	require.NoError(t, ref.Delete())
	err := ref.Delete()
	assert.ErrorIs(t, err, ErrDeleted)
}

func TestTeardownAllRunsEveryLiveFinalizer(t *testing.T) {
	store, _, mgr := newManager()
	var runs []int
	for i := 0; i < 3; i++ {
		i := i
		id := store.Alloc(i)
		mgr.Create(id, 1, &Finalizer{Run: func() { runs = append(runs, i) }}, false)
	}

	assert.Equal(t, 3, mgr.LiveCount())
	mgr.TeardownAll()
	assert.Equal(t, []int{2, 1, 0}, runs, "teardown must finalize in LIFO (reverse-creation) order")
	assert.Equal(t, 0, mgr.LiveCount())
}

func TestReentrantFinalizerIsDeferredNotDropped(t *testing.T) {
	store, _, mgr := newManager()
	idA := store.Alloc("a")
	idB := store.Alloc("b")

	var order []string
	refB := mgr.Create(idB, 1, &Finalizer{Run: func() { order = append(order, "b") }}, false)
	refA := mgr.Create(idA, 1, &Finalizer{Run: func() {
		order = append(order, "a-start")
		_, _ = refB.Unref() // reentrant: triggers b's finalizer while a's is running
		order = append(order, "a-end")
	}}, false)

	_, err := refA.Unref()
	require.NoError(t, err)

	assert.Equal(t, []string{"a-start", "a-end", "b"}, order, "a reentrant finalizer call must be deferred until the current drain finishes, not lost")
}
