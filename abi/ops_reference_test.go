package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napi-go/napihost"
)

func TestReferenceOpsRefUnrefRoundTrip(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	obj, _ := tbl.Object.CreateObject()
	ref, status := tbl.Reference.CreateReference(obj, 1, nil)
	require.Equal(t, napihost.StatusOK, status)

	n, status := tbl.Reference.ReferenceRef(ref)
	require.Equal(t, napihost.StatusOK, status)
	assert.Equal(t, 2, n)

	n, status = tbl.Reference.ReferenceUnref(ref)
	require.Equal(t, napihost.StatusOK, status)
	assert.Equal(t, 1, n)
}

func TestReferenceOpsCreateRejectsNegativeRefcount(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	obj, _ := tbl.Object.CreateObject()
	_, status := tbl.Reference.CreateReference(obj, -1, nil)
	assert.Equal(t, napihost.StatusInvalidArg, status)
}

func TestReferenceOpsGetValueOnWeakReferenceStillLive(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	obj, _ := tbl.Object.CreateObject()
	ref, _ := tbl.Reference.CreateReference(obj, 0, nil)

	v, status := tbl.Reference.GetReferenceValue(ref)
	require.Equal(t, napihost.StatusOK, status)
	assert.NotEqual(t, napihost.ValueUndefined, v, "a weak reference whose target has not been collected yet must still resolve")
}

func TestReferenceOpsGetValueAfterUnrefToZeroCollectsWeak(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	obj, _ := tbl.Object.CreateObject()
	ref, _ := tbl.Reference.CreateReference(obj, 1, nil)

	_, status := tbl.Reference.ReferenceUnref(ref)
	require.Equal(t, napihost.StatusOK, status)

	v, status := tbl.Reference.GetReferenceValue(ref)
	require.Equal(t, napihost.StatusOK, status)
	assert.Equal(t, napihost.ValueUndefined, v, "unref to zero immediately collects a weak reference in this host's approximated GC")
}

func TestReferenceOpsDeleteReference(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	obj, _ := tbl.Object.CreateObject()
	ref, _ := tbl.Reference.CreateReference(obj, 1, nil)

	status := tbl.Reference.DeleteReference(ref)
	require.Equal(t, napihost.StatusOK, status)

	status = tbl.Reference.DeleteReference(ref)
	assert.Equal(t, napihost.StatusInvalidArg, status)
}

func TestReferenceOpsDeleteOfPlainReferenceNeverRunsFinalizer(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	obj, _ := tbl.Object.CreateObject()
	ran := false
	ref, _ := tbl.Reference.CreateReference(obj, 1, func() { ran = true })

	status := tbl.Reference.DeleteReference(ref)
	require.Equal(t, napihost.StatusOK, status)
	assert.False(t, ran, "napi_delete_reference must not run the finalizer for a plain (non-wrap) reference")
}
