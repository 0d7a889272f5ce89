package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napi-go/napihost"
)

func TestScopeOpsOpenCloseBalanced(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	sc, status := tbl.Scope.OpenHandleScope()
	require.Equal(t, napihost.StatusOK, status)

	status = tbl.Scope.CloseHandleScope(sc)
	assert.Equal(t, napihost.StatusOK, status)
}

func TestScopeOpsCloseOutOfOrderFails(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	outer, _ := tbl.Scope.OpenHandleScope()
	_, _ = tbl.Scope.OpenHandleScope()

	status := tbl.Scope.CloseHandleScope(outer)
	assert.Equal(t, napihost.StatusHandleScopeMismatch, status)
}

func TestScopeOpsEscapeHandlePromotesToParent(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	sc, status := tbl.Scope.OpenEscapableHandleScope()
	require.Equal(t, napihost.StatusOK, status)

	v, _ := tbl.Value.CreateDouble(9)
	escaped, status := tbl.Scope.EscapeHandle(sc, v)
	require.Equal(t, napihost.StatusOK, status)
	assert.Equal(t, v, escaped)

	status = tbl.Scope.CloseHandleScope(sc)
	require.Equal(t, napihost.StatusOK, status)

	f, status := tbl.Value.GetValueDouble(escaped)
	require.Equal(t, napihost.StatusOK, status)
	assert.Equal(t, 9.0, f)
}

func TestScopeOpsEscapeCalledTwiceFails(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	sc, _ := tbl.Scope.OpenEscapableHandleScope()
	v, _ := tbl.Value.CreateDouble(1)

	_, status := tbl.Scope.EscapeHandle(sc, v)
	require.Equal(t, napihost.StatusOK, status)

	_, status = tbl.Scope.EscapeHandle(sc, v)
	assert.Equal(t, napihost.StatusEscapeCalledTwice, status)
}
