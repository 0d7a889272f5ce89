package napihost

import (
	"context"
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/napi-go/napihost/concurrency"
	"github.com/napi-go/napihost/config"
	"github.com/napi-go/napihost/internal/handles"
	"github.com/napi-go/napihost/internal/refs"
	"github.com/napi-go/napihost/logging"
)

// LastError mirrors napi_get_last_error_info's output: the status of the
// most recent entry point that did not return ok, plus an optional
// engine-specific integer and a human message. Valid until the next entry
// point runs (spec.md §7).
type LastError struct {
	Code        Status
	EngineError int32
	Message     string
}

// CleanupHookHandle identifies a registered cleanup hook for later removal,
// standing in for NAPI's (fn pointer, arg pointer) identity pair — Go
// function values aren't comparable, so callers get back an opaque token
// instead.
type CleanupHookHandle uint64

type cleanupHook struct {
	id CleanupHookHandle
	fn func()
}

// Environment is spec.md §4.3's per-add-on state: the handle store and
// scope stack, last-error/pending-exception slots, instance data, the LIFO
// cleanup-hook list, and the host-thread dispatch loop backing thread-safe
// functions and async work.
type Environment struct {
	id  uint32
	cfg *config.Config
	log *logging.Logger

	runtime *goja.Runtime
	store   *handles.Store
	scopes  *handles.Stack
	refs    *refs.Manager
	loop    *concurrency.Loop
	pool    *concurrency.Pool

	lastError LastError

	pendingException   handles.ID
	hasPendingException bool

	instanceData         any
	instanceDataFinalizer func()

	nextCleanupID CleanupHookHandle
	cleanupHooks  []cleanupHook

	mu     sync.Mutex
	closed bool
}

// NewEnvironment constructs a fresh environment with id assigned by a
// Context (or 0 for a standalone environment used outside one). cfg/log may
// be nil, in which case config.Default() / logging.Nop() are used.
func NewEnvironment(id uint32, cfg *config.Config, log *logging.Logger) *Environment {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.Nop()
	}

	rt := goja.New()
	store := handles.NewStore()
	scopes := handles.NewStack(store)

	e := &Environment{
		id:      id,
		cfg:     cfg,
		log:     log,
		runtime: rt,
		store:   store,
		scopes:  scopes,
		loop:    concurrency.NewLoop(log),
	}
	e.refs = refs.NewManager(store, scopes)
	if cfg.AsyncWorkPoolSize > 0 {
		e.pool = concurrency.NewPool(cfg.AsyncWorkPoolSize)
	}

	// The host loop backs every TSFN drain and async-work completion; it
	// must be running from construction onward so a caller that never
	// touches concurrency directly still observes a live environment.
	// Shutdown (via Close) transitions it to StateTerminating, which this
	// goroutine's Run call notices and returns from on its own.
	go func() { _ = e.loop.Run(context.Background()) }()

	store.SetSingleton(handles.IDUndefined, goja.Undefined())
	store.SetSingleton(handles.IDNull, goja.Null())
	store.SetSingleton(handles.IDFalse, rt.ToValue(false))
	store.SetSingleton(handles.IDTrue, rt.ToValue(true))
	store.SetSingleton(handles.IDGlobal, rt.GlobalObject())
	store.SetSingleton(handles.IDEmptyString, rt.ToValue(""))

	return e
}

// ID is this environment's registration id within its owning Context (0 if
// created standalone).
func (e *Environment) ID() uint32 { return e.id }

// Runtime returns the embedded scripting engine every napi_value is backed by.
func (e *Environment) Runtime() *goja.Runtime { return e.runtime }

// Store returns the handle store backing every napi_value this environment hands out.
func (e *Environment) Store() *handles.Store { return e.store }

// Scopes returns the handle-scope stack.
func (e *Environment) Scopes() *handles.Stack { return e.scopes }

// Refs returns the reference/finalizer manager.
func (e *Environment) Refs() *refs.Manager { return e.refs }

// Loop returns the host-thread dispatch loop backing TSFNs and async work.
func (e *Environment) Loop() *concurrency.Loop { return e.loop }

// Pool returns the async-work worker pool, or nil if the environment was
// configured with AsyncWorkPoolSize <= 0 (per-call goroutines only).
func (e *Environment) Pool() *concurrency.Pool { return e.pool }

// Config returns the tunables this environment was constructed with.
func (e *Environment) Config() *config.Config { return e.cfg }

// Log returns the structured logger every component should log through.
func (e *Environment) Log() *logging.Logger { return e.log }

// Closed reports whether Close has already run.
func (e *Environment) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// NewValue stores v in the handle store and tracks it in the innermost open
// scope, returning a fresh Value. Fails with StatusHandleScopeMismatch
// instead of allocating if no scope is open: spec.md §3 and §4.2 require
// every handle-producing operation to find a positive open-scope counter or
// else fail, rather than hand back a handle that belongs to no scope and
// would never be freed.
func (e *Environment) NewValue(v any) (Value, Status) {
	if e.scopes.Depth() == 0 {
		return ValueUndefined, e.Fail(StatusHandleScopeMismatch, "no handle scope is open")
	}
	id := e.store.Alloc(v)
	e.scopes.Track(id)
	return valueOf(id), e.Succeed()
}

// Resolve returns the host value v refers to, and whether it is still live.
func (e *Environment) Resolve(v Value) (any, bool) {
	return e.store.Get(v.id())
}

// CreateReference wraps v in a strong/weak Reference with the given initial
// refcount and optional finalizer. wrapFinalizer marks the reference as
// backing a napi_wrap association (see internal/refs.Reference.Delete).
func (e *Environment) CreateReference(v Value, initialRefcount int, finalize func(), wrapFinalizer bool) *refs.Reference {
	var fin *refs.Finalizer
	if finalize != nil {
		fin = &refs.Finalizer{Run: finalize}
	}
	return e.refs.Create(v.id(), initialRefcount, fin, wrapFinalizer)
}

// ValueFromReference returns the Value a reference targets, for callers
// that only have the *refs.Reference (e.g. after wrapping).
func (e *Environment) ValueFromReference(r *refs.Reference) Value {
	return valueOf(r.ID())
}

// HandleID exposes v's underlying handle.ID to trusted internal callers
// (the abi package's scope operations, which need it to call
// handles.Scope.Escape directly). Not part of the stable public surface.
func (e *Environment) HandleID(v Value) handles.ID {
	return v.id()
}

// OpenScope pushes a new handle scope.
func (e *Environment) OpenScope(escapable bool) *handles.Scope {
	return e.scopes.Open(escapable)
}

// CloseScope pops sc, which must be the innermost open scope; otherwise it
// returns ErrScopeMismatch.
func (e *Environment) CloseScope(sc *handles.Scope) error {
	if err := e.scopes.Close(sc); err != nil {
		return ErrScopeMismatch
	}
	return nil
}

// Scavenge runs the leak-diagnostic sweep SPEC_FULL's data-model supplement
// describes: it logs a warning for every open handle scope older than
// cfg.ScavengeBatchSize generations, without closing or freeing anything.
// Never fails and is not required for correctness — callers that never
// invoke it simply forgo the diagnostic.
func (e *Environment) Scavenge() {
	for _, s := range e.scopes.Scavenge(e.cfg.ScavengeBatchSize) {
		e.log.Warn(logging.CategoryHandleScope).
			Int("depth", s.Depth).
			Int("age", s.Age).
			Log("handle scope outlived scavenge budget without closing")
	}
}

// Fail records status/message into LastError and returns status, the
// standard preamble every ABI entry point that fails follows (spec.md §4.3).
func (e *Environment) Fail(status Status, message string) Status {
	e.lastError = LastError{Code: status, Message: message}
	return status
}

// Succeed clears LastError and returns StatusOK, completing the same preamble.
func (e *Environment) Succeed() Status {
	e.lastError = LastError{}
	return StatusOK
}

// LastErrorInfo returns the most recently recorded LastError.
func (e *Environment) LastErrorInfo() LastError { return e.lastError }

// SetPendingException stores id as the one pending exception, replacing any
// prior one (throw_* overwrites per NAPI's "one slot" model).
func (e *Environment) SetPendingException(id Value) {
	e.pendingException = id.id()
	e.hasPendingException = true
}

// HasPendingException reports whether an exception is currently pending.
func (e *Environment) HasPendingException() bool { return e.hasPendingException }

// GetAndClearPendingException drains the pending-exception slot.
func (e *Environment) GetAndClearPendingException() (Value, bool) {
	if !e.hasPendingException {
		return ValueUndefined, false
	}
	v := valueOf(e.pendingException)
	e.pendingException = 0
	e.hasPendingException = false
	return v, true
}

// SetInstanceData stores data plus its optional finalizer, overwriting any
// previous instance data (its finalizer, if any, is abandoned without
// running — matching real NAPI's set_instance_data semantics).
func (e *Environment) SetInstanceData(data any, finalizer func()) {
	e.instanceData = data
	e.instanceDataFinalizer = finalizer
}

// InstanceData returns the stored instance data, or nil if none was set.
func (e *Environment) InstanceData() any { return e.instanceData }

// AddCleanupHook registers fn to run, in LIFO order among all registered
// hooks, during Close.
func (e *Environment) AddCleanupHook(fn func()) CleanupHookHandle {
	e.nextCleanupID++
	h := e.nextCleanupID
	e.cleanupHooks = append(e.cleanupHooks, cleanupHook{id: h, fn: fn})
	return h
}

// RemoveCleanupHook unregisters a hook added via AddCleanupHook. A no-op if
// the handle is unknown (already removed, or already run).
func (e *Environment) RemoveCleanupHook(h CleanupHookHandle) {
	for i, hk := range e.cleanupHooks {
		if hk.id == h {
			e.cleanupHooks = append(e.cleanupHooks[:i], e.cleanupHooks[i+1:]...)
			return
		}
	}
}

// Close tears the environment down: cleanup hooks run LIFO, every live
// reference's finalizer runs, instance data's finalizer runs, and the host
// loop shuts down. Only the first call does this; every later call does
// nothing and returns ErrEnvClosed.
func (e *Environment) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEnvClosed
	}
	e.closed = true
	hooks := e.cleanupHooks
	e.cleanupHooks = nil
	e.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		e.safeRun(hooks[i].fn)
	}

	e.refs.TeardownAll()

	if e.instanceDataFinalizer != nil {
		fin := e.instanceDataFinalizer
		e.instanceDataFinalizer = nil
		e.safeRun(fin)
	}

	if e.pool != nil {
		e.pool.Close()
	}

	return e.loop.Shutdown(ctx)
}

func (e *Environment) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Err(logging.CategoryEnvironment, fmt.Errorf("%v", r)).Log("cleanup/finalizer panicked during environment teardown")
		}
	}()
	fn()
}
