// Package napihost implements a Node-API (NAPI) v8 host runtime: the part of
// the Node.js engine that a native add-on actually links against. It owns
// every script-visible value an add-on observes, supplies the handle/scope/
// reference engine that governs value lifetime, and drives the callback
// trampoline, threading engine, and error bridge described by the NAPI ABI.
//
// The shared-library loader that resolves an add-on file and calls its
// registration entry point is deliberately not part of this package; see
// cmd/napishim for the C ABI surface a loaded add-on actually imports, and
// cmd/napihostctl for a runnable harness that exercises the table the way a
// loaded add-on would, without requiring a native compiler.
package napihost
