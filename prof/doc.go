// Package prof implements tinyprof, a manual instrumentation profiler for
// named code regions ("gaps").
//
// Callers bracket regions explicitly with Start/Stop. Gaps may nest inside one
// another and may recurse into themselves. A gap can be temporarily suspended
// (Suspend/Resume) to exclude a period from its current invocation without
// counting a second invocation. At the end of a session Terminate computes the
// share of a reference total for every gap, and package report renders the
// result.
//
// # Caller Contract
//
// A Registry has no internal locking. It assumes a single logical call stack:
// one goroutine (or one cooperative execution context) drives
// Start/Stop/Suspend/Resume in strictly nested order. Concurrent use from
// several goroutines must either serialize access externally or use
// disjoint registries. This is a precondition, not something the package
// checks.
//
// All interval operations are O(1), never block and never allocate. The only
// external call they make is the TickSource, which must be non-blocking and
// monotonically non-decreasing for the duration of a session.
//
// # Anomalies
//
// No operation fails. Misuse is recorded as sticky flags: the global
// outer-consistency flag, the global stack underrun flag and a per-gap local
// underrun flag. Depth counters are never clamped, so an unbalanced Stop keeps
// showing up in later arithmetic instead of being silently repaired. Flags are
// cleared only by Init.
//
// # Compiling Out
//
// Building with the notinyprof tag makes Enabled false and New return a
// Noop profiler, so instrumented call sites cost a single interface call.
//
//	go build -tags=notinyprof ./...
package prof
