// Package critsec provides the kernel's single atomicity primitive: a
// scoped guard that disables interrupts globally on entry and restores the
// previous enable state on exit, plus the ISR entry/exit guard that tracks
// ISR nesting and asks the scheduler to run when the outermost ISR returns.
//
// Grounded on iansmith-feelings/src/lib/upbeat/interrupt_support.go
// (MaskDAIF/UnmaskDAIF) and src/hardware/arm-cortex-a53/interrupts.go. The
// actual mask/unmask instruction is platform-specific and lives in the hal
// backends; this package only holds the nesting discipline.
package critsec

import "sync/atomic"

// Backend is the platform hook a hal backend installs with SetBackend. It
// is the "interrupts disabled" primitive spec.md §4.1 and §6 describe;
// everything else in this package is orientation-independent bookkeeping.
type Backend interface {
	// Disable masks interrupts globally and reports whether they were
	// enabled beforehand.
	Disable() (wasEnabled bool)
	// Restore re-enables interrupts iff wasEnabled is true. Re-disabling
	// (wasEnabled == false) is always a no-op.
	Restore(wasEnabled bool)
}

var backend Backend = &hostedBackend{enabled: true}

// SetBackend installs the platform-specific interrupt mask/unmask pair. Call
// once at program start before any process runs; hal's backends do this
// from their init().
func SetBackend(b Backend) {
	backend = b
}

// Context is an opaque snapshot of a backend's critical-section nesting
// state: everything a real CPU would carry in its status register and that
// a context_switch therefore saves and restores as part of a process's
// register file. Backends that have no such state (the package-level
// hostedBackend default, real interrupt-mask-only ports) can ignore
// SwapContext entirely; only backends with per-process nesting bookkeeping
// (hal's hosted backend) need to implement ContextSwapper.
type Context struct {
	state interface{}
}

// NewContext wraps an arbitrary backend-private snapshot. Only backends
// implementing ContextSwapper should ever construct or unwrap one.
func NewContext(state interface{}) Context { return Context{state: state} }

// State returns the backend-private snapshot wrapped by c.
func (c Context) State() interface{} { return c.state }

// FreshContext returns the zero-valued context for whatever backend is
// currently installed, suitable for a newly registered process that has
// never held a critical section. Backends that don't implement
// ContextSwapper return the zero Context, which SwapContext then ignores.
func FreshContext() Context {
	cs, ok := backend.(ContextSwapper)
	if !ok {
		return Context{}
	}
	return cs.FreshContext()
}

// ContextSwapper is implemented by backends that need the nesting state a
// critical section accumulates (mask depth, owning goroutine) to travel
// with the process across a simulated context switch rather than live in
// one shared, global location. hal's hosted backend is the only such
// backend: two different processes can block at different nesting depths
// (Sleep at depth 1, a service call at depth 2), and unless that depth
// travels with its own process, the goroutine resumed after a switch
// unwinds against whichever depth happens to be sitting in the backend at
// that moment.
type ContextSwapper interface {
	FreshContext() Context
	SwapContext(next Context) (prev Context)
}

// SwapContext installs next as the live critical-section context and
// returns the context that was live beforehand, iff the installed backend
// implements ContextSwapper. It is a no-op returning the zero Context
// otherwise. hal.HostedPort.ContextSwitch calls this immediately before
// handing the baton to the next process, so the outgoing process's nesting
// depth and owner are parked exactly where a real context_switch would
// park the outgoing process's saved status register, and the incoming
// process's are installed in their place.
func SwapContext(next Context) (prev Context) {
	cs, ok := backend.(ContextSwapper)
	if !ok {
		return Context{}
	}
	return cs.SwapContext(next)
}

// Guard is the scoped critical section. Zero value is not meaningful; use
// Enter. Guard is cheap to nest: entering while already inside a section
// just records that interrupts were already disabled, so the matching Exit
// is a no-op restore.
type Guard struct {
	wasEnabled bool
	entered    bool
}

// Enter disables interrupts and returns a Guard whose Exit restores the
// prior state. Caller must call Exit exactly once, typically via defer.
func Enter() Guard {
	return Guard{wasEnabled: backend.Disable(), entered: true}
}

// Exit restores the interrupt-enable state saved by Enter.
func (g Guard) Exit() {
	if !g.entered {
		return
	}
	backend.Restore(g.wasEnabled)
}

var isrNestCount int32

// InISR reports whether execution is currently inside an ISR (possibly
// nested). The kernel's scheduler entry gate uses this to return
// immediately when called from interrupt context (spec.md §4.4).
func InISR() bool {
	return atomic.LoadInt32(&isrNestCount) != 0
}

// ISRGuard is the scoped ISR entry/exit tracker. Its constructor
// (EnterISR) increments the nesting count; Exit decrements it and, only
// when the count returns to zero, invokes onOutermost. The kernel passes
// its own SchedISR here so a deferred context switch runs exactly once,
// when the outermost interrupt handler returns.
type ISRGuard struct{}

// EnterISR increments isr_nest_count. Call at the top of every ISR,
// matching the teacher's MaskDAIF-on-entry discipline but for nesting
// depth rather than the interrupt mask itself.
func EnterISR() ISRGuard {
	atomic.AddInt32(&isrNestCount, 1)
	return ISRGuard{}
}

// Exit decrements isr_nest_count and calls onOutermost iff this was the
// outermost ISR.
func (ISRGuard) Exit(onOutermost func()) {
	if atomic.AddInt32(&isrNestCount, -1) == 0 {
		onOutermost()
	}
}

// hostedBackend is the default backend used before any hal package installs
// a real one. It is a bare bool with no cross-goroutine exclusion; hal's
// hosted backend (hal/hosted_backend.go) replaces it at init with a
// reentrant lock, because the hosted port's simulated interrupts (system
// tick, *_isr calls) run on their own goroutines.
type hostedBackend struct {
	enabled bool
}

func (h *hostedBackend) Disable() bool {
	was := h.enabled
	h.enabled = false
	return was
}

func (h *hostedBackend) Restore(wasEnabled bool) {
	h.enabled = wasEnabled
}
