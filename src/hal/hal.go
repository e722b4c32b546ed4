// Package hal defines the platform primitives spec.md §6 requires the core
// to consume but never implement itself: starting the first process,
// context-switching between two processes, and initializing a synthetic
// stack frame. Two backends exist: hal/tinygo_*.go (build tag "tinygo")
// wires real ARM assembly through the github.com/tinygo-org/tinygo device
// packages, and hal/hosted_*.go (build tag "!tinygo", the default for the
// stock go compiler) simulates one cooperative CPU with goroutines so the
// kernel, services, and scheduler are fully unit-testable per spec.md §8
// ("mockable platform primitives, single-CPU harness").
package hal

// Port is the platform-specific contract consumed by kernel.Kernel. Its
// seven operations correspond directly to spec.md §6's "Platform primitives
// the core requires": start_first, context_switch, init_stack_frame, and
// the deferred-scheme trap controls.
type Port interface {
	// StartFirst transfers control to the process whose stack pointer is
	// sp. Never returns.
	StartFirst(sp uintptr)

	// ContextSwitch saves the currently running process's callee-preserved
	// state to its own stack, writes the resulting stack pointer into
	// *saveSlot, then restores from newSP and returns into that process.
	ContextSwitch(saveSlot *uintptr, newSP uintptr)

	// InitStackFrame writes a synthetic frame into the region
	// [stackBase, stackTop) such that the first ContextSwitch/StartFirst
	// targeting the returned stack pointer lands in entry with interrupts
	// enabled. entry never receives arguments; processes close over their
	// own state.
	InitStackFrame(stackBase, stackTop uintptr, entry func()) (sp uintptr)

	// RaiseContextSwitch pends the low-priority context-switch trap (the
	// deferred scheme only; direct-scheme ports may no-op).
	RaiseContextSwitch()

	// EnableContextSwitch / DisableContextSwitch gate whether the pended
	// trap can actually fire (deferred scheme only).
	EnableContextSwitch()
	DisableContextSwitch()

	// DummyInstr executes one architectural no-op so a pended interrupt
	// that was just unmasked is actually taken before the instruction
	// after it runs. Used by the deferred scheduler's spin-release loop.
	DummyInstr()
}
