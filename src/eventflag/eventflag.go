// Package eventflag implements the broadcast binary event with a pending
// bit spec.md §4.9 describes, built on service.Base.
package eventflag

import (
	"ember/src/critsec"
	"ember/src/kernel"
	"ember/src/prio"
	"ember/src/service"
)

// Flag is a binary event: signaled or not, with at most one pending
// signal latched between a signal and the next wait.
type Flag struct {
	base    *service.Base
	waiters prio.Map
	value   bool
}

// New constructs a Flag against the given kernel agent.
func New(agent kernel.Agent) *Flag {
	return &Flag{base: service.NewBase(agent)}
}

// Wait blocks until the flag is signaled or timeout ticks elapse. A
// timeout of 0 waits unboundedly. Returns true iff it returned because of
// a signal rather than a timeout.
func (f *Flag) Wait(timeout uint32) bool {
	g := critsec.Enter()
	defer g.Exit()

	if f.value {
		f.value = false
		return true
	}

	self := f.base.CurProc()
	self.SetTimeout(timeout)
	f.base.Suspend(&f.waiters, f)
	if f.base.IsTimeouted(&f.waiters) {
		return false
	}
	self.SetTimeout(0)
	return true
}

// Signal broadcasts to every waiter. If nobody was waiting, the signal
// latches (value becomes on) for exactly one subsequent Wait.
func (f *Flag) Signal() {
	g := critsec.Enter()
	defer g.Exit()

	if f.base.ResumeAll(&f.waiters) {
		f.value = false
	} else {
		f.value = true
	}
}

// SignalISR is the ISR-safe variant of Signal.
func (f *Flag) SignalISR() {
	g := critsec.Enter()
	defer g.Exit()

	if f.base.ResumeAllISR(&f.waiters) {
		f.value = false
	} else {
		f.value = true
	}
}

// Clear forces the flag off without waking anyone.
func (f *Flag) Clear() {
	g := critsec.Enter()
	defer g.Exit()
	f.value = false
}

// IsSignaled reports whether the flag currently has a latched pending signal.
func (f *Flag) IsSignaled() bool {
	g := critsec.Enter()
	defer g.Exit()
	return f.value
}
