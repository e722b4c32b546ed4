// Package message implements Message[T], spec.md §4.11's composition of
// an event flag with a single T payload stored in-place under
// critical-section-protected access.
package message

import (
	"ember/src/critsec"
	"ember/src/kernel"
	"ember/src/prio"
	"ember/src/service"
)

// Message carries at most one pending value of type T between Send and
// the Wait calls it unblocks.
type Message[T any] struct {
	base     *service.Base
	waiters  prio.Map
	nonEmpty bool
	slot     T
}

// New constructs an empty Message[T] against the given kernel agent.
func New[T any](agent kernel.Agent) *Message[T] {
	return &Message[T]{base: service.NewBase(agent)}
}

// Assign copies msg into the internal slot without sending it.
func (m *Message[T]) Assign(msg T) {
	g := critsec.Enter()
	defer g.Exit()
	m.slot = msg
}

// Send wakes every waiter; if nobody was waiting, the message latches
// (non_empty becomes true) for exactly one subsequent Wait.
func (m *Message[T]) Send() {
	g := critsec.Enter()
	defer g.Exit()

	if m.base.ResumeAll(&m.waiters) {
		m.nonEmpty = false
	} else {
		m.nonEmpty = true
	}
}

// SendISR is the ISR-safe variant of Send.
func (m *Message[T]) SendISR() {
	g := critsec.Enter()
	defer g.Exit()

	if m.base.ResumeAllISR(&m.waiters) {
		m.nonEmpty = false
	} else {
		m.nonEmpty = true
	}
}

// Wait blocks until a message has been sent or timeout ticks elapse,
// with event-flag semantics over non_empty. A timeout of 0 waits
// unboundedly.
func (m *Message[T]) Wait(timeout uint32) bool {
	g := critsec.Enter()
	defer g.Exit()

	if m.nonEmpty {
		m.nonEmpty = false
		return true
	}

	self := m.base.CurProc()
	self.SetTimeout(timeout)
	m.base.Suspend(&m.waiters, m)
	if m.base.IsTimeouted(&m.waiters) {
		return false
	}
	self.SetTimeout(0)
	return true
}

// Out copies the slot's current value out to the caller. The slot
// retains its last value between sends.
func (m *Message[T]) Out() T {
	g := critsec.Enter()
	defer g.Exit()
	return m.slot
}

// OutTo copies the slot's current value into *dst.
func (m *Message[T]) OutTo(dst *T) {
	g := critsec.Enter()
	defer g.Exit()
	*dst = m.slot
}
