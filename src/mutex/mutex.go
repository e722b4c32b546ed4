// Package mutex implements the ownership-tagged binary lock spec.md
// §4.10 describes, built on service.Base. No priority inheritance;
// deadlock is the caller's responsibility, per spec.md §4.10 and the
// Non-goals list.
package mutex

import (
	"ember/src/critsec"
	"ember/src/kernel"
	"ember/src/prio"
	"ember/src/service"
)

// Mutex is a binary lock owned by at most one process at a time.
type Mutex struct {
	base     *service.Base
	waiters  prio.Map
	ownerTag prio.Map
}

// New constructs an unlocked Mutex against the given kernel agent.
func New(agent kernel.Agent) *Mutex {
	return &Mutex{base: service.NewBase(agent)}
}

// Lock blocks until the mutex is owned by the calling process.
func (m *Mutex) Lock() {
	g := critsec.Enter()
	defer g.Exit()

	if m.ownerTag == 0 {
		m.ownerTag = m.base.CurProcPrioTag()
		return
	}
	m.base.Suspend(&m.waiters, m)
	// Whatever caused this process to resume, Unlock's resume_next_ready
	// chose it as the new owner directly; there is no race with a newer
	// Lock() call for the same reason unlock() only ever picks one waiter.
	m.ownerTag = m.base.CurProcPrioTag()
}

// TryLock acquires the mutex only if it is currently unlocked.
func (m *Mutex) TryLock() bool {
	g := critsec.Enter()
	defer g.Exit()

	if m.ownerTag != 0 {
		return false
	}
	m.ownerTag = m.base.CurProcPrioTag()
	return true
}

// TryLockTimeout is Lock bounded by timeout ticks. On timeout the calling
// process was never chosen by an unlocker, so it returns false and does
// not own the mutex.
func (m *Mutex) TryLockTimeout(timeout uint32) bool {
	g := critsec.Enter()
	defer g.Exit()

	if m.ownerTag == 0 {
		m.ownerTag = m.base.CurProcPrioTag()
		return true
	}

	self := m.base.CurProc()
	self.SetTimeout(timeout)
	m.base.Suspend(&m.waiters, m)
	if m.base.IsTimeouted(&m.waiters) {
		return false
	}
	self.SetTimeout(0)
	m.ownerTag = m.base.CurProcPrioTag()
	return true
}

// Unlock releases the mutex. Only the current owner may unlock; any other
// caller is a documented misuse and is silently ignored. The chosen
// waiter (by strict priority) becomes the new owner once it resumes.
func (m *Mutex) Unlock() {
	g := critsec.Enter()
	defer g.Exit()

	if m.ownerTag != m.base.CurProcPrioTag() {
		return
	}
	m.ownerTag = 0
	m.base.ResumeNextReady(&m.waiters)
}

// UnlockISR is the ISR-safe variant of Unlock.
func (m *Mutex) UnlockISR() {
	g := critsec.Enter()
	defer g.Exit()

	if m.ownerTag != m.base.CurProcPrioTag() {
		return
	}
	m.ownerTag = 0
	m.base.ResumeNextReadyISR(&m.waiters)
}

// IsLocked reports whether the mutex is currently owned.
func (m *Mutex) IsLocked() bool {
	g := critsec.Enter()
	defer g.Exit()
	return m.ownerTag != 0
}
