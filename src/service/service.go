// Package service provides the waiter-map manipulation spec.md §4.8
// ("Service base") describes: suspend/resume/resume-one and timeout
// detection, shared by every IPC primitive (eventflag, mutex, message,
// channel). Grounded on Design Note 9's "compose rather than inherit"
// guidance: the teacher repo has no standalone service-base file (its
// joy package inlines waiter bookkeeping per extension instead of
// factoring it out), so Base is the direct Go-idiomatic realization of
// that note rather than a line-level port: free functions over a
// *prio.Map plus a kernel.Agent capability, exactly as the note prescribes.
package service

import (
	"ember/src/critsec"
	"ember/src/kernel"
	"ember/src/prio"
	"ember/src/process"
)

// Base is embedded (by value, as a pointer field) in every concrete
// service. It never holds waiter state itself: each service owns its own
// *prio.Map fields, only the kernel.Agent capability needed to move
// tags between them and ready_map.
type Base struct {
	agent kernel.Agent
}

// NewBase wraps a kernel.Agent for a concrete service to build on.
func NewBase(agent kernel.Agent) *Base {
	return &Base{agent: agent}
}

// CurProc returns the currently executing process, for services that need
// to arm its timeout before suspending (eventflag.Wait, mutex.TryLockTimeout,
// channel.Pop/PopBack/Read).
func (b *Base) CurProc() *process.Process { return b.agent.CurProc() }

// CurProcPrioTag returns the tag of the currently executing process.
func (b *Base) CurProcPrioTag() prio.Map { return b.agent.CurProc().Tag() }

// HighestPrioTag returns the tag of the highest-priority process
// represented in m.
func (b *Base) HighestPrioTag(m prio.Map) prio.Map { return b.agent.HighestPrioTag(m) }

// Suspend inserts the current process into waiters, clears its ready bit,
// records (in ember_debug builds) which service it blocked on, and invokes
// the scheduler. On return the process has been resumed by some means:
// a service resume, a timeout, or ForceWakeUp.
func (b *Base) Suspend(waiters *prio.Map, waitingFor interface{}) {
	g := critsec.Enter()
	defer g.Exit()

	self := b.agent.CurProc()
	tag := self.Tag()
	*waiters |= tag
	b.agent.ClearReady(tag)
	self.SetWaitingMap(waiters)
	self.SetWaitingFor(waitingFor)
	b.agent.Scheduler()
}

// IsTimeouted reports whether the calling process's own tag is still
// present in waiters after resumption; true means resumption was NOT a
// deliberate service resume (it was a timeout or ForceWakeUp), per
// spec.md §4.8. The caller's bit is cleared as a side effect, matching
// "the caller clears its own bit before acting on this result."
func (b *Base) IsTimeouted(waiters *prio.Map) bool {
	self := b.agent.CurProc()
	tag := self.Tag()
	if *waiters&tag == 0 {
		return false
	}
	*waiters &^= tag
	self.SetWaitingMap(nil)
	return true
}

// resumeAll readies every process tagged in waiters and clears waiters.
// Shared by ResumeAll and ResumeAllISR; the caller decides whether to
// invoke the scheduler afterward.
func (b *Base) resumeAll(waiters *prio.Map) bool {
	if *waiters == 0 {
		return false
	}
	m := *waiters
	for m != 0 {
		tag := m & -m // isolate lowest set bit; orientation-agnostic
		b.agent.SetReady(tag)
		if p := b.agent.ProcessByTag(tag); p != nil {
			p.SetWaitingMap(nil)
		}
		m &^= tag
	}
	*waiters = 0
	return true
}

// ResumeAll readies every waiter and invokes the scheduler. Returns false
// if waiters was already empty.
func (b *Base) ResumeAll(waiters *prio.Map) bool {
	g := critsec.Enter()
	defer g.Exit()

	ok := b.resumeAll(waiters)
	if ok {
		b.agent.Scheduler()
	}
	return ok
}

// ResumeAllISR is the _isr variant: same bitmap mutation, but never
// invokes the scheduler directly; the ISR-exit guard does that once the
// outermost handler returns (spec.md §4.6, §4.8).
func (b *Base) ResumeAllISR(waiters *prio.Map) bool {
	return b.resumeAll(waiters)
}

// resumeNextReady readies only the single highest-priority waiter.
func (b *Base) resumeNextReady(waiters *prio.Map) bool {
	if *waiters == 0 {
		return false
	}
	tag := b.agent.HighestPrioTag(*waiters)
	b.agent.SetReady(tag)
	*waiters &^= tag
	if p := b.agent.ProcessByTag(tag); p != nil {
		p.SetWaitingMap(nil)
	}
	return true
}

// ResumeNextReady readies the highest-priority waiter and invokes the
// scheduler. Returns false if waiters was already empty.
func (b *Base) ResumeNextReady(waiters *prio.Map) bool {
	g := critsec.Enter()
	defer g.Exit()

	ok := b.resumeNextReady(waiters)
	if ok {
		b.agent.Scheduler()
	}
	return ok
}

// ResumeNextReadyISR is the _isr variant of ResumeNextReady.
func (b *Base) ResumeNextReadyISR(waiters *prio.Map) bool {
	return b.resumeNextReady(waiters)
}
