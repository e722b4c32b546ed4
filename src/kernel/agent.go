package kernel

import (
	"ember/src/prio"
	"ember/src/process"
)

// Agent is the narrow, documented gateway through which the service
// package's waiter-map operations reach kernel-private state, the
// language-neutral re-architecture of the teacher's friend-class access
// from services into kernel internals (Design Note 9). *Kernel is the
// only implementation; service.Base is given one at construction and
// never gets a second capability beyond what is listed here.
type Agent interface {
	// CurProc returns the process currently executing.
	CurProc() *process.Process
	// HighestPrioTag returns the tag of the highest-priority process
	// represented in m, under this kernel's configured bit orientation.
	HighestPrioTag(m prio.Map) prio.Map
	// ProcessByTag returns the process whose tag is the single set bit
	// in tag, or nil if tag is zero.
	ProcessByTag(tag prio.Map) *process.Process
	SetReady(tag prio.Map)
	ClearReady(tag prio.Map)
	IsReady(tag prio.Map) bool
	// Scheduler invokes the scheduler entry gate (a no-op from ISR
	// context; see critsec.InISR).
	Scheduler()
}

func (k *Kernel) CurProc() *process.Process { return k.processTable[k.curPriority] }

func (k *Kernel) HighestPrioTag(m prio.Map) prio.Map {
	return prio.HighestTag(m, k.config.Order, k.config.ProcessCount)
}

func (k *Kernel) ProcessByTag(tag prio.Map) *process.Process {
	if tag == 0 {
		return nil
	}
	p := prio.Highest(tag, k.config.Order, k.config.ProcessCount)
	return k.GetProc(p)
}

var _ Agent = (*Kernel)(nil)
