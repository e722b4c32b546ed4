package kernel

import (
	"ember/src/critsec"
	"ember/src/prio"
)

// Scheduler is the entry gate of spec.md §4.4: if execution is currently
// inside an ISR, do nothing (ISRs must go through the *_isr service
// variants and let the ISR-exit guard schedule when the outermost
// handler returns). Otherwise dispatch to the configured scheme.
func (k *Kernel) Scheduler() {
	if critsec.InISR() {
		return
	}
	k.sched()
}

func (k *Kernel) sched() {
	switch k.config.Scheme {
	case Deferred:
		k.schedDeferred()
	default:
		k.schedDirect()
	}
}

// schedDirect implements spec.md §4.4's direct scheme: switch inline from
// the scheduler call site. Runs with interrupts disabled; every caller
// holds the critical section.
func (k *Kernel) schedDirect() {
	next := prio.Highest(k.readyMap, k.config.Order, k.config.ProcessCount)
	if next == k.curPriority {
		return
	}
	if k.config.ContextSwitchUserHook != nil {
		k.config.ContextSwitchUserHook()
	}
	if k.profiler != nil {
		k.profiler.RecordSwitch(next)
	}
	cur := k.processTable[k.curPriority]
	nextProc := k.processTable[next]
	k.curPriority = next
	k.port.ContextSwitch(cur.StackPointerSlot(), nextProc.StackPointer())
}

// schedDeferred implements spec.md §4.4's deferred scheme: pend the
// context-switch trap, then spin-release until it has actually fired.
// The spin-release loop is the essential part the distilled spec
// emphasizes: a naive enable/nop/disable sequence leaves a window where a
// higher-priority ISR can fire between the enable and the trap, and if
// that ISR's own tail re-disables interrupts before the pended trap is
// taken, the switch is silently lost. Looping on cur_priority==sched_priority
// instead of a fixed instruction count closes that window.
//
// There is no real asynchronous interrupt controller in this Go core
// (§1 scopes per-target assembly for the trap out of the core entirely).
// hal.Port.RaiseContextSwitch/EnableContextSwitch/DisableContextSwitch/
// DummyInstr are called in the documented order and cadence, and trapFire
// plays the role of the assembly trap handler's context_switch_hook,
// invoked synchronously the moment the trap would have been unmasked.
func (k *Kernel) schedDeferred() {
	next := prio.Highest(k.readyMap, k.config.Order, k.config.ProcessCount)
	if next == k.curPriority {
		return
	}
	k.schedPriority = next
	k.port.RaiseContextSwitch()
	for k.curPriority != k.schedPriority {
		k.port.EnableContextSwitch()
		k.port.DummyInstr()
		k.port.DisableContextSwitch()
		k.trapFire()
	}
}

// trapFire performs "cur_priority = sched_priority" atomically with the
// stack-pointer swap, the indivisible action spec.md §4.4 requires of the
// assembly trap handler's context_switch_hook.
func (k *Kernel) trapFire() {
	if k.curPriority == k.schedPriority {
		return
	}
	if k.config.ContextSwitchUserHook != nil {
		k.config.ContextSwitchUserHook()
	}
	if k.profiler != nil {
		k.profiler.RecordSwitch(k.schedPriority)
	}
	cur := k.processTable[k.curPriority]
	next := k.processTable[k.schedPriority]
	k.curPriority = k.schedPriority
	k.port.ContextSwitch(cur.StackPointerSlot(), next.StackPointer())
}

// SchedISR is the ISR-exit guard's onOutermost callback: by the time it
// runs, isr_nest_count has returned to zero, so this is a legitimate
// scheduling point and an ordinary sched() dispatch is exactly "the
// switch happens when the outermost ISR returns" (spec.md §4.4).
func (k *Kernel) SchedISR() { k.sched() }

// SystemTick is the periodic timer handler (spec.md §4.5), wrapped by the
// ISR entry/exit guard. It decrements every non-idle process's timeout
// and readies any that reach zero, then returns; the guard's exit
// invokes SchedISR if this was the outermost interrupt.
func (k *Kernel) SystemTick() {
	g := critsec.Enter()
	defer g.Exit()

	isr := critsec.EnterISR()
	defer isr.Exit(k.SchedISR)

	if k.config.SystemTicksEnable {
		k.tickCount++
	}
	if k.profiler != nil {
		k.profiler.RecordTick(k.curPriority)
	}
	if !k.ticksLocked {
		for i := 0; i < k.config.ProcessCount-1; i++ {
			p := k.processTable[i]
			if p == nil || p.Timeout() == 0 {
				continue
			}
			p.DecrementTimeout()
			if p.Timeout() == 0 {
				k.readyMap |= p.Tag()
			}
		}
	}
	if k.config.SystimerHook != nil {
		k.config.SystimerHook()
	}
}
