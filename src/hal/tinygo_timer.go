//go:build tinygo

// Periodic tick source for bare-metal ARM targets, grounded on
// iansmith-feelings/src/joy/schedule.go's InitSchedulingTimer (which
// programs machine.QA7.LocalTimerControl to raise a timer IRQ at a fixed
// period and routes it into the scheduler on every interrupt).
package hal

import "machine"

// TimerTick is called once per timer period. The caller passes the
// kernel's SystemTick (or a wrapper around it) as this value, so hal never
// imports kernel and stays free of a dependency on the scheduler.
type TimerTick func()

// StartSchedulingTimer programs the ARM local timer for the given period
// (in timer-clock ticks, matching the teacher's raw register units) and
// then polls the timer's pending bit in a loop on the calling goroutine,
// acknowledging it and calling fn each time it is set. It never returns.
func StartSchedulingTimer(periodTicks uint32, fn TimerTick) {
	machine.QA7.LocalTimerControl.Set(0)
	machine.QA7.LocalTimerControl.Set(
		(periodTicks & 0x0fffffff) | (1 << 28) | (1 << 29),
	)
	machine.QA7.LocalTimerIRQ.Set(1 << 31)

	for {
		if machine.QA7.LocalTimerControl.Get()&(1<<31) != 0 {
			machine.QA7.LocalTimerIRQ.Set(1 << 31)
			fn()
		}
		dummyInstr()
	}
}
