// Package profiler implements the profiler extension spec.md §2's
// component table lists (a per-priority accumulator plus normalization)
// but §4 never details: EMBER wires it as an optional kernel hook, invoked
// from SystemTick and from each scheduler transition. It reports through
// trust.Statsf, grounded on the teacher's Statsf(category, ...) convention
// (src/lib/trust/trust.go) for how a named stats line gets emitted.
package profiler

import "ember/src/trust"

// Profiler accumulates ticks-run and switches-in per priority over an
// observation window.
type Profiler struct {
	ticksRun   []uint64
	switchesIn []uint64
	totalTicks uint64
}

// New allocates a Profiler sized for processCount priorities.
func New(processCount int) *Profiler {
	return &Profiler{
		ticksRun:   make([]uint64, processCount),
		switchesIn: make([]uint64, processCount),
	}
}

// RecordTick attributes one system tick to the currently running priority.
// Called once per SystemTick invocation.
func (p *Profiler) RecordTick(curPriority int) {
	if curPriority < 0 || curPriority >= len(p.ticksRun) {
		return
	}
	p.ticksRun[curPriority]++
	p.totalTicks++
}

// RecordSwitch counts one context switch into nextPriority. Called from
// the scheduler's next-process selection.
func (p *Profiler) RecordSwitch(nextPriority int) {
	if nextPriority < 0 || nextPriority >= len(p.switchesIn) {
		return
	}
	p.switchesIn[nextPriority]++
}

// Normalize returns, per priority, the percentage of observed ticks that
// priority was the one running.
func (p *Profiler) Normalize() []float64 {
	out := make([]float64, len(p.ticksRun))
	if p.totalTicks == 0 {
		return out
	}
	for i, ticks := range p.ticksRun {
		out[i] = float64(ticks) / float64(p.totalTicks) * 100
	}
	return out
}

// Reset zeroes every accumulator, starting a fresh observation window.
func (p *Profiler) Reset() {
	for i := range p.ticksRun {
		p.ticksRun[i] = 0
		p.switchesIn[i] = 0
	}
	p.totalTicks = 0
}

// Report emits one trust.Statsf("profiler", ...) line per priority.
func (p *Profiler) Report(logger trust.Logger) {
	if logger == nil {
		logger = trust.Std
	}
	pct := p.Normalize()
	for i, v := range pct {
		logger.Statsf("profiler", "priority %d: %.2f%% of ticks, %d switches-in", i, v, p.switchesIn[i])
	}
}
