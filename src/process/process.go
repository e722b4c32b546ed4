// Package process implements the base process (execution context) that the
// scheduler dispatches: stack ownership, priority, timeout, and the
// sleep/wake primitives spec.md §4.3 describes. It is grounded on
// iansmith-feelings/src/joy/family.go's familyState/family, restructured
// from the teacher's decaying-counter fields (counter, flags, preemptCount
// used for fork bookkeeping) down to the strict-priority fields this kernel
// needs.
package process

import (
	"ember/src/critsec"
	"ember/src/prio"
)

// KernelPort is the narrow surface a Process needs from the kernel to
// implement sleep/wake without importing the kernel package back (the
// kernel imports process, not the reverse), the same "compose rather than
// inherit" shape as the service package's kernel.Agent.
type KernelPort interface {
	Tag(priority int) prio.Map
	SetReady(tag prio.Map)
	ClearReady(tag prio.Map)
	IsReady(tag prio.Map) bool
	Scheduler()
}

// Process is one statically configured execution context.
type Process struct {
	priority     int
	tag          prio.Map
	stackRegion  []byte
	stackPointer uintptr
	timeout      uint32
	preemptCount int64
	kernel       KernelPort

	// WaitingFor is the service the process is blocked on, recorded only
	// when built with ember_debug; nil otherwise. Exposed read-only via
	// WaitingFor() so debug tooling in other packages can inspect it.
	waitingFor interface{}

	// waitingMap is the back-pointer to the waiter map this process was
	// most recently inserted into. Used by Terminate (ember_restart builds)
	// to remove a stale membership; maintained unconditionally per
	// DESIGN.md's force_wake_up Open Question resolution.
	waitingMap *prio.Map

	name  string
	entry func()
}

// New constructs a process at the given priority, owning stackRegion for
// the rest of the program's life. The kernel finishes construction by
// calling SetStackPointer once the platform port has written the initial
// stack frame.
func New(priority int, stackRegion []byte, kernel KernelPort, order prio.Order, processCount int) *Process {
	return &Process{
		priority:    priority,
		tag:         prio.Tag(priority, order, processCount),
		stackRegion: stackRegion,
		kernel:      kernel,
	}
}

// SetName attaches a debug name. The name is stored and returned by Name()
// on every build, debug or not, matching the teacher's Id field being
// present regardless of DEBUG_ENABLE.
func (p *Process) SetName(name string) { p.name = name }

// SetEntry records the user entry function. Read only by Terminate on
// ember_restart builds, but always settable so RegisterProcess can store it
// unconditionally regardless of build tags.
func (p *Process) SetEntry(entry func()) { p.entry = entry }

func (p *Process) Name() string { return p.name }

func (p *Process) Priority() int { return p.priority }

func (p *Process) Tag() prio.Map { return p.tag }

// StackPointerSlot exposes &p.stackPointer for the scheduler's
// context_switch(save_slot, new_sp) call. Only the kernel's scheduler and
// the platform port may dereference it.
func (p *Process) StackPointerSlot() *uintptr { return &p.stackPointer }

func (p *Process) StackPointer() uintptr { return p.stackPointer }

// SetStackPointer is called once by the kernel at registration time, after
// hal.Port.InitStackFrame has written the synthetic entry frame.
func (p *Process) SetStackPointer(sp uintptr) { p.stackPointer = sp }

func (p *Process) StackRegion() []byte { return p.stackRegion }

func (p *Process) Timeout() uint32 { return p.timeout }

// SetTimeout is used directly by the service packages (eventflag, mutex,
// message, channel) to arm a bounded wait before calling Suspend. spec.md
// §4.9-§4.12 describe each service setting cur_proc.timeout itself rather
// than going through Sleep.
func (p *Process) SetTimeout(t uint32) { p.timeout = t }

// DecrementTimeout is called once per process per system tick. The caller
// (kernel.Kernel.SystemTick) is responsible for readying the process when
// this brings timeout to zero.
func (p *Process) DecrementTimeout() {
	if p.timeout > 0 {
		p.timeout--
	}
}

// SetWaitingMap records the waiter map this process was just inserted
// into, or clears it (pass nil) on removal. Called by the service package.
func (p *Process) SetWaitingMap(m *prio.Map) { p.waitingMap = m }

func (p *Process) WaitingMap() *prio.Map { return p.waitingMap }

func (p *Process) WaitingFor() interface{} { return p.waitingFor }

// ProhibitPreemption and PermitPreemption increment and decrement a
// per-process counter, read back by PreemptCount, grounded on the teacher's
// prohibitPreemption/permitPreemption pair (family.go). Nothing else reads
// the counter; the profiler does not use it. They do not disable interrupts
// or affect scheduling; the critical section guard remains the only thing
// that does.
func (p *Process) ProhibitPreemption() { p.preemptCount++ }
func (p *Process) PermitPreemption()   { p.preemptCount-- }
func (p *Process) PreemptCount() int64 { return p.preemptCount }

// Sleep suspends the currently executing process for timeout ticks.
// Must be called by the process on itself; the caller holds no critical
// section (Sleep acquires its own, per spec.md §4.3).
func (p *Process) Sleep(timeout uint32) {
	g := critsec.Enter()
	defer g.Exit()

	p.timeout = timeout
	p.kernel.ClearReady(p.tag)
	p.kernel.Scheduler()
}

// WakeUp readies p only if it is currently blocked with a finite timeout
// (sleeping, or waiting-with-timeout on a service). Has no effect on a
// process blocked unconditionally or already ready.
func (p *Process) WakeUp() {
	g := critsec.Enter()
	defer g.Exit()

	if p.timeout == 0 {
		return
	}
	p.timeout = 0
	p.kernel.SetReady(p.tag)
	p.kernel.Scheduler()
}

// ForceWakeUp unconditionally readies p and clears any waiter-map
// membership. It bypasses whatever service invariant p was blocked on and
// is documented in spec.md §5 as dangerous; callers must know p is not
// mid-protocol in a service that depends on its absence from ready_map.
func (p *Process) ForceWakeUp() {
	g := critsec.Enter()
	defer g.Exit()

	p.timeout = 0
	if p.waitingMap != nil {
		*p.waitingMap &^= p.tag
		p.waitingMap = nil
	}
	p.kernel.SetReady(p.tag)
	p.kernel.Scheduler()
}

// Start is ForceWakeUp under another name, used to launch a process
// declared with a start-suspended flag.
func (p *Process) Start() { p.ForceWakeUp() }

func (p *Process) IsSleeping() bool { return p.timeout > 0 }

// IsSuspended reports whether p is neither ready nor sleeping: blocked
// unconditionally on a service with no timeout.
func (p *Process) IsSuspended() bool {
	return p.timeout == 0 && !p.kernel.IsReady(p.tag)
}
