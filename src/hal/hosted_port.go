//go:build !tinygo

package hal

import (
	"sync"

	"ember/src/critsec"
)

// HostedPort is a Port that simulates context switches with goroutines
// instead of raw stack manipulation. It is the default Port used by every
// package's tests; production bare-metal builds use the tinygo-tagged Port
// instead (hal/tinygo_port.go).
type HostedPort struct {
	mu      sync.Mutex
	nextSP  uintptr
	procs   map[uintptr]*hostedProc
	pending chan func()
}

type hostedProc struct {
	entry   func()
	resume  chan struct{}
	started bool

	// critCtx is this process's own critical-section nesting state,
	// saved by ContextSwitch the instant it switches away and restored
	// the instant it switches back in. Sleep suspends at nesting depth
	// 1 and a service call (Wait/Lock/Pop, Enter plus Base.Suspend's
	// Enter) suspends at depth 2; carrying depth per process instead of
	// sharing one global counter is what keeps those two cases from
	// corrupting each other.
	critCtx critsec.Context
}

// NewHostedPort returns a fresh simulated single-CPU port. Each test gets
// its own instance so runs never interfere with each other.
func NewHostedPort() *HostedPort {
	return &HostedPort{procs: make(map[uintptr]*hostedProc)}
}

func (p *HostedPort) InitStackFrame(_, _ uintptr, entry func()) uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSP++
	sp := p.nextSP
	p.procs[sp] = &hostedProc{entry: entry, resume: make(chan struct{}), critCtx: critsec.FreshContext()}
	return sp
}

// StartFirst launches the first process and then blocks forever, mirroring
// the real start_first primitive, which never returns to its caller.
func (p *HostedPort) StartFirst(sp uintptr) {
	p.handoff(sp)
	select {}
}

func (p *HostedPort) ContextSwitch(saveSlot *uintptr, newSP uintptr) {
	p.mu.Lock()
	cur, ok := p.procs[*saveSlot]
	next, nextOK := p.procs[newSP]
	p.mu.Unlock()
	if !ok {
		panic("hal: ContextSwitch from an unregistered process")
	}
	if !nextOK {
		panic("hal: ContextSwitch to an unregistered process")
	}
	cur.critCtx = critsec.SwapContext(next.critCtx)
	p.handoff(newSP)
	<-cur.resume
}

// handoff passes the baton to the process registered at sp, launching its
// goroutine on first use. It blocks until that goroutine has actually
// received the baton, so at most one process ever runs unblocked.
func (p *HostedPort) handoff(sp uintptr) {
	p.mu.Lock()
	proc, ok := p.procs[sp]
	p.mu.Unlock()
	if !ok {
		panic("hal: handoff to an unregistered process")
	}
	if !proc.started {
		proc.started = true
		go func() {
			<-proc.resume
			proc.entry()
		}()
	}
	proc.resume <- struct{}{}
}

func (p *HostedPort) RaiseContextSwitch()  {}
func (p *HostedPort) EnableContextSwitch() {}
func (p *HostedPort) DisableContextSwitch() {}
func (p *HostedPort) DummyInstr()          {}

var _ Port = (*HostedPort)(nil)
