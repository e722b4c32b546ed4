//go:build !tinygo

// Hosted backend: the mockable platform port spec.md §8 requires for
// property-based testing on a development machine. It simulates a single
// CPU with goroutines handing a baton to each other over unbuffered
// channels, so at most one process's code ever runs unblocked at a time,
// exactly the "parallelism is only apparent" model spec.md §5 describes.
//
// No teacher file is grounded on this one directly (the teacher never runs
// off-target); it exists because spec.md §8 explicitly asks for a mockable
// platform primitive set, and goroutine+channel handoff is the
// standard-library idiom for simulating one cooperative CPU.
package hal

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"ember/src/critsec"
)

func init() {
	critsec.SetBackend(defaultHostedBackend)
}

var defaultHostedBackend = &hostedBackend{enabled: true}

// hostedBackend is a reentrant, cross-goroutine critical-section lock. Real
// hardware reentrancy comes for free (one physical core, masked interrupts
// simply can't interleave); here we must provide it explicitly because the
// hosted port's "interrupt" simulation (system tick, *_isr calls) genuinely
// runs on its own goroutine concurrently with whichever process goroutine
// currently holds the baton.
type hostedBackend struct {
	sem  sync.Mutex // true cross-goroutine mutual exclusion
	meta sync.Mutex // guards the fields below

	enabled  bool
	ownerSet bool
	owner    uint64
	depth    int
}

func (h *hostedBackend) Disable() bool {
	gid := goroutineID()

	h.meta.Lock()
	if h.ownerSet && h.owner == gid {
		h.depth++
		h.meta.Unlock()
		return false // already disabled by this same logical flow
	}
	h.meta.Unlock()

	h.sem.Lock()
	h.meta.Lock()
	wasEnabled := h.enabled
	h.enabled = false
	h.ownerSet = true
	h.owner = gid
	h.depth = 1
	h.meta.Unlock()
	return wasEnabled
}

func (h *hostedBackend) Restore(wasEnabled bool) {
	h.meta.Lock()
	h.depth--
	if h.depth > 0 {
		h.meta.Unlock()
		return
	}
	h.ownerSet = false
	h.enabled = wasEnabled
	h.meta.Unlock()
	h.sem.Unlock()
}

// hostedContextState is the snapshot SwapContext saves and restores: the
// nesting depth, owning goroutine, and saved enable bit a real CPU would
// carry in its status register across a genuine context switch. Without
// this traveling with the process, depth is shared global state instead
// of per-process state: a switch-out from Process.Sleep (depth 1) followed
// by a switch-in that unwinds a depth-2 service call drives depth negative
// and double-unlocks sem.
type hostedContextState struct {
	enabled  bool
	ownerSet bool
	owner    uint64
	depth    int
}

// FreshContext returns the zero state for a process that has never entered
// a critical section: depth 0, no owner.
func (h *hostedBackend) FreshContext() critsec.Context {
	return critsec.NewContext(hostedContextState{enabled: true})
}

// SwapContext installs next's nesting state as live and returns a context
// wrapping whatever was live beforehand, adjusting sem's actual lock state
// to match the transition. Called by hal.HostedPort.ContextSwitch
// immediately before handing the baton to the next process, so each
// process's own mask depth and owner travel with it across the simulated
// switch instead of being clobbered by whichever process happens to run
// next.
func (h *hostedBackend) SwapContext(next critsec.Context) critsec.Context {
	nextState, ok := next.State().(hostedContextState)
	if !ok {
		nextState = hostedContextState{enabled: true}
	}

	h.meta.Lock()
	prevState := hostedContextState{
		enabled:  h.enabled,
		ownerSet: h.ownerSet,
		owner:    h.owner,
		depth:    h.depth,
	}
	h.enabled = nextState.enabled
	h.ownerSet = nextState.ownerSet
	h.owner = nextState.owner
	h.depth = nextState.depth
	h.meta.Unlock()

	switch {
	case prevState.depth > 0 && nextState.depth == 0:
		h.sem.Unlock()
	case prevState.depth == 0 && nextState.depth > 0:
		h.sem.Lock()
	}

	return critsec.NewContext(prevState)
}

var _ critsec.ContextSwapper = (*hostedBackend)(nil)

// goroutineID parses "goroutine NNN [running]:" off the top of a stack
// dump. It is a well-worn trick for building goroutine-aware test
// infrastructure and is confined to this hosted-only file.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, _ := strconv.ParseUint(string(fields[1]), 10, 64)
	return id
}
