package mutex

import (
	"testing"
	"time"

	"ember/src/hal"
	"ember/src/kernel"
	"ember/src/prio"
	"ember/src/process"
)

// testAgent is a single-goroutine kernel.Agent double: resumption is
// synchronous bitmap bookkeeping, sufficient for exercising Mutex's
// ownership-transfer logic without a real scheduler thread.
type testAgent struct {
	order        prio.Order
	processCount int
	ready        prio.Map
	procs        map[prio.Map]*process.Process
	cur          *process.Process
}

func newTestAgent() *testAgent {
	return &testAgent{order: prio.LSBFirst, processCount: 4, procs: make(map[prio.Map]*process.Process)}
}

func (a *testAgent) addProc(priority int) *process.Process {
	p := process.New(priority, make([]byte, 64), kernelPortAdapter{a}, a.order, a.processCount)
	a.procs[p.Tag()] = p
	a.ready |= p.Tag()
	return p
}

func (a *testAgent) CurProc() *process.Process                 { return a.cur }
func (a *testAgent) HighestPrioTag(m prio.Map) prio.Map         { return prio.HighestTag(m, a.order, a.processCount) }
func (a *testAgent) ProcessByTag(tag prio.Map) *process.Process { return a.procs[tag] }
func (a *testAgent) SetReady(tag prio.Map)                      { a.ready |= tag }
func (a *testAgent) ClearReady(tag prio.Map)                    { a.ready &^= tag }
func (a *testAgent) IsReady(tag prio.Map) bool                  { return a.ready&tag != 0 }
func (a *testAgent) Scheduler()                                 {}

type kernelPortAdapter struct{ a *testAgent }

func (k kernelPortAdapter) Tag(priority int) prio.Map { return prio.Tag(priority, k.a.order, k.a.processCount) }
func (k kernelPortAdapter) SetReady(tag prio.Map)     { k.a.SetReady(tag) }
func (k kernelPortAdapter) ClearReady(tag prio.Map)   { k.a.ClearReady(tag) }
func (k kernelPortAdapter) IsReady(tag prio.Map) bool { return k.a.IsReady(tag) }
func (k kernelPortAdapter) Scheduler()                {}

func TestTryLockAndUnlock(t *testing.T) {
	a := newTestAgent()
	owner := a.addProc(0)
	a.cur = owner
	m := New(a)

	if m.IsLocked() {
		t.Fatal("new mutex must start unlocked")
	}
	if !m.TryLock() {
		t.Fatal("TryLock on an unlocked mutex must succeed")
	}
	if !m.IsLocked() {
		t.Error("expected IsLocked true after TryLock")
	}

	other := a.addProc(1)
	a.cur = other
	if m.TryLock() {
		t.Error("TryLock must fail while another process owns the mutex")
	}

	a.cur = owner
	m.Unlock()
	if m.IsLocked() {
		t.Error("expected unlocked after Unlock with no waiters")
	}
}

func TestUnlockTransfersOwnershipToWaiter(t *testing.T) {
	a := newTestAgent()
	owner := a.addProc(1) // lower priority number == higher priority, LSBFirst order irrelevant here
	waiter := a.addProc(0)

	m := New(a)
	a.cur = owner
	m.TryLock()

	// Simulate waiter having already blocked in Lock().
	a.cur = waiter
	a.ClearReady(waiter.Tag())
	m.waiters |= waiter.Tag()
	waiter.SetWaitingMap(&m.waiters)

	a.cur = owner
	m.Unlock()

	if m.ownerTag != 0 {
		t.Error("expected owner cleared to 0 immediately by Unlock, before the waiter resumes")
	}
	if !a.IsReady(waiter.Tag()) {
		t.Error("expected waiter readied by Unlock")
	}
	if m.waiters&waiter.Tag() != 0 {
		t.Error("expected waiter's tag removed from the wait map")
	}
}

func TestUnlockByNonOwnerIsIgnored(t *testing.T) {
	a := newTestAgent()
	owner := a.addProc(0)
	intruder := a.addProc(1)

	m := New(a)
	a.cur = owner
	m.TryLock()

	a.cur = intruder
	m.Unlock()

	if !m.IsLocked() {
		t.Error("Unlock called by a non-owner must be a no-op")
	}
}

// TestHostedIntegrationUnlockTransfersOwnershipAcrossRealBlock drives
// Mutex through a real kernel over hal.HostedPort: the owner suspends at
// critical-section nesting depth 1 (Sleep) and the waiter blocks in
// Lock() at depth 2 (Suspend nested inside Lock's own critical section),
// the exact mixed-depth scenario a shared, unsaved nesting counter
// corrupts. Wiring ownership transfer through a real Suspend/Unlock round
// trip catches a Suspend that never actually switched.
func TestHostedIntegrationUnlockTransfersOwnershipAcrossRealBlock(t *testing.T) {
	port := hal.NewHostedPort()
	k := kernel.New(port, kernel.Config{ProcessCount: 3, Order: prio.LSBFirst, SystemTicksEnable: true})
	m := New(k)

	var owner *process.Process
	ownerEntry := func() {
		m.Lock()       // uncontended: succeeds immediately
		owner.Sleep(2) // yield long enough for the waiter to block on Lock
		m.Unlock()
		owner.Sleep(0) // yield the baton so the newly-readied waiter actually runs
		select {}
	}
	var err error
	owner, err = k.RegisterProcess(0, 256, ownerEntry, false, "owner")
	if err != nil {
		t.Fatal(err)
	}

	acquired := make(chan struct{}, 1)
	if _, err := k.RegisterProcess(1, 256, func() {
		m.Lock() // must actually block: owner holds it
		acquired <- struct{}{}
		select {}
	}, false, "waiter"); err != nil {
		t.Fatal(err)
	}
	if _, err := k.NewIdleProcess(256); err != nil {
		t.Fatal(err)
	}

	go func() {
		for {
			time.Sleep(time.Millisecond)
			k.SystemTick()
		}
	}()
	go k.Run()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the mutex after a real Suspend -> Unlock ownership transfer")
	}
}
