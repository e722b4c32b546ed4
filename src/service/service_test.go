package service

import (
	"testing"
	"time"

	"ember/src/hal"
	"ember/src/kernel"
	"ember/src/prio"
	"ember/src/process"
)

// fakeAgent is a small kernel.Agent double driving a single current
// process at a time, enough to exercise Base's waiter-map bookkeeping
// without a real kernel.
type fakeAgent struct {
	order        prio.Order
	processCount int
	ready        prio.Map
	procs        map[prio.Map]*process.Process
	cur          *process.Process
	schedCalls   int
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{order: prio.LSBFirst, processCount: 4, procs: make(map[prio.Map]*process.Process)}
}

func (a *fakeAgent) addProc(priority int) *process.Process {
	p := process.New(priority, make([]byte, 64), dummyKernelPort{a}, a.order, a.processCount)
	a.procs[p.Tag()] = p
	a.ready |= p.Tag()
	return p
}

func (a *fakeAgent) CurProc() *process.Process                  { return a.cur }
func (a *fakeAgent) HighestPrioTag(m prio.Map) prio.Map          { return prio.HighestTag(m, a.order, a.processCount) }
func (a *fakeAgent) ProcessByTag(tag prio.Map) *process.Process  { return a.procs[tag] }
func (a *fakeAgent) SetReady(tag prio.Map)                       { a.ready |= tag }
func (a *fakeAgent) ClearReady(tag prio.Map)                     { a.ready &^= tag }
func (a *fakeAgent) IsReady(tag prio.Map) bool                   { return a.ready&tag != 0 }
func (a *fakeAgent) Scheduler()                                  { a.schedCalls++ }

// dummyKernelPort lets process.New construct processes without needing a
// real kernel; the fakeAgent methods above are the ones service.Base
// actually exercises.
type dummyKernelPort struct{ a *fakeAgent }

func (d dummyKernelPort) Tag(priority int) prio.Map   { return prio.Tag(priority, d.a.order, d.a.processCount) }
func (d dummyKernelPort) SetReady(tag prio.Map)       { d.a.SetReady(tag) }
func (d dummyKernelPort) ClearReady(tag prio.Map)     { d.a.ClearReady(tag) }
func (d dummyKernelPort) IsReady(tag prio.Map) bool   { return d.a.IsReady(tag) }
func (d dummyKernelPort) Scheduler()                  { d.a.Scheduler() }

func TestSuspendAndResumeNextReady(t *testing.T) {
	a := newFakeAgent()
	base := NewBase(a)

	high := a.addProc(0)
	low := a.addProc(1)

	var waiters prio.Map

	a.cur = high
	base.Suspend(&waiters, "test")
	if a.IsReady(high.Tag()) {
		t.Error("suspended process must not be ready")
	}
	if waiters&high.Tag() == 0 {
		t.Error("expected high's tag in the waiter map")
	}

	a.cur = low
	base.Suspend(&waiters, "test")

	if ok := base.ResumeNextReady(&waiters); !ok {
		t.Fatal("ResumeNextReady on a non-empty waiter map returned false")
	}
	if !a.IsReady(high.Tag()) {
		t.Error("expected the highest-priority waiter (high) to be readied")
	}
	if a.IsReady(low.Tag()) {
		t.Error("expected low to remain blocked after resuming only the highest-priority waiter")
	}
	if waiters&high.Tag() != 0 {
		t.Error("expected high's tag removed from the waiter map")
	}
}

func TestResumeAllEmptyReturnsFalse(t *testing.T) {
	a := newFakeAgent()
	base := NewBase(a)
	var waiters prio.Map
	if base.ResumeAll(&waiters) {
		t.Error("ResumeAll on an empty waiter map must return false")
	}
}

func TestIsTimeoutedClearsOwnBitOnly(t *testing.T) {
	a := newFakeAgent()
	base := NewBase(a)
	p := a.addProc(0)
	a.cur = p

	other := a.addProc(1)

	var waiters prio.Map
	base.Suspend(&waiters, nil)
	waiters |= other.Tag() // another process also blocked on the same map

	if !base.IsTimeouted(&waiters) {
		t.Fatal("expected IsTimeouted true: nothing resumed this waiter")
	}
	if waiters&p.Tag() != 0 {
		t.Error("expected own tag cleared by IsTimeouted")
	}
	if waiters&other.Tag() == 0 {
		t.Error("expected the other waiter's tag left in place by IsTimeouted")
	}
	// Second call after the bit is gone must report false (idempotence,
	// spec.md P7).
	if base.IsTimeouted(&waiters) {
		t.Error("IsTimeouted must not report true twice for the same wake")
	}
}

// TestHostedIntegrationSuspendAndResumeAcrossRealContextSwitch drives Base
// directly against a real kernel over hal.HostedPort: Suspend must
// actually switch away, and ResumeNextReady's wakeup must come from a
// different goroutine genuinely resuming the blocked one, not from
// hand-edited bitmaps.
func TestHostedIntegrationSuspendAndResumeAcrossRealContextSwitch(t *testing.T) {
	port := hal.NewHostedPort()
	k := kernel.New(port, kernel.Config{ProcessCount: 3, Order: prio.LSBFirst})
	base := NewBase(k)

	var waiters prio.Map
	resumed := make(chan struct{}, 1)

	_, err := k.RegisterProcess(0, 256, func() {
		base.Suspend(&waiters, "test")
		if base.IsTimeouted(&waiters) {
			select {}
		}
		resumed <- struct{}{}
		select {}
	}, false, "waiter")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := k.RegisterProcess(1, 256, func() {
		base.ResumeNextReady(&waiters)
		select {}
	}, false, "resumer"); err != nil {
		t.Fatal(err)
	}
	if _, err := k.NewIdleProcess(256); err != nil {
		t.Fatal(err)
	}

	go k.Run()

	select {
	case <-resumed:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never resumed after a real Suspend -> ResumeNextReady across hal.HostedPort")
	}
}
