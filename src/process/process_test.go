package process

import (
	"testing"

	"ember/src/prio"
)

// fakeKernel is a minimal process.KernelPort double for exercising
// Process in isolation, without a real scheduler.
type fakeKernel struct {
	ready        prio.Map
	order        prio.Order
	processCount int
	schedCalls   int
}

func (f *fakeKernel) Tag(priority int) prio.Map {
	return prio.Tag(priority, f.order, f.processCount)
}
func (f *fakeKernel) SetReady(tag prio.Map)   { f.ready |= tag }
func (f *fakeKernel) ClearReady(tag prio.Map) { f.ready &^= tag }
func (f *fakeKernel) IsReady(tag prio.Map) bool { return f.ready&tag != 0 }
func (f *fakeKernel) Scheduler()              { f.schedCalls++ }

func newTestProcess(t *testing.T, priority int) (*Process, *fakeKernel) {
	t.Helper()
	k := &fakeKernel{processCount: 4, order: prio.LSBFirst}
	p := New(priority, make([]byte, 256), k, k.order, k.processCount)
	k.ready |= p.Tag() // start ready, like a normally-launched process
	return p, k
}

func TestSleepClearsReadyAndSchedules(t *testing.T) {
	p, k := newTestProcess(t, 1)

	p.Sleep(10)

	if p.Timeout() != 10 {
		t.Errorf("Timeout() = %d, want 10", p.Timeout())
	}
	if k.IsReady(p.Tag()) {
		t.Error("expected ready bit cleared after Sleep")
	}
	if k.schedCalls != 1 {
		t.Errorf("scheduler invoked %d times, want 1", k.schedCalls)
	}
	if !p.IsSleeping() {
		t.Error("IsSleeping() = false, want true")
	}
}

func TestWakeUpOnlyAffectsFiniteTimeout(t *testing.T) {
	p, k := newTestProcess(t, 1)

	// Not sleeping: WakeUp is a no-op.
	p.WakeUp()
	if k.schedCalls != 0 {
		t.Errorf("WakeUp on a non-sleeping process invoked the scheduler %d times, want 0", k.schedCalls)
	}

	p.Sleep(5)
	p.WakeUp()
	if p.Timeout() != 0 {
		t.Errorf("Timeout() after WakeUp = %d, want 0", p.Timeout())
	}
	if !k.IsReady(p.Tag()) {
		t.Error("expected ready bit set after WakeUp")
	}
}

func TestForceWakeUpClearsWaiterMap(t *testing.T) {
	p, k := newTestProcess(t, 2)
	waiters := p.Tag() | k.Tag(3)
	p.SetWaitingMap(&waiters)

	p.ForceWakeUp()

	if waiters&p.Tag() != 0 {
		t.Error("expected ForceWakeUp to clear the stale tag from the recorded waiter map")
	}
	if p.WaitingMap() != nil {
		t.Error("expected WaitingMap() to be cleared")
	}
	if !k.IsReady(p.Tag()) {
		t.Error("expected ready bit set after ForceWakeUp")
	}
}

func TestIsSuspended(t *testing.T) {
	p, k := newTestProcess(t, 1)
	if p.IsSuspended() {
		t.Error("a ready process must not report suspended")
	}
	k.ClearReady(p.Tag())
	if !p.IsSuspended() {
		t.Error("a not-ready, not-sleeping process must report suspended")
	}
	p.Sleep(3)
	if p.IsSuspended() {
		t.Error("a sleeping process must not report suspended")
	}
}
