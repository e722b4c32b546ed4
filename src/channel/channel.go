// Package channel implements Channel[T], the bounded FIFO with separate
// producer and consumer waiter maps spec.md §4.12 describes. Built on
// service.Base and fifo.Ring[T].
//
// Invariants (spec.md §4.12) maintained at every scheduling point:
//   - producers_waiters non-empty ⇒ the ring is full
//   - consumers_waiters non-empty ⇒ the ring is empty
//   - items leave in FIFO order from Pop; LIFO-from-tail with PopBack;
//     PushFront prepends
//
// Every operation body runs under a single critical section for its
// whole duration, including across the re-entry after a wake, so bulk
// Write/Read are atomic with respect to PopBack and any other observer,
// the resolution spec.md §9's second Open Question calls for.
package channel

import (
	"ember/src/critsec"
	"ember/src/fifo"
	"ember/src/kernel"
	"ember/src/kernerr"
	"ember/src/prio"
	"ember/src/service"
)

// Channel is a bounded, typed FIFO coordinating blocked producers and
// consumers via the scheduler.
type Channel[T any] struct {
	base      *service.Base
	ring      fifo.Queue[T]
	producers prio.Map
	consumers prio.Map
}

// New constructs a Channel of the given capacity against the given kernel
// agent, backed by a fifo.Ring[T]. Capacity is fixed for the life of the
// channel; sized once, before Run(), per the Non-goal excluding dynamic
// allocation. Panics with a kernerr.Error if capacity is not positive,
// the same static-configuration-error discipline RegisterProcess applies.
func New[T any](agent kernel.Agent, capacity int) *Channel[T] {
	if capacity <= 0 {
		panic(kernerr.New(kernerr.KernelSubsystem, kernerr.BadCapacity, -1))
	}
	return &Channel[T]{
		base: service.NewBase(agent),
		ring: fifo.NewRing[T](capacity),
	}
}

// Push enqueues item at the tail, blocking unboundedly while the ring is
// full. Loops because a wakeup does not guarantee space: another
// producer may have raced and refilled it first.
func (c *Channel[T]) Push(item T) {
	g := critsec.Enter()
	defer g.Exit()

	for c.ring.Full() {
		c.base.Suspend(&c.producers, c)
	}
	c.ring.Push(item)
	c.base.ResumeNextReady(&c.consumers)
}

// PushFront is Push but inserts at the head.
func (c *Channel[T]) PushFront(item T) {
	g := critsec.Enter()
	defer g.Exit()

	for c.ring.Full() {
		c.base.Suspend(&c.producers, c)
	}
	c.ring.PushFront(item)
	c.base.ResumeNextReady(&c.consumers)
}

// Pop dequeues from the head, blocking until an item is available or
// timeout ticks elapse (0 means unbounded). Returns the zero value and
// false on timeout.
func (c *Channel[T]) Pop(timeout uint32) (T, bool) {
	g := critsec.Enter()
	defer g.Exit()

	self := c.base.CurProc()
	for c.ring.Empty() {
		self.SetTimeout(timeout)
		c.base.Suspend(&c.consumers, c)
		if c.base.IsTimeouted(&c.consumers) {
			var zero T
			return zero, false
		}
		self.SetTimeout(0)
	}
	v, _ := c.ring.Pop()
	c.base.ResumeNextReady(&c.producers)
	return v, true
}

// PopBack is Pop but dequeues from the tail.
func (c *Channel[T]) PopBack(timeout uint32) (T, bool) {
	g := critsec.Enter()
	defer g.Exit()

	self := c.base.CurProc()
	for c.ring.Empty() {
		self.SetTimeout(timeout)
		c.base.Suspend(&c.consumers, c)
		if c.base.IsTimeouted(&c.consumers) {
			var zero T
			return zero, false
		}
		self.SetTimeout(0)
	}
	v, _ := c.ring.PopBack()
	c.base.ResumeNextReady(&c.producers)
	return v, true
}

// Write is a blocking bulk push at the tail: it waits until at least
// len(data) slots are free, then enqueues all of data as a single
// critical-section-protected step before waking consumers.
func (c *Channel[T]) Write(data []T) {
	g := critsec.Enter()
	defer g.Exit()

	need := len(data)
	for c.ring.Free() < need {
		c.base.Suspend(&c.producers, c)
	}
	for _, v := range data {
		c.ring.Push(v)
	}
	c.base.ResumeAll(&c.consumers)
}

// Read is a blocking bulk pop from the head into dst, waiting until
// len(dst) items are available or timeout ticks elapse. Returns the
// number of items copied (len(dst) on success, 0 on timeout) and whether
// it succeeded.
func (c *Channel[T]) Read(dst []T, timeout uint32) (int, bool) {
	g := critsec.Enter()
	defer g.Exit()

	self := c.base.CurProc()
	need := len(dst)
	for c.ring.Count() < need {
		self.SetTimeout(timeout)
		c.base.Suspend(&c.consumers, c)
		if c.base.IsTimeouted(&c.consumers) {
			return 0, false
		}
		self.SetTimeout(0)
	}
	for i := range dst {
		v, _ := c.ring.Pop()
		dst[i] = v
	}
	c.base.ResumeAll(&c.producers)
	return need, true
}

// WriteISR is the non-blocking ISR-safe bulk push: writes
// min(len(data), Free()) items and wakes waiting consumers iff any write
// occurred. Returns the number actually written.
func (c *Channel[T]) WriteISR(data []T) int {
	g := critsec.Enter()
	defer g.Exit()

	n := 0
	for n < len(data) && !c.ring.Full() {
		c.ring.Push(data[n])
		n++
	}
	if n > 0 {
		c.base.ResumeAllISR(&c.consumers)
	}
	return n
}

// ReadISR is the non-blocking ISR-safe bulk pop: reads
// min(len(dst), Count()) items and wakes waiting producers iff any read
// occurred. Returns the number actually read.
func (c *Channel[T]) ReadISR(dst []T) int {
	g := critsec.Enter()
	defer g.Exit()

	n := 0
	for n < len(dst) && !c.ring.Empty() {
		v, _ := c.ring.Pop()
		dst[n] = v
		n++
	}
	if n > 0 {
		c.base.ResumeAllISR(&c.producers)
	}
	return n
}

func (c *Channel[T]) GetCount() int {
	g := critsec.Enter()
	defer g.Exit()
	return c.ring.Count()
}

func (c *Channel[T]) GetFreeSize() int {
	g := critsec.Enter()
	defer g.Exit()
	return c.ring.Free()
}

// Flush discards every queued item, then wakes any blocked producers.
// Flush just created free space, and per spec.md §5 every blocking
// predicate is re-evaluated by the waiter itself on resumption, so this
// is never a spurious wake: a woken producer simply finds room.
func (c *Channel[T]) Flush() {
	g := critsec.Enter()
	defer g.Exit()
	hadItems := c.ring.Count() > 0
	c.ring.Flush()
	if hadItems {
		c.base.ResumeAll(&c.producers)
	}
}
