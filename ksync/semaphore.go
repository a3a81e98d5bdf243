package ksync

import (
	"github.com/joeycumines/pintos-go/klist"
	"github.com/joeycumines/pintos-go/kthread"
)

// Semaphore is a classic counting semaphore: Down blocks
// while the count is zero, Up increments it and wakes the highest-priority
// waiter, if any.
type Semaphore struct {
	sched   *kthread.Scheduler
	value   int
	waiters klist.List
}

// NewSemaphore constructs a Semaphore with the given initial value.
func NewSemaphore(sched *kthread.Scheduler, value int) *Semaphore {
	s := &Semaphore{sched: sched, value: value}
	s.waiters.Init()
	return s
}

// Down waits for the semaphore's value to become positive, then
// decrements it. The calling thread queues at the back of the waiter list;
// Up picks the highest-priority waiter, ties broken FIFO, the same rule the
// scheduler's own ready set uses.
func (s *Semaphore) Down() {
	s.sched.Lock()
	cur := s.sched.Current()
	for s.value == 0 {
		s.waiters.PushBack(cur.WaitNode())
		s.sched.Block()
	}
	s.value--
	s.sched.Unlock()
}

// TryDown decrements the semaphore without blocking if its value is
// already positive, reporting whether it did.
func (s *Semaphore) TryDown() bool {
	s.sched.Lock()
	defer s.sched.Unlock()
	if s.value == 0 {
		return false
	}
	s.value--
	return true
}

// Up increments the semaphore's value and, if any thread is waiting,
// unblocks the highest-priority one. The woken thread still re-checks the
// value in its own Down loop rather than being handed the unit directly,
// keeping the handoff race-free by construction.
func (s *Semaphore) Up() {
	s.sched.Lock()
	s.value++
	var woken *kthread.Thread
	if node := s.waiters.Max(kthread.PriorityLess); node != nil {
		s.waiters.Remove(node)
		woken = klist.Entry[kthread.Thread](node)
		s.sched.UnblockLocked(woken)
	}
	s.sched.Unlock()
	if woken != nil {
		s.sched.Preempt()
	}
}

// Value returns the semaphore's current count, for diagnostics and tests.
func (s *Semaphore) Value() int {
	s.sched.Lock()
	defer s.sched.Unlock()
	return s.value
}
