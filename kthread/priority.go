package kthread

import "github.com/joeycumines/pintos-go/klist"

// SetPriority sets a thread's base priority. No-op under
// MLFQ, where priority is derived from recent_cpu and nice instead. If the
// caller lowered its own effective priority below a now-ready thread, it
// yields.
func (s *Scheduler) SetPriority(t *Thread, priority int) {
	s.mu.Lock()
	if s.mlfqs {
		s.mu.Unlock()
		return
	}
	t.originalPriority = priority
	s.recomputeEffectiveLocked(t)
	self := t == s.current
	s.mu.Unlock()
	if self {
		s.Preempt()
	}
}

// Priority returns a thread's current effective priority.
func (s *Scheduler) Priority(t *Thread) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.priority
}

// recomputeEffectiveLocked sets t.priority to the greater of its own base
// priority and the highest priority donated to it through locks it holds.
// Called with the lock held.
func (s *Scheduler) recomputeEffectiveLocked(t *Thread) {
	p := t.originalPriority
	if s.donation != nil {
		if donated, ok := s.donation.MaxWaiterPriority(t); ok && donated > p {
			p = donated
		}
	}
	t.priority = p
}

// RecomputeEffectivePriority is the ksync-facing entry point for the above,
// used after a lock's waiter set changes (e.g. lock_release) to restore a
// holder's priority once it no longer owns the lock that was inflating it.
func (s *Scheduler) RecomputeEffectivePriority(t *Thread) {
	s.mu.Lock()
	s.recomputeEffectiveLocked(t)
	s.mu.Unlock()
}

// RecomputeEffectivePriorityLocked is RecomputeEffectivePriority for callers
// that already hold the scheduler lock: ksync's lock_release
// runs entirely inside one Lock/Unlock bracket, so it needs the non-locking
// form to avoid re-entering s.mu.
func (s *Scheduler) RecomputeEffectivePriorityLocked(t *Thread) {
	s.recomputeEffectiveLocked(t)
}

// RaiseEffectivePriority sets t's effective priority to p if p is higher
// than its current effective priority, without touching its base priority.
// It reports whether a change was made, so ksync's donation chain (walking
// t.Donee()) knows whether to keep recursing. Used by lock_acquire when a
// waiter's priority exceeds the current holder's.
func (s *Scheduler) RaiseEffectivePriority(t *Thread, p int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raiseEffectivePriorityLocked(t, p)
}

// RaiseEffectivePriorityLocked is RaiseEffectivePriority for callers that
// already hold the scheduler lock — ksync's donation chain walks multiple
// threads' donee links inside one lock_acquire, all under a single bracket.
func (s *Scheduler) RaiseEffectivePriorityLocked(t *Thread, p int) bool {
	return s.raiseEffectivePriorityLocked(t, p)
}

func (s *Scheduler) raiseEffectivePriorityLocked(t *Thread, p int) bool {
	if p <= t.priority {
		return false
	}
	t.priority = p
	return true
}

// PriorityLess orders two klist nodes whose Owner is a *Thread by effective
// priority, ascending. Exported so ksync can pick the highest-priority
// waiter out of a semaphore's or lock's own waiter list with klist.List.Max,
// the same comparator the ready set uses.
func PriorityLess(a, b *klist.Node) bool { return priorityLess(a, b) }

// Nice returns a thread's MLFQ niceness.
func (s *Scheduler) Nice(t *Thread) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.nice
}

// SetNice sets a thread's MLFQ niceness and immediately recomputes its
// priority from it. Yields if the change drops the caller
// below a ready thread.
func (s *Scheduler) SetNice(t *Thread, nice int) {
	s.mu.Lock()
	t.nice = clamp(nice, s.priMinNice(), s.priMaxNice())
	s.mlfqRecomputePriorityLocked(t)
	self := t == s.current
	s.mu.Unlock()
	if self {
		s.Preempt()
	}
}

func (s *Scheduler) priMinNice() int { return -20 }
func (s *Scheduler) priMaxNice() int { return 20 }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
