package kthread

import (
	"github.com/joeycumines/pintos-go/fixedpoint"
	"github.com/joeycumines/pintos-go/klist"
)

// Tick advances the simulated clock by one timer interrupt. It charges the
// running thread a tick of recent_cpu under MLFQ, wakes any sleepers whose
// deadline has arrived, and — once every TimeSlice ticks — recomputes every
// thread's priority from its current recent_cpu and nice (without touching
// recent_cpu or load_avg themselves, which only change on SecondTick) and
// forces a round-robin yield.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	s.tick++
	now := s.tick
	if s.mlfqs && s.current != s.idle {
		s.current.recentCPU = s.current.recentCPU.AddInt(1)
	}
	s.wakeSleepersLocked(now)
	s.threadTicks++
	forceYield := s.threadTicks >= s.timeSlice
	if forceYield {
		s.threadTicks = 0
		if s.mlfqs {
			s.allThreads.Do(func(n *klist.Node) {
				s.mlfqRecomputePriorityLocked(klist.Entry[Thread](n))
			})
		}
	}
	s.mu.Unlock()

	if forceYield {
		s.Yield()
	} else {
		s.Preempt()
	}
}

// SecondTick runs the once-per-second MLFQ recompute:
// load_avg first, then recent_cpu and priority for every thread.
func (s *Scheduler) SecondTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mlfqs {
		return
	}
	ready := s.ready.Len()
	if s.current != nil && s.current != s.idle {
		ready++
	}
	s.loadAvg = fixedpoint.LoadAvg(s.loadAvg, ready)

	s.allThreads.Do(func(n *klist.Node) {
		t := klist.Entry[Thread](n)
		t.recentCPU = fixedpoint.RecentCPU(t.recentCPU, s.loadAvg, t.nice)
		s.mlfqRecomputePriorityLocked(t)
	})
}

func (s *Scheduler) mlfqRecomputePriorityLocked(t *Thread) {
	if !s.mlfqs {
		return
	}
	t.priority = fixedpoint.Priority(t.recentCPU, t.nice, s.priMin, s.priMax)
	t.originalPriority = t.priority
}

// LoadAvg returns the current system load average (MLFQ mode only).
func (s *Scheduler) LoadAvg() fixedpoint.Fixed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAvg
}
