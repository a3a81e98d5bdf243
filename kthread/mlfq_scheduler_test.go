package kthread

import (
	"testing"

	"github.com/joeycumines/pintos-go/fixedpoint"
	"github.com/stretchr/testify/require"
)

// TestTickRecomputesPriorityAtTimeSliceBoundaryUnderMLFQS checks the cadence
// spec.md §4.5 calls for in addition to the once-per-second load_avg/
// recent_cpu/priority pass: every timer tick that lands on a time-slice
// boundary must recompute every thread's priority from its current
// recent_cpu and nice, without waiting for SecondTick. A thread's
// recent_cpu is set directly (this test lives in package kthread, so it can
// reach the unexported field) rather than accumulated via Tick, isolating
// the assertion to the recompute cadence itself.
func TestTickRecomputesPriorityAtTimeSliceBoundaryUnderMLFQS(t *testing.T) {
	s := New(WithMLFQS(true), WithTimeSlice(3))
	s.Init("main")
	s.Start()

	worker := s.Create("worker", kthreadDefaultPriority(s), func(any) {}, nil)
	before := s.Priority(worker)

	worker.recentCPU = fixedpoint.FromInt(200)

	// Still within the time slice: no recompute should have happened yet.
	s.Tick()
	s.Tick()
	require.Equal(t, before, s.Priority(worker), "priority must not change before the time-slice boundary")

	// The third tick lands on the boundary (WithTimeSlice(3)) and must
	// recompute priority for every thread, worker included, even though
	// worker never ran and is not the caller's thread.
	s.Tick()
	require.Less(t, s.Priority(worker), before, "priority must be recomputed at the time-slice boundary, not just once per second")
}

// TestSecondTickStillRecomputesLoadAvgAndRecentCPU guards the existing
// once-per-second cadence against regressing while the time-slice-boundary
// recompute above was added: SecondTick must still advance recent_cpu (via
// load_avg) for a thread that accumulated CPU time, independent of any
// time-slice-boundary recompute.
func TestSecondTickStillRecomputesLoadAvgAndRecentCPU(t *testing.T) {
	s := New(WithMLFQS(true), WithTimeSlice(1_000_000))
	s.Init("main")
	s.Start()

	worker := s.Create("worker", kthreadDefaultPriority(s), func(any) {}, nil)
	worker.recentCPU = fixedpoint.FromInt(100)
	beforeRecentCPU := worker.recentCPU

	s.SecondTick()

	require.NotEqual(t, beforeRecentCPU, worker.recentCPU, "SecondTick must still recompute recent_cpu for every thread")
}
