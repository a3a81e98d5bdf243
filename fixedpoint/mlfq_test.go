package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAvgSingleReadyThread(t *testing.T) {
	// load_avg = (59/60)*0 + (1/60)*1 == 1/60
	got := LoadAvg(FromInt(0), 1)
	want := FromInt(1).Div(FromInt(60))
	require.Equal(t, want, got)
}

func TestMLFQStepScenario(t *testing.T) {
	// Single ready thread, nice=0, recent_cpu=0 at t=0, TIMER_FREQ=100.
	// After 100 ticks recent_cpu == 100.0 before the once-per-second
	// recompute runs.
	recentCPU := FromInt(0)
	for i := 0; i < 100; i++ {
		recentCPU = recentCPU.AddInt(1)
	}
	require.Equal(t, 100, recentCPU.Int())

	loadAvg := LoadAvg(FromInt(0), 1)
	recentCPU = RecentCPU(recentCPU, loadAvg, 0)

	priority := Priority(recentCPU, 0, 0, 63)
	require.LessOrEqual(t, priority, 63)
	require.GreaterOrEqual(t, priority, 0)
	// recent_cpu barely decayed after one recompute with a tiny load_avg,
	// so priority should have dropped by roughly recent_cpu/4 == 25.
	require.InDelta(t, 63-25, priority, 2)
}

func TestPriorityClamps(t *testing.T) {
	require.Equal(t, 0, Priority(FromInt(1000), 20, 0, 63))
	require.Equal(t, 63, Priority(FromInt(0).Neg(), -20, 0, 63))
}
