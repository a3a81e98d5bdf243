package kthread

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, opts ...Option) *Scheduler {
	t.Helper()
	s := New(opts...)
	s.Init("main")
	s.Start()
	return s
}

// pumpUntil repeatedly yields the calling (necessarily current) thread
// until cond reports true, or a generous iteration cap is hit. The caller
// must be the scheduler's current thread, e.g. the goroutine that called
// Init — every test in this file drives the scheduler that way, playing
// the role of the bootstrap thread that exists before any other thread
// does.
func pumpUntil(t *testing.T, s *Scheduler, cond func() bool) {
	t.Helper()
	for i := 0; i < 10_000; i++ {
		if cond() {
			return
		}
		s.Yield()
	}
	require.True(t, cond(), "pumpUntil: condition never became true")
}

func TestCreateRunsImmediatelyWhenHigherPriority(t *testing.T) {
	s := newTestScheduler(t)

	var ran bool
	s.Create("high", 50, func(arg any) {
		ran = true
	}, nil)

	require.True(t, ran, "higher-priority thread should run before Create returns")
}

func TestYieldRoundRobinsEqualPriority(t *testing.T) {
	s := newTestScheduler(t)

	var mu sync.Mutex
	var order []string
	var done int

	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		done++
		mu.Unlock()
	}

	s.Create("a", kthreadDefaultPriority(s), func(any) { record("a") }, nil)
	s.Create("b", kthreadDefaultPriority(s), func(any) { record("b") }, nil)

	pumpUntil(t, s, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return done == 2
	})

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"a", "b"}, order)
}

func TestSleepOrdering(t *testing.T) {
	// A huge time slice keeps the test to priority-driven preemption only:
	// the sleepers outrank "main" so each gets to call SleepUntil the
	// instant it's created, and round-robin never has to pick among
	// "main" and an empty ready set (which, with no independent interrupt
	// source, nothing could ever wake).
	s := newTestScheduler(t, WithTimeSlice(1_000_000))

	var mu sync.Mutex
	var wake []string

	mk := func(name string, ticks int64) {
		s.Create(name, 50, func(any) {
			s.SleepUntil(ticks)
			mu.Lock()
			wake = append(wake, name)
			mu.Unlock()
		}, nil)
	}
	mk("s1", 130)
	mk("s2", 120)
	mk("s3", 120)

	for i := int64(0); i < 140; i++ {
		s.Tick()
		mu.Lock()
		n := len(wake)
		mu.Unlock()
		if n == 3 {
			break
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"s2", "s3", "s1"}, wake)
}

func TestSetPriorityYieldsWhenLowered(t *testing.T) {
	s := newTestScheduler(t)

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	// hold the highest priority while queuing both children, so neither
	// runs until the parent explicitly steps aside.
	s.SetPriority(s.Current(), 60)

	s.Create("mid", 40, func(any) {
		record("mid")
	}, nil)

	s.Create("top", 50, func(any) {
		record("top-before")
		s.SetPriority(s.Current(), 10) // below "mid"; must yield now
		record("top-after")
	}, nil)

	s.SetPriority(s.Current(), 5) // below both children; lets "top" run first

	pumpUntil(t, s, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"top-before", "mid", "top-after"}, order)
}

// kthreadDefaultPriority exposes the boot thread's priority for tests that
// want to create threads at the same priority as the scheduler's caller,
// exercising round-robin rather than priority preemption.
func kthreadDefaultPriority(s *Scheduler) int {
	return s.Priority(s.Current())
}
