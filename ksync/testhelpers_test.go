package ksync

import (
	"testing"

	"github.com/joeycumines/pintos-go/kthread"
	"github.com/stretchr/testify/require"
)

// newDonationScheduler builds a scheduler wired with the package's own
// Donation source, bootstraps the calling goroutine as "main", and installs
// idle — the same two-step Init/Start sequence kthread's own tests use.
func newDonationScheduler(t *testing.T) *kthread.Scheduler {
	t.Helper()
	s := kthread.New(kthread.WithDonationSource(Donation()))
	s.Init("main")
	s.Start()
	return s
}

// pumpUntil repeatedly yields the calling (necessarily current) thread
// until cond reports true, or a generous iteration cap is hit. As in
// kthread's own tests, the caller must be the scheduler's current thread.
func pumpUntil(t *testing.T, s *kthread.Scheduler, cond func() bool) {
	t.Helper()
	for i := 0; i < 10_000; i++ {
		if cond() {
			return
		}
		s.Yield()
	}
	require.True(t, cond(), "pumpUntil: condition never became true")
}
