package kproc

import (
	"testing"

	"github.com/joeycumines/pintos-go/kthread"
	"github.com/stretchr/testify/require"
)

// newManager builds a scheduler and a Manager bound to it, bootstrapping
// the calling goroutine as "main" the same way kthread's and ksync's own
// tests do.
func newManager(t *testing.T, opts ...Option) (*kthread.Scheduler, *Manager) {
	t.Helper()
	s := kthread.New()
	s.Init("main")
	s.Start()
	return s, NewManager(s, opts...)
}

// pumpUntil repeatedly yields the calling (necessarily current) thread
// until cond reports true, or a generous iteration cap is hit.
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
