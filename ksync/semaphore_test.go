package ksync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSemaphoreWakesHighestPriorityWaiterFirst(t *testing.T) {
	s := newDonationScheduler(t)
	sema := NewSemaphore(s, 0)

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	mk := func(name string, priority int) {
		// priorities above "main"'s default so each new thread preempts
		// immediately and blocks on the semaphore before Create returns.
		s.Create(name, priority, func(any) {
			sema.Down()
			record(name)
		}, nil)
	}
	mk("low", 40)
	mk("mid", 50)
	mk("high", 60)

	require.Equal(t, 0, sema.Value())

	sema.Up()
	sema.Up()
	sema.Up()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"high", "mid", "low"}, order)
}

func TestSemaphoreTryDown(t *testing.T) {
	s := newDonationScheduler(t)
	sema := NewSemaphore(s, 1)

	require.True(t, sema.TryDown())
	require.False(t, sema.TryDown())

	sema.Up()
	require.True(t, sema.TryDown())
}
