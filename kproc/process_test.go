package kproc

import (
	"testing"

	"github.com/joeycumines/pintos-go/kthread"
	"github.com/stretchr/testify/require"
)

// TestWaitReturnsChildExitStatus exercises the wait/exit protocol end to
// end: a parent process forks off a child (here, a plain
// Spawn, since fork's FD duplication is covered separately) which exits
// with a specific status, and the parent's Wait call must observe it.
//
// Every thread here runs above the default priority (31) so that, from
// "main"'s perspective, pumpUntil's repeated Yield always lets the
// higher-priority parent/child pair run to completion before main is ever
// rescheduled.
func TestWaitReturnsChildExitStatus(t *testing.T) {
	s, m := newManager(t)

	var status int
	var waitErr error
	var done bool

	m.Spawn("parent", 40, func(p *Process) {
		child := m.Spawn("child", 50, func(c *Process) {
			s.Exit(7)
		})
		status, waitErr = p.Wait(child.Tid())
		done = true
	})

	pumpUntil(t, s, func() bool { return done })
	require.NoError(t, waitErr)
	require.Equal(t, 7, status)
}

// TestWaitOnNonChildFails checks that waiting on a tid which is not a
// direct child reports an error rather than blocking.
func TestWaitOnNonChildFails(t *testing.T) {
	s, m := newManager(t)

	var waitErr error
	var done bool

	m.Spawn("unrelated", 40, func(p *Process) {
		status, err := p.Wait(kthread.TID(999999))
		_ = status
		waitErr = err
		done = true
	})

	pumpUntil(t, s, func() bool { return done })
	require.Error(t, waitErr)
}

// TestWaitTwiceOnSameChildFails checks that a process may wait on a given
// child only once.
func TestWaitTwiceOnSameChildFails(t *testing.T) {
	s, m := newManager(t)

	var firstErr, secondErr error
	var done bool

	m.Spawn("parent", 40, func(p *Process) {
		child := m.Spawn("child", 50, func(c *Process) {
			s.Exit(0)
		})
		_, firstErr = p.Wait(child.Tid())
		_, secondErr = p.Wait(child.Tid())
		done = true
	})

	pumpUntil(t, s, func() bool { return done })
	require.NoError(t, firstErr)
	require.Error(t, secondErr)
}

// TestOrphanedChildDoesNotBlockOnExit checks that a parent exiting before
// its child does signals reap readiness to every child immediately, so the
// child is never left wedged forever waiting to be reaped.
func TestOrphanedChildDoesNotBlockOnExit(t *testing.T) {
	s, m := newManager(t)

	childDone := make(chan struct{})
	var childExited bool

	m.Spawn("parent", 40, func(p *Process) {
		m.Spawn("child", 35, func(c *Process) {
			// Runs after the parent has already exited (lower priority),
			// and must still be able to tear down on its own.
			childExited = true
			close(childDone)
		})
		// parent returns (implicit exit status 0) without ever waiting.
	})

	pumpUntil(t, s, func() bool { return childExited })
	<-childDone
}

// TestForkDuplicatesFDTable checks that fork gives the child its own copy
// of the parent's open files, independent of the parent's table from that
// point on.
func TestForkDuplicatesFDTable(t *testing.T) {
	s, m := newManager(t)

	var childSawHandle bool
	var done bool

	m.Spawn("parent", 40, func(p *Process) {
		f := &fakeFile{name: "shared.txt"}
		fd := p.FDTable.Open(f)

		child, err := p.Fork("child", 50, func(c *Process) {
			e := c.FDTable.Lookup(fd)
			childSawHandle = e != nil && e.Handle() != nil
		})
		require.NoError(t, err)

		_, err = p.Wait(child.Tid())
		require.NoError(t, err)
		done = true
	})

	pumpUntil(t, s, func() bool { return done })
	require.True(t, childSawHandle)
}
