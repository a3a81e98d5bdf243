package ksync

import (
	"github.com/joeycumines/pintos-go/klist"
	"github.com/joeycumines/pintos-go/kthread"
)

// CondVar is a Mesa-style condition variable associated with a Lock: Wait
// atomically releases the lock and blocks, then re-acquires it before
// returning. Its waiter list is guarded by the scheduler's own critical
// section (Scheduler.Lock/Unlock), held only around each list operation;
// the waiter is queued before the caller-supplied Lock is released, so a
// Signal issued under that Lock cannot miss it.
type CondVar struct {
	sched   *kthread.Scheduler
	waiters klist.List
}

// NewCondVar constructs an empty CondVar.
func NewCondVar(sched *kthread.Scheduler) *CondVar {
	c := &CondVar{sched: sched}
	c.waiters.Init()
	return c
}

// Wait releases lock, blocks until signaled, then re-acquires lock before
// returning. The caller must hold lock.
func (c *CondVar) Wait(lock *Lock) {
	sema := NewSemaphore(c.sched, 0)
	node := &klist.Node{Owner: sema}
	c.sched.Lock()
	c.waiters.PushBack(node)
	c.sched.Unlock()

	lock.Release()
	sema.Down()
	lock.Acquire()
}

// Signal wakes one waiting thread, if any, preferring the
// highest-priority waiter. The caller must
// hold the associated lock.
func (c *CondVar) Signal(lock *Lock) {
	c.sched.Lock()
	node := c.waiters.Max(condWaiterPriorityLess)
	if node == nil {
		c.sched.Unlock()
		return
	}
	c.waiters.Remove(node)
	sema := klist.Entry[Semaphore](node)
	c.sched.Unlock()
	sema.Up()
}

// Broadcast wakes every waiting thread. The
// caller must hold the associated lock.
func (c *CondVar) Broadcast(lock *Lock) {
	for {
		c.sched.Lock()
		empty := c.waiters.Empty()
		c.sched.Unlock()
		if empty {
			return
		}
		c.Signal(lock)
	}
}

// condWaiterPriorityLess orders CondVar waiter nodes (each Owner a
// *Semaphore with exactly one, or zero, queued waiter) by the priority of
// the thread blocked on that semaphore. A semaphore with nothing currently
// queued (the signaling thread raced ahead of the waiter reaching Down)
// sorts lowest, so it is never preferred over one with a real waiter.
func condWaiterPriorityLess(a, b *klist.Node) bool {
	pa, oka := condWaiterPriority(a)
	pb, okb := condWaiterPriority(b)
	if !oka {
		return okb
	}
	if !okb {
		return false
	}
	return pa < pb
}

func condWaiterPriority(n *klist.Node) (int, bool) {
	sema := klist.Entry[Semaphore](n)
	node := sema.waiters.Front()
	if node == nil {
		return 0, false
	}
	return klist.Entry[kthread.Thread](node).Priority(), true
}
