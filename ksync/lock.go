package ksync

import (
	"github.com/joeycumines/pintos-go/kerrors"
	"github.com/joeycumines/pintos-go/klist"
	"github.com/joeycumines/pintos-go/kthread"
)

// Lock is a mutual-exclusion lock with priority donation:
// acquiring a held lock donates the waiter's priority to the holder, and
// transitively to whatever the holder is itself waiting on, so a
// high-priority thread is never stuck behind a low-priority one holding a
// lock it needs — the classic priority-inversion fix.
type Lock struct {
	sched   *kthread.Scheduler
	holder  *kthread.Thread
	waiters klist.List
	node    klist.Node // linked into holder.OwnedLocks() while held; Owner = this Lock
}

// NewLock constructs an unheld Lock.
func NewLock(sched *kthread.Scheduler) *Lock {
	l := &Lock{sched: sched}
	l.waiters.Init()
	l.node.Owner = l
	return l
}

// maxWaiterPriority reports the highest priority among threads waiting on
// this lock, read by the package-level DonationSource when walking a
// thread's OwnedLocks. Called with the scheduler lock already held.
func (l *Lock) maxWaiterPriority() (int, bool) {
	node := l.waiters.Max(kthread.PriorityLess)
	if node == nil {
		return 0, false
	}
	return klist.Entry[kthread.Thread](node).Priority(), true
}

// Acquire blocks until the lock is free, then takes it. While waiting, it donates the caller's priority up the
// chain of locks its eventual holder is itself blocked on.
func (l *Lock) Acquire() {
	l.sched.Lock()
	cur := l.sched.Current()
	for l.holder != nil {
		l.donateLocked(cur)
		cur.SetDonee(l.holder)
		l.waiters.PushBack(cur.WaitNode())
		l.sched.Block()
		cur.SetDonee(nil)
	}
	l.holder = cur
	cur.OwnedLocks().PushBack(&l.node)
	l.sched.Unlock()
}

// donateLocked walks the chain of threads cur is (transitively) waiting on
// through held locks, raising each one's effective priority to cur's if
// doing so would help, and stopping as soon as a link is already high
// enough or has no further donee. Called with the
// scheduler lock held.
func (l *Lock) donateLocked(cur *kthread.Thread) {
	donee := l.holder
	for donee != nil {
		if !l.sched.RaiseEffectivePriorityLocked(donee, cur.Priority()) {
			return
		}
		donee = donee.Donee()
	}
}

// TryAcquire takes the lock without blocking if it is free, reporting
// whether it did. No donation is possible
// on this path since the caller never waits.
func (l *Lock) TryAcquire() bool {
	l.sched.Lock()
	defer l.sched.Unlock()
	if l.holder != nil {
		return false
	}
	cur := l.sched.Current()
	l.holder = cur
	cur.OwnedLocks().PushBack(&l.node)
	return true
}

// Release gives up the lock, restores the caller's priority to whatever it
// would be without the donation this lock was attracting, and wakes the
// highest-priority waiter, if any.
func (l *Lock) Release() {
	l.sched.Lock()
	cur := l.sched.Current()
	if l.holder != cur {
		l.sched.Unlock()
		kerrors.Fatal("lock: release by %q, which does not hold it", cur.Name)
	}
	cur.OwnedLocks().Remove(&l.node)
	l.holder = nil
	l.sched.RecomputeEffectivePriorityLocked(cur)
	var woken *kthread.Thread
	if node := l.waiters.Max(kthread.PriorityLess); node != nil {
		l.waiters.Remove(node)
		woken = klist.Entry[kthread.Thread](node)
		l.sched.UnblockLocked(woken)
	}
	l.sched.Unlock()
	if woken != nil {
		l.sched.Preempt()
	}
}

// IsHeldBy reports whether t currently holds the lock.
func (l *Lock) IsHeldBy(t *kthread.Thread) bool {
	l.sched.Lock()
	defer l.sched.Unlock()
	return l.holder == t
}
