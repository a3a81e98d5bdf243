// Package ksync implements the synchronization primitives built on top of
// kthread's scheduler: counting semaphores, locks with priority donation,
// and condition variables.
//
// Every primitive here brackets its critical section with a single
// Scheduler.Lock()/Unlock() pair and, inside that bracket, uses the
// scheduler's *Locked methods (RaiseEffectivePriorityLocked,
// RecomputeEffectivePriorityLocked, UnblockLocked) rather than their
// lock-acquiring counterparts — calling the latter from inside an
// already-held bracket would deadlock on the same, non-reentrant mutex.
// This composes waiter-list manipulation and block/unblock under one
// lock/unlock pair, the same discipline a hardware interrupt-disable
// bracket enforces on a single-CPU kernel.
//
// Waiters are linked via the blocked thread's own kthread.Thread.WaitNode,
// so a thread can be queued on at most one semaphore/lock at a time — which
// is all any of these primitives ever need, since a thread blocks on
// exactly one thing.
package ksync
