// Package kthread implements the thread descriptor and the scheduler core:
// the all/ready/sleep sets, create/block/unblock/yield/exit, the tick clock
// and sleep queue, and the MLFQ governor. It is the one package every other
// kernel package (ksync, kproc, kvm) depends on.
//
// There is no real hardware interrupt in this simulator, so the "single
// CPU" is modeled as a baton passed between goroutines: at most one
// goroutine is ever executing past the point where it last called Block,
// Yield, or was resumed by the scheduler, enforced by Scheduler's internal
// mutex plus a per-thread resume channel. Tick, standing in for the timer
// interrupt, is called by the current thread itself (the boot thread in
// cmd/pintosim and in the tests) and may yield it, synchronized through the
// same mutex — see Scheduler.Lock.
package kthread
