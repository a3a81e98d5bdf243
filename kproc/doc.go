// Package kproc implements process lifecycle (create, fork, wait, exit) and
// the per-process file-descriptor table on top of kthread and ksync.
//
// A kthread.Thread carries no process-specific state of its own (kproc
// depends on kthread, not the reverse, to keep that import edge
// one-directional the same way ksync does); wait_sema, reap_sema, the
// parent-child bookkeeping, and the FD table instead live in a Process
// record kept in a Manager's registry, keyed by tid. Process.onExit is
// wired in as the thread's onExit hook at creation time via
// kthread.Scheduler.CreateWithSetup, which guarantees the hook is attached
// before the new thread can possibly run — and therefore before it could
// possibly exit.
package kproc
