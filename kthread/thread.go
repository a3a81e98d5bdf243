package kthread

import (
	"sync"

	"github.com/joeycumines/pintos-go/fixedpoint"
	"github.com/joeycumines/pintos-go/kerrors"
	"github.com/joeycumines/pintos-go/klist"
)

// TID identifies a thread for the lifetime of the kernel.
type TID int64

// threadMagic guards against stack/descriptor overflow: a sentinel value
// stored at the base of a thread's descriptor and checked on every access.
const threadMagic = 0xcd6abf4b

// Thread is a kernel thread descriptor: the scheduling, donation, and MLFQ
// bookkeeping fields a thread carries through its lifetime. All mutable
// fields below are only ever touched while the owning Scheduler's mutex is
// held; see doc.go.
type Thread struct {
	allNode   klist.Node
	schedNode klist.Node
	waitNode  klist.Node

	Tid       TID
	Name      string
	ParentTid TID

	state State

	priority         int
	originalPriority int
	nice             int
	recentCPU        fixedpoint.Fixed

	donee      *Thread
	ownedLocks klist.List

	// wakeTick is the absolute tick at which a sleeping thread should be
	// woken, or -1 when the thread is not sleeping (kthread/sleep.go).
	wakeTick int64

	entry func(arg any)
	arg   any

	// onExit, when set by kproc, runs synchronously at the top of Exit
	// before the thread is removed from the all-threads set.
	onExit func(t *Thread)

	exitStatus int

	resume chan struct{}

	magic uint32
}

func newThread(tid TID, name string, priority int) *Thread {
	t := &Thread{
		Tid:              tid,
		Name:             name,
		priority:         priority,
		originalPriority: priority,
		wakeTick:         -1,
		resume:           make(chan struct{}, 1),
		magic:            threadMagic,
	}
	t.allNode.Owner = t
	t.schedNode.Owner = t
	t.waitNode.Owner = t
	t.ownedLocks.Init()
	return t
}

func (t *Thread) assertAlive() {
	if t.magic != threadMagic {
		kerrors.Fatal("thread %q: descriptor overflow or use-after-free (bad magic)", t.Name)
	}
}

// State returns the thread's current lifecycle state.
func (t *Thread) State() State { t.assertAlive(); return t.state }

// Priority returns the thread's current effective priority: its own base
// (or MLFQ-derived) priority, or a donated priority if higher.
func (t *Thread) Priority() int { t.assertAlive(); return t.priority }

// OriginalPriority returns the thread's base priority, unaffected by any
// donation it may currently be receiving.
func (t *Thread) OriginalPriority() int { t.assertAlive(); return t.originalPriority }

// Nice returns the thread's MLFQ niceness.
func (t *Thread) Nice() int { t.assertAlive(); return t.nice }

// RecentCPU returns the thread's MLFQ recent-CPU estimate.
func (t *Thread) RecentCPU() fixedpoint.Fixed { t.assertAlive(); return t.recentCPU }

// Donee returns the thread this thread is currently donating its priority
// to (the holder of a lock it is waiting to acquire), or nil.
func (t *Thread) Donee() *Thread { t.assertAlive(); return t.donee }

// SetDonee records the thread this thread is donating to. Called by ksync
// while the Scheduler lock is held.
func (t *Thread) SetDonee(d *Thread) { t.assertAlive(); t.donee = d }

// OwnedLocks returns the list of locks this thread currently holds, each
// entry a *klist.Node embedded in a ksync.Lock. ksync walks this list to
// recompute the effective priority a lock's release should fall back to.
func (t *Thread) OwnedLocks() *klist.List { t.assertAlive(); return &t.ownedLocks }

// WaitNode returns the node ksync uses to link this thread into whatever
// semaphore waiter list it is currently blocked on.
func (t *Thread) WaitNode() *klist.Node { t.assertAlive(); return &t.waitNode }

// ExitStatus returns the status code passed to Exit.
func (t *Thread) ExitStatus() int { t.assertAlive(); return t.exitStatus }

// SetOnExit installs a hook kproc uses to run process-level teardown (child
// reparenting, wait_sema signaling, FD table release) synchronously inside
// Exit, before the descriptor is unlinked from the all-threads set.
func (t *Thread) SetOnExit(fn func(t *Thread)) { t.assertAlive(); t.onExit = fn }

// tidLock guards nextTid alone: tid allocation is its own critical section,
// kept separate from the scheduler lock since a tid is handed out before
// the new thread's descriptor is ever linked into any scheduler list.
var (
	tidLock sync.Mutex
	nextTid TID
)

func allocTID() TID {
	tidLock.Lock()
	defer tidLock.Unlock()
	nextTid++
	return nextTid
}
