package kthread

import (
	"sync"

	"github.com/joeycumines/pintos-go/fixedpoint"
	"github.com/joeycumines/pintos-go/kconfig"
	"github.com/joeycumines/pintos-go/kerrors"
	"github.com/joeycumines/pintos-go/klist"
	"github.com/joeycumines/pintos-go/klog"
)

// DonationSource lets ksync plug the priority-donation engine into the
// scheduler without the scheduler importing ksync: ksync implements it by
// walking a thread's OwnedLocks and asking each held lock for the highest
// priority among its waiters.
type DonationSource interface {
	MaxWaiterPriority(t *Thread) (priority int, ok bool)
}

// Scheduler owns the all/ready/sleep sets and drives the cooperative
// round-robin-plus-priority dispatch loop. There is exactly one Scheduler
// per simulated kernel.
type Scheduler struct {
	mu       sync.Mutex
	cond     *sync.Cond
	log      *klog.Logger
	priMin   int
	priMax   int
	timeSlice int
	timerFreq int
	mlfqs    bool

	allThreads klist.List
	ready      klist.List
	sleep      klist.List

	destructionReq []*Thread

	current *Thread
	idle    *Thread

	donation DonationSource

	tick        int64
	threadTicks int
	loadAvg     fixedpoint.Fixed
}

// New constructs a Scheduler. Call Init to bootstrap the first (caller's)
// thread, then Start once real threads may be created.
func New(opts ...Option) *Scheduler {
	o := resolveOptions(opts)
	s := &Scheduler{
		log:       o.log,
		priMin:    o.priMin,
		priMax:    o.priMax,
		timeSlice: o.timeSlice,
		timerFreq: o.timerFreq,
		mlfqs:     o.mlfqs,
		donation:  o.donation,
	}
	s.cond = sync.NewCond(&s.mu)
	s.allThreads.Init()
	s.ready.Init()
	s.sleep.Init()
	return s
}

// Init bootstraps the descriptor for the calling goroutine: the thread
// treated as already running before the scheduler proper ever runs. It
// must be called exactly once, before Start.
func (s *Scheduler) Init(name string) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := newThread(allocTID(), name, kconfig.PriDefault)
	t.state = StateRunning
	s.allThreads.PushBack(&t.allNode)
	s.current = t
	return t
}

// Start installs the idle thread, the scheduler's fallback "nothing ready"
// placeholder.
// Idle has no executable body in this simulator: it models CPU-halted
// time, not a schedulable goroutine, since Go has no HLT instruction and a
// goroutine standing in for one would have to busy-loop a real OS thread.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = newThread(allocTID(), "idle", s.priMin)
	s.idle.state = StateBlocked
	s.allThreads.PushBack(&s.idle.allNode)
}

// SetDonationSource wires the priority-donation engine in after
// construction, letting ksync and kthread be built independently while
// keeping the import edge one-directional (ksync -> kthread).
func (s *Scheduler) SetDonationSource(ds DonationSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donation = ds
}

// Lock acquires the scheduler's single critical section, the simulator's
// analogue of disabling interrupts. Callers building a
// composite wait (enqueue onto a waiter list, then Block) must hold Lock
// across both steps.
func (s *Scheduler) Lock() { s.mu.Lock() }

// Unlock releases what Lock acquired.
func (s *Scheduler) Unlock() { s.mu.Unlock() }

// Current returns the thread presently in the Running state. Must be
// called with the scheduler lock held, or treated as advisory otherwise.
func (s *Scheduler) Current() *Thread {
	return s.current
}

// Create allocates a new thread, inherits the creating thread's MLFQ
// attributes, and makes it Ready. It yields to the new
// thread immediately if the new thread's effective priority exceeds the
// caller's.
func (s *Scheduler) Create(name string, priority int, entry func(arg any), arg any) *Thread {
	return s.CreateWithSetup(name, priority, nil, entry, arg)
}

// CreateWithSetup is Create, but invokes setup on the new descriptor after
// it is linked into all_threads and before it is made Ready — before,
// therefore, it can possibly be dispatched. kproc uses this to attach a
// process record's onExit hook, which must already be in place in case the
// new thread outranks its creator and runs to completion inside this very
// call.
func (s *Scheduler) CreateWithSetup(name string, priority int, setup func(t *Thread), entry func(arg any), arg any) *Thread {
	s.mu.Lock()
	t := newThread(allocTID(), name, priority)
	t.entry = entry
	t.arg = arg
	if cur := s.current; cur != nil {
		t.ParentTid = cur.Tid
		t.nice = cur.nice
		t.recentCPU = cur.recentCPU
	}
	s.allThreads.PushBack(&t.allNode)
	if setup != nil {
		setup(t)
	}
	go s.runThread(t)
	s.unblockLocked(t)
	preempt := s.current != nil && t.priority > s.current.priority
	s.mu.Unlock()
	if preempt {
		s.Yield()
	}
	return t
}

func (s *Scheduler) runThread(t *Thread) {
	<-t.resume
	t.entry(t.arg)
	s.Exit(0)
}

func priorityLess(a, b *klist.Node) bool {
	ta := klist.Entry[Thread](a)
	tb := klist.Entry[Thread](b)
	return ta.priority < tb.priority
}

// drainDestructionReq releases descriptors of threads that have switched
// away from the Dying state for the last time (their goroutine stays parked
// inside Exit), marking each one dead by clearing its magic only once it
// can no longer possibly be running. This loop makes that deferred-release
// point an explicit, testable event rather than an implicit one.
func (s *Scheduler) drainDestructionReq() {
	for _, t := range s.destructionReq {
		t.magic = 0
	}
	s.destructionReq = s.destructionReq[:0]
}

// schedule is the dispatcher: it must be called with the lock held and the
// outgoing thread's new state already set. It returns with the lock held.
func (s *Scheduler) schedule() {
	s.drainDestructionReq()
	outgoing := s.current

	for s.ready.Empty() {
		s.idle.state = StateRunning
		s.current = s.idle
		if outgoing.state == StateDying {
			s.destructionReq = append(s.destructionReq, outgoing)
			return
		}
		s.cond.Wait()
	}

	node := s.ready.Max(priorityLess)
	s.ready.Remove(node)
	next := klist.Entry[Thread](node)
	next.state = StateRunning
	s.current = next

	if next != outgoing {
		select {
		case next.resume <- struct{}{}:
		default:
		}
	}

	if outgoing.state == StateDying {
		s.destructionReq = append(s.destructionReq, outgoing)
		return
	}
	if next == outgoing {
		return
	}

	s.mu.Unlock()
	<-outgoing.resume
	s.mu.Lock()
}

// Block suspends the calling thread. Precondition: the scheduler lock is
// already held, and the
// caller has already recorded why (pushed onto a waiter or sleep list).
// Returns with the lock held.
func (s *Scheduler) Block() {
	s.current.state = StateBlocked
	s.schedule()
}

func (s *Scheduler) unblockLocked(t *Thread) {
	if t.state != StateBlocked {
		kerrors.Fatal("unblock: thread %q is %s, not blocked", t.Name, t.state)
	}
	t.state = StateReady
	s.ready.PushBack(&t.schedNode)
	s.cond.Broadcast()
}

// Unblock moves a Blocked thread to Ready. It does not itself cause a
// context switch: the caller decides whether to yield.
func (s *Scheduler) Unblock(t *Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unblockLocked(t)
}

// UnblockLocked is Unblock for callers that already hold the scheduler
// lock: ksync's sema_up and lock_release pick a waiter and unblock it
// inside the same Lock/Unlock bracket used to pop it off the waiter list.
func (s *Scheduler) UnblockLocked(t *Thread) {
	s.unblockLocked(t)
}

// Yield voluntarily gives up the CPU, re-entering the ready set (unless
// the caller is the idle thread, which never does) and picking whichever
// ready thread now has the highest priority.
func (s *Scheduler) Yield() {
	s.mu.Lock()
	cur := s.current
	if cur != s.idle {
		cur.state = StateReady
		s.ready.PushBack(&cur.schedNode)
		s.cond.Broadcast()
	}
	s.schedule()
	s.mu.Unlock()
}

// Preempt yields only if a ready thread's priority now exceeds the
// caller's, the check run after a priority change or after the timer tick
// epilogue.
func (s *Scheduler) Preempt() {
	s.mu.Lock()
	cur := s.current
	node := s.ready.Max(priorityLess)
	shouldYield := node != nil && klist.Entry[Thread](node).priority > cur.priority
	s.mu.Unlock()
	if shouldYield {
		s.Yield()
	}
}

// Exit tears the calling thread down: runs the kproc teardown hook (if
// any), removes it from the all-threads set, and never returns, so code
// that calls Exit directly (rather than simply returning from its entry
// function) cannot fall through and run any statement after it.
func (s *Scheduler) Exit(status int) {
	s.mu.Lock()
	cur := s.current
	cur.exitStatus = status
	if cur.onExit != nil {
		s.mu.Unlock()
		cur.onExit(cur)
		s.mu.Lock()
	}
	s.allThreads.Remove(&cur.allNode)
	cur.state = StateDying
	s.schedule()
	s.mu.Unlock()
	select {}
}
