package kproc

import (
	"sync"

	"github.com/joeycumines/pintos-go/kerrors"
	"github.com/joeycumines/pintos-go/klog"
	"github.com/joeycumines/pintos-go/ksync"
	"github.com/joeycumines/pintos-go/kthread"
)

// Process is the process-level record kept alongside a kthread.Thread:
// wait_sema/reap_sema for the wait/exit reaping protocol,
// the FD table, and the cached exit status a reaping parent reads back.
type Process struct {
	mgr       *Manager
	thread    *kthread.Thread
	tid       kthread.TID
	parentTid kthread.TID

	FDTable *FDTable

	waitSema *ksync.Semaphore
	reapSema *ksync.Semaphore

	exitStatus int
	exited     bool
	orphaned   bool
	waited     bool
}

// Tid returns the process's thread id.
func (p *Process) Tid() kthread.TID { return p.tid }

// ParentTid returns the tid of the thread that was running when p was
// created. It is not cleared when that thread exits.
func (p *Process) ParentTid() kthread.TID { return p.parentTid }

// onExit is wired in as the owning thread's onExit hook at creation time
// (via Manager.spawnChild -> kthread.Scheduler.CreateWithSetup), and runs
// synchronously inside Scheduler.Exit with the scheduler lock NOT held.
func (p *Process) onExit(t *kthread.Thread) {
	p.exitStatus = t.ExitStatus()

	p.mgr.log.Info().
		Int("tid", int(p.tid)).
		Int("status", p.exitStatus).
		Logf("%s: exit(%d)", t.Name, p.exitStatus)

	for _, child := range p.mgr.childrenOf(p.tid) {
		child.orphan()
	}

	p.FDTable.CloseAll()

	p.exited = true
	p.waitSema.Up()

	// Only wait to be reaped if a parent process is actually tracked: a
	// process whose creator was never itself a Process (the bootstrap
	// thread, or a leaked tid) has nobody who could ever call Wait, so
	// blocking here would wedge its goroutine forever.
	hasParent := p.mgr.lookup(p.parentTid) != nil
	if hasParent && !p.orphaned {
		p.reapSema.Down()
	}

	p.mgr.remove(p.tid)
}

// orphan marks p as parentless, releasing it from reap_sema immediately if
// it is already blocked there waiting to be reaped.
func (p *Process) orphan() {
	p.orphaned = true
	if p.exited {
		p.reapSema.Up()
	}
}

// Wait blocks for childTid to exit: fails unless childTid names a direct,
// not-yet-waited-on child; otherwise blocks until the child exits, consumes
// its exit status, and releases it to finish tearing down.
func (p *Process) Wait(childTid kthread.TID) (int, error) {
	child := p.mgr.lookup(childTid)
	if child == nil || child.parentTid != p.tid {
		return 0, kerrors.InvalidArgument("wait: not a direct child", nil)
	}
	if child.waited {
		return 0, kerrors.InvalidArgument("wait: already waited on this tid", nil)
	}
	child.waited = true

	child.waitSema.Down()
	status := child.exitStatus
	child.reapSema.Up()
	return status, nil
}

// Fork duplicates p's FD table and spawns a new
// process with childEntry as its body. If a fork hook was installed via
// WithOnFork, it runs after the child's Process record exists but before
// the child thread can possibly be dispatched, so a virtual-memory layer
// can copy the parent's address space across first.
func (p *Process) Fork(name string, priority int, childEntry func(child *Process)) (*Process, error) {
	dup, err := p.FDTable.Duplicate()
	if err != nil {
		return nil, err
	}
	return p.mgr.spawnChild(name, priority, dup, p, childEntry), nil
}

// Manager owns the registry of live Process records, keyed by tid, and the
// scheduler they run on.
type Manager struct {
	sched  *kthread.Scheduler
	log    *klog.Logger
	onFork func(parent, child *Process)

	mu    sync.Mutex
	procs map[kthread.TID]*Process
}

// NewManager constructs a Manager bound to sched. sched must already have
// had Init and Start called.
func NewManager(sched *kthread.Scheduler, opts ...Option) *Manager {
	o := resolveOptions(opts)
	return &Manager{
		sched:  sched,
		log:    o.log,
		onFork: o.onFork,
		procs:  make(map[kthread.TID]*Process),
	}
}

// Spawn creates a new top-level process (no fork lineage) whose body is fn.
func (m *Manager) Spawn(name string, priority int, fn func(p *Process)) *Process {
	return m.spawnChild(name, priority, NewFDTable(), nil, fn)
}

func (m *Manager) spawnChild(name string, priority int, fdTable *FDTable, parent *Process, fn func(p *Process)) *Process {
	var p *Process
	m.sched.CreateWithSetup(name, priority, func(t *kthread.Thread) {
		p = &Process{
			mgr:       m,
			thread:    t,
			tid:       t.Tid,
			parentTid: t.ParentTid,
			FDTable:   fdTable,
			waitSema:  ksync.NewSemaphore(m.sched, 0),
			reapSema:  ksync.NewSemaphore(m.sched, 0),
		}
		t.SetOnExit(p.onExit)
		m.register(p)
		if parent != nil && m.onFork != nil {
			m.onFork(parent, p)
		}
	}, func(any) { fn(p) }, nil)
	return p
}

func (m *Manager) register(p *Process) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.procs[p.tid] = p
}

func (m *Manager) remove(tid kthread.TID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.procs, tid)
}

func (m *Manager) lookup(tid kthread.TID) *Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.procs[tid]
}

func (m *Manager) childrenOf(parentTid kthread.TID) []*Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Process
	for _, p := range m.procs {
		if p.parentTid == parentTid {
			out = append(out, p)
		}
	}
	return out
}
