package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/pintos-go/kconfig"
	"github.com/joeycumines/pintos-go/klog"
	"github.com/joeycumines/pintos-go/kproc"
	"github.com/joeycumines/pintos-go/ksync"
	"github.com/joeycumines/pintos-go/kthread"
	"github.com/joeycumines/pintos-go/kvm"
)

// instance is one independent simulated boot: its own scheduler, process
// manager, frame pool, and device fakes. Each instance is single-threaded
// in the cooperative sense (exactly one of its goroutines is ever the
// scheduler's current thread), so instances only ever interact with the
// outside world through the result they return.
type instance struct {
	id       int
	log      *klog.Logger
	manifest kconfig.Manifest

	sched  *kthread.Scheduler
	procs  *kproc.Manager
	frames *kvm.FrameAllocator
	mmu    *memMMU
	swap   *memSwap

	mu     sync.Mutex
	spaces map[kthread.TID]*kvm.AddressSpace
}

func newInstance(id int, manifest kconfig.Manifest, w io.Writer) *instance {
	log := klog.New(w, logiface.LevelInformational)

	sched := kthread.New(
		kthread.WithLogger(log),
		kthread.WithMLFQS(manifest.Scheduler.MLFQS),
		kthread.WithDonationSource(ksync.Donation()),
	)

	in := &instance{
		id:       id,
		log:      log,
		manifest: manifest,
		sched:    sched,
		mmu:      newMemMMU(),
		swap:     newMemSwap(),
		spaces:   make(map[kthread.TID]*kvm.AddressSpace),
	}
	in.frames = kvm.NewFrameAllocator(int64(manifest.VM.FramePoolPages), in.mmu, in.swap)
	in.procs = kproc.NewManager(sched, kproc.WithLogger(log), kproc.WithOnFork(in.onFork))
	return in
}

func (in *instance) onFork(parent, child *kproc.Process) {
	in.mu.Lock()
	parentAS := in.spaces[parent.Tid()]
	in.mu.Unlock()

	childAS := kvm.NewAddressSpace(kvm.ProcID(child.Tid()), in.frames, in.mmu)
	if parentAS != nil {
		if err := parentAS.CopyForFork(childAS); err != nil {
			in.log.Err().Err(err).Int("tid", int(child.Tid())).Logf("instance %d: fork address space copy failed", in.id)
		}
	}

	in.mu.Lock()
	in.spaces[child.Tid()] = childAS
	in.mu.Unlock()
}

func (in *instance) addressSpaceFor(tid kthread.TID) *kvm.AddressSpace {
	in.mu.Lock()
	defer in.mu.Unlock()
	as, ok := in.spaces[tid]
	if !ok {
		as = kvm.NewAddressSpace(kvm.ProcID(tid), in.frames, in.mmu)
		in.spaces[tid] = as
	}
	return as
}

// spawn starts a top-level worker process. Its address space is created
// lazily on first use from within fn, since fn always runs before anything
// else could reference this process's tid.
func (in *instance) spawn(name string, priority int, fn func(p *kproc.Process, as *kvm.AddressSpace)) *kproc.Process {
	return in.procs.Spawn(name, priority, func(p *kproc.Process) {
		fn(p, in.addressSpaceFor(p.Tid()))
	})
}

// run drives the whole boot: installs the idle thread, spawns a root
// process to run the demo workload, and pumps the tick clock — exactly as
// a real timer interrupt would — until the root process reports completion
// or the tick budget runs out. The calling goroutine becomes the bootstrap
// thread for the lifetime of the instance, exactly as kthread.Scheduler.Init
// requires, and never itself becomes a kproc.Process; only the root (and
// its descendants) can meaningfully call Process.Wait.
func (in *instance) run(ticks int) error {
	boot := in.sched.Init(fmt.Sprintf("instance-%d-boot", in.id))
	in.sched.Start()
	in.addressSpaceFor(boot.Tid)

	done := make(chan error, 1)
	in.spawn("root", kconfig.PriDefault, func(p *kproc.Process, as *kvm.AddressSpace) {
		done <- in.demo(p)
	})

	for i := 0; i < ticks; i++ {
		select {
		case err := <-done:
			return err
		default:
		}
		in.sched.Tick()
		if (i+1)%kconfig.TimerFreq == 0 {
			in.sched.SecondTick()
		}
	}

	select {
	case err := <-done:
		return err
	default:
		return fmt.Errorf("instance %d: root process did not finish within %d ticks", in.id, ticks)
	}
}
