package main

import (
	"bytes"
	"fmt"

	"github.com/joeycumines/pintos-go/kconfig"
	"github.com/joeycumines/pintos-go/kproc"
	"github.com/joeycumines/pintos-go/ksync"
	"github.com/joeycumines/pintos-go/kvm"
)

// demo runs every scenario in turn from inside root's own thread, the only
// thread in this instance that is both a kproc.Process (so it can call
// Wait) and guaranteed to still be current when each scenario's workers
// are spawned, making them its direct children.
func (in *instance) demo(root *kproc.Process) error {
	scenarios := []struct {
		name string
		fn   func(root *kproc.Process) error
	}{
		{"priority-donation", in.demoPriorityDonation},
		{"producer-consumer", in.demoProducerConsumer},
		{"demand-paging-and-fork", in.demoDemandPagingAndFork},
		{"mmap", in.demoMmap},
	}

	var errs []error
	for _, sc := range scenarios {
		if err := sc.fn(root); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sc.name, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("instance %d: %v", in.id, errs)
}

// demoPriorityDonation spawns a low-priority worker and hands it the shared
// lock via a rendezvous semaphore, so it is guaranteed to already hold the
// lock by the time a high-priority worker is created and immediately
// preempts into a blocking Acquire. Release then hands the lock straight
// to the donor rather than whatever else might be ready, the payoff of the
// donation machinery under contention.
func (in *instance) demoPriorityDonation(root *kproc.Process) error {
	lock := ksync.NewLock(in.sched)
	holding := ksync.NewSemaphore(in.sched, 0)
	release := ksync.NewSemaphore(in.sched, 0)

	low := in.spawn("low-prio", kconfig.PriMin+5, func(p *kproc.Process, as *kvm.AddressSpace) {
		lock.Acquire()
		holding.Up()
		release.Down()
		lock.Release()
	})

	// Block until low actually holds the lock before creating the
	// high-priority contender.
	holding.Down()

	high := in.spawn("high-prio", kconfig.PriMax-5, func(p *kproc.Process, as *kvm.AddressSpace) {
		lock.Acquire()
		lock.Release()
	})

	release.Up()

	if _, err := root.Wait(low.Tid()); err != nil {
		return fmt.Errorf("wait low: %w", err)
	}
	if _, err := root.Wait(high.Tid()); err != nil {
		return fmt.Errorf("wait high: %w", err)
	}
	return nil
}

// demoProducerConsumer runs a single-slot bounded handoff over a CondVar:
// the producer blocks rather than overwriting an unconsumed item, the
// consumer blocks rather than reading an empty slot.
func (in *instance) demoProducerConsumer(root *kproc.Process) error {
	lock := ksync.NewLock(in.sched)
	cond := ksync.NewCondVar(in.sched)
	const want = 5

	var ready bool
	var produced, consumed int

	producer := in.spawn("producer", kconfig.PriDefault, func(p *kproc.Process, as *kvm.AddressSpace) {
		for i := 0; i < want; i++ {
			lock.Acquire()
			for ready {
				cond.Wait(lock)
			}
			produced++
			ready = true
			cond.Signal(lock)
			lock.Release()
		}
	})

	consumer := in.spawn("consumer", kconfig.PriDefault, func(p *kproc.Process, as *kvm.AddressSpace) {
		for i := 0; i < want; i++ {
			lock.Acquire()
			for !ready {
				cond.Wait(lock)
			}
			consumed++
			ready = false
			cond.Signal(lock)
			lock.Release()
		}
	})

	if _, err := root.Wait(producer.Tid()); err != nil {
		return fmt.Errorf("wait producer: %w", err)
	}
	if _, err := root.Wait(consumer.Tid()); err != nil {
		return fmt.Errorf("wait consumer: %w", err)
	}
	if produced != want || consumed != want {
		return fmt.Errorf("produced=%d consumed=%d, want %d each", produced, consumed, want)
	}
	return nil
}

// demoDemandPagingAndFork touches an anonymous page, faults it resident,
// writes a pattern, then forks: the child gets its own private copy of the
// page (CopyForFork), so a mutation in the child is invisible to the
// parent.
func (in *instance) demoDemandPagingAndFork(root *kproc.Process) error {
	const vpage kvm.VPage = 0x1000
	const pattern = "hello-vm"

	var err error
	worker := in.spawn("vm-parent", kconfig.PriDefault, func(p *kproc.Process, as *kvm.AddressSpace) {
		if e := as.AllocPageWithInitializer(kvm.Anon, vpage, true, kvm.AnonInitializer(), nil); e != nil {
			err = fmt.Errorf("alloc: %w", e)
			return
		}
		if e := as.HandleFault(kvm.FaultInput{VA: vpage, FromUserMode: true, Write: true, NotPresent: true}); e != nil {
			err = fmt.Errorf("fault in: %w", e)
			return
		}
		spe, _ := as.Lookup(vpage)
		copy(spe.Frame().Data(), []byte(pattern))

		child, e := p.Fork("vm-child", kconfig.PriDefault, func(cp *kproc.Process) {
			cas := in.addressSpaceFor(cp.Tid())
			cspe, ok := cas.Lookup(vpage)
			if !ok {
				err = fmt.Errorf("child: page missing after fork")
				return
			}
			if cspe.Frame() == nil {
				err = fmt.Errorf("child: page not materialized after fork")
				return
			}
			if !bytes.Equal(cspe.Frame().Data()[:len(pattern)], []byte(pattern)) {
				err = fmt.Errorf("child: unexpected inherited contents %q", cspe.Frame().Data()[:len(pattern)])
				return
			}
			copy(cspe.Frame().Data(), []byte("MUTATED!"))
		})
		if e != nil {
			err = fmt.Errorf("fork: %w", e)
			return
		}
		if _, e := p.Wait(child.Tid()); e != nil {
			err = fmt.Errorf("wait child: %w", e)
			return
		}
		if !bytes.Equal(spe.Frame().Data()[:len(pattern)], []byte(pattern)) {
			err = fmt.Errorf("parent: page mutated by child, fork did not give a private copy")
		}
	})
	if _, e := root.Wait(worker.Tid()); e != nil {
		return e
	}
	return err
}

// demoMmap maps a small in-memory file, demand-loads it, mutates it,
// marks it dirty (simulating a hardware store), then unmaps it and checks
// the mutation was written back to the backing file.
func (in *instance) demoMmap(root *kproc.Process) error {
	const addr kvm.VPage = 0x2000
	const contents = "mapped-file-contents"

	var err error
	worker := in.spawn("vm-mmap", kconfig.PriDefault, func(p *kproc.Process, as *kvm.AddressSpace) {
		backing := newMemFile([]byte(contents))
		p.FDTable.Open(kprocFile{backing})

		if _, e := as.Mmap(addr, len(contents), true, kvmFile{backing}, 0); e != nil {
			err = fmt.Errorf("mmap: %w", e)
			return
		}
		if e := as.HandleFault(kvm.FaultInput{VA: addr, FromUserMode: true, NotPresent: true}); e != nil {
			err = fmt.Errorf("fault in: %w", e)
			return
		}

		spe, _ := as.Lookup(addr)
		if !bytes.Equal(spe.Frame().Data()[:len(contents)], []byte(contents)) {
			err = fmt.Errorf("mmap: unexpected contents %q", spe.Frame().Data()[:len(contents)])
			return
		}

		mutated := []byte("MAPPED-FILE-CONTENTS")
		copy(spe.Frame().Data(), mutated)
		in.mmu.MarkDirty(kvm.ProcID(p.Tid()), addr)

		if e := as.Munmap(addr); e != nil {
			err = fmt.Errorf("munmap: %w", e)
			return
		}
		if !bytes.Equal(*backing.data, mutated) {
			err = fmt.Errorf("munmap: writeback mismatch, got %q", *backing.data)
		}
	})
	if _, e := root.Wait(worker.Tid()); e != nil {
		return e
	}
	return err
}
