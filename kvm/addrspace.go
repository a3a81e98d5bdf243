package kvm

import (
	"sync"

	"github.com/joeycumines/pintos-go/kconfig"
	"github.com/joeycumines/pintos-go/kerrors"
)

// AddressSpace is a process's supplemental page table: a Go map keyed by
// virtual page number standing in for a chained hash table — Go's builtin
// map already is the ecosystem's idiomatic version of one, so nothing here
// hand-rolls it.
type AddressSpace struct {
	proc   ProcID
	frames *FrameAllocator
	mmu    MMU

	mu    sync.Mutex
	table map[VPage]*SPE
}

// NewAddressSpace constructs an empty supplemental page table for proc,
// drawing frames from the shared allocator and installing mappings
// through mmu.
func NewAddressSpace(proc ProcID, frames *FrameAllocator, mmu MMU) *AddressSpace {
	return &AddressSpace{
		proc:   proc,
		frames: frames,
		mmu:    mmu,
		table:  make(map[VPage]*SPE),
	}
}

// AllocPageWithInitializer registers a lazily-initialized page: rejects an
// already-mapped vpage, otherwise inserts an Uninit entry recording the
// eventual type, the lazy-load closure, and its argument.
func (as *AddressSpace) AllocPageWithInitializer(targetType SPEType, vpage VPage, writable bool, initFn func(spe *SPE, frame *Frame) bool, aux any) error {
	as.mu.Lock()
	defer as.mu.Unlock()
	if _, exists := as.table[vpage]; exists {
		return kerrors.InvalidArgument("alloc_page_with_initializer: vpage already mapped", nil)
	}
	as.table[vpage] = &SPE{
		vpage:      vpage,
		typ:        Uninit,
		targetType: targetType,
		writable:   writable,
		initFn:     initFn,
		aux:        aux,
		as:         as,
		swapSlot:   -1,
	}
	return nil
}

// Lookup returns the SPE registered for vpage, if any.
func (as *AddressSpace) Lookup(vpage VPage) (*SPE, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	spe, ok := as.table[vpage]
	return spe, ok
}

// Claim binds vpage's SPE to a frame and installs the hardware mapping.
// Returns false if no SPE is registered for vpage. Any error leaves the
// SPT unchanged and the caller's fault unresolved.
func (as *AddressSpace) Claim(vpage VPage) (bool, error) {
	as.mu.Lock()
	spe, ok := as.table[vpage]
	as.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, as.claim(spe)
}

func (as *AddressSpace) claim(spe *SPE) error {
	frame, err := as.frames.GetFrame(spe)
	if err != nil {
		return err
	}

	switch {
	case spe.typ == Uninit:
		spe.typ = spe.targetType
		if spe.initFn != nil && !spe.initFn(spe, frame) {
			spe.typ = Uninit
			as.frames.releaseFrame(frame)
			return kerrors.OutOfResource("claim: initializer failed", nil)
		}
	case spe.typ == Anon && spe.swapSlot >= 0:
		if err := as.frames.swap.Read(spe.swapSlot, frame.data[:]); err != nil {
			as.frames.releaseFrame(frame)
			return kerrors.OutOfResource("claim: swap-in failed", err)
		}
		as.frames.swap.Free(spe.swapSlot)
		spe.swapSlot = -1
	case spe.typ == FileBacked:
		if err := spe.file.Seek(spe.offset); err != nil {
			as.frames.releaseFrame(frame)
			return kerrors.OutOfResource("claim: mmap read seek failed", err)
		}
		n, err := spe.file.Read(frame.data[:spe.readBytes])
		if err != nil {
			as.frames.releaseFrame(frame)
			return kerrors.OutOfResource("claim: mmap read failed", err)
		}
		for i := n; i < spe.readBytes; i++ {
			frame.data[i] = 0
		}
	}

	if !as.mmu.Map(as.proc, spe.vpage, frame, spe.writable) {
		as.frames.releaseFrame(frame)
		return kerrors.OutOfResource("claim: mmu map failed", nil)
	}
	spe.frame = frame
	return nil
}

// FaultInput describes a page-fault trap.
type FaultInput struct {
	VA              VPage
	FromUserMode    bool
	Write           bool
	NotPresent      bool
	UserStackPointer VPage
}

// HandleFault resolves a page fault: demand-load an already-registered
// page, grow the stack for a plausible guard-page access, or fail.
func (as *AddressSpace) HandleFault(in FaultInput) error {
	if in.FromUserMode && isKernelVA(in.VA) {
		return kerrors.Protection("page fault: kernel VA referenced from user mode", nil)
	}

	if in.NotPresent {
		spe, ok := as.Lookup(in.VA)
		if ok {
			if in.Write && !spe.writable {
				return kerrors.Protection("page fault: write to non-writable page", nil)
			}
			return as.claim(spe)
		}
		if as.isStackGrowth(in.VA, in.UserStackPointer) {
			return as.growStack(in.VA)
		}
		return kerrors.InvalidArgument("page fault: unmapped address", nil)
	}

	return kerrors.Protection("page fault: write to a present, non-writable page", nil)
}

func isKernelVA(va VPage) bool {
	return va == 0 || uintptr(va) >= kconfig.KernelBase
}

// isStackGrowth reports whether va lies within one machine word below sp
// and within the bounded stack region.
func (as *AddressSpace) isStackGrowth(va, sp VPage) bool {
	const wordSize = 8
	if va > sp || uintptr(sp)-uintptr(va) > wordSize {
		return false
	}
	lowerBound := VPage(uintptr(kconfig.UserStackTop) - kconfig.StackLimit)
	return va <= VPage(kconfig.UserStackTop) && va >= lowerBound
}

func (as *AddressSpace) growStack(va VPage) error {
	rounded := VPage(uintptr(va) &^ (PageSize - 1))
	if err := as.AllocPageWithInitializer(Anon, rounded, true, AnonInitializer(), nil); err != nil {
		return err
	}
	_, err := as.Claim(rounded)
	return err
}
