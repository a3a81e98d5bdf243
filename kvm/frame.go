package kvm

import (
	"sync"

	"github.com/joeycumines/pintos-go/kerrors"
	"github.com/joeycumines/pintos-go/klist"
	"golang.org/x/sync/semaphore"
)

// FrameAllocator owns the global frame table and the bound on the number
// of frames the user pool may hand out at once.
// golang.org/x/sync/semaphore.Weighted is exactly the counting primitive
// the "block or evict on exhaustion" policy needs: a weighted semaphore of
// capacity N tracks how many of the N frames are currently owned by some
// SPE.
type FrameAllocator struct {
	mu    sync.Mutex
	sem   *semaphore.Weighted
	table klist.List
	mmu   MMU
	swap  SwapDevice
}

// NewFrameAllocator constructs an allocator bounded to capacity frames.
func NewFrameAllocator(capacity int64, mmu MMU, swap SwapDevice) *FrameAllocator {
	fa := &FrameAllocator{
		sem:  semaphore.NewWeighted(capacity),
		mmu:  mmu,
		swap: swap,
	}
	fa.table.Init()
	return fa
}

// GetFrame returns a frame for owner, allocating a fresh one while the
// pool has room, and otherwise selecting and evicting a second-chance
// victim from the global frame table.
func (fa *FrameAllocator) GetFrame(owner *SPE) (*Frame, error) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.sem.TryAcquire(1) {
		f := &Frame{owner: owner, chance: true}
		f.node.Owner = f
		fa.table.PushBack(&f.node)
		return f, nil
	}
	return fa.evictLocked(owner)
}

// evictLocked runs the clock algorithm: pop the front of the frame table,
// give anything marked chance a reprieve (clearing the flag and moving it
// to the back), and evict the first frame found with chance already
// false. Terminates within two passes over the table.
func (fa *FrameAllocator) evictLocked(newOwner *SPE) (*Frame, error) {
	if fa.table.Empty() {
		return nil, kerrors.OutOfResource("frame table exhausted: no frame to evict", nil)
	}
	for {
		n := fa.table.PopFront()
		f := klist.Entry[Frame](n)
		if f.chance {
			f.chance = false
			fa.table.PushBack(n)
			continue
		}
		if err := fa.swapOutLocked(f); err != nil {
			fa.table.PushFront(n)
			return nil, err
		}
		f.owner = newOwner
		f.chance = true
		fa.table.PushBack(n)
		return f, nil
	}
}

// swapOutLocked evicts f's current contents: Anon pages go to the swap
// device, a dirty FileBacked page is written back to its file, then the
// MMU mapping is cleared either way.
func (fa *FrameAllocator) swapOutLocked(f *Frame) error {
	spe := f.owner
	if spe == nil {
		return nil
	}
	switch spe.typ {
	case Anon:
		slot, err := fa.swap.Write(f.data[:])
		if err != nil {
			return kerrors.OutOfResource("swap out failed", err)
		}
		spe.swapSlot = slot
	case FileBacked:
		if fa.mmu.IsDirty(spe.as.proc, spe.vpage) {
			if err := spe.file.Seek(spe.offset); err != nil {
				return kerrors.OutOfResource("mmap writeback seek failed", err)
			}
			if _, err := spe.file.Write(f.data[:spe.readBytes]); err != nil {
				return kerrors.OutOfResource("mmap writeback failed", err)
			}
		}
	}
	fa.mmu.ClearDirty(spe.as.proc, spe.vpage)
	fa.mmu.Unmap(spe.as.proc, spe.vpage)
	spe.frame = nil
	f.owner = nil
	return nil
}

// releaseFrame returns f to the pool unused, for rolling back a claim that
// failed after a frame was obtained but before it was fully installed.
func (fa *FrameAllocator) releaseFrame(f *Frame) {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	fa.table.Remove(&f.node)
	f.owner = nil
	fa.sem.Release(1)
}
