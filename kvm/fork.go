package kvm

import "github.com/joeycumines/pintos-go/kerrors"

// CopyForFork populates child with a copy of every entry in as, the
// supplemental-page-table half of fork. An Uninit entry is
// duplicated as Uninit, with its file handle re-duplicated (aux is passed
// through unchanged) so the child's eventual first claim reads through its
// own handle; an entry
// already claimed is duplicated as a fresh Anon page, claimed immediately,
// and populated with a byte-for-byte copy of the parent's current contents
// — read straight out of its frame if resident, or off whatever backs it
// while evicted — since once a page is materialized, fork always gives the
// child its own private copy rather than re-running the original lazy-load
// path.
func (as *AddressSpace) CopyForFork(child *AddressSpace) error {
	as.mu.Lock()
	entries := make([]*SPE, 0, len(as.table))
	for _, spe := range as.table {
		entries = append(entries, spe)
	}
	as.mu.Unlock()

	for _, spe := range entries {
		if err := as.copyOneForFork(child, spe); err != nil {
			return err
		}
	}
	return nil
}

func (as *AddressSpace) copyOneForFork(child *AddressSpace, spe *SPE) error {
	if spe.typ == Uninit {
		aux, file, err := duplicateAux(spe)
		if err != nil {
			return err
		}
		if err := child.AllocPageWithInitializer(spe.targetType, spe.vpage, spe.writable, rebindInitializer(spe, file), aux); err != nil {
			return err
		}
		return nil
	}

	if err := child.AllocPageWithInitializer(Anon, spe.vpage, spe.writable, AnonInitializer(), nil); err != nil {
		return err
	}
	if _, err := child.Claim(spe.vpage); err != nil {
		return err
	}
	childSPE, _ := child.Lookup(spe.vpage)
	if spe.frame != nil {
		copy(childSPE.frame.data[:], spe.frame.data[:])
		return nil
	}
	// spe is materialized but currently evicted: its frame is nil, so the
	// parent's actual contents live on the swap device (Anon) or the
	// backing file (FileBacked) instead. Read them into the child's fresh
	// frame the same way a claim would, without disturbing the parent's
	// own copy — swap.Read leaves the slot allocated, since the parent may
	// still fault this page back in.
	return copyEvictedForFork(spe, childSPE.frame)
}

// copyEvictedForFork fills frame with the current persisted contents of an
// spe that is materialized (Anon or FileBacked) but not resident
// (spe.frame == nil).
func copyEvictedForFork(spe *SPE, frame *Frame) error {
	switch {
	case spe.typ == Anon && spe.swapSlot >= 0:
		if err := spe.as.frames.swap.Read(spe.swapSlot, frame.data[:]); err != nil {
			return kerrors.OutOfResource("fork: swap read failed", err)
		}
	case spe.typ == FileBacked:
		if err := spe.file.Seek(spe.offset); err != nil {
			return kerrors.OutOfResource("fork: mmap read seek failed", err)
		}
		n, err := spe.file.Read(frame.data[:spe.readBytes])
		if err != nil {
			return kerrors.OutOfResource("fork: mmap read failed", err)
		}
		for i := n; i < spe.readBytes+spe.zeroBytes; i++ {
			frame.data[i] = 0
		}
	}
	return nil
}

// duplicateAux re-duplicates the file handle backing an Uninit entry
// destined to become FileBacked, so the child's eventual claim reads
// through its own handle rather than racing the parent's. Entries destined
// for Anon carry no file and pass their aux through unchanged.
func duplicateAux(spe *SPE) (aux any, file FileHandle, err error) {
	if spe.targetType != FileBacked || spe.file == nil {
		return spe.aux, nil, nil
	}
	dup, err := spe.file.Duplicate()
	if err != nil {
		return nil, nil, kerrors.OutOfResource("fork: duplicate mmap file handle failed", err)
	}
	return spe.aux, dup, nil
}

// rebindInitializer returns a child-owned initializer equivalent to spe's
// own, substituting file for the duplicated handle when spe is destined to
// become FileBacked.
func rebindInitializer(spe *SPE, file FileHandle) func(child *SPE, frame *Frame) bool {
	if spe.targetType == FileBacked && file != nil {
		return FileBackedInitializer(file, spe.offset, spe.readBytes, spe.zeroBytes)
	}
	return spe.initFn
}
