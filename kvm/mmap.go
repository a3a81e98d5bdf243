package kvm

import "github.com/joeycumines/pintos-go/kerrors"

// Mmap maps length bytes of file starting at offset into the address
// space at addr. The file handle is reopened so a close of the caller's
// own descriptor after mmap is safe. Returns the number of pages mapped;
// the same count is recorded on the first page's SPE, which is where
// Munmap(addr) reads it from.
func (as *AddressSpace) Mmap(addr VPage, length int, writable bool, file FileHandle, offset int64) (pageCount int, err error) {
	if length <= 0 {
		return 0, kerrors.InvalidArgument("mmap: length must be positive", nil)
	}
	if uintptr(addr)%PageSize != 0 {
		return 0, kerrors.InvalidArgument("mmap: addr must be page-aligned", nil)
	}

	reopened, err := file.Reopen()
	if err != nil {
		return 0, kerrors.OutOfResource("mmap: reopen failed", err)
	}

	pageCount = (length + PageSize - 1) / PageSize
	remaining := length
	for i := 0; i < pageCount; i++ {
		vpage := VPage(uintptr(addr) + uintptr(i*PageSize))
		readBytes := remaining
		if readBytes > PageSize {
			readBytes = PageSize
		}
		zeroBytes := PageSize - readBytes
		remaining -= readBytes

		pageOffset := offset + int64(i*PageSize)
		init := FileBackedInitializer(reopened, pageOffset, readBytes, zeroBytes)
		if err := as.AllocPageWithInitializer(FileBacked, vpage, writable, init, nil); err != nil {
			as.unmapPartial(addr, i)
			return 0, err
		}
		// Record the file-backed parameters on the SPE immediately, rather
		// than waiting for the lazy initializer to run, so fork can
		// duplicate an as-yet-unclaimed mmap entry.
		as.mu.Lock()
		spe := as.table[vpage]
		spe.file = reopened
		spe.offset = pageOffset
		spe.readBytes = readBytes
		spe.zeroBytes = zeroBytes
		as.mu.Unlock()
	}

	as.mu.Lock()
	as.table[addr].pageCount = pageCount
	as.mu.Unlock()

	return pageCount, nil
}

// unmapPartial tears down the first n pages of a failed Mmap call, so
// a rejected mapping leaves the SPT unchanged overall.
func (as *AddressSpace) unmapPartial(addr VPage, n int) {
	as.mu.Lock()
	defer as.mu.Unlock()
	for i := 0; i < n; i++ {
		vpage := VPage(uintptr(addr) + uintptr(i*PageSize))
		delete(as.table, vpage)
	}
}

// Munmap tears down the mmap region starting at addr:
// writes back any page whose hardware dirty bit is set, in read_bytes
// (never the zero-filled tail), clears the mapping, then destroys the SPE.
// Ordering is writeback, then MMU clear, then SPE destruction, exactly in
// that order for each page.
func (as *AddressSpace) Munmap(addr VPage) error {
	as.mu.Lock()
	first, ok := as.table[addr]
	as.mu.Unlock()
	if !ok {
		return kerrors.InvalidArgument("munmap: no mapping at addr", nil)
	}
	pageCount := first.pageCount

	for i := 0; i < pageCount; i++ {
		vpage := VPage(uintptr(addr) + uintptr(i*PageSize))
		as.mu.Lock()
		spe, ok := as.table[vpage]
		as.mu.Unlock()
		if !ok {
			continue
		}

		if spe.frame != nil {
			if as.mmu.IsDirty(as.proc, vpage) {
				if err := spe.file.Seek(spe.offset); err != nil {
					return kerrors.OutOfResource("munmap: writeback seek failed", err)
				}
				if _, err := spe.file.Write(spe.frame.data[:spe.readBytes]); err != nil {
					return kerrors.OutOfResource("munmap: writeback failed", err)
				}
				as.mmu.ClearDirty(as.proc, vpage)
			}
			as.mmu.Unmap(as.proc, vpage)
			as.frames.releaseFrame(spe.frame)
		}

		as.mu.Lock()
		delete(as.table, vpage)
		as.mu.Unlock()
	}
	return nil
}
