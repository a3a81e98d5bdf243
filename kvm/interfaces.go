package kvm

// ProcID addresses one address space in the MMU's per-process mapping
// table. kvm treats it as opaque; a caller (kproc) supplies whatever value
// it uses to identify a process.
type ProcID uint64

// VPage is a user virtual address. Supplemental page table entries are
// keyed by page-aligned VPages; a faulting address may carry offset bits.
type VPage uintptr

// MMU is the hardware page-table primitive kvm treats as an opaque
// external collaborator: install, clear, query, and test dirty bits on
// (process, virtual-page) entries. Any concrete implementation (a real
// arch-specific page table, an in-memory fake for tests) satisfies this
// purely structurally.
type MMU interface {
	Map(proc ProcID, va VPage, frame *Frame, writable bool) bool
	Unmap(proc ProcID, va VPage)
	Lookup(proc ProcID, va VPage) (*Frame, bool)
	IsDirty(proc ProcID, va VPage) bool
	ClearDirty(proc ProcID, va VPage)
}

// FileHandle is the opaque file object a process's open descriptors point
// at: read, write, seek, length, reopen, duplicate, close. Defined
// independently here (rather than imported from kproc) so kvm and kproc
// can each depend on the interface shape without importing one another.
// Reopen and Duplicate return each package's own interface type, so one
// concrete type cannot satisfy both; cmd/pintosim wraps its in-memory file
// in a thin adapter per package.
type FileHandle interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	Seek(pos int64) error
	Tell() int64
	Length() int64
	Reopen() (FileHandle, error)
	Duplicate() (FileHandle, error)
	Close() error
}

// SwapDevice is the opaque disk-backed swap collaborator:
// write evicts a page to a fresh slot, read loads one back, and free
// releases a slot once the page is no longer swapped out.
type SwapDevice interface {
	Write(data []byte) (slot int, err error)
	Read(slot int, buf []byte) error
	Free(slot int)
}
