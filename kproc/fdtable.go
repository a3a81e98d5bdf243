package kproc

import (
	"github.com/joeycumines/pintos-go/kerrors"
	"github.com/joeycumines/pintos-go/klist"
)

// FileHandle is the opaque file object a process's open descriptors point
// at: read/write/seek/length/reopen/duplicate/close. Filesystem and disk
// drivers are out of scope; any concrete implementation (an in-memory fake
// for cmd/pintosim, a real os.File wrapper) satisfies this purely
// structurally.
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

// StdStream identifies one of the two sentinel descriptors every FDTable is
// born with.
type StdStream int

const (
	// StreamNone marks an FdEntry that points at a real FileEntry rather
	// than a standard-stream sentinel.
	StreamNone StdStream = iota
	Stdin
	Stdout

	// fdStdin and fdStdout are the known-small descriptor numbers every
	// table is born with — 0 and 1, the conventional Unix values.
	fdStdin  = 0
	fdStdout = 1
)

// FileEntry holds one open file handle. Several FdEntry records may
// reference the same FileEntry, though Open never creates more than one
// per call.
type FileEntry struct {
	node   klist.Node
	handle FileHandle
}

// FdEntry is an integer descriptor plus a pointer to either a FileEntry or
// a standard-stream sentinel.
type FdEntry struct {
	node   klist.Node
	fd     int
	file   *FileEntry
	stream StdStream
}

// FDTable is the per-process file-descriptor table: one list of open
// files, one list of descriptors. A third, page-arena-backed list is a
// natural fit for a language without a garbage collector, bounding
// allocation to whole kernel pages; Go's GC makes that bookkeeping
// unnecessary, so only the two lists below are kept, documented in
// DESIGN.md.
type FDTable struct {
	files  klist.List
	fds    klist.List
	nextFd int
}

// NewFDTable returns an FDTable pre-populated with the stdin/stdout
// sentinels at descriptors 0 and 1.
func NewFDTable() *FDTable {
	t := &FDTable{nextFd: 2}
	t.files.Init()
	t.fds.Init()
	t.pushStd(fdStdin, Stdin)
	t.pushStd(fdStdout, Stdout)
	return t
}

func (t *FDTable) pushStd(fd int, stream StdStream) {
	e := &FdEntry{fd: fd, stream: stream}
	e.node.Owner = e
	t.fds.PushBack(&e.node)
}

// Open registers handle under a freshly allocated descriptor and returns
// it.
func (t *FDTable) Open(handle FileHandle) int {
	fe := &FileEntry{handle: handle}
	fe.node.Owner = fe
	t.files.PushBack(&fe.node)

	fd := t.nextFd
	t.nextFd++
	de := &FdEntry{fd: fd, file: fe}
	de.node.Owner = de
	t.fds.PushBack(&de.node)
	return fd
}

// Lookup returns the FdEntry for fd, or nil if no such descriptor is open.
func (t *FDTable) Lookup(fd int) *FdEntry {
	var found *FdEntry
	t.fds.Do(func(n *klist.Node) {
		if found != nil {
			return
		}
		e := klist.Entry[FdEntry](n)
		if e.fd == fd {
			found = e
		}
	})
	return found
}

// Stream reports which standard-stream sentinel e is, or StreamNone if e
// refers to a real open file.
func (e *FdEntry) Stream() StdStream { return e.stream }

// Handle returns e's backing file handle, or nil for a standard-stream
// sentinel.
func (e *FdEntry) Handle() FileHandle {
	if e.file == nil {
		return nil
	}
	return e.file.handle
}

// Close closes and removes fd, closing the underlying handle if this was
// the last descriptor referencing it.
func (t *FDTable) Close(fd int) error {
	e := t.Lookup(fd)
	if e == nil {
		return kerrors.NotFound("close: no such descriptor", nil)
	}
	t.fds.Remove(&e.node)
	if e.file == nil {
		return nil
	}
	if t.refCount(e.file) == 0 {
		t.files.Remove(&e.file.node)
		return e.file.handle.Close()
	}
	return nil
}

func (t *FDTable) refCount(fe *FileEntry) int {
	n := 0
	t.fds.Do(func(node *klist.Node) {
		if klist.Entry[FdEntry](node).file == fe {
			n++
		}
	})
	return n
}

// CloseAll closes every open file handle, releasing the table's resources.
func (t *FDTable) CloseAll() {
	t.files.Do(func(n *klist.Node) {
		_ = klist.Entry[FileEntry](n).handle.Close()
	})
	t.files.Init()
	t.fds.Init()
}

// Duplicate deep-copies the table for fork: each FileEntry's handle is
// duplicated via the filesystem's own handle-duplication primitive, and
// each FdEntry is rebuilt pointing at its new FileEntry. A map from old to
// new FileEntry stands in for a migration-pointer scheme — rewriting
// intra-arena pointers by address translation — which Go's garbage
// collector makes unnecessary.
func (t *FDTable) Duplicate() (*FDTable, error) {
	dup := &FDTable{nextFd: t.nextFd}
	dup.files.Init()
	dup.fds.Init()

	translate := make(map[*FileEntry]*FileEntry)
	var dupErr error
	t.files.Do(func(n *klist.Node) {
		if dupErr != nil {
			return
		}
		src := klist.Entry[FileEntry](n)
		h, err := src.handle.Duplicate()
		if err != nil {
			dupErr = kerrors.OutOfResource("fdtable: duplicate handle", err)
			return
		}
		dst := &FileEntry{handle: h}
		dst.node.Owner = dst
		dup.files.PushBack(&dst.node)
		translate[src] = dst
	})
	if dupErr != nil {
		dup.CloseAll()
		return nil, dupErr
	}

	t.fds.Do(func(n *klist.Node) {
		src := klist.Entry[FdEntry](n)
		dst := &FdEntry{fd: src.fd, stream: src.stream}
		if src.file != nil {
			dst.file = translate[src.file]
		}
		dst.node.Owner = dst
		dup.fds.PushBack(&dst.node)
	})
	return dup, nil
}
