package main

import (
	"io"
	"sync"

	"github.com/joeycumines/pintos-go/kerrors"
	"github.com/joeycumines/pintos-go/kproc"
	"github.com/joeycumines/pintos-go/kvm"
)

// memFile is an in-memory stand-in for a real filesystem file: the backing
// bytes are shared by pointer across Reopen and Duplicate (as a real file's
// contents are shared across descriptors pointing at the same inode), but
// the read/write cursor is independent per handle: Reopen and Duplicate
// behave identically, each starting a new handle at offset 0.
//
// kvm.FileHandle and kproc.FileHandle are separately declared (to keep the
// import edge between those packages one-directional) but structurally
// identical; memFile itself only ever appears behind the two thin adapters
// below, kvmFile and kprocFile, since a single Reopen/Duplicate method
// cannot return both named interface types at once.
type memFile struct {
	mu   *sync.Mutex
	data *[]byte
	pos  int64
}

// kvmFile adapts a memFile to kvm.FileHandle.
type kvmFile struct{ *memFile }

func (f kvmFile) Reopen() (kvm.FileHandle, error) {
	dup, err := f.memFile.reopen()
	return kvmFile{dup}, err
}

func (f kvmFile) Duplicate() (kvm.FileHandle, error) {
	dup, err := f.memFile.reopen()
	return kvmFile{dup}, err
}

// kprocFile adapts a memFile to kproc.FileHandle.
type kprocFile struct{ *memFile }

func (f kprocFile) Reopen() (kproc.FileHandle, error) {
	dup, err := f.memFile.reopen()
	return kprocFile{dup}, err
}

func (f kprocFile) Duplicate() (kproc.FileHandle, error) {
	dup, err := f.memFile.reopen()
	return kprocFile{dup}, err
}

func newMemFile(contents []byte) *memFile {
	buf := append([]byte(nil), contents...)
	return &memFile{mu: &sync.Mutex{}, data: &buf}
}

func (f *memFile) reopen() (*memFile, error) {
	return &memFile{mu: f.mu, data: f.data}, nil
}

func (f *memFile) Read(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pos >= int64(len(*f.data)) {
		return 0, io.EOF
	}
	n := copy(buf, (*f.data)[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *memFile) Write(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	end := f.pos + int64(len(buf))
	if end > int64(len(*f.data)) {
		grown := make([]byte, end)
		copy(grown, *f.data)
		*f.data = grown
	}
	n := copy((*f.data)[f.pos:end], buf)
	f.pos += int64(n)
	return n, nil
}

func (f *memFile) Seek(pos int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pos < 0 {
		return kerrors.InvalidArgument("memfile: negative seek", nil)
	}
	f.pos = pos
	return nil
}

func (f *memFile) Tell() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *memFile) Length() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(*f.data))
}

func (f *memFile) Close() error { return nil }

// memMMU is an in-memory page table: a map keyed by (process, virtual page)
// standing in for the arch-specific hardware table kvm.MMU abstracts over.
type memMMU struct {
	mu    sync.Mutex
	table map[memPTE]*memMapping
}

type memPTE struct {
	proc kvm.ProcID
	va   kvm.VPage
}

type memMapping struct {
	frame    *kvm.Frame
	writable bool
	dirty    bool
}

func newMemMMU() *memMMU {
	return &memMMU{table: make(map[memPTE]*memMapping)}
}

func (m *memMMU) Map(proc kvm.ProcID, va kvm.VPage, frame *kvm.Frame, writable bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table[memPTE{proc, va}] = &memMapping{frame: frame, writable: writable}
	return true
}

func (m *memMMU) Unmap(proc kvm.ProcID, va kvm.VPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.table, memPTE{proc, va})
}

func (m *memMMU) Lookup(proc kvm.ProcID, va kvm.VPage) (*kvm.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.table[memPTE{proc, va}]
	if !ok {
		return nil, false
	}
	return e.frame, true
}

func (m *memMMU) IsDirty(proc kvm.ProcID, va kvm.VPage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.table[memPTE{proc, va}]
	return ok && e.dirty
}

func (m *memMMU) ClearDirty(proc kvm.ProcID, va kvm.VPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.table[memPTE{proc, va}]; ok {
		e.dirty = false
	}
}

// MarkDirty simulates hardware setting the dirty bit on a store
// instruction, since nothing in this simulator executes real machine code
// against the mapped frame.
func (m *memMMU) MarkDirty(proc kvm.ProcID, va kvm.VPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.table[memPTE{proc, va}]; ok {
		e.dirty = true
	}
}

// memSwap is an in-memory swap device: slots are just map entries rather
// than offsets into a backing disk partition.
type memSwap struct {
	mu    sync.Mutex
	slots map[int][]byte
	next  int
}

func newMemSwap() *memSwap {
	return &memSwap{slots: make(map[int][]byte)}
}

func (s *memSwap) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.next
	s.next++
	s.slots[slot] = append([]byte(nil), data...)
	return slot, nil
}

func (s *memSwap) Read(slot int, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.slots[slot]
	if !ok {
		return kerrors.NotFound("swap: no such slot", nil)
	}
	copy(buf, data)
	return nil
}

func (s *memSwap) Free(slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
}
