package kvm

import (
	"errors"
	"io"
	"sync"
)

// memFile is an in-memory FileHandle fake, the kvm-side counterpart of
// kproc's fakeFile. Reopen and Duplicate share the same backing buffer
// (a real reopen or dup of the same inode would too) but give the new
// handle its own file position.
type memFile struct {
	data *[]byte
	pos  int64
}

func newMemFile(initial []byte) *memFile {
	d := append([]byte(nil), initial...)
	return &memFile{data: &d}
}

func (f *memFile) Read(buf []byte) (int, error) {
	if f.pos >= int64(len(*f.data)) {
		return 0, io.EOF
	}
	n := copy(buf, (*f.data)[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *memFile) Write(buf []byte) (int, error) {
	end := f.pos + int64(len(buf))
	if end > int64(len(*f.data)) {
		grown := make([]byte, end)
		copy(grown, *f.data)
		*f.data = grown
	}
	copy((*f.data)[f.pos:end], buf)
	f.pos = end
	return len(buf), nil
}

func (f *memFile) Seek(pos int64) error { f.pos = pos; return nil }
func (f *memFile) Tell() int64         { return f.pos }
func (f *memFile) Length() int64       { return int64(len(*f.data)) }

func (f *memFile) Reopen() (FileHandle, error)    { return &memFile{data: f.data}, nil }
func (f *memFile) Duplicate() (FileHandle, error) { return &memFile{data: f.data}, nil }
func (f *memFile) Close() error                   { return nil }

type pteKey struct {
	proc ProcID
	va   VPage
}

type mmuEntry struct {
	frame    *Frame
	writable bool
	dirty    bool
}

// fakeMMU is an in-memory stand-in for the hardware page table: a map from
// (proc, va) to the installed frame, writable flag, and dirty bit.
type fakeMMU struct {
	mu    sync.Mutex
	table map[pteKey]*mmuEntry
}

func newFakeMMU() *fakeMMU {
	return &fakeMMU{table: make(map[pteKey]*mmuEntry)}
}

func (m *fakeMMU) Map(proc ProcID, va VPage, frame *Frame, writable bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table[pteKey{proc, va}] = &mmuEntry{frame: frame, writable: writable}
	return true
}

func (m *fakeMMU) Unmap(proc ProcID, va VPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.table, pteKey{proc, va})
}

func (m *fakeMMU) Lookup(proc ProcID, va VPage) (*Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.table[pteKey{proc, va}]
	if !ok {
		return nil, false
	}
	return e.frame, true
}

func (m *fakeMMU) IsDirty(proc ProcID, va VPage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.table[pteKey{proc, va}]
	return ok && e.dirty
}

func (m *fakeMMU) ClearDirty(proc ProcID, va VPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.table[pteKey{proc, va}]; ok {
		e.dirty = false
	}
}

// MarkDirty simulates the hardware setting a page's dirty bit on a write,
// since this fake has no actual memory-management unit behind it.
func (m *fakeMMU) MarkDirty(proc ProcID, va VPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.table[pteKey{proc, va}]; ok {
		e.dirty = true
	}
}

// fakeSwap is an in-memory SwapDevice: a map from slot number to the bytes
// written there.
type fakeSwap struct {
	mu    sync.Mutex
	slots map[int][]byte
	next  int
}

func newFakeSwap() *fakeSwap {
	return &fakeSwap{slots: make(map[int][]byte)}
}

func (s *fakeSwap) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.next
	s.next++
	s.slots[slot] = append([]byte(nil), data...)
	return slot, nil
}

func (s *fakeSwap) Read(slot int, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.slots[slot]
	if !ok {
		return errors.New("fakeSwap: no such slot")
	}
	copy(buf, d)
	return nil
}

func (s *fakeSwap) Free(slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
}
