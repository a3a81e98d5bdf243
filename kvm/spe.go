package kvm

import (
	"github.com/joeycumines/pintos-go/kconfig"
	"github.com/joeycumines/pintos-go/klist"
)

// PageSize is the byte size of every Frame, re-exported from kconfig so
// kvm's own constant expressions (the Frame.data array bound) read
// naturally without a package-qualified reference at every use site.
const PageSize = kconfig.PageSize

// SPEType is a supplemental page entry's backing kind.
type SPEType int

const (
	// Uninit entries carry a deferred initializer and morph into Anon or
	// FileBacked the first time they are claimed.
	Uninit SPEType = iota
	Anon
	FileBacked
)

func (t SPEType) String() string {
	switch t {
	case Uninit:
		return "uninit"
	case Anon:
		return "anon"
	case FileBacked:
		return "file-backed"
	default:
		return "unknown"
	}
}

// SPE is a supplemental page entry: the authoritative per-(address space,
// virtual page) record of how to back a page on demand.
type SPE struct {
	vpage    VPage
	typ      SPEType
	writable bool

	as    *AddressSpace
	frame *Frame

	// targetType and initFn back an Uninit entry: claim installs
	// targetType as the entry's real type, then runs initFn to load the
	// frame's contents.
	targetType SPEType
	initFn     func(spe *SPE, frame *Frame) bool
	aux        any

	// FileBacked fields: Mmap fills them in on the Uninit entry as soon as
	// it is created (and the initializer sets them again at claim), so fork
	// and munmap can read them back.
	file      FileHandle
	offset    int64
	readBytes int
	zeroBytes int

	// pageCount is recorded on the first SPE of an mmap region so munmap
	// can iterate every page of the mapping from any one of them.
	pageCount int

	// swapSlot is the swap device slot holding this page's contents while
	// evicted, or -1 when the page is either unclaimed or currently
	// resident in a frame.
	swapSlot int
}

// Type reports the entry's current backing kind.
func (s *SPE) Type() SPEType { return s.typ }

// Writable reports the entry's writable flag, stored on the SPE itself
// rather than on any hardware PTE until the page is claimed.
func (s *SPE) Writable() bool { return s.writable }

// Frame returns the entry's backing frame, or nil if unclaimed or evicted.
func (s *SPE) Frame() *Frame { return s.frame }

// AnonInitializer returns the lazy-load closure for a fresh anonymous page.
// The frame may be one just recycled from an evicted page rather than
// freshly allocated, so its contents are explicitly zeroed rather than
// relying on a zero-valued backing array.
func AnonInitializer() func(spe *SPE, frame *Frame) bool {
	return func(spe *SPE, frame *Frame) bool {
		for i := range frame.data {
			frame.data[i] = 0
		}
		return true
	}
}

// FileBackedInitializer returns the lazy-load closure for claim's morph of
// an Uninit entry into FileBacked: seek the file to offset, read readBytes
// into the frame, and zero the remaining zeroBytes.
func FileBackedInitializer(file FileHandle, offset int64, readBytes, zeroBytes int) func(spe *SPE, frame *Frame) bool {
	return func(spe *SPE, frame *Frame) bool {
		spe.file = file
		spe.offset = offset
		spe.readBytes = readBytes
		spe.zeroBytes = zeroBytes
		if err := file.Seek(offset); err != nil {
			return false
		}
		n, err := file.Read(frame.data[:readBytes])
		if err != nil {
			return false
		}
		// The frame may be one just recycled from an evicted page, so every
		// byte past the actual read — the short-read gap within readBytes,
		// and the zeroBytes tail beyond it entirely — is zeroed explicitly
		// rather than relying on a freshly-allocated frame's zero value.
		for i := n; i < readBytes+zeroBytes; i++ {
			frame.data[i] = 0
		}
		return true
	}
}

// Frame is a physical kernel page: a fixed-size byte buffer, a backpointer
// to the SPE it currently backs (nil when free), and linkage in the
// allocator's global frame table.
type Frame struct {
	node  klist.Node
	data  [PageSize]byte
	owner *SPE

	// chance implements the second-chance/clock eviction policy: a frame
	// just installed starts with chance=true; the clock hand clears it on
	// its first pass (the reprieve) and evicts on the second.
	chance bool
}

// Data returns the frame's backing storage, the simulator's stand-in for a
// physical kernel address.
func (f *Frame) Data() []byte { return f.data[:] }
