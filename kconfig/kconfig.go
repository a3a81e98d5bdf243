package kconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Scheduling constants shared by kthread, kvm, and cmd/pintosim.
const (
	PriMin    = 0
	PriMax    = 63
	PriDefault = 31

	NiceMin     = -20
	NiceMax     = 20
	NiceDefault = 0

	// TimeSlice is the number of ticks a thread runs before it is forced to
	// yield.
	TimeSlice = 4

	// TimerFreq is the number of ticks per second, used by the MLFQ
	// governor's once-a-second recompute and by the boot
	// protocol's "second()" hook.
	TimerFreq = 100

	// UserStackTop and StackLimit bound the stack-growth region the
	// page-fault handler recognizes.
	UserStackTop = 0x4748_0000
	StackLimit   = 1 << 20 // 1 MiB

	// PageSize is the granularity of every user-pool frame and supplemental
	// page table entry.
	PageSize = 4096

	// KernelBase is the first virtual address reserved for the kernel; a
	// user-mode fault referencing anything at or above it is a protection
	// violation. Matches a conventional 3 GiB/1 GiB user/kernel split.
	KernelBase = 0xC000_0000
)

// Manifest is the boot-time configuration loaded from an optional TOML
// manifest, the kernel-command-line-option analogue of "-o mlfqs".
type Manifest struct {
	Scheduler struct {
		// MLFQS enables the multi-level feedback queue governor in place of
		// priority donation.
		MLFQS bool `toml:"mlfqs"`
	} `toml:"scheduler"`

	VM struct {
		// FramePoolPages bounds the user pool the frame allocator draws
		// from; the physical allocator itself is out of scope,
		// so this is a configured constant rather than a host-memory query.
		FramePoolPages int `toml:"frame_pool_pages"`
	} `toml:"vm"`
}

// DefaultManifest returns the manifest used when no boot manifest file is
// supplied: donation-based scheduling, a 256-page user pool.
func DefaultManifest() Manifest {
	var m Manifest
	m.VM.FramePoolPages = 256
	return m
}

// LoadManifest parses a TOML boot manifest from path. A missing file is not
// an error; DefaultManifest is returned instead, since most boots pass no
// manifest at all.
func LoadManifest(path string) (Manifest, error) {
	m := DefaultManifest()
	if path == "" {
		return m, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return m, nil
	}
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return m, fmt.Errorf("kconfig: decode %s: %w", path, err)
	}
	return m, nil
}
