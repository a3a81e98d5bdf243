// Package kvm implements demand-paged virtual memory atop an opaque MMU,
// file, and swap-device collaborator: a supplemental page
// table per address space, a shared frame allocator with second-chance
// eviction, a page-fault handler including stack growth, mmap/munmap, and
// copy-on-fork.
//
// kvm does not import kproc: an AddressSpace is addressed by the
// caller-supplied ProcID (cmd/pintosim derives it from the kthread.TID in
// the hook it installs with kproc.WithOnFork), the
// same interface-based indirection ksync uses to plug into kthread without
// a cyclic dependency.
package kvm
