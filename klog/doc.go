// Package klog is the kernel's structured-logging façade: a thin wrapper
// around github.com/joeycumines/logiface (using the zerolog backend by
// default) exposing a single Logger type rather than leaking the full
// logiface generic surface into every kernel package.
//
// klog records process exits (kproc) and failed fork address-space copies
// (cmd/pintosim). kthread accepts a Logger through WithLogger but writes no
// records of its own, and kvm does not log at all, so the per-tick
// recent_cpu increment and the ready-set Max scan stay on the
// allocation-free path.
package klog
