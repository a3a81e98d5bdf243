// Package kconfig holds the kernel's boot-time configuration: the
// scheduler tunables (PRI_MIN/PRI_MAX/TIME_SLICE/TIMER_FREQ, and whether the
// MLFQ governor replaces priority donation) plus a TOML boot manifest
// loader, the Go-idiomatic stand-in for a kernel-command-line "-o mlfqs"
// style flag.
package kconfig
