// Package klist implements an intrusive doubly-linked list: a Node is
// embedded directly in the owning struct (a thread, a lock waiter, a frame),
// so membership in a list costs no extra allocation and a node can be
// removed in O(1) given only a pointer to it. This is how the kernel
// expresses that a thread simultaneously belongs to all_threads and to at
// most one of the ready or sleep sets.
package klist
