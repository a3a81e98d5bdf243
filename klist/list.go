package klist

// Node is embedded in any struct that participates in a List. A Node must
// not be copied once linked; its address is its identity. Owner lets a
// caller holding only a *Node (e.g. from Max or Front) recover the entity
// that embeds it, without unsafe container-of pointer arithmetic.
type Node struct {
	next, prev *Node
	list       *List
	Owner      any
}

// Entry recovers the owning value of type *T from a Node returned by this
// list, e.g. klist.Entry[Thread](node). Panics if n.Owner was never set to a
// *T, which indicates a programming error in the owning package.
func Entry[T any](n *Node) *T {
	return n.Owner.(*T)
}

// Linked reports whether n is currently linked into some List.
func (n *Node) Linked() bool {
	return n.list != nil
}

// List is an intrusive doubly-linked list whose single root node serves as
// both head and tail sentinel. The zero value is an empty list, initialized
// lazily on first use; Init resets a list to empty.
type List struct {
	root Node // root.next == front, root.prev == back
}

// New returns an initialized empty List.
func New() *List {
	l := &List{}
	l.Init()
	return l
}

// Init (re-)initializes l as empty. Useful for embedding a List by value.
func (l *List) Init() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.root.list = l
}

func (l *List) lazyInit() {
	if l.root.next == nil {
		l.Init()
	}
}

// Empty reports whether l has no elements.
func (l *List) Empty() bool {
	l.lazyInit()
	return l.root.next == &l.root
}

// Front returns the first node, or nil if l is empty.
func (l *List) Front() *Node {
	l.lazyInit()
	if l.Empty() {
		return nil
	}
	return l.root.next
}

// Back returns the last node, or nil if l is empty.
func (l *List) Back() *Node {
	l.lazyInit()
	if l.Empty() {
		return nil
	}
	return l.root.prev
}

// PushBack appends n to the end of l.
func (l *List) PushBack(n *Node) {
	l.lazyInit()
	l.insertAfter(n, l.root.prev)
}

// PushFront prepends n to the front of l.
func (l *List) PushFront(n *Node) {
	l.lazyInit()
	l.insertAfter(n, &l.root)
}

// InsertBefore inserts n immediately before mark, which must already be
// linked into l.
func (l *List) InsertBefore(n, mark *Node) {
	if mark.list != l {
		panic("klist: mark is not an element of this list")
	}
	l.insertAfter(n, mark.prev)
}

func (l *List) insertAfter(n, at *Node) {
	if n.list != nil {
		panic("klist: node is already linked into a list")
	}
	n.prev = at
	n.next = at.next
	n.prev.next = n
	n.next.prev = n
	n.list = l
}

// InsertOrdered inserts n before the first existing element for which
// less(n, existing) is true, preserving ascending order and FIFO order among
// equal elements (spec semantics: ties keep insertion order).
func (l *List) InsertOrdered(n *Node, less func(a, b *Node) bool) {
	l.lazyInit()
	for cur := l.root.next; cur != &l.root; cur = cur.next {
		if less(n, cur) {
			l.InsertBefore(n, cur)
			return
		}
	}
	l.PushBack(n)
}

// Remove unlinks n from whatever list it belongs to. It is a no-op if n is
// not linked.
func (l *List) Remove(n *Node) {
	if n.list == nil {
		return
	}
	if n.list != l {
		panic("klist: node belongs to a different list")
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil
	n.prev = nil
	n.list = nil
}

// PopFront removes and returns the front node, or nil if l is empty.
func (l *List) PopFront() *Node {
	n := l.Front()
	if n == nil {
		return nil
	}
	l.Remove(n)
	return n
}

// Max returns the element for which less never reports another element as
// greater, scanning front-to-back so the first maximal element wins on ties
// (this is what gives FIFO-among-equal-priority semantics to the scheduler's
// ready-set pick). Returns nil if l is empty.
func (l *List) Max(less func(a, b *Node) bool) *Node {
	l.lazyInit()
	if l.Empty() {
		return nil
	}
	best := l.root.next
	for cur := best.next; cur != &l.root; cur = cur.next {
		if less(best, cur) {
			best = cur
		}
	}
	return best
}

// Do calls fn for every node in l, front to back. fn must not mutate l.
func (l *List) Do(fn func(*Node)) {
	l.lazyInit()
	for cur := l.root.next; cur != &l.root; cur = cur.next {
		fn(cur)
	}
}

// Len counts the elements in l. O(n); intended for tests and diagnostics.
func (l *List) Len() int {
	l.lazyInit()
	n := 0
	for cur := l.root.next; cur != &l.root; cur = cur.next {
		n++
	}
	return n
}
