package klist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	node     Node
	priority int
	seq      int
}

func newItem(priority, seq int) *item {
	it := &item{priority: priority, seq: seq}
	it.node.Owner = it
	return it
}

func lessByPriority(a, b *Node) bool {
	return Entry[item](a).priority < Entry[item](b).priority
}

func TestPushBackPopFrontFIFO(t *testing.T) {
	l := New()
	a, b, c := newItem(0, 1), newItem(0, 2), newItem(0, 3)
	l.PushBack(&a.node)
	l.PushBack(&b.node)
	l.PushBack(&c.node)

	require.Equal(t, 3, l.Len())
	require.Equal(t, a, Entry[item](l.PopFront()))
	require.Equal(t, b, Entry[item](l.PopFront()))
	require.Equal(t, c, Entry[item](l.PopFront()))
	require.True(t, l.Empty())
}

func TestMaxReturnsHighestPriority(t *testing.T) {
	// Priority donation scenario: L(31), M(33), H(63) pushed in that order;
	// Max must return the element whose priority nothing exceeds.
	l := New()
	low := newItem(31, 1)
	mid := newItem(33, 2)
	high := newItem(63, 3)
	l.PushBack(&low.node)
	l.PushBack(&mid.node)
	l.PushBack(&high.node)

	got := Entry[item](l.Max(lessByPriority))
	require.Equal(t, high, got)
}

func TestMaxTieBreaksFIFO(t *testing.T) {
	l := New()
	first := newItem(10, 1)
	second := newItem(10, 2)
	l.PushBack(&first.node)
	l.PushBack(&second.node)

	got := Entry[item](l.Max(lessByPriority))
	require.Equal(t, first, got, "first maximal element wins on ties")
}

func TestInsertOrderedSleepQueue(t *testing.T) {
	// s1(wake=130), s2(wake=120), s3(wake=120) inserted in that order must
	// yield wake order s2, s3, s1 and stay sorted ascending by wake tick.
	lessByWake := func(a, b *Node) bool {
		return Entry[item](a).priority < Entry[item](b).priority
	}
	l := New()
	s1 := newItem(130, 1)
	s2 := newItem(120, 2)
	s3 := newItem(120, 3)
	l.InsertOrdered(&s1.node, lessByWake)
	l.InsertOrdered(&s2.node, lessByWake)
	l.InsertOrdered(&s3.node, lessByWake)

	var order []int
	l.Do(func(n *Node) { order = append(order, Entry[item](n).seq) })
	require.Equal(t, []int{2, 3, 1}, order)
}

func TestRemoveIsNoopWhenUnlinked(t *testing.T) {
	l := New()
	it := newItem(0, 1)
	require.NotPanics(t, func() { l.Remove(&it.node) })
}

func TestInsertBeforePanicsOnForeignMark(t *testing.T) {
	l1, l2 := New(), New()
	mark := newItem(0, 1)
	l2.PushBack(&mark.node)
	n := newItem(0, 2)
	require.Panics(t, func() { l1.InsertBefore(&n.node, &mark.node) })
}
