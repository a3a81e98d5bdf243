package kthread

import (
	"github.com/joeycumines/pintos-go/klist"
)

func sleepLess(a, b *klist.Node) bool {
	ta := klist.Entry[Thread](a)
	tb := klist.Entry[Thread](b)
	return ta.wakeTick < tb.wakeTick
}

// SleepUntil blocks the calling thread until the scheduler's tick clock
// reaches wakeTick. The sleep set is kept ordered by wake
// tick so wakeSleepersLocked can stop at the first thread not yet due.
func (s *Scheduler) SleepUntil(wakeTick int64) {
	s.mu.Lock()
	cur := s.current
	if wakeTick <= s.tick {
		s.mu.Unlock()
		return
	}
	cur.wakeTick = wakeTick
	s.sleep.InsertOrdered(&cur.schedNode, sleepLess)
	s.Block()
	cur.wakeTick = -1
	s.mu.Unlock()
}

// wakeSleepersLocked moves every thread whose deadline has arrived from the
// sleep set to the ready set. Called with the lock held, from Tick.
func (s *Scheduler) wakeSleepersLocked(now int64) {
	for {
		node := s.sleep.Front()
		if node == nil {
			return
		}
		t := klist.Entry[Thread](node)
		if t.wakeTick > now {
			return
		}
		s.sleep.Remove(node)
		t.state = StateBlocked // sleep-set membership is not a scheduler state; normalize before unblocking
		s.unblockLocked(t)
	}
}
