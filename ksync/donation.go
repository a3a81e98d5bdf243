package ksync

import (
	"github.com/joeycumines/pintos-go/klist"
	"github.com/joeycumines/pintos-go/kthread"
)

// donationSource implements kthread.DonationSource over ksync's own Lock
// type. It carries no state: a thread's donated priority is always derived
// fresh from the locks it currently holds.
type donationSource struct{}

// Donation returns the kthread.DonationSource backed by ksync locks, for
// wiring into a Scheduler via kthread.WithDonationSource or
// Scheduler.SetDonationSource. A scheduler that never sees this wired in
// simply never donates, which is a valid (if priority-inversion-prone)
// configuration a scheduler can choose.
func Donation() kthread.DonationSource { return donationSource{} }

// MaxWaiterPriority walks t's owned locks and returns the highest priority
// among all of their waiters combined, the donation t is currently
// receiving. Called by the scheduler with its own lock already held.
func (donationSource) MaxWaiterPriority(t *kthread.Thread) (int, bool) {
	best := 0
	found := false
	t.OwnedLocks().Do(func(n *klist.Node) {
		lock := klist.Entry[Lock](n)
		p, ok := lock.maxWaiterPriority()
		if ok && (!found || p > best) {
			best = p
			found = true
		}
	})
	return best, found
}
