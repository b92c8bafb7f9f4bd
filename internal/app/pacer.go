package app

import "github.com/gifcase/gifship/internal/pacing"

// pacer tracks when the streaming loop must yield and when it must pause.
type pacer struct {
	yieldEvery    int
	breatherEvery int

	writesSinceYield   int
	bytesSinceBreather int
	sent               int
}

// newPacer creates a pacer for one attempt from a snapshot of the policy.
func newPacer(p pacing.Policy) *pacer {
	return &pacer{
		yieldEvery:    p.YieldEveryWrites,
		breatherEvery: p.BreatherEveryBytes,
	}
}

// Record accounts for one write of n bytes.
// It returns whether to yield and whether to take a breather before the next write.
func (p *pacer) Record(n int) (yield, breathe bool) {
	p.sent += n

	p.writesSinceYield++
	if p.yieldEvery > 0 && p.writesSinceYield >= p.yieldEvery {
		p.writesSinceYield = 0
		yield = true
	}

	p.bytesSinceBreather += n
	if p.breatherEvery > 0 && p.bytesSinceBreather >= p.breatherEvery {
		p.bytesSinceBreather -= p.breatherEvery
		breathe = true
	}

	return yield, breathe
}

// Sent returns the total bytes recorded.
func (p *pacer) Sent() int {
	return p.sent
}
