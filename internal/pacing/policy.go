// Package pacing holds the chunk-size and delay settings that throttle
// streaming, and the one-way ladder used to tighten them after failures.
package pacing

import (
	"fmt"
	"time"

	"github.com/gifcase/gifship/internal/domain"
)

// Ladder is the descending sequence of chunk sizes used when tightening.
var Ladder = []int{240, 200, 160, 120}

// Default pacing values.
const (
	MaxChunk = 240
	MinChunk = 120

	DefaultYieldEveryWrites   = 200
	DefaultBreatherEveryBytes = MaxChunk * 2000
	DefaultBreatherSleep      = 10 * time.Millisecond
	DefaultBreatherStep       = 10 * time.Millisecond
	DefaultMaxBreatherSleep   = 100 * time.Millisecond
)

// MTU bounds, in bytes of GATT payload. A reported MTU below minUsableMTU is
// treated as unknown.
const (
	minUsableMTU = 50
	attOverhead  = 3
	minMTUChunk  = 20
	maxMTUChunk  = 494
)

// Policy governs how a single attempt streams data.
// It is owned by the transfer controller and only changed between attempts.
type Policy struct {
	// ChunkSize is the number of payload bytes per data write.
	ChunkSize int

	// YieldEveryWrites is the number of writes between cooperative yields.
	YieldEveryWrites int

	// BreatherEveryBytes is the number of bytes between breather pauses.
	BreatherEveryBytes int

	// BreatherSleep is the pause length. It only grows, up to MaxBreatherSleep.
	BreatherSleep time.Duration

	// BreatherStep is added to BreatherSleep when tightening at the ladder floor.
	BreatherStep time.Duration

	// MaxBreatherSleep caps BreatherSleep.
	MaxBreatherSleep time.Duration
}

// Default returns the pacing used by the original firmware tooling.
func Default() Policy {
	return Policy{
		ChunkSize:          MaxChunk,
		YieldEveryWrites:   DefaultYieldEveryWrites,
		BreatherEveryBytes: DefaultBreatherEveryBytes,
		BreatherSleep:      DefaultBreatherSleep,
		BreatherStep:       DefaultBreatherStep,
		MaxBreatherSleep:   DefaultMaxBreatherSleep,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.ChunkSize <= 0 || p.ChunkSize > MaxChunk {
		return fmt.Errorf("%w: chunk size must be in 1..%d, got %d", domain.ErrInvalidConfig, MaxChunk, p.ChunkSize)
	}
	if p.YieldEveryWrites <= 0 {
		return fmt.Errorf("%w: yield-every-writes must be positive", domain.ErrInvalidConfig)
	}
	if p.BreatherEveryBytes <= 0 {
		return fmt.Errorf("%w: breather-every-bytes must be positive", domain.ErrInvalidConfig)
	}
	if p.BreatherSleep < 0 || p.BreatherStep < 0 {
		return fmt.Errorf("%w: breather durations must not be negative", domain.ErrInvalidConfig)
	}
	if p.MaxBreatherSleep < p.BreatherSleep {
		return fmt.Errorf("%w: max breather %s is below breather %s", domain.ErrInvalidConfig, p.MaxBreatherSleep, p.BreatherSleep)
	}
	return nil
}

// AtFloor reports whether no smaller ladder step remains.
func (p Policy) AtFloor() bool {
	_, ok := nextStep(p.ChunkSize)
	return !ok
}

// EffectiveChunk returns the chunk size to use on a link with the given MTU.
// Unknown or tiny MTUs keep ChunkSize; otherwise the chunk is capped to the
// MTU payload. The result never exceeds ChunkSize.
func (p Policy) EffectiveChunk(mtu int) int {
	if mtu < minUsableMTU {
		return p.ChunkSize
	}
	c := mtu - attOverhead
	if c < minMTUChunk {
		c = minMTUChunk
	}
	if c > maxMTUChunk {
		c = maxMTUChunk
	}
	if c > p.ChunkSize {
		return p.ChunkSize
	}
	return c
}

// Clamp lowers ChunkSize to limit when limit is positive and smaller.
// It reports whether ChunkSize changed.
func (p *Policy) Clamp(limit int) bool {
	if limit <= 0 || limit >= p.ChunkSize {
		return false
	}
	p.ChunkSize = limit
	return true
}

// Change describes the effect of one Tighten call.
type Change struct {
	PrevChunkSize     int
	ChunkSize         int
	PrevBreatherSleep time.Duration
	BreatherSleep     time.Duration
}

// Changed reports whether anything moved.
func (c Change) Changed() bool {
	return c.PrevChunkSize != c.ChunkSize || c.PrevBreatherSleep != c.BreatherSleep
}

// Tighten moves one step down the ladder. At the floor it grows BreatherSleep
// by BreatherStep, capped at MaxBreatherSleep. It never loosens.
func (p *Policy) Tighten() Change {
	return p.TightenFrom(0)
}

// TightenFrom is Tighten for a link that streamed at most wire bytes per
// write. The policy is first clamped to wire, so the next step is the largest
// ladder value below what was actually sent. A zero wire means no cap.
func (p *Policy) TightenFrom(wire int) Change {
	p.Clamp(wire)
	ch := Change{
		PrevChunkSize:     p.ChunkSize,
		PrevBreatherSleep: p.BreatherSleep,
	}

	if next, ok := nextStep(p.ChunkSize); ok {
		p.ChunkSize = next
	} else {
		sleep := p.BreatherSleep + p.BreatherStep
		if sleep > p.MaxBreatherSleep {
			sleep = p.MaxBreatherSleep
		}
		if sleep > p.BreatherSleep {
			p.BreatherSleep = sleep
		}
	}

	ch.ChunkSize = p.ChunkSize
	ch.BreatherSleep = p.BreatherSleep
	return ch
}

// nextStep returns the largest ladder value strictly below size.
func nextStep(size int) (int, bool) {
	for _, step := range Ladder {
		if step < size {
			return step, true
		}
	}
	return 0, false
}
