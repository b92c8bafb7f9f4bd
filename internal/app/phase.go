package app

import (
	"fmt"
	"sync"

	"github.com/gifcase/gifship/internal/ports"
)

// Phase is the state of a transfer run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseStreaming
	PhaseFinalizing
	PhaseValidating
	PhaseBackingOff
	PhaseDone
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseConnecting:
		return "Connecting"
	case PhaseStreaming:
		return "Streaming"
	case PhaseFinalizing:
		return "Finalizing"
	case PhaseValidating:
		return "Validating"
	case PhaseBackingOff:
		return "BackingOff"
	case PhaseDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// validTransitions lists the phases reachable from each phase.
var validTransitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseConnecting, PhaseDone},
	PhaseConnecting: {PhaseStreaming, PhaseBackingOff, PhaseDone},
	PhaseStreaming:  {PhaseFinalizing, PhaseBackingOff, PhaseDone},
	PhaseFinalizing: {PhaseValidating, PhaseBackingOff, PhaseDone},
	PhaseValidating: {PhaseBackingOff, PhaseDone},
	PhaseBackingOff: {PhaseConnecting, PhaseDone},
	PhaseDone:       {},
}

// PhaseObserver is told when an attempt enters a new phase.
type PhaseObserver interface {
	Enter(next Phase, reason string) error
}

// PhaseMachine tracks the phase of one run and rejects invalid transitions.
type PhaseMachine struct {
	mu      sync.RWMutex
	phase   Phase
	attempt int
	logger  ports.Logger
	emitter EventEmitter
}

// NewPhaseMachine creates a machine in PhaseIdle.
func NewPhaseMachine(logger ports.Logger, emitter EventEmitter) *PhaseMachine {
	return &PhaseMachine{
		phase:   PhaseIdle,
		logger:  logger,
		emitter: emitter,
	}
}

// Phase returns the current phase.
func (m *PhaseMachine) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Reset returns the machine to PhaseIdle for a new run.
func (m *PhaseMachine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseIdle
	m.attempt = 0
}

// SetAttempt records the attempt number reported with transitions.
func (m *PhaseMachine) SetAttempt(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempt = n
}

// Enter transitions to next. Re-entering the current phase is a no-op.
// Returns an error if the transition is not valid.
func (m *PhaseMachine) Enter(next Phase, reason string) error {
	m.mu.Lock()
	prev := m.phase
	if prev == next {
		m.mu.Unlock()
		return nil
	}
	if !canTransition(prev, next) {
		m.mu.Unlock()
		return fmt.Errorf("invalid phase transition %s -> %s", prev, next)
	}
	m.phase = next
	attempt := m.attempt
	m.mu.Unlock()

	// Emit event outside of lock
	if m.emitter != nil {
		m.emitter.OnPhaseChange(prev, next, attempt, reason)
	}

	m.logger.Debug("phase transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.Int("attempt", attempt),
		ports.String("reason", reason),
	)
	return nil
}

func canTransition(from, to Phase) bool {
	for _, p := range validTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}
