package gifship

import (
	"time"

	"github.com/gifcase/gifship/internal/app"
	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/pacing"
)

// EventHandler receives notifications from Ship.
// Methods are called synchronously from the transfer goroutine and should
// return quickly.
type EventHandler interface {
	OnPhaseChange(PhaseChangeEvent)
	OnProgress(ProgressEvent)
	OnAttemptComplete(AttemptEvent)
	OnPacingChange(PacingEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnPhaseChange(PhaseChangeEvent) {}
func (BaseEventHandler) OnProgress(ProgressEvent)       {}
func (BaseEventHandler) OnAttemptComplete(AttemptEvent) {}
func (BaseEventHandler) OnPacingChange(PacingEvent)     {}

// PhaseChangeEvent is emitted on every phase transition.
type PhaseChangeEvent struct {
	RunID    string
	Attempt  int
	Previous Phase
	Current  Phase
	Reason   string
}

// ProgressEvent is emitted at each breather and when streaming completes.
type ProgressEvent struct {
	RunID   string
	Attempt int
	Sent    int
	Total   int
}

// AttemptEvent is emitted after each attempt.
type AttemptEvent struct {
	RunID     string
	Attempt   int
	Validated bool
	Status    Status

	// Err is set when the attempt ended in a transport fault.
	Err error

	// NextDelay is the pause before the next attempt, zero if none follows.
	NextDelay time.Duration
}

// PacingEvent is emitted when pacing is tightened.
type PacingEvent struct {
	RunID   string
	Attempt int
	Change  PacingChange
}

// eventEmitterWrapper adapts EventHandler to app.EventEmitter.
type eventEmitterWrapper struct {
	handler EventHandler
	runID   func() string
}

func (e *eventEmitterWrapper) OnPhaseChange(previous, current app.Phase, attempt int, reason string) {
	e.handler.OnPhaseChange(PhaseChangeEvent{
		RunID:    e.runID(),
		Attempt:  attempt,
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnProgress(attempt, sent, total int) {
	e.handler.OnProgress(ProgressEvent{RunID: e.runID(), Attempt: attempt, Sent: sent, Total: total})
}

func (e *eventEmitterWrapper) OnAttemptComplete(attempt int, out domain.AttemptOutcome, next time.Duration) {
	e.handler.OnAttemptComplete(AttemptEvent{
		RunID:     e.runID(),
		Attempt:   attempt,
		Validated: out.Kind == domain.OutcomeValidated,
		Status:    out.Status,
		Err:       out.Err,
		NextDelay: next,
	})
}

func (e *eventEmitterWrapper) OnPacingChange(attempt int, change pacing.Change) {
	e.handler.OnPacingChange(PacingEvent{RunID: e.runID(), Attempt: attempt, Change: change})
}
