package app

import (
	"time"

	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/pacing"
)

// EventEmitter receives notifications from a running transfer.
// Calls are made synchronously from the transfer goroutine.
type EventEmitter interface {
	OnPhaseChange(previous, current Phase, attempt int, reason string)
	OnProgress(attempt, sent, total int)
	OnAttemptComplete(attempt int, outcome domain.AttemptOutcome, next time.Duration)
	OnPacingChange(attempt int, change pacing.Change)
}
