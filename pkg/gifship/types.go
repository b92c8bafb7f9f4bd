package gifship

import (
	"github.com/gifcase/gifship/internal/app"
	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/pacing"
	"github.com/gifcase/gifship/internal/ports"
)

// Re-exported types so callers need not import internal packages.
type (
	// Pacing controls chunk size, yields and breathers of one attempt.
	Pacing = pacing.Policy

	// PacingChange describes one tightening step.
	PacingChange = pacing.Change

	// Status is a parsed status-channel reading.
	Status = domain.TransferStatus

	// Report is the diagnostic record saved after each Ship.
	Report = domain.RunReport

	// Phase is the state of a running transfer.
	Phase = app.Phase

	// Channel is one of the control, data and status channels.
	Channel = domain.Channel

	// Transport opens connections to the peripheral.
	Transport = ports.Transport

	// Handle is an open connection.
	Handle = ports.Handle

	// ReportRepository persists run reports.
	ReportRepository = ports.ReportRepository

	// Logger is the interface for structured logging.
	Logger = ports.Logger

	// LogField represents a structured log field.
	LogField = ports.Field
)

// Phases of a transfer.
const (
	PhaseIdle       = app.PhaseIdle
	PhaseConnecting = app.PhaseConnecting
	PhaseStreaming  = app.PhaseStreaming
	PhaseFinalizing = app.PhaseFinalizing
	PhaseValidating = app.PhaseValidating
	PhaseBackingOff = app.PhaseBackingOff
	PhaseDone       = app.PhaseDone
)

// Errors returned by Shipper. Check with errors.Is.
var (
	ErrTransportFault    = domain.ErrTransportFault
	ErrConnectTimeout    = domain.ErrConnectTimeout
	ErrExhaustedAttempts = domain.ErrExhaustedAttempts
	ErrInvalidConfig     = domain.ErrInvalidConfig
	ErrEmptyPayload      = domain.ErrEmptyPayload
	ErrPayloadTooLarge   = domain.ErrPayloadTooLarge
)
