package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the gifship domain.
// They can be checked with errors.Is.
var (
	// ErrTransportFault wraps any connect, write or read failure.
	ErrTransportFault = errors.New("gifship: transport fault")

	// ErrConnectTimeout is returned when connection establishment exceeds its bound.
	ErrConnectTimeout = errors.New("gifship: connect timeout")

	// ErrProtocolIncomplete means the peripheral reported partial or mismatched delivery.
	ErrProtocolIncomplete = errors.New("gifship: incomplete delivery")

	// ErrProtocolUnrecognized means the status text matched no known token.
	ErrProtocolUnrecognized = errors.New("gifship: unrecognized status")

	// ErrExhaustedAttempts is returned after the attempt ceiling is reached.
	ErrExhaustedAttempts = errors.New("gifship: exhausted attempts")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("gifship: invalid configuration")

	// ErrEmptyPayload is returned for a zero-length payload.
	ErrEmptyPayload = errors.New("gifship: empty payload")

	// ErrPayloadTooLarge is returned when the payload exceeds the configured maximum.
	ErrPayloadTooLarge = errors.New("gifship: payload too large")
)

// FaultError records which step of an attempt failed at the transport level.
type FaultError struct {
	// Phase is the attempt step: connect, settle, clear, handshake, stream,
	// finalize, status, replay.
	Phase string

	// Sent is the number of payload bytes written before the fault.
	Sent int

	Err error
}

func (e *FaultError) Error() string {
	if e.Phase == "stream" {
		return fmt.Sprintf("transport fault during %s after %d bytes: %v", e.Phase, e.Sent, e.Err)
	}
	return fmt.Sprintf("transport fault during %s: %v", e.Phase, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

// Is makes every FaultError match ErrTransportFault.
func (e *FaultError) Is(target error) bool { return target == ErrTransportFault }

// ExhaustedError is returned by a run that used up all of its attempts.
type ExhaustedError struct {
	Attempts   int
	LastStatus string
	LastCause  error
}

func (e *ExhaustedError) Error() string {
	switch {
	case e.LastCause != nil:
		return fmt.Sprintf("exhausted attempts (%d): last cause: %v", e.Attempts, e.LastCause)
	case e.LastStatus != "":
		return fmt.Sprintf("exhausted attempts (%d): last status %q", e.Attempts, e.LastStatus)
	default:
		return fmt.Sprintf("exhausted attempts (%d)", e.Attempts)
	}
}

func (e *ExhaustedError) Unwrap() error { return e.LastCause }

// Is makes every ExhaustedError match ErrExhaustedAttempts.
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhaustedAttempts }
