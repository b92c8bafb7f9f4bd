package log

import logAdapter "github.com/gifcase/gifship/internal/adapters/log"

// NewNoopLogger returns a Logger that discards all messages.
func NewNoopLogger() Logger {
	return logAdapter.NewNoopLogger()
}
