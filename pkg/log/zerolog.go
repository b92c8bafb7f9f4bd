package log

import (
	"github.com/rs/zerolog"

	logAdapter "github.com/gifcase/gifship/internal/adapters/log"
)

// NewZerologLogger wraps an existing zerolog.Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return logAdapter.NewZerologAdapterWithLogger(l)
}

// NewConsoleLogger writes human-readable lines to stderr at the given level.
func NewConsoleLogger(level zerolog.Level) Logger {
	return logAdapter.NewZerologAdapter(level)
}
