// Package log provides the logging abstraction used by gifship.
//
// Use the zerolog adapter:
//
//	logger := log.NewZerologLogger(zerolog.New(os.Stderr))
//	s, err := gifship.New(cfg, gifship.WithLogger(logger))
//
// Or implement Logger to integrate with existing logging infrastructure.
package log
