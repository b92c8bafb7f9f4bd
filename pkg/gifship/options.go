package gifship

import (
	"github.com/gifcase/gifship/internal/adapters/fs"
	"github.com/gifcase/gifship/internal/ports"
)

// Option configures optional behavior of a Shipper.
type Option func(*options)

type options struct {
	logger       ports.Logger
	transport    ports.Transport
	eventHandler EventHandler
	reports      ports.ReportRepository
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTransport replaces the default BLE transport.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithEventHandler sets a handler for transfer events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithReportRepository saves a Report after every Ship.
func WithReportRepository(repo ReportRepository) Option {
	return func(o *options) {
		o.reports = repo
	}
}

// WithReportDir saves reports as last_run.json in dir.
func WithReportDir(dir string) Option {
	return WithReportRepository(fs.NewReportFileRepository(dir))
}
