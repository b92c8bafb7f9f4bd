package ports

import (
	"context"

	"github.com/gifcase/gifship/internal/domain"
)

// ReportRepository persists the report of the most recent run.
// Reports are diagnostic only; nothing reads them to resume a transfer.
type ReportRepository interface {
	// Save persists the report atomically, replacing any previous one.
	Save(ctx context.Context, report domain.RunReport) error

	// Load retrieves the last saved report.
	// Returns an empty report and nil error if none exists.
	Load(ctx context.Context) (domain.RunReport, error)
}
