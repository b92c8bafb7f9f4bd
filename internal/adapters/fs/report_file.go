// Package fs holds filesystem adapters: the run report file and payload loading.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/ports"
)

const reportFileName = "last_run.json"

// ReportFileRepository implements ports.ReportRepository using a JSON file.
type ReportFileRepository struct {
	dir string
}

var _ ports.ReportRepository = (*ReportFileRepository)(nil)

// NewReportFileRepository creates a repository storing reports in dir.
func NewReportFileRepository(dir string) *ReportFileRepository {
	return &ReportFileRepository{dir: dir}
}

// Load returns the last saved report.
// Returns an empty report and nil error if no report exists yet.
func (r *ReportFileRepository) Load(ctx context.Context) (domain.RunReport, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RunReport{}, nil
		}
		return domain.RunReport{}, err
	}

	var report domain.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.RunReport{}, fmt.Errorf("decode %s: %w", r.Path(), err)
	}
	return report, nil
}

// Save writes the report atomically (temp file, then rename).
func (r *ReportFileRepository) Save(ctx context.Context, report domain.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	path := r.Path()
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Path returns the full path to the report file.
func (r *ReportFileRepository) Path() string {
	return filepath.Join(r.dir, reportFileName)
}
