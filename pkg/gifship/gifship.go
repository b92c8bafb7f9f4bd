package gifship

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/gifcase/gifship/internal/adapters/ble"
	"github.com/gifcase/gifship/internal/adapters/fs"
	logAdapter "github.com/gifcase/gifship/internal/adapters/log"
	"github.com/gifcase/gifship/internal/app"
	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/ports"
)

// Result is the outcome of one Ship call.
type Result struct {
	RunID    string
	Success  bool
	Reason   string
	Attempts int

	// Status is the last status read from the peripheral.
	Status Status

	// Pacing is the policy in force when the run ended.
	Pacing Pacing
}

// Shipper delivers payloads to one peripheral. Ship calls are serialized.
type Shipper struct {
	config     Config
	session    *app.Session
	controller *app.Controller
	reports    ports.ReportRepository
	logger     *runLogger

	mu sync.Mutex
}

// New creates a Shipper with the given configuration.
// Without WithTransport, the host's default Bluetooth adapter is used and
// cfg.DeviceID is required.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	base := o.logger
	if base == nil {
		base = logAdapter.NewNoopLogger()
	}
	logger := &runLogger{base: base}

	transport := o.transport
	if transport == nil {
		if cfg.DeviceID == "" {
			return nil, fmt.Errorf("%w: device id is required", domain.ErrInvalidConfig)
		}
		t, err := ble.New(bluetooth.DefaultAdapter, cfg.bleConfig(), logger)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	var emitter app.EventEmitter
	if o.eventHandler != nil {
		emitter = &eventEmitterWrapper{handler: o.eventHandler, runID: logger.RunID}
	}

	session := app.NewSession(cfg.sessionConfig(), transport, logger, emitter)
	controller := app.NewController(cfg.controllerConfig(), session, logger, emitter)

	return &Shipper{
		config:     cfg,
		session:    session,
		controller: controller,
		reports:    o.reports,
		logger:     logger,
	}, nil
}

// Ship delivers data, retrying up to MaxAttempts times. It returns nil only
// when the peripheral confirmed receipt of every byte.
func (s *Shipper) Ship(ctx context.Context, data []byte) (Result, error) {
	payload := domain.NewPayload(data)
	if payload.Empty() {
		return Result{}, domain.ErrEmptyPayload
	}
	if s.config.MaxPayloadBytes > 0 && payload.Len() > s.config.MaxPayloadBytes {
		return Result{}, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrPayloadTooLarge, payload.Len(), s.config.MaxPayloadBytes)
	}
	return s.ship(ctx, payload)
}

// ShipFile loads path and ships its contents.
func (s *Shipper) ShipFile(ctx context.Context, path string) (Result, error) {
	payload, err := fs.LoadPayload(path, s.config.MaxPayloadBytes)
	if err != nil {
		return Result{}, err
	}
	return s.ship(ctx, payload)
}

func (s *Shipper) ship(ctx context.Context, payload domain.Payload) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	s.logger.setRunID(runID)
	defer s.logger.setRunID("")

	started := time.Now()
	s.logger.Info("transfer started",
		ports.String("device", s.config.DeviceID),
		ports.Int("bytes", payload.Len()),
	)

	res, err := s.controller.Run(ctx, payload)
	result := Result{
		RunID:    runID,
		Success:  res.Success,
		Reason:   res.Reason,
		Attempts: res.Attempts,
		Status:   res.Status,
		Pacing:   res.Pacing,
	}

	s.saveReport(ctx, Report{
		RunID:         runID,
		DeviceID:      s.config.DeviceID,
		PayloadBytes:  payload.Len(),
		Attempts:      res.Attempts,
		Success:       res.Success,
		Reason:        res.Reason,
		ChunkSize:     res.Pacing.ChunkSize,
		BreatherSleep: res.Pacing.BreatherSleep.String(),
		LastStatus:    res.Status.Raw,
		LastError:     errString(err),
		StartedAt:     started,
		FinishedAt:    time.Now(),
	})

	return result, err
}

func (s *Shipper) saveReport(ctx context.Context, r Report) {
	if s.reports == nil {
		return
	}
	// The run context may already be cancelled; the report is still wanted.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.reports.Save(saveCtx, r); err != nil {
		s.logger.Warn("save report failed", ports.Err(err))
	}
}

// Replay asks the peripheral to replay the stored file.
func (s *Shipper) Replay(ctx context.Context) (Status, error) {
	return s.command(ctx, domain.CmdReplay)
}

// Info asks the peripheral for a status snapshot.
func (s *Shipper) Info(ctx context.Context) (Status, error) {
	return s.command(ctx, domain.CmdInfo)
}

func (s *Shipper) command(ctx context.Context, cmd string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Command(ctx, cmd)
}

// Phase returns the phase of the current or last Ship.
func (s *Shipper) Phase() Phase {
	return s.controller.Phase()
}

// LastReport returns the most recently saved report.
func (s *Shipper) LastReport(ctx context.Context) (Report, error) {
	if s.reports == nil {
		return Report{}, errors.New("gifship: no report repository configured")
	}
	return s.reports.Load(ctx)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// runLogger adds the current run id to every message.
type runLogger struct {
	base ports.Logger

	mu    sync.RWMutex
	runID string
}

func (l *runLogger) setRunID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runID = id
}

// RunID returns the id of the run in progress, or "".
func (l *runLogger) RunID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.runID
}

func (l *runLogger) with(fields []ports.Field) []ports.Field {
	id := l.RunID()
	if id == "" {
		return fields
	}
	return append([]ports.Field{ports.String("run_id", id)}, fields...)
}

func (l *runLogger) Debug(msg string, fields ...ports.Field) { l.base.Debug(msg, l.with(fields)...) }
func (l *runLogger) Info(msg string, fields ...ports.Field)  { l.base.Info(msg, l.with(fields)...) }
func (l *runLogger) Warn(msg string, fields ...ports.Field)  { l.base.Warn(msg, l.with(fields)...) }
func (l *runLogger) Error(msg string, fields ...ports.Field) { l.base.Error(msg, l.with(fields)...) }
