package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/pacing"
	"github.com/gifcase/gifship/internal/ports"
	"github.com/gifcase/gifship/internal/status"
)

// DefaultMaxAttempts is the attempt ceiling of one run.
const DefaultMaxAttempts = 6

// ReasonExhausted is the failure reason after the attempt ceiling.
const ReasonExhausted = "exhausted attempts"

// ControllerConfig contains configuration for the retry loop.
type ControllerConfig struct {
	MaxAttempts int

	// BaseDelay scales the linear backoff after a transport fault.
	BaseDelay time.Duration

	// SettleDelay is the fixed pause after an unconfirmed transfer.
	SettleDelay time.Duration

	// Pacing is the initial policy. Each run starts from a copy of it.
	Pacing pacing.Policy
}

// DefaultControllerConfig returns the default retry configuration.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		SettleDelay: DefaultSettleDelay,
		Pacing:      pacing.Default(),
	}
}

// Result is the outcome of a run. There is no partial success.
type Result struct {
	Success  bool
	Reason   string
	Attempts int

	// Status is the last status read from the peripheral, if any.
	Status domain.TransferStatus

	// Pacing is the policy in force when the run ended.
	Pacing pacing.Policy
}

// Controller drives attempts until one validates or the ceiling is reached.
type Controller struct {
	config  ControllerConfig
	session *Session
	machine *PhaseMachine
	backoff *backoff
	logger  ports.Logger
	emitter EventEmitter
	sleep   Sleeper
}

// NewController creates a controller around a session executor.
func NewController(config ControllerConfig, session *Session, logger ports.Logger, emitter EventEmitter) *Controller {
	return &Controller{
		config:  config,
		session: session,
		machine: NewPhaseMachine(logger, emitter),
		backoff: newBackoff(config.BaseDelay, sleepContext),
		logger:  logger,
		emitter: emitter,
		sleep:   sleepContext,
	}
}

// Phase returns the phase of the current or last run.
func (c *Controller) Phase() Phase {
	return c.machine.Phase()
}

// Run delivers payload, retrying up to MaxAttempts times.
//
// Transport faults back off linearly and keep the pacing unchanged. An
// unconfirmed transfer whose status shows partial or mismatched delivery
// tightens the pacing one ladder step; an unrecognized status retries without
// tightening. Pacing changes persist for the rest of the run.
//
// Cancelling ctx between attempts stops cleanly and returns ctx.Err().
// Cancelling during an attempt releases the connection, but the peripheral may
// be left holding a partial transfer until the next START.
func (c *Controller) Run(ctx context.Context, payload domain.Payload) (Result, error) {
	policy := c.config.Pacing
	total := payload.Len()

	c.machine.Reset()
	c.backoff.sleep = c.sleep

	var (
		lastStatus domain.TransferStatus
		lastCause  error
	)

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			c.finish("cancelled")
			return Result{Reason: "cancelled", Attempts: attempt - 1, Status: lastStatus, Pacing: policy}, err
		}

		c.machine.SetAttempt(attempt)
		c.logger.Info("attempt started",
			ports.Int("attempt", attempt),
			ports.Int("max_attempts", c.config.MaxAttempts),
			ports.Int("bytes", total),
			ports.Int("chunk", policy.ChunkSize),
			ports.Duration("breather", policy.BreatherSleep),
		)

		start := time.Now()
		out := c.session.Attempt(ctx, attempt, payload, &policy, c.machine)
		last := attempt == c.config.MaxAttempts

		switch out.Kind {
		case domain.OutcomeValidated:
			c.emitAttempt(attempt, out, 0)
			c.logger.Info("transfer validated",
				ports.Int("attempt", attempt),
				ports.String("status", out.Status.Raw),
				ports.Duration("duration", time.Since(start)),
			)
			c.finish("validated")
			return Result{Success: true, Attempts: attempt, Status: out.Status, Pacing: policy}, nil

		case domain.OutcomeTransportFault:
			lastCause = out.Err
			if err := ctx.Err(); err != nil {
				c.emitAttempt(attempt, out, 0)
				c.finish("cancelled")
				return Result{Reason: "cancelled", Attempts: attempt, Status: lastStatus, Pacing: policy}, err
			}

			var delay time.Duration
			if !last {
				delay = c.backoff.Delay(attempt)
			}
			c.emitAttempt(attempt, out, delay)
			c.logger.Warn("transport fault",
				ports.Int("attempt", attempt),
				ports.Err(out.Err),
				ports.Duration("backoff", delay),
			)
			if last {
				break
			}
			c.enter(PhaseBackingOff, "transport fault")
			if err := c.backoff.Wait(ctx, attempt); err != nil {
				c.finish("cancelled")
				return Result{Reason: "cancelled", Attempts: attempt, Status: lastStatus, Pacing: policy}, err
			}

		case domain.OutcomeNotValidated:
			lastStatus = out.Status

			class := status.Classify(out.Status, total)
			lastCause = fmt.Errorf("%w: status %q", class.Err(), out.Status.Raw)
			if class == status.ClassIncomplete {
				change := policy.TightenFrom(out.Chunk)
				c.logger.Warn("incomplete delivery, tightening pacing",
					ports.Int("attempt", attempt),
					ports.String("status", out.Status.Raw),
					ports.Int("chunk_from", change.PrevChunkSize),
					ports.Int("chunk_to", change.ChunkSize),
					ports.Duration("breather_from", change.PrevBreatherSleep),
					ports.Duration("breather_to", change.BreatherSleep),
					ports.Bool("at_floor", policy.AtFloor()),
				)
				if c.emitter != nil && change.Changed() {
					c.emitter.OnPacingChange(attempt, change)
				}
			} else {
				c.logger.Warn("transfer not confirmed",
					ports.Int("attempt", attempt),
					ports.String("status", out.Status.Raw),
					ports.String("class", class.String()),
				)
			}

			var delay time.Duration
			if !last {
				delay = c.config.SettleDelay
			}
			c.emitAttempt(attempt, out, delay)
			if last {
				break
			}
			c.enter(PhaseBackingOff, class.String())
			if err := c.sleep(ctx, delay); err != nil {
				c.finish("cancelled")
				return Result{Reason: "cancelled", Attempts: attempt, Status: lastStatus, Pacing: policy}, err
			}
		}
	}

	c.finish(ReasonExhausted)
	c.logger.Error("transfer failed",
		ports.Int("attempts", c.config.MaxAttempts),
		ports.String("last_status", lastStatus.Raw),
	)

	return Result{
			Reason:   ReasonExhausted,
			Attempts: c.config.MaxAttempts,
			Status:   lastStatus,
			Pacing:   policy,
		}, &domain.ExhaustedError{
			Attempts:   c.config.MaxAttempts,
			LastStatus: lastStatus.Raw,
			LastCause:  lastCause,
		}
}

// Validate checks the controller configuration.
func (cfg ControllerConfig) Validate() error {
	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive", domain.ErrInvalidConfig)
	}
	if cfg.BaseDelay < 0 || cfg.SettleDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", domain.ErrInvalidConfig)
	}
	return cfg.Pacing.Validate()
}

func (c *Controller) enter(next Phase, reason string) {
	if err := c.machine.Enter(next, reason); err != nil {
		c.logger.Error("phase transition rejected", ports.Err(err))
	}
}

func (c *Controller) finish(reason string) {
	c.enter(PhaseDone, reason)
}

func (c *Controller) emitAttempt(attempt int, out domain.AttemptOutcome, next time.Duration) {
	if c.emitter != nil {
		c.emitter.OnAttemptComplete(attempt, out, next)
	}
}
