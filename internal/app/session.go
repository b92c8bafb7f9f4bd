package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/pacing"
	"github.com/gifcase/gifship/internal/ports"
	"github.com/gifcase/gifship/internal/status"
)

// SessionConfig contains the timing and identity settings of one attempt.
type SessionConfig struct {
	// DeviceID is passed to Transport.Connect (the BLE address).
	DeviceID string

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration

	// PostConnectDelay lets the link stabilize before the first write.
	PostConnectDelay time.Duration

	// CommandDelay is the settle time after CLEAR and START.
	CommandDelay time.Duration

	// FinalizeDelay is the settle time after END.
	FinalizeDelay time.Duration

	// InfoDelay is the settle time after INFO before re-reading status.
	InfoDelay time.Duration

	// Clear sends CLEAR before the handshake.
	Clear bool
}

// DefaultSessionConfig returns timings that match the peripheral firmware.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ConnectTimeout:   20 * time.Second,
		PostConnectDelay: 100 * time.Millisecond,
		CommandDelay:     50 * time.Millisecond,
		FinalizeDelay:    200 * time.Millisecond,
		InfoDelay:        200 * time.Millisecond,
	}
}

// Session runs single transfer attempts against a Transport.
// It holds no state between attempts.
type Session struct {
	cfg       SessionConfig
	transport ports.Transport
	logger    ports.Logger
	emitter   EventEmitter
	sleep     Sleeper
	yield     func()
}

// NewSession creates a session executor.
func NewSession(cfg SessionConfig, transport ports.Transport, logger ports.Logger, emitter EventEmitter) *Session {
	return &Session{
		cfg:       cfg,
		transport: transport,
		logger:    logger,
		emitter:   emitter,
		sleep:     sleepContext,
		yield:     runtime.Gosched,
	}
}

// Attempt runs connect → handshake → stream → finalize → validate once.
// The connection is released on every return path. Attempt never retries the
// streaming phase; it re-checks status at most once after an unconfirmed END.
func (s *Session) Attempt(ctx context.Context, attempt int, payload domain.Payload, policy *pacing.Policy, obs PhaseObserver) domain.AttemptOutcome {
	pol := *policy
	total := payload.Len()

	s.enter(obs, PhaseConnecting, "attempt started")

	h, err := s.connect(ctx)
	if err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "connect", Err: err})
	}
	defer func() {
		if err := h.Disconnect(); err != nil {
			s.logger.Warn("disconnect failed", ports.Int("attempt", attempt), ports.Err(err))
		}
	}()

	s.subscribe(h, attempt)

	if err := s.sleep(ctx, s.cfg.PostConnectDelay); err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "settle", Err: err})
	}

	if s.cfg.Clear {
		if err := s.command(ctx, h, domain.CmdClear); err != nil {
			return domain.TransportFault(&domain.FaultError{Phase: "clear", Err: err})
		}
		if err := s.sleep(ctx, s.cfg.CommandDelay); err != nil {
			return domain.TransportFault(&domain.FaultError{Phase: "clear", Err: err})
		}
	}

	if err := h.Write(ctx, domain.ChannelControl, domain.StartCommand(total), true); err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "handshake", Err: err})
	}
	if err := s.sleep(ctx, s.cfg.CommandDelay); err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "handshake", Err: err})
	}

	s.enter(obs, PhaseStreaming, "handshake sent")

	chunk := pol.EffectiveChunk(h.MTU())
	s.logger.Debug("streaming",
		ports.Int("attempt", attempt),
		ports.Int("total", total),
		ports.Int("chunk", chunk),
		ports.Int("mtu", h.MTU()),
	)

	if sent, err := s.stream(ctx, h, attempt, payload, pol, chunk); err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "stream", Sent: sent, Err: err})
	}

	s.enter(obs, PhaseFinalizing, "stream complete")

	if err := s.command(ctx, h, domain.CmdEnd); err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "finalize", Err: err})
	}
	if err := s.sleep(ctx, s.cfg.FinalizeDelay); err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "finalize", Err: err})
	}

	s.enter(obs, PhaseValidating, "end sent")

	st, err := s.readStatus(ctx, h, attempt)
	if err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "status", Err: err})
	}
	if status.Validated(st, total) {
		if err := s.command(ctx, h, domain.CmdReplay); err != nil {
			return domain.TransportFault(&domain.FaultError{Phase: "replay", Err: err})
		}
		if err := s.command(ctx, h, domain.CmdInfo); err != nil {
			s.logger.Warn("info after replay failed", ports.Int("attempt", attempt), ports.Err(err))
		}
		return domain.Validated(st, chunk)
	}

	// One re-check: ask for a fresh snapshot and read again.
	if err := s.command(ctx, h, domain.CmdInfo); err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "status", Err: err})
	}
	if err := s.sleep(ctx, s.cfg.InfoDelay); err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "status", Err: err})
	}
	st, err = s.readStatus(ctx, h, attempt)
	if err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "status", Err: err})
	}
	if !status.Validated(st, total) {
		return domain.NotValidated(st, chunk)
	}
	if err := s.command(ctx, h, domain.CmdReplay); err != nil {
		return domain.TransportFault(&domain.FaultError{Phase: "replay", Err: err})
	}
	return domain.Validated(st, chunk)
}

// Command connects, sends a single control command, waits InfoDelay and
// returns the parsed status. It is used for standalone REPLAY and INFO.
func (s *Session) Command(ctx context.Context, cmd string) (domain.TransferStatus, error) {
	h, err := s.connect(ctx)
	if err != nil {
		return domain.TransferStatus{}, &domain.FaultError{Phase: "connect", Err: err}
	}
	defer func() {
		if err := h.Disconnect(); err != nil {
			s.logger.Warn("disconnect failed", ports.Err(err))
		}
	}()

	if err := s.sleep(ctx, s.cfg.PostConnectDelay); err != nil {
		return domain.TransferStatus{}, err
	}
	if err := s.command(ctx, h, cmd); err != nil {
		return domain.TransferStatus{}, &domain.FaultError{Phase: "command", Err: err}
	}
	if err := s.sleep(ctx, s.cfg.InfoDelay); err != nil {
		return domain.TransferStatus{}, err
	}
	st, err := s.readStatus(ctx, h, 0)
	if err != nil {
		return domain.TransferStatus{}, &domain.FaultError{Phase: "status", Err: err}
	}
	return st, nil
}

// connect opens a handle within ConnectTimeout.
func (s *Session) connect(ctx context.Context) (ports.Handle, error) {
	connectCtx := ctx
	if s.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()
	}

	h, err := s.transport.Connect(connectCtx, s.cfg.DeviceID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: %v", domain.ErrConnectTimeout, s.cfg.ConnectTimeout, err)
		}
		return nil, err
	}
	return h, nil
}

// stream writes the payload in chunk-sized slices on the data channel.
// It returns the number of bytes written before any error.
func (s *Session) stream(ctx context.Context, h ports.Handle, attempt int, payload domain.Payload, pol pacing.Policy, chunk int) (int, error) {
	total := payload.Len()
	p := newPacer(pol)

	for p.Sent() < total {
		if err := ctx.Err(); err != nil {
			return p.Sent(), err
		}

		b := payload.Chunk(p.Sent(), chunk)
		if err := h.Write(ctx, domain.ChannelData, b, false); err != nil {
			return p.Sent(), err
		}

		yield, breathe := p.Record(len(b))
		if yield {
			s.yield()
		}
		if breathe {
			s.logger.Debug("breather",
				ports.Int("attempt", attempt),
				ports.Int("sent", p.Sent()),
				ports.Int("total", total),
				ports.Duration("sleep", pol.BreatherSleep),
			)
			if s.emitter != nil {
				s.emitter.OnProgress(attempt, p.Sent(), total)
			}
			if err := s.sleep(ctx, pol.BreatherSleep); err != nil {
				return p.Sent(), err
			}
		}
	}

	if s.emitter != nil {
		s.emitter.OnProgress(attempt, total, total)
	}
	return total, nil
}

// command writes an unacknowledged control command.
func (s *Session) command(ctx context.Context, h ports.Handle, cmd string) error {
	return h.Write(ctx, domain.ChannelControl, []byte(cmd), false)
}

func (s *Session) readStatus(ctx context.Context, h ports.Handle, attempt int) (domain.TransferStatus, error) {
	raw, err := h.Read(ctx, domain.ChannelStatus)
	if err != nil {
		return domain.TransferStatus{}, err
	}
	st := status.Parse(raw)
	s.logger.Debug("status read", ports.Int("attempt", attempt), ports.String("status", st.Raw))
	return st, nil
}

// subscribe logs status notifications. Not every handle supports them.
func (s *Session) subscribe(h ports.Handle, attempt int) {
	err := h.Subscribe(domain.ChannelStatus, func(b []byte) {
		s.logger.Debug("status notification",
			ports.Int("attempt", attempt),
			ports.String("status", status.Parse(b).Raw),
		)
	})
	if err != nil {
		s.logger.Debug("status notifications unavailable", ports.Err(err))
	}
}

func (s *Session) enter(obs PhaseObserver, next Phase, reason string) {
	if obs == nil {
		return
	}
	if err := obs.Enter(next, reason); err != nil {
		s.logger.Error("phase transition rejected", ports.Err(err))
	}
}
