package app

import (
	"context"
	"sync"
	"time"

	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/pacing"
	"github.com/gifcase/gifship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// sleepRecorder replaces real sleeps and remembers requested durations.
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
	hook   func(d time.Duration)
}

func (r *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

func (r *sleepRecorder) Count(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

// recordingEmitter captures events for assertions.
type recordingEmitter struct {
	mu       sync.Mutex
	phases   []Phase
	outcomes []domain.AttemptOutcome
	delays   []time.Duration
	changes  []pacing.Change
	progress [][2]int
}

func (e *recordingEmitter) OnPhaseChange(previous, current Phase, attempt int, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phases = append(e.phases, current)
}

func (e *recordingEmitter) OnProgress(attempt, sent, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress = append(e.progress, [2]int{sent, total})
}

func (e *recordingEmitter) OnAttemptComplete(attempt int, outcome domain.AttemptOutcome, next time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcomes = append(e.outcomes, outcome)
	e.delays = append(e.delays, next)
}

func (e *recordingEmitter) OnPacingChange(attempt int, change pacing.Change) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changes = append(e.changes, change)
}

// testSessionConfig uses distinct delays so tests can tell sleeps apart.
func testSessionConfig() SessionConfig {
	return SessionConfig{
		DeviceID:         "D0:CF:13:08:90:D9",
		ConnectTimeout:   time.Second,
		PostConnectDelay: 101 * time.Millisecond,
		CommandDelay:     51 * time.Millisecond,
		FinalizeDelay:    201 * time.Millisecond,
		InfoDelay:        202 * time.Millisecond,
	}
}

func payloadOf(n int) domain.Payload {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return domain.NewPayload(b)
}
