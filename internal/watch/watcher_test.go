package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gifcase/gifship/internal/ports"
)

type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...ports.Field) {}
func (noopLogger) Info(msg string, fields ...ports.Field)  {}
func (noopLogger) Warn(msg string, fields ...ports.Field)  {}
func (noopLogger) Error(msg string, fields ...ports.Field) {}

type shipRecorder struct {
	mu    sync.Mutex
	calls []string
	err   error
	ch    chan struct{}
}

func newShipRecorder() *shipRecorder {
	return &shipRecorder{ch: make(chan struct{}, 16)}
}

func (r *shipRecorder) ship(ctx context.Context, path string) error {
	data, _ := os.ReadFile(path)
	r.mu.Lock()
	r.calls = append(r.calls, string(data))
	err := r.err
	r.mu.Unlock()
	r.ch <- struct{}{}
	return err
}

func (r *shipRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for ship")
	}
}

func (r *shipRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func startWatcher(t *testing.T, cfg Config, path string, rec *shipRecorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	w := New(cfg, path, rec.ship, noopLogger{})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("Run did not stop after cancel")
		}
	})
}

func TestWatcher_ShipsOnStartAndChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.gif")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := newShipRecorder()
	startWatcher(t, Config{DebounceDelay: 20 * time.Millisecond, ShipOnStart: true}, path, rec)

	rec.wait(t)

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t)

	calls := rec.Calls()
	if len(calls) < 2 || calls[0] != "v1" || calls[len(calls)-1] != "v2" {
		t.Errorf("calls = %v, want v1 then v2", calls)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.gif")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := newShipRecorder()
	startWatcher(t, Config{DebounceDelay: 20 * time.Millisecond}, path, rec)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "dog.gif"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if calls := rec.Calls(); len(calls) != 0 {
		t.Errorf("unexpected ships: %v", calls)
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.gif")
	if err := os.WriteFile(path, []byte("v0"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := newShipRecorder()
	startWatcher(t, Config{DebounceDelay: 150 * time.Millisecond}, path, rec)

	time.Sleep(100 * time.Millisecond)
	for _, v := range []string{"v1", "v2", "v3"} {
		if err := os.WriteFile(path, []byte(v), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec.wait(t)
	time.Sleep(300 * time.Millisecond)

	calls := rec.Calls()
	if len(calls) != 1 || calls[0] != "v3" {
		t.Errorf("calls = %v, want a single ship of v3", calls)
	}
}

func TestWatcher_ShipErrorKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.gif")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := newShipRecorder()
	rec.err = errors.New("exhausted attempts")
	startWatcher(t, Config{DebounceDelay: 20 * time.Millisecond, ShipOnStart: true}, path, rec)

	rec.wait(t)
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(DefaultConfig(), "/nonexistent/dir/cat.gif", func(context.Context, string) error { return nil }, noopLogger{})
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}
