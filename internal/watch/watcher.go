// Package watch re-ships a payload file each time it is rewritten.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gifcase/gifship/internal/ports"
)

// ShipFunc delivers the current contents of the watched file.
type ShipFunc func(ctx context.Context, path string) error

// Config holds watcher options.
type Config struct {
	// DebounceDelay is the quiet period after the last change before shipping.
	// Default: 250 milliseconds
	DebounceDelay time.Duration

	// ShipOnStart ships the file once before waiting for changes.
	ShipOnStart bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 250 * time.Millisecond,
		ShipOnStart:   true,
	}
}

// Watcher watches one file and calls ship after it settles.
// Ships never overlap; changes that arrive during a ship coalesce into one
// follow-up ship.
type Watcher struct {
	cfg    Config
	path   string
	ship   ShipFunc
	logger ports.Logger

	mu       sync.Mutex
	debounce *time.Timer
	trigger  chan struct{}
}

// New creates a watcher for path.
func New(cfg Config, path string, ship ShipFunc, logger ports.Logger) *Watcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 250 * time.Millisecond
	}
	return &Watcher{
		cfg:     cfg,
		path:    path,
		ship:    ship,
		logger:  logger,
		trigger: make(chan struct{}, 1),
	}
}

// Run blocks until ctx is cancelled. The parent directory is watched so that
// editors which replace the file by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.shipLoop(ctx)
	}()
	defer wg.Wait()
	defer cancel()
	defer w.stopDebounce()

	if w.cfg.ShipOnStart {
		w.fire()
	}

	name := filepath.Base(w.path)
	w.logger.Info("watching payload", ports.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("payload changed", ports.String("op", event.Op.String()))
			w.debounceShip()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) debounceShip() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.cfg.DebounceDelay, w.fire)
}

func (w *Watcher) stopDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}

// fire queues a ship unless one is already queued.
func (w *Watcher) fire() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) shipLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
			if err := w.ship(ctx, w.path); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("ship failed", ports.String("path", w.path), ports.Err(err))
				continue
			}
			w.logger.Info("payload shipped", ports.String("path", w.path))
		}
	}
}
