// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/advexp/internal/log"
	"github.com/ManuGH/advexp/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 500 * time.Millisecond

// ErrWatcherRunning is returned by StartWatcher when a watcher is already active.
var ErrWatcherRunning = errors.New("config watcher already running")

// Holder holds the current experiment and swaps it atomically on reload.
type Holder struct {
	mu       sync.RWMutex
	current  Experiment
	loader   *Loader
	logger   zerolog.Logger
	debounce time.Duration

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}

	// Reload notifications
	reloadMu        sync.RWMutex
	reloadListeners []chan<- Experiment
}

// NewHolder creates a holder around an already loaded experiment.
func NewHolder(initial Experiment, loader *Loader) *Holder {
	return &Holder{
		current:  initial,
		loader:   loader,
		logger:   log.WithComponent("config"),
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the quiet period between a file event and the reload.
func (h *Holder) SetDebounce(d time.Duration) {
	h.debounce = d
}

// Get returns the current experiment (thread-safe read).
func (h *Holder) Get() Experiment {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the document again. On failure the previous
// experiment stays current and the error is returned.
func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading experiment")

	next, err := h.loader.Load()
	if err != nil {
		metrics.RecordReload(false)
		metrics.RecordValidation(false, FailingKeys(err))
		h.logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("new experiment rejected, keeping previous")
		return fmt.Errorf("reload experiment: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	h.mu.Unlock()

	metrics.RecordReload(true)
	metrics.RecordValidation(true, nil)
	metrics.SetLastLoad(time.Now())

	changes := Diff(prev, next)
	h.logChanges(changes)
	if !changes.Empty() {
		h.notifyListeners(next)
	}

	h.logger.Info().
		Str(log.FieldEvent, "config.reload_success").
		Int("changes", len(changes.Changes)).
		Msg("experiment reloaded")
	return nil
}

// StartWatcher reloads the experiment whenever its file changes, until ctx is
// cancelled or Stop is called. The parent directory is watched so editors that
// replace the file on save are followed.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str(log.FieldEvent, "config.watcher_disabled").
			Msg("watcher disabled (no experiment file)")
		return nil
	}

	h.watchMu.Lock()
	defer h.watchMu.Unlock()
	if h.watcher != nil {
		return ErrWatcherRunning
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	h.watcher = watcher
	h.cancel = cancel
	h.done = make(chan struct{})

	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str(log.FieldConfigPath, target).
		Msg("watching experiment file for changes")

	go h.watchLoop(loopCtx, watcher, target, h.done)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, done chan<- struct{}) {
	defer close(done)
	defer func() { _ = watcher.Close() }()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("experiment watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("experiment file changed")
			if timer == nil {
				timer = time.NewTimer(h.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(h.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if err := h.Reload(ctx); err != nil {
				h.logger.Error().
					Err(err).
					Str(log.FieldEvent, "config.auto_reload_failed").
					Msg("automatic reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(log.FieldEvent, "config.watcher_error").
				Msg("experiment watcher error")
		}
	}
}

// Stop stops the watcher (if running) and waits for its loop to exit.
func (h *Holder) Stop() {
	h.watchMu.Lock()
	cancel, done := h.cancel, h.done
	h.watcher, h.cancel, h.done = nil, nil, nil
	h.watchMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RegisterListener registers a channel that receives the new experiment after
// every reload that changed at least one key. Sends never block; the caller
// owns the channel.
func (h *Holder) RegisterListener(ch chan<- Experiment) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

func (h *Holder) notifyListeners(next Experiment) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- next:
		default:
			h.logger.Warn().
				Str(log.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *Holder) logChanges(changes ChangeSummary) {
	for _, c := range changes.Changes {
		h.logger.Info().
			Str(log.FieldKey, c.Path).
			Str("old", FormatValue(c.Old)).
			Str("new", FormatValue(c.New)).
			Bool("affects_outcome", c.AffectsOutcome).
			Msg("experiment changed")
	}
}
