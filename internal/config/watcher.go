// This file implements hot reloading of configuration in development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the configuration directory and hot reloads the config.
// This is primarily used in development environments for faster iteration.
type Watcher struct {
	dir       string
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher creates a configuration watcher over the given directory.
// Outside development the watcher is inert and only serves the initial
// configuration.
func NewWatcher(dir string, initial *Config, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		dir:       dir,
		config:    initial,
		callbacks: make([]func(*Config), 0),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}

	if initial.Environment != Development || !initial.Features.EnableHotReload {
		logger.Info("configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w.watcher = fsWatcher

	if err := w.watchConfigFiles(); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watching config files: %w", err)
	}
	go w.watchLoop()

	logger.Info("configuration hot reloading enabled",
		zap.String("dir", dir),
	)
	return w, nil
}

// watchConfigFiles adds the config directory and its YAML files to the
// watcher.
func (w *Watcher) watchConfigFiles() error {
	return filepath.Walk(w.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || isConfigFile(path) {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("failed to watch file",
					zap.String("path", path),
					zap.Error(err),
				)
			}
		}
		return nil
	})
}

// watchLoop monitors for file changes and triggers debounced reloads.
func (w *Watcher) watchLoop() {
	defer w.watcher.Close()

	var debounceTimer *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && isConfigFile(event.Name) {
				w.logger.Info("configuration file changed",
					zap.String("file", event.Name),
					zap.String("operation", event.Op.String()),
				)
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

// reload loads a fresh configuration and notifies callbacks if it changed.
func (w *Watcher) reload() {
	newConfig, err := Load(w.dir)
	if err != nil {
		w.logger.Error("invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.config
	w.config = newConfig
	w.mu.Unlock()

	if configsEqual(old, newConfig) {
		w.logger.Debug("configuration unchanged after reload")
		return
	}

	w.notifyCallbacks(newConfig)
	w.logger.Info("configuration reloaded",
		zap.Strings("sources", newConfig.LoadedFrom),
	)
}

// OnChange registers a callback for configuration changes.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Current returns the current configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	if w.watcher != nil {
		close(w.stopCh)
		w.watcher.Close()
	}
}

// notifyCallbacks runs each callback in its own goroutine so a slow consumer
// cannot block the watch loop.
func (w *Watcher) notifyCallbacks(newConfig *Config) {
	w.mu.RLock()
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, callback := range callbacks {
		go func(cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("configuration callback panicked", zap.Any("panic", r))
				}
			}()
			cb(newConfig)
		}(callback)
	}
}

// configsEqual compares the fields a running service can act on.
func configsEqual(a, b *Config) bool {
	return a.Environment == b.Environment &&
		a.Server == b.Server &&
		a.Lexicon == b.Lexicon &&
		a.Persistence == b.Persistence &&
		a.Logging == b.Logging &&
		a.Features == b.Features
}

// isConfigFile checks if a file is a configuration file.
func isConfigFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
