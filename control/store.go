// File: control/store.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread-safe configuration store with reload listeners and file watching.

package control

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-udp/internal/logging"
)

// reloadDebounce collapses the burst of events editors emit per save.
const reloadDebounce = 100 * time.Millisecond

// ConfigStore holds the active Config and a dotted-key view of it.
// Listeners registered with OnReload run after every change.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()

	typed atomic.Pointer[Config]
	path  string
	log   zerolog.Logger

	wg sync.WaitGroup
}

// NewConfigStore creates a store seeded with cfg, or Defaults when nil.
func NewConfigStore(cfg *Config) *ConfigStore {
	if cfg == nil {
		cfg = Defaults()
	}
	cs := &ConfigStore{
		config: cfg.Flatten(),
		log:    logging.Component("control"),
	}
	cs.typed.Store(cfg)
	return cs
}

// OpenConfigStore loads path and returns a store that can Reload and Watch it.
func OpenConfigStore(path string) (*ConfigStore, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cs := NewConfigStore(cfg)
	cs.path = path
	return cs, nil
}

// Config returns the active typed configuration. Treat it as read-only.
func (cs *ConfigStore) Config() *Config {
	return cs.typed.Load()
}

// Path returns the backing file, empty for in-memory stores.
func (cs *ConfigStore) Path() string {
	return cs.path
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// SetConfig merges new values and notifies listeners.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	cs.mu.Unlock()
	cs.dispatchReload()
}

// Apply replaces the typed configuration and notifies listeners.
func (cs *ConfigStore) Apply(cfg *Config) {
	cs.typed.Store(cfg)
	cs.mu.Lock()
	for k, v := range cfg.Flatten() {
		cs.config[k] = v
	}
	cs.mu.Unlock()
	cs.dispatchReload()
}

// Reload re-reads the backing file. An invalid file leaves the active
// configuration in place.
func (cs *ConfigStore) Reload() error {
	cfg, err := Load(cs.path)
	if err != nil {
		return err
	}
	cs.Apply(cfg)
	cs.log.Info().Str("path", cs.path).Msg("configuration reloaded")
	return nil
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// dispatchReload invokes all listeners on the caller's goroutine.
func (cs *ConfigStore) dispatchReload() {
	cs.mu.RLock()
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// Watch reloads the backing file whenever it changes until ctx is done.
// The directory is watched so that editors replacing the file are seen.
func (cs *ConfigStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(cs.path)); err != nil {
		watcher.Close()
		return err
	}
	cs.wg.Add(1)
	go cs.watchLoop(ctx, watcher)
	cs.log.Info().Str("path", cs.path).Msg("watching configuration file")
	return nil
}

func (cs *ConfigStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer cs.wg.Done()
	defer watcher.Close()

	target := filepath.Clean(cs.path)
	debounce := time.NewTimer(reloadDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce.Reset(reloadDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			cs.log.Error().Err(err).Msg("config watcher error")
		case <-debounce.C:
			if err := cs.Reload(); err != nil {
				cs.log.Error().Err(err).Str("path", cs.path).Msg("configuration reload failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Wait blocks until every watcher started by Watch has stopped.
func (cs *ConfigStore) Wait() {
	cs.wg.Wait()
}
