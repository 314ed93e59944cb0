// File: facade/hioload.go
// Unified facade layer for hioload-udp.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HioloadUDP is the composition root: it owns the configuration store and
// control surface, builds endpoints, caches, backlogs and object pools from
// the active configuration, publishes their statistics as debug probes and
// tears everything down on Shutdown. Components built after a reload use
// the reloaded configuration; the log level is applied live.

package facade

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-udp/adapters"
	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/cache"
	"github.com/momentics/hioload-udp/control"
	"github.com/momentics/hioload-udp/internal/logging"
	"github.com/momentics/hioload-udp/pool"
	"github.com/momentics/hioload-udp/transport/udp"
)

// component is something the facade built and must close.
type component struct {
	probe string
	close func() error
}

// HioloadUDP is the main facade type.
type HioloadUDP struct {
	store   *control.ConfigStore
	control *adapters.ControlAdapter
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	components []component
	seq        map[string]int
	shutdown   bool
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*HioloadUDP)(nil)

// ErrShutdown is returned by constructors called after Shutdown.
var ErrShutdown = errors.New("facade is shut down")

// New builds a facade over cfg, or control.Defaults when nil.
func New(cfg *control.Config) (*HioloadUDP, error) {
	if cfg == nil {
		cfg = control.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newFacade(control.NewConfigStore(cfg)), nil
}

// Open builds a facade over the configuration file at path.
func Open(path string) (*HioloadUDP, error) {
	store, err := control.OpenConfigStore(path)
	if err != nil {
		return nil, err
	}
	return newFacade(store), nil
}

func newFacade(store *control.ConfigStore) *HioloadUDP {
	ctx, cancel := context.WithCancel(context.Background())
	h := &HioloadUDP{
		store:   store,
		control: adapters.NewControlAdapter(store),
		log:     logging.Component("facade"),
		ctx:     ctx,
		cancel:  cancel,
		seq:     make(map[string]int),
	}
	h.control.OnReload(h.applyReload)
	return h
}

// applyReload pushes live-tunable settings into running components.
func (h *HioloadUDP) applyReload() {
	h.control.Metrics().Add("control.reloads", 1)
	if level, ok := h.store.GetSnapshot()["log.level"].(string); ok {
		logging.SetLevel(level)
		h.log.Info().Str("level", level).Msg("log level applied")
	}
}

// WatchConfig reloads the backing file on change until Shutdown. It fails
// for facades built with New.
func (h *HioloadUDP) WatchConfig() error {
	if h.store.Path() == "" {
		return fmt.Errorf("%w: no configuration file to watch", api.ErrInvalidArgument)
	}
	return h.store.Watch(h.ctx)
}

// Config returns the active configuration.
func (h *HioloadUDP) Config() *control.Config {
	return h.store.Config()
}

// Control returns the control surface for config, metrics and probes.
func (h *HioloadUDP) Control() api.Control {
	return h.control
}

// Debug returns the probe registry.
func (h *HioloadUDP) Debug() api.Debug {
	return h.control
}

// Dial opens a client endpoint to remote.
func (h *HioloadUDP) Dial(ctx context.Context, remote netip.AddrPort) (*udp.Endpoint, error) {
	if h.isShutdown() {
		return nil, ErrShutdown
	}
	ep, err := udp.Dial(ctx, remote, endpointConfig(h.Config()))
	if err != nil {
		return nil, err
	}
	if err := h.track("udp.client", func() any { return ep.Stats() }, ep.Close); err != nil {
		return nil, err
	}
	return ep, nil
}

// Listen opens a server endpoint on local.
func (h *HioloadUDP) Listen(ctx context.Context, local netip.AddrPort) (*udp.Endpoint, error) {
	if h.isShutdown() {
		return nil, ErrShutdown
	}
	ep, err := udp.Listen(ctx, local, endpointConfig(h.Config()))
	if err != nil {
		return nil, err
	}
	if err := h.track("udp.server", func() any { return ep.Stats() }, ep.Close); err != nil {
		return nil, err
	}
	return ep, nil
}

// NewCache builds an expiring cache from the cache section.
func NewCache[K comparable, V any](h *HioloadUDP) (*cache.ExpiringCache[K, V], error) {
	if h.isShutdown() {
		return nil, ErrShutdown
	}
	c := cache.New[K, V](cacheConfig(h.Config()))
	err := h.track("cache", func() any { return c.Stats() }, func() error {
		c.Close()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewBacklog builds a circular queue sized by the queue section.
func NewBacklog[T any](h *HioloadUDP) (*pool.CircularQueue[T], error) {
	if h.isShutdown() {
		return nil, ErrShutdown
	}
	q := pool.NewCircularQueue[T](h.Config().Queue.Capacity)
	err := h.track("backlog", func() any {
		return map[string]int{"len": q.Len(), "cap": q.Cap()}
	}, nil)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// NewObjectPool builds a generic pool with the segment settings of the
// pool section.
func NewObjectPool[T any](h *HioloadUDP, newItem func() T) (*pool.Pool[T], error) {
	if h.isShutdown() {
		return nil, ErrShutdown
	}
	p := pool.New(objectPoolConfig(h.Config()), newItem)
	err := h.track("pool", func() any { return p.Stats() }, func() error {
		p.Close()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// track registers a probe for a new component and remembers how to close
// it. A component that arrives after Shutdown started is closed at once.
func (h *HioloadUDP) track(kind string, probe func() any, closeFn func() error) error {
	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		if closeFn != nil {
			_ = closeFn()
		}
		return ErrShutdown
	}
	h.seq[kind]++
	name := fmt.Sprintf("%s.%d", kind, h.seq[kind])
	h.components = append(h.components, component{probe: name, close: closeFn})
	// Registered under mu so Shutdown cannot unregister it first.
	h.control.RegisterDebugProbe(name, probe)
	h.mu.Unlock()

	h.log.Debug().Str("component", name).Msg("component registered")
	return nil
}

func (h *HioloadUDP) isShutdown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdown
}

// Shutdown stops the config watcher and closes every component in reverse
// creation order. Later calls are no-ops.
func (h *HioloadUDP) Shutdown() error {
	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		return nil
	}
	h.shutdown = true
	components := h.components
	h.components = nil
	h.mu.Unlock()

	h.cancel()
	h.store.Wait()

	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		h.control.UnregisterDebugProbe(c.probe)
		if c.close == nil {
			continue
		}
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.probe, err))
		}
	}
	h.log.Info().Int("components", len(components)).Msg("facade shut down")
	return errors.Join(errs...)
}
