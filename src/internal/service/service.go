// FILE: src/internal/service/service.go
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/log"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
	"logroute/src/internal/sink"
	"logroute/src/internal/subscription"
	"logroute/src/internal/watch"
)

const (
	// DefaultSweepInterval is the tick of the cooperative background
	// sweeper visiting every file-backed destination.
	DefaultSweepInterval = time.Second

	// DefaultRetentionEvery is how many rotation sweeps pass between
	// retention sweeps. Retention is far cheaper to defer than rotation.
	DefaultRetentionEvery = 60
)

// Options configures a Service. Zero values select the defaults.
type Options struct {
	// DataDir overrides the default log root. When empty the
	// LOGROUTE_DATA_DIR environment variable is consulted; non-absolute
	// values there are ignored and the working directory is used.
	DataDir string

	SweepInterval  time.Duration
	RetentionEvery int
	WatchInterval  time.Duration

	// TraceFactory supplies OS trace sessions for event-tracing
	// destinations. Defaults to the no-op session.
	TraceFactory sink.TraceSessionFactory

	// NewTransport supplies the network transport per destination.
	// Defaults to UDP.
	NewTransport func() sink.Transport
}

// Service is the explicit root object of the engine: configuration
// store, destination registry, source feed, config watcher and the
// background sweeper, with a start/stop lifecycle. There is no implicit
// global state.
type Service struct {
	opts   Options
	logger *log.Logger

	store    *config.Store
	feed     *subscription.Feed
	registry *Registry

	// applyMu serializes configuration reloads. Lookups and writes do
	// not take it; they synchronize on the registry's own lock.
	applyMu sync.Mutex

	watcherMu sync.Mutex
	watcher   *watch.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(ctx context.Context, opts Options, logger *log.Logger) *Service {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.RetentionEvery <= 0 {
		opts.RetentionEvery = DefaultRetentionEvery
	}
	dataDir := resolveDataDir(opts.DataDir, logger)

	serviceCtx, cancel := context.WithCancel(ctx)
	feed := subscription.NewFeed(logger)
	s := &Service{
		opts:   opts,
		logger: logger,
		store:  config.NewStore(logger),
		feed:   feed,
		ctx:    serviceCtx,
		cancel: cancel,
	}
	s.registry = NewRegistry(SinkDeps{
		Feed:         feed,
		TraceFactory: opts.TraceFactory,
		NewTransport: opts.NewTransport,
		DataDir:      dataDir,
	}, logger)
	return s
}

// Start launches the background sweeper.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.sweepLoop()
	s.logger.Info("msg", "Service started",
		"component", "service",
		"sweep_interval", s.opts.SweepInterval)
}

// SetConfiguration parses and applies configuration text, replacing the
// entire active destination set. Valid entries go live even when
// siblings failed; the return value reports whether the whole text was
// clean and every destination constructed.
func (s *Service) SetConfiguration(text []byte) bool {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	result := s.store.Parse(text)
	applied := s.registry.Apply(result.Configs)
	return result.Clean && applied
}

// SetConfigurationFile loads configuration from a file and installs a
// watcher that re-applies it whenever the file changes. A repeated call
// replaces the previous watcher.
func (s *Service) SetConfigurationFile(path string) bool {
	text, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("msg", "Failed to read configuration file",
			"component", "service",
			"path", path,
			"error", err)
		return false
	}
	ok := s.SetConfiguration(text)

	s.watcherMu.Lock()
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.watcher = watch.New(path, s.opts.WatchInterval, func() {
		s.reloadFile(path)
	}, s.logger)
	s.watcher.Start()
	s.watcherMu.Unlock()

	return ok
}

// IsConfigurationValid dry-run parses configuration text without
// touching the active set.
func (s *Service) IsConfigurationValid(text []byte) bool {
	return s.store.Parse(text).Clean
}

// RotateFiles requests an on-demand rotation of every file-backed
// destination. Rate-limited per destination; a cooldown no-op is not a
// failure.
func (s *Service) RotateFiles() bool {
	return s.registry.RotateAll(time.Now())
}

// CreateLogger registers a programmatic destination outside the
// configuration flow. The buffer size is normalized into the legal
// range; raw attribute text goes through SetConfiguration instead.
func (s *Service) CreateLogger(cfg *config.LogConfig) error {
	if cfg == nil || cfg.Name == "" {
		return fmt.Errorf("logger configuration requires a name")
	}
	if len(cfg.Subscriptions) == 0 {
		return fmt.Errorf("logger %q declares no subscriptions", cfg.Name)
	}
	resolved := *cfg
	if resolved.BufferSizeMB < core.MinBufferSizeMB {
		resolved.BufferSizeMB = core.DefaultBufferSizeMB
	} else if resolved.BufferSizeMB > core.MaxBufferSizeMB {
		resolved.BufferSizeMB = core.MaxBufferSizeMB
	}
	return s.registry.Create(&resolved)
}

// GetLogger returns the live destination registered under name.
func (s *Service) GetLogger(name string) (sink.Sink, bool) {
	return s.registry.Get(name)
}

// DestroyLogger removes and disposes one destination. The console
// destination is not removable.
func (s *Service) DestroyLogger(name string) error {
	return s.registry.Destroy(name)
}

// AnnounceSource publishes a newly appeared instrumentation source,
// resolving any pending subscriptions that match it.
func (s *Service) AnnounceSource(name string, providerID uuid.UUID) {
	s.feed.Announce(core.SourceID{Name: name, GUID: providerID})
}

// Publish offers one event record to every live destination and returns
// the number that accepted it.
func (s *Service) Publish(rec core.EventRecord) int {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	return s.registry.Publish(rec)
}

// NotifyFileEvent forwards an external file-change notification, e.g.
// from a filesystem notifier, to the owning destination.
func (s *Service) NotifyFileEvent(path string, lastWrite time.Time) {
	s.registry.NotifyFileEvent(path, lastWrite)
}

// Registry exposes the destination registry to the status surface.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Stats returns a service-wide statistics snapshot.
func (s *Service) Stats() map[string]any {
	return map[string]any{
		"destinations": s.registry.Stats(),
		"total":        s.registry.Len(),
		"applied_at":   s.registry.AppliedAt(),
		"sources":      len(s.feed.Sources()),
	}
}

// Shutdown stops the watcher and the sweeper, then disposes every
// destination. Outstanding writes complete or are cleanly discarded
// before file handles are released.
func (s *Service) Shutdown() {
	s.logger.Info("msg", "Service shutdown initiated",
		"component", "service")

	s.watcherMu.Lock()
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
	s.watcherMu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.registry.Shutdown()
	s.logger.Info("msg", "Service shutdown complete",
		"component", "service")
}

// reloadFile re-reads and re-applies the watched configuration file. A
// dirty parse still applies its valid entries, matching the initial
// load.
func (s *Service) reloadFile(path string) {
	text, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("msg", "Failed to re-read configuration file",
			"component", "service",
			"path", path,
			"error", err)
		return
	}
	if !s.SetConfiguration(text) {
		s.logger.Warn("msg", "Reloaded configuration was not clean",
			"component", "service",
			"path", path)
	}
}

// sweepLoop is the single cooperative background task visiting every
// file-backed destination: a rotation check each tick and a retention
// pass every RetentionEvery ticks. One goroutine regardless of how many
// destinations exist.
func (s *Service) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.registry.SweepRotation(now)
			tick++
			if tick >= s.opts.RetentionEvery {
				tick = 0
				s.registry.SweepRetention(now)
			}
		}
	}
}

// resolveDataDir establishes the default log root: an explicit option
// wins, then an absolute LOGROUTE_DATA_DIR, then the working directory.
// Non-absolute environment values are ignored.
func resolveDataDir(explicit string, logger *log.Logger) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(core.DataDirEnv); env != "" {
		if filepath.IsAbs(env) {
			return env
		}
		logger.Warn("msg", "Ignoring non-absolute data directory",
			"component", "service",
			"env", core.DataDirEnv,
			"value", env)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
