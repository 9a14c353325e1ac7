// FILE: src/internal/service/registry.go
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lixenwraith/log"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
	"logroute/src/internal/sink"
	"logroute/src/internal/subscription"
)

// SinkDeps holds the collaborators shared by every destination the
// registry constructs. TraceFactory and NewTransport default to the
// no-op session and the UDP transport when unset.
type SinkDeps struct {
	Feed         *subscription.Feed
	TraceFactory sink.TraceSessionFactory
	NewTransport func() sink.Transport
	DataDir      string
}

// liveSink pairs a running destination with its feed detach handle.
type liveSink struct {
	sink   sink.Sink
	detach func()
}

// Registry owns the name to live-destination map. Apply rebuilds the
// whole set under one exclusive critical section; lookups observe either
// the pre-apply or the post-apply state, never an intermediate one.
type Registry struct {
	deps   SinkDeps
	logger *log.Logger

	mu    sync.RWMutex
	sinks map[string]*liveSink

	appliedAt time.Time
}

func NewRegistry(deps SinkDeps, logger *log.Logger) *Registry {
	if deps.TraceFactory == nil {
		deps.TraceFactory = sink.NewNopTraceSession
	}
	if deps.NewTransport == nil {
		deps.NewTransport = func() sink.Transport { return sink.NewUDPTransport() }
	}
	return &Registry{
		deps:   deps,
		logger: logger,
		sinks:  make(map[string]*liveSink),
	}
}

// Apply replaces the active destination set with the given validated
// configurations. Every current destination is disposed before its
// replacement is built, unchanged entries included; a rebuild is
// idempotent, not a diff-patch. One entry failing construction leaves
// that name absent and the apply reporting false while its siblings go
// live.
func (r *Registry) Apply(configs map[string]*config.LogConfig) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, live := range r.sinks {
		r.disposeLocked(key, live)
	}

	next := make(map[string]*liveSink, len(configs))
	ok := true
	for key, cfg := range configs {
		live, err := r.buildLocked(cfg)
		if err != nil {
			ok = false
			r.logger.Error("msg", "Failed to construct destination",
				"component", "registry",
				"log", cfg.Name,
				"type", cfg.Type.String(),
				"error", err)
			continue
		}
		next[key] = live
	}

	r.sinks = next
	r.appliedAt = time.Now()
	r.logger.Info("msg", "Configuration applied",
		"component", "registry",
		"destinations", len(next),
		"clean", ok)
	return ok
}

// Create constructs and registers one destination outside the
// configuration flow. The name must be free.
func (r *Registry) Create(cfg *config.LogConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cfg.Key()
	if _, exists := r.sinks[key]; exists {
		return fmt.Errorf("destination %q already exists", cfg.Name)
	}
	live, err := r.buildLocked(cfg)
	if err != nil {
		return err
	}
	r.sinks[key] = live
	return nil
}

// Get returns the live destination registered under name.
func (r *Registry) Get(name string) (sink.Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	live, ok := r.sinks[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return live.sink, true
}

// Destroy removes and disposes a single destination. The reserved
// console destination is not individually removable.
func (r *Registry) Destroy(name string) error {
	key := strings.ToLower(name)
	if key == core.ConsoleLoggerName {
		return fmt.Errorf("the console destination cannot be destroyed")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	live, ok := r.sinks[key]
	if !ok {
		return fmt.Errorf("destination %q not found", name)
	}
	r.disposeLocked(key, live)
	delete(r.sinks, key)
	return nil
}

// Publish offers one record to every live destination and returns the
// number that accepted it. Submit is non-blocking throughout, so holding
// the read lock here never stalls a concurrent reload for long.
func (r *Registry) Publish(rec core.EventRecord) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, live := range r.sinks {
		if live.sink.Submit(rec) {
			delivered++
		}
	}
	return delivered
}

// SweepRotation runs the scheduled-rotation check of every file-backed
// destination. Called from the single background sweeper.
func (r *Registry) SweepRotation(now time.Time) {
	for _, fb := range r.fileBacked() {
		fb.CheckRotation(now)
	}
}

// SweepRetention runs one retention pass over every file-backed
// destination with a policy.
func (r *Registry) SweepRetention(now time.Time) {
	for _, fb := range r.fileBacked() {
		fb.SweepRetention(now)
	}
}

// RotateAll requests an on-demand rotation of every file-backed
// destination. A cooldown no-op is still a success; only an I/O failure
// makes the overall result false.
func (r *Registry) RotateAll(now time.Time) bool {
	ok := true
	for _, fb := range r.fileBacked() {
		if _, err := fb.RotateNow(now); err != nil {
			ok = false
			r.logger.Error("msg", "On-demand rotation failed",
				"component", "registry",
				"log", fb.Name(),
				"error", err)
		}
	}
	return ok
}

// NotifyFileEvent forwards an external file-change notification to the
// destination owning the path, if any.
func (r *Registry) NotifyFileEvent(path string, mod time.Time) {
	for _, fb := range r.fileBacked() {
		fb.OnFileEvent(path, mod)
	}
}

// Stats returns a per-destination statistics snapshot, ordered by name.
func (r *Registry) Stats() []sink.Stats {
	r.mu.RLock()
	out := make([]sink.Stats, 0, len(r.sinks))
	for _, live := range r.sinks {
		out = append(out, live.sink.Stats())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of live destinations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}

// AppliedAt returns the time of the last successful Apply.
func (r *Registry) AppliedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.appliedAt
}

// Shutdown disposes every destination. No destination is left with an
// open, unflushed handle afterwards.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, live := range r.sinks {
		r.disposeLocked(key, live)
	}
	r.sinks = make(map[string]*liveSink)
	r.logger.Info("msg", "Registry shutdown complete",
		"component", "registry")
}

func (r *Registry) fileBacked() []sink.FileBacked {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []sink.FileBacked
	for _, live := range r.sinks {
		if fb, ok := live.sink.(sink.FileBacked); ok {
			out = append(out, fb)
		}
	}
	return out
}

// buildLocked constructs one destination from its configuration and
// attaches its resolver to the announcement feed. Either the returned
// destination is fully usable or nothing was registered.
func (r *Registry) buildLocked(cfg *config.LogConfig) (*liveSink, error) {
	resolved := *cfg
	resolved.Directory = r.resolveDirectory(cfg.Directory)

	if resolved.Capabilities().Has(config.CapFileBacked) {
		if err := os.MkdirAll(resolved.Directory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	var (
		s   sink.Sink
		err error
	)
	switch resolved.Type {
	case config.TypeConsole:
		s, err = sink.NewConsoleSink(&resolved, r.logger)
	case config.TypeMemoryBuffer:
		s, err = sink.NewMemorySink(&resolved, r.logger)
	case config.TypeText:
		s, err = sink.NewFileSink(&resolved, r.logger)
	case config.TypeEventTracing:
		s, err = sink.NewTraceSink(&resolved, r.deps.TraceFactory, r.logger)
	case config.TypeNetwork:
		s, err = sink.NewNetworkSink(&resolved, r.deps.NewTransport(), r.logger)
	default:
		err = fmt.Errorf("unknown destination type %q", resolved.Type)
	}
	if err != nil {
		return nil, err
	}

	detach := r.deps.Feed.Attach(s.Resolver().OnSourceAnnounced)
	return &liveSink{sink: s, detach: detach}, nil
}

// disposeLocked detaches a destination from the feed and closes it,
// flushing any open file.
func (r *Registry) disposeLocked(key string, live *liveSink) {
	live.detach()
	live.sink.Close()
	r.logger.Debug("msg", "Destination disposed",
		"component", "registry",
		"log", key)
}

// resolveDirectory roots a configured directory under the data
// directory. Absolute paths pass through untouched.
func (r *Registry) resolveDirectory(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(r.deps.DataDir, dir)
}
