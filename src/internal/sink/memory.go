// FILE: src/internal/sink/memory.go
package sink

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
	"logroute/src/internal/subscription"
)

// MemorySink keeps the most recent accepted records in a bounded ring,
// readable from the status surface. Oldest records are overwritten when
// the ring is full.
type MemorySink struct {
	cfg      *config.LogConfig
	filters  *filterChain
	resolver *subscription.Resolver

	mu    sync.Mutex
	ring  []core.EventRecord
	next  int
	count int

	startTime time.Time
	logger    *log.Logger

	totalProcessed atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

func NewMemorySink(cfg *config.LogConfig, logger *log.Logger) (*MemorySink, error) {
	filters, err := newFilterChain(cfg.Filters)
	if err != nil {
		return nil, err
	}

	s := &MemorySink{
		cfg:       cfg,
		filters:   filters,
		ring:      make([]core.EventRecord, bufferCapacity(cfg.BufferSizeMB)),
		startTime: time.Now(),
		logger:    logger,
	}
	s.lastProcessed.Store(time.Time{})
	s.resolver = subscription.NewResolver(cfg.Subscriptions, cfg.Capabilities(), s, logger)

	logger.Debug("msg", "Memory buffer sink started",
		"component", "memory_sink",
		"log", cfg.Name,
		"capacity", len(s.ring))
	return s, nil
}

func (s *MemorySink) Name() string                     { return s.cfg.Name }
func (s *MemorySink) Type() config.DestinationType     { return config.TypeMemoryBuffer }
func (s *MemorySink) Resolver() *subscription.Resolver { return s.resolver }

func (s *MemorySink) Submit(rec core.EventRecord) bool {
	if !s.resolver.Accepts(rec.Source, rec.Level, rec.Keywords) {
		return false
	}
	if !s.filters.Apply(rec) {
		return false
	}

	s.mu.Lock()
	s.ring[s.next] = rec
	s.next = (s.next + 1) % len(s.ring)
	if s.count < len(s.ring) {
		s.count++
	}
	s.mu.Unlock()

	s.totalProcessed.Add(1)
	s.lastProcessed.Store(time.Now())
	return true
}

// Snapshot returns the buffered records oldest first.
func (s *MemorySink) Snapshot() []core.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.EventRecord, 0, s.count)
	start := s.next - s.count
	if start < 0 {
		start += len(s.ring)
	}
	for i := 0; i < s.count; i++ {
		out = append(out, s.ring[(start+i)%len(s.ring)])
	}
	return out
}

func (s *MemorySink) Stats() Stats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)
	s.mu.Lock()
	buffered := s.count
	s.mu.Unlock()

	return Stats{
		Name:           s.cfg.Name,
		Type:           s.Type().String(),
		TotalProcessed: s.totalProcessed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"buffered": buffered,
			"capacity": len(s.ring),
			"filters":  s.filters.stats(),
		},
	}
}

func (s *MemorySink) Close() {
	s.mu.Lock()
	s.count = 0
	s.next = 0
	s.mu.Unlock()
}

func (s *MemorySink) Subscribe(src core.SourceID, min core.Level, kw core.Keyword) error {
	return nil
}

func (s *MemorySink) Unsubscribe(src core.SourceID) error {
	return nil
}
