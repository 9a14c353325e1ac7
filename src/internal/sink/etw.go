// FILE: src/internal/sink/etw.go
package sink

import (
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
	"logroute/src/internal/subscription"
)

// TraceSession is the OS-level tracing transport collaborator. Session
// creation, privileges and the on-disk trace format live behind it.
type TraceSession interface {
	Enable(src core.SourceID, min core.Level, kw core.Keyword) error
	Disable(src core.SourceID) error
	Write(rec core.EventRecord) error
	Close() error
}

// TraceSessionFactory opens a session for one event-tracing destination.
type TraceSessionFactory func(name, directory string, bufferSizeMB int) (TraceSession, error)

// NewNopTraceSession returns a session that accepts everything and
// writes nothing, used when no real tracing transport is wired in. The
// destination runs degraded instead of failing construction.
func NewNopTraceSession(name, directory string, bufferSizeMB int) (TraceSession, error) {
	return nopTraceSession{}, nil
}

type nopTraceSession struct{}

func (nopTraceSession) Enable(core.SourceID, core.Level, core.Keyword) error { return nil }
func (nopTraceSession) Disable(core.SourceID) error                          { return nil }
func (nopTraceSession) Write(core.EventRecord) error                         { return nil }
func (nopTraceSession) Close() error                                         { return nil }

// TraceSink is the event-tracing destination. Subscriptions map directly
// onto session enable/disable calls; GUID subscriptions bind at
// construction without waiting for a live source.
type TraceSink struct {
	cfg      *config.LogConfig
	session  TraceSession
	resolver *subscription.Resolver

	startTime time.Time
	logger    *log.Logger

	totalProcessed atomic.Uint64
	totalFailed    atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

func NewTraceSink(cfg *config.LogConfig, factory TraceSessionFactory, logger *log.Logger) (*TraceSink, error) {
	session, err := factory(cfg.Name, cfg.Directory, cfg.BufferSizeMB)
	if err != nil {
		return nil, err
	}

	s := &TraceSink{
		cfg:       cfg,
		session:   session,
		startTime: time.Now(),
		logger:    logger,
	}
	s.lastProcessed.Store(time.Time{})
	s.resolver = subscription.NewResolver(cfg.Subscriptions, cfg.Capabilities(), s, logger)
	s.resolver.BindDirect()

	logger.Debug("msg", "Trace sink started",
		"component", "trace_sink",
		"log", cfg.Name)
	return s, nil
}

func (s *TraceSink) Name() string                     { return s.cfg.Name }
func (s *TraceSink) Type() config.DestinationType     { return config.TypeEventTracing }
func (s *TraceSink) Resolver() *subscription.Resolver { return s.resolver }

func (s *TraceSink) Submit(rec core.EventRecord) bool {
	if !s.resolver.Accepts(rec.Source, rec.Level, rec.Keywords) {
		return false
	}
	if err := s.session.Write(rec); err != nil {
		s.totalFailed.Add(1)
		s.logger.Error("msg", "Trace session write failed",
			"component", "trace_sink",
			"log", s.cfg.Name,
			"error", err)
		return false
	}
	s.totalProcessed.Add(1)
	s.lastProcessed.Store(time.Now())
	return true
}

func (s *TraceSink) Stats() Stats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)
	return Stats{
		Name:           s.cfg.Name,
		Type:           s.Type().String(),
		TotalProcessed: s.totalProcessed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"total_failed": s.totalFailed.Load(),
			"pending":      s.resolver.Pending(),
		},
	}
}

func (s *TraceSink) Close() {
	if err := s.session.Close(); err != nil {
		s.logger.Error("msg", "Error closing trace session",
			"component", "trace_sink",
			"log", s.cfg.Name,
			"error", err)
	}
}

func (s *TraceSink) Subscribe(src core.SourceID, min core.Level, kw core.Keyword) error {
	return s.session.Enable(src, min, kw)
}

func (s *TraceSink) Unsubscribe(src core.SourceID) error {
	return s.session.Disable(src)
}
