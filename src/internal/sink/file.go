// FILE: src/internal/sink/file.go
package sink

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
	"logroute/src/internal/retention"
	"logroute/src/internal/rotation"
	"logroute/src/internal/subscription"
)

// FileSink writes accepted events to a rotating text file, registering
// with the rotation engine and, when configured, the retention enforcer.
type FileSink struct {
	cfg      *config.LogConfig
	input    chan core.EventRecord
	engine   *rotation.Engine
	enforcer *retention.Enforcer // nil without a retention policy
	filters  *filterChain
	resolver *subscription.Resolver

	done      chan struct{}
	wg        sync.WaitGroup
	startTime time.Time
	logger    *log.Logger

	totalProcessed atomic.Uint64
	totalDropped   atomic.Uint64
	totalFailed    atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

func NewFileSink(cfg *config.LogConfig, logger *log.Logger) (*FileSink, error) {
	filters, err := newFilterChain(cfg.Filters)
	if err != nil {
		return nil, err
	}
	tmpl, err := rotation.ParseTemplate(cfg.FilenameTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid filename template: %w", err)
	}

	s := &FileSink{
		cfg:       cfg,
		input:     make(chan core.EventRecord, bufferCapacity(cfg.BufferSizeMB)),
		filters:   filters,
		done:      make(chan struct{}),
		startTime: time.Now(),
		logger:    logger,
	}

	if cfg.Retention != nil {
		s.enforcer = retention.NewEnforcer(cfg.Directory, retention.Policy{
			MaxAge:  cfg.Retention.MaxAge,
			MaxSize: cfg.Retention.MaxSizeMB * 1024 * 1024,
		}, logger)
	}

	engineCfg := rotation.Config{
		Directory: cfg.Directory,
		BaseName:  cfg.Name,
		Template:  tmpl,
		Interval:  cfg.RotationInterval,
		LocalTime: cfg.TimestampLocal,
		NewWriter: NewOSWriter,
	}
	if s.enforcer != nil {
		engineCfg.OnComplete = func(f rotation.CompletedFile) {
			s.enforcer.Add(retention.Entry{Name: f.Name, Created: f.Created, Size: f.Size})
		}
	}
	engine, err := rotation.NewEngine(engineCfg, logger)
	if err != nil {
		return nil, err
	}
	s.engine = engine

	if err := engine.Open(); err != nil {
		return nil, err
	}
	if s.enforcer != nil {
		// Only names this destination's template can have produced enter
		// the catalogue; sibling logs sharing the directory stay untouched.
		matcher, merr := tmpl.ArchiveMatcher(cfg.Name)
		if merr != nil {
			logger.Warn("msg", "Failed to build archive matcher",
				"component", "file_sink",
				"log", cfg.Name,
				"error", merr)
		} else {
			active := cfg.Name + ".log"
			if err := s.enforcer.Seed(func(name string) bool {
				return name != active && matcher.MatchString(name)
			}); err != nil {
				logger.Warn("msg", "Failed to seed retention catalogue",
					"component", "file_sink",
					"log", cfg.Name,
					"error", err)
			}
		}
	}

	s.lastProcessed.Store(time.Time{})
	s.resolver = subscription.NewResolver(cfg.Subscriptions, cfg.Capabilities(), s, logger)

	s.wg.Add(1)
	go s.processLoop()
	logger.Debug("msg", "File sink started",
		"component", "file_sink",
		"log", cfg.Name,
		"path", engine.ActivePath())
	return s, nil
}

func (s *FileSink) Name() string                     { return s.cfg.Name }
func (s *FileSink) Type() config.DestinationType     { return s.cfg.Type }
func (s *FileSink) Resolver() *subscription.Resolver { return s.resolver }

func (s *FileSink) Submit(rec core.EventRecord) bool {
	if !s.resolver.Accepts(rec.Source, rec.Level, rec.Keywords) {
		return false
	}
	if !s.filters.Apply(rec) {
		return false
	}
	select {
	case s.input <- rec:
		return true
	default:
		s.totalDropped.Add(1)
		return false
	}
}

// CheckRotation runs the scheduled check for the background sweeper.
// The check is idempotent within a window, so it needs no write-time
// dedup; that gate belongs to external notifications only, whose
// timestamps may run ahead of the wall clock.
func (s *FileSink) CheckRotation(now time.Time) {
	if _, err := s.engine.CheckScheduled(now); err != nil {
		s.totalFailed.Add(1)
		s.logger.Error("msg", "Scheduled rotation failed",
			"component", "file_sink",
			"log", s.cfg.Name,
			"error", err)
	}
}

func (s *FileSink) SweepRetention(now time.Time) {
	if s.enforcer != nil {
		s.enforcer.Sweep(now)
	}
}

func (s *FileSink) RotateNow(now time.Time) (bool, error) {
	return s.engine.RotateNow(now)
}

// OnFileEvent handles an external file-change notification for the
// active file.
func (s *FileSink) OnFileEvent(path string, mod time.Time) {
	if path != s.engine.ActivePath() {
		return
	}
	if !s.engine.ObserveWrite(mod) {
		return
	}
	if _, err := s.engine.CheckScheduled(time.Now()); err != nil {
		s.logger.Error("msg", "Rotation check after file event failed",
			"component", "file_sink",
			"log", s.cfg.Name,
			"error", err)
	}
}

func (s *FileSink) Stats() Stats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)
	details := map[string]any{
		"path":            s.engine.ActivePath(),
		"total_rotations": s.engine.TotalRotations(),
		"total_failed":    s.totalFailed.Load(),
		"filters":         s.filters.stats(),
	}
	if s.enforcer != nil {
		details["catalogue_size"] = s.enforcer.Len()
		details["total_evicted"] = s.enforcer.TotalDeleted()
	}
	return Stats{
		Name:           s.cfg.Name,
		Type:           s.Type().String(),
		TotalProcessed: s.totalProcessed.Load(),
		TotalDropped:   s.totalDropped.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details:        details,
	}
}

// Close drains accepted records and releases the file handle; nothing
// stays open or unflushed afterwards.
func (s *FileSink) Close() {
	close(s.done)
	s.wg.Wait()
	if err := s.engine.Close(); err != nil {
		s.logger.Error("msg", "Error closing file sink",
			"component", "file_sink",
			"log", s.cfg.Name,
			"error", err)
	}
}

func (s *FileSink) Subscribe(src core.SourceID, min core.Level, kw core.Keyword) error {
	s.logger.Debug("msg", "File subscription applied",
		"component", "file_sink",
		"log", s.cfg.Name,
		"source", src.String(),
		"min_level", min.String(),
		"keywords", kw.String())
	return nil
}

func (s *FileSink) Unsubscribe(src core.SourceID) error {
	return nil
}

func (s *FileSink) processLoop() {
	defer s.wg.Done()
	for {
		select {
		case rec := <-s.input:
			s.write(rec)
		case <-s.done:
			for {
				select {
				case rec := <-s.input:
					s.write(rec)
				default:
					return
				}
			}
		default:
			if err := s.engine.Flush(); err != nil {
				s.logger.Warn("msg", "Flush failed",
					"component", "file_sink",
					"log", s.cfg.Name,
					"error", err)
			}
			select {
			case rec := <-s.input:
				s.write(rec)
			case <-s.done:
			}
		}
	}
}

func (s *FileSink) write(rec core.EventRecord) {
	if _, err := s.engine.Write(formatRecord(rec, s.cfg.TimestampLocal)); err != nil {
		// Degraded, not fatal: the record is dropped and the failure
		// reported on the diagnostic channel.
		s.totalFailed.Add(1)
		s.logger.Error("msg", "File write failed",
			"component", "file_sink",
			"log", s.cfg.Name,
			"error", err)
		return
	}
	s.totalProcessed.Add(1)
	s.lastProcessed.Store(time.Now())
}
