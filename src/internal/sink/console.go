// FILE: src/internal/sink/console.go
package sink

import (
	"bufio"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"
	"golang.org/x/term"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
	"logroute/src/internal/subscription"
)

// ConsoleSink is the reserved console destination. Interactive terminals
// get unbuffered writes so output appears immediately; redirected output
// is buffered and flushed whenever the input drains.
type ConsoleSink struct {
	cfg      *config.LogConfig
	input    chan core.EventRecord
	out      io.Writer
	buffered *bufio.Writer
	tty      bool
	filters  *filterChain
	resolver *subscription.Resolver

	done      chan struct{}
	wg        sync.WaitGroup
	startTime time.Time
	logger    *log.Logger

	totalProcessed atomic.Uint64
	totalDropped   atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

func NewConsoleSink(cfg *config.LogConfig, logger *log.Logger) (*ConsoleSink, error) {
	filters, err := newFilterChain(cfg.Filters)
	if err != nil {
		return nil, err
	}

	s := &ConsoleSink{
		cfg:       cfg,
		input:     make(chan core.EventRecord, bufferCapacity(cfg.BufferSizeMB)),
		tty:       term.IsTerminal(int(os.Stdout.Fd())),
		filters:   filters,
		done:      make(chan struct{}),
		startTime: time.Now(),
		logger:    logger,
	}
	if s.tty {
		s.out = os.Stdout
	} else {
		s.buffered = bufio.NewWriter(os.Stdout)
		s.out = s.buffered
	}
	s.lastProcessed.Store(time.Time{})
	s.resolver = subscription.NewResolver(cfg.Subscriptions, cfg.Capabilities(), s, logger)

	s.wg.Add(1)
	go s.processLoop()
	logger.Debug("msg", "Console sink started",
		"component", "console_sink",
		"tty", s.tty)
	return s, nil
}

func (s *ConsoleSink) Name() string                     { return s.cfg.Name }
func (s *ConsoleSink) Type() config.DestinationType     { return config.TypeConsole }
func (s *ConsoleSink) Resolver() *subscription.Resolver { return s.resolver }

func (s *ConsoleSink) Submit(rec core.EventRecord) bool {
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

func (s *ConsoleSink) Stats() Stats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)
	return Stats{
		Name:           s.cfg.Name,
		Type:           s.Type().String(),
		TotalProcessed: s.totalProcessed.Load(),
		TotalDropped:   s.totalDropped.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"tty":     s.tty,
			"filters": s.filters.stats(),
		},
	}
}

func (s *ConsoleSink) Close() {
	close(s.done)
	s.wg.Wait()
	if s.buffered != nil {
		s.buffered.Flush()
	}
}

// Subscribe and Unsubscribe satisfy the resolver target; the console has
// no per-source transport state to manage.
func (s *ConsoleSink) Subscribe(src core.SourceID, min core.Level, kw core.Keyword) error {
	s.logger.Debug("msg", "Console subscription applied",
		"component", "console_sink",
		"source", src.String(),
		"min_level", min.String())
	return nil
}

func (s *ConsoleSink) Unsubscribe(src core.SourceID) error {
	return nil
}

func (s *ConsoleSink) processLoop() {
	defer s.wg.Done()
	for {
		select {
		case rec := <-s.input:
			s.write(rec)
		case <-s.done:
			// Drain whatever was accepted before shutdown.
			for {
				select {
				case rec := <-s.input:
					s.write(rec)
				default:
					return
				}
			}
		default:
			if s.buffered != nil {
				s.buffered.Flush()
			}
			select {
			case rec := <-s.input:
				s.write(rec)
			case <-s.done:
			}
		}
	}
}

func (s *ConsoleSink) write(rec core.EventRecord) {
	if _, err := s.out.Write(formatRecord(rec, s.cfg.TimestampLocal)); err != nil {
		s.logger.Warn("msg", "Console write failed",
			"component", "console_sink",
			"error", err)
		return
	}
	s.totalProcessed.Add(1)
	s.lastProcessed.Store(time.Now())
}
