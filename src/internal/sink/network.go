// FILE: src/internal/sink/network.go
package sink

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
	"logroute/src/internal/subscription"
)

// Transport is the network collaborator a network destination sends
// through. The engine never owns sockets directly.
type Transport interface {
	Send(p []byte, host string, port int) error
	Close() error
}

// DialTransport is the default transport: one cached connection per
// destination, re-dialed after an address change or a send failure.
// Works for both datagram and stream networks.
type DialTransport struct {
	network string

	mu   sync.Mutex
	conn net.Conn
	addr string
}

func NewUDPTransport() *DialTransport {
	return &DialTransport{network: "udp"}
}

func NewTCPTransport() *DialTransport {
	return &DialTransport{network: "tcp"}
}

func (t *DialTransport) Send(p []byte, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil || t.addr != addr {
		if t.conn != nil {
			t.conn.Close()
		}
		conn, err := net.DialTimeout(t.network, addr, 5*time.Second)
		if err != nil {
			return fmt.Errorf("failed to dial %s: %w", addr, err)
		}
		t.conn = conn
		t.addr = addr
	}

	if _, err := t.conn.Write(p); err != nil {
		t.conn.Close()
		t.conn = nil
		return fmt.Errorf("send to %s failed: %w", addr, err)
	}
	return nil
}

func (t *DialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// NetworkSink forwards accepted events to a remote host:port through the
// injected transport. Send failures degrade the destination: the record
// is dropped and the failure reported, never fatal.
type NetworkSink struct {
	cfg       *config.LogConfig
	input     chan core.EventRecord
	transport Transport
	filters   *filterChain
	resolver  *subscription.Resolver

	done      chan struct{}
	wg        sync.WaitGroup
	startTime time.Time
	logger    *log.Logger

	totalProcessed atomic.Uint64
	totalDropped   atomic.Uint64
	totalFailed    atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

func NewNetworkSink(cfg *config.LogConfig, transport Transport, logger *log.Logger) (*NetworkSink, error) {
	if cfg.Hostname == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("network destination requires hostname and port")
	}
	filters, err := newFilterChain(cfg.Filters)
	if err != nil {
		return nil, err
	}

	s := &NetworkSink{
		cfg:       cfg,
		input:     make(chan core.EventRecord, bufferCapacity(cfg.BufferSizeMB)),
		transport: transport,
		filters:   filters,
		done:      make(chan struct{}),
		startTime: time.Now(),
		logger:    logger,
	}
	s.lastProcessed.Store(time.Time{})
	s.resolver = subscription.NewResolver(cfg.Subscriptions, cfg.Capabilities(), s, logger)

	s.wg.Add(1)
	go s.processLoop()
	logger.Debug("msg", "Network sink started",
		"component", "network_sink",
		"log", cfg.Name,
		"host", cfg.Hostname,
		"port", cfg.Port)
	return s, nil
}

func (s *NetworkSink) Name() string                     { return s.cfg.Name }
func (s *NetworkSink) Type() config.DestinationType     { return config.TypeNetwork }
func (s *NetworkSink) Resolver() *subscription.Resolver { return s.resolver }

func (s *NetworkSink) Submit(rec core.EventRecord) bool {
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

func (s *NetworkSink) Stats() Stats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)
	return Stats{
		Name:           s.cfg.Name,
		Type:           s.Type().String(),
		TotalProcessed: s.totalProcessed.Load(),
		TotalDropped:   s.totalDropped.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"host":         s.cfg.Hostname,
			"port":         s.cfg.Port,
			"total_failed": s.totalFailed.Load(),
			"filters":      s.filters.stats(),
		},
	}
}

func (s *NetworkSink) Close() {
	close(s.done)
	s.wg.Wait()
	if err := s.transport.Close(); err != nil {
		s.logger.Warn("msg", "Error closing network transport",
			"component", "network_sink",
			"log", s.cfg.Name,
			"error", err)
	}
}

func (s *NetworkSink) Subscribe(src core.SourceID, min core.Level, kw core.Keyword) error {
	return nil
}

func (s *NetworkSink) Unsubscribe(src core.SourceID) error {
	return nil
}

func (s *NetworkSink) processLoop() {
	defer s.wg.Done()
	for {
		select {
		case rec := <-s.input:
			s.send(rec)
		case <-s.done:
			for {
				select {
				case rec := <-s.input:
					s.send(rec)
				default:
					return
				}
			}
		}
	}
}

func (s *NetworkSink) send(rec core.EventRecord) {
	buf := formatRecord(rec, s.cfg.TimestampLocal)
	if err := s.transport.Send(buf, s.cfg.Hostname, s.cfg.Port); err != nil {
		s.totalFailed.Add(1)
		s.logger.Error("msg", "Network send failed",
			"component", "network_sink",
			"log", s.cfg.Name,
			"error", err)
		return
	}
	s.totalProcessed.Add(1)
	s.lastProcessed.Store(time.Now())
}
