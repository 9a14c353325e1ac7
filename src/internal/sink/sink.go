// FILE: src/internal/sink/sink.go
package sink

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
	"logroute/src/internal/rotation"
	"logroute/src/internal/subscription"
)

// Stats is the common statistics snapshot every destination exposes.
type Stats struct {
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	TotalProcessed uint64         `json:"total_processed"`
	TotalDropped   uint64         `json:"total_dropped"`
	StartTime      time.Time      `json:"start_time"`
	LastProcessed  time.Time      `json:"last_processed,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}

// Sink is a live log destination constructed from a LogConfig. Submit is
// non-blocking; a full buffer drops the record and reports false.
type Sink interface {
	Name() string
	Type() config.DestinationType
	Resolver() *subscription.Resolver
	Submit(rec core.EventRecord) bool
	Stats() Stats
	Close()
}

// FileBacked is the extra surface of destinations with a rotating file,
// visited by the registry's cooperative background sweep.
type FileBacked interface {
	Sink
	CheckRotation(now time.Time)
	SweepRetention(now time.Time)
	RotateNow(now time.Time) (bool, error)
	OnFileEvent(path string, mod time.Time)
}

const writerBufferSize = 64 * 1024

// recordsPerMB converts a configured buffer size in MB to an input
// channel capacity, assuming ~1KB per record.
const recordsPerMB = 1024

// bufferCapacity converts a configured buffer size in MB to a record
// capacity, clamping sizes that bypassed text validation into the legal
// range. An unset size gets the default rather than a zero-capacity
// buffer.
func bufferCapacity(sizeMB int) int {
	if sizeMB < core.MinBufferSizeMB {
		sizeMB = core.DefaultBufferSizeMB
	} else if sizeMB > core.MaxBufferSizeMB {
		sizeMB = core.MaxBufferSizeMB
	}
	return sizeMB * recordsPerMB
}

// osWriter is the default sink-writer collaborator: a buffered append
// writer over one os file.
type osWriter struct {
	f  *os.File
	bw *bufio.Writer
}

// NewOSWriter returns a writer instance for the rotation engine factory.
func NewOSWriter() rotation.SinkWriter {
	return &osWriter{}
}

func (w *osWriter) Open(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	w.f = f
	w.bw = bufio.NewWriterSize(f, writerBufferSize)
	return nil
}

func (w *osWriter) Write(p []byte) (int, error) {
	if w.bw == nil {
		return 0, fmt.Errorf("writer not open")
	}
	return w.bw.Write(p)
}

func (w *osWriter) Flush() error {
	if w.bw == nil {
		return nil
	}
	return w.bw.Flush()
}

func (w *osWriter) Close() error {
	if w.f == nil {
		return nil
	}
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
