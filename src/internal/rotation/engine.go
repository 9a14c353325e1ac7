// FILE: src/internal/rotation/engine.go
package rotation

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"

	"logroute/src/internal/core"
)

// SinkWriter is the narrow file-writer collaborator the engine drives.
// The engine owns rotation policy; the writer owns bytes.
type SinkWriter interface {
	Open(path string) error
	Write(p []byte) (int, error)
	Flush() error
	Close() error
}

// WriterFactory produces a fresh writer for each rotation window.
type WriterFactory func() SinkWriter

// CompletedFile describes an archive produced by rotation, fed to the
// retention catalogue.
type CompletedFile struct {
	Name    string
	Created time.Time
	Size    int64
}

// Config wires one engine to its destination.
type Config struct {
	Directory  string
	BaseName   string
	Template   *Template
	Interval   time.Duration // 0 = no scheduled rotation
	LocalTime  bool
	NewWriter  WriterFactory
	OnComplete func(CompletedFile) // optional
	Cooldown   time.Duration       // on-demand rate limit, defaults core.RotationCooldown
}

// Engine manages the active file of one file-backed destination: it
// computes rotation boundaries, generates archive names from the template
// and performs rate-limited rotation. The active file keeps a constant
// name; completed windows are renamed into place before a new active file
// is opened, so no writer ever observes a gap.
type Engine struct {
	cfg    Config
	logger *log.Logger

	mu          sync.Mutex
	cur         SinkWriter
	windowStart time.Time
	opened      bool

	onDemand *rate.Limiter

	// Last observed write time (unix nanos), compare-and-swap guarded so
	// a filesystem notification and a scheduled check racing on the same
	// observation trigger at most one rotation check.
	lastWrite atomic.Int64

	totalRotations atomic.Uint64
}

func NewEngine(cfg Config, logger *log.Logger) (*Engine, error) {
	if cfg.Directory == "" || cfg.BaseName == "" {
		return nil, fmt.Errorf("rotation engine requires directory and base name")
	}
	if cfg.Template == nil {
		return nil, fmt.Errorf("rotation engine requires a filename template")
	}
	if cfg.NewWriter == nil {
		return nil, fmt.Errorf("rotation engine requires a writer factory")
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = core.RotationCooldown
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		onDemand: rate.NewLimiter(rate.Every(cooldown), 1),
	}, nil
}

// ActivePath returns the constant path of the file currently open for
// writing.
func (e *Engine) ActivePath() string {
	return filepath.Join(e.cfg.Directory, e.cfg.BaseName+".log")
}

// Open creates the directory and the active file and opens the first
// window.
func (e *Engine) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opened {
		return nil
	}
	if err := os.MkdirAll(e.cfg.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", e.cfg.Directory, err)
	}
	w := e.cfg.NewWriter()
	if err := w.Open(e.ActivePath()); err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	e.cur = w
	e.windowStart = time.Now()
	e.opened = true
	return nil
}

// Write appends to the active file.
func (e *Engine) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened {
		return 0, fmt.Errorf("rotation engine not open")
	}
	return e.cur.Write(p)
}

// Flush pushes buffered bytes of the active file to disk.
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened {
		return nil
	}
	return e.cur.Flush()
}

// WindowStart returns the open time of the current window.
func (e *Engine) WindowStart() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windowStart
}

// TotalRotations returns the number of completed rotations.
func (e *Engine) TotalRotations() uint64 {
	return e.totalRotations.Load()
}

// CheckScheduled rotates when the current window has reached the
// configured interval. Repeated calls inside one window are no-ops;
// calling at or past the boundary rotates exactly once.
func (e *Engine) CheckScheduled(now time.Time) (bool, error) {
	if e.cfg.Interval <= 0 {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened || now.Sub(e.windowStart) < e.cfg.Interval {
		return false, nil
	}
	if err := e.rotateLocked(now); err != nil {
		return false, err
	}
	return true, nil
}

// RotateNow performs an on-demand rotation. A second request inside the
// cooldown window is a no-op reporting "not rotated" rather than an
// error. Only a completed rotation consumes the cooldown; a failed
// attempt returns its token so the caller can retry immediately.
func (e *Engine) RotateNow(now time.Time) (bool, error) {
	rsv := e.onDemand.Reserve()
	if !rsv.OK() || rsv.Delay() > 0 {
		rsv.Cancel()
		e.logger.Debug("msg", "On-demand rotation suppressed by cooldown",
			"component", "rotation",
			"base", e.cfg.BaseName)
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened {
		rsv.Cancel()
		return false, fmt.Errorf("rotation engine not open")
	}
	if err := e.rotateLocked(now); err != nil {
		rsv.Cancel()
		return false, err
	}
	return true, nil
}

// ObserveWrite records an externally observed write time. It returns
// true only for the trigger that advanced the value; a concurrent
// trigger carrying the same or an older observation loses the swap and
// must not re-check.
func (e *Engine) ObserveWrite(mod time.Time) bool {
	nano := mod.UnixNano()
	for {
		prev := e.lastWrite.Load()
		if nano <= prev {
			return false
		}
		if e.lastWrite.CompareAndSwap(prev, nano) {
			return true
		}
	}
}

// Close flushes and releases the active file. No rotation is performed;
// the active file simply stops growing.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened {
		return nil
	}
	e.opened = false
	if err := e.cur.Flush(); err != nil {
		e.logger.Warn("msg", "Flush on close failed",
			"component", "rotation",
			"base", e.cfg.BaseName,
			"error", err)
	}
	return e.cur.Close()
}

// rotateLocked stamps the window end, renames the active file to its
// archive name, opens a fresh active file and only then releases the old
// handle. Caller holds e.mu.
func (e *Engine) rotateLocked(now time.Time) error {
	archiveName := e.cfg.Template.Filename(e.cfg.BaseName, e.windowStart, now, e.cfg.LocalTime)
	archivePath := filepath.Join(e.cfg.Directory, archiveName)
	activePath := e.ActivePath()

	if err := os.Rename(activePath, archivePath); err != nil {
		return fmt.Errorf("failed to archive %q: %w", activePath, err)
	}

	next := e.cfg.NewWriter()
	if err := next.Open(activePath); err != nil {
		// Restore the previous window; the old handle is still valid.
		if rerr := os.Rename(archivePath, activePath); rerr != nil {
			e.logger.Error("msg", "Failed to restore active file after aborted rotation",
				"component", "rotation",
				"base", e.cfg.BaseName,
				"error", rerr)
		}
		return fmt.Errorf("failed to open new log file: %w", err)
	}

	old := e.cur
	e.cur = next
	e.windowStart = now
	e.totalRotations.Add(1)

	if err := old.Flush(); err != nil {
		e.logger.Warn("msg", "Flush of completed file failed",
			"component", "rotation",
			"file", archiveName,
			"error", err)
	}
	if err := old.Close(); err != nil {
		e.logger.Warn("msg", "Close of completed file failed",
			"component", "rotation",
			"file", archiveName,
			"error", err)
	}

	if e.cfg.OnComplete != nil {
		var size int64
		if info, err := os.Stat(archivePath); err == nil {
			size = info.Size()
		}
		e.cfg.OnComplete(CompletedFile{
			Name:    archiveName,
			Created: now,
			Size:    size,
		})
	}

	e.logger.Debug("msg", "Rotated log file",
		"component", "rotation",
		"base", e.cfg.BaseName,
		"archive", archiveName)
	return nil
}
