// FILE: src/internal/watch/watcher.go
package watch

import (
	"os"
	"sync"
	"time"

	"github.com/lixenwraith/log"
)

// DefaultInterval is the poll period used when none is configured.
const DefaultInterval = time.Second

// Watcher polls one configuration file and reports changes, debounced by
// last-write-time: a change fires only once the modification time has
// held stable across a full poll interval, so a writer mid-save never
// triggers a half-written reload.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func()
	logger   *log.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(path string, interval time.Duration, onChange func(), logger *log.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		path:     path,
		interval: interval,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
	w.logger.Debug("msg", "Configuration watcher started",
		"component", "watcher",
		"path", w.path)
}

// Stop halts polling. Safe to call more than once; returns after the
// poll goroutine has exited.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var applied time.Time
	if info, err := os.Stat(w.path); err == nil {
		applied = info.ModTime()
	}
	var pending time.Time

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				// Missing or unreadable file keeps the watcher alive; a
				// replace-by-rename passes through here between ticks.
				pending = time.Time{}
				continue
			}
			mod := info.ModTime()
			if mod.Equal(applied) {
				pending = time.Time{}
				continue
			}
			if !mod.Equal(pending) {
				pending = mod
				continue
			}
			applied = mod
			pending = time.Time{}
			w.logger.Info("msg", "Configuration file changed",
				"component", "watcher",
				"path", w.path,
				"modified", mod)
			w.onChange()
		}
	}
}
