// FILE: src/internal/retention/enforcer.go
package retention

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"
)

// Entry is the catalogue record of one completed archive file. The file
// currently open for writing never appears here.
type Entry struct {
	Name    string
	Created time.Time
	Size    int64
}

// Policy bounds the catalogue. Zero values disable the corresponding
// rule; the rules combine as an OR, each file judged independently by
// whichever is more aggressive.
type Policy struct {
	MaxAge  time.Duration
	MaxSize int64 // bytes, cumulative newest to oldest
}

// Enforcer maintains the catalogue of produced files for one retaining
// log and evicts per policy. The single most recently completed file is
// exempt from both rules unconditionally, so a reader following rotation
// never loses the file it just switched to.
type Enforcer struct {
	dir    string
	policy Policy
	logger *log.Logger

	mu    sync.Mutex
	files []Entry // ordered oldest first

	// Injectable for tests; defaults to os.Remove.
	remove func(path string) error

	totalDeleted atomic.Uint64
	totalFailed  atomic.Uint64
}

func NewEnforcer(dir string, policy Policy, logger *log.Logger) *Enforcer {
	return &Enforcer{
		dir:    dir,
		policy: policy,
		logger: logger,
		remove: os.Remove,
	}
}

// Add records a newly completed file. Entries arrive in rotation order,
// newest last.
func (e *Enforcer) Add(ent Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files = append(e.files, ent)
}

// Seed scans the directory for pre-existing archives matched by accept,
// rebuilding the catalogue after a restart. The active file must not be
// matched by accept.
func (e *Enforcer) Seed(accept func(name string) bool) error {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var found []Entry
	for _, de := range entries {
		if de.IsDir() || !accept(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		found = append(found, Entry{
			Name:    de.Name(),
			Created: info.ModTime(),
			Size:    info.Size(),
		})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Created.Before(found[j].Created) })

	e.mu.Lock()
	e.files = found
	e.mu.Unlock()
	return nil
}

// Len returns the catalogue size.
func (e *Enforcer) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.files)
}

// TotalDeleted returns the number of files evicted so far.
func (e *Enforcer) TotalDeleted() uint64 {
	return e.totalDeleted.Load()
}

// Sweep evicts every file violating the age rule or whose inclusion in
// the newest-to-oldest cumulative size would exceed the size bound. All
// deletions happen in this one pass; an I/O failure on one file is
// reported and the sweep continues. Returns the number of files removed.
func (e *Enforcer) Sweep(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.files) < 2 {
		// Nothing but the most recently completed file, which is exempt.
		return 0
	}

	doomed := make(map[int]bool)

	// Cumulative size, newest to oldest. The exempt newest file still
	// counts toward the total it shares with older files.
	var cumulative int64
	for i := len(e.files) - 1; i >= 0; i-- {
		cumulative += e.files[i].Size
		if i == len(e.files)-1 {
			continue
		}
		if e.policy.MaxSize > 0 && cumulative > e.policy.MaxSize {
			doomed[i] = true
		}
		if e.policy.MaxAge > 0 && now.Sub(e.files[i].Created) > e.policy.MaxAge {
			doomed[i] = true
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	kept := e.files[:0]
	deleted := 0
	for i, f := range e.files {
		if !doomed[i] {
			kept = append(kept, f)
			continue
		}
		path := filepath.Join(e.dir, f.Name)
		if err := e.remove(path); err != nil && !os.IsNotExist(err) {
			e.totalFailed.Add(1)
			e.logger.Warn("msg", "Failed to evict expired log file",
				"component", "retention",
				"file", path,
				"error", err)
			// Keep the entry; the next sweep retries.
			kept = append(kept, f)
			continue
		}
		deleted++
		e.totalDeleted.Add(1)
	}
	e.files = kept

	if deleted > 0 {
		e.logger.Debug("msg", "Retention sweep complete",
			"component", "retention",
			"dir", e.dir,
			"deleted", deleted,
			"remaining", len(e.files))
	}
	return deleted
}
