// FILE: src/internal/subscription/feed.go
package subscription

import (
	"sync"

	"github.com/lixenwraith/log"

	"logroute/src/internal/core"
)

// Feed is the in-process source-announcement stream. Destinations attach
// resolvers to it; sources announced before a resolver attaches are
// replayed on attach, so configuration order and source appearance order
// are independent.
type Feed struct {
	logger *log.Logger

	mu        sync.Mutex
	seen      []core.SourceID
	seenKeys  map[string]bool
	nextID    uint64
	listeners map[uint64]func(core.SourceID)
}

func NewFeed(logger *log.Logger) *Feed {
	return &Feed{
		logger:    logger,
		seenKeys:  make(map[string]bool),
		listeners: make(map[uint64]func(core.SourceID)),
	}
}

// Announce publishes a newly appeared instrumentation source to every
// attached listener. Re-announcing a known source is a no-op.
func (f *Feed) Announce(src core.SourceID) {
	f.mu.Lock()
	key := sourceKey(src)
	if f.seenKeys[key] {
		f.mu.Unlock()
		return
	}
	f.seenKeys[key] = true
	f.seen = append(f.seen, src)
	targets := make([]func(core.SourceID), 0, len(f.listeners))
	for _, cb := range f.listeners {
		targets = append(targets, cb)
	}
	f.mu.Unlock()

	f.logger.Debug("msg", "Instrumentation source announced",
		"component", "feed",
		"source", src.String())

	for _, cb := range targets {
		cb(src)
	}
}

// Attach registers a listener and replays every source seen so far. The
// returned detach function removes the listener; it is safe to call more
// than once.
func (f *Feed) Attach(cb func(core.SourceID)) (detach func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = cb
	replay := make([]core.SourceID, len(f.seen))
	copy(replay, f.seen)
	f.mu.Unlock()

	for _, src := range replay {
		cb(src)
	}

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// Sources returns a copy of every announced source.
func (f *Feed) Sources() []core.SourceID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.SourceID, len(f.seen))
	copy(out, f.seen)
	return out
}
