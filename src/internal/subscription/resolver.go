// FILE: src/internal/subscription/resolver.go
package subscription

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/log"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
)

// binding is the applied state for one resolved source: the merge of
// every subscription that resolved to it.
type binding struct {
	source   core.SourceID
	minLevel core.Level
	keywords core.Keyword
}

// Resolver owns the declared subscriptions of one destination and
// matches them against instrumentation sources as they are announced.
// Overlapping declarations resolving to the same source merge: minimum
// level is the smaller, keywords are the bitwise union.
type Resolver struct {
	caps   config.CapabilitySet
	target Target
	logger *log.Logger

	mu       sync.Mutex
	subs     []*Subscription
	bindings map[string]*binding

	totalResolved   atomic.Uint64
	totalSubscribes atomic.Uint64
}

func NewResolver(declared []config.SubscriptionConfig, caps config.CapabilitySet, target Target, logger *log.Logger) *Resolver {
	r := &Resolver{
		caps:     caps,
		target:   target,
		logger:   logger,
		bindings: make(map[string]*binding),
	}
	for _, cfg := range declared {
		r.subs = append(r.subs, &Subscription{cfg: cfg})
	}
	return r
}

// BindDirect resolves GUID subscriptions immediately for destination
// types that can subscribe by GUID without a live source. Others stay
// Unresolved until a matching source is announced.
func (r *Resolver) BindDirect() {
	if !r.caps.Has(config.CapSubscribeByGUID) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.state == StateUnresolved && sub.cfg.ByGUID() {
			r.resolveLocked(sub, core.SourceID{GUID: sub.cfg.ProviderID})
		}
	}
}

// OnSourceAnnounced reacts to a newly appeared instrumentation source.
// Name matches take precedence; GUID fallback matching only applies to
// types lacking direct GUID subscription capability.
func (r *Resolver) OnSourceAnnounced(src core.SourceID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subs {
		matched := sub.matchesName(src)
		if !matched && !r.caps.Has(config.CapSubscribeByGUID) {
			matched = sub.matchesGUID(src)
		}
		if !matched {
			continue
		}
		r.resolveLocked(sub, src)
	}
}

// resolveLocked transitions a subscription to Resolved (terminal) and
// applies it to the merged binding of its source. At most one Subscribe
// call goes to the target per resolution event; a resolution that does
// not change the merged binding makes none.
func (r *Resolver) resolveLocked(sub *Subscription, src core.SourceID) {
	if sub.state == StateUnresolved {
		sub.state = StateResolved
		sub.source = src
		r.totalResolved.Add(1)
	}

	key := sourceKey(src)
	b, exists := r.bindings[key]
	if !exists {
		b = &binding{
			source:   src,
			minLevel: sub.cfg.MinLevel,
			keywords: sub.cfg.Keywords,
		}
		r.bindings[key] = b
		// Events may carry only one of the two identities, so a source
		// known under both is reachable under both.
		if alias := strings.ToLower(src.Name); alias != "" && alias != key {
			r.bindings[alias] = b
		}
		r.applyLocked(b)
		return
	}

	merged := core.MinLevel(b.minLevel, sub.cfg.MinLevel)
	mergedKw := b.keywords | sub.cfg.Keywords
	if merged == b.minLevel && mergedKw == b.keywords {
		// Idempotent re-application; nothing new to subscribe.
		return
	}
	b.minLevel = merged
	b.keywords = mergedKw
	r.applyLocked(b)
}

func (r *Resolver) applyLocked(b *binding) {
	r.totalSubscribes.Add(1)
	if err := r.target.Subscribe(b.source, b.minLevel, b.keywords); err != nil {
		r.logger.Error("msg", "Subscribe failed",
			"component", "resolver",
			"source", b.source.String(),
			"error", err)
	}
}

// Remove detaches a previously applied subscription from the live
// destination. Only types with unsubscription capability permit this.
func (r *Resolver) Remove(sourceName string) error {
	if !r.caps.Has(config.CapUnsubscribe) {
		return fmt.Errorf("destination type does not support unsubscription")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bindings {
		if strings.EqualFold(b.source.Name, sourceName) {
			for key, candidate := range r.bindings {
				if candidate == b {
					delete(r.bindings, key)
				}
			}
			return r.target.Unsubscribe(b.source)
		}
	}
	return fmt.Errorf("no applied subscription for source %q", sourceName)
}

// Accepts reports whether an event from src at the given level and
// keyword mask passes any applied binding of this destination.
func (r *Resolver) Accepts(src core.SourceID, level core.Level, kw core.Keyword) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[sourceKey(src)]
	if !ok && src.Name != "" {
		// The source may have been bound by name before its GUID was known.
		b, ok = r.bindings[strings.ToLower(src.Name)]
	}
	if !ok {
		return false
	}
	return level >= b.minLevel && b.keywords.Matches(kw)
}

// Pending returns the number of still-unresolved subscriptions.
func (r *Resolver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, sub := range r.subs {
		if sub.state == StateUnresolved {
			n++
		}
	}
	return n
}

// Stats returns resolver counters for the status surface.
func (r *Resolver) Stats() map[string]any {
	r.mu.Lock()
	declared := len(r.subs)
	distinct := make(map[*binding]struct{}, len(r.bindings))
	for _, b := range r.bindings {
		distinct[b] = struct{}{}
	}
	bound := len(distinct)
	r.mu.Unlock()

	return map[string]any{
		"declared":         declared,
		"bound_sources":    bound,
		"total_resolved":   r.totalResolved.Load(),
		"total_subscribes": r.totalSubscribes.Load(),
	}
}
