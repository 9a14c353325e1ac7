// FILE: src/internal/subscription/subscription.go
package subscription

import (
	"strings"

	"github.com/google/uuid"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
)

// State tracks the resolution lifecycle of a declared subscription.
// Resolved is terminal; a subscription never reverts.
type State uint8

const (
	StateUnresolved State = iota
	StateResolved
)

func (s State) String() string {
	if s == StateResolved {
		return "resolved"
	}
	return "unresolved"
}

// Target is the destination-side surface the resolver drives. Exactly
// one Subscribe call is made per resolution event; idempotent
// re-application never double-subscribes.
type Target interface {
	Subscribe(src core.SourceID, min core.Level, kw core.Keyword) error
	Unsubscribe(src core.SourceID) error
}

// Subscription is one declared binding progressing from Unresolved to
// Resolved as matching instrumentation sources are announced.
type Subscription struct {
	cfg    config.SubscriptionConfig
	state  State
	source core.SourceID
}

func (s *Subscription) State() State {
	return s.state
}

// matchesName reports a case-insensitive source-name match.
func (s *Subscription) matchesName(src core.SourceID) bool {
	return s.cfg.SourceName != "" && src.Name != "" &&
		strings.EqualFold(s.cfg.SourceName, src.Name)
}

// matchesGUID reports a provider GUID match against an announced source.
func (s *Subscription) matchesGUID(src core.SourceID) bool {
	return s.cfg.ByGUID() && s.cfg.ProviderID == src.GUID
}

// sourceKey is the identity under which resolved bindings merge: the
// GUID when known, otherwise the folded name.
func sourceKey(src core.SourceID) string {
	if src.GUID != uuid.Nil {
		return src.GUID.String()
	}
	return strings.ToLower(src.Name)
}
