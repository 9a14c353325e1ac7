// FILE: src/internal/subscription/resolver_test.go
package subscription

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

// recordingTarget counts subscribe calls and remembers the last binding
// per source key.
type recordingTarget struct {
	subscribes   int
	unsubscribes int
	lastLevel    core.Level
	lastKeywords core.Keyword
}

func (t *recordingTarget) Subscribe(src core.SourceID, min core.Level, kw core.Keyword) error {
	t.subscribes++
	t.lastLevel = min
	t.lastKeywords = kw
	return nil
}

func (t *recordingTarget) Unsubscribe(src core.SourceID) error {
	t.unsubscribes++
	return nil
}

func TestResolver_NameResolution(t *testing.T) {
	target := &recordingTarget{}
	r := NewResolver([]config.SubscriptionConfig{
		{SourceName: "MyApp", MinLevel: core.LevelWarning},
	}, config.Capabilities(config.TypeText), target, newTestLogger())

	assert.Equal(t, 1, r.Pending())

	src := core.SourceID{Name: "myapp", GUID: uuid.New()}
	r.OnSourceAnnounced(src)

	assert.Zero(t, r.Pending(), "name match is case-insensitive")
	assert.Equal(t, 1, target.subscribes)
	assert.True(t, r.Accepts(src, core.LevelError, 0))
	assert.False(t, r.Accepts(src, core.LevelInfo, 0))
}

func TestResolver_MergeLevelsAndKeywords(t *testing.T) {
	target := &recordingTarget{}
	r := NewResolver([]config.SubscriptionConfig{
		{SourceName: "App", MinLevel: core.LevelWarning, Keywords: 0x1},
		{SourceName: "app", MinLevel: core.LevelVerbose, Keywords: 0x2},
	}, config.Capabilities(config.TypeText), target, newTestLogger())

	src := core.SourceID{Name: "App"}
	r.OnSourceAnnounced(src)

	assert.Equal(t, core.LevelVerbose, target.lastLevel, "merge takes the more permissive floor")
	assert.Equal(t, core.Keyword(0x3), target.lastKeywords, "keywords union")
	assert.True(t, r.Accepts(src, core.LevelVerbose, 0x2))
	assert.False(t, r.Accepts(src, core.LevelVerbose, 0x4))
}

func TestResolver_ReannouncementIsIdempotent(t *testing.T) {
	target := &recordingTarget{}
	r := NewResolver([]config.SubscriptionConfig{
		{SourceName: "App", MinLevel: core.LevelInfo},
	}, config.Capabilities(config.TypeText), target, newTestLogger())

	src := core.SourceID{Name: "App"}
	r.OnSourceAnnounced(src)
	r.OnSourceAnnounced(src)
	r.OnSourceAnnounced(src)

	assert.Equal(t, 1, target.subscribes, "re-application must not double-subscribe")
}

func TestResolver_GUIDFallbackOnlyWithoutGUIDCapability(t *testing.T) {
	id := uuid.New()
	declared := []config.SubscriptionConfig{
		{ProviderID: id, MinLevel: core.LevelInfo},
	}

	t.Run("TextMatchesByGUIDFallback", func(t *testing.T) {
		target := &recordingTarget{}
		r := NewResolver(declared, config.Capabilities(config.TypeText), target, newTestLogger())

		r.OnSourceAnnounced(core.SourceID{Name: "whatever", GUID: id})
		assert.Equal(t, 1, target.subscribes)
		assert.Zero(t, r.Pending())
	})

	t.Run("EventTracingBindsDirect", func(t *testing.T) {
		target := &recordingTarget{}
		r := NewResolver(declared, config.Capabilities(config.TypeEventTracing), target, newTestLogger())

		r.BindDirect()
		assert.Equal(t, 1, target.subscribes, "GUID binds without a live source")
		assert.Zero(t, r.Pending())

		// An announced source with the same GUID but a different name
		// must not bind a second time through the fallback path.
		r.OnSourceAnnounced(core.SourceID{Name: "other", GUID: id})
		assert.Equal(t, 1, target.subscribes)
	})
}

func TestResolver_Remove(t *testing.T) {
	t.Run("RequiresCapability", func(t *testing.T) {
		target := &recordingTarget{}
		r := NewResolver([]config.SubscriptionConfig{
			{SourceName: "App"},
		}, config.Capabilities(config.TypeText), target, newTestLogger())

		r.OnSourceAnnounced(core.SourceID{Name: "App"})
		assert.Error(t, r.Remove("App"))
		assert.Zero(t, target.unsubscribes)
	})

	t.Run("UnsubscribesLiveBinding", func(t *testing.T) {
		target := &recordingTarget{}
		r := NewResolver([]config.SubscriptionConfig{
			{SourceName: "App"},
		}, config.Capabilities(config.TypeEventTracing), target, newTestLogger())

		src := core.SourceID{Name: "App", GUID: uuid.New()}
		r.OnSourceAnnounced(src)
		require.Equal(t, 1, target.subscribes)

		require.NoError(t, r.Remove("app"))
		assert.Equal(t, 1, target.unsubscribes)
		assert.False(t, r.Accepts(src, core.LevelCritical, 0))

		assert.Error(t, r.Remove("app"), "already removed")
	})
}

func TestResolver_AcceptsUnknownSource(t *testing.T) {
	target := &recordingTarget{}
	r := NewResolver([]config.SubscriptionConfig{
		{SourceName: "App"},
	}, config.Capabilities(config.TypeText), target, newTestLogger())

	assert.False(t, r.Accepts(core.SourceID{Name: "App"}, core.LevelCritical, 0),
		"nothing accepted before resolution")
}

func TestFeed_ReplayOnAttach(t *testing.T) {
	feed := NewFeed(newTestLogger())

	early := core.SourceID{Name: "Early", GUID: uuid.New()}
	feed.Announce(early)
	feed.Announce(early) // duplicate is a no-op

	var got []core.SourceID
	detach := feed.Attach(func(src core.SourceID) {
		got = append(got, src)
	})
	require.Len(t, got, 1, "seen sources replay on attach")
	assert.Equal(t, early, got[0])

	late := core.SourceID{Name: "Late"}
	feed.Announce(late)
	require.Len(t, got, 2)

	detach()
	detach() // safe to call twice
	feed.Announce(core.SourceID{Name: "AfterDetach"})
	assert.Len(t, got, 2, "detached listener receives nothing")

	assert.Len(t, feed.Sources(), 3)
}
