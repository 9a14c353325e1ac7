// FILE: src/internal/sink/sink_test.go
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logroute/src/internal/config"
	"logroute/src/internal/core"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestFormatRecord(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 45, 123_000_000, time.UTC)

	testCases := []struct {
		name     string
		rec      core.EventRecord
		expected string
	}{
		{
			name: "Full",
			rec: core.EventRecord{
				Time:    ts,
				Source:  core.SourceID{Name: "MyApp"},
				Level:   core.LevelWarning,
				Message: "disk almost full",
				Fields:  []byte(`{"free_mb":12}`),
			},
			expected: `2026-03-01T12:30:45.123Z [warning] MyApp: disk almost full {"free_mb":12}` + "\n",
		},
		{
			name: "NoSourceNoFields",
			rec: core.EventRecord{
				Time:    ts,
				Level:   core.LevelInfo,
				Message: "started",
			},
			expected: "2026-03-01T12:30:45.123Z [info] started\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, string(formatRecord(tc.rec, false)))
		})
	}
}

func TestFilterChain(t *testing.T) {
	t.Run("EmptyPassesEverything", func(t *testing.T) {
		c, err := newFilterChain(nil)
		require.NoError(t, err)
		assert.True(t, c.Apply(core.EventRecord{Message: "anything"}))
	})

	t.Run("MatchesAnyPattern", func(t *testing.T) {
		c, err := newFilterChain([]string{"ERROR", "timeout"})
		require.NoError(t, err)

		assert.True(t, c.Apply(core.EventRecord{Message: "request timeout"}))
		assert.True(t, c.Apply(core.EventRecord{Message: "ERROR: boom"}))
		assert.False(t, c.Apply(core.EventRecord{Message: "all quiet"}))
	})

	t.Run("SourceNameIsMatchable", func(t *testing.T) {
		c, err := newFilterChain([]string{"^Billing "})
		require.NoError(t, err)

		assert.True(t, c.Apply(core.EventRecord{
			Source:  core.SourceID{Name: "Billing"},
			Message: "invoice created",
		}))
		assert.False(t, c.Apply(core.EventRecord{Message: "invoice created"}))
	})

	t.Run("InvalidPattern", func(t *testing.T) {
		_, err := newFilterChain([]string{"[unterminated"})
		assert.Error(t, err)
	})
}

func memoryConfig(name string) *config.LogConfig {
	return &config.LogConfig{
		Name:         name,
		Type:         config.TypeMemoryBuffer,
		BufferSizeMB: 1,
		Subscriptions: []config.SubscriptionConfig{
			{SourceName: "Src", MinLevel: core.LevelVerbose},
		},
	}
}

func TestMemorySink_RingOrder(t *testing.T) {
	s, err := NewMemorySink(memoryConfig("mem"), newTestLogger())
	require.NoError(t, err)
	defer s.Close()

	src := core.SourceID{Name: "Src"}
	s.Resolver().OnSourceAnnounced(src)

	capacity := 1 * recordsPerMB
	total := capacity + 10
	for i := 0; i < total; i++ {
		ok := s.Submit(core.EventRecord{
			Source:  src,
			Level:   core.LevelInfo,
			Message: fmt.Sprintf("msg-%d", i),
		})
		require.True(t, ok)
	}

	snap := s.Snapshot()
	require.Len(t, snap, capacity)
	assert.Equal(t, fmt.Sprintf("msg-%d", total-capacity), snap[0].Message, "oldest surviving record first")
	assert.Equal(t, fmt.Sprintf("msg-%d", total-1), snap[len(snap)-1].Message)
}

func TestMemorySink_UnsetBufferSizeGetsDefault(t *testing.T) {
	cfg := memoryConfig("mem")
	cfg.BufferSizeMB = 0

	s, err := NewMemorySink(cfg, newTestLogger())
	require.NoError(t, err)
	defer s.Close()

	src := core.SourceID{Name: "Src"}
	s.Resolver().OnSourceAnnounced(src)

	assert.True(t, s.Submit(core.EventRecord{Source: src, Level: core.LevelInfo, Message: "m"}))
	assert.Equal(t, core.DefaultBufferSizeMB*recordsPerMB, len(s.ring))
}

func TestMemorySink_RejectsUnsubscribedSource(t *testing.T) {
	s, err := NewMemorySink(memoryConfig("mem"), newTestLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.Submit(core.EventRecord{
		Source:  core.SourceID{Name: "Other"},
		Level:   core.LevelCritical,
		Message: "dropped",
	}))
	assert.Empty(t, s.Snapshot())
}

func TestTraceSink_SessionCalls(t *testing.T) {
	session := &recordingSession{}
	cfg := &config.LogConfig{
		Name:         "trace",
		Type:         config.TypeEventTracing,
		BufferSizeMB: 1,
		Subscriptions: []config.SubscriptionConfig{
			{SourceName: "Src", MinLevel: core.LevelInfo},
		},
	}

	s, err := NewTraceSink(cfg, func(name, directory string, bufferSizeMB int) (TraceSession, error) {
		return session, nil
	}, newTestLogger())
	require.NoError(t, err)

	src := core.SourceID{Name: "Src"}
	s.Resolver().OnSourceAnnounced(src)
	assert.Equal(t, 1, session.enables)

	assert.True(t, s.Submit(core.EventRecord{Source: src, Level: core.LevelError, Message: "e"}))
	assert.False(t, s.Submit(core.EventRecord{Source: src, Level: core.LevelVerbose, Message: "v"}),
		"below the subscription floor")
	assert.Equal(t, 1, session.writes)

	s.Close()
	assert.True(t, session.closed)
}

type recordingSession struct {
	enables  int
	disables int
	writes   int
	closed   bool
}

func (s *recordingSession) Enable(core.SourceID, core.Level, core.Keyword) error {
	s.enables++
	return nil
}

func (s *recordingSession) Disable(core.SourceID) error {
	s.disables++
	return nil
}

func (s *recordingSession) Write(core.EventRecord) error {
	s.writes++
	return nil
}

func (s *recordingSession) Close() error {
	s.closed = true
	return nil
}

func TestFileSink_WritesAndRotates(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.LogConfig{
		Name:             "app",
		Type:             config.TypeText,
		BufferSizeMB:     1,
		Directory:        dir,
		FilenameTemplate: "{base}-{start}-{end}.log",
		RotationInterval: 300 * time.Second,
		Subscriptions: []config.SubscriptionConfig{
			{SourceName: "Src", MinLevel: core.LevelVerbose},
		},
	}

	s, err := NewFileSink(cfg, newTestLogger())
	require.NoError(t, err)

	src := core.SourceID{Name: "Src"}
	s.Resolver().OnSourceAnnounced(src)

	require.True(t, s.Submit(core.EventRecord{Source: src, Level: core.LevelInfo, Message: "hello"}))

	// The processing loop is asynchronous; close drains and flushes.
	s.Close()

	data := readActiveFile(t, s)
	assert.Contains(t, data, "hello")
}

func TestFileSink_RetentionSeedSkipsSiblingLogs(t *testing.T) {
	dir := t.TempDir()
	stamp := "20260101-000000-20260101-010000"

	// An old archive of our own next to a sibling log sharing the name
	// prefix, with its own active file and archive.
	for _, name := range []string{
		"app-" + stamp + ".log",
		"app2.log",
		"app2-" + stamp + ".log",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	cfg := &config.LogConfig{
		Name:             "app",
		Type:             config.TypeText,
		BufferSizeMB:     1,
		Directory:        dir,
		FilenameTemplate: "{base}-{start}-{end}.log",
		RotationInterval: 300 * time.Second,
		Retention:        &config.RetentionConfig{MaxAge: time.Hour},
		Subscriptions: []config.SubscriptionConfig{
			{SourceName: "Src", MinLevel: core.LevelVerbose},
		},
	}

	s, err := NewFileSink(cfg, newTestLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 1, s.enforcer.Len(), "only our own archive is catalogued")

	// A sweep far in the future can only ever touch our own files.
	s.SweepRetention(time.Now().Add(365 * 24 * time.Hour))
	for _, name := range []string{"app2.log", "app2-" + stamp + ".log"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestFileSink_ScheduledRotationAfterFutureFileEvent(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.LogConfig{
		Name:             "app",
		Type:             config.TypeText,
		BufferSizeMB:     1,
		Directory:        dir,
		FilenameTemplate: "{base}-{start}-{end}.log",
		RotationInterval: 300 * time.Second,
		Subscriptions: []config.SubscriptionConfig{
			{SourceName: "Src", MinLevel: core.LevelVerbose},
		},
	}

	s, err := NewFileSink(cfg, newTestLogger())
	require.NoError(t, err)
	defer s.Close()

	// A notification carrying a timestamp ahead of the wall clock must
	// not suppress the schedule.
	s.OnFileEvent(s.engine.ActivePath(), time.Now().Add(time.Hour))
	require.Zero(t, s.engine.TotalRotations(), "window not elapsed yet")

	s.CheckRotation(s.engine.WindowStart().Add(301 * time.Second))
	assert.Equal(t, uint64(1), s.engine.TotalRotations())
}

func readActiveFile(t *testing.T, s *FileSink) string {
	t.Helper()
	data, err := os.ReadFile(s.engine.ActivePath())
	require.NoError(t, err)
	return string(data)
}
