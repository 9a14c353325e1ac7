// FILE: src/internal/watch/watcher_test.go
package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestWatcher_FiresAfterStableChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loggers.xml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	var fired atomic.Int32
	w := New(path, 20*time.Millisecond, func() { fired.Add(1) }, newTestLogger())
	w.Start()
	defer w.Stop()

	// Unchanged file never triggers.
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load())

	require.NoError(t, os.WriteFile(path, []byte("b"), 0644))
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// One stable change fires exactly once.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatcher_MissingFileKeepsPolling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.xml")

	var fired atomic.Int32
	w := New(path, 20*time.Millisecond, func() { fired.Add(1) }, newTestLogger())
	w.Start()
	defer w.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fired.Load())

	require.NoError(t, os.WriteFile(path, []byte("now"), 0644))
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "file appearing counts as a change")
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	w := New(path, 10*time.Millisecond, func() {}, newTestLogger())
	w.Start()
	w.Stop()
	w.Stop()
}
