// FILE: src/internal/rotation/engine_test.go
package rotation

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

// plainWriter is an unbuffered file writer for exercising the engine
// against a real directory.
type plainWriter struct {
	f *os.File
}

func (w *plainWriter) Open(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w.f = f
	return nil
}

func (w *plainWriter) Write(p []byte) (int, error) { return w.f.Write(p) }
func (w *plainWriter) Flush() error                { return nil }
func (w *plainWriter) Close() error                { return w.f.Close() }

func newTestEngine(t *testing.T, interval time.Duration, cooldown time.Duration, onComplete func(CompletedFile)) *Engine {
	t.Helper()
	tmpl, err := ParseTemplate("{base}-{start}-{end}.log")
	require.NoError(t, err)

	e, err := NewEngine(Config{
		Directory:  t.TempDir(),
		BaseName:   "app",
		Template:   tmpl,
		Interval:   interval,
		NewWriter:  func() SinkWriter { return &plainWriter{} },
		OnComplete: onComplete,
		Cooldown:   cooldown,
	}, newTestLogger())
	require.NoError(t, err)
	require.NoError(t, e.Open())
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngine_ScheduledRotatesExactlyOnce(t *testing.T) {
	var completed []CompletedFile
	e := newTestEngine(t, 300*time.Second, 0, func(f CompletedFile) {
		completed = append(completed, f)
	})

	_, err := e.Write([]byte("line\n"))
	require.NoError(t, err)

	start := e.WindowStart()
	rotations := 0
	for _, offset := range []time.Duration{60, 120, 180, 240, 300} {
		rotated, err := e.CheckScheduled(start.Add(offset * time.Second))
		require.NoError(t, err)
		if rotated {
			rotations++
			assert.Equal(t, 300*time.Second, offset*time.Second, "rotation occurs at the boundary, not before")
		}
	}
	assert.Equal(t, 1, rotations)
	assert.Equal(t, uint64(1), e.TotalRotations())

	// Same window after rotation: no further rotation.
	rotated, err := e.CheckScheduled(start.Add(301 * time.Second))
	require.NoError(t, err)
	assert.False(t, rotated)

	require.Len(t, completed, 1)
	assert.Equal(t, int64(5), completed[0].Size)

	archive := filepath.Join(filepath.Dir(e.ActivePath()), completed[0].Name)
	_, err = os.Stat(archive)
	assert.NoError(t, err, "archive exists on disk")
	_, err = os.Stat(e.ActivePath())
	assert.NoError(t, err, "a fresh active file replaced it")
}

func TestEngine_ScheduledDisabledWithZeroInterval(t *testing.T) {
	e := newTestEngine(t, 0, 0, nil)

	rotated, err := e.CheckScheduled(e.WindowStart().Add(24 * time.Hour))
	require.NoError(t, err)
	assert.False(t, rotated)
}

func TestEngine_OnDemandCooldown(t *testing.T) {
	cooldown := 100 * time.Millisecond
	e := newTestEngine(t, 0, cooldown, nil)

	rotated, err := e.RotateNow(time.Now())
	require.NoError(t, err)
	assert.True(t, rotated)

	rotated, err = e.RotateNow(time.Now())
	require.NoError(t, err, "cooldown suppression is not an error")
	assert.False(t, rotated)

	time.Sleep(cooldown + 50*time.Millisecond)

	rotated, err = e.RotateNow(time.Now())
	require.NoError(t, err)
	assert.True(t, rotated)

	assert.Equal(t, uint64(2), e.TotalRotations())
}

// failOnceWriter fails its first Open after arming, then behaves like
// plainWriter.
type failOnceWriter struct {
	plainWriter
	armed *bool
}

func (w *failOnceWriter) Open(path string) error {
	if *w.armed {
		*w.armed = false
		return fmt.Errorf("transient open failure")
	}
	return w.plainWriter.Open(path)
}

func TestEngine_FailedRotationKeepsCooldownToken(t *testing.T) {
	tmpl, err := ParseTemplate("{base}-{start}-{end}.log")
	require.NoError(t, err)

	armed := false
	e, err := NewEngine(Config{
		Directory: t.TempDir(),
		BaseName:  "app",
		Template:  tmpl,
		NewWriter: func() SinkWriter { return &failOnceWriter{armed: &armed} },
		Cooldown:  time.Hour,
	}, newTestLogger())
	require.NoError(t, err)
	require.NoError(t, e.Open())
	t.Cleanup(func() { e.Close() })

	armed = true
	rotated, err := e.RotateNow(time.Now())
	require.Error(t, err)
	assert.False(t, rotated)
	assert.Zero(t, e.TotalRotations())

	// The failed attempt did not burn the hour-long cooldown window.
	rotated, err = e.RotateNow(time.Now())
	require.NoError(t, err)
	assert.True(t, rotated)
	assert.Equal(t, uint64(1), e.TotalRotations())
}

func TestEngine_ObserveWriteDeduplicates(t *testing.T) {
	e := newTestEngine(t, 300*time.Second, 0, nil)

	obs := time.Now()
	assert.True(t, e.ObserveWrite(obs), "first observation advances")
	assert.False(t, e.ObserveWrite(obs), "same observation loses the swap")
	assert.False(t, e.ObserveWrite(obs.Add(-time.Second)), "older observation loses")
	assert.True(t, e.ObserveWrite(obs.Add(time.Second)))
}

func TestEngine_WriteAfterCloseFails(t *testing.T) {
	e := newTestEngine(t, 0, 0, nil)
	require.NoError(t, e.Close())

	_, err := e.Write([]byte("x"))
	assert.Error(t, err)
}
