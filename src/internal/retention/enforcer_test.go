// FILE: src/internal/retention/enforcer_test.go
package retention

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

// newTestEnforcer captures removals instead of touching the filesystem.
func newTestEnforcer(policy Policy) (*Enforcer, *[]string) {
	e := NewEnforcer("/logs", policy, newTestLogger())
	var removed []string
	e.remove = func(path string) error {
		removed = append(removed, filepath.Base(path))
		return nil
	}
	return e, &removed
}

func TestSweep_AgeRule(t *testing.T) {
	now := time.Now()
	maxAge := 28 * 24 * time.Hour
	e, removed := newTestEnforcer(Policy{MaxAge: maxAge})

	e.Add(Entry{Name: "ancient.log", Created: now.Add(-40 * 24 * time.Hour), Size: 10})
	e.Add(Entry{Name: "old.log", Created: now.Add(-29 * 24 * time.Hour), Size: 10})
	e.Add(Entry{Name: "recent.log", Created: now.Add(-10 * 24 * time.Hour), Size: 10})
	e.Add(Entry{Name: "newest.log", Created: now.Add(-time.Hour), Size: 10})

	deleted := e.Sweep(now)
	assert.Equal(t, 2, deleted)
	assert.ElementsMatch(t, []string{"ancient.log", "old.log"}, *removed)
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, uint64(2), e.TotalDeleted())
}

func TestSweep_FileNewerThanMaxAgeNeverDeletedForAge(t *testing.T) {
	now := time.Now()
	e, removed := newTestEnforcer(Policy{MaxAge: 28 * 24 * time.Hour})

	e.Add(Entry{Name: "within.log", Created: now.Add(-27 * 24 * time.Hour), Size: 10})
	e.Add(Entry{Name: "newest.log", Created: now, Size: 10})

	assert.Zero(t, e.Sweep(now))
	assert.Empty(t, *removed)
}

func TestSweep_CumulativeSizeNewestToOldest(t *testing.T) {
	now := time.Now()
	// 25 MB budget; sizes newest to oldest: 10 + 10 = 20 ok, +10 = 30 over.
	e, removed := newTestEnforcer(Policy{MaxSize: 25 * 1024 * 1024})

	mb := int64(1024 * 1024)
	e.Add(Entry{Name: "oldest.log", Created: now.Add(-3 * time.Hour), Size: 10 * mb})
	e.Add(Entry{Name: "middle.log", Created: now.Add(-2 * time.Hour), Size: 10 * mb})
	e.Add(Entry{Name: "newest.log", Created: now.Add(-1 * time.Hour), Size: 10 * mb})

	deleted := e.Sweep(now)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{"oldest.log"}, *removed)
}

func TestSweep_NewestExemptEvenWhenAloneOverBudget(t *testing.T) {
	now := time.Now()
	e, removed := newTestEnforcer(Policy{MaxSize: 1024, MaxAge: time.Hour})

	e.Add(Entry{Name: "huge-and-old.log", Created: now.Add(-48 * time.Hour), Size: 1 << 30})

	assert.Zero(t, e.Sweep(now))
	assert.Empty(t, *removed)
	assert.Equal(t, 1, e.Len())
}

func TestSweep_RulesCombineAsOR(t *testing.T) {
	now := time.Now()
	e, removed := newTestEnforcer(Policy{
		MaxAge:  24 * time.Hour,
		MaxSize: 100,
	})

	// Old but tiny: violates age only.
	e.Add(Entry{Name: "old-small.log", Created: now.Add(-48 * time.Hour), Size: 1})
	// Young but pushes cumulative size over budget.
	e.Add(Entry{Name: "young-big.log", Created: now.Add(-time.Hour), Size: 90})
	e.Add(Entry{Name: "newest.log", Created: now, Size: 50})

	deleted := e.Sweep(now)
	assert.Equal(t, 2, deleted)
	assert.ElementsMatch(t, []string{"young-big.log", "old-small.log"}, *removed)
}

func TestSweep_FailedDeleteKeptForRetry(t *testing.T) {
	now := time.Now()
	e := NewEnforcer("/logs", Policy{MaxAge: time.Hour}, newTestLogger())

	calls := 0
	e.remove = func(path string) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("device busy")
		}
		return nil
	}

	e.Add(Entry{Name: "stuck.log", Created: now.Add(-3 * time.Hour), Size: 1})
	e.Add(Entry{Name: "newest.log", Created: now, Size: 1})

	assert.Zero(t, e.Sweep(now), "failed delete keeps the entry")
	assert.Equal(t, 2, e.Len())

	assert.Equal(t, 1, e.Sweep(now), "next sweep retries")
	assert.Equal(t, 1, e.Len())
}

func TestSweep_MissingFileDropsEntry(t *testing.T) {
	now := time.Now()
	e := NewEnforcer("/logs", Policy{MaxAge: time.Hour}, newTestLogger())
	e.remove = func(path string) error { return os.ErrNotExist }

	e.Add(Entry{Name: "gone.log", Created: now.Add(-3 * time.Hour), Size: 1})
	e.Add(Entry{Name: "newest.log", Created: now, Size: 1})

	assert.Equal(t, 1, e.Sweep(now), "already-deleted files leave the catalogue")
	assert.Equal(t, 1, e.Len())
}

func TestSeed_RebuildsCatalogueOldestFirst(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeArchive := func(name string, age time.Duration) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		mod := now.Add(-age)
		require.NoError(t, os.Chtimes(path, mod, mod))
	}
	writeArchive("app-0001.log", 3*time.Hour)
	writeArchive("app-0002.log", 2*time.Hour)
	writeArchive("app.log", 0) // active, must be excluded
	writeArchive("other.txt", time.Hour)

	e := NewEnforcer(dir, Policy{MaxAge: 150 * time.Minute}, newTestLogger())
	require.NoError(t, e.Seed(func(name string) bool {
		return name != "app.log" && filepath.Ext(name) == ".log"
	}))
	assert.Equal(t, 2, e.Len())

	assert.Equal(t, 1, e.Sweep(now), "seeded oldest entry violates the age rule")
	assert.Equal(t, 1, e.Len())

	_, err := os.Stat(filepath.Join(dir, "app-0001.log"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "app.log"))
	assert.NoError(t, err)
}

func TestSweep_SingleFileUntouched(t *testing.T) {
	now := time.Now()
	e, removed := newTestEnforcer(Policy{MaxAge: time.Minute, MaxSize: 1})

	e.Add(Entry{Name: "only.log", Created: now.Add(-time.Hour), Size: 1000})
	assert.Zero(t, e.Sweep(now))
	assert.Empty(t, *removed)
}
