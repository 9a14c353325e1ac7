// FILE: src/internal/rotation/template_test.go
package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	testCases := []struct {
		name        string
		text        string
		volatile    bool
		expectError bool
	}{
		{name: "Default", text: "{base}-{start}-{end}.log"},
		{name: "LiteralOnly", text: "archive.log"},
		{name: "HostIsVolatile", text: "{base}-{host}.log", volatile: true},
		{name: "SubsecIsVolatile", text: "{base}-{end}-{subsec}.log", volatile: true},
		{name: "UnknownPlaceholder", text: "{base}-{weekday}.log", expectError: true},
		{name: "UnbalancedOpen", text: "{base-{start}.log", expectError: true},
		{name: "UnbalancedClose", text: "base}-end.log", expectError: true},
		{name: "Empty", text: "", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tc.text)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.volatile, tmpl.Volatile())
		})
	}
}

func TestTemplate_Filename(t *testing.T) {
	tmpl, err := ParseTemplate("{base}-{start}-{end}.log")
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)

	name := tmpl.Filename("app", start, end, false)
	assert.Equal(t, "app-20260301-090500-20260301-091000.log", name)
}

func TestTemplate_ArchiveMatcher(t *testing.T) {
	tmpl, err := ParseTemplate("{base}-{start}-{end}.log")
	require.NoError(t, err)

	m, err := tmpl.ArchiveMatcher("app")
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	generated := tmpl.Filename("app", start, start.Add(time.Hour), false)
	assert.True(t, m.MatchString(generated), "every generated name matches")

	for _, name := range []string{
		"app.log",
		"app2.log",
		"app2-20260301-090500-20260301-100500.log",
		"app-not-a-stamp.log",
		"prefix-app-20260301-090500-20260301-100500.log",
	} {
		assert.False(t, m.MatchString(name), name)
	}
}

func TestTemplate_ConstantLengthAcrossTimeOfDay(t *testing.T) {
	tmpl, err := ParseTemplate("{base}-{start}-{end}.log")
	require.NoError(t, err)

	early := time.Date(2026, 1, 2, 0, 0, 1, 0, time.UTC)
	late := time.Date(2026, 11, 30, 23, 59, 59, 0, time.UTC)

	a := tmpl.Filename("svc", early, early.Add(time.Minute), false)
	b := tmpl.Filename("svc", late, late.Add(time.Minute), false)
	assert.Equal(t, len(a), len(b), "names must be constant length for retention bookkeeping")
}
