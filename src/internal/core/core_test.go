// FILE: src/internal/core/core_test.go
package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input       string
		expected    Level
		expectError bool
	}{
		{input: "verbose", expected: LevelVerbose},
		{input: "debug", expected: LevelVerbose},
		{input: "Informational", expected: LevelInfo},
		{input: " WARNING ", expected: LevelWarning},
		{input: "error", expected: LevelError},
		{input: "fatal", expected: LevelCritical},
		{input: "loud", expectError: true},
		{input: "", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			lvl, err := ParseLevel(tc.input)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, lvl)
		})
	}
}

func TestMinLevel(t *testing.T) {
	assert.Equal(t, LevelVerbose, MinLevel(LevelWarning, LevelVerbose))
	assert.Equal(t, LevelVerbose, MinLevel(LevelVerbose, LevelWarning))
	assert.Equal(t, LevelError, MinLevel(LevelError, LevelError))
}

func TestParseKeyword(t *testing.T) {
	testCases := []struct {
		input       string
		expected    Keyword
		expectError bool
	}{
		{input: "", expected: 0},
		{input: "0x3", expected: 0x3},
		{input: "0X3", expected: 0x3},
		{input: "ff", expected: 0xff},
		{input: "0xdeadbeef", expected: 0xdeadbeef},
		{input: "zz", expectError: true},
		{input: "0x", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			kw, err := ParseKeyword(tc.input)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, kw)
		})
	}
}

func TestKeywordMatches(t *testing.T) {
	assert.True(t, Keyword(0).Matches(0x8), "zero mask matches everything")
	assert.True(t, Keyword(0).Matches(0))
	assert.True(t, Keyword(0x3).Matches(0x2))
	assert.False(t, Keyword(0x3).Matches(0x4))
	assert.False(t, Keyword(0x3).Matches(0))
}
