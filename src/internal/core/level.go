// FILE: src/internal/core/level.go
package core

import (
	"fmt"
	"strings"
)

// Level is the severity of an event. Lower values are more verbose; a
// subscription's minimum level is a floor, so merging two subscriptions
// takes the smaller (more permissive) value.
type Level uint8

const (
	LevelVerbose Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// ParseLevel maps a severity name to its Level. Both the short and long
// spellings accepted by the configuration schema are recognized.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verbose", "debug":
		return LevelVerbose, nil
	case "info", "information", "informational":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical", "fatal":
		return LevelCritical, nil
	default:
		return LevelVerbose, fmt.Errorf("unknown severity level: %q", s)
	}
}

// MinLevel returns the more permissive of two subscription floors.
func MinLevel(a, b Level) Level {
	if a < b {
		return a
	}
	return b
}
