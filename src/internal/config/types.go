// FILE: src/internal/config/types.go
package config

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"logroute/src/internal/core"
)

// DestinationType is the closed set of destination kinds a log entry can
// declare. The type fully determines the entry's capability set.
type DestinationType uint8

const (
	TypeInvalid DestinationType = iota
	TypeConsole
	TypeMemoryBuffer
	TypeText
	TypeEventTracing
	TypeNetwork
)

func (t DestinationType) String() string {
	switch t {
	case TypeConsole:
		return "Console"
	case TypeMemoryBuffer:
		return "MemoryBuffer"
	case TypeText:
		return "Text"
	case TypeEventTracing:
		return "EventTracing"
	case TypeNetwork:
		return "Network"
	default:
		return "Invalid"
	}
}

// ParseDestinationType resolves a configured type attribute. An empty
// attribute defaults to Text; "none" and unrecognized values map to
// TypeInvalid and the entry is rejected by the caller.
func ParseDestinationType(s string) DestinationType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return TypeText
	case "console":
		return TypeConsole
	case "memorybuffer", "memory":
		return TypeMemoryBuffer
	case "text", "file":
		return TypeText
	case "eventtracing", "etw":
		return TypeEventTracing
	case "network":
		return TypeNetwork
	default:
		return TypeInvalid
	}
}

// CapabilitySet is a bitmask of features a destination type supports.
type CapabilitySet uint8

const (
	CapSubscribeByName CapabilitySet = 1 << iota
	CapSubscribeByGUID
	CapUnsubscribe
	CapFileBacked
	CapRegexFilter
)

func (s CapabilitySet) Has(c CapabilitySet) bool {
	return s&c == c
}

// Capabilities is the pure mapping from destination type to its feature
// set. There is no per-instance state; type is destiny.
func Capabilities(t DestinationType) CapabilitySet {
	switch t {
	case TypeConsole, TypeMemoryBuffer:
		return CapSubscribeByName | CapRegexFilter
	case TypeText:
		return CapSubscribeByName | CapFileBacked | CapRegexFilter
	case TypeEventTracing:
		return CapSubscribeByName | CapSubscribeByGUID | CapUnsubscribe | CapFileBacked
	case TypeNetwork:
		return CapSubscribeByName | CapRegexFilter
	default:
		return 0
	}
}

// SubscriptionConfig declares one source binding. Exactly one of
// SourceName or ProviderID is set after validation.
type SubscriptionConfig struct {
	SourceName string
	ProviderID uuid.UUID
	MinLevel   core.Level
	Keywords   core.Keyword
}

// ByGUID reports whether the subscription was declared by provider GUID.
func (s SubscriptionConfig) ByGUID() bool {
	return s.ProviderID != uuid.Nil
}

// RetentionConfig bounds the rotated-file catalogue of a log. Zero values
// disable the corresponding rule.
type RetentionConfig struct {
	MaxAge    time.Duration
	MaxSizeMB int64
}

// LogConfig is the validated, normalized model of one declared log.
type LogConfig struct {
	Name             string
	Type             DestinationType
	BufferSizeMB     int
	Directory        string
	FilenameTemplate string
	TimestampLocal   bool
	RotationInterval time.Duration // 0 = no automatic rotation
	Retention        *RetentionConfig
	Hostname         string
	Port             int
	Filters          []string
	Subscriptions    []SubscriptionConfig
}

// Key returns the case-insensitive registry key for this log.
func (c *LogConfig) Key() string {
	return strings.ToLower(c.Name)
}

// Capabilities returns the capability set of the entry's type.
func (c *LogConfig) Capabilities() CapabilitySet {
	return Capabilities(c.Type)
}
