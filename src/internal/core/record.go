// FILE: src/internal/core/record.go
package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SourceID identifies an in-process instrumentation source by name and GUID.
// Either part may be zero when the source was declared by the other.
type SourceID struct {
	Name string
	GUID uuid.UUID
}

func (s SourceID) String() string {
	if s.Name != "" {
		return s.Name
	}
	return s.GUID.String()
}

// EventRecord is a single structured event flowing from a source to the
// destinations subscribed to it.
type EventRecord struct {
	Time     time.Time       `json:"time"`
	Source   SourceID        `json:"-"`
	Level    Level           `json:"level"`
	Keywords Keyword         `json:"keywords,omitempty"`
	Message  string          `json:"message"`
	Fields   json.RawMessage `json:"fields,omitempty"`
}
