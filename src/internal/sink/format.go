// FILE: src/internal/sink/format.go
package sink

import (
	"bytes"
	"time"

	"logroute/src/internal/core"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// formatRecord renders one event as a text line for the text, console
// and network destinations. The binary trace encoding is the trace
// session's concern, not ours.
func formatRecord(rec core.EventRecord, local bool) []byte {
	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	if local {
		ts = ts.Local()
	} else {
		ts = ts.UTC()
	}

	var b bytes.Buffer
	b.Grow(64 + len(rec.Message) + len(rec.Fields))
	b.WriteString(ts.Format(timestampLayout))
	b.WriteString(" [")
	b.WriteString(rec.Level.String())
	b.WriteByte(']')
	if rec.Source.Name != "" {
		b.WriteByte(' ')
		b.WriteString(rec.Source.Name)
		b.WriteByte(':')
	}
	b.WriteByte(' ')
	b.WriteString(rec.Message)
	if len(rec.Fields) > 0 {
		b.WriteByte(' ')
		b.Write(rec.Fields)
	}
	b.WriteByte('\n')
	return b.Bytes()
}
