// FILE: src/internal/rotation/template.go
package rotation

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// Fixed-width stamp so generated names have constant length across any
// time of day; retention bookkeeping relies on this.
const timeLayout = "20060102-150405"

type placeholder uint8

const (
	phLiteral placeholder = iota
	phStart
	phEnd
	phBase
	phHost
	phSubsec
)

type segment struct {
	kind    placeholder
	literal string
}

// Template generates rotated filenames from positional placeholders:
// {start}, {end}, {base}, plus the discouraged {host} and {subsec}.
type Template struct {
	segments []segment
	volatile bool
}

// ParseTemplate compiles a filename template. Unknown placeholders and
// unbalanced braces are errors.
func ParseTemplate(text string) (*Template, error) {
	t := &Template{}
	rest := text
	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, fmt.Errorf("unbalanced '}' in template %q", text)
			}
			t.segments = append(t.segments, segment{kind: phLiteral, literal: rest})
			break
		}
		if open > 0 {
			t.segments = append(t.segments, segment{kind: phLiteral, literal: rest[:open]})
		}
		rest = rest[open+1:]
		closeIdx := strings.IndexByte(rest, '}')
		if closeIdx < 0 {
			return nil, fmt.Errorf("unbalanced '{' in template %q", text)
		}
		name := rest[:closeIdx]
		rest = rest[closeIdx+1:]

		switch name {
		case "start":
			t.segments = append(t.segments, segment{kind: phStart})
		case "end":
			t.segments = append(t.segments, segment{kind: phEnd})
		case "base":
			t.segments = append(t.segments, segment{kind: phBase})
		case "host":
			t.segments = append(t.segments, segment{kind: phHost})
			t.volatile = true
		case "subsec":
			t.segments = append(t.segments, segment{kind: phSubsec})
			t.volatile = true
		default:
			return nil, fmt.Errorf("unknown placeholder {%s} in template %q", name, text)
		}
	}
	if len(t.segments) == 0 {
		return nil, fmt.Errorf("empty filename template")
	}
	return t, nil
}

// Volatile reports whether the template uses placeholders that vary
// between rotations of the same window. Volatile templates are
// incompatible with retention.
func (t *Template) Volatile() bool {
	return t.volatile
}

// ArchiveMatcher compiles a matcher accepting exactly the names this
// template can generate for the given base. A sibling log whose base is
// a prefix of another ("app" next to "app2") never matches its
// neighbour's files.
func (t *Template) ArchiveMatcher(base string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, seg := range t.segments {
		switch seg.kind {
		case phLiteral:
			b.WriteString(regexp.QuoteMeta(seg.literal))
		case phStart, phEnd:
			b.WriteString(`\d{8}-\d{6}`)
		case phBase:
			b.WriteString(regexp.QuoteMeta(base))
		case phHost:
			b.WriteString(`[^/\\]+`)
		case phSubsec:
			b.WriteString(`\d{3}`)
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// Filename renders the archive name for a completed window.
func (t *Template) Filename(base string, start, end time.Time, local bool) string {
	if local {
		start = start.Local()
		end = end.Local()
	} else {
		start = start.UTC()
		end = end.UTC()
	}

	var b strings.Builder
	for _, seg := range t.segments {
		switch seg.kind {
		case phLiteral:
			b.WriteString(seg.literal)
		case phStart:
			b.WriteString(start.Format(timeLayout))
		case phEnd:
			b.WriteString(end.Format(timeLayout))
		case phBase:
			b.WriteString(base)
		case phHost:
			host, err := os.Hostname()
			if err != nil {
				host = "localhost"
			}
			b.WriteString(host)
		case phSubsec:
			b.WriteString(fmt.Sprintf("%03d", end.Nanosecond()/1e6))
		}
	}
	return b.String()
}
