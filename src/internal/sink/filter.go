// FILE: src/internal/sink/filter.go
package sink

import (
	"fmt"
	"regexp"
	"sync/atomic"

	"logroute/src/internal/core"
)

// filterChain applies a destination's regex filters to event text. A
// record passes when it matches any pattern; an empty chain passes
// everything.
type filterChain struct {
	patterns []*regexp.Regexp

	totalProcessed atomic.Uint64
	totalDropped   atomic.Uint64
}

func newFilterChain(patterns []string) (*filterChain, error) {
	c := &filterChain{}
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern[%d] %q: %w", i, p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

func (c *filterChain) Apply(rec core.EventRecord) bool {
	c.totalProcessed.Add(1)
	if len(c.patterns) == 0 {
		return true
	}

	text := rec.Message
	if rec.Source.Name != "" {
		text = rec.Source.Name + " " + text
	}
	for _, re := range c.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	c.totalDropped.Add(1)
	return false
}

func (c *filterChain) stats() map[string]any {
	return map[string]any{
		"pattern_count":   len(c.patterns),
		"total_processed": c.totalProcessed.Load(),
		"total_dropped":   c.totalDropped.Load(),
	}
}
