// FILE: src/internal/core/keyword.go
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Keyword is a 64-bit category bitmask used to filter events in addition
// to severity. A subscription mask of zero matches every event.
type Keyword uint64

// ParseKeyword parses a hex keyword mask as it appears in configuration,
// with or without a 0x prefix.
func ParseKeyword(s string) (Keyword, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, nil
	}
	t = strings.TrimPrefix(strings.ToLower(t), "0x")
	v, err := strconv.ParseUint(t, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex keyword mask: %q", s)
	}
	return Keyword(v), nil
}

// Matches reports whether an event carrying mask kw passes this
// subscription mask.
func (k Keyword) Matches(kw Keyword) bool {
	return k == 0 || k&kw != 0
}

func (k Keyword) String() string {
	return fmt.Sprintf("0x%x", uint64(k))
}
