// FILE: src/internal/config/parse.go
package config

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/lixenwraith/log"
)

// Store parses configuration text into validated log configurations. It
// is stateless apart from the injected diagnostics logger; parsing the
// same text twice yields equal results.
type Store struct {
	logger *log.Logger
}

func NewStore(logger *log.Logger) *Store {
	return &Store{logger: logger}
}

// Parse accepts XML or JSON configuration text and returns the validated
// set. Empty or whitespace-only text is trivially valid. A single bad
// entry never aborts its siblings; it is skipped (or defaulted) and the
// result is marked not clean.
func (s *Store) Parse(text []byte) *Result {
	result := newResult()

	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return result
	}

	var (
		doc *document
		err error
	)
	switch trimmed[0] {
	case '<':
		doc, err = parseXML(trimmed)
	case '{', '[':
		doc, err = parseJSON(trimmed)
	default:
		err = fmt.Errorf("unrecognized configuration format")
	}
	if err != nil {
		result.addDiag(DiagError, "", "", "%v", err)
		s.report(result)
		return result
	}

	if doc.etwEnabled != nil {
		result.ETWEnabled = *doc.etwEnabled
	}

	for i := range doc.logs {
		s.normalizeEntry(&doc.logs[i], result)
	}

	s.report(result)
	return result
}

// report surfaces collected diagnostics through the internal channel.
// Nothing here is fatal; the caller decides what to do with a dirty set.
func (s *Store) report(result *Result) {
	for _, d := range result.Diags {
		switch d.Severity {
		case DiagError:
			s.logger.Error("msg", "Configuration error",
				"component", "config",
				"entry", d.Entry,
				"attr", d.Attr,
				"detail", d.Message)
		case DiagWarning:
			s.logger.Warn("msg", "Configuration warning",
				"component", "config",
				"entry", d.Entry,
				"attr", d.Attr,
				"detail", d.Message)
		default:
			s.logger.Info("msg", "Configuration note",
				"component", "config",
				"entry", d.Entry,
				"detail", d.Message)
		}
	}
}

// parseBool accepts the boolean spellings of both wire formats.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %q", s)
	}
}

func parseInt(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %q", s)
	}
	return v, nil
}
