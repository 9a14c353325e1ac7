// FILE: src/internal/config/diagnostic.go
package config

import "fmt"

// DiagSeverity classifies a parse diagnostic. Errors mark the overall
// result as not clean; informational notes do not.
type DiagSeverity uint8

const (
	DiagInfo DiagSeverity = iota
	DiagWarning
	DiagError
)

func (s DiagSeverity) String() string {
	switch s {
	case DiagInfo:
		return "info"
	case DiagWarning:
		return "warning"
	default:
		return "error"
	}
}

// Diagnostic is one collected validation event, attributed to the entry
// and attribute that produced it.
type Diagnostic struct {
	Severity DiagSeverity
	Entry    string
	Attr     string
	Message  string
}

func (d Diagnostic) String() string {
	if d.Attr != "" {
		return fmt.Sprintf("%s: log %q, attribute %q: %s", d.Severity, d.Entry, d.Attr, d.Message)
	}
	return fmt.Sprintf("%s: log %q: %s", d.Severity, d.Entry, d.Message)
}

// Result is the outcome of parsing one configuration text. Valid entries
// are always present regardless of sibling failures; Clean is false as
// soon as any entry produced an error-severity diagnostic.
type Result struct {
	Configs map[string]*LogConfig
	Clean   bool
	Diags   []Diagnostic

	// ETWEnabled reflects the process-wide etwlogging override; it is
	// evaluated before any individual entry.
	ETWEnabled bool
}

func newResult() *Result {
	return &Result{
		Configs:    make(map[string]*LogConfig),
		Clean:      true,
		ETWEnabled: true,
	}
}

func (r *Result) addDiag(sev DiagSeverity, entry, attr, format string, args ...any) {
	r.Diags = append(r.Diags, Diagnostic{
		Severity: sev,
		Entry:    entry,
		Attr:     attr,
		Message:  fmt.Sprintf(format, args...),
	})
	if sev == DiagError {
		r.Clean = false
	}
}

// Errors returns only the error-severity diagnostics.
func (r *Result) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diags {
		if d.Severity == DiagError {
			out = append(out, d)
		}
	}
	return out
}
