// FILE: src/internal/config/document.go
package config

// document is the raw, untyped shape shared by the XML and JSON readers.
// Every attribute stays a string until normalization so that per-attribute
// failures can be collected individually instead of failing the decode.
type document struct {
	// nil when the text carries no etwlogging directive.
	etwEnabled *bool
	logs       []rawLog
}

type rawLog struct {
	name             string
	typ              string
	bufferSizeMB     string
	directory        string
	filenameTemplate string
	timestampLocal   string
	rotationInterval string
	hostname         string
	port             string
	maximumAge       string
	maximumSizeMB    string
	sources          []rawSource
	filters          []string
}

type rawSource struct {
	name            string
	providerID      string
	minimumSeverity string
	keywords        string
}

// displayName is the identifier used in diagnostics for entries that
// failed before a name was established.
func (r *rawLog) displayName() string {
	if r.name != "" {
		return r.name
	}
	return "(unnamed)"
}
