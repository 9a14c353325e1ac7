// FILE: src/internal/config/json.go
package config

import (
	"fmt"

	"github.com/valyala/fastjson"
)

func parseJSON(text []byte) (*document, error) {
	var p fastjson.Parser
	root, err := p.ParseBytes(text)
	if err != nil {
		return nil, fmt.Errorf("malformed JSON configuration: %w", err)
	}

	doc := &document{}

	if etw := root.Get("etwlogging"); etw != nil {
		enabledVal := etw.Get("enabled")
		if enabledVal == nil {
			return nil, fmt.Errorf("etwlogging: missing 'enabled' field")
		}
		enabled, err := parseBool(jsonScalar(enabledVal))
		if err != nil {
			return nil, fmt.Errorf("etwlogging: %w", err)
		}
		doc.etwEnabled = &enabled
	}

	logs := root.Get("loggers")
	if logs == nil {
		// Absent loggers array is a trivially valid empty set.
		return doc, nil
	}
	arr, err := logs.Array()
	if err != nil {
		return nil, fmt.Errorf("'loggers' must be an array: %w", err)
	}

	for _, l := range arr {
		raw := rawLog{
			name:             jsonField(l, "name"),
			typ:              jsonField(l, "type"),
			bufferSizeMB:     jsonField(l, "bufferSizeMB"),
			directory:        jsonField(l, "directory"),
			filenameTemplate: jsonField(l, "filenameTemplate"),
			timestampLocal:   jsonField(l, "timestampLocal"),
			rotationInterval: jsonField(l, "rotationInterval"),
			hostname:         jsonField(l, "hostname"),
			port:             jsonField(l, "port"),
			maximumAge:       jsonField(l, "maximumAge"),
			maximumSizeMB:    jsonField(l, "maximumSizeMB"),
		}

		if sources := l.GetArray("sources"); sources != nil {
			for _, s := range sources {
				raw.sources = append(raw.sources, rawSource{
					name:            jsonField(s, "name"),
					providerID:      jsonField(s, "providerID"),
					minimumSeverity: jsonField(s, "minimumSeverity"),
					keywords:        jsonField(s, "keywords"),
				})
			}
		}
		if filters := l.GetArray("filters"); filters != nil {
			for _, f := range filters {
				raw.filters = append(raw.filters, jsonScalar(f))
			}
		}

		doc.logs = append(doc.logs, raw)
	}
	return doc, nil
}

// jsonField reads an attribute as its textual form, leaving value-level
// validation to normalization. Missing fields become empty strings.
func jsonField(v *fastjson.Value, key string) string {
	f := v.Get(key)
	if f == nil {
		return ""
	}
	return jsonScalar(f)
}

// jsonScalar renders strings unquoted and every other scalar verbatim, so
// numbers and booleans parse the same way as XML attribute text.
func jsonScalar(v *fastjson.Value) string {
	if v.Type() == fastjson.TypeString {
		return string(v.GetStringBytes())
	}
	return v.String()
}
