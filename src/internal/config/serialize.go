// FILE: src/internal/config/serialize.go
package config

import (
	"encoding/json"
	"sort"
	"time"

	"logroute/src/internal/core"
)

// Wire shape for serializing a validated set back to JSON. Matches the
// schema accepted by Parse, so a round trip yields an equal result.
type jsonExport struct {
	ETWLogging *jsonExportETW  `json:"etwlogging,omitempty"`
	Loggers    []jsonExportLog `json:"loggers"`
}

type jsonExportETW struct {
	Enabled bool `json:"enabled"`
}

type jsonExportLog struct {
	Name             string             `json:"name,omitempty"`
	Type             string             `json:"type"`
	BufferSizeMB     int                `json:"bufferSizeMB"`
	Directory        string             `json:"directory,omitempty"`
	FilenameTemplate string             `json:"filenameTemplate,omitempty"`
	TimestampLocal   bool               `json:"timestampLocal,omitempty"`
	RotationInterval int64              `json:"rotationInterval,omitempty"`
	Hostname         string             `json:"hostname,omitempty"`
	Port             int                `json:"port,omitempty"`
	MaximumAge       int64              `json:"maximumAge,omitempty"`
	MaximumSizeMB    int64              `json:"maximumSizeMB,omitempty"`
	Sources          []jsonExportSource `json:"sources"`
	Filters          []string           `json:"filters,omitempty"`
}

type jsonExportSource struct {
	Name            string `json:"name,omitempty"`
	ProviderID      string `json:"providerID,omitempty"`
	MinimumSeverity string `json:"minimumSeverity"`
	Keywords        string `json:"keywords,omitempty"`
}

// WriteJSON renders the validated set as canonical JSON, entries ordered
// by registry key.
func (r *Result) WriteJSON() ([]byte, error) {
	export := jsonExport{Loggers: []jsonExportLog{}}
	if !r.ETWEnabled {
		export.ETWLogging = &jsonExportETW{Enabled: false}
	}

	keys := make([]string, 0, len(r.Configs))
	for k := range r.Configs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		cfg := r.Configs[k]
		out := jsonExportLog{
			Type:             cfg.Type.String(),
			BufferSizeMB:     cfg.BufferSizeMB,
			Directory:        cfg.Directory,
			FilenameTemplate: cfg.FilenameTemplate,
			TimestampLocal:   cfg.TimestampLocal,
			RotationInterval: int64(cfg.RotationInterval.Seconds()),
			Hostname:         cfg.Hostname,
			Port:             cfg.Port,
			Filters:          cfg.Filters,
			Sources:          []jsonExportSource{},
		}
		if cfg.Type != TypeConsole {
			out.Name = cfg.Name
		}
		if cfg.Retention != nil {
			out.MaximumAge = int64(cfg.Retention.MaxAge / (24 * time.Hour))
			out.MaximumSizeMB = cfg.Retention.MaxSizeMB
		}
		for _, sub := range cfg.Subscriptions {
			src := jsonExportSource{
				MinimumSeverity: sub.MinLevel.String(),
			}
			if sub.ByGUID() {
				src.ProviderID = sub.ProviderID.String()
			} else {
				src.Name = sub.SourceName
			}
			if sub.Keywords != 0 {
				src.Keywords = sub.Keywords.String()
			}
			out.Sources = append(out.Sources, src)
		}
		export.Loggers = append(export.Loggers, out)
	}

	return json.MarshalIndent(export, "", "  ")
}

// ConsoleConfig returns the console entry of the set when declared.
func (r *Result) ConsoleConfig() (*LogConfig, bool) {
	cfg, ok := r.Configs[core.ConsoleLoggerName]
	return cfg, ok
}
