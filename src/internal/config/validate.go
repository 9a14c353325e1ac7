// FILE: src/internal/config/validate.go
package config

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"logroute/src/internal/core"
	"logroute/src/internal/rotation"
)

// DefaultFilenameTemplate names rotated files when an entry declares none.
const DefaultFilenameTemplate = "{base}-{start}-{end}.log"

// normalizeEntry validates one raw entry and, when it survives, inserts it
// into the result set. A later declaration of the same name completely
// replaces an earlier one.
func (s *Store) normalizeEntry(raw *rawLog, result *Result) {
	display := raw.displayName()

	typ := ParseDestinationType(raw.typ)
	if typ == TypeInvalid {
		result.addDiag(DiagError, display, "type", "unrecognized destination type %q, entry skipped", raw.typ)
		return
	}

	// The global override is evaluated before the entry itself: tracing
	// entries silently degrade to text when tracing is disabled.
	if typ == TypeEventTracing && !result.ETWEnabled {
		result.addDiag(DiagInfo, display, "type", "event tracing disabled by override, entry downgraded to Text")
		typ = TypeText
	}

	cfg := &LogConfig{
		Type:         typ,
		BufferSizeMB: core.DefaultBufferSizeMB,
	}
	caps := Capabilities(typ)

	// The console destination uses the reserved sentinel name; everything
	// else must be named.
	if typ == TypeConsole {
		if raw.name != "" {
			result.addDiag(DiagError, display, "name", "console destination must not declare a name, entry skipped")
			return
		}
		cfg.Name = core.ConsoleLoggerName
	} else {
		if raw.name == "" {
			result.addDiag(DiagError, display, "name", "missing required name, entry skipped")
			return
		}
		cfg.Name = raw.name
	}
	display = cfg.Name

	if raw.bufferSizeMB != "" {
		v, err := parseInt(raw.bufferSizeMB)
		if err != nil {
			result.addDiag(DiagError, display, "bufferSizeMB", "%v, using default %d", err, core.DefaultBufferSizeMB)
		} else if v < core.MinBufferSizeMB || v > core.MaxBufferSizeMB {
			clamped := min(max(v, core.MinBufferSizeMB), core.MaxBufferSizeMB)
			result.addDiag(DiagWarning, display, "bufferSizeMB", "%d outside [%d,%d], clamped to %d",
				v, core.MinBufferSizeMB, core.MaxBufferSizeMB, clamped)
			cfg.BufferSizeMB = int(clamped)
		} else {
			cfg.BufferSizeMB = int(v)
		}
	}

	if raw.timestampLocal != "" {
		v, err := parseBool(raw.timestampLocal)
		if err != nil {
			result.addDiag(DiagError, display, "timestampLocal", "%v, using default false", err)
		} else {
			cfg.TimestampLocal = v
		}
	}

	if !s.normalizeFileAttrs(raw, cfg, caps, result) {
		return
	}
	if !s.normalizeNetworkAttrs(raw, cfg, caps, result) {
		return
	}
	if !s.normalizeFilters(raw, cfg, caps, result) {
		return
	}

	s.normalizeSubscriptions(raw, cfg, result)
	if len(cfg.Subscriptions) == 0 {
		result.addDiag(DiagError, display, "", "no valid subscriptions, entry skipped")
		return
	}

	key := cfg.Key()
	if _, exists := result.Configs[key]; exists {
		result.addDiag(DiagInfo, display, "", "duplicate declaration replaces the earlier one")
	}
	result.Configs[key] = cfg
}

// normalizeFileAttrs handles directory, template, rotation and retention.
// Returns false when a capability violation invalidates the whole entry.
func (s *Store) normalizeFileAttrs(raw *rawLog, cfg *LogConfig, caps CapabilitySet, result *Result) bool {
	display := cfg.Name

	fileAttrsDeclared := raw.directory != "" || raw.filenameTemplate != "" ||
		raw.rotationInterval != "" || raw.maximumAge != "" || raw.maximumSizeMB != ""
	if !caps.Has(CapFileBacked) {
		if fileAttrsDeclared {
			result.addDiag(DiagError, display, "", "file attributes not valid for type %s, entry skipped", cfg.Type)
			return false
		}
		return true
	}

	cfg.Directory = raw.directory

	if raw.rotationInterval != "" {
		secs, err := parseInt(raw.rotationInterval)
		switch {
		case err != nil:
			result.addDiag(DiagError, display, "rotationInterval", "%v, rotation disabled", err)
		case secs == 0:
			// Explicitly disabled.
		case time.Duration(secs)*time.Second < core.MinRotationInterval:
			result.addDiag(DiagError, display, "rotationInterval",
				"%ds below minimum %s, rotation disabled", secs, core.MinRotationInterval)
		default:
			cfg.RotationInterval = time.Duration(secs) * time.Second
		}
	}

	retention := &RetentionConfig{}
	if raw.maximumAge != "" {
		days, err := parseInt(raw.maximumAge)
		if err != nil || days < 0 {
			result.addDiag(DiagError, display, "maximumAge", "invalid age in days: %q, ignored", raw.maximumAge)
		} else {
			retention.MaxAge = time.Duration(days) * 24 * time.Hour
		}
	}
	if raw.maximumSizeMB != "" {
		mb, err := parseInt(raw.maximumSizeMB)
		if err != nil || mb < 0 {
			result.addDiag(DiagError, display, "maximumSizeMB", "invalid size: %q, ignored", raw.maximumSizeMB)
		} else {
			retention.MaxSizeMB = mb
		}
	}
	if retention.MaxAge > 0 || retention.MaxSizeMB > 0 {
		if cfg.RotationInterval == 0 {
			result.addDiag(DiagError, display, "", "retention requires rotation to be enabled, retention dropped")
		} else {
			cfg.Retention = retention
		}
	}

	cfg.FilenameTemplate = raw.filenameTemplate
	if cfg.FilenameTemplate == "" {
		cfg.FilenameTemplate = DefaultFilenameTemplate
	}
	tmpl, err := rotation.ParseTemplate(cfg.FilenameTemplate)
	if err != nil {
		result.addDiag(DiagError, display, "filenameTemplate", "%v, using default", err)
		cfg.FilenameTemplate = DefaultFilenameTemplate
		tmpl, _ = rotation.ParseTemplate(DefaultFilenameTemplate)
	}
	if cfg.Retention != nil && tmpl.Volatile() {
		result.addDiag(DiagError, display, "filenameTemplate",
			"volatile placeholders break retention bookkeeping, retention dropped")
		cfg.Retention = nil
	}
	return true
}

func (s *Store) normalizeNetworkAttrs(raw *rawLog, cfg *LogConfig, caps CapabilitySet, result *Result) bool {
	display := cfg.Name

	if cfg.Type != TypeNetwork {
		if raw.hostname != "" || raw.port != "" {
			result.addDiag(DiagError, display, "", "hostname/port not valid for type %s, entry skipped", cfg.Type)
			return false
		}
		return true
	}

	cfg.Hostname = raw.hostname
	if raw.port != "" {
		p, err := parseInt(raw.port)
		if err != nil || p < 1 || p > 65535 {
			result.addDiag(DiagError, display, "port", "invalid port %q, entry skipped", raw.port)
			return false
		}
		cfg.Port = int(p)
	}
	if cfg.Hostname == "" || cfg.Port == 0 {
		result.addDiag(DiagError, display, "", "network destination requires hostname and nonzero port, entry skipped")
		return false
	}
	return true
}

func (s *Store) normalizeFilters(raw *rawLog, cfg *LogConfig, caps CapabilitySet, result *Result) bool {
	display := cfg.Name

	if len(raw.filters) == 0 {
		return true
	}
	if !caps.Has(CapRegexFilter) {
		result.addDiag(DiagError, display, "filter", "filters not valid for type %s, entry skipped", cfg.Type)
		return false
	}

	seen := make(map[string]bool, len(raw.filters))
	for _, f := range raw.filters {
		if seen[f] {
			result.addDiag(DiagError, display, "filter", "duplicate filter %q, skipped", f)
			continue
		}
		if _, err := regexp.Compile(f); err != nil {
			result.addDiag(DiagError, display, "filter", "invalid regex %q: %v, skipped", f, err)
			continue
		}
		seen[f] = true
		cfg.Filters = append(cfg.Filters, f)
	}
	return true
}

func (s *Store) normalizeSubscriptions(raw *rawLog, cfg *LogConfig, result *Result) {
	display := cfg.Name

	for i, src := range raw.sources {
		sub := SubscriptionConfig{MinLevel: core.LevelInfo}

		hasName := src.name != ""
		hasGUID := src.providerID != ""
		if hasName == hasGUID {
			result.addDiag(DiagError, display, "source",
				"source[%d] must declare exactly one of name or providerID, skipped", i)
			continue
		}
		if hasName {
			sub.SourceName = src.name
		} else {
			id, err := uuid.Parse(src.providerID)
			if err != nil {
				result.addDiag(DiagError, display, "source",
					"source[%d] invalid provider GUID %q, skipped", i, src.providerID)
				continue
			}
			sub.ProviderID = id
		}

		if src.minimumSeverity != "" {
			lvl, err := core.ParseLevel(src.minimumSeverity)
			if err != nil {
				result.addDiag(DiagError, display, "source", "source[%d]: %v, using default %s",
					i, err, sub.MinLevel)
			} else {
				sub.MinLevel = lvl
			}
		}
		if src.keywords != "" {
			kw, err := core.ParseKeyword(src.keywords)
			if err != nil {
				result.addDiag(DiagError, display, "source", "source[%d]: %v, using 0x0", i, err)
			} else {
				sub.Keywords = kw
			}
		}

		cfg.Subscriptions = append(cfg.Subscriptions, sub)
	}
}
