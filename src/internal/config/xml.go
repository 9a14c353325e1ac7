// FILE: src/internal/config/xml.go
package config

import (
	"encoding/xml"
	"fmt"
)

// XML wire shape of the loggers document. Attributes decode into strings;
// normalization owns all value-level validation.
type xmlDocument struct {
	XMLName    xml.Name       `xml:"loggers"`
	ETWLogging *xmlETWLogging `xml:"etwlogging"`
	Logs       []xmlLog       `xml:"log"`
}

type xmlETWLogging struct {
	Enabled string `xml:"enabled,attr"`
}

type xmlLog struct {
	Name             string      `xml:"name,attr"`
	Type             string      `xml:"type,attr"`
	BufferSizeMB     string      `xml:"bufferSizeMB,attr"`
	Directory        string      `xml:"directory,attr"`
	FilenameTemplate string      `xml:"filenameTemplate,attr"`
	TimestampLocal   string      `xml:"timestampLocal,attr"`
	RotationInterval string      `xml:"rotationInterval,attr"`
	Hostname         string      `xml:"hostname,attr"`
	Port             string      `xml:"port,attr"`
	MaximumAge       string      `xml:"maximumAge,attr"`
	MaximumSizeMB    string      `xml:"maximumSizeMB,attr"`
	Sources          []xmlSource `xml:"source"`
	Filters          []string    `xml:"filter"`
}

type xmlSource struct {
	Name            string `xml:"name,attr"`
	ProviderID      string `xml:"providerID,attr"`
	MinimumSeverity string `xml:"minimumSeverity,attr"`
	Keywords        string `xml:"keywords,attr"`
}

func parseXML(text []byte) (*document, error) {
	var x xmlDocument
	if err := xml.Unmarshal(text, &x); err != nil {
		return nil, fmt.Errorf("malformed XML configuration: %w", err)
	}

	doc := &document{}
	if x.ETWLogging != nil {
		enabled, err := parseBool(x.ETWLogging.Enabled)
		if err != nil {
			return nil, fmt.Errorf("etwlogging: %w", err)
		}
		doc.etwEnabled = &enabled
	}

	for _, l := range x.Logs {
		raw := rawLog{
			name:             l.Name,
			typ:              l.Type,
			bufferSizeMB:     l.BufferSizeMB,
			directory:        l.Directory,
			filenameTemplate: l.FilenameTemplate,
			timestampLocal:   l.TimestampLocal,
			rotationInterval: l.RotationInterval,
			hostname:         l.Hostname,
			port:             l.Port,
			maximumAge:       l.MaximumAge,
			maximumSizeMB:    l.MaximumSizeMB,
			filters:          l.Filters,
		}
		for _, s := range l.Sources {
			raw.sources = append(raw.sources, rawSource{
				name:            s.Name,
				providerID:      s.ProviderID,
				minimumSeverity: s.MinimumSeverity,
				keywords:        s.Keywords,
			})
		}
		doc.logs = append(doc.logs, raw)
	}
	return doc, nil
}
