package assembly

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bioforensics/yeat/internal/yeat/domain"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a serialization of the configuration document
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ParseFormat accepts a format name as given on the command line
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported document format %q (want yaml, json or toml)", name)
}

// FormatFromPath picks the format from a file extension, defaulting to YAML
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	}
	return FormatYAML
}

// Decode deserializes a configuration document into a generic mapping
func Decode(data []byte, format Format) (map[string]any, error) {
	doc := map[string]any{}
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatTOML:
		_, err = toml.Decode(string(data), &doc)
	case FormatYAML, "":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s document: %w", format, err)
	}
	return doc, nil
}

// Document is the typed shape of a configuration file.
// It is used to write documents; reading goes through Decode and Parse.
type Document struct {
	Samples        map[string]map[string]any `yaml:"samples" json:"samples" toml:"samples"`
	Assemblers     map[string]AssemblerEntry `yaml:"assemblers" json:"assemblers" toml:"assemblers"`
	GlobalSettings *domain.GlobalSettings    `yaml:"global_settings,omitempty" json:"global_settings,omitempty" toml:"global_settings,omitempty"`
}

// AssemblerEntry is one assembler definition in a Document
type AssemblerEntry struct {
	Algorithm string   `yaml:"algorithm" json:"algorithm" toml:"algorithm"`
	Arguments string   `yaml:"arguments,omitempty" json:"arguments,omitempty" toml:"arguments,omitempty"`
	Samples   []string `yaml:"samples,omitempty" json:"samples,omitempty" toml:"samples,omitempty"`
	Mode      string   `yaml:"mode,omitempty" json:"mode,omitempty" toml:"mode,omitempty"`
}

// Encode serializes the document
func (d *Document) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(d); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported document format %q", format)
}

// TemplateDocument returns the example configuration printed by "yeat init"
func TemplateDocument() *Document {
	global := domain.DefaultGlobalSettings()
	return &Document{
		Samples: map[string]map[string]any{
			"sample1": {
				"illumina": []string{"sample1_R1.fastq.gz", "sample1_R2.fastq.gz"},
			},
			"sample2": {
				"illumina":       "sample2_R*.fastq.gz",
				"pacbio_hifi":    "sample2_hifi.fastq.gz",
				"coverage_depth": 75,
			},
		},
		Assemblers: map[string]AssemblerEntry{
			"spades-default": {
				Algorithm: "spades",
			},
			"megahit-meta": {
				Algorithm: "megahit",
				Arguments: "--min-count 2",
				Samples:   []string{"sample1"},
			},
			"unicycler-hybrid": {
				Algorithm: "unicycler",
				Mode:      "hybrid",
			},
		},
		GlobalSettings: &global,
	}
}
