package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Presets are the suggestions offered by the provider and request forms.
type Presets struct {
	ProviderTags       []string            `yaml:"provider_tags"`
	ProviderAttributes map[string][]string `yaml:"provider_attributes"`
	RequestTags        []string            `yaml:"request_tags"`
	RequestAttributes  map[string][]string `yaml:"request_attributes"`
}

// DefaultPresets returns the built-in suggestions.
func DefaultPresets() *Presets {
	return &Presets{
		ProviderTags: []string{"simulated", "test"},
		ProviderAttributes: map[string][]string{
			"sector":    {"1", "2", "3", "4"},
			"subsystem": {"vacuum", "power", "RF", "mechanical"},
		},
		RequestTags: []string{"calibration", "run"},
		RequestAttributes: map[string][]string{
			"status": {"normal", "abnormal"},
			"mode":   {"live", "batch"},
		},
	}
}

// LoadPresets reads presets from a YAML file. A missing file yields the
// defaults.
func LoadPresets(path string) (*Presets, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPresets(), nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParsePresets(file)
}

// ParsePresets decodes presets from r. Sections absent from the document
// keep their defaults.
func ParsePresets(r io.Reader) (*Presets, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	presets := DefaultPresets()
	if err := yaml.Unmarshal(data, presets); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	return presets, nil
}

// Save writes the presets as YAML.
func (p *Presets) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
