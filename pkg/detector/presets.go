package detector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PresetFileName is the file LoadOptionalPresets looks for.
const PresetFileName = "visibility.yaml"

// Preset is one named observation configuration as it appears on disk.
// Roots are live references and cannot be declared in a file; a consumer
// sets Options.Root after applying a preset.
type Preset struct {
	RootMargin string    `yaml:"rootMargin,omitempty"`
	Thresholds []float64 `yaml:"thresholds,flow,omitempty"`
	Once       bool      `yaml:"once,omitempty"`
}

// Options converts the preset to detector options.
func (p Preset) Options() Options {
	return Options{
		RootMargin: p.RootMargin,
		Thresholds: p.Thresholds,
		Once:       p.Once,
	}
}

type presetFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// LoadPresets reads named observation presets from a yaml file:
//
//	presets:
//	  lazy-image:
//	    rootMargin: 200px
//	  impression:
//	    thresholds: [0.5]
//	    once: true
//
// Every preset is validated; a malformed margin or out-of-range threshold
// fails the load with the preset's name in the error.
func LoadPresets(path string) (map[string]Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	presets := make(map[string]Options, len(file.Presets))
	for name, preset := range file.Presets {
		opts := preset.Options()
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		presets[name] = opts
	}
	return presets, nil
}

// LoadOptionalPresets reads visibility.yaml from dir if present. A missing
// file yields an empty preset map, not an error.
func LoadOptionalPresets(dir string) (map[string]Options, error) {
	path := filepath.Join(dir, PresetFileName)
	presets, err := LoadPresets(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Options{}, nil
		}
		return nil, err
	}
	return presets, nil
}
