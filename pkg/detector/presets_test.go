package detector

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePresetFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, PresetFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset file: %v", err)
	}
	return path
}

func TestLoadPresets(t *testing.T) {
	path := writePresetFile(t, `
presets:
  lazy-image:
    rootMargin: 200px
  impression:
    thresholds: [0.5]
    once: true
`)

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("got %d presets, want 2", len(presets))
	}

	lazy := presets["lazy-image"]
	if lazy.RootMargin != "200px" {
		t.Errorf("lazy-image rootMargin = %q", lazy.RootMargin)
	}
	if lazy.Once {
		t.Error("lazy-image should not be once")
	}

	impression := presets["impression"]
	if len(impression.Thresholds) != 1 || impression.Thresholds[0] != 0.5 {
		t.Errorf("impression thresholds = %v", impression.Thresholds)
	}
	if !impression.Once {
		t.Error("impression should be once")
	}
}

func TestLoadPresetsValidatesMargin(t *testing.T) {
	path := writePresetFile(t, `
presets:
  broken:
    rootMargin: 10vh
`)

	_, err := LoadPresets(path)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), `"broken"`) {
		t.Errorf("error %q should name the offending preset", err)
	}
}

func TestLoadPresetsValidatesThresholds(t *testing.T) {
	path := writePresetFile(t, `
presets:
  broken:
    thresholds: [0.5, 2]
`)

	if _, err := LoadPresets(path); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestLoadPresetsMalformedYaml(t *testing.T) {
	path := writePresetFile(t, "presets: [not a map")
	if _, err := LoadPresets(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoadOptionalPresetsMissingFile(t *testing.T) {
	presets, err := LoadOptionalPresets(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOptionalPresets: %v", err)
	}
	if len(presets) != 0 {
		t.Errorf("got %d presets from an empty dir, want 0", len(presets))
	}
}

func TestLoadOptionalPresetsReadsFile(t *testing.T) {
	path := writePresetFile(t, `
presets:
  hero:
    rootMargin: 10% 20%
`)

	presets, err := LoadOptionalPresets(filepath.Dir(path))
	if err != nil {
		t.Fatalf("LoadOptionalPresets: %v", err)
	}
	if _, ok := presets["hero"]; !ok {
		t.Error("hero preset missing")
	}
}
