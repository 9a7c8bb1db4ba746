package filter

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Preset is a named rule set from a presets file. Sizes are human readable
// ("500 MB", "1.5GiB"), ages are Go durations ("720h").
type Preset struct {
	Name    string `yaml:"name"`
	MinSize string `yaml:"min_size"`
	MaxSize string `yaml:"max_size"`
	MinAge  string `yaml:"min_age"`
	MaxAge  string `yaml:"max_age"`
}

type presetsFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets reads and validates a YAML presets file. Every preset must be
// named and parseable so failures surface at startup, not mid-session.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for _, preset := range file.Presets {
		if preset.Name == "" {
			return nil, fmt.Errorf("preset without a name")
		}
		if _, err := preset.Rules(time.Time{}); err != nil {
			return nil, fmt.Errorf("preset %q: %w", preset.Name, err)
		}
	}
	return file.Presets, nil
}

func (preset Preset) Rules(now time.Time) (Rules, error) {
	rules := Rules{Now: now}
	var err error
	if rules.MinSize, err = parseSize(preset.MinSize); err != nil {
		return Rules{}, err
	}
	if rules.MaxSize, err = parseSize(preset.MaxSize); err != nil {
		return Rules{}, err
	}
	if rules.MinAge, err = parseAge(preset.MinAge); err != nil {
		return Rules{}, err
	}
	if rules.MaxAge, err = parseAge(preset.MaxAge); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func parseSize(value string) (uint64, error) {
	if value == "" {
		return 0, nil
	}
	size, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("bad size %q: %w", value, err)
	}
	return size, nil
}

func parseAge(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	age, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("bad age %q: %w", value, err)
	}
	if age < 0 {
		return 0, fmt.Errorf("negative age %q", value)
	}
	return age, nil
}

// ByName picks a preset, or errors naming what is available.
func ByName(presets []Preset, name string) (Preset, error) {
	names := make([]string, 0, len(presets))
	for _, preset := range presets {
		if preset.Name == name {
			return preset, nil
		}
		names = append(names, preset.Name)
	}
	return Preset{}, fmt.Errorf("unknown preset %q (have: %s)", name, strings.Join(names, ", "))
}
