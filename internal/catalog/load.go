package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DefaultType string           `yaml:"default_type"`
	RoomTypes   map[string]Entry `yaml:"room_types"`
}

// Load reads a YAML override file and merges it over the built-in catalog.
// Fields left zero or absent in the file keep their built-in values; room
// types not in the built-in catalog are added as given.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	base := Default()
	entries := base.entries
	for roomType, override := range cfg.RoomTypes {
		if existing, ok := entries[roomType]; ok {
			entries[roomType] = mergeEntry(existing, override)
			continue
		}
		entries[roomType] = override
	}

	defaultType := base.defaultType
	if cfg.DefaultType != "" {
		defaultType = cfg.DefaultType
	}
	if _, ok := entries[defaultType]; !ok {
		return nil, fmt.Errorf("parse catalog: default room type %q has no entry", defaultType)
	}
	return New(entries, defaultType), nil
}

func mergeEntry(base, override Entry) Entry {
	if override.BaselineKWhPerM3 != 0 {
		base.BaselineKWhPerM3 = override.BaselineKWhPerM3
	}
	if override.Rate != 0 {
		base.Rate = override.Rate
	}
	if override.Limits.CO2Max != 0 {
		base.Limits.CO2Max = override.Limits.CO2Max
	}
	base.Limits.Temperature = mergeRange(base.Limits.Temperature, override.Limits.Temperature)
	base.Limits.Humidity = mergeRange(base.Limits.Humidity, override.Limits.Humidity)
	base.Limits.Light = mergeRange(base.Limits.Light, override.Limits.Light)
	return base
}

func mergeRange(base, override Range) Range {
	if override.Min != nil {
		base.Min = override.Min
	}
	if override.Max != nil {
		base.Max = override.Max
	}
	return base
}
