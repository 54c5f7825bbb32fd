package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cogmap/domain/services"
)

// LayoutFile is the on-disk form of the layout spacing. Missing keys keep
// their defaults.
//
//	levelHeight: 150
//	nodeWidth: 200
//	gap: 50
type LayoutFile struct {
	LevelHeight *float64 `yaml:"levelHeight"`
	NodeWidth   *float64 `yaml:"nodeWidth"`
	Gap         *float64 `yaml:"gap"`
}

// LoadLayoutFile reads and validates a YAML layout file
func LoadLayoutFile(path string) (services.LayoutConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.LayoutConfig{}, fmt.Errorf("failed to read layout file: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes YAML layout settings over the defaults
func ParseLayout(data []byte) (services.LayoutConfig, error) {
	var file LayoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return services.LayoutConfig{}, fmt.Errorf("failed to parse layout file: %w", err)
	}

	cfg := services.DefaultLayoutConfig()
	if file.LevelHeight != nil {
		cfg.LevelHeight = *file.LevelHeight
	}
	if file.NodeWidth != nil {
		cfg.NodeWidth = *file.NodeWidth
	}
	if file.Gap != nil {
		cfg.Gap = *file.Gap
	}
	if err := cfg.Validate(); err != nil {
		return services.LayoutConfig{}, err
	}
	return cfg, nil
}
