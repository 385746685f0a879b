package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sepsim/sepsim/sim"
)

// LoadPlantConfig reads and validates a plant YAML. Parsing is strict:
// unknown fields are errors, so a typo in a limit name cannot silently fall
// back to a default.
func LoadPlantConfig(path string) (sim.PlantConfig, error) {
	var cfg sim.PlantConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read plant config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse plant config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("plant config %s: %w", path, err)
	}
	return cfg, nil
}

// MarshalPlantConfig renders a config back to YAML.
func MarshalPlantConfig(cfg sim.PlantConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
