package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadFile overlays the TOML file at path onto settings. Keys absent from the file keep their current value;
// unknown keys are rejected so that typos do not silently fall back to defaults.
func LoadFile(path string, settings *Settings) error {
	file, err := os.Open(path) //nolint:gosec // user-specified config file
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(settings); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}
