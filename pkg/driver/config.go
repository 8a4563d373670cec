package driver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/persistent-c/persistent-c-go/pkg/stepper"
)

// SessionConfig is the session's tunable surface: how many steps to run
// before giving up, which builtins to make available, and whether to
// trace applied effects. Grounded on the teacher's manifest decoding: a
// yaml.v3 Decoder with KnownFields(true), so a typo in a config file
// fails loudly instead of being silently ignored.
type SessionConfig struct {
	StepLimit int      `yaml:"stepLimit"`
	Builtins  []string `yaml:"builtins"`
	Trace     bool     `yaml:"trace"`
}

// DefaultSessionConfig is what a session runs with if no config file is
// given: no step limit, every registered builtin available, no tracing.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{StepLimit: 0, Builtins: nil, Trace: false}
}

// LoadSessionConfig reads and validates a session config file.
func LoadSessionConfig(path string) (SessionConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return SessionConfig{}, fmt.Errorf("driver: opening config %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	var cfg SessionConfig
	if err := decoder.Decode(&cfg); err != nil {
		return SessionConfig{}, fmt.Errorf("driver: parsing config %s: %w", path, err)
	}
	if cfg.StepLimit < 0 {
		return SessionConfig{}, fmt.Errorf("driver: config %s: stepLimit cannot be negative", path)
	}
	return cfg, nil
}

// SelectBuiltins narrows a full builtin registry down to cfg.Builtins.
// A nil allow-list (the default config) keeps every registered builtin.
func SelectBuiltins(all map[string]stepper.BuiltinFunc, cfg SessionConfig) (map[string]stepper.BuiltinFunc, error) {
	if cfg.Builtins == nil {
		return all, nil
	}
	selected := make(map[string]stepper.BuiltinFunc, len(cfg.Builtins))
	for _, name := range cfg.Builtins {
		fn, found := all[name]
		if !found {
			return nil, fmt.Errorf("driver: config names unknown builtin %q", name)
		}
		selected[name] = fn
	}
	return selected, nil
}
