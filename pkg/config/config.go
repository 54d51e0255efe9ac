// Package config loads and validates run configuration from YAML files for
// host processes such as the CLI. The core library itself only consumes the
// parsed EvolutionSession.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
)

// DatasetConfig points the host at the input dataset.
type DatasetConfig struct {
	Path string `yaml:"path" validate:"required"`
	// Format is inferred from the file extension when empty.
	Format string `yaml:"format" validate:"omitempty,oneof=csv parquet"`
	// LabelColumn names the label column; default is the last column.
	LabelColumn string `yaml:"label_column"`
}

// LoggingConfig controls the host logger.
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`
	JSONFile string `yaml:"json_file"`
}

// ArchiveConfig optionally persists generation events to SQLite.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig is the YAML form of the engine session. Durations arrive as
// strings ("30s") and are parsed explicitly during Parse.
type SessionConfig struct {
	core.EvolutionSession `yaml:",inline"`

	EvalBudget string `yaml:"eval_budget"`
}

// RunConfig is the full host-side configuration for one evolution run.
type RunConfig struct {
	Dataset DatasetConfig `yaml:"dataset" validate:"required"`
	Session SessionConfig `yaml:"session" validate:"required"`
	Logging LoggingConfig `yaml:"logging"`
	Archive ArchiveConfig `yaml:"archive"`
}

var validate = validator.New()

// Load reads, parses, and validates a YAML run configuration.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to read config file")
	}
	return Parse(data)
}

// Parse validates a YAML run configuration from raw bytes.
func Parse(data []byte) (*RunConfig, error) {
	var cfg RunConfig
	// An absent cross_family_rate keeps the engine default; an explicit
	// zero disables cross-family crossover.
	cfg.Session.CrossFamilyRate = -1
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to parse config file")
	}

	if cfg.Session.EvalBudget != "" {
		budget, err := time.ParseDuration(cfg.Session.EvalBudget)
		if err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.InvalidInput, "invalid eval_budget"),
				errors.Fields{"eval_budget": cfg.Session.EvalBudget})
		}
		cfg.Session.EvolutionSession.EvalBudget = budget
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ValidationFailed, "invalid run configuration")
	}
	return &cfg, nil
}
