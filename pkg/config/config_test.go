package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemind-ai/beemind/pkg/errors"
)

const validYAML = `
dataset:
  path: data/train.csv
  format: csv
  label_column: target
session:
  population_size: 20
  generations: 10
  mutation_rate: 0.3
  crossover_rate: 0.7
  focus_family: linear
  elite_count: 2
  seed: 42
  eval_budget: 30s
logging:
  level: DEBUG
  json_file: run.jsonl
archive:
  path: history.db
`

func TestParse(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		cfg, err := Parse([]byte(validYAML))
		require.NoError(t, err)

		assert.Equal(t, "data/train.csv", cfg.Dataset.Path)
		assert.Equal(t, "csv", cfg.Dataset.Format)
		assert.Equal(t, "target", cfg.Dataset.LabelColumn)

		assert.Equal(t, 20, cfg.Session.PopulationSize)
		assert.Equal(t, 10, cfg.Session.Generations)
		assert.Equal(t, 0.3, cfg.Session.MutationRate)
		assert.Equal(t, "linear", cfg.Session.FocusFamily)
		assert.Equal(t, int64(42), cfg.Session.Seed)
		assert.Equal(t, "30s", cfg.Session.EvalBudget)
		assert.Equal(t, 30*time.Second, cfg.Session.EvolutionSession.EvalBudget)

		assert.Equal(t, "DEBUG", cfg.Logging.Level)
		assert.Equal(t, "run.jsonl", cfg.Logging.JSONFile)
		assert.Equal(t, "history.db", cfg.Archive.Path)
	})

	t.Run("minimal configuration", func(t *testing.T) {
		minimal := `
dataset:
  path: data.csv
session:
  population_size: 10
  generations: 5
`
		cfg, err := Parse([]byte(minimal))
		require.NoError(t, err)
		assert.Empty(t, cfg.Dataset.Format, "format is inferred later from the extension")
		assert.Empty(t, cfg.Logging.Level)
		assert.Equal(t, -1.0, cfg.Session.CrossFamilyRate,
			"absent cross_family_rate defers to the engine default")
	})

	t.Run("explicit zero cross-family rate survives parsing", func(t *testing.T) {
		explicit := `
dataset:
  path: data.csv
session:
  population_size: 10
  generations: 5
  cross_family_rate: 0
`
		cfg, err := Parse([]byte(explicit))
		require.NoError(t, err)
		assert.Zero(t, cfg.Session.CrossFamilyRate)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("dataset: [unclosed"))
		require.Error(t, err)
		assert.Equal(t, errors.InvalidInput, errors.Code(err))
	})

	t.Run("unparseable eval budget", func(t *testing.T) {
		bad := `
dataset:
  path: data.csv
session:
  population_size: 10
  generations: 5
  eval_budget: thirty seconds
`
		_, err := Parse([]byte(bad))
		require.Error(t, err)
		assert.Equal(t, errors.InvalidInput, errors.Code(err))
	})
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing dataset path",
			yaml: `
dataset:
  format: csv
session:
  population_size: 10
  generations: 5
`,
		},
		{
			name: "unsupported dataset format",
			yaml: `
dataset:
  path: data.xlsx
  format: xlsx
session:
  population_size: 10
  generations: 5
`,
		},
		{
			name: "population below minimum",
			yaml: `
dataset:
  path: data.csv
session:
  population_size: 1
  generations: 5
`,
		},
		{
			name: "mutation rate out of range",
			yaml: `
dataset:
  path: data.csv
session:
  population_size: 10
  generations: 5
  mutation_rate: 1.5
`,
		},
		{
			name: "unknown log level",
			yaml: `
dataset:
  path: data.csv
session:
  population_size: 10
  generations: 5
logging:
  level: VERBOSE
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, errors.ValidationFailed, errors.Code(err))
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("reads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.yaml")
		require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Session.PopulationSize)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Equal(t, errors.InvalidInput, errors.Code(err))
	})
}
