package core

import (
	"time"
)

// EvolutionSession configures a single evolution run. It is created at run
// start and read-only for the run's duration.
type EvolutionSession struct {
	PopulationSize int     `json:"population_size" yaml:"population_size" validate:"required,min=2"`
	Generations    int     `json:"generations" yaml:"generations" validate:"required,min=1"`
	MutationRate   float64 `json:"mutation_rate" yaml:"mutation_rate" validate:"min=0,max=1"`
	CrossoverRate  float64 `json:"crossover_rate" yaml:"crossover_rate" validate:"min=0,max=1"`

	// FocusFamily biases candidate generation toward one family. Empty means
	// uniform sampling across all known families.
	FocusFamily string `json:"focus_family,omitempty" yaml:"focus_family"`

	// FocusWeight is the probability mass placed on FocusFamily; the
	// remainder is split evenly across the other families. Zero selects the
	// default of 0.6; to sample without bias, leave FocusFamily empty.
	FocusWeight float64 `json:"focus_weight,omitempty" yaml:"focus_weight" validate:"min=0,max=1"`

	// EliteCount is the number of top candidates carried into the next
	// generation unchanged. Negative selects the default of 10% of the
	// population, minimum 1. Zero disables elitism.
	EliteCount int `json:"elite_count" yaml:"elite_count" validate:"min=-1"`

	// TournamentSize is the sample size for tournament parent selection.
	// Zero selects the default of 3; a tournament needs at least one
	// entrant, so there is no literal zero.
	TournamentSize int `json:"tournament_size,omitempty" yaml:"tournament_size" validate:"min=0"`

	// CrossFamilyRate is the share of crossovers that switch a child to one
	// parent's family wholesale with freshly sampled parameters. Negative
	// selects the default of 0.1; zero disables cross-family crossover.
	CrossFamilyRate float64 `json:"cross_family_rate,omitempty" yaml:"cross_family_rate" validate:"min=-1,max=1"`

	// Seed fixes the run's random sequence for reproducibility. Zero means
	// seed from the clock.
	Seed int64 `json:"seed,omitempty" yaml:"seed"`

	// Concurrency bounds the evaluation worker pool. Zero selects the
	// available CPU parallelism.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency" validate:"min=0"`

	// StallGenerations optionally terminates the run after this many
	// consecutive generations without improvement. Zero disables early stop.
	StallGenerations int `json:"stall_generations,omitempty" yaml:"stall_generations" validate:"min=0"`

	// EvalBudget optionally bounds each candidate's evaluation wall-clock
	// time; exceeding it is treated as a caught training failure. Hosts
	// parsing YAML supply it through their own duration field.
	EvalBudget time.Duration `json:"eval_budget,omitempty" yaml:"-"`

	// HistoryCap bounds the in-memory generation history. Zero selects the
	// default of 1000.
	HistoryCap int `json:"history_cap,omitempty" yaml:"history_cap" validate:"min=0"`
}

// RunStatus is the terminal status of an evolution run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
	RunStalled   RunStatus = "stalled"
)

// GenerationRecord is the immutable per-generation digest appended to the
// history store.
type GenerationRecord struct {
	Generation  int           `json:"generation"`
	BestFitness Fitness       `json:"best_fitness"`
	MeanFitness float64       `json:"mean_fitness"`
	Failures    int           `json:"failures"`
	Best        Configuration `json:"best"`
	Timestamp   time.Time     `json:"timestamp"`
}

// EvolutionResult is what a completed (or stalled, or cancelled) run returns:
// the globally best configuration with its fitness, the ordered generation
// history, and the terminal status.
type EvolutionResult struct {
	Best        Configuration      `json:"best"`
	BestFitness Fitness            `json:"best_fitness"`
	History     []GenerationRecord `json:"history"`
	Status      RunStatus          `json:"status"`

	// StallCounter is the number of consecutive generations at the end of
	// the run in which best fitness did not improve.
	StallCounter int `json:"stall_counter"`

	// FinalFailures is the failure count of the last evaluated generation,
	// surfaced so callers can flag reduced confidence when it is high.
	FinalFailures int `json:"final_failures"`
}
