// Package evaluator trains a candidate configuration's model on a training
// split and scores it on a held-out split, producing fitness records. A
// failing candidate is converted into a failed record, never an error: one
// bad configuration must not abort a generation.
package evaluator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
	"github.com/beemind-ai/beemind/pkg/logging"
	"github.com/beemind-ai/beemind/pkg/metrics"
	"github.com/beemind-ai/beemind/pkg/models"
)

const defaultTestFraction = 0.2

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTestFraction sets the held-out split fraction. Default is 0.2.
func WithTestFraction(fraction float64) Option {
	return func(e *Evaluator) {
		e.testFraction = fraction
	}
}

// WithBudget bounds each evaluation's wall-clock time. Exceeding the budget
// is treated identically to a caught training failure.
func WithBudget(budget time.Duration) Option {
	return func(e *Evaluator) {
		e.budget = budget
	}
}

// WithObserver registers a callback invoked after each candidate is scored.
func WithObserver(observer core.EvaluationObserver) Option {
	return func(e *Evaluator) {
		e.observer = observer
	}
}

// Evaluator scores configurations against a fixed dataset split. The split
// and all training randomness derive from the seed, so evaluating the same
// configuration twice yields the same fitness.
type Evaluator struct {
	seed         int64
	testFraction float64
	budget       time.Duration
	observer     core.EvaluationObserver

	trainFeatures [][]float64
	trainLabels   []int
	testFeatures  [][]float64
	testLabels    []int
	numClasses    int
}

// New validates the dataset and precomputes a stratified train/holdout
// split. A shape violation is fatal for the whole run and returned as a
// DataValidation error before any candidate is evaluated.
func New(dataset *core.Dataset, seed int64, opts ...Option) (*Evaluator, error) {
	if err := dataset.Validate(); err != nil {
		return nil, err
	}

	e := &Evaluator{
		seed:         seed,
		testFraction: defaultTestFraction,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.split(dataset)
	if len(e.testFeatures) == 0 || len(e.trainFeatures) == 0 {
		return nil, errors.WithFields(
			errors.New(errors.DataValidation, "dataset too small to split"),
			errors.Fields{"samples": dataset.NumSamples()})
	}
	return e, nil
}

// split builds a stratified train/holdout split so small classes appear on
// both sides whenever they have at least two samples.
func (e *Evaluator) split(dataset *core.Dataset) {
	rng := rand.New(rand.NewSource(e.seed))

	byClass := make(map[int][]int)
	e.numClasses = 0
	for i, label := range dataset.Labels {
		byClass[label] = append(byClass[label], i)
		if label+1 > e.numClasses {
			e.numClasses = label + 1
		}
	}

	classes := dataset.Classes()
	for _, class := range classes {
		indices := byClass[class]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		testSize := int(float64(len(indices)) * e.testFraction)
		if testSize == 0 && len(indices) > 1 {
			testSize = 1
		}

		for i, idx := range indices {
			if i < testSize {
				e.testFeatures = append(e.testFeatures, dataset.Features[idx])
				e.testLabels = append(e.testLabels, dataset.Labels[idx])
			} else {
				e.trainFeatures = append(e.trainFeatures, dataset.Features[idx])
				e.trainLabels = append(e.trainLabels, dataset.Labels[idx])
			}
		}
	}
}

// Evaluate trains and scores one configuration. Training errors, panics, and
// budget overruns all produce a failed record with the worst-sentinel
// primary score; they never propagate.
func (e *Evaluator) Evaluate(ctx context.Context, config core.Configuration) core.EvaluatedCandidate {
	var result core.EvaluatedCandidate
	if e.budget > 0 {
		result = e.evaluateWithBudget(ctx, config)
	} else {
		result = e.trainAndScore(config)
	}

	if e.observer != nil {
		e.observer(result)
	}
	return result
}

// evaluateWithBudget runs the evaluation in a goroutine and abandons the
// result on timeout. A hung trainer keeps its goroutine until it returns;
// bounding the trainer itself is the model library's concern.
func (e *Evaluator) evaluateWithBudget(ctx context.Context, config core.Configuration) core.EvaluatedCandidate {
	done := make(chan core.EvaluatedCandidate, 1)
	go func() {
		done <- e.trainAndScore(config)
	}()

	timer := time.NewTimer(e.budget)
	defer timer.Stop()

	select {
	case result := <-done:
		return result
	case <-timer.C:
		logging.GetLogger().Warn(ctx, "evaluation exceeded budget: family=%s budget=%s",
			config.Family, e.budget)
		return failedCandidate(config, fmt.Sprintf("evaluation exceeded %s budget", e.budget))
	}
}

func (e *Evaluator) trainAndScore(config core.Configuration) (result core.EvaluatedCandidate) {
	defer func() {
		if r := recover(); r != nil {
			result = failedCandidate(config, fmt.Sprintf("panic during evaluation: %v", r))
		}
	}()

	model, err := models.New(config.Family, config.Parameters, e.seed)
	if err != nil {
		return failedCandidate(config, err.Error())
	}

	if err := model.Fit(e.trainFeatures, e.trainLabels); err != nil {
		return failedCandidate(config, err.Error())
	}

	probas, err := model.PredictProba(e.testFeatures)
	if err != nil {
		return failedCandidate(config, err.Error())
	}

	primary := metrics.ROCAUC(e.testLabels, probas)
	f1 := metrics.WeightedF1(e.testLabels, metrics.Argmax(probas), e.numClasses)

	return core.EvaluatedCandidate{
		Config: config,
		Fitness: core.Fitness{
			Primary:   primary,
			Secondary: map[string]float64{"f1": f1},
		},
		Status: core.StatusOK,
	}
}

func failedCandidate(config core.Configuration, message string) core.EvaluatedCandidate {
	return core.EvaluatedCandidate{
		Config:  config,
		Fitness: core.Fitness{Primary: core.WorstFitness},
		Status:  core.StatusFailed,
		Error:   message,
	}
}
