// Package testutil provides shared helpers for package tests: synthetic
// datasets with known structure and scriptable evaluators for engine tests.
package testutil

import (
	"context"
	"math/rand"
	"sync/atomic"

	"github.com/beemind-ai/beemind/pkg/core"
)

// TwoBlobDataset generates a linearly separable binary dataset: two gaussian
// blobs of size/2 samples each, centered at -offset and +offset in every
// dimension. Any reasonable classifier scores well on it.
func TwoBlobDataset(size, dims int, offset float64, seed int64) *core.Dataset {
	rng := rand.New(rand.NewSource(seed))
	dataset := &core.Dataset{
		Features: make([][]float64, size),
		Labels:   make([]int, size),
	}

	for i := 0; i < size; i++ {
		label := i % 2
		center := -offset
		if label == 1 {
			center = offset
		}
		row := make([]float64, dims)
		for j := range row {
			row[j] = center + rng.NormFloat64()
		}
		dataset.Features[i] = row
		dataset.Labels[i] = label
	}
	return dataset
}

// SingleClassDataset generates a dataset where every row shares one label,
// which must fail shape validation.
func SingleClassDataset(size, dims int) *core.Dataset {
	dataset := &core.Dataset{
		Features: make([][]float64, size),
		Labels:   make([]int, size),
	}
	for i := 0; i < size; i++ {
		row := make([]float64, dims)
		for j := range row {
			row[j] = float64(i + j)
		}
		dataset.Features[i] = row
	}
	return dataset
}

// StubEvaluator scores candidates with a caller-supplied function, letting
// engine tests control fitness and failures without training models.
type StubEvaluator struct {
	Score func(config core.Configuration) core.EvaluatedCandidate
	calls atomic.Int64
}

func (s *StubEvaluator) Evaluate(_ context.Context, config core.Configuration) core.EvaluatedCandidate {
	s.calls.Add(1)
	return s.Score(config)
}

// Calls returns how many evaluations the stub has served.
func (s *StubEvaluator) Calls() int {
	return int(s.calls.Load())
}

// ScoreOK builds a successful candidate with the given primary score.
func ScoreOK(config core.Configuration, primary float64) core.EvaluatedCandidate {
	return core.EvaluatedCandidate{
		Config: config,
		Fitness: core.Fitness{
			Primary:   primary,
			Secondary: map[string]float64{"f1": primary},
		},
		Status: core.StatusOK,
	}
}

// ScoreFailed builds a failed candidate with the worst-sentinel primary.
func ScoreFailed(config core.Configuration, message string) core.EvaluatedCandidate {
	return core.EvaluatedCandidate{
		Config:  config,
		Fitness: core.Fitness{Primary: core.WorstFitness},
		Status:  core.StatusFailed,
		Error:   message,
	}
}
