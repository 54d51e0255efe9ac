// Package models implements the family-specific classifiers the evaluator
// trains: bagged decision trees (tree-ensemble), gradient-boosted trees
// (boosted-ensemble), and multinomial logistic regression (linear).
package models

import (
	"github.com/beemind-ai/beemind/pkg/errors"
	"github.com/beemind-ai/beemind/pkg/families"
)

// Classifier is the training contract shared by all families. Fit trains on
// encoded class labels; PredictProba returns one probability row per sample,
// one column per class index seen during Fit.
type Classifier interface {
	Fit(features [][]float64, labels []int) error
	PredictProba(features [][]float64) ([][]float64, error)
}

type builder func(params map[string]interface{}, seed int64) (Classifier, error)

// builders is the dispatch table keyed by family. Cross-family logic lives in
// the engine; here a family tag resolves directly to its constructor.
var builders = map[string]builder{
	families.TreeEnsemble: func(params map[string]interface{}, seed int64) (Classifier, error) {
		return newForest(params, seed)
	},
	families.BoostedEnsemble: func(params map[string]interface{}, seed int64) (Classifier, error) {
		return newBoosting(params, seed)
	},
	families.Linear: func(params map[string]interface{}, seed int64) (Classifier, error) {
		return newLogistic(params)
	},
}

// New constructs an untrained classifier for the family with the given
// hyperparameters. The seed fixes any internal randomness (bootstrap
// sampling, feature subsets) for reproducibility.
func New(family string, params map[string]interface{}, seed int64) (Classifier, error) {
	build, ok := builders[family]
	if !ok {
		return nil, errors.WithFields(
			errors.New(errors.UnknownFamily, "no classifier for family"),
			errors.Fields{"family": family})
	}
	return build(params, seed)
}

// Parameter maps cross component boundaries as map[string]interface{}, so
// numeric values may arrive as int or float64 depending on their origin
// (sampler, YAML, JSON). These helpers normalize access.

func intParam(params map[string]interface{}, name string, fallback int) int {
	switch v := params[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func floatParam(params map[string]interface{}, name string, fallback float64) float64 {
	switch v := params[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

func stringParam(params map[string]interface{}, name string, fallback string) string {
	if v, ok := params[name].(string); ok {
		return v
	}
	return fallback
}
