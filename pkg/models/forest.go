package models

import (
	"math/rand"

	"github.com/beemind-ai/beemind/pkg/errors"
)

// forest is the tree-ensemble family: bootstrap-aggregated classification
// trees with per-split random feature subsets.
type forest struct {
	nEstimators     int
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string
	seed            int64

	trees      []*classTree
	numClasses int
}

func newForest(params map[string]interface{}, seed int64) (*forest, error) {
	f := &forest{
		nEstimators:     intParam(params, "n_estimators", 100),
		maxDepth:        intParam(params, "max_depth", 10),
		minSamplesSplit: intParam(params, "min_samples_split", 2),
		minSamplesLeaf:  intParam(params, "min_samples_leaf", 1),
		maxFeatures:     stringParam(params, "max_features", "sqrt"),
		seed:            seed,
	}
	if f.nEstimators < 1 {
		return nil, errors.New(errors.InvalidInput, "n_estimators must be positive")
	}
	if f.maxDepth < 1 {
		return nil, errors.New(errors.InvalidInput, "max_depth must be positive")
	}
	return f, nil
}

func (f *forest) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 {
		return errors.New(errors.InvalidInput, "empty training set")
	}

	f.numClasses = countClasses(labels)
	f.trees = make([]*classTree, f.nEstimators)

	rng := rand.New(rand.NewSource(f.seed))
	n := len(features)

	for i := 0; i < f.nEstimators; i++ {
		// Bootstrap sample with replacement.
		indices := make([]int, n)
		for j := range indices {
			indices[j] = rng.Intn(n)
		}

		tree := &classTree{
			maxDepth:        f.maxDepth,
			minSamplesSplit: f.minSamplesSplit,
			minSamplesLeaf:  f.minSamplesLeaf,
			maxFeatures:     f.maxFeatures,
			rng:             rand.New(rand.NewSource(rng.Int63())),
		}
		tree.fit(features, labels, indices, f.numClasses)
		f.trees[i] = tree
	}
	return nil
}

func (f *forest) PredictProba(features [][]float64) ([][]float64, error) {
	if len(f.trees) == 0 {
		return nil, errors.New(errors.InvalidInput, "forest is not fitted")
	}

	probas := make([][]float64, len(features))
	for i, row := range features {
		sum := make([]float64, f.numClasses)
		for _, tree := range f.trees {
			dist := tree.predictProba(row)
			for c, p := range dist {
				sum[c] += p
			}
		}
		for c := range sum {
			sum[c] /= float64(len(f.trees))
		}
		probas[i] = sum
	}
	return probas, nil
}

func countClasses(labels []int) int {
	max := 0
	for _, label := range labels {
		if label > max {
			max = label
		}
	}
	return max + 1
}
