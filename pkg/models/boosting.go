package models

import (
	"math"
	"math/rand"
	"sort"

	"github.com/beemind-ai/beemind/pkg/errors"
)

// boosting is the boosted-ensemble family: gradient boosting with depth-
// limited regression trees fit to logistic-loss residuals, one booster per
// class (one-vs-rest).
type boosting struct {
	nEstimators  int
	maxDepth     int
	learningRate float64
	subsample    float64
	seed         int64

	ensembles  [][]*regTree // per class
	priors     []float64    // per-class base log-odds
	numClasses int
}

func newBoosting(params map[string]interface{}, seed int64) (*boosting, error) {
	b := &boosting{
		nEstimators:  intParam(params, "n_estimators", 100),
		maxDepth:     intParam(params, "max_depth", 3),
		learningRate: floatParam(params, "learning_rate", 0.1),
		subsample:    floatParam(params, "subsample", 1.0),
		seed:         seed,
	}
	if b.nEstimators < 1 {
		return nil, errors.New(errors.InvalidInput, "n_estimators must be positive")
	}
	if b.learningRate <= 0 {
		return nil, errors.New(errors.InvalidInput, "learning_rate must be positive")
	}
	if b.subsample <= 0 || b.subsample > 1 {
		return nil, errors.New(errors.InvalidInput, "subsample must be in (0, 1]")
	}
	return b, nil
}

func (b *boosting) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 {
		return errors.New(errors.InvalidInput, "empty training set")
	}

	b.numClasses = countClasses(labels)
	b.ensembles = make([][]*regTree, b.numClasses)
	b.priors = make([]float64, b.numClasses)

	rng := rand.New(rand.NewSource(b.seed))
	n := len(features)

	for class := 0; class < b.numClasses; class++ {
		target := make([]float64, n)
		positives := 0.0
		for i, label := range labels {
			if label == class {
				target[i] = 1
				positives++
			}
		}

		// Base score is the class prior in log-odds, clamped away from the
		// degenerate all-one / all-zero cases.
		p := math.Min(math.Max(positives/float64(n), 1e-6), 1-1e-6)
		b.priors[class] = math.Log(p / (1 - p))

		scores := make([]float64, n)
		for i := range scores {
			scores[i] = b.priors[class]
		}

		trees := make([]*regTree, 0, b.nEstimators)
		for m := 0; m < b.nEstimators; m++ {
			residuals := make([]float64, n)
			for i := range residuals {
				residuals[i] = target[i] - sigmoid(scores[i])
			}

			indices := b.sampleRows(rng, n)
			tree := &regTree{maxDepth: b.maxDepth, minLeaf: 2}
			tree.fit(features, residuals, indices)
			trees = append(trees, tree)

			for i, row := range features {
				scores[i] += b.learningRate * tree.predict(row)
			}
		}
		b.ensembles[class] = trees
	}
	return nil
}

func (b *boosting) sampleRows(rng *rand.Rand, n int) []int {
	if b.subsample >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	size := int(math.Max(1, b.subsample*float64(n)))
	perm := rng.Perm(n)
	return perm[:size]
}

func (b *boosting) PredictProba(features [][]float64) ([][]float64, error) {
	if len(b.ensembles) == 0 {
		return nil, errors.New(errors.InvalidInput, "booster is not fitted")
	}

	probas := make([][]float64, len(features))
	for i, row := range features {
		scores := make([]float64, b.numClasses)
		for class := 0; class < b.numClasses; class++ {
			score := b.priors[class]
			for _, tree := range b.ensembles[class] {
				score += b.learningRate * tree.predict(row)
			}
			scores[class] = sigmoid(score)
		}
		probas[i] = normalize(scores)
	}
	return probas, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// regTree is a regression tree used as the boosting weak learner. Splits
// minimize squared error; leaves predict the mean target.
type regTree struct {
	maxDepth int
	minLeaf  int
	root     *regNode
}

type regNode struct {
	feature   int
	threshold float64
	left      *regNode
	right     *regNode
	value     float64
}

func (n *regNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

func (t *regTree) fit(features [][]float64, target []float64, indices []int) {
	t.root = t.build(features, target, indices, 0)
}

func (t *regTree) build(features [][]float64, target []float64, indices []int, depth int) *regNode {
	node := &regNode{value: mean(target, indices)}
	if depth >= t.maxDepth || len(indices) < 2*t.minLeaf {
		return node
	}

	feature, threshold, ok := t.bestSplit(features, target, indices)
	if !ok {
		return node
	}

	var left, right []int
	for _, idx := range indices {
		if features[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < t.minLeaf || len(right) < t.minLeaf {
		return node
	}

	node.feature = feature
	node.threshold = threshold
	node.left = t.build(features, target, left, depth+1)
	node.right = t.build(features, target, right, depth+1)
	return node
}

func (t *regTree) bestSplit(features [][]float64, target []float64, indices []int) (int, float64, bool) {
	numFeatures := len(features[indices[0]])
	total := float64(len(indices))

	bestScore := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, len(indices))
	for f := 0; f < numFeatures; f++ {
		copy(sorted, indices)
		feature := f
		sort.Slice(sorted, func(i, j int) bool {
			return features[sorted[i]][feature] < features[sorted[j]][feature]
		})

		var leftSum, leftSq, rightSum, rightSq float64
		for _, idx := range sorted {
			rightSum += target[idx]
			rightSq += target[idx] * target[idx]
		}

		for i := 0; i < len(sorted)-1; i++ {
			v := target[sorted[i]]
			leftSum += v
			leftSq += v * v
			rightSum -= v
			rightSq -= v * v

			value := features[sorted[i]][feature]
			next := features[sorted[i+1]][feature]
			if value == next {
				continue
			}

			nLeft := float64(i + 1)
			nRight := total - nLeft
			// Sum of squared errors around each side's mean.
			score := (leftSq - leftSum*leftSum/nLeft) + (rightSq - rightSum*rightSum/nRight)
			if score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = (value + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *regTree) predict(row []float64) float64 {
	node := t.root
	for !node.isLeaf() {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func mean(target []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, idx := range indices {
		sum += target[idx]
	}
	return sum / float64(len(indices))
}
