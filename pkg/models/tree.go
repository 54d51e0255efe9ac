package models

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is a node in a CART-style decision tree. Leaves carry the class
// distribution of the training samples that reached them.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	dist      []float64 // normalized class distribution, leaves only
}

func (n *treeNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// classTree is a single classification tree trained by recursive binary
// splitting on the gini criterion.
type classTree struct {
	root            *treeNode
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string // "sqrt", "log2", or "all"
	numClasses      int
	rng             *rand.Rand
}

func (t *classTree) fit(features [][]float64, labels []int, indices []int, numClasses int) {
	t.numClasses = numClasses
	t.root = t.build(features, labels, indices, 0)
}

func (t *classTree) build(features [][]float64, labels []int, indices []int, depth int) *treeNode {
	counts := make([]float64, t.numClasses)
	for _, idx := range indices {
		counts[labels[idx]]++
	}

	node := &treeNode{dist: normalize(counts)}

	if depth >= t.maxDepth || len(indices) < t.minSamplesSplit || isPure(counts) {
		return node
	}

	feature, threshold, ok := t.bestSplit(features, labels, indices)
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
	if len(left) < t.minSamplesLeaf || len(right) < t.minSamplesLeaf {
		return node
	}

	node.feature = feature
	node.threshold = threshold
	node.left = t.build(features, labels, left, depth+1)
	node.right = t.build(features, labels, right, depth+1)
	return node
}

// bestSplit scans a random feature subset and returns the split with the
// lowest weighted gini impurity.
func (t *classTree) bestSplit(features [][]float64, labels []int, indices []int) (int, float64, bool) {
	numFeatures := len(features[indices[0]])
	candidates := t.featureSubset(numFeatures)

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, len(indices))
	for _, feature := range candidates {
		copy(sorted, indices)
		f := feature
		sort.Slice(sorted, func(i, j int) bool {
			return features[sorted[i]][f] < features[sorted[j]][f]
		})

		leftCounts := make([]float64, t.numClasses)
		rightCounts := make([]float64, t.numClasses)
		for _, idx := range sorted {
			rightCounts[labels[idx]]++
		}

		total := float64(len(sorted))
		for i := 0; i < len(sorted)-1; i++ {
			label := labels[sorted[i]]
			leftCounts[label]++
			rightCounts[label]--

			value := features[sorted[i]][f]
			next := features[sorted[i+1]][f]
			if value == next {
				continue
			}

			nLeft := float64(i + 1)
			nRight := total - nLeft
			gini := (nLeft*giniImpurity(leftCounts, nLeft) +
				nRight*giniImpurity(rightCounts, nRight)) / total
			if gini < bestGini {
				bestGini = gini
				bestFeature = f
				bestThreshold = (value + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *classTree) featureSubset(numFeatures int) []int {
	var size int
	switch t.maxFeatures {
	case "sqrt":
		size = int(math.Ceil(math.Sqrt(float64(numFeatures))))
	case "log2":
		size = int(math.Ceil(math.Log2(float64(numFeatures) + 1)))
	default:
		size = numFeatures
	}
	if size >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}

	perm := t.rng.Perm(numFeatures)
	return perm[:size]
}

func (t *classTree) predictProba(row []float64) []float64 {
	node := t.root
	for !node.isLeaf() {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.dist
}

func giniImpurity(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}
	return impurity
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []float64) []float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	dist := make([]float64, len(counts))
	if total == 0 {
		for i := range dist {
			dist[i] = 1 / float64(len(counts))
		}
		return dist
	}
	for i, c := range counts {
		dist[i] = c / total
	}
	return dist
}
