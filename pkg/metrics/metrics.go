// Package metrics provides the classification scores used as fitness:
// ROC AUC as the primary discrimination metric and weighted F1 as the
// secondary balanced metric. All scores are clamped to valid values; a
// metric never returns NaN or Inf.
package metrics

import (
	"math"
	"sort"
)

// ROCAUC computes the area under the ROC curve from predicted class
// probabilities. Binary problems use the probability of class 1; multi-class
// problems average one-vs-rest AUCs weighted by class support.
func ROCAUC(labels []int, probas [][]float64) float64 {
	if len(labels) == 0 || len(probas) == 0 || len(labels) != len(probas) {
		return 0
	}

	numClasses := len(probas[0])
	if numClasses < 2 {
		return 0
	}

	if numClasses == 2 {
		scores := make([]float64, len(probas))
		positives := make([]bool, len(labels))
		for i := range probas {
			scores[i] = probas[i][1]
			positives[i] = labels[i] == 1
		}
		return clamp01(binaryAUC(positives, scores))
	}

	// One-vs-rest, weighted by support.
	total := 0.0
	weighted := 0.0
	for class := 0; class < numClasses; class++ {
		support := 0
		scores := make([]float64, len(probas))
		positives := make([]bool, len(labels))
		for i := range labels {
			scores[i] = probas[i][class]
			if labels[i] == class {
				positives[i] = true
				support++
			}
		}
		if support == 0 {
			continue
		}
		weighted += float64(support) * binaryAUC(positives, scores)
		total += float64(support)
	}
	if total == 0 {
		return 0
	}
	return clamp01(weighted / total)
}

// binaryAUC is the Mann-Whitney U formulation with average ranks for ties.
// Returns 0.5 when either class is absent.
func binaryAUC(positives []bool, scores []float64) float64 {
	n := len(scores)
	posCount, negCount := 0, 0
	for _, p := range positives {
		if p {
			posCount++
		} else {
			negCount++
		}
	}
	if posCount == 0 || negCount == 0 {
		return 0.5
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return scores[order[i]] < scores[order[j]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n-1 && scores[order[j+1]] == scores[order[i]] {
			j++
		}
		// Average rank for the tie group, 1-based.
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	rankSum := 0.0
	for i, p := range positives {
		if p {
			rankSum += ranks[i]
		}
	}

	u := rankSum - float64(posCount)*float64(posCount+1)/2
	return u / (float64(posCount) * float64(negCount))
}

// WeightedF1 computes per-class F1 scores averaged with class-support
// weights. Classes with undefined precision or recall contribute zero.
func WeightedF1(yTrue, yPred []int, numClasses int) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) || numClasses < 1 {
		return 0
	}

	tp := make([]float64, numClasses)
	fp := make([]float64, numClasses)
	fn := make([]float64, numClasses)
	support := make([]float64, numClasses)

	for i := range yTrue {
		actual, predicted := yTrue[i], yPred[i]
		if actual < 0 || actual >= numClasses || predicted < 0 || predicted >= numClasses {
			continue
		}
		support[actual]++
		if actual == predicted {
			tp[actual]++
		} else {
			fp[predicted]++
			fn[actual]++
		}
	}

	total := 0.0
	weighted := 0.0
	for class := 0; class < numClasses; class++ {
		if support[class] == 0 {
			continue
		}
		var f1 float64
		denom := 2*tp[class] + fp[class] + fn[class]
		if denom > 0 {
			f1 = 2 * tp[class] / denom
		}
		weighted += support[class] * f1
		total += support[class]
	}
	if total == 0 {
		return 0
	}
	return clamp01(weighted / total)
}

// Argmax returns the index of the highest probability per row, used to turn
// probability predictions into hard labels for F1.
func Argmax(probas [][]float64) []int {
	preds := make([]int, len(probas))
	for i, row := range probas {
		best := 0
		for j, v := range row {
			if v > row[best] {
				best = j
			}
		}
		preds[i] = best
	}
	return preds
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
