package models

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/beemind-ai/beemind/pkg/errors"
)

// logistic is the linear family: multinomial logistic regression trained by
// batch gradient descent on standardized features. The c parameter is the
// inverse regularization strength, matching the common convention.
type logistic struct {
	c       float64
	maxIter int
	penalty string

	weights    *mat.Dense // (numFeatures+1) x numClasses, last row is bias
	means      []float64
	stds       []float64
	numClasses int
}

const logisticStepSize = 0.1

func newLogistic(params map[string]interface{}) (*logistic, error) {
	l := &logistic{
		c:       floatParam(params, "c", 1.0),
		maxIter: intParam(params, "max_iter", 1000),
		penalty: stringParam(params, "penalty", "l2"),
	}
	if l.c <= 0 {
		return nil, errors.New(errors.InvalidInput, "c must be positive")
	}
	if l.maxIter < 1 {
		return nil, errors.New(errors.InvalidInput, "max_iter must be positive")
	}
	return l, nil
}

func (l *logistic) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 {
		return errors.New(errors.InvalidInput, "empty training set")
	}

	n := len(features)
	d := len(features[0])
	l.numClasses = countClasses(labels)
	l.fitScaler(features)

	// Design matrix with a trailing bias column.
	x := mat.NewDense(n, d+1, nil)
	for i, row := range features {
		for j, v := range row {
			x.Set(i, j, l.scale(j, v))
		}
		x.Set(i, d, 1)
	}

	// One-hot targets.
	y := mat.NewDense(n, l.numClasses, nil)
	for i, label := range labels {
		y.Set(i, label, 1)
	}

	l.weights = mat.NewDense(d+1, l.numClasses, nil)

	lambda := 0.0
	if l.penalty == "l2" {
		lambda = 1 / l.c
	}

	var scores, probs, diff, grad mat.Dense
	for iter := 0; iter < l.maxIter; iter++ {
		scores.Mul(x, l.weights)
		softmaxRows(&probs, &scores)

		diff.Sub(&probs, y)
		grad.Mul(x.T(), &diff)
		grad.Scale(1/float64(n), &grad)

		if lambda > 0 {
			var reg mat.Dense
			reg.Scale(lambda/float64(n), l.weights)
			// The bias row is not regularized.
			for class := 0; class < l.numClasses; class++ {
				reg.Set(d, class, 0)
			}
			grad.Add(&grad, &reg)
		}

		grad.Scale(logisticStepSize, &grad)
		l.weights.Sub(l.weights, &grad)
	}
	return nil
}

func (l *logistic) PredictProba(features [][]float64) ([][]float64, error) {
	if l.weights == nil {
		return nil, errors.New(errors.InvalidInput, "model is not fitted")
	}

	d := len(l.means)
	x := mat.NewDense(len(features), d+1, nil)
	for i, row := range features {
		for j, v := range row {
			x.Set(i, j, l.scale(j, v))
		}
		x.Set(i, d, 1)
	}

	var scores, probs mat.Dense
	scores.Mul(x, l.weights)
	softmaxRows(&probs, &scores)

	out := make([][]float64, len(features))
	for i := range out {
		out[i] = mat.Row(nil, i, &probs)
	}
	return out, nil
}

func (l *logistic) fitScaler(features [][]float64) {
	d := len(features[0])
	l.means = make([]float64, d)
	l.stds = make([]float64, d)

	n := float64(len(features))
	for j := 0; j < d; j++ {
		sum := 0.0
		for _, row := range features {
			sum += row[j]
		}
		l.means[j] = sum / n

		sq := 0.0
		for _, row := range features {
			diff := row[j] - l.means[j]
			sq += diff * diff
		}
		l.stds[j] = math.Sqrt(sq / n)
		if l.stds[j] == 0 {
			l.stds[j] = 1
		}
	}
}

func (l *logistic) scale(j int, v float64) float64 {
	return (v - l.means[j]) / l.stds[j]
}

func softmaxRows(dst *mat.Dense, src *mat.Dense) {
	rows, cols := src.Dims()
	dst.ReuseAs(rows, cols)
	for i := 0; i < rows; i++ {
		max := math.Inf(-1)
		for j := 0; j < cols; j++ {
			if v := src.At(i, j); v > max {
				max = v
			}
		}
		sum := 0.0
		for j := 0; j < cols; j++ {
			e := math.Exp(src.At(i, j) - max)
			dst.Set(i, j, e)
			sum += e
		}
		for j := 0; j < cols; j++ {
			dst.Set(i, j, dst.At(i, j)/sum)
		}
	}
}
