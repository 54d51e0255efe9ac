package core

import (
	"github.com/beemind-ai/beemind/pkg/errors"
)

// Dataset is a rectangular labeled dataset: a feature matrix with one row per
// sample and a parallel label vector of encoded class indices. The host
// process is responsible for parsing and encoding; the core only validates
// shape.
type Dataset struct {
	Features [][]float64
	Labels   []int
}

// NumSamples returns the number of rows in the dataset.
func (d *Dataset) NumSamples() int {
	return len(d.Features)
}

// NumFeatures returns the number of columns, 0 for an empty dataset.
func (d *Dataset) NumFeatures() int {
	if len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// Classes returns the distinct label values present, in ascending order of
// first appearance.
func (d *Dataset) Classes() []int {
	seen := make(map[int]bool)
	classes := make([]int, 0, 2)
	for _, label := range d.Labels {
		if !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}
	return classes
}

// Validate checks the dataset shape: non-empty, rectangular feature matrix,
// feature row count equal to label count, and at least two distinct classes.
// A violation is fatal for the whole run.
func (d *Dataset) Validate() error {
	if d == nil || len(d.Features) == 0 {
		return errors.New(errors.DataValidation, "dataset has no samples")
	}

	if len(d.Features) != len(d.Labels) {
		return errors.WithFields(
			errors.New(errors.DataValidation, "feature and label counts differ"),
			errors.Fields{
				"features": len(d.Features),
				"labels":   len(d.Labels),
			})
	}

	width := len(d.Features[0])
	if width == 0 {
		return errors.New(errors.DataValidation, "dataset has no feature columns")
	}
	for i, row := range d.Features {
		if len(row) != width {
			return errors.WithFields(
				errors.New(errors.DataValidation, "feature matrix is not rectangular"),
				errors.Fields{
					"row":      i,
					"expected": width,
					"actual":   len(row),
				})
		}
	}

	if len(d.Classes()) < 2 {
		return errors.New(errors.DataValidation, "labels contain fewer than two distinct classes")
	}

	return nil
}
