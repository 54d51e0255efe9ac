// Package datasets turns on-disk tabular files into core.Dataset values for
// host processes. CSV and Parquet are supported; labels are encoded to
// dense class indices in order of first appearance.
package datasets

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
)

// LabelEncoder maps raw label strings to dense class indices and back.
type LabelEncoder struct {
	indices map[string]int
	names   []string
}

// NewLabelEncoder creates an empty encoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{indices: make(map[string]int)}
}

// Encode returns the class index for a raw label, assigning the next index
// on first appearance.
func (le *LabelEncoder) Encode(raw string) int {
	if idx, ok := le.indices[raw]; ok {
		return idx
	}
	idx := len(le.names)
	le.indices[raw] = idx
	le.names = append(le.names, raw)
	return idx
}

// Name returns the raw label for a class index.
func (le *LabelEncoder) Name(index int) string {
	if index < 0 || index >= len(le.names) {
		return ""
	}
	return le.names[index]
}

// NumClasses returns the number of distinct labels seen.
func (le *LabelEncoder) NumClasses() int {
	return len(le.names)
}

// Load reads a dataset from path, dispatching on format ("csv" or
// "parquet"); an empty format is inferred from the file extension.
// labelColumn selects the label column by name; empty means the last column.
func Load(path, format, labelColumn string) (*core.Dataset, *LabelEncoder, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".parquet":
			format = "parquet"
		default:
			format = "csv"
		}
	}

	switch format {
	case "csv":
		return LoadCSV(path, labelColumn)
	case "parquet":
		return LoadParquet(path, labelColumn)
	default:
		return nil, nil, errors.WithFields(
			errors.New(errors.InvalidInput, "unsupported dataset format"),
			errors.Fields{"format": format})
	}
}

// LoadCSV reads a headered CSV file with numeric feature columns and one
// label column.
func LoadCSV(path, labelColumn string) (*core.Dataset, *LabelEncoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.InvalidInput, "failed to open dataset")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.InvalidInput, "failed to parse csv")
	}
	if len(rows) < 2 {
		return nil, nil, errors.New(errors.DataValidation, "dataset has no data rows")
	}

	header := rows[0]
	labelIdx := len(header) - 1
	if labelColumn != "" {
		labelIdx = -1
		for i, name := range header {
			if name == labelColumn {
				labelIdx = i
				break
			}
		}
		if labelIdx < 0 {
			return nil, nil, errors.WithFields(
				errors.New(errors.InvalidInput, "label column not found"),
				errors.Fields{"column": labelColumn, "header": header})
		}
	}

	dataset := &core.Dataset{}
	encoder := NewLabelEncoder()

	for rowNum, row := range rows[1:] {
		features := make([]float64, 0, len(row)-1)
		for i, cell := range row {
			if i == labelIdx {
				dataset.Labels = append(dataset.Labels, encoder.Encode(cell))
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, nil, errors.WithFields(
					errors.Wrap(err, errors.DataValidation, "non-numeric feature value"),
					errors.Fields{"row": rowNum + 1, "column": header[i]})
			}
			features = append(features, value)
		}
		dataset.Features = append(dataset.Features, features)
	}

	return dataset, encoder, nil
}
