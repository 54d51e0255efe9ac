package datasets

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet/file"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
)

// LoadParquet reads a Parquet file with numeric feature columns and one
// label column (numeric or string).
func LoadParquet(path, labelColumn string) (*core.Dataset, *LabelEncoder, error) {
	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.InvalidInput, "failed to open parquet file")
	}
	defer reader.Close()

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.InvalidInput, "failed to create arrow reader")
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.InvalidInput, "failed to read parquet table")
	}
	defer table.Release()

	schema := table.Schema()
	labelIdx := int(table.NumCols()) - 1
	if labelColumn != "" {
		indices := schema.FieldIndices(labelColumn)
		if len(indices) == 0 {
			return nil, nil, errors.WithFields(
				errors.New(errors.InvalidInput, "label column not found"),
				errors.Fields{"column": labelColumn})
		}
		labelIdx = indices[0]
	}

	numRows := int(table.NumRows())
	numCols := int(table.NumCols())

	dataset := &core.Dataset{
		Features: make([][]float64, numRows),
		Labels:   make([]int, numRows),
	}
	for i := range dataset.Features {
		dataset.Features[i] = make([]float64, 0, numCols-1)
	}
	encoder := NewLabelEncoder()

	for col := 0; col < numCols; col++ {
		values, err := columnStrings(table.Column(col))
		if err != nil {
			return nil, nil, errors.WithFields(err, errors.Fields{"column": schema.Field(col).Name})
		}

		for row, raw := range values {
			if col == labelIdx {
				dataset.Labels[row] = encoder.Encode(raw)
				continue
			}
			var value float64
			if _, err := fmt.Sscanf(raw, "%g", &value); err != nil {
				return nil, nil, errors.WithFields(
					errors.New(errors.DataValidation, "non-numeric feature value"),
					errors.Fields{"row": row, "column": schema.Field(col).Name})
			}
			dataset.Features[row] = append(dataset.Features[row], value)
		}
	}

	return dataset, encoder, nil
}

// columnStrings flattens a chunked column to per-row string values, which
// keeps label and feature handling uniform across arrow types.
func columnStrings(column *arrow.Column) ([]string, error) {
	out := make([]string, 0, column.Len())
	for _, chunk := range column.Data().Chunks() {
		switch typed := chunk.(type) {
		case *array.Float64:
			for i := 0; i < typed.Len(); i++ {
				out = append(out, fmt.Sprintf("%g", typed.Value(i)))
			}
		case *array.Float32:
			for i := 0; i < typed.Len(); i++ {
				out = append(out, fmt.Sprintf("%g", float64(typed.Value(i))))
			}
		case *array.Int64:
			for i := 0; i < typed.Len(); i++ {
				out = append(out, fmt.Sprintf("%d", typed.Value(i)))
			}
		case *array.Int32:
			for i := 0; i < typed.Len(); i++ {
				out = append(out, fmt.Sprintf("%d", typed.Value(i)))
			}
		case *array.String:
			for i := 0; i < typed.Len(); i++ {
				out = append(out, typed.Value(i))
			}
		default:
			return nil, errors.New(errors.DataValidation, "unsupported parquet column type")
		}
	}
	return out, nil
}
