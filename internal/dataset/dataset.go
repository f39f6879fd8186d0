package dataset

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a feature matrix with one class label per row.
type Dataset struct {
	Name     string
	Features *mat.Dense
	Labels   []string
}

func New(name string, features *mat.Dense, labels []string) (*Dataset, error) {
	if features == nil {
		return nil, errors.New("features are required")
	}
	rows, _ := features.Dims()
	if rows != len(labels) {
		return nil, errors.Errorf("dataset %s has %d rows but %d labels", name, rows, len(labels))
	}
	return &Dataset{Name: name, Features: features, Labels: labels}, nil
}

func (d *Dataset) Rows() int {
	rows, _ := d.Features.Dims()
	return rows
}

func (d *Dataset) Cols() int {
	_, cols := d.Features.Dims()
	return cols
}

// Subset copies the given rows, in order, into a new dataset.
func (d *Dataset) Subset(indices []int) *Dataset {
	return &Dataset{
		Name:     d.Name,
		Features: Rows(d.Features, indices),
		Labels:   Pick(d.Labels, indices),
	}
}

// Rows copies the selected rows of m into a new matrix.
func Rows(m *mat.Dense, indices []int) *mat.Dense {
	_, cols := m.Dims()
	if len(indices) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		out.SetRow(i, m.RawRowView(idx))
	}
	return out
}

func Pick[T any](values []T, indices []int) []T {
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = values[idx]
	}
	return out
}
