package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LoadCSV reads a comma separated file of numeric features and one label
// column. A negative labelColumn counts from the end, so -1 is the last
// column.
func LoadCSV(path string, labelColumn int, header bool) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadCSV(f, name, labelColumn, header)
}

func ReadCSV(r io.Reader, name string, labelColumn int, header bool) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	if header && len(records) > 0 {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, errors.Errorf("dataset %s has no rows", name)
	}

	width := len(records[0])
	if width < 2 {
		return nil, errors.Errorf("dataset %s needs at least one feature and a label, got %d columns", name, width)
	}
	label := labelColumn
	if label < 0 {
		label += width
	}
	if label < 0 || label >= width {
		return nil, errors.Errorf("label column %d out of range for %d columns", labelColumn, width)
	}

	features := mat.NewDense(len(records), width-1, nil)
	labels := make([]string, len(records))
	for i, record := range records {
		if len(record) != width {
			return nil, errors.Errorf("%s row %d: expected %d columns, got %d", name, i+1, width, len(record))
		}
		col := 0
		for j, field := range record {
			if j == label {
				labels[i] = strings.TrimSpace(field)
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s row %d column %d", name, i+1, j)
			}
			features.Set(i, col, v)
			col++
		}
	}
	return New(name, features, labels)
}
