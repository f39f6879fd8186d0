package dataset

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LabelEncoder maps class labels to dense indices. Classes are sorted
// numerically when every label parses as a number, lexically otherwise.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func FitLabelEncoder(labels []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(labels))
	var classes []string
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		classes = append(classes, label)
	}
	sortClasses(classes)
	return NewLabelEncoder(classes)
}

// NewLabelEncoder keeps classes in the order given.
func NewLabelEncoder(classes []string) *LabelEncoder {
	index := make(map[string]int, len(classes))
	for i, class := range classes {
		index[class] = i
	}
	return &LabelEncoder{classes: append([]string(nil), classes...), index: index}
}

func sortClasses(classes []string) {
	numeric := make([]float64, len(classes))
	for i, class := range classes {
		v, err := strconv.ParseFloat(class, 64)
		if err != nil {
			sort.Strings(classes)
			return
		}
		numeric[i] = v
	}
	sort.Sort(byValue{classes: classes, values: numeric})
}

type byValue struct {
	classes []string
	values  []float64
}

func (b byValue) Len() int           { return len(b.classes) }
func (b byValue) Less(i, j int) bool { return b.values[i] < b.values[j] }
func (b byValue) Swap(i, j int) {
	b.classes[i], b.classes[j] = b.classes[j], b.classes[i]
	b.values[i], b.values[j] = b.values[j], b.values[i]
}

func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

func (e *LabelEncoder) NumClasses() int { return len(e.classes) }

// NumOutputs is the one-hot width: binary problems still use two columns.
func (e *LabelEncoder) NumOutputs() int {
	return max(2, len(e.classes))
}

func (e *LabelEncoder) Encode(label string) (int, error) {
	idx, ok := e.index[label]
	if !ok {
		return 0, errors.Errorf("unknown class %q", label)
	}
	return idx, nil
}

func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, label := range labels {
		idx, err := e.Encode(label)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		out[i] = idx
	}
	return out, nil
}

func (e *LabelEncoder) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(e.classes) {
		return "", errors.Errorf("class index %d out of range", idx)
	}
	return e.classes[idx], nil
}

// Binarize one-hot encodes labels into NumOutputs columns.
func (e *LabelEncoder) Binarize(labels []string) (*mat.Dense, error) {
	encoded, err := e.Transform(labels)
	if err != nil {
		return nil, err
	}
	if len(encoded) == 0 {
		return nil, errors.New("cannot binarize zero labels")
	}
	out := mat.NewDense(len(encoded), e.NumOutputs(), nil)
	for i, idx := range encoded {
		out.Set(i, idx, 1)
	}
	return out, nil
}
