package dataset

import (
	"math/rand/v2"
	"reflect"
	"testing"
)

func TestBuiltinShapes(t *testing.T) {
	cases := []struct {
		name    string
		rows    int
		cols    int
		classes int
	}{
		{name: "xor", rows: 40, cols: 2, classes: 2},
		{name: "parity4", rows: 16, cols: 4, classes: 2},
		{name: "blobs", rows: 150, cols: 4, classes: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ds, err := Builtin(tc.name, rand.New(rand.NewPCG(1, 1)))
			if err != nil {
				t.Fatalf("builtin: %v", err)
			}
			if ds.Rows() != tc.rows || ds.Cols() != tc.cols {
				t.Fatalf("expected %dx%d, got %dx%d", tc.rows, tc.cols, ds.Rows(), ds.Cols())
			}
			if got := FitLabelEncoder(ds.Labels).NumClasses(); got != tc.classes {
				t.Fatalf("expected %d classes, got %d", tc.classes, got)
			}
		})
	}
}

func TestBuiltinDeterministic(t *testing.T) {
	a, err := Builtin("blobs", rand.New(rand.NewPCG(9, 9)))
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	b, err := Builtin("blobs", rand.New(rand.NewPCG(9, 9)))
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if !reflect.DeepEqual(a.Features.RawMatrix().Data, b.Features.RawMatrix().Data) {
		t.Fatal("expected identical features for equal seeds")
	}
}

func TestParityLabels(t *testing.T) {
	ds, err := Builtin("parity4", nil)
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	// 0b0111 has odd parity.
	if ds.Labels[7] != "1" || ds.Labels[3] != "0" {
		t.Fatalf("unexpected parity labels: %v", ds.Labels)
	}
}

func TestBuiltinUnknown(t *testing.T) {
	if _, err := Builtin("iris", nil); err == nil {
		t.Fatal("expected unknown dataset error")
	}
	if got := BuiltinNames(); !reflect.DeepEqual(got, []string{"blobs", "parity4", "xor"}) {
		t.Fatalf("unexpected names: %v", got)
	}
}
