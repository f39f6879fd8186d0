package dataset

import (
	"reflect"
	"testing"
)

func TestFitLabelEncoderOrdering(t *testing.T) {
	numeric := FitLabelEncoder([]string{"10", "2", "2", "1"})
	if got := numeric.Classes(); !reflect.DeepEqual(got, []string{"1", "2", "10"}) {
		t.Fatalf("expected numeric order, got %v", got)
	}
	lexical := FitLabelEncoder([]string{"g", "b", "g"})
	if got := lexical.Classes(); !reflect.DeepEqual(got, []string{"b", "g"}) {
		t.Fatalf("expected lexical order, got %v", got)
	}
}

func TestBinarizeMulticlass(t *testing.T) {
	enc := FitLabelEncoder([]string{"a", "b", "c"})
	y, err := enc.Binarize([]string{"c", "a"})
	if err != nil {
		t.Fatalf("binarize: %v", err)
	}
	r, c := y.Dims()
	if r != 2 || c != 3 {
		t.Fatalf("expected 2x3, got %dx%d", r, c)
	}
	if y.At(0, 2) != 1 || y.At(1, 0) != 1 || y.At(0, 0) != 0 {
		t.Fatalf("unexpected one-hot rows")
	}
}

func TestBinarizeBinaryUsesTwoColumns(t *testing.T) {
	enc := FitLabelEncoder([]string{"no", "yes"})
	if enc.NumOutputs() != 2 {
		t.Fatalf("expected 2 outputs, got %d", enc.NumOutputs())
	}
	y, err := enc.Binarize([]string{"yes", "no"})
	if err != nil {
		t.Fatalf("binarize: %v", err)
	}
	if y.At(0, 1) != 1 || y.At(1, 0) != 1 {
		t.Fatalf("unexpected binary encoding")
	}
}

func TestEncoderUnknownLabel(t *testing.T) {
	enc := NewLabelEncoder([]string{"x"})
	if _, err := enc.Binarize([]string{"y"}); err == nil {
		t.Fatal("expected unknown class error")
	}
	if _, err := enc.Decode(3); err == nil {
		t.Fatal("expected decode range error")
	}
	if label, err := enc.Decode(0); err != nil || label != "x" {
		t.Fatalf("decode: %q %v", label, err)
	}
}
