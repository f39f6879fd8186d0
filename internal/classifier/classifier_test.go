package classifier

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"osinet/internal/dataset"
	"osinet/internal/osi"
)

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.ValidationSize = 0.33
	cfg.Optimizer.NumParticles = 5
	cfg.Optimizer.NumSwarms = 3
	cfg.Optimizer.Method = "round-robin"
	cfg.Optimizer.Window = 5
	return cfg
}

func fitBlobs(t *testing.T, cfg Config, seed uint64) (*Classifier, *dataset.Dataset) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	ds, err := dataset.Builtin("blobs", rng)
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	clf, err := New(cfg, rng)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	if err := clf.Fit(context.Background(), ds.Features, ds.Labels); err != nil {
		t.Fatalf("fit: %v", err)
	}
	return clf, ds
}

func TestFitPredict(t *testing.T) {
	clf, ds := fitBlobs(t, quickConfig(), 11)

	if got := clf.Classes(); !reflect.DeepEqual(got, []string{"0", "1", "2"}) {
		t.Fatalf("unexpected classes: %v", got)
	}
	if layers := clf.Network().Layers; !reflect.DeepEqual(layers, []int{4, 3, 3}) {
		t.Fatalf("unexpected layers: %v", layers)
	}
	if clf.NumIterations() <= 0 {
		t.Fatalf("expected iterations, got %d", clf.NumIterations())
	}
	if clf.NumEvaluations() != clf.NumIterations()*3*5 {
		t.Fatalf("expected %d evaluations, got %d", clf.NumIterations()*3*5, clf.NumEvaluations())
	}

	proba, err := clf.PredictProba(ds.Features)
	if err != nil {
		t.Fatalf("predict proba: %v", err)
	}
	if r, c := proba.Dims(); r != 150 || c != 3 {
		t.Fatalf("expected 150x3 probabilities, got %dx%d", r, c)
	}
	metrics, err := clf.Evaluate(ds.Features, ds.Labels)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if metrics.Accuracy < 0 || metrics.Accuracy > 1 || math.IsNaN(metrics.MSE) || metrics.MSE < 0 || metrics.MSE > 1 {
		t.Fatalf("metrics out of range: %+v", metrics)
	}
}

func TestBinaryProblemUsesTwoOutputs(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	ds, err := dataset.Builtin("xor", rng)
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	cfg := quickConfig()
	cfg.Hidden = []int{2}
	clf, err := New(cfg, rng)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	if err := clf.Fit(context.Background(), ds.Features, ds.Labels); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if layers := clf.Network().Layers; !reflect.DeepEqual(layers, []int{2, 2, 2}) {
		t.Fatalf("expected two output columns, got %v", layers)
	}
	predicted, err := clf.Predict(ds.Features)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for _, label := range predicted {
		if label != "0" && label != "1" {
			t.Fatalf("unexpected label %q", label)
		}
	}
}

func TestRestoreReproducesPredictions(t *testing.T) {
	clf, ds := fitBlobs(t, quickConfig(), 5)
	record, err := clf.Record("net-1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	restored, err := Restore(record)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	want, err := clf.Predict(ds.Features)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	got, err := restored.Predict(ds.Features)
	if err != nil {
		t.Fatalf("predict restored: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatal("restored classifier disagrees with original")
	}

	record.Classes = []string{"only"}
	if _, err := Restore(record); err == nil {
		t.Fatal("expected output/class mismatch error")
	}
}

func TestVerboseLogsProgress(t *testing.T) {
	var buf bytes.Buffer
	cfg := quickConfig()
	cfg.Verbose = true
	cfg.Log = &buf
	fitBlobs(t, cfg, 3)
	out := buf.String()
	if !strings.Contains(out, "fitting network=4-3-3 paths=48") {
		t.Fatalf("missing header in %q", out)
	}
	if !strings.Contains(out, "iteration=1 score=") {
		t.Fatalf("missing iteration line in %q", out)
	}
}

func TestPredictBeforeFit(t *testing.T) {
	clf, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	if _, err := clf.Predict(nil); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected not fitted, got %v", err)
	}
	if _, err := clf.Record("x"); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected not fitted, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := map[string]func(*Config){
		"hidden":     func(c *Config) { c.Hidden = []int{0} },
		"validation": func(c *Config) { c.ValidationSize = 1 },
		"verbose":    func(c *Config) { c.Verbose = true },
		"method":     func(c *Config) { c.Optimizer.Method = "best" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			if _, err := New(cfg, nil); !errors.Is(err, osi.ErrInvalidConfiguration) {
				t.Fatalf("expected invalid configuration, got %v", err)
			}
		})
	}
}

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]string{"a", "b", "a", "c"}, []string{"a", "a", "a", "c"})
	if err != nil {
		t.Fatalf("accuracy: %v", err)
	}
	if acc != 0.75 {
		t.Fatalf("expected 0.75, got %v", acc)
	}
	if _, err := Accuracy([]string{"a"}, nil); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
