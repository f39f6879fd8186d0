package stats

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"osinet/internal/model"
)

func TestWriteReadAndListCrossValidationExperiments(t *testing.T) {
	baseDir := t.TempDir()

	older := CrossValidationExperiment{ID: "cv-old", Dataset: "xor", Repeats: 5, StartedAtUTC: "2026-01-01T00:00:00Z"}
	newer := CrossValidationExperiment{
		ID:           "cv-new",
		Dataset:      "blobs",
		Repeats:      5,
		StartedAtUTC: "2026-02-01T00:00:00Z",
		Results: []model.CrossValidationRecord{
			{ID: "cv-new-0", Method: "random", NumSwarms: 2, Window: 5, NumParticles: 5, MeanMSE: 0.2, MeanAccuracy: 0.8, MeanEvaluations: 120},
			{ID: "cv-new-1", Method: "worst-first", NumSwarms: 3, Window: 5, NumParticles: 5, MeanMSE: 0.25, MeanAccuracy: 0.7, MeanEvaluations: 150},
		},
	}
	unstarted := CrossValidationExperiment{ID: "cv-pending", Dataset: "xor"}
	for _, exp := range []CrossValidationExperiment{older, newer, unstarted} {
		if err := WriteCrossValidationExperiment(baseDir, exp); err != nil {
			t.Fatalf("write %s: %v", exp.ID, err)
		}
	}

	loaded, ok, err := ReadCrossValidationExperiment(baseDir, "cv-new")
	if err != nil || !ok {
		t.Fatalf("read experiment: ok=%v err=%v", ok, err)
	}
	if len(loaded.Results) != 2 || loaded.Results[1].Method != "worst-first" {
		t.Fatalf("unexpected results: %+v", loaded.Results)
	}

	listed, err := ListCrossValidationExperiments(baseDir)
	if err != nil {
		t.Fatalf("list experiments: %v", err)
	}
	if len(listed) != 3 || listed[0].ID != "cv-new" || listed[1].ID != "cv-old" || listed[2].ID != "cv-pending" {
		t.Fatalf("unexpected order: %+v", listed)
	}

	file, err := os.Open(filepath.Join(baseDir, crossValidationDir, "cv-new", "results.csv"))
	if err != nil {
		t.Fatalf("open results csv: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read results csv: %v", err)
	}
	if len(rows) != 3 || rows[2][0] != "worst-first" || rows[1][4] != "0.2" {
		t.Fatalf("unexpected csv rows: %v", rows)
	}

	if _, ok, err := ReadCrossValidationExperiment(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected missing experiment, ok=%v err=%v", ok, err)
	}
	if err := WriteCrossValidationExperiment(baseDir, CrossValidationExperiment{}); err == nil {
		t.Fatal("expected id required error")
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Fatalf("expected mean 5, got %v", mean)
	}
	if math.Abs(std-math.Sqrt(32.0/7.0)) > 1e-12 {
		t.Fatalf("unexpected std %v", std)
	}
	if mean, std := MeanStd([]float64{3}); mean != 3 || std != 0 {
		t.Fatalf("expected single value 3/0, got %v/%v", mean, std)
	}
	if mean, std := MeanStd(nil); mean != 0 || std != 0 {
		t.Fatalf("expected empty 0/0, got %v/%v", mean, std)
	}
}
