package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"osinet/internal/model"
)

const crossValidationDir = "crossval"

// CrossValidationExperiment groups the grid points of one cross-validation
// sweep over a dataset.
type CrossValidationExperiment struct {
	ID             string                        `json:"id"`
	Dataset        string                        `json:"dataset"`
	Repeats        int                           `json:"repeats"`
	Seed           int64                         `json:"seed"`
	StartedAtUTC   string                        `json:"started_at_utc,omitempty"`
	CompletedAtUTC string                        `json:"completed_at_utc,omitempty"`
	Results        []model.CrossValidationRecord `json:"results,omitempty"`
}

// MeanStd returns the mean and unbiased standard deviation of values. A
// single value has zero spread.
func MeanStd(values []float64) (float64, float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

func WriteCrossValidationExperiment(baseDir string, exp CrossValidationExperiment) error {
	if exp.ID == "" {
		return fmt.Errorf("experiment id is required")
	}
	path := crossValidationPath(baseDir, exp.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := writeJSON(path, exp); err != nil {
		return err
	}
	return WriteCrossValidationCSV(filepath.Join(filepath.Dir(path), "results.csv"), exp.Results)
}

func ReadCrossValidationExperiment(baseDir, id string) (CrossValidationExperiment, bool, error) {
	if id == "" {
		return CrossValidationExperiment{}, false, fmt.Errorf("experiment id is required")
	}
	var exp CrossValidationExperiment
	ok, err := readJSON(crossValidationPath(baseDir, id), &exp)
	return exp, ok, err
}

func ListCrossValidationExperiments(baseDir string) ([]CrossValidationExperiment, error) {
	root := filepath.Join(baseDir, crossValidationDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []CrossValidationExperiment{}, nil
		}
		return nil, err
	}

	exps := make([]CrossValidationExperiment, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		exp, ok, err := ReadCrossValidationExperiment(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		exps = append(exps, exp)
	}
	sort.Slice(exps, func(i, j int) bool {
		switch {
		case exps[i].StartedAtUTC == exps[j].StartedAtUTC:
			return exps[i].ID < exps[j].ID
		case exps[i].StartedAtUTC == "":
			return false
		case exps[j].StartedAtUTC == "":
			return true
		default:
			return exps[i].StartedAtUTC > exps[j].StartedAtUTC
		}
	})
	return exps, nil
}

// WriteCrossValidationCSV writes one row per grid point with its aggregate
// scores.
func WriteCrossValidationCSV(path string, records []model.CrossValidationRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"method", "num_swarms", "window", "num_particles", "mean_mse", "std_mse", "mean_accuracy", "std_accuracy", "mean_evaluations"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{
			r.Method,
			strconv.Itoa(r.NumSwarms),
			strconv.Itoa(r.Window),
			strconv.Itoa(r.NumParticles),
			strconv.FormatFloat(r.MeanMSE, 'f', -1, 64),
			strconv.FormatFloat(r.StdMSE, 'f', -1, 64),
			strconv.FormatFloat(r.MeanAccuracy, 'f', -1, 64),
			strconv.FormatFloat(r.StdAccuracy, 'f', -1, 64),
			strconv.FormatFloat(r.MeanEvaluations, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CrossValidationDir is where an experiment's files live under baseDir.
func CrossValidationDir(baseDir, id string) string {
	return filepath.Join(baseDir, crossValidationDir, id)
}

func crossValidationPath(baseDir, id string) string {
	return filepath.Join(CrossValidationDir(baseDir, id), "experiment.json")
}
