package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"osinet/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig captures every input that shaped a training run.
type RunConfig struct {
	RunID          string  `json:"run_id"`
	Dataset        string  `json:"dataset"`
	CSVPath        string  `json:"csv_path,omitempty"`
	LabelColumn    int     `json:"label_column,omitempty"`
	Hidden         []int   `json:"hidden"`
	Activation     string  `json:"activation"`
	NumParticles   int     `json:"num_particles"`
	NumSwarms      int     `json:"num_swarms"`
	Method         string  `json:"method"`
	Window         int     `json:"window"`
	ValidationSize float64 `json:"validation_size"`
	TestSize       float64 `json:"test_size"`
	Inertia        float64 `json:"w"`
	Cognitive      float64 `json:"c1"`
	Social         float64 `json:"c2"`
	MinWeight      float64 `json:"min_weight"`
	MaxWeight      float64 `json:"max_weight"`
	MinVelocity    float64 `json:"min_v"`
	MaxVelocity    float64 `json:"max_v"`
	MaxIterations  int     `json:"max_iterations"`
	Seed           int64   `json:"seed"`
}

type RunSummary struct {
	RunID        string  `json:"run_id"`
	NumPaths     int     `json:"num_paths"`
	Iterations   int     `json:"iterations"`
	Evaluations  int     `json:"evaluations"`
	BestScore    float64 `json:"best_score"`
	FinalScore   float64 `json:"final_score"`
	Converged    bool    `json:"converged"`
	StopReason   string  `json:"stop_reason"`
	TestMSE      float64 `json:"test_mse"`
	TestAccuracy float64 `json:"test_accuracy"`
}

type RunArtifacts struct {
	Config       RunConfig                    `json:"config"`
	Summary      RunSummary                   `json:"summary"`
	ScoreHistory []float64                    `json:"score_history"`
	Diagnostics  []model.IterationDiagnostics `json:"iteration_diagnostics,omitempty"`
	Network      model.NetworkRecord          `json:"network"`
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Dataset      string  `json:"dataset"`
	Method       string  `json:"method"`
	NumSwarms    int     `json:"num_swarms"`
	NumParticles int     `json:"num_particles"`
	Window       int     `json:"window"`
	Seed         int64   `json:"seed"`
	Iterations   int     `json:"iterations"`
	Evaluations  int     `json:"evaluations"`
	TestMSE      float64 `json:"test_mse"`
	TestAccuracy float64 `json:"test_accuracy"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

var runFiles = []string{"config.json", "summary.json", "score_history.json", "iteration_diagnostics.json", "network.json", "score_series.csv"}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "score_history.json"), map[string]any{"scores": artifacts.ScoreHistory, "final_score": artifacts.Summary.FinalScore}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "iteration_diagnostics.json"), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "network.json"), artifacts.Network); err != nil {
		return "", err
	}
	if err := WriteScoreSeries(runDir, artifacts.Diagnostics); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range runFiles {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		if err := copyFile(path, filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, "config.json"), &cfg)
	return cfg, ok, err
}

func ReadRunSummary(baseDir, runID string) (RunSummary, bool, error) {
	var summary RunSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, "summary.json"), &summary)
	return summary, ok, err
}

func ReadNetwork(baseDir, runID string) (model.NetworkRecord, bool, error) {
	var network model.NetworkRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, "network.json"), &network)
	return network, ok, err
}

func WriteRunConfig(baseDir, runID string, cfg RunConfig) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(cfg.RunID) == "" {
		cfg.RunID = strings.TrimSpace(runID)
	}
	if cfg.RunID != strings.TrimSpace(runID) {
		return fmt.Errorf("run config run id mismatch: got=%s want=%s", cfg.RunID, strings.TrimSpace(runID))
	}
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, "config.json"), cfg)
}

// WriteScoreSeries writes one validation score row per iteration.
func WriteScoreSeries(runDir string, diagnostics []model.IterationDiagnostics) error {
	path := filepath.Join(runDir, "score_series.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"iteration", "score", "best_score", "slope", "evaluations"}); err != nil {
		return err
	}
	for _, d := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(d.Iteration),
			strconv.FormatFloat(d.Score, 'f', -1, 64),
			strconv.FormatFloat(d.BestScore, 'f', -1, 64),
			strconv.FormatFloat(d.Slope, 'g', -1, 64),
			strconv.Itoa(d.Evaluations),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadScoreSeries returns the score column of score_series.csv.
func ReadScoreSeries(baseDir, runID string) ([]float64, bool, error) {
	path := filepath.Join(baseDir, runID, "score_series.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("score series header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("score series row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
