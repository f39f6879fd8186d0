package osinet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"osinet/internal/classifier"
	"osinet/internal/dataset"
	"osinet/internal/model"
	"osinet/internal/osi"
	"osinet/internal/stats"
	"osinet/internal/storage"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "osinet.db"
)

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string
}

type Client struct {
	store storage.Store

	initMu      sync.Mutex
	initialized bool

	runsDir    string
	exportsDir string
}

// DataSource names a built-in dataset or a CSV file. CSVPath wins when set.
type DataSource struct {
	Dataset     string
	CSVPath     string
	LabelColumn int
	Header      bool
}

// Optimizer mirrors the swarm hyperparameters. Zero values take defaults.
type Optimizer struct {
	NumParticles  int
	NumSwarms     int
	Method        string
	Window        int
	Inertia       float64
	Cognitive     float64
	Social        float64
	MinWeight     float64
	MaxWeight     float64
	MinVelocity   float64
	MaxVelocity   float64
	MaxIterations int
}

type TrainRequest struct {
	DataSource
	Optimizer
	Hidden         []int
	Activation     string
	ValidationSize float64
	TestSize       float64
	Seed           int64
	Verbose        bool
	Log            io.Writer
}

type TrainSummary struct {
	RunID        string
	NetworkID    string
	ArtifactsDir string
	Layers       []int
	NumPaths     int
	Iterations   int
	Evaluations  int
	BestScore    float64
	FinalScore   float64
	Converged    bool
	StopReason   string
	TestMSE      float64
	TestAccuracy float64
	ScoreHistory []float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Dataset      string
	Method       string
	NumSwarms    int
	NumParticles int
	Window       int
	Seed         int64
	Iterations   int
	Evaluations  int
	TestMSE      float64
	TestAccuracy float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		runsDir:    runsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

func (o Optimizer) withDefaults() Optimizer {
	def := osi.DefaultConfig()
	if o.NumParticles <= 0 {
		o.NumParticles = def.NumParticles
	}
	if o.NumSwarms == 0 {
		o.NumSwarms = def.NumSwarms
	}
	if o.Method == "" {
		o.Method = def.Method
	}
	if o.Window <= 0 {
		o.Window = def.Window
	}
	if o.Inertia == 0 {
		o.Inertia = def.Inertia
	}
	if o.Cognitive == 0 {
		o.Cognitive = def.Cognitive
	}
	if o.Social == 0 {
		o.Social = def.Social
	}
	if o.MinWeight == 0 && o.MaxWeight == 0 {
		o.MinWeight, o.MaxWeight = def.Bounds.MinWeight, def.Bounds.MaxWeight
	}
	if o.MinVelocity == 0 && o.MaxVelocity == 0 {
		o.MinVelocity, o.MaxVelocity = def.Bounds.MinVelocity, def.Bounds.MaxVelocity
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = def.MaxIterations
	}
	return o
}

func (o Optimizer) config() osi.Config {
	cfg := osi.DefaultConfig()
	cfg.NumParticles = o.NumParticles
	cfg.NumSwarms = o.NumSwarms
	cfg.Method = o.Method
	cfg.Window = o.Window
	cfg.Inertia = o.Inertia
	cfg.Cognitive = o.Cognitive
	cfg.Social = o.Social
	cfg.Bounds = osi.Bounds{
		MinWeight:   o.MinWeight,
		MaxWeight:   o.MaxWeight,
		MinVelocity: o.MinVelocity,
		MaxVelocity: o.MaxVelocity,
	}
	cfg.MaxIterations = o.MaxIterations
	return cfg
}

func (s DataSource) load(rng *rand.Rand) (*dataset.Dataset, error) {
	if s.CSVPath != "" {
		return dataset.LoadCSV(s.CSVPath, s.LabelColumn, s.Header)
	}
	name := s.Dataset
	if name == "" {
		name = "blobs"
	}
	return dataset.Builtin(name, rng)
}

func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	req.Optimizer = req.Optimizer.withDefaults()
	if len(req.Hidden) == 0 {
		req.Hidden = []int{3}
	}
	if req.Activation == "" {
		req.Activation = "sigmoid"
	}
	if req.ValidationSize <= 0 {
		req.ValidationSize = 0.25
	}
	if req.TestSize <= 0 {
		req.TestSize = 0.5
	}
	if err := c.Init(ctx); err != nil {
		return TrainSummary{}, err
	}

	rng := newRand(req.Seed)
	ds, err := req.DataSource.load(rng)
	if err != nil {
		return TrainSummary{}, err
	}
	split, err := dataset.TrainTestSplit(ds.Rows(), req.TestSize, rng)
	if err != nil {
		return TrainSummary{}, err
	}
	train, test := ds.Subset(split.Train), ds.Subset(split.Test)

	var diagnostics []model.IterationDiagnostics
	cfg := classifier.Config{
		Hidden:         req.Hidden,
		Activation:     req.Activation,
		ValidationSize: req.ValidationSize,
		Verbose:        req.Verbose,
		Log:            req.Log,
		Optimizer:      req.Optimizer.config(),
	}
	cfg.Optimizer.Trace = func(ev osi.TraceEvent) {
		diagnostics = append(diagnostics, model.IterationDiagnostics{
			Iteration:   ev.Iteration,
			Selected:    append([]int(nil), ev.Selected...),
			Score:       ev.Score,
			BestScore:   ev.BestScore,
			Slope:       ev.Slope,
			Evaluations: ev.Evaluations,
		})
	}
	clf, err := classifier.New(cfg, rng)
	if err != nil {
		return TrainSummary{}, err
	}
	if err := clf.Fit(ctx, train.Features, train.Labels); err != nil {
		return TrainSummary{}, err
	}
	metrics, err := evaluateKnown(clf, test)
	if err != nil {
		return TrainSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%s", ds.Name, req.Seed, uuid.NewString()[:8])
	networkID := runID + "-net"
	network, err := clf.Record(networkID)
	if err != nil {
		return TrainSummary{}, err
	}
	network.VersionedRecord = storage.Versioned()
	result := clf.Result()

	run := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		Dataset:         ds.Name,
		NetworkID:       networkID,
		Method:          req.Method,
		NumSwarms:       req.NumSwarms,
		NumParticles:    req.NumParticles,
		NumPaths:        result.NumPaths,
		Window:          req.Window,
		Seed:            req.Seed,
		Iterations:      result.Iterations,
		Evaluations:     result.Evaluations,
		BestScore:       result.BestScore,
		FinalScore:      result.FinalScore,
		Converged:       result.Converged,
		StopReason:      result.StopReason,
		TestMSE:         metrics.MSE,
		TestAccuracy:    metrics.Accuracy,
		CreatedAtUTC:    now.Format(time.RFC3339Nano),
	}
	if err := c.persistRun(ctx, run, network, result.ScoreHistory, diagnostics); err != nil {
		return TrainSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.runsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          runID,
			Dataset:        ds.Name,
			CSVPath:        req.CSVPath,
			LabelColumn:    req.LabelColumn,
			Hidden:         req.Hidden,
			Activation:     req.Activation,
			NumParticles:   req.NumParticles,
			NumSwarms:      req.NumSwarms,
			Method:         req.Method,
			Window:         req.Window,
			ValidationSize: req.ValidationSize,
			TestSize:       req.TestSize,
			Inertia:        req.Inertia,
			Cognitive:      req.Cognitive,
			Social:         req.Social,
			MinWeight:      req.MinWeight,
			MaxWeight:      req.MaxWeight,
			MinVelocity:    req.MinVelocity,
			MaxVelocity:    req.MaxVelocity,
			MaxIterations:  req.MaxIterations,
			Seed:           req.Seed,
		},
		Summary: stats.RunSummary{
			RunID:        runID,
			NumPaths:     result.NumPaths,
			Iterations:   result.Iterations,
			Evaluations:  result.Evaluations,
			BestScore:    result.BestScore,
			FinalScore:   result.FinalScore,
			Converged:    result.Converged,
			StopReason:   result.StopReason,
			TestMSE:      metrics.MSE,
			TestAccuracy: metrics.Accuracy,
		},
		ScoreHistory: result.ScoreHistory,
		Diagnostics:  diagnostics,
		Network:      network,
	})
	if err != nil {
		return TrainSummary{}, err
	}

	if err := stats.AppendRunIndex(c.runsDir, stats.RunIndexEntry{
		RunID:        runID,
		Dataset:      ds.Name,
		Method:       req.Method,
		NumSwarms:    req.NumSwarms,
		NumParticles: req.NumParticles,
		Window:       req.Window,
		Seed:         req.Seed,
		Iterations:   result.Iterations,
		Evaluations:  result.Evaluations,
		TestMSE:      metrics.MSE,
		TestAccuracy: metrics.Accuracy,
		CreatedAtUTC: run.CreatedAtUTC,
	}); err != nil {
		return TrainSummary{}, err
	}

	return TrainSummary{
		RunID:        runID,
		NetworkID:    networkID,
		ArtifactsDir: filepath.Clean(runDir),
		Layers:       append([]int(nil), network.Layers...),
		NumPaths:     result.NumPaths,
		Iterations:   result.Iterations,
		Evaluations:  result.Evaluations,
		BestScore:    result.BestScore,
		FinalScore:   result.FinalScore,
		Converged:    result.Converged,
		StopReason:   result.StopReason,
		TestMSE:      metrics.MSE,
		TestAccuracy: metrics.Accuracy,
		ScoreHistory: append([]float64(nil), result.ScoreHistory...),
	}, nil
}

func (c *Client) persistRun(ctx context.Context, run model.RunRecord, network model.NetworkRecord, history []float64, diagnostics []model.IterationDiagnostics) error {
	if err := c.store.SaveNetwork(ctx, network); err != nil {
		return fmt.Errorf("save network: %w", err)
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveScoreHistory(ctx, run.ID, history); err != nil {
		return fmt.Errorf("save score history: %w", err)
	}
	if err := c.store.SaveIterationDiagnostics(ctx, run.ID, diagnostics); err != nil {
		return fmt.Errorf("save iteration diagnostics: %w", err)
	}
	return nil
}

// evaluateKnown scores rows whose label the classifier was trained on.
// Rows with unseen labels count as misclassified and are left out of MSE.
func evaluateKnown(clf *classifier.Classifier, test *dataset.Dataset) (classifier.Metrics, error) {
	known := make(map[string]struct{})
	for _, class := range clf.Classes() {
		known[class] = struct{}{}
	}
	var keep []int
	for i, label := range test.Labels {
		if _, ok := known[label]; ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return classifier.Metrics{}, errors.New("test partition has no rows with a trained class")
	}
	metrics, err := clf.Evaluate(dataset.Rows(test.Features, keep), dataset.Pick(test.Labels, keep))
	if err != nil {
		return classifier.Metrics{}, err
	}
	metrics.Accuracy *= float64(len(keep)) / float64(len(test.Labels))
	return metrics, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Dataset:      e.Dataset,
			Method:       e.Method,
			NumSwarms:    e.NumSwarms,
			NumParticles: e.NumParticles,
			Window:       e.Window,
			Seed:         e.Seed,
			Iterations:   e.Iterations,
			Evaluations:  e.Evaluations,
			TestMSE:      e.TestMSE,
			TestAccuracy: e.TestAccuracy,
		})
	}
	return out, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if !latest {
		if runID == "" {
			return "", errors.New("run id or latest is required")
		}
		return runID, nil
	}
	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// ScoreHistory returns the trend window retained when the run stopped.
func (c *Client) ScoreHistory(ctx context.Context, req HistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetScoreHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("score history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[len(history)-req.Limit:]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req HistoryRequest) ([]model.IterationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetIterationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("iteration diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	return diagnostics, nil
}
