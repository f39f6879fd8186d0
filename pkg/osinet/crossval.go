package osinet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"osinet/internal/classifier"
	"osinet/internal/dataset"
	"osinet/internal/model"
	"osinet/internal/osi"
	"osinet/internal/stats"
	"osinet/internal/storage"
)

// CrossValRequest sweeps the swarm hyperparameters over a grid. Each grid
// point is scored by Repeats stratified 2-fold splits, training once per
// half.
type CrossValRequest struct {
	DataSource
	Optimizer
	Methods        []string
	NumSwarms      []int
	Windows        []int
	NumParticles   []int
	Hidden         []int
	Activation     string
	ValidationSize float64
	Repeats        int
	Seed           int64
	// Progress receives one line per finished grid point when set.
	Progress io.Writer
}

type CrossValSummary struct {
	ExperimentID string
	Dataset      string
	Directory    string
	Results      []model.CrossValidationRecord
}

type gridPoint struct {
	method       string
	numSwarms    int
	window       int
	numParticles int
}

func (req CrossValRequest) grid() []gridPoint {
	methods := req.Methods
	if len(methods) == 0 {
		methods = []string{osi.MethodRandom.String(), osi.MethodRoundRobin.String(), osi.MethodIterative.String(), osi.MethodWorstFirst.String()}
	}
	swarms := req.NumSwarms
	if len(swarms) == 0 {
		swarms = []int{1, 5, 10, 20}
	}
	windows := req.Windows
	if len(windows) == 0 {
		windows = []int{req.Optimizer.Window}
	}
	particles := req.NumParticles
	if len(particles) == 0 {
		particles = []int{req.Optimizer.NumParticles}
	}

	points := make([]gridPoint, 0, len(methods)*len(swarms)*len(windows)*len(particles))
	for _, method := range methods {
		for _, s := range swarms {
			for _, w := range windows {
				for _, p := range particles {
					points = append(points, gridPoint{method: method, numSwarms: s, window: w, numParticles: p})
				}
			}
		}
	}
	return points
}

func (c *Client) CrossValidate(ctx context.Context, req CrossValRequest) (CrossValSummary, error) {
	req.Optimizer = req.Optimizer.withDefaults()
	if len(req.Hidden) == 0 {
		req.Hidden = []int{3}
	}
	if req.Activation == "" {
		req.Activation = "sigmoid"
	}
	if req.ValidationSize <= 0 {
		req.ValidationSize = 0.33
	}
	if req.Repeats <= 0 {
		req.Repeats = 5
	}
	if err := c.Init(ctx); err != nil {
		return CrossValSummary{}, err
	}

	rng := newRand(req.Seed)
	ds, err := req.DataSource.load(rng)
	if err != nil {
		return CrossValSummary{}, err
	}
	splits, err := dataset.StratifiedShuffleSplit(ds.Labels, req.Repeats, 0.5, rng)
	if err != nil {
		return CrossValSummary{}, err
	}

	started := time.Now().UTC()
	exp := stats.CrossValidationExperiment{
		ID:           fmt.Sprintf("%s-crossval-%s", ds.Name, uuid.NewString()[:8]),
		Dataset:      ds.Name,
		Repeats:      req.Repeats,
		Seed:         req.Seed,
		StartedAtUTC: started.Format(time.RFC3339Nano),
	}

	for i, point := range req.grid() {
		record, err := c.crossValidatePoint(ctx, req, ds, splits, point)
		if err != nil {
			return CrossValSummary{}, fmt.Errorf("grid point %s/%d/%d/%d: %w", point.method, point.numSwarms, point.window, point.numParticles, err)
		}
		record.ID = fmt.Sprintf("%s-%03d", exp.ID, i)
		record.CreatedAtUTC = time.Now().UTC().Format(time.RFC3339Nano)
		if err := c.store.SaveCrossValidation(ctx, record); err != nil {
			return CrossValSummary{}, fmt.Errorf("save cross validation: %w", err)
		}
		exp.Results = append(exp.Results, record)
		if req.Progress != nil {
			fmt.Fprintf(req.Progress, "method=%s swarms=%d window=%d particles=%d mse=%.6f±%.6f accuracy=%.4f±%.4f evaluations=%.0f\n",
				record.Method, record.NumSwarms, record.Window, record.NumParticles,
				record.MeanMSE, record.StdMSE, record.MeanAccuracy, record.StdAccuracy, record.MeanEvaluations)
		}
	}

	exp.CompletedAtUTC = time.Now().UTC().Format(time.RFC3339Nano)
	if err := stats.WriteCrossValidationExperiment(c.runsDir, exp); err != nil {
		return CrossValSummary{}, err
	}
	return CrossValSummary{
		ExperimentID: exp.ID,
		Dataset:      ds.Name,
		Directory:    stats.CrossValidationDir(c.runsDir, exp.ID),
		Results:      exp.Results,
	}, nil
}

func (c *Client) crossValidatePoint(ctx context.Context, req CrossValRequest, ds *dataset.Dataset, splits []dataset.Split, point gridPoint) (model.CrossValidationRecord, error) {
	opt := req.Optimizer
	opt.Method = point.method
	opt.NumSwarms = point.numSwarms
	opt.Window = point.window
	opt.NumParticles = point.numParticles

	record := model.CrossValidationRecord{
		VersionedRecord: storage.Versioned(),
		Dataset:         ds.Name,
		Method:          point.method,
		NumSwarms:       point.numSwarms,
		Window:          point.window,
		NumParticles:    point.numParticles,
	}
	// Every grid point replays the same seed so points differ only by
	// their hyperparameters.
	rng := newRand(req.Seed)
	for _, split := range splits {
		for _, fold := range [][2][]int{{split.Train, split.Test}, {split.Test, split.Train}} {
			if err := ctx.Err(); err != nil {
				return model.CrossValidationRecord{}, err
			}
			clf, err := classifier.New(classifier.Config{
				Hidden:         req.Hidden,
				Activation:     req.Activation,
				ValidationSize: req.ValidationSize,
				Optimizer:      opt.config(),
			}, rng)
			if err != nil {
				return model.CrossValidationRecord{}, err
			}
			train, test := ds.Subset(fold[0]), ds.Subset(fold[1])
			if err := clf.Fit(ctx, train.Features, train.Labels); err != nil {
				return model.CrossValidationRecord{}, err
			}
			metrics, err := evaluateKnown(clf, test)
			if err != nil {
				return model.CrossValidationRecord{}, err
			}
			record.MSEs = append(record.MSEs, metrics.MSE)
			record.Accuracies = append(record.Accuracies, metrics.Accuracy)
			record.Evaluations = append(record.Evaluations, clf.NumEvaluations())
		}
	}
	if len(record.MSEs) == 0 {
		return model.CrossValidationRecord{}, errors.New("no folds were evaluated")
	}

	record.MeanMSE, record.StdMSE = stats.MeanStd(record.MSEs)
	record.MeanAccuracy, record.StdAccuracy = stats.MeanStd(record.Accuracies)
	evaluations := make([]float64, len(record.Evaluations))
	for i, n := range record.Evaluations {
		evaluations[i] = float64(n)
	}
	record.MeanEvaluations, _ = stats.MeanStd(evaluations)
	return record, nil
}
