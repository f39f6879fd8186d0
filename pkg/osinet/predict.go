package osinet

import (
	"context"
	"fmt"

	"osinet/internal/classifier"
	"osinet/internal/model"
	"osinet/internal/stats"
)

type PredictRequest struct {
	DataSource
	RunID  string
	Latest bool
	Seed   int64
}

type PredictSummary struct {
	RunID       string
	Predictions []string
	// Metrics is set only when every row's label is a class the network
	// was trained on.
	Metrics *classifier.Metrics
}

func (c *Client) Predict(ctx context.Context, req PredictRequest) (PredictSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return PredictSummary{}, err
	}
	record, err := c.loadNetwork(ctx, runID)
	if err != nil {
		return PredictSummary{}, err
	}
	clf, err := classifier.Restore(record)
	if err != nil {
		return PredictSummary{}, err
	}

	ds, err := req.DataSource.load(newRand(req.Seed))
	if err != nil {
		return PredictSummary{}, err
	}
	predictions, err := clf.Predict(ds.Features)
	if err != nil {
		return PredictSummary{}, err
	}

	summary := PredictSummary{RunID: runID, Predictions: predictions}
	if allKnown(clf.Classes(), ds.Labels) {
		metrics, err := clf.Evaluate(ds.Features, ds.Labels)
		if err != nil {
			return PredictSummary{}, err
		}
		summary.Metrics = &metrics
	}
	return summary, nil
}

// loadNetwork prefers the store and falls back to the run's artifacts.
func (c *Client) loadNetwork(ctx context.Context, runID string) (model.NetworkRecord, error) {
	if err := c.Init(ctx); err != nil {
		return model.NetworkRecord{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.NetworkRecord{}, err
	}
	if ok {
		network, ok, err := c.store.GetNetwork(ctx, run.NetworkID)
		if err != nil {
			return model.NetworkRecord{}, err
		}
		if ok {
			return network, nil
		}
	}
	network, ok, err := stats.ReadNetwork(c.runsDir, runID)
	if err != nil {
		return model.NetworkRecord{}, err
	}
	if !ok {
		return model.NetworkRecord{}, fmt.Errorf("network not found for run id: %s", runID)
	}
	return network, nil
}

func allKnown(classes, labels []string) bool {
	known := make(map[string]struct{}, len(classes))
	for _, class := range classes {
		known[class] = struct{}{}
	}
	for _, label := range labels {
		if _, ok := known[label]; !ok {
			return false
		}
	}
	return len(labels) > 0
}

type ExperimentsRequest struct {
	Limit int
}

// Experiments lists cross-validation sweeps, newest first.
func (c *Client) Experiments(_ context.Context, req ExperimentsRequest) ([]stats.CrossValidationExperiment, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	exps, err := stats.ListCrossValidationExperiments(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(exps) > req.Limit {
		exps = exps[:req.Limit]
	}
	return exps, nil
}
