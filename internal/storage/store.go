package storage

import (
	"context"

	"osinet/internal/model"
)

// Store persists trained networks, run summaries and their training traces.
type Store interface {
	Init(ctx context.Context) error
	SaveNetwork(ctx context.Context, network model.NetworkRecord) error
	GetNetwork(ctx context.Context, id string) (model.NetworkRecord, bool, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	SaveScoreHistory(ctx context.Context, runID string, history []float64) error
	GetScoreHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveIterationDiagnostics(ctx context.Context, runID string, diagnostics []model.IterationDiagnostics) error
	GetIterationDiagnostics(ctx context.Context, runID string) ([]model.IterationDiagnostics, bool, error)
	SaveCrossValidation(ctx context.Context, record model.CrossValidationRecord) error
	GetCrossValidation(ctx context.Context, id string) (model.CrossValidationRecord, bool, error)
}
