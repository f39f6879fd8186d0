package storage

import (
	"context"
	"errors"
	"sync"

	"osinet/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	networks    map[string]model.NetworkRecord
	runs        map[string]model.RunRecord
	history     map[string][]float64
	diagnostics map[string][]model.IterationDiagnostics
	crossval    map[string]model.CrossValidationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.networks = make(map[string]model.NetworkRecord)
	s.runs = make(map[string]model.RunRecord)
	s.history = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.IterationDiagnostics)
	s.crossval = make(map[string]model.CrossValidationRecord)
	return nil
}

func (s *MemoryStore) SaveNetwork(_ context.Context, network model.NetworkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.networks[network.ID] = cloneNetwork(network)
	return nil
}

func (s *MemoryStore) GetNetwork(_ context.Context, id string) (model.NetworkRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	network, ok := s.networks[id]
	if !ok {
		return model.NetworkRecord{}, false, nil
	}
	return cloneNetwork(network), true, nil
}

func (s *MemoryStore) DeleteNetwork(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.networks, id)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) SaveScoreHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetScoreHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveIterationDiagnostics(_ context.Context, runID string, diagnostics []model.IterationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.diagnostics[runID] = cloneDiagnostics(diagnostics)
	return nil
}

func (s *MemoryStore) GetIterationDiagnostics(_ context.Context, runID string) ([]model.IterationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	return cloneDiagnostics(diagnostics), true, nil
}

func (s *MemoryStore) SaveCrossValidation(_ context.Context, record model.CrossValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	record.MSEs = append([]float64(nil), record.MSEs...)
	record.Accuracies = append([]float64(nil), record.Accuracies...)
	record.Evaluations = append([]int(nil), record.Evaluations...)
	s.crossval[record.ID] = record
	return nil
}

func (s *MemoryStore) GetCrossValidation(_ context.Context, id string) (model.CrossValidationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.crossval[id]
	return record, ok, nil
}

func cloneNetwork(network model.NetworkRecord) model.NetworkRecord {
	network.Layers = append([]int(nil), network.Layers...)
	network.Classes = append([]string(nil), network.Classes...)
	weights := make([][][]float64, len(network.Weights))
	for l, matrix := range network.Weights {
		weights[l] = make([][]float64, len(matrix))
		for r, row := range matrix {
			weights[l][r] = append([]float64(nil), row...)
		}
	}
	network.Weights = weights
	return network
}

func cloneDiagnostics(diagnostics []model.IterationDiagnostics) []model.IterationDiagnostics {
	out := make([]model.IterationDiagnostics, len(diagnostics))
	for i, d := range diagnostics {
		d.Selected = append([]int(nil), d.Selected...)
		out[i] = d
	}
	return out
}
