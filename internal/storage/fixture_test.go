package storage

import "osinet/internal/model"

func sampleNetwork(id string) model.NetworkRecord {
	return model.NetworkRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		Layers:          []int{2, 1},
		Activation:      "sigmoid",
		Classes:         []string{"0", "1"},
		Weights:         [][][]float64{{{0.5}, {-1.25}, {0.1}}},
	}
}

func sampleRun(id string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		Dataset:         "xor",
		NetworkID:       id + "-net",
		Method:          "round-robin",
		NumSwarms:       2,
		NumParticles:    5,
		NumPaths:        3,
		Window:          5,
		Seed:            42,
		Iterations:      12,
		Evaluations:     120,
		BestScore:       0.11,
		FinalScore:      0.12,
		Converged:       true,
		StopReason:      "converged",
		CreatedAtUTC:    "2026-01-02T03:04:05Z",
	}
}
