package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, payload map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train_config.json")
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadTrainRequestFromConfig(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"dataset":         "xor",
		"hidden":          []any{4, 2},
		"activation":      "tanh",
		"num_particles":   12,
		"num_swarms":      -1,
		"method":          "worst-first",
		"window":          7,
		"w":               0.6,
		"c1":              1.2,
		"c2":              1.3,
		"min_weight":      -2,
		"max_weight":      2,
		"max_iterations":  300,
		"validation_size": 0.2,
		"seed":            77,
	})

	req, err := loadTrainRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load train request: %v", err)
	}
	if req.Dataset != "xor" || req.Activation != "tanh" || req.Seed != 77 {
		t.Fatalf("unexpected base fields: %+v", req)
	}
	if len(req.Hidden) != 2 || req.Hidden[0] != 4 || req.Hidden[1] != 2 {
		t.Fatalf("unexpected hidden sizes: %v", req.Hidden)
	}
	if req.NumParticles != 12 || req.NumSwarms != -1 || req.Method != "worst-first" || req.Window != 7 {
		t.Fatalf("unexpected optimizer fields: %+v", req.Optimizer)
	}
	if req.Inertia != 0.6 || req.Cognitive != 1.2 || req.Social != 1.3 {
		t.Fatalf("unexpected coefficients: %+v", req.Optimizer)
	}
	if req.MinWeight != -2 || req.MaxWeight != 2 || req.MaxIterations != 300 || req.ValidationSize != 0.2 {
		t.Fatalf("unexpected bounds: %+v", req)
	}
}

func TestLoadTrainRequestSingleHiddenSize(t *testing.T) {
	path := writeConfig(t, map[string]any{"hidden": 5})
	req, err := loadTrainRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load train request: %v", err)
	}
	if len(req.Hidden) != 1 || req.Hidden[0] != 5 {
		t.Fatalf("unexpected hidden sizes: %v", req.Hidden)
	}

	path = writeConfig(t, map[string]any{"hidden": "wide"})
	if _, err := loadTrainRequestFromConfig(path); err == nil {
		t.Fatal("expected hidden type error")
	}
}

func TestOverrideFromFlagsOnlyTouchesSetFlags(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"dataset":       "parity4",
		"num_particles": 30,
		"method":        "iterative",
		"seed":          3,
	})
	req, err := loadOrDefaultTrainRequest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	err = overrideFromFlags(&req, map[string]bool{"method": true, "hidden": true}, map[string]any{
		"dataset":   "blobs",
		"particles": 5,
		"method":    "round-robin",
		"hidden":    "6,3",
		"seed":      int64(99),
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if req.Dataset != "parity4" || req.NumParticles != 30 || req.Seed != 3 {
		t.Fatalf("unset flags must keep config values: %+v", req)
	}
	if req.Method != "round-robin" {
		t.Fatalf("expected method override, got %s", req.Method)
	}
	if len(req.Hidden) != 2 || req.Hidden[0] != 6 || req.Hidden[1] != 3 {
		t.Fatalf("unexpected hidden override: %v", req.Hidden)
	}
}

func TestLoadOrDefaultTrainRequestMissingFile(t *testing.T) {
	if _, err := loadOrDefaultTrainRequest(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected missing config error")
	}
	req, err := loadOrDefaultTrainRequest("")
	if err != nil {
		t.Fatalf("default request: %v", err)
	}
	if req.Dataset != "" || req.Seed != 0 {
		t.Fatalf("expected zero request, got %+v", req)
	}
}
