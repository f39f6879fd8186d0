//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"osinet/internal/model"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "osinet.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	network := sampleNetwork("n1")
	if err := store.SaveNetwork(ctx, network); err != nil {
		t.Fatalf("save network: %v", err)
	}
	network.Activation = "tanh"
	if err := store.SaveNetwork(ctx, network); err != nil {
		t.Fatalf("overwrite network: %v", err)
	}
	loaded, ok, err := store.GetNetwork(ctx, "n1")
	if err != nil || !ok {
		t.Fatalf("get network: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(loaded, network) {
		t.Fatalf("network mismatch: %+v", loaded)
	}

	run := sampleRun("r1")
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	loadedRun, ok, err := store.GetRun(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(loadedRun, run) {
		t.Fatalf("run mismatch: %+v", loadedRun)
	}

	if err := store.SaveScoreHistory(ctx, "r1", []float64{0.5, 0.25}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history, ok, err := store.GetScoreHistory(ctx, "r1")
	if err != nil || !ok || !reflect.DeepEqual(history, []float64{0.5, 0.25}) {
		t.Fatalf("get history: %v ok=%v err=%v", history, ok, err)
	}

	diagnostics := []model.IterationDiagnostics{{Iteration: 1, Selected: []int{2}, Score: 0.5, Evaluations: 5}}
	if err := store.SaveIterationDiagnostics(ctx, "r1", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	loadedDiagnostics, ok, err := store.GetIterationDiagnostics(ctx, "r1")
	if err != nil || !ok || !reflect.DeepEqual(loadedDiagnostics, diagnostics) {
		t.Fatalf("get diagnostics: %+v ok=%v err=%v", loadedDiagnostics, ok, err)
	}

	record := model.CrossValidationRecord{VersionedRecord: Versioned(), ID: "cv1", MSEs: []float64{0.2}, Accuracies: []float64{0.7}, Evaluations: []int{40}}
	if err := store.SaveCrossValidation(ctx, record); err != nil {
		t.Fatalf("save cross validation: %v", err)
	}
	loadedRecord, ok, err := store.GetCrossValidation(ctx, "cv1")
	if err != nil || !ok || !reflect.DeepEqual(loadedRecord, record) {
		t.Fatalf("get cross validation: %+v ok=%v err=%v", loadedRecord, ok, err)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "osinet.db")

	first := NewSQLiteStore(dbPath)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := first.SaveRun(ctx, sampleRun("r1")); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := NewStore("sqlite", dbPath)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = CloseIfSupported(second)
	})
	if _, ok, err := second.GetRun(ctx, "r1"); err != nil || !ok {
		t.Fatalf("expected persisted run, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	if err := store.SaveRun(context.Background(), sampleRun("r1")); err == nil {
		t.Fatal("expected uninitialized store error")
	}
}
