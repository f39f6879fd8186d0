package storage

import (
	"encoding/json"
	"errors"

	"osinet/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned returns the record header for the current codec.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeNetwork(n model.NetworkRecord) ([]byte, error) {
	return json.Marshal(n)
}

func DecodeNetwork(data []byte) (model.NetworkRecord, error) {
	var network model.NetworkRecord
	if err := json.Unmarshal(data, &network); err != nil {
		return model.NetworkRecord{}, err
	}
	if err := checkVersion(network.VersionedRecord); err != nil {
		return model.NetworkRecord{}, err
	}
	return network, nil
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeCrossValidation(r model.CrossValidationRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeCrossValidation(data []byte) (model.CrossValidationRecord, error) {
	var record model.CrossValidationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.CrossValidationRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.CrossValidationRecord{}, err
	}
	return record, nil
}

func EncodeScoreHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeScoreHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeIterationDiagnostics(diagnostics []model.IterationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeIterationDiagnostics(data []byte) ([]model.IterationDiagnostics, error) {
	var diagnostics []model.IterationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
