package main

import (
	"encoding/json"
	"fmt"
	"os"

	osinet "osinet/pkg/osinet"
)

// loadTrainRequestFromConfig reads a train config. The keys match a run's
// config.json, so a finished run can be replayed.
func loadTrainRequestFromConfig(path string) (osinet.TrainRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return osinet.TrainRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return osinet.TrainRequest{}, err
	}

	var req osinet.TrainRequest
	if v, ok := asString(raw["dataset"]); ok {
		req.Dataset = v
	}
	if v, ok := asString(raw["csv_path"]); ok {
		req.CSVPath = v
	}
	if v, ok := asInt(raw["label_column"]); ok {
		req.LabelColumn = v
	}
	if v, ok := asBool(raw["header"]); ok {
		req.Header = v
	}
	if v, ok := raw["hidden"]; ok {
		hidden, err := asIntSlice(v)
		if err != nil {
			return osinet.TrainRequest{}, fmt.Errorf("hidden: %w", err)
		}
		req.Hidden = hidden
	}
	if v, ok := asString(raw["activation"]); ok {
		req.Activation = v
	}
	if v, ok := asInt(raw["num_particles"]); ok {
		req.NumParticles = v
	}
	if v, ok := asInt(raw["num_swarms"]); ok {
		req.NumSwarms = v
	}
	if v, ok := asString(raw["method"]); ok {
		req.Method = v
	}
	if v, ok := asInt(raw["window"]); ok {
		req.Window = v
	}
	if v, ok := asFloat64(raw["w"]); ok {
		req.Inertia = v
	}
	if v, ok := asFloat64(raw["c1"]); ok {
		req.Cognitive = v
	}
	if v, ok := asFloat64(raw["c2"]); ok {
		req.Social = v
	}
	if v, ok := asFloat64(raw["min_weight"]); ok {
		req.MinWeight = v
	}
	if v, ok := asFloat64(raw["max_weight"]); ok {
		req.MaxWeight = v
	}
	if v, ok := asFloat64(raw["min_v"]); ok {
		req.MinVelocity = v
	}
	if v, ok := asFloat64(raw["max_v"]); ok {
		req.MaxVelocity = v
	}
	if v, ok := asInt(raw["max_iterations"]); ok {
		req.MaxIterations = v
	}
	if v, ok := asFloat64(raw["validation_size"]); ok {
		req.ValidationSize = v
	}
	if v, ok := asFloat64(raw["test_size"]); ok {
		req.TestSize = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// asIntSlice accepts a single size or a list of sizes.
func asIntSlice(v any) ([]int, error) {
	if n, ok := asInt(v); ok {
		return []int{n}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected number or list, got %T", v)
	}
	out := make([]int, 0, len(items))
	for i, item := range items {
		n, ok := asInt(item)
		if !ok {
			return nil, fmt.Errorf("element %d: expected number, got %T", i, item)
		}
		out = append(out, n)
	}
	return out, nil
}

func overrideFromFlags(req *osinet.TrainRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "dataset":
			req.Dataset = v.(string)
		case "csv":
			req.CSVPath = v.(string)
		case "label-column":
			req.LabelColumn = v.(int)
		case "header":
			req.Header = v.(bool)
		case "hidden":
			hidden, err := parseInts(v.(string))
			if err != nil {
				return fmt.Errorf("hidden: %w", err)
			}
			req.Hidden = hidden
		case "activation":
			req.Activation = v.(string)
		case "particles":
			req.NumParticles = v.(int)
		case "swarms":
			req.NumSwarms = v.(int)
		case "method":
			req.Method = v.(string)
		case "window":
			req.Window = v.(int)
		case "w":
			req.Inertia = v.(float64)
		case "c1":
			req.Cognitive = v.(float64)
		case "c2":
			req.Social = v.(float64)
		case "min-weight":
			req.MinWeight = v.(float64)
		case "max-weight":
			req.MaxWeight = v.(float64)
		case "min-v":
			req.MinVelocity = v.(float64)
		case "max-v":
			req.MaxVelocity = v.(float64)
		case "max-iterations":
			req.MaxIterations = v.(int)
		case "validation-size":
			req.ValidationSize = v.(float64)
		case "test-size":
			req.TestSize = v.(float64)
		case "seed":
			req.Seed = v.(int64)
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}

func loadOrDefaultTrainRequest(configPath string) (osinet.TrainRequest, error) {
	if configPath == "" {
		return osinet.TrainRequest{}, nil
	}
	req, err := loadTrainRequestFromConfig(configPath)
	if err != nil {
		return osinet.TrainRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}
