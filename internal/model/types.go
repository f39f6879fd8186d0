package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NetworkRecord is the persisted form of a trained network. Weights holds one
// row-major matrix per layer transition, bias row last.
type NetworkRecord struct {
	VersionedRecord
	ID         string        `json:"id"`
	Layers     []int         `json:"layers"`
	Activation string        `json:"activation"`
	Classes    []string      `json:"classes,omitempty"`
	Weights    [][][]float64 `json:"weights"`
}

type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id"`
	Dataset      string  `json:"dataset"`
	NetworkID    string  `json:"network_id"`
	Method       string  `json:"method"`
	NumSwarms    int     `json:"num_swarms"`
	NumParticles int     `json:"num_particles"`
	NumPaths     int     `json:"num_paths"`
	Window       int     `json:"window"`
	Seed         int64   `json:"seed"`
	Iterations   int     `json:"iterations"`
	Evaluations  int     `json:"evaluations"`
	BestScore    float64 `json:"best_score"`
	FinalScore   float64 `json:"final_score"`
	Converged    bool    `json:"converged"`
	StopReason   string  `json:"stop_reason"`
	TestMSE      float64 `json:"test_mse"`
	TestAccuracy float64 `json:"test_accuracy"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// IterationDiagnostics records one outer training iteration.
type IterationDiagnostics struct {
	Iteration   int     `json:"iteration"`
	Selected    []int   `json:"selected"`
	Score       float64 `json:"score"`
	BestScore   float64 `json:"best_score"`
	Slope       float64 `json:"slope"`
	Evaluations int     `json:"evaluations"`
}

// CrossValidationRecord aggregates one grid point of a repeated 2-fold
// cross-validation.
type CrossValidationRecord struct {
	VersionedRecord
	ID              string    `json:"id"`
	Dataset         string    `json:"dataset"`
	Method          string    `json:"method"`
	NumSwarms       int       `json:"num_swarms"`
	Window          int       `json:"window"`
	NumParticles    int       `json:"num_particles"`
	MeanMSE         float64   `json:"mean_mse"`
	StdMSE          float64   `json:"std_mse"`
	MeanAccuracy    float64   `json:"mean_accuracy"`
	StdAccuracy     float64   `json:"std_accuracy"`
	MeanEvaluations float64   `json:"mean_evaluations"`
	MSEs            []float64 `json:"mses"`
	Accuracies      []float64 `json:"accuracies"`
	Evaluations     []int     `json:"evaluations"`
	CreatedAtUTC    string    `json:"created_at_utc"`
}
