package classifier

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"osinet/internal/dataset"
	"osinet/internal/model"
	"osinet/internal/nn"
	"osinet/internal/osi"
)

var ErrNotFitted = errors.New("classifier is not fitted")

type Config struct {
	Hidden         []int
	Activation     string
	ValidationSize float64
	Verbose        bool
	// Log receives progress lines when Verbose is set.
	Log       io.Writer
	Optimizer osi.Config
}

func DefaultConfig() Config {
	return Config{
		Hidden:         []int{3},
		Activation:     "sigmoid",
		ValidationSize: 0.25,
		Optimizer:      osi.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	for i, size := range c.Hidden {
		if size <= 0 {
			return errors.Wrapf(osi.ErrInvalidConfiguration, "hidden layer %d size must be > 0, got %d", i, size)
		}
	}
	if c.ValidationSize <= 0 || c.ValidationSize >= 1 {
		return errors.Wrapf(osi.ErrInvalidConfiguration, "validation size must be in (0, 1), got %v", c.ValidationSize)
	}
	if c.Verbose && c.Log == nil {
		return errors.Wrap(osi.ErrInvalidConfiguration, "verbose output requires a log writer")
	}
	return c.Optimizer.Validate()
}

// Classifier trains a feed-forward network with overlapping swarms and
// predicts class labels from its outputs.
type Classifier struct {
	cfg     Config
	rng     *rand.Rand
	encoder *dataset.LabelEncoder
	network *nn.Network
	result  osi.Result
}

func New(cfg Config, rng *rand.Rand) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Classifier{cfg: cfg, rng: rng}, nil
}

// Restore rebuilds a fitted classifier from a stored network.
func Restore(record model.NetworkRecord) (*Classifier, error) {
	network, err := nn.FromRecord(record)
	if err != nil {
		return nil, err
	}
	if len(record.Classes) == 0 {
		return nil, errors.Errorf("network %s has no classes", record.ID)
	}
	if want := max(2, len(record.Classes)); network.Layers[len(network.Layers)-1] != want {
		return nil, errors.Errorf("network %s has %d outputs for %d classes", record.ID, network.Layers[len(network.Layers)-1], len(record.Classes))
	}
	return &Classifier{
		cfg:     DefaultConfig(),
		encoder: dataset.NewLabelEncoder(record.Classes),
		network: network,
	}, nil
}

func (c *Classifier) Layers(inputs, outputs int) []int {
	layers := make([]int, 0, len(c.cfg.Hidden)+2)
	layers = append(layers, inputs)
	layers = append(layers, c.cfg.Hidden...)
	return append(layers, outputs)
}

// Fit holds out ValidationSize of the rows for convergence scoring and
// trains on the rest.
func (c *Classifier) Fit(ctx context.Context, x *mat.Dense, labels []string) error {
	rows, cols := x.Dims()
	if rows != len(labels) {
		return errors.Errorf("%d rows but %d labels", rows, len(labels))
	}
	encoder := dataset.FitLabelEncoder(labels)
	network, err := nn.NewNetwork(c.Layers(cols, encoder.NumOutputs()), c.cfg.Activation)
	if err != nil {
		return errors.Wrap(err, "build network")
	}
	bounds := c.cfg.Optimizer.Bounds
	network.Randomize(c.rng, bounds.MinWeight, bounds.MaxWeight)

	split, err := dataset.TrainTestSplit(rows, c.cfg.ValidationSize, c.rng)
	if err != nil {
		return errors.Wrap(err, "validation split")
	}
	data := osi.Data{TrainX: dataset.Rows(x, split.Train), ValidX: dataset.Rows(x, split.Test)}
	if data.TrainY, err = encoder.Binarize(dataset.Pick(labels, split.Train)); err != nil {
		return err
	}
	if data.ValidY, err = encoder.Binarize(dataset.Pick(labels, split.Test)); err != nil {
		return err
	}

	optimizer := c.cfg.Optimizer
	if c.cfg.Verbose {
		paths, err := osi.BuildPaths(network.Layers)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.cfg.Log, "fitting network=%s paths=%d slots=%d\n",
			formatLayers(network.Layers), len(paths), osi.NewRegistry(paths).NumSlots())
		next := optimizer.Trace
		optimizer.Trace = func(ev osi.TraceEvent) {
			fmt.Fprintf(c.cfg.Log, "iteration=%d score=%.6f best=%.6f slope=%.6g evaluations=%d\n",
				ev.Iteration, ev.Score, ev.BestScore, ev.Slope, ev.Evaluations)
			if next != nil {
				next(ev)
			}
		}
	}

	trainer, err := osi.NewTrainer(optimizer, c.rng)
	if err != nil {
		return err
	}
	result, err := trainer.Fit(ctx, network, data)
	if err != nil {
		return err
	}
	c.encoder = encoder
	c.network = result.Network
	c.result = result
	return nil
}

func formatLayers(layers []int) string {
	parts := make([]string, len(layers))
	for i, size := range layers {
		parts[i] = strconv.Itoa(size)
	}
	return strings.Join(parts, "-")
}

// PredictProba returns the raw network outputs, one column per class.
func (c *Classifier) PredictProba(x *mat.Dense) (*mat.Dense, error) {
	if c.network == nil {
		return nil, ErrNotFitted
	}
	return c.network.Forward(x)
}

// Predict returns the class with the highest output for every row.
func (c *Classifier) Predict(x *mat.Dense) ([]string, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	out := make([]string, rows)
	for i := range out {
		idx := argmax(proba.RawRowView(i))
		label, err := c.encoder.Decode(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		out[i] = label
	}
	return out, nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func (c *Classifier) Classes() []string {
	if c.encoder == nil {
		return nil
	}
	return c.encoder.Classes()
}

func (c *Classifier) Network() *nn.Network { return c.network }

func (c *Classifier) Result() osi.Result { return c.result }

func (c *Classifier) NumEvaluations() int { return c.result.Evaluations }

func (c *Classifier) NumIterations() int { return c.result.Iterations }

// Record snapshots the fitted network for storage.
func (c *Classifier) Record(id string) (model.NetworkRecord, error) {
	if c.network == nil {
		return model.NetworkRecord{}, ErrNotFitted
	}
	return c.network.ToRecord(id, c.encoder.Classes()), nil
}
