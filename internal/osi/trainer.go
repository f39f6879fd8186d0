package osi

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"osinet/internal/nn"
)

const (
	StopConverged     = "converged"
	StopThreshold     = "score_threshold"
	StopMaxIterations = "max_iterations"
)

// Config holds the optimizer hyperparameters.
type Config struct {
	NumParticles int
	// NumSwarms is the number of swarms optimized per iteration; negative
	// means every swarm.
	NumSwarms int
	Method    string
	Window    int
	Inertia   float64
	Cognitive float64
	Social    float64
	Bounds    Bounds
	// ScoreThreshold stops training once the validation score falls below it.
	ScoreThreshold float64
	// MaxIterations bounds the outer loop. Zero disables the bound.
	MaxIterations int
	Cost          string
	Trace         func(TraceEvent)
}

func DefaultConfig() Config {
	return Config{
		NumParticles: 20,
		NumSwarms:    5,
		Method:       MethodRandom.String(),
		Window:       10,
		Inertia:      0.729,
		Cognitive:    1.49445,
		Social:       1.49445,
		Bounds: Bounds{
			MinWeight:   -3,
			MaxWeight:   3,
			MinVelocity: -2,
			MaxVelocity: 2,
		},
		ScoreThreshold: DefaultScoreThreshold,
		MaxIterations:  5000,
		Cost:           "mse",
	}
}

func (c Config) Validate() error {
	if _, err := ParseMethod(c.Method); err != nil {
		return err
	}
	if c.NumParticles <= 0 {
		return invalidConfig("number of particles must be > 0, got %d", c.NumParticles)
	}
	if c.NumSwarms == 0 {
		return invalidConfig("number of swarms must be non-zero")
	}
	if c.Window < 2 {
		return invalidConfig("window must be >= 2, got %d", c.Window)
	}
	if c.MaxIterations < 0 {
		return invalidConfig("max iterations must be >= 0, got %d", c.MaxIterations)
	}
	if _, err := nn.GetCost(c.Cost); err != nil {
		return invalidConfig("cost %q: %v", c.Cost, err)
	}
	return c.Bounds.validate()
}

// TraceEvent describes one completed outer iteration.
type TraceEvent struct {
	Iteration   int
	Selected    []int
	Score       float64
	BestScore   float64
	Slope       float64
	Evaluations int
	// Network is the network at the end of the iteration. It is shared with
	// the trainer's history and must not be modified.
	Network *nn.Network
}

// Data bundles the training and validation partitions. Y is one-hot encoded.
type Data struct {
	TrainX *mat.Dense
	TrainY *mat.Dense
	ValidX *mat.Dense
	ValidY *mat.Dense
}

func (d Data) validate(network *nn.Network) error {
	if d.TrainX == nil || d.TrainY == nil || d.ValidX == nil || d.ValidY == nil {
		return invalidConfig("training and validation data are required")
	}
	inputs := network.Layers[0]
	outputs := network.Layers[len(network.Layers)-1]
	partitions := []struct {
		name string
		x, y *mat.Dense
	}{
		{"train", d.TrainX, d.TrainY},
		{"validation", d.ValidX, d.ValidY},
	}
	for _, p := range partitions {
		xr, xc := p.x.Dims()
		yr, yc := p.y.Dims()
		if xr != yr {
			return invalidConfig("%s data has %d input rows but %d target rows", p.name, xr, yr)
		}
		if xc != inputs {
			return invalidConfig("%s data has %d features, network expects %d", p.name, xc, inputs)
		}
		if yc != outputs {
			return invalidConfig("%s targets have %d columns, network emits %d", p.name, yc, outputs)
		}
	}
	return nil
}

type Result struct {
	Network      *nn.Network
	Iterations   int
	Evaluations  int
	NumPaths     int
	BestScore    float64
	FinalScore   float64
	Converged    bool
	StopReason   string
	ScoreHistory []float64
}

// Trainer runs the overlapping swarm optimization loop.
type Trainer struct {
	cfg    Config
	method Method
	cost   nn.CostFunc
	rng    *rand.Rand

	iterations  int
	evaluations int
}

func NewTrainer(cfg Config, rng *rand.Rand) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	method, err := ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}
	cost, err := nn.GetCost(cfg.Cost)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Trainer{cfg: cfg, method: method, cost: cost, rng: rng}, nil
}

func (t *Trainer) Config() Config { return t.cfg }

func (t *Trainer) NumIterations() int { return t.iterations }

func (t *Trainer) NumEvaluations() int { return t.evaluations }

// iterationState is the value carried between outer iterations.
type iterationState struct {
	iteration   int
	network     *nn.Network
	score       float64
	bestScore   float64
	evaluations int
}

type run struct {
	data     Data
	swarms   []*Swarm
	selector Selector
	scores   []float64
	monitor  *Monitor
	history  *Ring[*nn.Network]
	clock    uint64
}

// Fit optimizes initial against data and returns the network recorded window
// iterations before training stopped. initial is not modified.
func (t *Trainer) Fit(ctx context.Context, initial *nn.Network, data Data) (Result, error) {
	t.iterations, t.evaluations = 0, 0
	r, err := t.newRun(initial, data)
	if err != nil {
		return Result{}, err
	}

	state := iterationState{network: initial, score: math.Inf(1), bestScore: math.Inf(1)}
	result := Result{NumPaths: len(r.swarms)}
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		next, selected, swarmScores, err := t.step(state, r)
		if err != nil {
			return Result{}, err
		}
		state = next
		t.iterations, t.evaluations = state.iteration, state.evaluations

		stop, slope := r.record(state, selected, swarmScores)
		if t.cfg.Trace != nil {
			t.cfg.Trace(TraceEvent{
				Iteration:   state.iteration,
				Selected:    selected,
				Score:       state.score,
				BestScore:   state.bestScore,
				Slope:       slope,
				Evaluations: state.evaluations,
				Network:     state.network,
			})
		}

		if stop {
			result.Converged = true
			result.StopReason = StopConverged
			if state.score < t.cfg.ScoreThreshold {
				result.StopReason = StopThreshold
			}
			break
		}
		if t.cfg.MaxIterations > 0 && state.iteration >= t.cfg.MaxIterations {
			result.StopReason = StopMaxIterations
			break
		}
	}

	oldest, _ := r.history.Oldest()
	result.Network = oldest.Clone()
	result.Iterations = state.iteration
	result.Evaluations = state.evaluations
	result.BestScore = state.bestScore
	result.FinalScore = state.score
	result.ScoreHistory = r.monitor.Scores()
	return result, nil
}

// newRun validates data against initial and seeds the swarms, the score
// vector and both bounded buffers. Nothing is evaluated.
func (t *Trainer) newRun(initial *nn.Network, data Data) (*run, error) {
	if initial == nil {
		return nil, invalidConfig("network is required")
	}
	if err := data.validate(initial); err != nil {
		return nil, err
	}
	paths, err := BuildPaths(initial.Layers)
	if err != nil {
		return nil, errors.Wrap(err, "build paths")
	}
	selector, err := NewSelector(t.method, t.cfg.NumSwarms, len(paths))
	if err != nil {
		return nil, err
	}
	monitor, err := NewMonitor(t.cfg.Window, t.cfg.ScoreThreshold)
	if err != nil {
		return nil, err
	}

	r := &run{
		data:     data,
		swarms:   make([]*Swarm, len(paths)),
		selector: selector,
		scores:   make([]float64, len(paths)),
		monitor:  monitor,
		history:  NewRing[*nn.Network](t.cfg.Window),
	}
	for i, p := range paths {
		r.swarms[i], err = NewSwarm(i, p, initial, t.cfg.NumParticles, t.cfg.Bounds, t.rng)
		if err != nil {
			return nil, err
		}
	}
	for i := range r.scores {
		r.scores[i] = 1
	}
	for i := 0; i < t.cfg.Window; i++ {
		r.history.Push(initial)
	}
	return r, nil
}

// record stores each selected swarm's own last score, appends the iteration
// to the trend window and network history, and reports the convergence test.
func (r *run) record(state iterationState, selected []int, swarmScores []float64) (bool, float64) {
	for i, s := range selected {
		r.scores[s] = swarmScores[i]
	}
	r.history.Push(state.network)
	return r.monitor.Observe(state.score)
}

// step runs one outer iteration: every particle of every selected swarm is
// evaluated, folded back into the network and moved. swarmScores[i] is the
// validation score after the last particle of selected[i].
func (t *Trainer) step(state iterationState, r *run) (iterationState, []int, []float64, error) {
	next := state
	next.iteration++
	selected, err := r.selector.Select(next.iteration, r.scores, t.rng)
	if err != nil {
		return state, nil, nil, err
	}
	swarmScores := make([]float64, len(selected))
	for i, s := range selected {
		sw := r.swarms[s]
		for p := range sw.Particles {
			if _, err := sw.Evaluate(next.network, r.data.TrainX, r.data.TrainY, p, t.cost); err != nil {
				return state, nil, nil, errors.Wrapf(err, "evaluate swarm %d particle %d", s, p)
			}
			r.clock++
			sw.Touch(r.clock)

			candidate := Reconstruct(next.network, r.swarms)
			sw.Update(t.cfg.Inertia, t.cfg.Cognitive, t.cfg.Social, p, t.rng)

			out, err := candidate.Forward(r.data.ValidX)
			if err != nil {
				return state, nil, nil, errors.Wrap(err, "forward validation")
			}
			score, err := t.cost(r.data.ValidY, out)
			if err != nil {
				return state, nil, nil, errors.Wrap(err, "score validation")
			}
			if score < next.bestScore {
				next.bestScore = score
			}
			next.score = score
			next.evaluations++
			next.network = candidate
			swarmScores[i] = score
		}
	}
	return next, selected, swarmScores, nil
}
