package osi

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// Method chooses which swarms are optimized during an iteration.
type Method int

const (
	MethodAll Method = iota
	MethodRandom
	MethodRoundRobin
	MethodIterative
	MethodWorstFirst
)

var methodNames = map[Method]string{
	MethodAll:        "all",
	MethodRandom:     "random",
	MethodRoundRobin: "round-robin",
	MethodIterative:  "iterative",
	MethodWorstFirst: "worst-first",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMethod resolves a method name. Matching is case-sensitive. MethodAll
// has no name of its own; a negative swarm count selects it.
func ParseMethod(name string) (Method, error) {
	for method, candidate := range methodNames {
		if method != MethodAll && candidate == name {
			return method, nil
		}
	}
	return 0, invalidConfig("unsupported selection method %q", name)
}

// Selector picks swarm indices for one iteration. Iterations count from 1.
type Selector interface {
	Method() Method
	Select(iteration int, scores []float64, rng *rand.Rand) ([]int, error)
}

// NewSelector validates the pairing of method and counts. A negative
// numSwarms selects every swarm regardless of method.
func NewSelector(method Method, numSwarms, numPaths int) (Selector, error) {
	if numPaths <= 0 {
		return nil, invalidConfig("number of paths must be > 0, got %d", numPaths)
	}
	if numSwarms == 0 {
		return nil, invalidConfig("number of swarms must be non-zero")
	}
	if numSwarms < 0 || method == MethodAll {
		return allSelector{numPaths: numPaths}, nil
	}
	switch method {
	case MethodRandom:
		return randomSelector{numSwarms: min(numSwarms, numPaths), numPaths: numPaths}, nil
	case MethodRoundRobin:
		return roundRobinSelector{numSwarms: numSwarms, numPaths: numPaths}, nil
	case MethodIterative:
		return iterativeSelector{numSwarms: numSwarms, numPaths: numPaths}, nil
	case MethodWorstFirst:
		if numSwarms > numPaths {
			return nil, invalidConfig("worst-first selection of %d swarms exceeds %d paths", numSwarms, numPaths)
		}
		return worstFirstSelector{numSwarms: numSwarms, numPaths: numPaths}, nil
	default:
		return nil, invalidConfig("unsupported selection method %d", int(method))
	}
}

type allSelector struct {
	numPaths int
}

func (allSelector) Method() Method { return MethodAll }

func (s allSelector) Select(int, []float64, *rand.Rand) ([]int, error) {
	out := make([]int, s.numPaths)
	for i := range out {
		out[i] = i
	}
	return out, nil
}

type randomSelector struct {
	numSwarms int
	numPaths  int
}

func (randomSelector) Method() Method { return MethodRandom }

// Select draws indices uniformly with replacement, so a swarm may be
// optimized more than once in an iteration.
func (s randomSelector) Select(_ int, _ []float64, rng *rand.Rand) ([]int, error) {
	out := make([]int, s.numSwarms)
	for i := range out {
		out[i] = rng.IntN(s.numPaths)
	}
	return out, nil
}

type roundRobinSelector struct {
	numSwarms int
	numPaths  int
}

func (roundRobinSelector) Method() Method { return MethodRoundRobin }

func (s roundRobinSelector) Select(iteration int, _ []float64, _ *rand.Rand) ([]int, error) {
	out := make([]int, s.numSwarms)
	for i := range out {
		out[i] = (iteration + i) % s.numPaths
	}
	return out, nil
}

// iterativeSelector sweeps consecutive blocks of numSwarms indices.
type iterativeSelector struct {
	numSwarms int
	numPaths  int
}

func (iterativeSelector) Method() Method { return MethodIterative }

func (s iterativeSelector) Select(iteration int, _ []float64, _ *rand.Rand) ([]int, error) {
	start := s.numSwarms * iteration
	out := make([]int, s.numSwarms)
	for i := range out {
		out[i] = (start + i) % s.numPaths
	}
	return out, nil
}

// worstFirstSelector samples without replacement with probability
// proportional to each swarm's last score.
type worstFirstSelector struct {
	numSwarms int
	numPaths  int
}

func (worstFirstSelector) Method() Method { return MethodWorstFirst }

func (s worstFirstSelector) Select(_ int, scores []float64, rng *rand.Rand) ([]int, error) {
	if len(scores) != s.numPaths {
		return nil, invalidConfig("score vector has %d entries, want %d", len(scores), s.numPaths)
	}
	sum := 0.0
	positive := 0
	for i, score := range scores {
		if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
			return nil, degenerate("score %d is %v", i, score)
		}
		if score > 0 {
			positive++
		}
		sum += score
	}
	if sum == 0 {
		return nil, degenerate("scores sum to zero")
	}
	if positive < s.numSwarms {
		return nil, degenerate("%d non-zero scores cannot supply %d swarms", positive, s.numSwarms)
	}

	weights := make([]float64, len(scores))
	for i, score := range scores {
		weights[i] = score / sum
	}
	sampler := sampleuv.NewWeighted(weights, rng)
	out := make([]int, 0, s.numSwarms)
	for len(out) < s.numSwarms {
		idx, ok := sampler.Take()
		if !ok {
			return nil, degenerate("weighted sampler exhausted after %d draws", len(out))
		}
		out = append(out, idx)
	}
	return out, nil
}
