package osi

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"osinet/internal/nn"
)

// Bounds clamp particle positions and velocities.
type Bounds struct {
	MinWeight   float64
	MaxWeight   float64
	MinVelocity float64
	MaxVelocity float64
}

func (b Bounds) validate() error {
	if b.MinWeight > b.MaxWeight {
		return invalidConfig("min weight %v exceeds max weight %v", b.MinWeight, b.MaxWeight)
	}
	if b.MinVelocity > b.MaxVelocity {
		return invalidConfig("min velocity %v exceeds max velocity %v", b.MinVelocity, b.MaxVelocity)
	}
	return nil
}

type Particle struct {
	Position     []float64
	Velocity     []float64
	BestPosition []float64
	BestScore    float64
}

// Swarm optimizes the weights along a single path. Each particle holds one
// candidate value per link of the path.
type Swarm struct {
	Index     int
	Path      Path
	Particles []*Particle
	Best      []float64
	BestScore float64

	links  []Link
	bounds Bounds
	stamp  uint64
}

// NewSwarm seeds particles uniformly inside bounds. The swarm best starts at
// the network's current weights along the path with an infinite score.
func NewSwarm(index int, path Path, network *nn.Network, numParticles int, bounds Bounds, rng *rand.Rand) (*Swarm, error) {
	if numParticles <= 0 {
		return nil, invalidConfig("number of particles must be > 0, got %d", numParticles)
	}
	if err := bounds.validate(); err != nil {
		return nil, err
	}
	if len(path) != len(network.Layers) {
		return nil, invalidConfig("path %v does not match %d layers", path, len(network.Layers))
	}

	links := path.Links()
	best := make([]float64, len(links))
	for i, link := range links {
		best[i] = network.Weight(link.Layer, link.Row, link.Col)
	}

	s := &Swarm{
		Index:     index,
		Path:      path,
		Particles: make([]*Particle, numParticles),
		Best:      best,
		BestScore: math.Inf(1),
		links:     links,
		bounds:    bounds,
	}
	for p := range s.Particles {
		particle := &Particle{
			Position:  uniform(rng, len(links), bounds.MinWeight, bounds.MaxWeight),
			Velocity:  uniform(rng, len(links), bounds.MinVelocity, bounds.MaxVelocity),
			BestScore: math.Inf(1),
		}
		particle.BestPosition = append([]float64(nil), particle.Position...)
		s.Particles[p] = particle
	}
	return s, nil
}

func uniform(rng *rand.Rand, n int, min, max float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = min + rng.Float64()*(max-min)
	}
	return out
}

func (s *Swarm) Links() []Link {
	return append([]Link(nil), s.links...)
}

// Stamp orders swarm bests during reconstruction; the most recently
// evaluated swarm is written last.
func (s *Swarm) Stamp() uint64 { return s.stamp }

func (s *Swarm) Touch(stamp uint64) { s.stamp = stamp }

// Candidate returns a copy of network with the path weights replaced by
// position.
func (s *Swarm) Candidate(network *nn.Network, position []float64) *nn.Network {
	candidate := network.Clone()
	s.apply(candidate, position)
	return candidate
}

func (s *Swarm) apply(network *nn.Network, position []float64) {
	for i, link := range s.links {
		network.SetWeight(link.Layer, link.Row, link.Col, position[i])
	}
}

// Evaluate scores particle p against (x, y) and records personal and swarm
// bests. network is not modified.
func (s *Swarm) Evaluate(network *nn.Network, x, y *mat.Dense, p int, cost nn.CostFunc) (float64, error) {
	particle := s.Particles[p]
	out, err := s.Candidate(network, particle.Position).Forward(x)
	if err != nil {
		return 0, err
	}
	score, err := cost(y, out)
	if err != nil {
		return 0, err
	}
	if score < particle.BestScore {
		particle.BestScore = score
		copy(particle.BestPosition, particle.Position)
	}
	if score < s.BestScore {
		s.BestScore = score
		copy(s.Best, particle.Position)
	}
	return score, nil
}

// Update moves particle p with the canonical inertia-weighted PSO rule.
// Cognitive and social coefficients draw fresh uniforms per dimension.
func (s *Swarm) Update(inertia, c1, c2 float64, p int, rng *rand.Rand) {
	particle := s.Particles[p]
	for d := range particle.Position {
		r1 := rng.Float64()
		r2 := rng.Float64()
		v := inertia*particle.Velocity[d] +
			c1*r1*(particle.BestPosition[d]-particle.Position[d]) +
			c2*r2*(s.Best[d]-particle.Position[d])
		v = nn.Clamp(v, s.bounds.MinVelocity, s.bounds.MaxVelocity)
		particle.Velocity[d] = v
		particle.Position[d] = nn.Clamp(particle.Position[d]+v, s.bounds.MinWeight, s.bounds.MaxWeight)
	}
}
