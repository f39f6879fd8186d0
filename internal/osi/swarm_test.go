package osi

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"osinet/internal/nn"
)

var testBounds = Bounds{MinWeight: -3, MaxWeight: 3, MinVelocity: -2, MaxVelocity: 2}

func newTestNetwork(t *testing.T, layers ...int) *nn.Network {
	t.Helper()
	network, err := nn.NewNetwork(layers, "sigmoid")
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	network.Randomize(newTestRand(), -1, 1)
	return network
}

func TestNewSwarmSeedsWithinBounds(t *testing.T) {
	network := newTestNetwork(t, 4, 3, 2)
	path := Path{1, 2, 0}
	swarm, err := NewSwarm(0, path, network, 6, testBounds, newTestRand())
	if err != nil {
		t.Fatalf("new swarm: %v", err)
	}
	if len(swarm.Particles) != 6 {
		t.Fatalf("expected 6 particles, got %d", len(swarm.Particles))
	}
	if !math.IsInf(swarm.BestScore, 1) {
		t.Fatalf("expected infinite initial best score, got %v", swarm.BestScore)
	}
	if swarm.Best[0] != network.Weight(0, 1, 2) || swarm.Best[1] != network.Weight(1, 2, 0) {
		t.Fatalf("expected swarm best seeded from network weights, got %v", swarm.Best)
	}
	for _, p := range swarm.Particles {
		if len(p.Position) != 2 || len(p.Velocity) != 2 {
			t.Fatalf("expected 2 dimensions, got %d/%d", len(p.Position), len(p.Velocity))
		}
		for d := range p.Position {
			if p.Position[d] < -3 || p.Position[d] > 3 {
				t.Fatalf("position out of bounds: %v", p.Position[d])
			}
			if p.Velocity[d] < -2 || p.Velocity[d] > 2 {
				t.Fatalf("velocity out of bounds: %v", p.Velocity[d])
			}
		}
	}
}

func TestNewSwarmValidation(t *testing.T) {
	network := newTestNetwork(t, 2, 1)
	if _, err := NewSwarm(0, Path{0, 0}, network, 0, testBounds, newTestRand()); err == nil {
		t.Fatal("expected particle count error")
	}
	if _, err := NewSwarm(0, Path{0, 0, 0}, network, 2, testBounds, newTestRand()); err == nil {
		t.Fatal("expected path length error")
	}
	bad := testBounds
	bad.MinWeight = 4
	if _, err := NewSwarm(0, Path{0, 0}, network, 2, bad, newTestRand()); err == nil {
		t.Fatal("expected bounds error")
	}
}

func TestEvaluateTracksBestsWithoutMutatingNetwork(t *testing.T) {
	network := newTestNetwork(t, 2, 1)
	before := network.Clone()
	swarm, err := NewSwarm(0, Path{0, 0}, network, 3, testBounds, newTestRand())
	if err != nil {
		t.Fatalf("new swarm: %v", err)
	}
	x := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})
	y := mat.NewDense(4, 1, []float64{0, 1, 1, 1})

	best := math.Inf(1)
	for p := range swarm.Particles {
		score, err := swarm.Evaluate(network, x, y, p, nn.MeanSquaredError)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if swarm.Particles[p].BestScore != score {
			t.Fatalf("expected personal best %v, got %v", score, swarm.Particles[p].BestScore)
		}
		best = math.Min(best, score)
	}
	if swarm.BestScore != best {
		t.Fatalf("expected swarm best %v, got %v", best, swarm.BestScore)
	}
	if !network.Equal(before) {
		t.Fatal("evaluate mutated the network")
	}
}

func TestUpdateClampsPositionAndVelocity(t *testing.T) {
	network := newTestNetwork(t, 2, 1)
	swarm, err := NewSwarm(0, Path{0, 0}, network, 1, testBounds, newTestRand())
	if err != nil {
		t.Fatalf("new swarm: %v", err)
	}
	particle := swarm.Particles[0]
	particle.Position[0] = 2.9
	particle.Velocity[0] = 2
	particle.BestPosition[0] = 3
	swarm.Best[0] = 3

	rng := newTestRand()
	for i := 0; i < 10; i++ {
		swarm.Update(5, 2, 2, 0, rng)
		if particle.Velocity[0] > 2 || particle.Velocity[0] < -2 {
			t.Fatalf("velocity escaped bounds: %v", particle.Velocity[0])
		}
		if particle.Position[0] > 3 || particle.Position[0] < -3 {
			t.Fatalf("position escaped bounds: %v", particle.Position[0])
		}
	}
	if particle.Position[0] != 3 {
		t.Fatalf("expected position pinned at upper bound, got %v", particle.Position[0])
	}
}
