package nn

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Network is a fully connected feed-forward network. Weights[l] maps layer l
// to layer l+1 and has Layers[l]+1 rows; the last row holds the bias weights.
type Network struct {
	Layers     []int
	Activation string
	Weights    []*mat.Dense
}

func NewNetwork(layers []int, activation string) (*Network, error) {
	if len(layers) < 2 {
		return nil, fmt.Errorf("network needs at least 2 layers, got %d", len(layers))
	}
	for i, size := range layers {
		if size <= 0 {
			return nil, fmt.Errorf("layer %d size must be > 0, got %d", i, size)
		}
	}
	if activation == "" {
		activation = "sigmoid"
	}
	if _, err := GetActivation(activation); err != nil {
		return nil, err
	}

	weights := make([]*mat.Dense, len(layers)-1)
	for l := range weights {
		weights[l] = mat.NewDense(layers[l]+1, layers[l+1], nil)
	}
	return &Network{
		Layers:     append([]int(nil), layers...),
		Activation: activation,
		Weights:    weights,
	}, nil
}

// BiasIndex returns the row index of the bias unit feeding out of layer l.
func (n *Network) BiasIndex(layer int) int {
	return n.Layers[layer]
}

func (n *Network) Weight(layer, row, col int) float64 {
	return n.Weights[layer].At(row, col)
}

func (n *Network) SetWeight(layer, row, col int, value float64) {
	n.Weights[layer].Set(row, col, value)
}

func (n *Network) NumWeights() int {
	total := 0
	for _, w := range n.Weights {
		r, c := w.Dims()
		total += r * c
	}
	return total
}

// Shapes reports the (rows, cols) of every weight matrix, bias rows included.
func (n *Network) Shapes() [][2]int {
	out := make([][2]int, len(n.Weights))
	for i, w := range n.Weights {
		r, c := w.Dims()
		out[i] = [2]int{r, c}
	}
	return out
}

func (n *Network) Clone() *Network {
	weights := make([]*mat.Dense, len(n.Weights))
	for i, w := range n.Weights {
		weights[i] = mat.DenseCopyOf(w)
	}
	return &Network{
		Layers:     append([]int(nil), n.Layers...),
		Activation: n.Activation,
		Weights:    weights,
	}
}

func (n *Network) Equal(other *Network) bool {
	if other == nil || len(n.Weights) != len(other.Weights) || n.Activation != other.Activation {
		return false
	}
	for i := range n.Weights {
		if !mat.Equal(n.Weights[i], other.Weights[i]) {
			return false
		}
	}
	return true
}

// Randomize draws every weight uniformly from [min, max].
func (n *Network) Randomize(rng *rand.Rand, min, max float64) {
	for _, w := range n.Weights {
		r, c := w.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				w.Set(i, j, min+rng.Float64()*(max-min))
			}
		}
	}
}

// Forward propagates the rows of x through the network and returns one output
// row per input row.
func (n *Network) Forward(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if rows == 0 {
		return nil, fmt.Errorf("input has no rows")
	}
	if cols != n.Layers[0] {
		return nil, fmt.Errorf("input width mismatch: got=%d want=%d", cols, n.Layers[0])
	}
	act, err := GetActivation(n.Activation)
	if err != nil {
		return nil, err
	}

	ones := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		ones.Set(i, 0, 1)
	}

	var current mat.Matrix = x
	for _, w := range n.Weights {
		var augmented mat.Dense
		augmented.Augment(current, ones)
		next := new(mat.Dense)
		next.Mul(&augmented, w)
		next.Apply(func(_, _ int, v float64) float64 { return act(v) }, next)
		current = next
	}
	return current.(*mat.Dense), nil
}
