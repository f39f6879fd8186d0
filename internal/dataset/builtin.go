package dataset

import (
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

type generator func(rng *rand.Rand) (*Dataset, error)

var builtins = map[string]generator{
	"xor":     xorData,
	"parity4": parity4Data,
	"blobs":   blobsData,
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin generates a named synthetic dataset. Generation is deterministic
// for a given rng state.
func Builtin(name string, rng *rand.Rand) (*Dataset, error) {
	gen, ok := builtins[name]
	if !ok {
		return nil, errors.Errorf("unknown dataset %q", name)
	}
	return gen(rng)
}

// xorData jitters the four XOR corners, ten copies each.
func xorData(rng *rand.Rand) (*Dataset, error) {
	const copies = 10
	noise := distuv.Normal{Mu: 0, Sigma: 0.05, Src: rng}
	features := mat.NewDense(4*copies, 2, nil)
	labels := make([]string, 4*copies)
	row := 0
	for c := 0; c < copies; c++ {
		for corner := 0; corner < 4; corner++ {
			a, b := corner>>1, corner&1
			features.Set(row, 0, float64(a)+noise.Rand())
			features.Set(row, 1, float64(b)+noise.Rand())
			labels[row] = strconv.Itoa(a ^ b)
			row++
		}
	}
	return New("xor", features, labels)
}

// parity4Data enumerates every 4-bit vector labelled by its parity.
func parity4Data(*rand.Rand) (*Dataset, error) {
	features := mat.NewDense(16, 4, nil)
	labels := make([]string, 16)
	for v := 0; v < 16; v++ {
		parity := 0
		for bit := 0; bit < 4; bit++ {
			b := (v >> (3 - bit)) & 1
			features.Set(v, bit, float64(b))
			parity ^= b
		}
		labels[v] = strconv.Itoa(parity)
	}
	return New("parity4", features, labels)
}

// blobsData draws three gaussian clusters of fifty 4-feature rows.
func blobsData(rng *rand.Rand) (*Dataset, error) {
	const perClass = 50
	centers := [][]float64{
		{5.0, 3.4, 1.5, 0.2},
		{5.9, 2.8, 4.3, 1.3},
		{6.6, 3.0, 5.6, 2.0},
	}
	spread := []float64{0.35, 0.3, 0.45, 0.2}
	features := mat.NewDense(len(centers)*perClass, len(spread), nil)
	labels := make([]string, len(centers)*perClass)
	row := 0
	for class, center := range centers {
		for i := 0; i < perClass; i++ {
			for j, mu := range center {
				d := distuv.Normal{Mu: mu, Sigma: spread[j], Src: rng}
				features.Set(row, j, d.Rand())
			}
			labels[row] = strconv.Itoa(class)
			row++
		}
	}
	return New("blobs", features, labels)
}
