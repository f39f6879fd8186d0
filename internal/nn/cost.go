package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MeanSquaredError averages the squared error over every output cell.
func MeanSquaredError(yTrue, yPred *mat.Dense) (float64, error) {
	tr, tc := yTrue.Dims()
	pr, pc := yPred.Dims()
	if tr != pr || tc != pc {
		return 0, fmt.Errorf("shape mismatch: true=%dx%d pred=%dx%d", tr, tc, pr, pc)
	}
	if tr == 0 || tc == 0 {
		return 0, fmt.Errorf("cannot score empty predictions")
	}
	var diff mat.Dense
	diff.Sub(yTrue, yPred)
	norm := mat.Norm(&diff, 2)
	return norm * norm / float64(tr*tc), nil
}

// Clamp bounds value to [min, max].
func Clamp(value, min, max float64) float64 {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}
