package classifier

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"osinet/internal/nn"
)

// Metrics summarises a fitted classifier on held-out rows.
type Metrics struct {
	MSE      float64 `json:"mse"`
	Accuracy float64 `json:"accuracy"`
}

func Accuracy(want, got []string) (float64, error) {
	if len(want) != len(got) {
		return 0, errors.Errorf("label count mismatch: %d vs %d", len(want), len(got))
	}
	if len(want) == 0 {
		return 0, errors.New("cannot score zero labels")
	}
	hits := 0
	for i := range want {
		if want[i] == got[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(want)), nil
}

// Evaluate scores predictions on x against labels. MSE is measured against
// the one-hot encoding of labels.
func (c *Classifier) Evaluate(x *mat.Dense, labels []string) (Metrics, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return Metrics{}, err
	}
	target, err := c.encoder.Binarize(labels)
	if err != nil {
		return Metrics{}, err
	}
	mse, err := nn.MeanSquaredError(target, proba)
	if err != nil {
		return Metrics{}, err
	}
	predicted, err := c.Predict(x)
	if err != nil {
		return Metrics{}, err
	}
	acc, err := Accuracy(labels, predicted)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{MSE: mse, Accuracy: acc}, nil
}
