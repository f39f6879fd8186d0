package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"osinet/internal/model"
)

// ToRecord snapshots the network weights into a persistable record.
func (n *Network) ToRecord(id string, classes []string) model.NetworkRecord {
	weights := make([][][]float64, len(n.Weights))
	for l, w := range n.Weights {
		r, _ := w.Dims()
		rows := make([][]float64, r)
		for i := 0; i < r; i++ {
			rows[i] = mat.Row(nil, i, w)
		}
		weights[l] = rows
	}
	return model.NetworkRecord{
		ID:         id,
		Layers:     append([]int(nil), n.Layers...),
		Activation: n.Activation,
		Classes:    append([]string(nil), classes...),
		Weights:    weights,
	}
}

func FromRecord(record model.NetworkRecord) (*Network, error) {
	network, err := NewNetwork(record.Layers, record.Activation)
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", record.ID, err)
	}
	if len(record.Weights) != len(network.Weights) {
		return nil, fmt.Errorf("network %s: weight layer count mismatch: got=%d want=%d", record.ID, len(record.Weights), len(network.Weights))
	}
	for l, rows := range record.Weights {
		r, c := network.Weights[l].Dims()
		if len(rows) != r {
			return nil, fmt.Errorf("network %s: layer %d row count mismatch: got=%d want=%d", record.ID, l, len(rows), r)
		}
		for i, row := range rows {
			if len(row) != c {
				return nil, fmt.Errorf("network %s: layer %d row %d width mismatch: got=%d want=%d", record.ID, l, i, len(row), c)
			}
			network.Weights[l].SetRow(i, row)
		}
	}
	return network, nil
}
