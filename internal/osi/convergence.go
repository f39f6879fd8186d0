package osi

import (
	"gonum.org/v1/gonum/stat"
)

const DefaultScoreThreshold = 1e-3

// Monitor tracks the validation score trend. Training is considered
// converged once the least-squares slope over the last window scores is no
// longer negative, or the latest score drops below the threshold.
type Monitor struct {
	window    int
	threshold float64
	scores    *Ring[float64]
	xs        []float64
}

func NewMonitor(window int, threshold float64) (*Monitor, error) {
	if window < 2 {
		return nil, invalidConfig("convergence window must be >= 2, got %d", window)
	}
	m := &Monitor{
		window:    window,
		threshold: threshold,
		scores:    NewRing[float64](5 * window),
		xs:        make([]float64, window),
	}
	for i := range m.xs {
		m.xs[i] = float64(i)
	}
	// Synthetic decreasing prefix keeps the first window iterations from
	// stopping on a flat trend.
	for i := 0; i < window; i++ {
		m.scores.Push(1e3 - float64(i)*1e3/float64(window))
	}
	return m, nil
}

// Observe appends score and reports whether training should stop, along with
// the slope it was judged on.
func (m *Monitor) Observe(score float64) (bool, float64) {
	m.scores.Push(score)
	slope := m.Slope()
	return slope >= 0 || score < m.threshold, slope
}

func (m *Monitor) Slope() float64 {
	return Slope(m.xs, m.scores.Tail(m.window))
}

func (m *Monitor) Scores() []float64 {
	return m.scores.Slice()
}

// Slope fits ys against xs by ordinary least squares and returns beta.
func Slope(xs, ys []float64) float64 {
	_, beta := stat.LinearRegression(xs[:len(ys)], ys, nil, false)
	return beta
}
