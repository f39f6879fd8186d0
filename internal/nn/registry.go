package nn

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrActivationExists   = errors.New("activation already registered")
	ErrActivationNotFound = errors.New("activation not found")
	ErrCostExists         = errors.New("cost already registered")
	ErrCostNotFound       = errors.New("cost not found")
)

type ActivationFunc func(x float64) float64

// CostFunc scores predictions against targets; lower is better.
type CostFunc func(yTrue, yPred *mat.Dense) (float64, error)

type namedRegistry[T any] struct {
	mu        sync.RWMutex
	m         map[string]T
	errExists error
	errAbsent error
}

func newNamedRegistry[T any](errExists, errAbsent error) *namedRegistry[T] {
	return &namedRegistry[T]{m: make(map[string]T), errExists: errExists, errAbsent: errAbsent}
}

func (r *namedRegistry[T]) register(name string, fn T, isNil bool) error {
	if name == "" {
		return errors.New("name is required")
	}
	if isNil {
		return errors.New("function is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s", r.errExists, name)
	}
	r.m[name] = fn
	return nil
}

func (r *namedRegistry[T]) get(name string) (T, error) {
	r.mu.RLock()
	fn, ok := r.m[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", r.errAbsent, name)
	}
	return fn, nil
}

func (r *namedRegistry[T]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	activationRegistry = newNamedRegistry[ActivationFunc](ErrActivationExists, ErrActivationNotFound)
	costRegistry       = newNamedRegistry[CostFunc](ErrCostExists, ErrCostNotFound)
)

func init() {
	initializeBuiltIns()
}

func initializeBuiltIns() {
	MustRegisterActivation("identity", func(x float64) float64 { return x })
	MustRegisterActivation("relu", func(x float64) float64 {
		if x < 0 {
			return 0
		}
		return x
	})
	MustRegisterActivation("tanh", math.Tanh)
	MustRegisterActivation("sigmoid", func(x float64) float64 {
		return 1.0 / (1.0 + math.Exp(-x))
	})

	MustRegisterCost("mse", MeanSquaredError)
}

func RegisterActivation(name string, fn ActivationFunc) error {
	return activationRegistry.register(name, fn, fn == nil)
}

func MustRegisterActivation(name string, fn ActivationFunc) {
	if err := RegisterActivation(name, fn); err != nil {
		panic(err)
	}
}

func GetActivation(name string) (ActivationFunc, error) {
	return activationRegistry.get(name)
}

func ListActivations() []string {
	return activationRegistry.names()
}

func RegisterCost(name string, fn CostFunc) error {
	return costRegistry.register(name, fn, fn == nil)
}

func MustRegisterCost(name string, fn CostFunc) {
	if err := RegisterCost(name, fn); err != nil {
		panic(err)
	}
}

func GetCost(name string) (CostFunc, error) {
	return costRegistry.get(name)
}

func ListCosts() []string {
	return costRegistry.names()
}

func resetRegistriesForTests() {
	activationRegistry.mu.Lock()
	activationRegistry.m = make(map[string]ActivationFunc)
	activationRegistry.mu.Unlock()
	costRegistry.mu.Lock()
	costRegistry.m = make(map[string]CostFunc)
	costRegistry.mu.Unlock()
	initializeBuiltIns()
}
