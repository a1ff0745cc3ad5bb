package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/odecast/internal/dataset"
	"github.com/san-kum/odecast/internal/dynamo"
	"github.com/san-kum/odecast/internal/integrators"
	"github.com/san-kum/odecast/internal/physics"
	"github.com/san-kum/odecast/internal/train"
)

// Registry maps config names to constructors for every pluggable piece
// of the pipeline.
type Registry struct {
	systems     map[string]func() dynamo.System
	integrators map[string]func() dynamo.Integrator
	scalers     map[string]func() dataset.Scaler
	optimizers  map[string]func(lr float64) train.Optimizer
}

func NewRegistry() *Registry {
	r := &Registry{
		systems:     make(map[string]func() dynamo.System),
		integrators: make(map[string]func() dynamo.Integrator),
		scalers:     make(map[string]func() dataset.Scaler),
		optimizers:  make(map[string]func(lr float64) train.Optimizer),
	}

	r.systems["lorenz"] = func() dynamo.System { return physics.NewLorenz() }
	r.systems["rossler"] = func() dynamo.System { return physics.NewRossler() }
	r.systems["vanderpol"] = func() dynamo.System { return physics.NewVanDerPol() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.scalers["minmax"] = func() dataset.Scaler { return dataset.NewMinMax() }
	r.scalers["standard"] = func() dataset.Scaler { return dataset.NewStandard() }

	r.optimizers["sgd"] = func(lr float64) train.Optimizer { return train.NewSGD(lr) }
	r.optimizers["adam"] = func(lr float64) train.Optimizer { return train.NewAdam(lr) }

	return r
}

func (r *Registry) GetSystem(name string) (dynamo.System, error) {
	fn, ok := r.systems[name]
	if !ok {
		return nil, fmt.Errorf("unknown system: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetScaler(name string) (dataset.Scaler, error) {
	fn, ok := r.scalers[name]
	if !ok {
		return nil, fmt.Errorf("unknown scaler: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetOptimizer(name string, lr float64) (train.Optimizer, error) {
	fn, ok := r.optimizers[name]
	if !ok {
		return nil, fmt.Errorf("unknown optimizer: %s", name)
	}
	return fn(lr), nil
}

func (r *Registry) ListSystems() []string     { return sortedKeys(r.systems) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListScalers() []string     { return sortedKeys(r.scalers) }
func (r *Registry) ListOptimizers() []string  { return sortedKeys(r.optimizers) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
