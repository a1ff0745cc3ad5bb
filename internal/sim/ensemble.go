package sim

import (
	"context"
	"sync"

	"github.com/san-kum/odecast/internal/dynamo"
)

// Ensemble runs the same system from several initial conditions in
// parallel, one simulator per run. Useful for generating training sets
// that cover more of the attractor than a single trajectory.
type Ensemble struct {
	dyn        dynamo.System
	integrator func() dynamo.Integrator
	seedStart  int64
}

func NewEnsemble(dyn dynamo.System, integrator func() dynamo.Integrator, seedStart int64) *Ensemble {
	return &Ensemble{dyn: dyn, integrator: integrator, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, inits []dynamo.State, cfg dynamo.Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(inits))
	errs := make([]error, len(inits))

	var wg sync.WaitGroup
	for i := range inits {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			s := New(e.dyn, e.integrator())
			results[idx], errs[idx] = s.Run(ctx, inits[idx], cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
