package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/odecast/internal/dynamo"
)

// Simulator advances a dynamo.System under an Integrator and records the
// sampled trajectory. Observation noise, when configured, is applied to
// the recorded samples only; the underlying dynamics stay clean.
type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.Dim() {
		return nil, fmt.Errorf("%w: state dim %d, system dim %d",
			dynamo.ErrDimensionMismatch, len(x0), s.dyn.Dim())
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &dynamo.Result{
		States: make([]dynamo.State, 0, steps+1),
		Times:  make([]float64, 0, steps+1),
		Errors: make([]error, 0),
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	record := func(x dynamo.State, t float64) {
		if t < cfg.Transient {
			return
		}
		obs := x.Clone()
		if cfg.NoiseStd > 0 {
			for i := range obs {
				obs[i] += rng.NormFloat64() * cfg.NoiseStd
			}
		}
		result.States = append(result.States, obs)
		result.Times = append(result.Times, t)
	}

	record(x, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		var newX dynamo.State
		var stepErr error

		if cfg.Adaptive {
			newX, dt, stepErr = s.adaptiveStep(x, t, dt, cfg)
		} else {
			newX = s.integrator.Step(s.dyn, x, t, dt)
		}

		if stepErr != nil {
			result.Errors = append(result.Errors, stepErr)
		}

		if cfg.ValidateState && !newX.IsValid() {
			err := dynamo.SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			break
		}

		x = newX
		t += dt
		result.StepsTaken++

		record(x, t)
	}

	return result, nil
}

func (s *Simulator) validateConfig(cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Transient >= cfg.Duration {
		return fmt.Errorf("transient %.2f swallows whole duration %.2f", cfg.Transient, cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	return nil
}

func (s *Simulator) adaptiveStep(x dynamo.State, t, dt float64, cfg dynamo.Config) (dynamo.State, float64, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(s.dyn, x, t, dt, cfg.Tolerance)
	}

	// Step doubling for integrators without embedded error estimates.
	x1 := s.integrator.Step(s.dyn, x, t, dt)
	xHalf := s.integrator.Step(s.dyn, x, t, dt/2)
	x2 := s.integrator.Step(s.dyn, xHalf, t+dt/2, dt/2)

	err := x1.Sub(x2).Norm()

	if err > cfg.Tolerance && dt > cfg.MinDt {
		return s.adaptiveStep(x, t, dt/2, cfg)
	}

	if err < cfg.Tolerance/10 && dt < cfg.MaxDt {
		dt = math.Min(dt*2, cfg.MaxDt)
	}

	return x2, dt, nil
}
