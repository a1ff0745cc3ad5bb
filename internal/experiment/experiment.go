// Package experiment wires the full pipeline together: simulate a
// system, scale and window the trajectory, fit a latent-ODE forecaster,
// and score the result.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/odecast/internal/config"
	"github.com/san-kum/odecast/internal/dataset"
	"github.com/san-kum/odecast/internal/dynamo"
	"github.com/san-kum/odecast/internal/forecast"
	"github.com/san-kum/odecast/internal/node"
	"github.com/san-kum/odecast/internal/sim"
	"github.com/san-kum/odecast/internal/train"
)

type Experiment struct {
	cfg       *config.Config
	reg       *Registry
	observers []func(train.Progress)
}

// Result carries everything a finished experiment produced.
type Result struct {
	Sim        *dynamo.Result
	Scaler     dataset.Scaler
	Scaled     [][]float64
	TrainSet   *dataset.Set
	ValSet     *dataset.Set
	Model      *node.LatentODE
	History    *train.History
	Comparison *forecast.Comparison
}

func New(cfg *config.Config, reg *Registry) *Experiment {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Experiment{cfg: cfg, reg: reg}
}

// Simulate integrates the configured system and returns its sampled
// trajectory.
func (e *Experiment) Simulate(ctx context.Context) (*dynamo.Result, error) {
	dyn, err := e.reg.GetSystem(e.cfg.System.Name)
	if err != nil {
		return nil, err
	}

	if len(e.cfg.System.Params) > 0 {
		cfgDyn, ok := dyn.(dynamo.Configurable)
		if !ok {
			return nil, fmt.Errorf("experiment: system %s has no tunable parameters", e.cfg.System.Name)
		}
		for name, val := range e.cfg.System.Params {
			cfgDyn.SetParam(name, val)
		}
	}

	integ, err := e.reg.GetIntegrator(e.cfg.Simulation.Integrator)
	if err != nil {
		return nil, err
	}

	x0 := e.initState(dyn)
	if len(x0) != dyn.Dim() {
		return nil, fmt.Errorf("%w: init state dim %d, system dim %d",
			dynamo.ErrDimensionMismatch, len(x0), dyn.Dim())
	}

	simCfg := dynamo.Config{
		Dt:            e.cfg.Simulation.Dt,
		Duration:      e.cfg.Simulation.Duration,
		Transient:     e.cfg.Simulation.Transient,
		NoiseStd:      e.cfg.Simulation.NoiseStd,
		Seed:          e.cfg.Simulation.Seed,
		ValidateState: true,
	}

	return sim.New(dyn, integ).Run(ctx, x0, simCfg)
}

func (e *Experiment) initState(dyn dynamo.System) dynamo.State {
	if len(e.cfg.System.InitState) > 0 {
		return dynamo.State(e.cfg.System.InitState).Clone()
	}
	if d, ok := dyn.(interface{ DefaultState() dynamo.State }); ok {
		return d.DefaultState()
	}
	return make(dynamo.State, dyn.Dim())
}

// Prepare scales a trajectory and windows it into train/val sets. The
// scaler is fitted on the training rows only.
func (e *Experiment) Prepare(series [][]float64) (*Result, error) {
	scaler, err := e.reg.GetScaler(e.cfg.Dataset.Scaler)
	if err != nil {
		return nil, err
	}

	fitRows := int(float64(len(series)) * e.cfg.Dataset.TrainFrac)
	if fitRows < 2 {
		return nil, fmt.Errorf("experiment: series too short to split: %d rows", len(series))
	}
	if err := scaler.Fit(series[:fitRows]); err != nil {
		return nil, err
	}

	scaled, err := scaler.Transform(series)
	if err != nil {
		return nil, err
	}

	set, err := dataset.MakeWindows(scaled, e.cfg.Dataset.Window, e.cfg.Dataset.Horizon, e.cfg.Dataset.Stride)
	if err != nil {
		return nil, err
	}
	trainSet, valSet := dataset.Split(set, e.cfg.Dataset.TrainFrac)

	return &Result{
		Scaler:   scaler,
		Scaled:   scaled,
		TrainSet: trainSet,
		ValSet:   valSet,
	}, nil
}

// Run executes the whole pipeline. Forecast scoring at the end rolls
// the model closed-loop over the validation tail.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	simResult, err := e.Simulate(ctx)
	if err != nil {
		return nil, err
	}

	res, err := e.Prepare(simResult.Series())
	if err != nil {
		return nil, err
	}
	res.Sim = simResult

	model, err := node.New(node.Config{
		ObsDim:    res.TrainSet.Dim,
		HiddenDim: e.cfg.Model.HiddenDim,
		LatentDim: e.cfg.Model.LatentDim,
		DynHidden: e.cfg.Model.DynHidden,
		Seed:      e.cfg.Model.Seed,
	})
	if err != nil {
		return nil, err
	}
	res.Model = model

	opt, err := e.reg.GetOptimizer(e.cfg.Training.Optimizer, e.cfg.Training.LearningRate)
	if err != nil {
		return nil, err
	}

	trainer := train.New(train.Config{
		Epochs:    e.cfg.Training.Epochs,
		BatchSize: e.cfg.Training.BatchSize,
		ClipNorm:  e.cfg.Training.ClipNorm,
		Seed:      e.cfg.Training.Seed,
		Dt:        e.cfg.Simulation.Dt,
	}, opt)
	for _, fn := range e.observers {
		trainer.OnEpoch(fn)
	}

	history, err := trainer.Fit(ctx, model, res.TrainSet, res.ValSet)
	if err != nil {
		return res, err
	}
	res.History = history

	cmp, err := e.score(model, res.Scaled)
	if err != nil {
		return res, err
	}
	res.Comparison = cmp

	return res, nil
}

// score rolls the trained model over the held-out tail of the series.
func (e *Experiment) score(model *node.LatentODE, scaled [][]float64) (*forecast.Comparison, error) {
	w := e.cfg.Dataset.Window
	start := int(float64(len(scaled)) * e.cfg.Dataset.TrainFrac)
	if start < w {
		start = w
	}
	steps := len(scaled) - start
	if steps > 10*e.cfg.Dataset.Horizon {
		steps = 10 * e.cfg.Dataset.Horizon
	}
	if steps <= 0 {
		return nil, fmt.Errorf("experiment: no held-out rows to score against")
	}

	return forecast.Compare(model, scaled, w, start, steps, e.cfg.Dataset.Horizon, e.cfg.Simulation.Dt)
}

// OnEpoch forwards trainer progress to fn during Run.
func (e *Experiment) OnEpoch(fn func(train.Progress)) { e.observers = append(e.observers, fn) }
