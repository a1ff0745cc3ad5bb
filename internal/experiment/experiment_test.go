package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/odecast/internal/config"
	"github.com/san-kum/odecast/internal/train"
)

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()

	if _, err := r.GetSystem("lorenz"); err != nil {
		t.Error(err)
	}
	if _, err := r.GetSystem("bogus"); err == nil {
		t.Error("expected error for unknown system")
	}
	if _, err := r.GetIntegrator("rk4"); err != nil {
		t.Error(err)
	}
	if _, err := r.GetScaler("standard"); err != nil {
		t.Error(err)
	}
	if _, err := r.GetOptimizer("adam", 1e-3); err != nil {
		t.Error(err)
	}

	if got := r.ListSystems(); len(got) != 3 {
		t.Errorf("expected 3 systems, got %v", got)
	}
	if got := r.ListIntegrators(); len(got) != 3 {
		t.Errorf("expected 3 integrators, got %v", got)
	}
}

func TestSimulate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Simulation.Duration = 5.0
	cfg.Simulation.Transient = 1.0

	e := New(cfg, nil)
	result, err := e.Simulate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(result.States) == 0 {
		t.Fatal("expected states")
	}
	if len(result.States[0]) != 3 {
		t.Errorf("expected 3D states, got %d", len(result.States[0]))
	}
	if result.Times[0] < 1.0 {
		t.Errorf("transient not discarded, first sample at t=%f", result.Times[0])
	}
}

func TestSimulateCustomParams(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Simulation.Duration = 2.0
	cfg.Simulation.Transient = 0
	cfg.System.Params = map[string]float64{"rho": 14.0}
	cfg.System.InitState = []float64{0.5, 0.5, 0.5}

	e := New(cfg, nil)
	if _, err := e.Simulate(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestSimulateBadInitState(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.System.InitState = []float64{1, 2}

	e := New(cfg, nil)
	if _, err := e.Simulate(context.Background()); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestPrepare(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dataset.Window = 4
	cfg.Dataset.Horizon = 2

	series := make([][]float64, 100)
	for i := range series {
		th := float64(i) * 0.1
		series[i] = []float64{math.Sin(th), math.Cos(th), th}
	}

	e := New(cfg, nil)
	res, err := e.Prepare(series)
	if err != nil {
		t.Fatal(err)
	}

	if res.TrainSet.Len() == 0 || res.ValSet.Len() == 0 {
		t.Errorf("expected non-empty splits, got %d/%d", res.TrainSet.Len(), res.ValSet.Len())
	}
	if res.TrainSet.Dim != 3 {
		t.Errorf("expected dim 3, got %d", res.TrainSet.Dim)
	}
	if res.Scaler.Name() != "minmax" {
		t.Errorf("expected minmax scaler, got %s", res.Scaler.Name())
	}
}

func TestRunEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("full pipeline")
	}

	cfg := config.DefaultConfig()
	cfg.System.Name = "vanderpol"
	cfg.Simulation.Duration = 15.0
	cfg.Simulation.Transient = 2.0
	cfg.Simulation.Dt = 0.05
	cfg.Dataset.Window = 8
	cfg.Dataset.Horizon = 2
	cfg.Model.HiddenDim = 8
	cfg.Model.LatentDim = 4
	cfg.Model.DynHidden = 8
	cfg.Training.Epochs = 3
	cfg.Training.BatchSize = 16

	epochs := 0
	e := New(cfg, nil)
	e.OnEpoch(func(p train.Progress) { epochs++ })

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(res.History.TrainLoss) != 3 {
		t.Errorf("expected 3 epochs of history, got %d", len(res.History.TrainLoss))
	}
	if epochs != 3 {
		t.Errorf("expected 3 observer calls, got %d", epochs)
	}
	if res.Comparison == nil {
		t.Fatal("expected comparison")
	}
	if len(res.Comparison.Predicted) == 0 {
		t.Error("expected forecast rows")
	}
	if math.IsNaN(res.History.TrainLoss[len(res.History.TrainLoss)-1]) {
		t.Error("train loss went NaN")
	}
}
