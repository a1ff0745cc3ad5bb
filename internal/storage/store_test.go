package storage

import (
	"math"
	"testing"

	"github.com/san-kum/odecast/internal/dynamo"
	"github.com/san-kum/odecast/internal/node"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := testStore(t)

	result := &dynamo.Result{
		States: []dynamo.State{{1, 2, 3}, {4, 5, 6}},
		Times:  []float64{0, 0.01},
	}

	runID, err := s.Save(RunMetadata{
		Kind:       "simulation",
		System:     "lorenz",
		Dt:         0.01,
		Duration:   0.02,
		Integrator: "rk4",
	}, result)
	if err != nil {
		t.Fatal(err)
	}

	meta, err := s.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.System != "lorenz" || meta.ID != runID {
		t.Errorf("unexpected metadata: %+v", meta)
	}

	states, times, err := s.LoadStates(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 2 || len(times) != 2 {
		t.Fatalf("expected 2 rows, got %d states %d times", len(states), len(times))
	}
	if states[1][2] != 6 {
		t.Errorf("expected states[1][2]=6, got %f", states[1][2])
	}
}

func TestList(t *testing.T) {
	s := testStore(t)

	for _, name := range []string{"lorenz", "rossler"} {
		if _, err := s.Save(RunMetadata{Kind: "simulation", System: name}, nil); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestListEmptyDir(t *testing.T) {
	s := New(t.TempDir() + "/missing")
	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if runs != nil {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestUpdateMetrics(t *testing.T) {
	s := testStore(t)

	runID, err := s.Save(RunMetadata{Kind: "training", System: "lorenz"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateMetrics(runID, map[string]float64{"rmse": 0.42}); err != nil {
		t.Fatal(err)
	}

	meta, err := s.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Metrics["rmse"] != 0.42 {
		t.Errorf("expected rmse 0.42, got %f", meta.Metrics["rmse"])
	}
}

func TestLossHistoryRoundtrip(t *testing.T) {
	s := testStore(t)

	runID, err := s.Save(RunMetadata{Kind: "training", System: "lorenz"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	trainLoss := []float64{0.9, 0.5, 0.3}
	valLoss := []float64{1.0, 0.6, 0.4}
	if err := s.SaveLossHistory(runID, trainLoss, valLoss); err != nil {
		t.Fatal(err)
	}

	tl, vl, err := s.LoadLossHistory(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl) != 3 || len(vl) != 3 {
		t.Fatalf("expected 3 epochs, got %d/%d", len(tl), len(vl))
	}
	if math.Abs(tl[2]-0.3) > 1e-9 || math.Abs(vl[0]-1.0) > 1e-9 {
		t.Errorf("loss history mismatch: %v %v", tl, vl)
	}
}

func TestWeightsRoundtrip(t *testing.T) {
	s := testStore(t)

	runID, err := s.Save(RunMetadata{Kind: "training", System: "lorenz"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	cfg := node.Config{ObsDim: 3, HiddenDim: 8, LatentDim: 4, DynHidden: 8, Seed: 7}
	model, err := node.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SaveWeights(runID, model); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadWeights(runID)
	if err != nil {
		t.Fatal(err)
	}

	window := [][]float64{{0.1, 0.2, 0.3}, {0.2, 0.3, 0.4}, {0.3, 0.4, 0.5}}
	want, err := model.Predict(window, 2, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.Predict(window, 2, 0.01)
	if err != nil {
		t.Fatal(err)
	}

	for k := range want {
		for i := range want[k] {
			if math.Abs(want[k][i]-got[k][i]) > 1e-12 {
				t.Fatalf("prediction diverged at [%d][%d]: %f vs %f", k, i, want[k][i], got[k][i])
			}
		}
	}
}

func TestLoadWeightsMissingRun(t *testing.T) {
	s := testStore(t)
	if _, err := s.LoadWeights("nope"); err == nil {
		t.Error("expected error for missing run")
	}
}
