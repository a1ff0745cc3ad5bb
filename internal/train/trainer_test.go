package train

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odecast/internal/dataset"
	"github.com/san-kum/odecast/internal/node"
)

func sineSet(t *testing.T, n int) *dataset.Set {
	t.Helper()
	series := make([][]float64, n)
	for i := range series {
		series[i] = []float64{0.5 + 0.4*math.Sin(float64(i)*0.3)}
	}
	set, err := dataset.MakeWindows(series, 6, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func sineModel(t *testing.T) *node.LatentODE {
	t.Helper()
	m, err := node.New(node.Config{ObsDim: 1, HiddenDim: 8, LatentDim: 4, DynHidden: 8, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestFitReducesLoss(t *testing.T) {
	set := sineSet(t, 80)
	trainSet, valSet := dataset.Split(set, 0.8)
	model := sineModel(t)

	cfg := Config{Epochs: 30, BatchSize: 16, ClipNorm: 5, Seed: 1, Dt: 0.1}
	trainer := New(cfg, NewAdam(0.01))

	history, err := trainer.Fit(context.Background(), model, trainSet, valSet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(history.TrainLoss) != cfg.Epochs {
		t.Fatalf("expected %d epochs of history, got %d", cfg.Epochs, len(history.TrainLoss))
	}

	first := history.TrainLoss[0]
	last := history.TrainLoss[len(history.TrainLoss)-1]
	if !(last < first) {
		t.Errorf("training did not reduce loss: first %f, last %f", first, last)
	}
	if math.IsNaN(last) || math.IsInf(last, 0) {
		t.Errorf("final loss is not finite: %f", last)
	}
}

func TestFitProgressObserver(t *testing.T) {
	set := sineSet(t, 30)
	model := sineModel(t)

	trainer := New(Config{Epochs: 3, BatchSize: 8, Seed: 1, Dt: 0.1}, NewSGD(0.01))

	var epochs []int
	trainer.OnEpoch(func(p Progress) { epochs = append(epochs, p.Epoch) })

	if _, err := trainer.Fit(context.Background(), model, set, nil); err != nil {
		t.Fatal(err)
	}

	if len(epochs) != 3 || epochs[2] != 3 {
		t.Errorf("observer saw epochs %v", epochs)
	}
}

func TestFitDimensionMismatch(t *testing.T) {
	series := make([][]float64, 20)
	for i := range series {
		series[i] = []float64{1, 2} // dim 2, model expects 1
	}
	set, err := dataset.MakeWindows(series, 4, 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	trainer := New(Config{Epochs: 1, BatchSize: 4, Seed: 1, Dt: 0.1}, NewSGD(0.01))
	if _, err := trainer.Fit(context.Background(), sineModel(t), set, nil); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestFitEmptySet(t *testing.T) {
	trainer := New(Config{Epochs: 1, BatchSize: 4, Seed: 1, Dt: 0.1}, NewSGD(0.01))
	if _, err := trainer.Fit(context.Background(), sineModel(t), nil, nil); !errors.Is(err, ErrNoTrainingData) {
		t.Errorf("expected ErrNoTrainingData, got %v", err)
	}
}

func TestFitContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set := sineSet(t, 30)
	trainer := New(Config{Epochs: 100, BatchSize: 8, Seed: 1, Dt: 0.1}, NewSGD(0.01))

	_, err := trainer.Fit(ctx, sineModel(t), set, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluateEmptySet(t *testing.T) {
	_, err := Evaluate(sineModel(t), nil, 0.1)
	if !errors.Is(err, ErrNoTrainingData) {
		t.Errorf("expected ErrNoTrainingData, got %v", err)
	}
}

func TestOptimizersProduceFiniteLoss(t *testing.T) {
	run := func(opt Optimizer) float64 {
		model := sineModel(t)
		set := sineSet(t, 40)
		trainer := New(Config{Epochs: 5, BatchSize: 8, Seed: 2, Dt: 0.1}, opt)
		h, err := trainer.Fit(context.Background(), model, set, nil)
		if err != nil {
			t.Fatal(err)
		}
		return h.TrainLoss[len(h.TrainLoss)-1]
	}

	sgdLoss := run(NewSGD(0.01))
	adamLoss := run(NewAdam(0.01))

	if math.IsNaN(sgdLoss) || math.IsNaN(adamLoss) {
		t.Fatal("optimizer produced NaN loss")
	}
}
