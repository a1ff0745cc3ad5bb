package optim

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch(
		[]string{"lr", "hidden"},
		[][]float64{{0.001, 0.01, 0.1}, {8, 16}},
	)

	// Quadratic bowl with minimum at lr=0.01, hidden=16.
	obj := func(_ context.Context, p map[string]float64) (float64, error) {
		return math.Pow(math.Log10(p["lr"])+2, 2) + math.Abs(p["hidden"]-16), nil
	}

	params, score, err := g.Search(context.Background(), obj)
	if err != nil {
		t.Fatal(err)
	}

	if params["lr"] != 0.01 || params["hidden"] != 16 {
		t.Errorf("expected lr=0.01 hidden=16, got %v", params)
	}
	if score != 0 {
		t.Errorf("expected score 0, got %f", score)
	}
}

func TestSearchSkipsFailedTrials(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{1, 2, 3}})

	obj := func(_ context.Context, p map[string]float64) (float64, error) {
		if p["x"] == 1 {
			return 0, errors.New("diverged")
		}
		if p["x"] == 2 {
			return math.NaN(), nil
		}
		return p["x"], nil
	}

	params, score, err := g.Search(context.Background(), obj)
	if err != nil {
		t.Fatal(err)
	}
	if params["x"] != 3 || score != 3 {
		t.Errorf("expected x=3 score=3, got %v score=%f", params, score)
	}
}

func TestSearchCanceled(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{1, 2, 3}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := g.Search(ctx, func(context.Context, map[string]float64) (float64, error) {
		t.Fatal("objective should not run after cancel")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
