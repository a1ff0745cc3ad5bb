package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/odecast/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) Dim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestEulerConvergesWithSmallerStep(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewEuler()

	errAt := func(dt float64) float64 {
		steps := int(1.0 / dt)
		x := dynamo.State{1.0, 0.0}
		for i := 0; i < steps; i++ {
			x = integ.Step(dyn, x, float64(i)*dt, dt)
		}
		return math.Abs(x[0] - math.Cos(1.0))
	}

	coarse := errAt(0.01)
	fine := errAt(0.001)

	if fine >= coarse {
		t.Errorf("euler error did not shrink with dt: coarse=%e fine=%e", coarse, fine)
	}
}

func TestRK4ScratchReuseAcrossDims(t *testing.T) {
	integ := NewRK4()
	dyn := &harmonicOscillator{}

	x := integ.Step(dyn, dynamo.State{1.0, 0.0}, 0, 0.01)
	if len(x) != 2 {
		t.Fatalf("expected dim 2, got %d", len(x))
	}

	// Stepping a different-dimension system must resize scratch buffers.
	x3 := integ.Step(&constDrift{}, dynamo.State{0, 0, 0}, 0, 0.01)
	if len(x3) != 3 {
		t.Fatalf("expected dim 3, got %d", len(x3))
	}
}

type constDrift struct{}

func (c *constDrift) Dim() int { return 3 }
func (c *constDrift) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{1, 1, 1}
}
