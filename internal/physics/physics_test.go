package physics

import (
	"math"
	"testing"

	"github.com/san-kum/odecast/internal/dynamo"
)

func TestLorenzDerive(t *testing.T) {
	l := NewLorenz()

	d := l.Derive(dynamo.State{1.0, 1.0, 1.0}, 0)

	// sigma(y-x)=0, x(rho-z)-y = 27-1 = 26, xy - beta z = 1 - 8/3
	if math.Abs(d[0]) > 1e-12 {
		t.Errorf("dx: expected 0, got %f", d[0])
	}
	if math.Abs(d[1]-26.0) > 1e-12 {
		t.Errorf("dy: expected 26, got %f", d[1])
	}
	if math.Abs(d[2]-(1.0-8.0/3.0)) > 1e-12 {
		t.Errorf("dz: expected %f, got %f", 1.0-8.0/3.0, d[2])
	}
}

func TestLorenzSetParam(t *testing.T) {
	l := NewLorenz()
	l.SetParam("rho", 14.0)

	if got := l.GetParams()["rho"]; got != 14.0 {
		t.Errorf("expected rho=14, got %f", got)
	}
}

func TestRosslerDerive(t *testing.T) {
	r := NewRossler()

	d := r.Derive(dynamo.State{0, 0, 0}, 0)
	if d[0] != 0 || d[1] != 0 {
		t.Errorf("expected zero dx/dy at origin, got %v", d)
	}
	if math.Abs(d[2]-0.2) > 1e-12 {
		t.Errorf("dz: expected b=0.2, got %f", d[2])
	}
}

func TestVanDerPolLimitCycle(t *testing.T) {
	v := NewVanDerPol()

	d := v.Derive(dynamo.State{2.0, 0.0}, 0)
	if d[0] != 0 {
		t.Errorf("dx should equal y=0, got %f", d[0])
	}
	if math.Abs(d[1]-(-2.0)) > 1e-12 {
		t.Errorf("dy: expected -2, got %f", d[1])
	}
}

func TestAllSystemsReportDim(t *testing.T) {
	tests := []struct {
		dyn dynamo.System
		dim int
	}{
		{NewLorenz(), 3},
		{NewRossler(), 3},
		{NewVanDerPol(), 2},
	}

	for _, tc := range tests {
		if got := tc.dyn.Dim(); got != tc.dim {
			t.Errorf("expected dim %d, got %d", tc.dim, got)
		}
		if len(tc.dyn.(interface{ DefaultState() dynamo.State }).DefaultState()) != tc.dim {
			t.Error("default state dim mismatch")
		}
	}
}
