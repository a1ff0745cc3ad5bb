package nn

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const (
	fdEps   = 1e-5
	gradTol = 1e-4
)

// numericGrad estimates dL/dw for every entry of p.W by central
// differences and compares against the accumulated analytic gradient.
func checkParamGrad(t *testing.T, p *Param, eval func() float64) {
	t.Helper()
	rows, cols := p.W.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			orig := p.W.At(i, j)

			p.W.Set(i, j, orig+fdEps)
			plus := eval()
			p.W.Set(i, j, orig-fdEps)
			minus := eval()
			p.W.Set(i, j, orig)

			numeric := (plus - minus) / (2 * fdEps)
			analytic := p.G.At(i, j)

			diff := math.Abs(numeric - analytic)
			scale := math.Max(1, math.Max(math.Abs(numeric), math.Abs(analytic)))
			if diff/scale > gradTol {
				t.Errorf("%s[%d,%d]: analytic %.8f vs numeric %.8f", p.Name, i, j, analytic, numeric)
			}
		}
	}
}

func randVec(n int, rng *rand.Rand) *mat.VecDense {
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, rng.NormFloat64())
	}
	return v
}

func TestLinearGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := NewLinear("lin", 4, 3, rng)
	x := randVec(4, rng)

	// L = 0.5 * ||Wx + b||^2, so dL/dy = y.
	loss := func() float64 {
		y := l.Forward(x)
		return 0.5 * mat.Dot(y, y)
	}

	ZeroGrads(l)
	y := l.Forward(x)
	l.Backward(x, y)

	checkParamGrad(t, l.W, loss)
	checkParamGrad(t, l.B, loss)
}

func TestLinearInputGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	l := NewLinear("lin", 3, 2, rng)
	x := randVec(3, rng)

	ZeroGrads(l)
	y := l.Forward(x)
	dx := l.Backward(x, y)

	for i := 0; i < x.Len(); i++ {
		orig := x.AtVec(i)

		x.SetVec(i, orig+fdEps)
		yp := l.Forward(x)
		plus := 0.5 * mat.Dot(yp, yp)

		x.SetVec(i, orig-fdEps)
		ym := l.Forward(x)
		minus := 0.5 * mat.Dot(ym, ym)

		x.SetVec(i, orig)

		numeric := (plus - minus) / (2 * fdEps)
		if math.Abs(numeric-dx.AtVec(i)) > gradTol {
			t.Errorf("dx[%d]: analytic %.8f vs numeric %.8f", i, dx.AtVec(i), numeric)
		}
	}
}

func TestGRUGradientsThroughTime(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cell := NewGRUCell("gru", 3, 4, rng)

	seq := []*mat.VecDense{randVec(3, rng), randVec(3, rng), randVec(3, rng)}

	// L = 0.5 * ||h_T||^2 after consuming the whole sequence.
	loss := func() float64 {
		h := cell.ZeroState()
		for _, x := range seq {
			h, _ = cell.Step(x, h)
		}
		return 0.5 * mat.Dot(h, h)
	}

	ZeroGrads(cell)
	h := cell.ZeroState()
	caches := make([]*GRUCache, 0, len(seq))
	for _, x := range seq {
		var c *GRUCache
		h, c = cell.Step(x, h)
		caches = append(caches, c)
	}

	grad := mat.NewVecDense(h.Len(), nil)
	grad.CopyVec(h)
	for i := len(caches) - 1; i >= 0; i-- {
		_, grad = cell.Backward(caches[i], grad)
	}

	for _, p := range cell.Params() {
		checkParamGrad(t, p, loss)
	}
}

func TestClipGrads(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	l := NewLinear("lin", 2, 2, rng)

	l.W.G.Set(0, 0, 30)
	l.W.G.Set(1, 1, 40)

	ClipGrads(5, l)

	if norm := GradNorm(l); math.Abs(norm-5) > 1e-9 {
		t.Errorf("expected clipped norm 5, got %f", norm)
	}
}

func TestScaleGrads(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	l := NewLinear("lin", 2, 2, rng)
	l.W.G.Set(0, 0, 8)

	ScaleGrads(4, l)

	if got := l.W.G.At(0, 0); got != 2 {
		t.Errorf("expected 2, got %f", got)
	}
}
