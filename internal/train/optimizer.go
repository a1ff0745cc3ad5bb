package train

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odecast/internal/nn"
)

// Optimizer applies accumulated gradients to parameters.
type Optimizer interface {
	Name() string
	Step(params []*nn.Param)
}

type SGD struct {
	LR float64
}

func NewSGD(lr float64) *SGD { return &SGD{LR: lr} }

func (s *SGD) Name() string { return "sgd" }

func (s *SGD) Step(params []*nn.Param) {
	for _, p := range params {
		rows, cols := p.W.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				p.W.Set(i, j, p.W.At(i, j)-s.LR*p.G.At(i, j))
			}
		}
	}
}

// Adam keeps per-parameter first and second moment estimates, indexed
// by position in the params slice. Callers must pass the same slice
// ordering on every Step.
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	t int
	m []*mat.Dense
	v []*mat.Dense
}

func NewAdam(lr float64) *Adam {
	return &Adam{LR: lr, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
}

func (a *Adam) Name() string { return "adam" }

func (a *Adam) Step(params []*nn.Param) {
	if a.m == nil {
		a.m = make([]*mat.Dense, len(params))
		a.v = make([]*mat.Dense, len(params))
		for i, p := range params {
			rows, cols := p.W.Dims()
			a.m[i] = mat.NewDense(rows, cols, nil)
			a.v[i] = mat.NewDense(rows, cols, nil)
		}
	}

	a.t++
	bc1 := 1 - math.Pow(a.Beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.Beta2, float64(a.t))

	for idx, p := range params {
		rows, cols := p.W.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				g := p.G.At(i, j)

				m := a.Beta1*a.m[idx].At(i, j) + (1-a.Beta1)*g
				v := a.Beta2*a.v[idx].At(i, j) + (1-a.Beta2)*g*g
				a.m[idx].Set(i, j, m)
				a.v[idx].Set(i, j, v)

				mHat := m / bc1
				vHat := v / bc2

				p.W.Set(i, j, p.W.At(i, j)-a.LR*mHat/(math.Sqrt(vHat)+a.Eps))
			}
		}
	}
}
