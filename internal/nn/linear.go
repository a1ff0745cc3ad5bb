package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Linear is a fully connected layer y = Wx + b.
type Linear struct {
	In, Out int
	W       *Param // Out x In
	B       *Param // Out x 1
}

func NewLinear(name string, in, out int, rng *rand.Rand) *Linear {
	l := &Linear{
		In:  in,
		Out: out,
		W:   NewParam(name+".w", out, in),
		B:   NewParam(name+".b", out, 1),
	}
	l.W.GlorotInit(rng)
	return l
}

func (l *Linear) Params() []*Param { return []*Param{l.W, l.B} }

func (l *Linear) Forward(x *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(l.Out, nil)
	out.MulVec(l.W.W, x)
	addBias(out, l.B.W)
	return out
}

// Backward accumulates parameter gradients for the given upstream
// gradient and returns the gradient with respect to the input. x must
// be the same input passed to Forward.
func (l *Linear) Backward(x, grad *mat.VecDense) *mat.VecDense {
	l.W.G.RankOne(l.W.G, 1, grad, x)
	accumBias(l.B.G, grad)

	dx := mat.NewVecDense(l.In, nil)
	dx.MulVec(l.W.W.T(), grad)
	return dx
}
