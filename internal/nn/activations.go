package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

func sigmoid(v float64) float64 { return 1.0 / (1.0 + math.Exp(-v)) }

// sigmoidVec applies the logistic function elementwise in place.
func sigmoidVec(v *mat.VecDense) {
	data := v.RawVector().Data
	for i := range data {
		data[i] = sigmoid(data[i])
	}
}

// tanhVec applies tanh elementwise in place.
func tanhVec(v *mat.VecDense) {
	data := v.RawVector().Data
	for i := range data {
		data[i] = math.Tanh(data[i])
	}
}

// hadamard returns a ∘ b as a fresh vector.
func hadamard(a, b *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(a.Len(), nil)
	for i := 0; i < a.Len(); i++ {
		out.SetVec(i, a.AtVec(i)*b.AtVec(i))
	}
	return out
}

// addBias adds an n x 1 bias matrix to a vector in place.
func addBias(v *mat.VecDense, b *mat.Dense) {
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, v.AtVec(i)+b.At(i, 0))
	}
}

// accumBias adds a gradient vector into an n x 1 bias gradient.
func accumBias(g *mat.Dense, grad *mat.VecDense) {
	for i := 0; i < grad.Len(); i++ {
		g.Set(i, 0, g.At(i, 0)+grad.AtVec(i))
	}
}
