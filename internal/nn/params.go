package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param is one trainable weight matrix with its gradient accumulator.
// Vectors (biases) are stored as n x 1 matrices.
type Param struct {
	Name string
	W    *mat.Dense
	G    *mat.Dense
}

func NewParam(name string, rows, cols int) *Param {
	return &Param{
		Name: name,
		W:    mat.NewDense(rows, cols, nil),
		G:    mat.NewDense(rows, cols, nil),
	}
}

func (p *Param) ZeroGrad() { p.G.Zero() }

// GlorotInit fills the weight with uniform values scaled by fan-in and
// fan-out, the usual starting point for tanh/sigmoid networks.
func (p *Param) GlorotInit(rng *rand.Rand) {
	rows, cols := p.W.Dims()
	limit := math.Sqrt(6.0 / float64(rows+cols))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p.W.Set(i, j, (rng.Float64()*2-1)*limit)
		}
	}
}

// Module is anything holding trainable parameters.
type Module interface {
	Params() []*Param
}

// ZeroGrads clears gradient accumulators across modules.
func ZeroGrads(modules ...Module) {
	for _, m := range modules {
		for _, p := range m.Params() {
			p.ZeroGrad()
		}
	}
}

// GradNorm returns the global L2 norm over all gradients.
func GradNorm(modules ...Module) float64 {
	sum := 0.0
	for _, m := range modules {
		for _, p := range m.Params() {
			rows, cols := p.G.Dims()
			for i := 0; i < rows; i++ {
				for j := 0; j < cols; j++ {
					v := p.G.At(i, j)
					sum += v * v
				}
			}
		}
	}
	return math.Sqrt(sum)
}

// ClipGrads rescales all gradients so the global norm does not exceed
// maxNorm. A zero or negative maxNorm disables clipping.
func ClipGrads(maxNorm float64, modules ...Module) {
	if maxNorm <= 0 {
		return
	}
	norm := GradNorm(modules...)
	if norm <= maxNorm {
		return
	}
	scale := maxNorm / norm
	for _, m := range modules {
		for _, p := range m.Params() {
			p.G.Scale(scale, p.G)
		}
	}
}

// ScaleGrads divides accumulated gradients by n, turning summed
// per-sample gradients into a batch mean.
func ScaleGrads(n float64, modules ...Module) {
	if n == 0 {
		return
	}
	inv := 1.0 / n
	for _, m := range modules {
		for _, p := range m.Params() {
			p.G.Scale(inv, p.G)
		}
	}
}
