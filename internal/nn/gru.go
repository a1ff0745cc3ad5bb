package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// GRUCell is a gated recurrent unit:
//
//	r  = σ(Wr x + Ur h + br)
//	z  = σ(Wz x + Uz h + bz)
//	n  = tanh(Wn x + Un (r∘h) + bn)
//	h' = (1-z)∘n + z∘h
type GRUCell struct {
	In, Hidden int

	Wr, Wz, Wn *Param // Hidden x In
	Ur, Uz, Un *Param // Hidden x Hidden
	Br, Bz, Bn *Param // Hidden x 1
}

// GRUCache holds the intermediates of one Step, needed by Backward.
type GRUCache struct {
	X, HPrev    *mat.VecDense
	R, Z, N, RH *mat.VecDense
}

func NewGRUCell(name string, in, hidden int, rng *rand.Rand) *GRUCell {
	g := &GRUCell{
		In:     in,
		Hidden: hidden,
		Wr:     NewParam(name+".wr", hidden, in),
		Wz:     NewParam(name+".wz", hidden, in),
		Wn:     NewParam(name+".wn", hidden, in),
		Ur:     NewParam(name+".ur", hidden, hidden),
		Uz:     NewParam(name+".uz", hidden, hidden),
		Un:     NewParam(name+".un", hidden, hidden),
		Br:     NewParam(name+".br", hidden, 1),
		Bz:     NewParam(name+".bz", hidden, 1),
		Bn:     NewParam(name+".bn", hidden, 1),
	}
	for _, p := range []*Param{g.Wr, g.Wz, g.Wn, g.Ur, g.Uz, g.Un} {
		p.GlorotInit(rng)
	}
	return g
}

func (g *GRUCell) Params() []*Param {
	return []*Param{g.Wr, g.Wz, g.Wn, g.Ur, g.Uz, g.Un, g.Br, g.Bz, g.Bn}
}

// ZeroState returns an all-zero hidden state.
func (g *GRUCell) ZeroState() *mat.VecDense {
	return mat.NewVecDense(g.Hidden, nil)
}

func (g *GRUCell) gate(W, U *mat.Dense, b *mat.Dense, x, h *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(g.Hidden, nil)
	out.MulVec(W, x)
	tmp := mat.NewVecDense(g.Hidden, nil)
	tmp.MulVec(U, h)
	out.AddVec(out, tmp)
	addBias(out, b)
	return out
}

// Step advances the hidden state by one input and returns the new
// state plus the cache Backward needs.
func (g *GRUCell) Step(x, h *mat.VecDense) (*mat.VecDense, *GRUCache) {
	r := g.gate(g.Wr.W, g.Ur.W, g.Br.W, x, h)
	sigmoidVec(r)

	z := g.gate(g.Wz.W, g.Uz.W, g.Bz.W, x, h)
	sigmoidVec(z)

	rh := hadamard(r, h)

	n := g.gate(g.Wn.W, g.Un.W, g.Bn.W, x, rh)
	tanhVec(n)

	hNew := mat.NewVecDense(g.Hidden, nil)
	for i := 0; i < g.Hidden; i++ {
		hNew.SetVec(i, (1-z.AtVec(i))*n.AtVec(i)+z.AtVec(i)*h.AtVec(i))
	}

	return hNew, &GRUCache{X: x, HPrev: h, R: r, Z: z, N: n, RH: rh}
}

// Backward accumulates parameter gradients for one step and returns
// the gradients with respect to the step input and the previous hidden
// state.
func (g *GRUCell) Backward(c *GRUCache, gradH *mat.VecDense) (dx, dhPrev *mat.VecDense) {
	hDim := g.Hidden

	dn := mat.NewVecDense(hDim, nil)
	dz := mat.NewVecDense(hDim, nil)
	dhPrev = mat.NewVecDense(hDim, nil)

	for i := 0; i < hDim; i++ {
		gh := gradH.AtVec(i)
		dn.SetVec(i, gh*(1-c.Z.AtVec(i)))
		dz.SetVec(i, gh*(c.HPrev.AtVec(i)-c.N.AtVec(i)))
		dhPrev.SetVec(i, gh*c.Z.AtVec(i))
	}

	// Candidate gate: n = tanh(an)
	dan := mat.NewVecDense(hDim, nil)
	for i := 0; i < hDim; i++ {
		ni := c.N.AtVec(i)
		dan.SetVec(i, dn.AtVec(i)*(1-ni*ni))
	}
	g.Wn.G.RankOne(g.Wn.G, 1, dan, c.X)
	g.Un.G.RankOne(g.Un.G, 1, dan, c.RH)
	accumBias(g.Bn.G, dan)

	drh := mat.NewVecDense(hDim, nil)
	drh.MulVec(g.Un.W.T(), dan)

	dr := mat.NewVecDense(hDim, nil)
	for i := 0; i < hDim; i++ {
		dr.SetVec(i, drh.AtVec(i)*c.HPrev.AtVec(i))
		dhPrev.SetVec(i, dhPrev.AtVec(i)+drh.AtVec(i)*c.R.AtVec(i))
	}

	// Update gate: z = σ(az)
	daz := mat.NewVecDense(hDim, nil)
	for i := 0; i < hDim; i++ {
		zi := c.Z.AtVec(i)
		daz.SetVec(i, dz.AtVec(i)*zi*(1-zi))
	}
	g.Wz.G.RankOne(g.Wz.G, 1, daz, c.X)
	g.Uz.G.RankOne(g.Uz.G, 1, daz, c.HPrev)
	accumBias(g.Bz.G, daz)

	// Reset gate: r = σ(ar)
	dar := mat.NewVecDense(hDim, nil)
	for i := 0; i < hDim; i++ {
		ri := c.R.AtVec(i)
		dar.SetVec(i, dr.AtVec(i)*ri*(1-ri))
	}
	g.Wr.G.RankOne(g.Wr.G, 1, dar, c.X)
	g.Ur.G.RankOne(g.Ur.G, 1, dar, c.HPrev)
	accumBias(g.Br.G, dar)

	tmp := mat.NewVecDense(hDim, nil)
	tmp.MulVec(g.Uz.W.T(), daz)
	dhPrev.AddVec(dhPrev, tmp)
	tmp.MulVec(g.Ur.W.T(), dar)
	dhPrev.AddVec(dhPrev, tmp)

	dx = mat.NewVecDense(g.In, nil)
	dxTmp := mat.NewVecDense(g.In, nil)
	dx.MulVec(g.Wn.W.T(), dan)
	dxTmp.MulVec(g.Wz.W.T(), daz)
	dx.AddVec(dx, dxTmp)
	dxTmp.MulVec(g.Wr.W.T(), dar)
	dx.AddVec(dx, dxTmp)

	return dx, dhPrev
}
