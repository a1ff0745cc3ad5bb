package node

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odecast/internal/nn"
)

// DynamicsNet is the learned latent derivative f(z): a one-hidden-layer
// MLP with tanh, so dz/dt stays smooth enough for fixed-step RK4.
type DynamicsNet struct {
	l1, l2 *nn.Linear
}

// dynCache holds the stage input and hidden activation needed by VJP.
type dynCache struct {
	z, a *mat.VecDense
}

func NewDynamicsNet(latentDim, hidden int, rng *rand.Rand) *DynamicsNet {
	return &DynamicsNet{
		l1: nn.NewLinear("dyn.l1", latentDim, hidden, rng),
		l2: nn.NewLinear("dyn.l2", hidden, latentDim, rng),
	}
}

func (d *DynamicsNet) Params() []*nn.Param {
	return append(d.l1.Params(), d.l2.Params()...)
}

// Eval computes f(z) and the cache for the backward pass.
func (d *DynamicsNet) Eval(z *mat.VecDense) (*mat.VecDense, *dynCache) {
	a := d.l1.Forward(z)
	data := a.RawVector().Data
	for i := range data {
		data[i] = math.Tanh(data[i])
	}
	out := d.l2.Forward(a)
	return out, &dynCache{z: z, a: a}
}

// VJP accumulates parameter gradients for upstream u = dL/df and
// returns Jᵀu, the gradient with respect to the stage input.
func (d *DynamicsNet) VJP(c *dynCache, u *mat.VecDense) *mat.VecDense {
	da := d.l2.Backward(c.a, u)
	for i := 0; i < da.Len(); i++ {
		ai := c.a.AtVec(i)
		da.SetVec(i, da.AtVec(i)*(1-ai*ai))
	}
	return d.l1.Backward(c.z, da)
}

// rk4Cache stores the four stage caches of one latent RK4 step.
type rk4Cache struct {
	s1, s2, s3, s4 *dynCache
}

// rk4Step advances the latent state with classic RK4 and keeps the
// stage inputs so gradients can flow back through every stage.
func (d *DynamicsNet) rk4Step(z *mat.VecDense, dt float64) (*mat.VecDense, *rk4Cache) {
	n := z.Len()

	k1, s1 := d.Eval(z)

	z2 := mat.NewVecDense(n, nil)
	z2.AddScaledVec(z, dt/2, k1)
	k2, s2 := d.Eval(z2)

	z3 := mat.NewVecDense(n, nil)
	z3.AddScaledVec(z, dt/2, k2)
	k3, s3 := d.Eval(z3)

	z4 := mat.NewVecDense(n, nil)
	z4.AddScaledVec(z, dt, k3)
	k4, s4 := d.Eval(z4)

	zNew := mat.NewVecDense(n, nil)
	zNew.CopyVec(z)
	zNew.AddScaledVec(zNew, dt/6, k1)
	zNew.AddScaledVec(zNew, dt/3, k2)
	zNew.AddScaledVec(zNew, dt/3, k3)
	zNew.AddScaledVec(zNew, dt/6, k4)

	return zNew, &rk4Cache{s1: s1, s2: s2, s3: s3, s4: s4}
}

// rk4Backward propagates g = dL/dz_{k+1} back through one RK4 step,
// accumulating dynamics gradients, and returns dL/dz_k.
func (d *DynamicsNet) rk4Backward(c *rk4Cache, g *mat.VecDense, dt float64) *mat.VecDense {
	n := g.Len()

	u4 := mat.NewVecDense(n, nil)
	u4.ScaleVec(dt/6, g)
	ds4 := d.VJP(c.s4, u4)

	u3 := mat.NewVecDense(n, nil)
	u3.ScaleVec(dt/3, g)
	u3.AddScaledVec(u3, dt, ds4)
	ds3 := d.VJP(c.s3, u3)

	u2 := mat.NewVecDense(n, nil)
	u2.ScaleVec(dt/3, g)
	u2.AddScaledVec(u2, dt/2, ds3)
	ds2 := d.VJP(c.s2, u2)

	u1 := mat.NewVecDense(n, nil)
	u1.ScaleVec(dt/6, g)
	u1.AddScaledVec(u1, dt/2, ds2)
	ds1 := d.VJP(c.s1, u1)

	dz := mat.NewVecDense(n, nil)
	dz.CopyVec(g)
	dz.AddVec(dz, ds1)
	dz.AddVec(dz, ds2)
	dz.AddVec(dz, ds3)
	dz.AddVec(dz, ds4)
	return dz
}
