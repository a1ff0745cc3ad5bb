// Package node implements the latent-ODE forecaster: a GRU encoder
// compresses an observed window into a latent state, a learned
// derivative network is integrated forward with RK4, and a linear
// decoder maps each latent state back to observable space.
package node

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odecast/internal/nn"
)

// Config holds the model hyperparameters.
type Config struct {
	ObsDim    int
	HiddenDim int
	LatentDim int
	DynHidden int
	Seed      int64
}

func DefaultModelConfig(obsDim int) Config {
	return Config{
		ObsDim:    obsDim,
		HiddenDim: 32,
		LatentDim: 8,
		DynHidden: 32,
		Seed:      42,
	}
}

// LatentODE forecasts a time series by encoding an observed window
// into a latent state, integrating a learned derivative forward in
// time with RK4, and decoding each latent state back to observable
// space.
type LatentODE struct {
	cfg Config

	enc      *nn.GRUCell
	toLatent *nn.Linear
	dyn      *DynamicsNet
	dec      *nn.Linear
}

func New(cfg Config) (*LatentODE, error) {
	if cfg.ObsDim <= 0 || cfg.HiddenDim <= 0 || cfg.LatentDim <= 0 || cfg.DynHidden <= 0 {
		return nil, fmt.Errorf("node: all dimensions must be positive: %+v", cfg)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	return &LatentODE{
		cfg:      cfg,
		enc:      nn.NewGRUCell("enc", cfg.ObsDim, cfg.HiddenDim, rng),
		toLatent: nn.NewLinear("to_latent", cfg.HiddenDim, cfg.LatentDim, rng),
		dyn:      NewDynamicsNet(cfg.LatentDim, cfg.DynHidden, rng),
		dec:      nn.NewLinear("dec", cfg.LatentDim, cfg.ObsDim, rng),
	}, nil
}

func (m *LatentODE) Config() Config { return m.cfg }

func (m *LatentODE) Modules() []nn.Module {
	return []nn.Module{m.enc, m.toLatent, m.dyn, m.dec}
}

// Params flattens every trainable parameter of the model.
func (m *LatentODE) Params() []*nn.Param {
	ps := m.enc.Params()
	ps = append(ps, m.toLatent.Params()...)
	ps = append(ps, m.dyn.Params()...)
	ps = append(ps, m.dec.Params()...)
	return ps
}

// forwardCache keeps every intermediate the backward pass needs.
type forwardCache struct {
	gruInputs []*mat.VecDense
	gruCaches []*nn.GRUCache
	hFinal    *mat.VecDense
	z0        *mat.VecDense
	latents   []*mat.VecDense // z_1 .. z_H
	rkCaches  []*rk4Cache
	preds     []*mat.VecDense // decoded y_1 .. y_H
}

func (m *LatentODE) checkWindow(window [][]float64) error {
	if len(window) == 0 {
		return fmt.Errorf("node: empty window")
	}
	for i, row := range window {
		if len(row) != m.cfg.ObsDim {
			return fmt.Errorf("node: window row %d has dim %d, model expects %d", i, len(row), m.cfg.ObsDim)
		}
	}
	return nil
}

// forward runs the full encode-integrate-decode pipeline. The window
// is consumed in reverse so the final hidden state is dominated by the
// samples closest to the forecast origin.
func (m *LatentODE) forward(window [][]float64, horizon int, dt float64) (*forwardCache, error) {
	if err := m.checkWindow(window); err != nil {
		return nil, err
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("node: horizon must be positive, got %d", horizon)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("node: dt must be positive, got %f", dt)
	}

	c := &forwardCache{}

	h := m.enc.ZeroState()
	for i := len(window) - 1; i >= 0; i-- {
		x := mat.NewVecDense(m.cfg.ObsDim, append([]float64(nil), window[i]...))
		var gc *nn.GRUCache
		h, gc = m.enc.Step(x, h)
		c.gruInputs = append(c.gruInputs, x)
		c.gruCaches = append(c.gruCaches, gc)
	}
	c.hFinal = h

	c.z0 = m.toLatent.Forward(h)

	z := c.z0
	for k := 0; k < horizon; k++ {
		var rc *rk4Cache
		z, rc = m.dyn.rk4Step(z, dt)
		c.latents = append(c.latents, z)
		c.rkCaches = append(c.rkCaches, rc)
		c.preds = append(c.preds, m.dec.Forward(z))
	}

	return c, nil
}

// Predict forecasts horizon steps past the window. The returned rows
// are in the same (scaled) units as the window.
func (m *LatentODE) Predict(window [][]float64, horizon int, dt float64) ([][]float64, error) {
	c, err := m.forward(window, horizon, dt)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, horizon)
	for k, y := range c.preds {
		out[k] = append([]float64(nil), y.RawVector().Data...)
	}
	return out, nil
}

func (m *LatentODE) checkTarget(target [][]float64) error {
	for i, row := range target {
		if len(row) != m.cfg.ObsDim {
			return fmt.Errorf("node: target row %d has dim %d, model expects %d", i, len(row), m.cfg.ObsDim)
		}
	}
	return nil
}

// Loss computes the mean squared error of forecasting target from
// window without touching gradients.
func (m *LatentODE) Loss(window, target [][]float64, dt float64) (float64, error) {
	if err := m.checkTarget(target); err != nil {
		return 0, err
	}
	c, err := m.forward(window, len(target), dt)
	if err != nil {
		return 0, err
	}
	return mseLoss(c.preds, target), nil
}

// LossAndGrad computes the MSE loss and accumulates parameter
// gradients for one (window, target) sample. Prediction and target
// shapes are validated before any arithmetic; a horizon/dimension
// mismatch is an error, never a silent broadcast.
func (m *LatentODE) LossAndGrad(window, target [][]float64, dt float64) (float64, error) {
	if err := m.checkTarget(target); err != nil {
		return 0, err
	}

	horizon := len(target)
	c, err := m.forward(window, horizon, dt)
	if err != nil {
		return 0, err
	}

	loss := mseLoss(c.preds, target)
	norm := 2.0 / float64(horizon*m.cfg.ObsDim)

	// Decoder and solver backward, newest step first.
	var dz *mat.VecDense
	for k := horizon - 1; k >= 0; k-- {
		dy := mat.NewVecDense(m.cfg.ObsDim, nil)
		for i := 0; i < m.cfg.ObsDim; i++ {
			dy.SetVec(i, norm*(c.preds[k].AtVec(i)-target[k][i]))
		}
		dzk := m.dec.Backward(c.latents[k], dy)
		if dz == nil {
			dz = dzk
		} else {
			dz.AddVec(dz, dzk)
		}
		dz = m.dyn.rk4Backward(c.rkCaches[k], dz, dt)
	}

	// Encoder backward.
	dh := m.toLatent.Backward(c.hFinal, dz)
	for i := len(c.gruCaches) - 1; i >= 0; i-- {
		_, dh = m.enc.Backward(c.gruCaches[i], dh)
	}

	return loss, nil
}

func mseLoss(preds []*mat.VecDense, target [][]float64) float64 {
	sum := 0.0
	count := 0
	for k, y := range preds {
		for i := 0; i < y.Len(); i++ {
			d := y.AtVec(i) - target[k][i]
			sum += d * d
			count++
		}
	}
	return sum / float64(count)
}
