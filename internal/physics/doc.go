// Package physics provides dynamical systems used as synthetic data
// sources for forecasting experiments.
//
// Each model implements the [dynamo.System] interface, defining the
// differential equations governing the system's evolution:
//
//   - [Lorenz]: butterfly attractor, the canonical chaotic benchmark
//   - [Rossler]: band attractor with a single spiral lobe
//   - [VanDerPol]: nonlinear oscillator with a stable limit cycle
//
// All models implement [dynamo.Configurable] for runtime parameter
// adjustment.
package physics
