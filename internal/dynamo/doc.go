// Package dynamo provides core primitives for simulating dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepping interface
//   - [Result]: a sampled trajectory
//
// # Example
//
//	dyn := physics.NewLorenz()
//	integ := integrators.NewRK4()
//	s := sim.New(dyn, integ)
//	result, _ := s.Run(ctx, dyn.DefaultState(), cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel trajectory
// generation use sim.Ensemble, which manages one simulator per run.
package dynamo
