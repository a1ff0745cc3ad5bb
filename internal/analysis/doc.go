// Package analysis characterises generated trajectories before they
// are handed to the forecaster: frequency content via FFT and chaos
// strength via the largest Lyapunov exponent.
package analysis
