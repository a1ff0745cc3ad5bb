// Package viz renders trajectories and training progress in the
// terminal: asciigraph charts for one-shot output and a bubbletea
// dashboard for live training sessions.
package viz
