package dataset

import (
	"errors"
	"fmt"
)

// ErrShortSeries indicates a series too short for the requested
// window/horizon pair.
var ErrShortSeries = errors.New("dataset: series shorter than window + horizon")

// Sample pairs an observed window with the samples that follow it.
// Window is windowLen x dim, Target is horizon x dim.
type Sample struct {
	Window [][]float64
	Target [][]float64
}

// Set is an ordered collection of windowed samples cut from one series.
type Set struct {
	Samples   []Sample
	WindowLen int
	Horizon   int
	Dim       int
}

func (s *Set) Len() int { return len(s.Samples) }

// MakeWindows slices a series into overlapping windows of windowLen
// rows, each paired with the horizon rows that follow. Windows share
// underlying rows with the series; callers must not mutate them.
func MakeWindows(series [][]float64, windowLen, horizon, stride int) (*Set, error) {
	if windowLen <= 0 || horizon <= 0 || stride <= 0 {
		return nil, fmt.Errorf("dataset: windowLen, horizon and stride must be positive (got %d, %d, %d)",
			windowLen, horizon, stride)
	}
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	if len(series) < windowLen+horizon {
		return nil, fmt.Errorf("%w: %d rows, need %d", ErrShortSeries, len(series), windowLen+horizon)
	}

	dim := len(series[0])
	set := &Set{WindowLen: windowLen, Horizon: horizon, Dim: dim}

	for start := 0; start+windowLen+horizon <= len(series); start += stride {
		set.Samples = append(set.Samples, Sample{
			Window: series[start : start+windowLen],
			Target: series[start+windowLen : start+windowLen+horizon],
		})
	}

	return set, nil
}

// Split divides a set chronologically: the first trainFrac of samples
// train, the rest validate. Shuffling across the boundary would leak
// future values into training.
func Split(set *Set, trainFrac float64) (train, val *Set) {
	n := int(float64(set.Len()) * trainFrac)
	if n < 1 {
		n = 1
	}
	if n > set.Len() {
		n = set.Len()
	}

	train = &Set{Samples: set.Samples[:n], WindowLen: set.WindowLen, Horizon: set.Horizon, Dim: set.Dim}
	val = &Set{Samples: set.Samples[n:], WindowLen: set.WindowLen, Horizon: set.Horizon, Dim: set.Dim}
	return train, val
}
