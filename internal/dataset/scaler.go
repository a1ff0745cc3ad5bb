package dataset

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptySeries indicates a trajectory with no samples.
	ErrEmptySeries = errors.New("dataset: empty series")

	// ErrNotFitted indicates Transform/Inverse before Fit.
	ErrNotFitted = errors.New("dataset: scaler not fitted")
)

// Scaler normalizes a multichannel series per channel. Fit learns the
// statistics, Transform and Inverse map between observable and scaled
// units. Fit on the training segment only to avoid leaking the
// validation range.
type Scaler interface {
	Fit(series [][]float64) error
	Transform(series [][]float64) ([][]float64, error)
	Inverse(series [][]float64) ([][]float64, error)
	Name() string
}

// MinMaxScaler maps each channel to [0, 1]. A constant channel keeps
// range 1 so the transform stays invertible.
type MinMaxScaler struct {
	Min []float64
	Max []float64
}

func NewMinMax() *MinMaxScaler { return &MinMaxScaler{} }

func (m *MinMaxScaler) Name() string { return "minmax" }

func (m *MinMaxScaler) Fit(series [][]float64) error {
	cols, err := columns(series)
	if err != nil {
		return err
	}

	m.Min = make([]float64, len(cols))
	m.Max = make([]float64, len(cols))
	for i, col := range cols {
		m.Min[i] = floats.Min(col)
		m.Max[i] = floats.Max(col)
	}
	return nil
}

func (m *MinMaxScaler) Transform(series [][]float64) ([][]float64, error) {
	if m.Min == nil {
		return nil, ErrNotFitted
	}
	return apply(series, len(m.Min), func(v float64, ch int) float64 {
		return (v - m.Min[ch]) / m.span(ch)
	})
}

func (m *MinMaxScaler) Inverse(series [][]float64) ([][]float64, error) {
	if m.Min == nil {
		return nil, ErrNotFitted
	}
	return apply(series, len(m.Min), func(v float64, ch int) float64 {
		return v*m.span(ch) + m.Min[ch]
	})
}

func (m *MinMaxScaler) span(ch int) float64 {
	s := m.Max[ch] - m.Min[ch]
	if s == 0 {
		return 1
	}
	return s
}

// StandardScaler centers each channel to zero mean and unit variance.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

func NewStandard() *StandardScaler { return &StandardScaler{} }

func (s *StandardScaler) Name() string { return "standard" }

func (s *StandardScaler) Fit(series [][]float64) error {
	cols, err := columns(series)
	if err != nil {
		return err
	}

	s.Mean = make([]float64, len(cols))
	s.Std = make([]float64, len(cols))
	for i, col := range cols {
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[i] = mean
		s.Std[i] = std
	}
	return nil
}

func (s *StandardScaler) Transform(series [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	return apply(series, len(s.Mean), func(v float64, ch int) float64 {
		return (v - s.Mean[ch]) / s.Std[ch]
	})
}

func (s *StandardScaler) Inverse(series [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	return apply(series, len(s.Mean), func(v float64, ch int) float64 {
		return v*s.Std[ch] + s.Mean[ch]
	})
}

func columns(series [][]float64) ([][]float64, error) {
	if len(series) == 0 || len(series[0]) == 0 {
		return nil, ErrEmptySeries
	}
	dim := len(series[0])
	cols := make([][]float64, dim)
	for i := range cols {
		cols[i] = make([]float64, len(series))
	}
	for r, row := range series {
		if len(row) != dim {
			return nil, fmt.Errorf("dataset: ragged series at row %d (%d != %d)", r, len(row), dim)
		}
		for c, v := range row {
			cols[c][r] = v
		}
	}
	return cols, nil
}

func apply(series [][]float64, dim int, fn func(v float64, ch int) float64) ([][]float64, error) {
	out := make([][]float64, len(series))
	for r, row := range series {
		if len(row) != dim {
			return nil, fmt.Errorf("dataset: row %d has dim %d, scaler fitted for %d", r, len(row), dim)
		}
		out[r] = make([]float64, dim)
		for c, v := range row {
			out[r][c] = fn(v, c)
		}
	}
	return out, nil
}
