package metrics

import "math"

// Metric accumulates a forecast-error statistic over (prediction,
// truth) row pairs.
type Metric interface {
	Name() string
	Observe(pred, truth []float64)
	Value() float64
	Reset()
}

type RMSE struct {
	sumSq   float64
	samples int
}

func NewRMSE() *RMSE { return &RMSE{} }

func (r *RMSE) Name() string { return "rmse" }

func (r *RMSE) Observe(pred, truth []float64) {
	for i := range pred {
		if i >= len(truth) {
			break
		}
		d := pred[i] - truth[i]
		r.sumSq += d * d
		r.samples++
	}
}

func (r *RMSE) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sumSq / float64(r.samples))
}

func (r *RMSE) Reset() {
	r.sumSq = 0
	r.samples = 0
}

type MAE struct {
	sumAbs  float64
	samples int
}

func NewMAE() *MAE { return &MAE{} }

func (m *MAE) Name() string { return "mae" }

func (m *MAE) Observe(pred, truth []float64) {
	for i := range pred {
		if i >= len(truth) {
			break
		}
		m.sumAbs += math.Abs(pred[i] - truth[i])
		m.samples++
	}
}

func (m *MAE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sumAbs / float64(m.samples)
}

func (m *MAE) Reset() {
	m.sumAbs = 0
	m.samples = 0
}

type MaxError struct {
	max float64
}

func NewMaxError() *MaxError { return &MaxError{} }

func (m *MaxError) Name() string { return "max_error" }

func (m *MaxError) Observe(pred, truth []float64) {
	for i := range pred {
		if i >= len(truth) {
			break
		}
		if d := math.Abs(pred[i] - truth[i]); d > m.max {
			m.max = d
		}
	}
}

func (m *MaxError) Value() float64 { return m.max }

func (m *MaxError) Reset() { m.max = 0 }

// Defaults returns the standard forecast evaluation set.
func Defaults() []Metric {
	return []Metric{NewRMSE(), NewMAE(), NewMaxError()}
}
