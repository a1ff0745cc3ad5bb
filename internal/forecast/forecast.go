package forecast

import (
	"fmt"
	"math"

	"github.com/san-kum/odecast/internal/metrics"
	"github.com/san-kum/odecast/internal/node"
)

// Rollout forecasts steps samples past the seed window. The model
// predicts chunk steps at a time; each chunk is appended to the window
// and the oldest rows slide out, so long forecasts run closed-loop on
// the model's own output.
func Rollout(model *node.LatentODE, seed [][]float64, steps, chunk int, dt float64) ([][]float64, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("forecast: steps must be positive, got %d", steps)
	}
	if chunk <= 0 {
		chunk = steps
	}

	window := make([][]float64, len(seed))
	for i, row := range seed {
		window[i] = append([]float64(nil), row...)
	}

	out := make([][]float64, 0, steps)
	for len(out) < steps {
		n := chunk
		if remaining := steps - len(out); n > remaining {
			n = remaining
		}

		preds, err := model.Predict(window, n, dt)
		if err != nil {
			return nil, err
		}

		out = append(out, preds...)
		window = append(window, preds...)
		window = window[len(window)-len(seed):]
	}

	return out, nil
}

// Comparison holds a forecast next to the ground truth it should have
// reproduced.
type Comparison struct {
	Predicted [][]float64
	Truth     [][]float64
	Metrics   map[string]float64
	StepRMSE  []float64
}

// Compare seeds the model with series rows [start-windowLen, start)
// and rolls it forward steps samples against the rows the simulator
// actually produced.
func Compare(model *node.LatentODE, series [][]float64, windowLen, start, steps, chunk int, dt float64) (*Comparison, error) {
	if start < windowLen {
		return nil, fmt.Errorf("forecast: start %d leaves no room for a %d-sample window", start, windowLen)
	}
	if start+steps > len(series) {
		return nil, fmt.Errorf("forecast: series has %d rows, need %d", len(series), start+steps)
	}

	seed := series[start-windowLen : start]
	truth := series[start : start+steps]

	preds, err := Rollout(model, seed, steps, chunk, dt)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		Predicted: preds,
		Truth:     truth,
		Metrics:   make(map[string]float64),
		StepRMSE:  make([]float64, steps),
	}

	ms := metrics.Defaults()
	for k := range preds {
		for _, m := range ms {
			m.Observe(preds[k], truth[k])
		}

		sum := 0.0
		for i := range preds[k] {
			d := preds[k][i] - truth[k][i]
			sum += d * d
		}
		cmp.StepRMSE[k] = math.Sqrt(sum / float64(len(preds[k])))
	}

	for _, m := range ms {
		cmp.Metrics[m.Name()] = m.Value()
	}

	return cmp, nil
}
