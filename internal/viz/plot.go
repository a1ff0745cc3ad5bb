package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

const (
	plotWidth  = 72
	plotHeight = 12
)

// PlotChannel renders one channel of a trajectory as an ASCII chart.
func PlotChannel(series [][]float64, ch int, caption string) string {
	if len(series) == 0 || ch < 0 || ch >= len(series[0]) {
		return ""
	}
	vals := make([]float64, len(series))
	for i, row := range series {
		vals[i] = row[ch]
	}
	return asciigraph.Plot(vals,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
}

// PlotSeries renders every channel stacked vertically.
func PlotSeries(series [][]float64, name string) string {
	if len(series) == 0 {
		return ""
	}
	var b strings.Builder
	for ch := range series[0] {
		b.WriteString(PlotChannel(series, ch, fmt.Sprintf("%s x%d", name, ch)))
		b.WriteString("\n\n")
	}
	return b.String()
}

// PlotLoss renders the training loss curve.
func PlotLoss(trainLoss []float64) string {
	if len(trainLoss) < 2 {
		return ""
	}
	return asciigraph.Plot(trainLoss,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("train loss (mse)"),
	)
}

// PlotOverlay renders prediction against truth for one channel in a
// single chart.
func PlotOverlay(pred, truth [][]float64, ch int, caption string) string {
	if len(pred) == 0 || ch < 0 || ch >= len(pred[0]) {
		return ""
	}
	p := make([]float64, len(pred))
	for i, row := range pred {
		p[i] = row[ch]
	}
	t := make([]float64, len(truth))
	for i, row := range truth {
		t[i] = row[ch]
	}
	return asciigraph.PlotMany([][]float64{t, p},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
	)
}

// Sparkline renders a compact single-row chart, handy inside the TUI.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - min) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(chars[idx])
	}
	return b.String()
}
