package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/odecast/internal/train"
)

func sineSeries(n int) [][]float64 {
	series := make([][]float64, n)
	for i := range series {
		th := float64(i) * 0.2
		series[i] = []float64{math.Sin(th), math.Cos(th)}
	}
	return series
}

func TestPlotChannel(t *testing.T) {
	out := PlotChannel(sineSeries(40), 0, "sine")
	if !strings.Contains(out, "sine") {
		t.Error("expected caption in output")
	}

	if out := PlotChannel(sineSeries(40), 5, "bad"); out != "" {
		t.Error("expected empty output for out-of-range channel")
	}
	if out := PlotChannel(nil, 0, "empty"); out != "" {
		t.Error("expected empty output for empty series")
	}
}

func TestPlotSeries(t *testing.T) {
	out := PlotSeries(sineSeries(40), "osc")
	if !strings.Contains(out, "osc x0") || !strings.Contains(out, "osc x1") {
		t.Error("expected one chart per channel")
	}
}

func TestPlotLoss(t *testing.T) {
	if out := PlotLoss([]float64{0.9, 0.5, 0.3}); !strings.Contains(out, "train loss") {
		t.Error("expected loss caption")
	}
	if out := PlotLoss([]float64{0.9}); out != "" {
		t.Error("expected empty output for a single point")
	}
}

func TestSparkline(t *testing.T) {
	out := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if len([]rune(out)) != 8 {
		t.Errorf("expected 8 runes, got %d", len([]rune(out)))
	}

	flat := Sparkline(nil, 5)
	if flat != "─────" {
		t.Errorf("unexpected empty sparkline: %q", flat)
	}
}

func TestMonitorUpdate(t *testing.T) {
	m := NewMonitor("lorenz", 10)

	next, _ := m.Update(ProgressMsg(train.Progress{Epoch: 1, TrainLoss: 0.5, ValLoss: 0.6, GradNorm: 1.2}))
	mon := next.(Monitor)
	if len(mon.trainHist) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(mon.trainHist))
	}

	next, _ = mon.Update(ProgressMsg(train.Progress{Epoch: 2, TrainLoss: 0.3, ValLoss: math.NaN(), GradNorm: 0.8}))
	mon = next.(Monitor)
	if len(mon.valHist) != 1 {
		t.Errorf("NaN val loss should not be recorded, got %d entries", len(mon.valHist))
	}

	view := mon.View()
	if !strings.Contains(view, "LORENZ") {
		t.Error("expected system name in view")
	}

	next, cmd := mon.Update(DoneMsg{})
	mon = next.(Monitor)
	if !mon.done {
		t.Error("expected done after DoneMsg")
	}
	if cmd == nil {
		t.Error("expected quit command after DoneMsg")
	}
}
