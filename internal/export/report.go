// Package export renders forecast results to HTML reports, PNG plots,
// and plain CSV/JSON files.
package export

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/san-kum/odecast/internal/forecast"
)

// Report bundles everything a forecast report can show.
type Report struct {
	Title      string
	System     string
	Comparison *forecast.Comparison
	TrainLoss  []float64
	ValLoss    []float64
}

// WriteHTML renders the report as a self-contained HTML page: one
// predicted-vs-truth line chart per channel, the per-step RMSE, and
// the training loss curves when present.
func WriteHTML(w io.Writer, r *Report) error {
	if r.Comparison == nil {
		return fmt.Errorf("export: report has no comparison")
	}

	page := components.NewPage()
	page.PageTitle = r.Title

	dim := 0
	if len(r.Comparison.Predicted) > 0 {
		dim = len(r.Comparison.Predicted[0])
	}

	for ch := 0; ch < dim; ch++ {
		page.AddCharts(channelChart(r, ch))
	}

	if len(r.Comparison.StepRMSE) > 0 {
		page.AddCharts(stepRMSEChart(r.Comparison.StepRMSE))
	}

	if len(r.TrainLoss) > 0 {
		page.AddCharts(lossChart(r.TrainLoss, r.ValLoss))
	}

	return page.Render(w)
}

// WriteHTMLFile is WriteHTML to a file path.
func WriteHTMLFile(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteHTML(f, r)
}

func channelChart(r *Report, ch int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s channel x%d", r.System, ch),
			Subtitle: fmt.Sprintf("closed-loop forecast, %d steps", len(r.Comparison.Predicted)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "value"}),
	)

	steps := make([]string, len(r.Comparison.Predicted))
	pred := make([]opts.LineData, len(r.Comparison.Predicted))
	truth := make([]opts.LineData, len(r.Comparison.Truth))
	for i := range r.Comparison.Predicted {
		steps[i] = fmt.Sprintf("%d", i+1)
		pred[i] = opts.LineData{Value: r.Comparison.Predicted[i][ch]}
	}
	for i := range r.Comparison.Truth {
		truth[i] = opts.LineData{Value: r.Comparison.Truth[i][ch]}
	}

	line.SetXAxis(steps).
		AddSeries("predicted", pred).
		AddSeries("truth", truth)
	return line
}

func stepRMSEChart(stepRMSE []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Forecast error growth",
			Subtitle: "RMSE per forecast step",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rmse"}),
	)

	steps := make([]string, len(stepRMSE))
	data := make([]opts.LineData, len(stepRMSE))
	for i, v := range stepRMSE {
		steps[i] = fmt.Sprintf("%d", i+1)
		data[i] = opts.LineData{Value: v}
	}

	line.SetXAxis(steps).AddSeries("rmse", data)
	return line
}

func lossChart(trainLoss, valLoss []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Training loss"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "epoch"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "mse"}),
	)

	epochs := make([]string, len(trainLoss))
	train := make([]opts.LineData, len(trainLoss))
	for i, v := range trainLoss {
		epochs[i] = fmt.Sprintf("%d", i+1)
		train[i] = opts.LineData{Value: v}
	}

	line.SetXAxis(epochs).AddSeries("train", train)

	// Validation losses can be NaN when no validation split exists.
	var val []opts.LineData
	hasVal := false
	for _, v := range valLoss {
		if !math.IsNaN(v) {
			hasVal = true
		}
		val = append(val, opts.LineData{Value: v})
	}
	if hasVal {
		line.AddSeries("val", val)
	}

	return line
}
