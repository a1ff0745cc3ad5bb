package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/odecast/internal/forecast"
)

var (
	predColor  = color.RGBA{R: 217, G: 95, B: 2, A: 255}
	truthColor = color.RGBA{R: 27, G: 158, B: 119, A: 255}
)

// SaveForecastPNG writes one predicted-vs-truth PNG per channel, named
// <prefix>_x<ch>.png.
func SaveForecastPNG(prefix string, cmp *forecast.Comparison) error {
	if len(cmp.Predicted) == 0 {
		return fmt.Errorf("export: empty comparison")
	}

	dim := len(cmp.Predicted[0])
	for ch := 0; ch < dim; ch++ {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("Forecast channel x%d", ch)
		p.X.Label.Text = "Step"
		p.Y.Label.Text = "Value"

		predLine, err := plotter.NewLine(channelXYs(cmp.Predicted, ch))
		if err != nil {
			return err
		}
		predLine.Color = predColor
		predLine.Width = vg.Points(1)

		truthLine, err := plotter.NewLine(channelXYs(cmp.Truth, ch))
		if err != nil {
			return err
		}
		truthLine.Color = truthColor
		truthLine.Width = vg.Points(1)

		p.Add(predLine, truthLine)
		p.Legend.Add("predicted", predLine)
		p.Legend.Add("truth", truthLine)
		p.Legend.Top = true

		path := fmt.Sprintf("%s_x%d.png", prefix, ch)
		if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
			return fmt.Errorf("export: save %s: %w", path, err)
		}
	}

	return nil
}

// SaveLossPNG writes the training loss curves as a single PNG.
func SaveLossPNG(path string, trainLoss, valLoss []float64) error {
	if len(trainLoss) == 0 {
		return fmt.Errorf("export: empty loss history")
	}

	p := plot.New()
	p.Title.Text = "Training loss"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "MSE"

	trainLine, err := plotter.NewLine(seriesXYs(trainLoss))
	if err != nil {
		return err
	}
	trainLine.Color = predColor
	trainLine.Width = vg.Points(1)
	p.Add(trainLine)
	p.Legend.Add("train", trainLine)

	if len(valLoss) > 0 {
		valLine, err := plotter.NewLine(seriesXYs(valLoss))
		if err != nil {
			return err
		}
		valLine.Color = truthColor
		valLine.Width = vg.Points(1)
		p.Add(valLine)
		p.Legend.Add("val", valLine)
	}

	p.Legend.Top = true
	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}

// SavePhasePNG plots two channels of a trajectory against each other,
// the usual way to look at an attractor.
func SavePhasePNG(path string, series [][]float64, chX, chY int) error {
	if len(series) == 0 {
		return fmt.Errorf("export: empty series")
	}
	if chX >= len(series[0]) || chY >= len(series[0]) {
		return fmt.Errorf("export: channel out of range for dim %d", len(series[0]))
	}

	pts := make(plotter.XYs, len(series))
	for i, row := range series {
		pts[i] = plotter.XY{X: row[chX], Y: row[chY]}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Phase portrait x%d vs x%d", chX, chY)
	p.X.Label.Text = fmt.Sprintf("x%d", chX)
	p.Y.Label.Text = fmt.Sprintf("x%d", chY)

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = truthColor
	line.Width = vg.Points(0.5)
	p.Add(line)

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}

func channelXYs(rows [][]float64, ch int) plotter.XYs {
	pts := make(plotter.XYs, len(rows))
	for i, row := range rows {
		pts[i] = plotter.XY{X: float64(i + 1), Y: row[ch]}
	}
	return pts
}

func seriesXYs(vals []float64) plotter.XYs {
	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		pts[i] = plotter.XY{X: float64(i + 1), Y: v}
	}
	return pts
}
