package tracker

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot saves a plot of the mean return of each epoch to filename. The
// image format is taken from the file extension, e.g. png or svg.
// Epochs without episodes are left out.
func (h *History) Plot(filename string) error {
	p := plot.New()
	p.Title.Text = "Learning Progress"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Mean Return"

	pts := make(plotter.XYs, 0, len(h.Epochs))
	for _, e := range h.Epochs {
		if math.IsNaN(e.MeanReturn) || math.IsInf(e.MeanReturn, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(e.Epoch), Y: e.MeanReturn})
	}
	if len(pts) == 0 {
		return fmt.Errorf("plot: no epochs with episodes to plot")
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot: could not create line plotter: %v", err)
	}
	p.Add(line)
	p.Legend.Add("mean return", line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("plot: could not save plot: %v", err)
	}
	return nil
}
