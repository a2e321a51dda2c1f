package tracker

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
)

// Epoch holds the statistics of the episodes of a single training
// epoch. The means of an epoch without episodes are NaN.
type Epoch struct {
	Epoch      int
	Returns    []float64
	Lengths    []int
	MeanReturn float64
	MeanLength float64
}

// History records the statistics of training epochs
type History struct {
	Epochs []Epoch
}

// NewHistory returns a new, empty History
func NewHistory() *History {
	return &History{}
}

// Record records the episode returns and lengths of an epoch and
// returns the recorded statistics
func (h *History) Record(epoch int, returns []float64, lengths []int) Epoch {
	floatLengths := make([]float64, len(lengths))
	for i := range lengths {
		floatLengths[i] = float64(lengths[i])
	}

	e := Epoch{
		Epoch:      epoch,
		Returns:    append([]float64{}, returns...),
		Lengths:    append([]int{}, lengths...),
		MeanReturn: mean(returns),
		MeanLength: mean(floatLengths),
	}
	h.Epochs = append(h.Epochs, e)
	return e
}

// mean returns the mean of x, or NaN if x is empty
func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// Save gob-encodes the History to filename
func (h *History) Save(filename string) error {
	return save(filename, h.Epochs)
}

// LoadHistory loads a History saved with Save
func LoadHistory(filename string) (*History, error) {
	var epochs []Epoch
	if err := load(filename, &epochs); err != nil {
		return nil, fmt.Errorf("loadHistory: %v", err)
	}
	return &History{Epochs: epochs}, nil
}

// Report renders an HTML page charting the mean return and mean
// episode length of each epoch to w
func (h *History) Report(w io.Writer, title string) error {
	var epochs []string
	returns := make([]opts.LineData, 0, len(h.Epochs))
	lengths := make([]opts.LineData, 0, len(h.Epochs))
	for _, e := range h.Epochs {
		epochs = append(epochs, fmt.Sprintf("%d", e.Epoch))
		returns = append(returns, lineData(e.MeanReturn))
		lengths = append(lengths, lineData(e.MeanLength))
	}

	returnChart := charts.NewLine()
	returnChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "mean episodic return",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)
	returnChart.SetXAxis(epochs).AddSeries("return", returns)

	lengthChart := charts.NewLine()
	lengthChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "mean episode length",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)
	lengthChart.SetXAxis(epochs).AddSeries("episode length", lengths)

	page := components.NewPage()
	page.AddCharts(returnChart, lengthChart)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("report: could not render charts: %v", err)
	}
	return nil
}

// ReportFile writes the report of Report to filename
func (h *History) ReportFile(filename, title string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("reportFile: %v", err)
	}
	defer f.Close()

	return h.Report(f, title)
}

// lineData returns the chart point of value, using "-" for missing
// values which cannot be JSON encoded
func lineData(value float64) opts.LineData {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: value}
}
