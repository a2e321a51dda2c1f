package tracker

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	ts "github.com/samuelfneumann/locopg/timestep"
)

// episode returns the timesteps of an episode with the given rewards
func episode(rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, 0.99, nil, 0)}
	for i, r := range rewards {
		step := ts.New(ts.Mid, r, 0.99, nil, i+1)
		if i == len(rewards)-1 {
			step.SetEnd(ts.Terminal)
		}
		steps = append(steps, step)
	}
	return steps
}

func TestReturnAndLength(t *testing.T) {
	ret := NewReturn()
	length := NewEpisodeLength()

	steps := append(episode(1, 2, 3), episode(-1, 0.5)...)
	// A trailing episode which never finishes
	steps = append(steps, episode(10, 10)[:2]...)

	for _, step := range steps {
		ret.Track(step)
		length.Track(step)
	}

	if want := []float64{6, -0.5}; !reflect.DeepEqual(ret.Data(), want) {
		t.Errorf("track: incorrect returns \n\twant(%v) \n\thave(%v)", want,
			ret.Data())
	}
	if want := []int{3, 2}; !reflect.DeepEqual(length.Data(), want) {
		t.Errorf("track: incorrect lengths \n\twant(%v) \n\thave(%v)", want,
			length.Data())
	}
	if ret.Current() != 10 {
		t.Errorf("current: incorrect partial return \n\twant(10) "+
			"\n\thave(%v)", ret.Current())
	}

	filename := filepath.Join(t.TempDir(), "returns.bin")
	if err := ret.Save(filename); err != nil {
		t.Fatal(err)
	}
	data, err := LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(data, ret.Data()) {
		t.Errorf("loadData: incorrect data \n\twant(%v) \n\thave(%v)",
			ret.Data(), data)
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	e := h.Record(0, []float64{3, 3, 3}, []int{3, 3, 3})
	if e.MeanReturn != 3 || e.MeanLength != 3 {
		t.Errorf("record: incorrect means \n\twant(3, 3) \n\thave(%v, %v)",
			e.MeanReturn, e.MeanLength)
	}

	empty := h.Record(1, nil, nil)
	if !math.IsNaN(empty.MeanReturn) || !math.IsNaN(empty.MeanLength) {
		t.Errorf("record: means of empty epoch should be NaN \n\thave(%v, %v)",
			empty.MeanReturn, empty.MeanLength)
	}

	filename := filepath.Join(t.TempDir(), "history.bin")
	if err := h.Save(filename); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadHistory(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Epochs) != 2 || loaded.Epochs[0].MeanReturn != 3 {
		t.Errorf("loadHistory: incorrect history \n\twant(%v) \n\thave(%v)",
			h.Epochs, loaded.Epochs)
	}

	var report bytes.Buffer
	if err := h.Report(&report, "lander"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(report.String(), "mean episodic return") {
		t.Error("report: chart subtitle missing from report")
	}
}

func TestPlot(t *testing.T) {
	h := NewHistory()
	h.Record(0, []float64{1, 3}, []int{10, 20})
	h.Record(1, nil, nil)
	h.Record(2, []float64{5}, []int{30})

	filename := filepath.Join(t.TempDir(), "progress.png")
	if err := h.Plot(filename); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(filename); err != nil || info.Size() == 0 {
		t.Errorf("plot: no image written to %v: %v", filename, err)
	}

	if err := NewHistory().Plot(filename); err == nil {
		t.Error("plot: expected error for history without episodes")
	}
}
