package agent

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samuelfneumann/locopg/agent/policy"
	"github.com/samuelfneumann/locopg/network"
	"github.com/samuelfneumann/locopg/solver"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

func newAdam(t *testing.T, stepSize float64) *solver.Solver {
	s, err := solver.NewDefaultAdam(stepSize, 1)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestValueFunctionUpdate(t *testing.T) {
	features := 3
	v, err := NewValueFunction(features, 1, []int{16}, network.TanH,
		G.GlorotN(1.0), newAdam(t, 1e-2), 80)
	if err != nil {
		t.Fatal(err)
	}

	obs := mat.NewVecDense(features, []float64{0.5, -0.1, 0.3})
	target := 5.0

	before, err := v.Value(obs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Update(obs.RawVector().Data, []float64{target}); err != nil {
		t.Fatal(err)
	}
	after, err := v.Value(obs)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(after-target) >= math.Abs(before-target) {
		t.Errorf("update: value did not move toward target \n\twant(%v) "+
			"\n\tbefore(%v) \n\tafter(%v)", target, before, after)
	}

	if _, err := v.Update(obs.RawVector().Data, []float64{1, 2}); err == nil {
		t.Error("update: expected error for invalid number of targets")
	}
}

func TestPolicyGradientDirection(t *testing.T) {
	features, actionDims := 4, 2
	pol, err := policy.NewGaussian(features, actionDims, 1, []int{8},
		G.GlorotN(1.0), 0)
	if err != nil {
		t.Fatal(err)
	}
	pg, err := NewPolicyGradient(pol, 1, newAdam(t, 1e-3))
	if err != nil {
		t.Fatal(err)
	}

	obs := mat.NewVecDense(features, []float64{0.2, 0.1, -0.3, 0.4})
	action := []float64{0.5, -0.5}
	logProb := func() float64 {
		mean, std, err := pol.Distribution(obs)
		if err != nil {
			t.Fatal(err)
		}
		return policy.GaussianLogLikelihood(action, mean, std)
	}

	before := logProb()
	if _, err := pg.Update(obs.RawVector().Data, action, []float64{1.0},
		[]float64{1.0}); err != nil {
		t.Fatal(err)
	}
	after := logProb()

	if after <= before {
		t.Errorf("update: positive advantage did not increase log "+
			"probability \n\tbefore(%v) \n\tafter(%v)", before, after)
	}
}

func TestPolicyGradientZeroWeight(t *testing.T) {
	features, actionDims := 4, 2
	pol, err := policy.NewSharedStdGaussian(features, actionDims, 1,
		[]int{8}, G.GlorotN(1.0), 0)
	if err != nil {
		t.Fatal(err)
	}
	pg, err := NewPolicyGradient(pol, 1, newAdam(t, 1e-2))
	if err != nil {
		t.Fatal(err)
	}

	obs := []float64{0.2, 0.1, -0.3, 0.4}
	action := []float64{0.5, -0.5}
	before := pol.Std()

	if _, err := pg.Update(obs, action, []float64{10.0},
		[]float64{0.0}); err != nil {
		t.Fatal(err)
	}
	for i, std := range pol.Std() {
		if std != before[i] {
			t.Errorf("update: zero weight changed the policy \n\twant(%v) "+
				"\n\thave(%v)", before[i], std)
		}
	}

	if _, err := pg.Update(obs, action, []float64{10.0},
		[]float64{1.0}); err != nil {
		t.Fatal(err)
	}
	changed := false
	for i, std := range pol.Std() {
		changed = changed || std != before[i]
	}
	if !changed {
		t.Error("update: unit weight did not change the policy")
	}
}

func TestValueFunctionSaveLoad(t *testing.T) {
	features := 2
	newV := func(seed float64) *ValueFunction {
		v, err := NewValueFunction(features, 1, []int{4}, network.ReLU,
			G.Gaussian(0, seed), newAdam(t, 1e-3), 1)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
	src, dest := newV(1.0), newV(2.0)

	filename := filepath.Join(t.TempDir(), "value.gob")
	if err := src.Save(filename); err != nil {
		t.Fatal(err)
	}
	if err := dest.Load(filename); err != nil {
		t.Fatal(err)
	}

	obs := mat.NewVecDense(features, []float64{0.7, -1.3})
	want, err := src.Value(obs)
	if err != nil {
		t.Fatal(err)
	}
	have, err := dest.Value(obs)
	if err != nil {
		t.Fatal(err)
	}
	if want != have {
		t.Errorf("load: incorrect value after load \n\twant(%v) \n\thave(%v)",
			want, have)
	}
}

func TestConfigValidate(t *testing.T) {
	c, err := NewConfig([]int{64, 32}, 1e-3, 1e-3, 80, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("validate: unexpected error: %v", err)
	}

	bad := c
	bad.HiddenSizes = []int{64, 0}
	if err := bad.Validate(); err == nil {
		t.Error("validate: expected error for empty hidden layer")
	}

	bad = c
	bad.BatchSize = 0
	if err := bad.Validate(); err == nil {
		t.Error("validate: expected error for zero batch size")
	}
}

func TestConfigOverride(t *testing.T) {
	c, err := NewConfig([]int{64, 32}, 1e-3, 1e-3, 80, 1, 0)
	if err != nil {
		t.Fatal(err)
	}

	filename := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"PolicySolver": {"Type": "Vanilla",
			"Config": {"StepSize": 0.1, "Batch": 1, "Clip": -1}},
		"InitWFn": {"Type": "GlorotU", "Config": {"Gain": 1.0}},
		"ValueGradSteps": 3
	}`
	if err := os.WriteFile(filename, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if err := c.Override(filename); err != nil {
		t.Fatal(err)
	}
	if c.PolicySolver.Type != solver.Vanilla {
		t.Errorf("override: incorrect policy solver \n\twant(%v) \n\thave(%v)",
			solver.Vanilla, c.PolicySolver.Type)
	}
	if c.VSolver.Type != solver.Adam {
		t.Errorf("override: value solver overwritten \n\twant(%v) "+
			"\n\thave(%v)", solver.Adam, c.VSolver.Type)
	}
	if c.ValueGradSteps != 3 {
		t.Errorf("override: incorrect value gradient steps \n\twant(3) "+
			"\n\thave(%v)", c.ValueGradSteps)
	}
	if len(c.HiddenSizes) != 2 {
		t.Errorf("override: hidden sizes overwritten \n\twant(%v) "+
			"\n\thave(%v)", []int{64, 32}, c.HiddenSizes)
	}
}

func TestConfigValueActivation(t *testing.T) {
	c, err := NewConfig([]int{8}, 1e-3, 1e-3, 80, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if have := c.ValueActivation(network.TanH)(); have.String() != "tanh" {
		t.Errorf("valueActivation: default not used \n\twant(tanh) "+
			"\n\thave(%v)", have)
	}

	filename := filepath.Join(t.TempDir(), "config.json")
	data := `{"VActivation": "relu"}`
	if err := os.WriteFile(filename, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Override(filename); err != nil {
		t.Fatal(err)
	}
	if have := c.ValueActivation(network.TanH)(); have.String() != "relu" {
		t.Errorf("valueActivation: configured activation not used "+
			"\n\twant(relu) \n\thave(%v)", have)
	}

	encoded, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(encoded), `"VActivation":"relu"`) {
		t.Errorf("marshal: activation not encoded by name \n\thave(%s)",
			encoded)
	}

	if err := os.WriteFile(filename, []byte(`{"VActivation": "sigmoid"}`),
		0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Override(filename); err == nil {
		t.Error("override: expected error for unknown activation")
	}
}
