package experiment

import (
	"bytes"
	"log"
	"math"
	"os"
	"reflect"
	"strings"
	"testing"

	env "github.com/samuelfneumann/locopg/environment"
	"github.com/samuelfneumann/locopg/experiment/checkpointer"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// chain is an environment whose episodes last length steps, each with
// a reward of 1. The final step of each episode ends with end.
type chain struct {
	length int
	end    ts.EndType
	count  int
	resets int
}

func (c *chain) Reset() (ts.TimeStep, error) {
	c.count = 0
	c.resets++
	return ts.New(ts.First, 0, 0.99, c.obs(), 0), nil
}

func (c *chain) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	c.count++
	step := ts.New(ts.Mid, 1.0, 0.99, c.obs(), c.count)
	if c.count >= c.length {
		step.SetEnd(c.end)
		return step, true, nil
	}
	return step, false, nil
}

func (c *chain) obs() *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(c.count)})
}

func (c *chain) DiscountSpec() env.Spec { return env.NewDiscountSpec(0.99) }

func (c *chain) ObservationSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(1, nil), env.Observation,
		mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{100}),
		env.Continuous)
}

func (c *chain) ActionSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(1, nil), env.Action,
		mat.NewVecDense(1, []float64{-1}), mat.NewVecDense(1, []float64{1}),
		env.Continuous)
}

// recorder is an agent with a constant state value which records its
// updates and checkpoints
type recorder struct {
	value float64

	targets   []float64
	weights   []float64
	terminals []bool
	rewards   []float64
	saved     []string
}

func (r *recorder) SelectAction(obs *mat.VecDense) (*mat.VecDense, error) {
	return mat.NewVecDense(1, []float64{0}), nil
}

func (r *recorder) Value(obs *mat.VecDense) (float64, error) {
	return r.value, nil
}

func (r *recorder) Update(t ts.Transition, target, weight float64) error {
	r.targets = append(r.targets, target)
	r.weights = append(r.weights, weight)
	r.terminals = append(r.terminals, t.Terminal)
	r.rewards = append(r.rewards, t.Reward)
	return nil
}

func (r *recorder) Save(prefix string) error {
	r.saved = append(r.saved, prefix)
	return nil
}

func (r *recorder) Load(prefix string) error { return nil }

func newTrainer(t *testing.T, e env.Environment, a *recorder,
	c Config) *Trainer {
	trainer, err := NewTrainer(e, a, c, nil, log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	return trainer
}

func config(p Protocol, batch int) Config {
	return Config{
		Protocol:   p,
		BatchSize:  batch,
		MaxEpLen:   1000,
		CapPenalty: -100,
		Discount:   0.99,
		Epochs:     1,
	}
}

func TestTrainEpochProtocols(t *testing.T) {
	tests := []struct {
		protocol    Protocol
		batch       int
		wantReturns []float64
		wantLengths []int
	}{
		{FixedSteps, 9, []float64{3, 3, 3}, []int{3, 3, 3}},
		{FixedSteps, 7, []float64{3, 3}, []int{3, 3}},
		{StepBudget, 7, []float64{3, 3, 1}, []int{3, 3, 1}},
		{StepBudget, 9, []float64{3, 3, 3}, []int{3, 3, 3}},
		{FixedSteps, 2, nil, nil},
	}

	for _, test := range tests {
		a := &recorder{}
		trainer := newTrainer(t, &chain{length: 3, end: ts.Terminal}, a,
			config(test.protocol, test.batch))

		returns, lengths, err := trainer.TrainEpoch()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(returns, test.wantReturns) &&
			!(len(returns) == 0 && len(test.wantReturns) == 0) {
			t.Errorf("trainEpoch: incorrect returns for %v with batch %v "+
				"\n\twant(%v) \n\thave(%v)", test.protocol, test.batch,
				test.wantReturns, returns)
		}
		if !reflect.DeepEqual(lengths, test.wantLengths) &&
			!(len(lengths) == 0 && len(test.wantLengths) == 0) {
			t.Errorf("trainEpoch: incorrect lengths for %v with batch %v "+
				"\n\twant(%v) \n\thave(%v)", test.protocol, test.batch,
				test.wantLengths, lengths)
		}
		if len(a.targets) != test.batch {
			t.Errorf("trainEpoch: incorrect number of updates \n\twant(%v) "+
				"\n\thave(%v)", test.batch, len(a.targets))
		}
	}
}

func TestTargets(t *testing.T) {
	a := &recorder{value: 0.5}
	trainer := newTrainer(t, &chain{length: 3, end: ts.Terminal}, a,
		config(FixedSteps, 6))
	if _, _, err := trainer.TrainEpoch(); err != nil {
		t.Fatal(err)
	}

	bootstrapped := 1.0 + 0.99*0.5
	want := []float64{bootstrapped, bootstrapped, 1.0, bootstrapped,
		bootstrapped, 1.0}
	for i := range want {
		if math.Abs(a.targets[i]-want[i]) > 1e-12 {
			t.Errorf("trainEpoch: incorrect target on step %v \n\twant(%v) "+
				"\n\thave(%v)", i, want[i], a.targets[i])
		}
	}
	wantTerminals := []bool{false, false, true, false, false, true}
	if !reflect.DeepEqual(a.terminals, wantTerminals) {
		t.Errorf("trainEpoch: incorrect terminal flags \n\twant(%v) "+
			"\n\thave(%v)", wantTerminals, a.terminals)
	}
	for i, w := range a.weights {
		if w != 1.0 {
			t.Errorf("trainEpoch: weight %v should be 1 without eligibility, "+
				"got %v", i, w)
		}
	}
}

func TestEligibility(t *testing.T) {
	a := &recorder{}
	c := config(StepBudget, 5)
	c.Eligibility = true
	trainer := newTrainer(t, &chain{length: 3, end: ts.Terminal}, a, c)
	if _, _, err := trainer.TrainEpoch(); err != nil {
		t.Fatal(err)
	}

	γ := c.Discount
	want := []float64{1, γ, γ * γ, 1, γ}
	for i := range want {
		if math.Abs(a.weights[i]-want[i]) > 1e-12 {
			t.Errorf("trainEpoch: incorrect eligibility on step %v "+
				"\n\twant(%v) \n\thave(%v)", i, want[i], a.weights[i])
		}
	}
}

func TestCapPenalty(t *testing.T) {
	for _, protocol := range []Protocol{StepBudget, FixedSteps} {
		a := &recorder{value: 0.5}
		c := config(protocol, 8)
		c.MaxEpLen = 4
		trainer := newTrainer(t, &chain{length: 100, end: ts.Terminal}, a, c)

		returns, lengths, err := trainer.TrainEpoch()
		if err != nil {
			t.Fatal(err)
		}

		wantReturn := 4.0
		wantReward := 1.0
		if protocol == StepBudget {
			wantReturn += c.CapPenalty
			wantReward += c.CapPenalty
		}
		if want := []float64{wantReturn, wantReturn}; !reflect.DeepEqual(
			returns, want) {
			t.Errorf("trainEpoch: incorrect returns for %v \n\twant(%v) "+
				"\n\thave(%v)", protocol, want, returns)
		}
		if want := []int{4, 4}; !reflect.DeepEqual(lengths, want) {
			t.Errorf("trainEpoch: incorrect lengths for %v \n\twant(%v) "+
				"\n\thave(%v)", protocol, want, lengths)
		}

		// Capped steps are not terminal and are bootstrapped
		if a.terminals[3] {
			t.Errorf("trainEpoch: capped step marked terminal for %v",
				protocol)
		}
		if want := wantReward + 0.99*0.5; math.Abs(a.targets[3]-want) >
			1e-12 {
			t.Errorf("trainEpoch: incorrect target of capped step for %v "+
				"\n\twant(%v) \n\thave(%v)", protocol, want, a.targets[3])
		}
		if a.rewards[3] != wantReward {
			t.Errorf("trainEpoch: incorrect reward of capped step for %v "+
				"\n\twant(%v) \n\thave(%v)", protocol, wantReward,
				a.rewards[3])
		}
	}
}

func TestCapPenaltyNotOnTerminalStep(t *testing.T) {
	a := &recorder{}
	c := config(StepBudget, 3)
	c.MaxEpLen = 3
	trainer := newTrainer(t, &chain{length: 3, end: ts.Terminal}, a, c)

	returns, _, err := trainer.TrainEpoch()
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{3}; !reflect.DeepEqual(returns, want) {
		t.Errorf("trainEpoch: terminal step penalized \n\twant(%v) "+
			"\n\thave(%v)", want, returns)
	}
}

func TestStepLimitBootstraps(t *testing.T) {
	a := &recorder{value: 2.0}
	trainer := newTrainer(t, &chain{length: 2, end: ts.StepLimit}, a,
		config(FixedSteps, 4))
	_, lengths, err := trainer.TrainEpoch()
	if err != nil {
		t.Fatal(err)
	}

	if want := []int{2, 2}; !reflect.DeepEqual(lengths, want) {
		t.Errorf("trainEpoch: incorrect lengths \n\twant(%v) \n\thave(%v)",
			want, lengths)
	}
	for i, terminal := range a.terminals {
		if terminal {
			t.Errorf("trainEpoch: step %v cut off by a step limit marked "+
				"terminal", i)
		}
	}
	if want := 1.0 + 0.99*2.0; a.targets[1] != want {
		t.Errorf("trainEpoch: incorrect target \n\twant(%v) \n\thave(%v)",
			want, a.targets[1])
	}
}

func TestTrain(t *testing.T) {
	a := &recorder{}
	c := config(FixedSteps, 9)
	c.InitEpoch = 1
	c.Epochs = 6
	check := checkpointer.NewNEpoch(2, c.Epochs-1, a, "models/test")

	var out bytes.Buffer
	trainer, err := NewTrainer(&chain{length: 3, end: ts.Terminal}, a, c,
		check, log.New(&out, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := trainer.Train(); err != nil {
		t.Fatal(err)
	}

	if want := []int{2, 4, 5}; !reflect.DeepEqual(check.Saved(), want) {
		t.Errorf("train: incorrect checkpoints \n\twant(%v) \n\thave(%v)",
			want, check.Saved())
	}
	if want := "models/test_5"; a.saved[len(a.saved)-1] != want {
		t.Errorf("train: incorrect final checkpoint \n\twant(%v) "+
			"\n\thave(%v)", want, a.saved[len(a.saved)-1])
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("train: incorrect number of epoch reports \n\twant(5) "+
			"\n\thave(%v)", len(lines))
	}
	if want := "epoch: 1, return: 3, episode length: 3"; lines[0] != want {
		t.Errorf("train: incorrect epoch report \n\twant(%q) \n\thave(%q)",
			want, lines[0])
	}
	if n := len(trainer.History().Epochs); n != 5 {
		t.Errorf("train: incorrect history length \n\twant(5) \n\thave(%v)", n)
	}
	if trainer.Updates() != 45 {
		t.Errorf("train: incorrect number of updates \n\twant(45) "+
			"\n\thave(%v)", trainer.Updates())
	}
}

func TestEmptyEpochReport(t *testing.T) {
	var out bytes.Buffer
	trainer, err := NewTrainer(&chain{length: 10, end: ts.Terminal},
		&recorder{}, config(FixedSteps, 5), nil, log.New(&out, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := trainer.Train(); err != nil {
		t.Fatal(err)
	}

	want := "epoch: 0, return: NaN, episode length: NaN"
	if have := strings.TrimSpace(out.String()); have != want {
		t.Errorf("train: incorrect report of epoch without episodes "+
			"\n\twant(%q) \n\thave(%q)", want, have)
	}
}

func TestInvalidConfig(t *testing.T) {
	c := config("Unknown", 10)
	if _, err := NewTrainer(&chain{length: 3}, &recorder{}, c, nil,
		log.New(&bytes.Buffer{}, "", 0)); err == nil {
		t.Error("newTrainer: expected error for unknown protocol")
	}
}

func TestEvaluate(t *testing.T) {
	var out bytes.Buffer
	returns, err := Evaluate(&chain{length: 3, end: ts.Terminal},
		&recorder{}, EvalConfig{Episodes: 2}, log.New(&out, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{3, 3}; !reflect.DeepEqual(returns, want) {
		t.Errorf("evaluate: incorrect returns \n\twant(%v) \n\thave(%v)",
			want, returns)
	}
	if !strings.Contains(out.String(), "Done. Total Reward = 3") {
		t.Errorf("evaluate: total reward not logged:\n%v", out.String())
	}

	// Test episodes are cut off at the maximum episode length
	returns, err = Evaluate(&chain{length: 100, end: ts.Terminal},
		&recorder{}, EvalConfig{Episodes: 1, MaxEpLen: 5},
		log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{5}; !reflect.DeepEqual(returns, want) {
		t.Errorf("evaluate: incorrect returns \n\twant(%v) \n\thave(%v)",
			want, returns)
	}
}

// stdRecorder is a recorder which reports fixed standard deviations
type stdRecorder struct {
	recorder
}

func (r *stdRecorder) Std() []float64 { return []float64{0.5, 0.25} }

func TestStdReportNotVerbose(t *testing.T) {
	c := config(FixedSteps, 5)
	c.DebugEvery = 2

	var out bytes.Buffer
	trainer, err := NewTrainer(&chain{length: 10, end: ts.Terminal},
		&stdRecorder{}, c, nil, log.New(&out, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := trainer.TrainEpoch(); err != nil {
		t.Fatal(err)
	}

	// Updates 0, 2 and 4 are reported
	have := strings.Count(out.String(), "stds: [0.5 0.25]")
	if have != 3 {
		t.Errorf("trainEpoch: incorrect number of std reports \n\twant(3) "+
			"\n\thave(%v) \n%v", have, out.String())
	}
	if strings.Contains(out.String(), "loss") {
		t.Errorf("trainEpoch: losses reported when not verbose \n%v",
			out.String())
	}
}

func TestTrainResumedPastFinalEpoch(t *testing.T) {
	a := &recorder{}
	c := config(FixedSteps, 9)
	c.InitEpoch = 5
	c.Epochs = 3
	check := checkpointer.NewNEpoch(2, c.Epochs-1, a, "models/test")

	trainer, err := NewTrainer(&chain{length: 3, end: ts.Terminal}, a, c,
		check, log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := trainer.Train(); err != nil {
		t.Fatal(err)
	}

	if want := []int{2}; !reflect.DeepEqual(check.Saved(), want) {
		t.Errorf("train: final epoch not saved \n\twant(%v) \n\thave(%v)",
			want, check.Saved())
	}
	if trainer.Updates() != 0 {
		t.Errorf("train: incorrect number of updates \n\twant(0) "+
			"\n\thave(%v)", trainer.Updates())
	}
}

func ExampleTrainer_Train() {
	c := Config{
		Protocol:  FixedSteps,
		BatchSize: 6,
		MaxEpLen:  1000,
		Discount:  0.99,
		Epochs:    2,
	}
	trainer, err := NewTrainer(&chain{length: 3, end: ts.Terminal},
		&recorder{}, c, nil, log.New(os.Stdout, "", 0))
	if err != nil {
		panic(err)
	}
	if err := trainer.Train(); err != nil {
		panic(err)
	}
	// Output:
	// epoch: 0, return: 3, episode length: 3
	// epoch: 1, return: 3, episode length: 3
}
