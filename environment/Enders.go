package environment

import (
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// StepLimit ends episodes once they reach a number of steps. Episodes
// ended this way are marked with end type timestep.StepLimit, so they
// are bootstrapped rather than treated as terminal.
type StepLimit struct {
	steps int
}

// NewStepLimit returns a StepLimit ending episodes after steps steps.
// A non-positive steps never ends an episode.
func NewStepLimit(steps int) StepLimit {
	return StepLimit{steps}
}

func (s StepLimit) End(t *ts.TimeStep) bool {
	if s.steps <= 0 || t.Number < s.steps {
		return false
	}
	t.SetEnd(ts.StepLimit)
	return true
}

// FunctionEnder ends episodes when a predicate of the observation
// holds, e.g. when a locomotion robot falls over
type FunctionEnder struct {
	done    func(*mat.VecDense) bool
	endType ts.EndType
}

// NewFunctionEnder returns an Ender which marks a step as the last of
// its episode with end type endType when done returns true for its
// observation
func NewFunctionEnder(done func(*mat.VecDense) bool,
	endType ts.EndType) *FunctionEnder {
	return &FunctionEnder{done, endType}
}

func (f *FunctionEnder) End(t *ts.TimeStep) bool {
	if !f.done(t.Observation) {
		return false
	}
	t.SetEnd(f.endType)
	return true
}
