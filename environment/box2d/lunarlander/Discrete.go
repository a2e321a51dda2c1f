package lunarlander

import (
	"fmt"

	"github.com/samuelfneumann/locopg/environment"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Discrete actions
const (
	NoOp int = iota
	FireLeft
	FireMain
	FireRight
)

// Discrete implements the lunar lander environment with 4 discrete
// actions: do nothing, fire the left engine, fire the main engine, and
// fire the right engine. Engines fire at full power. See Continuous
// for a description of the state observations.
type Discrete struct {
	*lander
}

// NewDiscrete returns a new lunar lander environment with discrete
// actions
func NewDiscrete(task *Land, discount float64, seed uint64) (*Discrete,
	error) {
	l, err := newLander(task, discount, seed)
	if err != nil {
		return nil, fmt.Errorf("newDiscrete: %v", err)
	}
	return &Discrete{l}, nil
}

// ActionSpec returns the action specification of the environment
func (d *Discrete) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(NoOp)})
	upperBound := mat.NewVecDense(1, []float64{float64(FireRight)})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Discrete)
}

// Step takes one environmental step with the action index stored in a
func (d *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if d.body == nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: environment must " +
			"be reset before stepping")
	}

	var step ts.TimeStep
	var done bool
	switch int(a.AtVec(0)) {
	case NoOp:
		step, done = d.step(0, 0)
	case FireLeft:
		step, done = d.step(0, -1)
	case FireMain:
		step, done = d.step(1, 0)
	case FireRight:
		step, done = d.step(0, 1)
	default:
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action "+
			"selection, expected action ϵ [0, 1, 2, 3], received action "+
			"= %v", a.AtVec(0))
	}
	return step, done, nil
}
