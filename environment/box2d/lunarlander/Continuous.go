package lunarlander

import (
	"fmt"

	"github.com/samuelfneumann/locopg/environment"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Continuous implements the lunar lander environment with continuous
// actions. The lander starts near the top of a walled viewport and
// must land on the flat helipad at the centre of the moon's surface.
//
// State observations are vectors consisting of the following features
// in the following order:
//
//  1. The x distance from the lander to the center of the viewport,
//     in [-1, 1]
//  2. The y distance from the lander's legs to the helipad, in
//     units of the maximum possible distance
//  3. The x velocity of the lander
//  4. The y velocity of the lander
//  5. The angle of the lander, normalized to [-π, π)
//  6. The angular velocity of the lander
//  7. Whether the left leg has contact with the ground
//  8. Whether the right leg has contact with the ground
//
// Actions are 2-dimensional. The first coordinate is the main engine
// throttle: [-1, 0] keeps the engine off and (0, 1] throttles it from
// 50% to 100% power. The second coordinate fires the left engine on
// [-1, -0.5), keeps both side engines off on [-0.5, 0.5], and fires
// the right engine on (0.5, 1]. Actions outside [-1, 1] are clipped.
//
// The Starter of the task must return a vector of 3 elements: the
// initial x position, the initial y position, and the magnitude of the
// random initial force. See DefaultStarter.
type Continuous struct {
	*lander
}

// NewContinuous returns a new lunar lander environment with continuous
// actions
func NewContinuous(task *Land, discount float64,
	seed uint64) (*Continuous, error) {
	l, err := newLander(task, discount, seed)
	if err != nil {
		return nil, fmt.Errorf("newContinuous: %v", err)
	}
	return &Continuous{l}, nil
}

// Step takes one environmental step with action a
func (c *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != 2 {
		return ts.TimeStep{}, true, fmt.Errorf("step: invalid action "+
			"dimension \n\twant(2) \n\thave(%v)", a.Len())
	}
	if c.body == nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: environment must " +
			"be reset before stepping")
	}

	step, done := c.step(a.AtVec(0), a.AtVec(1))
	return step, done, nil
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(2, nil)
	lowerBound := mat.NewVecDense(2, []float64{-1., -1.})
	upperBound := mat.NewVecDense(2, []float64{1., 1.})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}
