// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should end. If End returns true, the
// argument TimeStep is modified so that it is the last step of the
// episode.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Environment implements a simulated environment. Reset begins a new
// episode. Step applies an action and returns the next TimeStep along
// with whether the episode ended on that step.
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}

// Renderer is implemented by environments that can draw their current
// state to an image file
type Renderer interface {
	Render(filename string) error
}

// Closer is implemented by environments that hold external resources
type Closer interface {
	Close() error
}

// NumActions returns the number of discrete actions an environment
// accepts. It returns 0 if the environment has continuous actions.
func NumActions(e Environment) int {
	spec := e.ActionSpec()
	if spec.Cardinality != Discrete {
		return 0
	}
	return int(spec.UpperBound.AtVec(0)-spec.LowerBound.AtVec(0)) + 1
}
