// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes why an episode ended
type EndType int

const (
	// Terminal episodes reached a terminal state of the task
	Terminal EndType = iota

	// StepLimit episodes were cut off by the episode step cap
	StepLimit

	// Budget episodes were cut off because the epoch's step budget
	// was exhausted
	Budget
)

func (e EndType) String() string {
	switch e {
	case Terminal:
		return "Terminal"
	case StepLimit:
		return "StepLimit"
	default:
		return "Budget"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType
	Reward      float64
	Discount    float64
	Observation *mat.VecDense
	Number      int

	// End is only meaningful on the last step of an episode
	End EndType
}

// New returns a new TimeStep
func New(t StepType, r, d float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Discount: d, Observation: o,
		Number: n}
}

// SetEnd marks the TimeStep as the last of its episode with the given
// ending type.
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	t.End = e
}

// First returns whether a TimeStep is the first in an environment
func (t TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t TimeStep) Last() bool {
	return t.StepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}

// Transition is a single (s, a, r, γ, s') tuple produced by one
// environment step. Terminal is true only when s' is a terminal state
// of the task, never when the episode was cut off by a step cap.
type Transition struct {
	State     *mat.VecDense
	Action    *mat.VecDense
	Reward    float64
	Discount  float64
	NextState *mat.VecDense
	Terminal  bool
}

// NewTransition creates a transition from two consecutive timesteps
// and the action taken between them.
func NewTransition(step TimeStep, action *mat.VecDense,
	nextStep TimeStep, terminal bool) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		Discount:  nextStep.Discount,
		NextState: nextStep.Observation,
		Terminal:  terminal,
	}
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Reward: %.2f  |  Discount: %.2f  |  "+
		"Terminal: %v", t.Reward, t.Discount, t.Terminal)
}
