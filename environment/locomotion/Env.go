package locomotion

import (
	"fmt"

	"github.com/samuelfneumann/locopg/environment"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Env wraps a locomotion simulator whose observations follow the
// layout described in the package documentation. The number of joints
// is derived from the first observation after a reset and stays fixed
// for the lifetime of the Env.
//
// If the Env overrides the simulator, the reward and termination of
// each step are recomputed with the Env's Reward instead of using the
// values the simulator reports. Episodes still end when the simulator
// reports an episode end, for example due to its own time limit.
type Env struct {
	environment.Environment

	numFeet  int
	initialZ float64
	override bool

	reward    Reward
	derived   bool
	obsLength int
	ender     environment.Ender
}

// NewEnv wraps e. The simulator's robot has numFeet feet and starts
// with a torso height of initialZ.
func NewEnv(e environment.Environment, numFeet int, initialZ float64,
	override bool) (*Env, error) {
	if numFeet < 0 {
		return nil, fmt.Errorf("newEnv: number of feet must be "+
			"non-negative, got %v", numFeet)
	}

	env := &Env{
		Environment: e,
		numFeet:     numFeet,
		initialZ:    initialZ,
		override:    override,
	}
	env.ender = environment.NewFunctionEnder(func(obs *mat.VecDense) bool {
		return env.reward.Done(obs)
	}, ts.Terminal)

	return env, nil
}

// Reset resets the environment, deriving the number of joints on the
// first call
func (e *Env) Reset() (ts.TimeStep, error) {
	step, err := e.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	obsLength := step.Observation.Len()
	if !e.derived {
		numJoints := (obsLength - JointsOffset - e.numFeet) / 2
		if numJoints <= 0 || JointsOffset+2*numJoints+e.numFeet != obsLength {
			return ts.TimeStep{}, fmt.Errorf("reset: observation of "+
				"length %v does not match the locomotion layout with %v "+
				"feet", obsLength, e.numFeet)
		}
		e.reward = NewReward(numJoints, e.initialZ)
		e.obsLength = obsLength
		e.derived = true
	} else if obsLength != e.obsLength {
		return ts.TimeStep{}, fmt.Errorf("reset: observation length "+
			"changed \n\twant(%v) \n\thave(%v)", e.obsLength, obsLength)
	}

	return step, nil
}

// Step takes one environmental step with action a
func (e *Env) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if !e.derived {
		return ts.TimeStep{}, true, fmt.Errorf("step: environment must " +
			"be reset before stepping")
	}

	step, done, err := e.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}

	if e.override {
		step.Reward = e.reward.Reward(step.Observation, a)
		if e.ender.End(&step) {
			done = true
		}
	}

	return step, done, nil
}

// NumJoints returns the number of joints of the robot. It is zero until
// the environment has been reset.
func (e *Env) NumJoints() int {
	return e.reward.NumJoints
}

// Reward returns the reward function of the environment
func (e *Env) Reward() Reward {
	return e.reward
}
