// Package gym provides access to OpenAI Gym environments such as
// BipedalWalker, LunarLander, and the pybullet locomotion suite.
//
// All environments only work with their default tasks and episode
// cutoffs.
//
// This is made possible through the Go bindings for OpenAI Gym,
// found at https://github.com/samuelfneumann/GoGym.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	env "github.com/samuelfneumann/locopg/environment"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Environment names used by the training commands
const (
	BipedalWalker          string = "BipedalWalker-v3"
	LunarLanderContinuous  string = "LunarLanderContinuous-v2"
	LunarLander            string = "LunarLander-v2"
	HopperBullet           string = "HopperBulletEnv-v0"
	DefaultDiscreteEnvName string = LunarLander
)

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
	discount    float64
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite.
func New(name string, discount float64, seed uint64) (*GymEnv, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment %v: %v",
			name, err)
	}
	goGymEnv.Seed(int(seed))

	return &GymEnv{
		Environment: goGymEnv,
		discount:    discount,
	}, nil
}

// Step takes a single environmental step. Discrete actions are
// converted to the nearest integer index by GoGym.
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, mat.VecDenseCopyOf(obs),
		g.currentStep.Number+1)
	if done {
		t.SetEnd(ts.Terminal)
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, g.discount, mat.VecDenseCopyOf(obs), 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	low, high, _ := bounds(g.ObservationSpace())
	shape := mat.NewVecDense(low.Len(), nil)

	return env.NewSpec(shape, env.Observation, low, high, env.Continuous)
}

// ActionSpec returns the action specification of the environment.
// Discrete action spaces are described by a single dimension bounded
// by the first and last action index.
func (g *GymEnv) ActionSpec() env.Spec {
	low, high, cardinality := bounds(g.ActionSpace())
	shape := mat.NewVecDense(low.Len(), nil)

	return env.NewSpec(shape, env.Action, low, high, cardinality)
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	return env.NewDiscountSpec(g.discount)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}

// Shutdown releases the Python interpreter used by all GymEnvs. No
// GymEnv may be used afterwards.
func Shutdown() {
	gogym.Close()
}

// space is implemented by GoGym's observation and action spaces
type space interface {
	Low() []*mat.VecDense
	High() []*mat.VecDense
}

func bounds(s space) (low, high *mat.VecDense,
	cardinality env.Cardinality) {
	switch s.(type) {
	case *gogym.BoxSpace:
		cardinality = env.Continuous
	case *gogym.DiscreteSpace:
		cardinality = env.Discrete
	default:
		panic(fmt.Sprintf("bounds: invalid space type %T, package gym "+
			"supports only GoGym's BoxSpace or DiscreteSpace", s))
	}

	low = mat.VecDenseCopyOf(s.Low()[0])
	high = mat.VecDenseCopyOf(s.High()[0])
	return low, high, cardinality
}
