// Package actorcritic implements a one-step actor-critic algorithm for
// continuous actions which updates its policy and value function on
// every transition
package actorcritic

import (
	"fmt"

	"github.com/samuelfneumann/locopg/agent"
	"github.com/samuelfneumann/locopg/agent/policy"
	"github.com/samuelfneumann/locopg/buffer/onestep"
	"github.com/samuelfneumann/locopg/network"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// ActorCritic implements a one-step actor-critic agent. Given a
// transition (s, a, r, s') with target G, the policy takes a single
// gradient step on
//
//	-I * log π(a|s) * (G - v(s))
//
// where v(s) is computed before the value function update and I is
// the weight of the transition. The value function then takes the
// configured number of gradient steps on (v(s) - G)².
type ActorCritic struct {
	pg *agent.PolicyGradient
	v  *agent.ValueFunction

	features   int
	actionDims int

	policyLoss float64
	valueLoss  float64
}

// NewGaussian returns a new ActorCritic with a Gaussian policy. The
// policy and, unless configured otherwise, the value function use ReLU
// hidden layers.
func NewGaussian(features, actionDims int, c agent.Config) (*ActorCritic,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newGaussian: %v", err)
	}

	pol, err := policy.NewGaussian(features, actionDims, 1, c.HiddenSizes,
		c.InitWFn.InitWFn(), c.Seed)
	if err != nil {
		return nil, fmt.Errorf("newGaussian: %v", err)
	}

	return New(pol, features, actionDims, c, network.ReLU)
}

// NewSharedStdGaussian returns a new ActorCritic with a Gaussian
// policy whose standard deviation is shared across states. The policy
// and, unless configured otherwise, the value function use tanh hidden
// layers.
func NewSharedStdGaussian(features, actionDims int,
	c agent.Config) (*ActorCritic, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newSharedStdGaussian: %v", err)
	}

	pol, err := policy.NewSharedStdGaussian(features, actionDims, 1,
		c.HiddenSizes, c.InitWFn.InitWFn(), c.Seed)
	if err != nil {
		return nil, fmt.Errorf("newSharedStdGaussian: %v", err)
	}

	return New(pol, features, actionDims, c, network.TanH)
}

// New returns a new ActorCritic which learns the behaviour policy
// pol. The hidden layers of the value function use activation unless
// c sets VActivation.
func New(pol policy.Policy, features, actionDims int, c agent.Config,
	activation func() *network.Activation) (*ActorCritic, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if c.BatchSize != 1 {
		return nil, fmt.Errorf("new: actor-critic updates on single "+
			"transitions \n\twant(batch size 1) \n\thave(%v)", c.BatchSize)
	}

	pg, err := agent.NewPolicyGradient(pol, 1, c.PolicySolver)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	v, err := agent.NewValueFunction(features, 1, c.HiddenSizes,
		c.ValueActivation(activation), c.InitWFn.InitWFn(), c.VSolver,
		c.ValueGradSteps)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &ActorCritic{
		pg:         pg,
		v:          v,
		features:   features,
		actionDims: actionDims,
	}, nil
}

// SelectAction samples an action in state obs
func (a *ActorCritic) SelectAction(obs *mat.VecDense) (*mat.VecDense,
	error) {
	return a.pg.SelectAction(obs)
}

// Value returns the value of state obs
func (a *ActorCritic) Value(obs *mat.VecDense) (float64, error) {
	return a.v.Value(obs)
}

// Update performs one policy update and the value function updates
// on transition t with the given target and weight
func (a *ActorCritic) Update(t ts.Transition, target, weight float64) error {
	if t.State.Len() != a.features {
		return fmt.Errorf("update: illegal state length \n\twant(%v) "+
			"\n\thave(%v)", a.features, t.State.Len())
	}
	if t.Action.Len() != a.actionDims {
		return fmt.Errorf("update: illegal action length \n\twant(%v) "+
			"\n\thave(%v)", a.actionDims, t.Action.Len())
	}

	value, err := a.v.Value(t.State)
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}
	advantage := onestep.Advantage(target, value)

	state := t.State.RawVector().Data
	a.policyLoss, err = a.pg.Update(state, t.Action.RawVector().Data,
		[]float64{advantage}, []float64{weight})
	if err != nil {
		return fmt.Errorf("update: could not update policy: %v", err)
	}

	a.valueLoss, err = a.v.Update(state, []float64{target})
	if err != nil {
		return fmt.Errorf("update: could not update value function: %v", err)
	}
	return nil
}

// Std returns the standard deviations of the policy if they do not
// depend on the state, and nil otherwise
func (a *ActorCritic) Std() []float64 {
	if pol, ok := a.pg.Policy().(policy.StdReporter); ok {
		return pol.Std()
	}
	return nil
}

// Losses returns the losses of the most recent policy and value
// function updates
func (a *ActorCritic) Losses() (float64, float64) {
	return a.policyLoss, a.valueLoss
}

// Save saves the weights of the policy and value function using the
// file prefix
func (a *ActorCritic) Save(prefix string) error {
	if err := a.pg.Save(agent.PolicyFile(prefix)); err != nil {
		return fmt.Errorf("save: could not save policy: %v", err)
	}
	if err := a.v.Save(agent.ValueFile(prefix)); err != nil {
		return fmt.Errorf("save: could not save value function: %v", err)
	}
	return nil
}

// Load loads the weights of the policy and value function saved with
// the file prefix
func (a *ActorCritic) Load(prefix string) error {
	if err := a.pg.Load(agent.PolicyFile(prefix)); err != nil {
		return fmt.Errorf("load: could not load policy: %v", err)
	}
	if err := a.v.Load(agent.ValueFile(prefix)); err != nil {
		return fmt.Errorf("load: could not load value function: %v", err)
	}
	return nil
}
