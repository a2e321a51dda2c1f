// Package vpg implements vanilla policy gradient with a learned state
// value baseline for discrete actions. Transitions are batched and the
// policy and value function are updated once per full batch.
package vpg

import (
	"fmt"

	"github.com/samuelfneumann/locopg/agent"
	"github.com/samuelfneumann/locopg/agent/policy"
	"github.com/samuelfneumann/locopg/buffer/onestep"
	"github.com/samuelfneumann/locopg/network"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// VPG implements a batch vanilla policy gradient agent with a
// categorical policy. Given a batch of states, actions, and targets
// G, the policy takes a single gradient step on
//
//	-mean(log π(a|s) * (G - v(s)))
//
// where v(s) is computed before the value function update. The value
// function then takes the configured number of gradient steps on
// mean((v(s) - G)²).
//
// Transition weights are ignored.
type VPG struct {
	pg *agent.PolicyGradient
	v  *agent.ValueFunction

	buffer     *onestep.Buffer
	features   int
	numActions int
	batchSize  int

	policyLoss float64
	valueLoss  float64
}

// New returns a new VPG agent over numActions actions. The policy and,
// unless configured otherwise, the value function use tanh hidden
// layers.
func New(features, numActions int, c agent.Config) (*VPG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	pol, err := policy.NewCategorical(features, numActions, 1,
		c.HiddenSizes, c.InitWFn.InitWFn(), c.Seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	pg, err := agent.NewPolicyGradient(pol, c.BatchSize, c.PolicySolver)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	v, err := agent.NewValueFunction(features, c.BatchSize, c.HiddenSizes,
		c.ValueActivation(network.TanH), c.InitWFn.InitWFn(), c.VSolver,
		c.ValueGradSteps)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	buffer, err := onestep.New(features, 1, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &VPG{
		pg:         pg,
		v:          v,
		buffer:     buffer,
		features:   features,
		numActions: numActions,
		batchSize:  c.BatchSize,
	}, nil
}

// SelectAction samples an action index in state obs
func (v *VPG) SelectAction(obs *mat.VecDense) (*mat.VecDense, error) {
	return v.pg.SelectAction(obs)
}

// Value returns the value of state obs
func (v *VPG) Value(obs *mat.VecDense) (float64, error) {
	return v.v.Value(obs)
}

// Update stores transition t with its target. Once BatchSize
// transitions have been stored, the policy and value function are
// updated on the whole batch and the batch is discarded.
func (v *VPG) Update(t ts.Transition, target, _ float64) error {
	if t.Action.Len() != 1 {
		return fmt.Errorf("update: discrete actions must have length 1, "+
			"got %v", t.Action.Len())
	}
	if action := int(t.Action.AtVec(0)); action < 0 ||
		action >= v.numActions {
		return fmt.Errorf("update: illegal action %v for %v actions",
			action, v.numActions)
	}

	err := v.buffer.Store(t.State.RawVector().Data, t.Action.RawVector().Data,
		target)
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}

	if !v.buffer.Full() {
		return nil
	}
	if err := v.step(); err != nil {
		return fmt.Errorf("update: %v", err)
	}
	return nil
}

// step performs the batch update on the contents of the buffer
func (v *VPG) step() error {
	states, actions, targets, err := v.buffer.Get()
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	advantages := make([]float64, len(targets))
	for i := range targets {
		state := states[i*v.features : (i+1)*v.features]
		value, err := v.v.Value(mat.NewVecDense(v.features, state))
		if err != nil {
			return fmt.Errorf("step: %v", err)
		}
		advantages[i] = onestep.Advantage(targets[i], value)
	}

	weights := make([]float64, len(targets))
	for i := range weights {
		weights[i] = 1.0
	}

	v.policyLoss, err = v.pg.Update(states, actions, advantages, weights)
	if err != nil {
		return fmt.Errorf("step: could not update policy: %v", err)
	}

	v.valueLoss, err = v.v.Update(states, targets)
	if err != nil {
		return fmt.Errorf("step: could not update value function: %v", err)
	}
	return nil
}

// Pending returns the number of transitions waiting for the next batch
// update
func (v *VPG) Pending() int {
	return v.buffer.Len()
}

// Losses returns the losses of the most recent policy and value
// function updates
func (v *VPG) Losses() (float64, float64) {
	return v.policyLoss, v.valueLoss
}

// Save saves the weights of the policy and value function using the
// file prefix
func (v *VPG) Save(prefix string) error {
	if err := v.pg.Save(agent.PolicyFile(prefix)); err != nil {
		return fmt.Errorf("save: could not save policy: %v", err)
	}
	if err := v.v.Save(agent.ValueFile(prefix)); err != nil {
		return fmt.Errorf("save: could not save value function: %v", err)
	}
	return nil
}

// Load loads the weights of the policy and value function saved with
// the file prefix
func (v *VPG) Load(prefix string) error {
	if err := v.pg.Load(agent.PolicyFile(prefix)); err != nil {
		return fmt.Errorf("load: could not load policy: %v", err)
	}
	if err := v.v.Load(agent.ValueFile(prefix)); err != nil {
		return fmt.Errorf("load: could not load value function: %v", err)
	}
	return nil
}
