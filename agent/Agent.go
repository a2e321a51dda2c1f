// Package agent defines the interface of learning agents and the
// learners they are built from
package agent

import (
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent selects actions and learns from single transitions.
//
// The target of a transition is computed by the caller, usually using
// the agent's own Value. The weight scales the policy gradient of the
// transition and is 1 unless an eligibility multiplier is in use.
type Agent interface {
	SelectAction(obs *mat.VecDense) (*mat.VecDense, error)

	// Value returns the state value of obs
	Value(obs *mat.VecDense) (float64, error)

	// Update updates the agent using a single transition. Agents that
	// learn from batches may store the transition and update later.
	Update(t ts.Transition, target, weight float64) error

	// Save and Load persist the agent's weights as files with the
	// given prefix
	Save(prefix string) error
	Load(prefix string) error
}

// StdReporter is an Agent that can report the current standard
// deviations of its policy
type StdReporter interface {
	Agent
	Std() []float64
}

// LossReporter is an Agent that can report the losses of its most
// recent policy and value function updates
type LossReporter interface {
	Agent
	Losses() (policy, value float64)
}

// PolicyFile returns the name of the file storing policy weights for a
// checkpoint prefix
func PolicyFile(prefix string) string { return prefix + "_pi.gob" }

// ValueFile returns the name of the file storing value function
// weights for a checkpoint prefix
func ValueFile(prefix string) string { return prefix + "_v.gob" }
