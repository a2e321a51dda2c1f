package agent

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/locopg/initwfn"
	"github.com/samuelfneumann/locopg/network"
	"github.com/samuelfneumann/locopg/solver"
)

// Config describes the function approximators and solvers of an
// agent. A Config can be JSON serialized; the solvers and weight
// initializer are stored with their types.
type Config struct {
	// Hidden layer sizes shared by the policy and value function
	HiddenSizes []int

	// Weight init function for all neural nets
	InitWFn *initwfn.InitWFn

	PolicySolver *solver.Solver
	VSolver      *solver.Solver

	// Hidden layer activation of the value function, stored by name.
	// If nil, each agent uses its own default.
	VActivation *network.Activation `json:",omitempty"`

	// Number of gradient steps to take for the value function per
	// update
	ValueGradSteps int

	// Number of transitions per update
	BatchSize int

	Seed uint64
}

// NewConfig returns a Config using Adam solvers with the given step
// sizes and Glorot normal weight initialization
func NewConfig(hiddenSizes []int, piLR, vLR float64, valueGradSteps,
	batchSize int, seed uint64) (Config, error) {
	init, err := initwfn.NewGlorotN(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("newConfig: %v", err)
	}

	// Losses are already means over the batch
	policySolver, err := solver.NewDefaultAdam(piLR, 1)
	if err != nil {
		return Config{}, fmt.Errorf("newConfig: %v", err)
	}
	vSolver, err := solver.NewDefaultAdam(vLR, 1)
	if err != nil {
		return Config{}, fmt.Errorf("newConfig: %v", err)
	}

	return Config{
		HiddenSizes:    hiddenSizes,
		InitWFn:        init,
		PolicySolver:   policySolver,
		VSolver:        vSolver,
		ValueGradSteps: valueGradSteps,
		BatchSize:      batchSize,
		Seed:           seed,
	}, nil
}

// Validate returns an error describing why the configuration is
// invalid, or nil if it is valid
func (c Config) Validate() error {
	for i, size := range c.HiddenSizes {
		if size <= 0 {
			return fmt.Errorf("validate: hidden layer %v must have a "+
				"positive size, got %v", i, size)
		}
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer")
	}
	if c.PolicySolver == nil || c.VSolver == nil {
		return fmt.Errorf("validate: policy and value function solvers " +
			"must be specified")
	}
	if c.ValueGradSteps < 0 {
		return fmt.Errorf("validate: value gradient steps must be "+
			"non-negative, got %v", c.ValueGradSteps)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be positive, got %v",
			c.BatchSize)
	}
	return nil
}

// ValueActivation returns the hidden layer activation of the value
// function, falling back to def if none is configured
func (c Config) ValueActivation(
	def func() *network.Activation) func() *network.Activation {
	if c.VActivation == nil {
		return def
	}
	activation := *c.VActivation
	return func() *network.Activation {
		a := activation
		return &a
	}
}

// Override overwrites the fields of c with those present in the JSON
// file at filename. Fields missing from the file keep their values.
func (c *Config) Override(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("override: %v", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("override: could not decode %v: %v", filename, err)
	}
	return c.Validate()
}
