// Package experiment implements the training loop and evaluation of
// agents on environments
package experiment

import "fmt"

// Protocol determines how an epoch of training is split into episodes
type Protocol string

const (
	// FixedSteps epochs run for exactly BatchSize environment steps.
	// The episode running when the epoch ends is not recorded.
	FixedSteps Protocol = "FixedSteps"

	// StepBudget epochs run until BatchSize environment steps have
	// been taken. The episode running when the epoch ends is recorded,
	// and the reward of a non-terminal step that reaches MaxEpLen is
	// penalized by CapPenalty.
	StepBudget Protocol = "StepBudget"
)

// DefaultCapPenalty is the reward penalty of reaching the maximum
// episode length under the StepBudget protocol
const DefaultCapPenalty float64 = -100

// DefaultDebugEvery is the default number of updates between debug
// reports
const DefaultDebugEvery int = 200

// Config configures a Trainer
type Config struct {
	Protocol

	// Number of environment steps per epoch
	BatchSize int

	// Episodes are cut off after MaxEpLen steps. Cut off episodes are
	// not terminal and are bootstrapped.
	MaxEpLen int

	CapPenalty float64
	Discount   float64

	// Eligibility determines whether updates are weighted by the
	// eligibility multiplier I, which starts at 1 each episode and
	// is multiplied by the discount after every update
	Eligibility bool

	// Training runs for epochs [InitEpoch, Epochs)
	InitEpoch int
	Epochs    int

	Verbose    bool
	DebugEvery int
}

// Validate returns an error describing why the configuration is
// invalid, or nil if it is valid
func (c Config) Validate() error {
	if c.Protocol != FixedSteps && c.Protocol != StepBudget {
		return fmt.Errorf("validate: unknown protocol %q", c.Protocol)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be positive, got %v",
			c.BatchSize)
	}
	if c.MaxEpLen <= 0 {
		return fmt.Errorf("validate: maximum episode length must be "+
			"positive, got %v", c.MaxEpLen)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], got %v",
			c.Discount)
	}
	if c.InitEpoch < 0 {
		return fmt.Errorf("validate: initial epoch must be non-negative, "+
			"got %v", c.InitEpoch)
	}
	if c.DebugEvery < 0 {
		return fmt.Errorf("validate: debug interval must be non-negative, "+
			"got %v", c.DebugEvery)
	}
	return nil
}
