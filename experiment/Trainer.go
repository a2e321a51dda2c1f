package experiment

import (
	"fmt"
	"log"

	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/locopg/agent"
	"github.com/samuelfneumann/locopg/buffer/onestep"
	env "github.com/samuelfneumann/locopg/environment"
	"github.com/samuelfneumann/locopg/experiment/checkpointer"
	"github.com/samuelfneumann/locopg/experiment/tracker"
	ts "github.com/samuelfneumann/locopg/timestep"
	"github.com/samuelfneumann/locopg/utils/progressbar"
)

// Trainer trains an agent online on an environment for a number of
// epochs. On each step the agent selects an action, the environment
// is stepped, the one-step target of the transition is computed, and
// the agent is updated.
type Trainer struct {
	env          env.Environment
	agent        agent.Agent
	config       Config
	checkpointer checkpointer.Checkpointer
	history      *tracker.History

	logger *log.Logger
	au     aurora.Aurora

	// Number of agent updates performed
	updates int
}

// NewTrainer returns a new Trainer. The checkpointer may be nil, in
// which case no checkpoints are saved.
func NewTrainer(e env.Environment, a agent.Agent, c Config,
	check checkpointer.Checkpointer, logger *log.Logger) (*Trainer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newTrainer: %v", err)
	}
	if c.DebugEvery == 0 {
		c.DebugEvery = DefaultDebugEvery
	}

	return &Trainer{
		env:          e,
		agent:        a,
		config:       c,
		checkpointer: check,
		history:      tracker.NewHistory(),
		logger:       logger,
		au:           aurora.NewAurora(c.Verbose),
	}, nil
}

// Train runs all epochs of training, logging the mean return and mean
// episode length of each epoch and checkpointing the agent
func (t *Trainer) Train() error {
	for epoch := t.config.InitEpoch; epoch < t.config.Epochs; epoch++ {
		returns, lengths, err := t.TrainEpoch()
		if err != nil {
			return fmt.Errorf("train: epoch %v: %v", epoch, err)
		}

		e := t.history.Record(epoch, returns, lengths)
		t.logger.Printf("epoch: %v, return: %v, episode length: %v",
			t.au.Bold(e.Epoch), t.au.Green(e.MeanReturn),
			t.au.Cyan(e.MeanLength))

		if t.checkpointer != nil {
			if err := t.checkpointer.Checkpoint(epoch); err != nil {
				return fmt.Errorf("train: could not checkpoint epoch %v: %v",
					epoch, err)
			}
		}
	}

	// The final epoch is saved even if training resumes past it
	final := t.config.Epochs - 1
	if t.checkpointer != nil && final >= 0 && t.config.InitEpoch > final {
		if err := t.checkpointer.Checkpoint(final); err != nil {
			return fmt.Errorf("train: could not checkpoint epoch %v: %v",
				final, err)
		}
	}
	return nil
}

// TrainEpoch runs a single epoch of training and returns the returns
// and lengths of the episodes recorded in the epoch
func (t *Trainer) TrainEpoch() ([]float64, []int, error) {
	returns := tracker.NewReturn()
	lengths := tracker.NewEpisodeLength()

	var bar *progressbar.ManualProgressBar
	if t.config.Verbose {
		bar = progressbar.NewManualProgressBar(t.logger.Writer(), 50,
			t.config.BatchSize)
		defer bar.Clear()
	}
	displayEvery := t.config.BatchSize / 100
	if displayEvery < 1 {
		displayEvery = 1
	}

	step, err := t.env.Reset()
	if err != nil {
		return nil, nil, fmt.Errorf("trainEpoch: could not reset "+
			"environment: %v", err)
	}
	returns.Track(step)

	epLen := 0
	I := 1.0
	for i := 0; i < t.config.BatchSize; {
		action, err := t.agent.SelectAction(step.Observation)
		if err != nil {
			return nil, nil, fmt.Errorf("trainEpoch: %v", err)
		}

		nextStep, done, err := t.env.Step(action)
		if err != nil {
			return nil, nil, fmt.Errorf("trainEpoch: could not step "+
				"environment: %v", err)
		}
		i++
		epLen++

		terminal := done && nextStep.End == ts.Terminal
		capped := epLen == t.config.MaxEpLen
		reward := nextStep.Reward
		if t.config.Protocol == StepBudget && capped && !terminal {
			reward += t.config.CapPenalty
		}

		// Compute the one-step target
		var nextValue float64
		if !terminal {
			nextValue, err = t.agent.Value(nextStep.Observation)
			if err != nil {
				return nil, nil, fmt.Errorf("trainEpoch: %v", err)
			}
		}
		target := onestep.Target(reward, t.config.Discount, nextValue,
			terminal)

		// Update the agent
		transition := ts.NewTransition(step, action, nextStep, terminal)
		transition.Reward = reward
		transition.Discount = t.config.Discount
		weight := 1.0
		if t.config.Eligibility {
			weight = I
		}
		if err := t.agent.Update(transition, target, weight); err != nil {
			return nil, nil, fmt.Errorf("trainEpoch: could not update "+
				"agent: %v", err)
		}
		t.debug()
		if t.config.Eligibility {
			I *= t.config.Discount
		}

		// Track the episode with the (possibly penalized) reward
		tracked := nextStep
		tracked.Reward = reward
		tracked.Number = epLen
		tracked.StepType = ts.Mid

		budgetSpent := i >= t.config.BatchSize
		switch {
		case done:
			tracked.SetEnd(nextStep.End)
		case capped:
			tracked.SetEnd(ts.StepLimit)
		case budgetSpent && t.config.Protocol == StepBudget:
			tracked.SetEnd(ts.Budget)
		}
		returns.Track(tracked)
		lengths.Track(tracked)

		if bar != nil {
			bar.Increment()
			if i%displayEvery == 0 {
				bar.Display()
			}
		}

		// Start a new episode at episode boundaries
		if tracked.Last() && !budgetSpent {
			step, err = t.env.Reset()
			if err != nil {
				return nil, nil, fmt.Errorf("trainEpoch: could not reset "+
					"environment: %v", err)
			}
			returns.Track(step)
			epLen = 0
			I = 1.0
		} else {
			step = nextStep
		}
	}

	return returns.Data(), lengths.Data(), nil
}

// debug reports the policy standard deviations every DebugEvery
// updates. Losses are also reported when verbose.
func (t *Trainer) debug() {
	defer func() { t.updates++ }()
	if t.updates%t.config.DebugEvery != 0 {
		return
	}

	if a, ok := t.agent.(agent.StdReporter); ok {
		if std := a.Std(); len(std) > 0 {
			t.logger.Printf("%v %v", t.au.Yellow("stds:"), std)
		}
	}
	if !t.config.Verbose {
		return
	}
	if a, ok := t.agent.(agent.LossReporter); ok {
		policyLoss, valueLoss := a.Losses()
		t.logger.Printf("%v %v, %v %v", t.au.Yellow("policy loss:"),
			policyLoss, t.au.Yellow("value loss:"), valueLoss)
	}
}

// Updates returns the number of agent updates performed so far
func (t *Trainer) Updates() int {
	return t.updates
}

// History returns the statistics of all epochs trained so far
func (t *Trainer) History() *tracker.History {
	return t.history
}
