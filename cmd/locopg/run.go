package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/samuelfneumann/locopg/agent"
	"github.com/samuelfneumann/locopg/agent/actorcritic"
	"github.com/samuelfneumann/locopg/agent/vpg"
	"github.com/samuelfneumann/locopg/environment"
	"github.com/samuelfneumann/locopg/environment/box2d/lunarlander"
	"github.com/samuelfneumann/locopg/environment/gym"
	"github.com/samuelfneumann/locopg/environment/locomotion"
	"github.com/samuelfneumann/locopg/experiment"
	"github.com/samuelfneumann/locopg/experiment/checkpointer"
	"github.com/samuelfneumann/locopg/network"
)

// Number of feet of the hopper
const hopperFeet int = 1

// run trains and tests the agent of script s
func run(s script, o options) error {
	logger := log.New(os.Stdout, "", 0)
	if o.Verbose {
		logger.Printf("%v: %+v", s.name, o)
	}

	hidden, err := parseHiddenLayers(o.HiddenLayers)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(o.Path), 0755); err != nil {
		return fmt.Errorf("run: could not create checkpoint directory: %v",
			err)
	}

	e, usesGym, err := newEnvironment(s, o)
	if usesGym {
		defer gym.Shutdown()
	}
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}
	if closer, ok := e.(environment.Closer); ok {
		defer closer.Close()
	}

	a, err := newAgent(s, o, hidden, e)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}

	m := newManifest(s.name, o)
	if o.LoadEpoch >= 0 {
		if err := checkpointer.Load(a, o.Path, o.LoadEpoch); err != nil {
			return fmt.Errorf("run: %v", err)
		}

		prev, err := readManifest(manifestFile(o.Path))
		if err == nil {
			err = m.resume(prev, o.LoadEpoch)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	if o.Epochs > 0 && !o.TestOnly {
		check := checkpointer.NewNEpoch(o.SaveFreq, o.Epochs-1, a, o.Path)
		c := experiment.Config{
			Protocol:    s.protocol,
			BatchSize:   o.BatchSize,
			MaxEpLen:    o.MaxEpLen,
			CapPenalty:  experiment.DefaultCapPenalty,
			Discount:    o.Discount,
			Eligibility: s.eligibility,
			InitEpoch:   o.InitEpoch,
			Epochs:      o.Epochs,
			Verbose:     o.Verbose,
		}
		trainer, err := experiment.NewTrainer(e, a, c, check, logger)
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}

		trainErr := trainer.Train()
		m.addCheckpoints(check.Saved())
		m.Updates = trainer.Updates()
		if err := trainer.History().Save(historyFile(o.Path)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save history: %v\n",
				err)
		}
		if o.Report != "" {
			if err := trainer.History().ReportFile(o.Report,
				s.name); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not write report: "+
					"%v\n", err)
			}
		}
		if o.Plot != "" {
			if err := trainer.History().Plot(o.Plot); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not plot: %v\n", err)
			}
		}
		if trainErr != nil {
			return fmt.Errorf("run: %v", m.fail(manifestFile(o.Path),
				trainErr))
		}
	}

	if o.Tests > 0 {
		eval := experiment.EvalConfig{
			Episodes: o.Tests,
			MaxEpLen: o.MaxEpLen,
			Delay:    time.Duration(o.Delay * float64(time.Second)),
			FrameDir: o.Frames,
		}
		if eval.FrameDir != "" {
			if err := os.MkdirAll(eval.FrameDir, 0755); err != nil {
				return fmt.Errorf("run: could not create frame "+
					"directory: %v", err)
			}
		}
		returns, err := experiment.Evaluate(e, a, eval, logger)
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}
		m.TestReturns = returns
	}

	if err := m.write(manifestFile(o.Path)); err != nil {
		return fmt.Errorf("run: %v", err)
	}
	return nil
}

// newEnvironment returns the environment of script s. The returned
// bool reports whether the Gym interpreter was started, in which case
// it must be shut down once the environment is no longer used.
func newEnvironment(s script, o options) (environment.Environment, bool,
	error) {
	if o.Native && (s.name == "lander" || s.name == "discrete") {
		task := lunarlander.NewLand(lunarlander.DefaultStarter(o.Seed),
			o.MaxEpLen)
		if s.name == "lander" {
			e, err := lunarlander.NewContinuous(task, o.Discount, o.Seed)
			return e, false, err
		}
		e, err := lunarlander.NewDiscrete(task, o.Discount, o.Seed)
		return e, false, err
	} else if o.Native {
		fmt.Fprintf(os.Stderr, "Warning: no native %v environment, "+
			"using %v\n", s.name, o.Env)
	}

	g, err := gym.New(o.Env, o.Discount, o.Seed)
	if err != nil {
		return nil, true, fmt.Errorf("newEnvironment: %v", err)
	}
	if s.name != "hopper" {
		return g, true, nil
	}

	e, err := locomotion.NewEnv(g, hopperFeet,
		locomotion.DefaultHopperInitialZ, true)
	if err != nil {
		return nil, true, fmt.Errorf("newEnvironment: %v", err)
	}
	return e, true, nil
}

// newAgentConfig returns the agent configuration of script s. Values of
// the configuration file are overridden by learning rates and
// activations given explicitly.
func newAgentConfig(s script, o options, hidden []int) (agent.Config,
	error) {
	batch := 1
	if s.name == "discrete" {
		batch = o.UpdateBatch
	}
	c, err := agent.NewConfig(hidden, o.PiLR, o.VLR, o.VUpdateSteps, batch,
		o.Seed)
	if err != nil {
		return agent.Config{}, fmt.Errorf("newAgentConfig: %v", err)
	}

	if o.Config != "" {
		if err := c.Override(o.Config); err != nil {
			return agent.Config{}, fmt.Errorf("newAgentConfig: %v", err)
		}
		if o.explicit["pi_lr"] {
			c.PolicySolver, err = c.PolicySolver.WithStepSize(o.PiLR)
			if err != nil {
				return agent.Config{}, fmt.Errorf("newAgentConfig: %v", err)
			}
		}
		if o.explicit["v_lr"] {
			c.VSolver, err = c.VSolver.WithStepSize(o.VLR)
			if err != nil {
				return agent.Config{}, fmt.Errorf("newAgentConfig: %v", err)
			}
		}
	}

	if o.VActivation != "" {
		c.VActivation, err = network.ActivationByName(o.VActivation)
		if err != nil {
			return agent.Config{}, fmt.Errorf("newAgentConfig: %v", err)
		}
	}
	return c, nil
}

// newAgent returns the agent of script s for environment e
func newAgent(s script, o options, hidden []int,
	e environment.Environment) (agent.Agent, error) {
	c, err := newAgentConfig(s, o, hidden)
	if err != nil {
		return nil, fmt.Errorf("newAgent: %v", err)
	}

	features := e.ObservationSpec().Shape.Len()
	actionDims := e.ActionSpec().Shape.Len()

	var a agent.Agent
	switch s.name {
	case "lander":
		a, err = actorcritic.NewGaussian(features, actionDims, c)
	case "walker", "hopper":
		a, err = actorcritic.NewSharedStdGaussian(features, actionDims, c)
	case "discrete":
		numActions := environment.NumActions(e)
		if numActions == 0 {
			return nil, fmt.Errorf("newAgent: %v requires discrete actions",
				o.Env)
		}
		a, err = vpg.New(features, numActions, c)
	default:
		return nil, fmt.Errorf("newAgent: unknown script %v", s.name)
	}
	if err != nil {
		return nil, fmt.Errorf("newAgent: %v", err)
	}
	return a, nil
}
