package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/samuelfneumann/locopg/environment/gym"
	"github.com/samuelfneumann/locopg/experiment"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes the environment variables that override flag
// defaults
const EnvPrefix string = "LOCOPG_"

// script describes one training command and its defaults
type script struct {
	name  string
	short string

	path     string
	env      string
	hidden   string
	protocol experiment.Protocol

	// Whether updates are weighted by the eligibility multiplier
	eligibility bool
}

var scripts = []script{
	{
		name:     "lander",
		short:    "Continuous lunar lander with a Gaussian actor-critic",
		path:     "models/lunarlander_model",
		env:      gym.LunarLanderContinuous,
		hidden:   "[64, 32]",
		protocol: experiment.FixedSteps,
	},
	{
		name:        "walker",
		short:       "Bipedal walker with state-independent standard deviations",
		path:        "models/bipedalwalker_model",
		env:         gym.BipedalWalker,
		hidden:      "[64, 32]",
		protocol:    experiment.StepBudget,
		eligibility: true,
	},
	{
		name:        "hopper",
		short:       "Hopper with locomotion rewards and terminations",
		path:        "models/hopper_model",
		env:         gym.HopperBullet,
		hidden:      "[64, 32]",
		protocol:    experiment.StepBudget,
		eligibility: true,
	},
	{
		name:     "discrete",
		short:    "Discrete lunar lander with vanilla policy gradient",
		path:     "models/lunarlander_discrete_model",
		env:      gym.DefaultDiscreteEnvName,
		hidden:   "[32, 32]",
		protocol: experiment.FixedSteps,
	},
}

// options holds the flags of a training command
type options struct {
	Path         string  `json:"path"`
	LoadEpoch    int     `json:"load_epoch"`
	Tests        int     `json:"tests"`
	InitEpoch    int     `json:"init_epoch"`
	SaveFreq     int     `json:"save_freq"`
	Epochs       int     `json:"epochs"`
	BatchSize    int     `json:"bs"`
	UpdateBatch  int     `json:"update_bs"`
	PiLR         float64 `json:"pi_lr"`
	VLR          float64 `json:"v_lr"`
	VUpdateSteps int     `json:"v_update_steps"`
	TestOnly     bool    `json:"test_only"`
	Discount     float64 `json:"discount"`
	MaxEpLen     int     `json:"max_ep_len"`
	Seed         uint64  `json:"seed"`
	Verbose      bool    `json:"verbose"`
	HiddenLayers string  `json:"hidden_layers"`
	VActivation  string  `json:"v_activation,omitempty"`

	Env    string  `json:"env"`
	Native bool    `json:"native"`
	Config string  `json:"config,omitempty"`
	Report string  `json:"report,omitempty"`
	Plot   string  `json:"plot,omitempty"`
	Delay  float64 `json:"delay"`
	Frames string  `json:"frames,omitempty"`

	// Flags set on the command line or through the environment
	explicit map[string]bool
}

// bindFlags registers the flags of s on flags, storing their values
// in o
func bindFlags(flags *pflag.FlagSet, s script, o *options) {
	flags.StringVar(&o.Path, "path", s.path, "checkpoint path prefix")
	flags.IntVar(&o.LoadEpoch, "load_epoch", -1,
		"epoch of the checkpoint to load, or -1 to start from scratch")
	flags.IntVar(&o.Tests, "tests", 0, "number of test episodes")
	flags.IntVar(&o.InitEpoch, "init_epoch", 0, "first training epoch")
	flags.IntVar(&o.SaveFreq, "save_freq", 20, "epochs between checkpoints")
	flags.IntVar(&o.Epochs, "epochs", 200, "number of training epochs")
	flags.IntVar(&o.BatchSize, "bs", 2000, "environment steps per epoch")
	flags.IntVar(&o.UpdateBatch, "update_bs", 1,
		"transitions per update of the vanilla policy gradient agent")
	flags.Float64Var(&o.PiLR, "pi_lr", 1e-3, "policy learning rate")
	flags.Float64Var(&o.VLR, "v_lr", 1e-3, "value function learning rate")
	flags.IntVar(&o.VUpdateSteps, "v_update_steps", 80,
		"value function gradient steps per update")
	flags.BoolVar(&o.TestOnly, "test_only", false, "skip training")
	flags.Float64Var(&o.Discount, "discount", 0.99, "discount factor")
	flags.IntVar(&o.MaxEpLen, "max_ep_len", 1000, "maximum episode length")
	flags.Uint64Var(&o.Seed, "seed", 0, "random seed")
	flags.BoolVar(&o.Verbose, "verbose", false, "print debug information")
	flags.StringVar(&o.HiddenLayers, "hidden_layers", s.hidden,
		"hidden layer sizes, e.g. \"[64, 32]\"")
	flags.StringVar(&o.VActivation, "v_activation", "",
		"value function hidden activation: relu, tanh, softplus or "+
			"identity")

	flags.StringVar(&o.Env, "env", s.env, "OpenAI Gym environment name")
	flags.BoolVar(&o.Native, "native", false,
		"use the in-process Box2D lunar lander instead of Gym")
	flags.StringVar(&o.Config, "config", "",
		"JSON file overriding the agent configuration")
	flags.StringVar(&o.Report, "report", "",
		"HTML file to write a chart of the epoch statistics to")
	flags.StringVar(&o.Plot, "plot", "",
		"image file to plot the mean return of each epoch to")
	flags.Float64Var(&o.Delay, "delay", 0.025,
		"seconds between steps of test episodes")
	flags.StringVar(&o.Frames, "frames", "",
		"directory to render test episode frames to")
}

// envName returns the environment variable which overrides the
// default of flag
func envName(flag string) string {
	return EnvPrefix + strings.ToUpper(flag)
}

// applyEnv sets the defaults of all flags to the values of their
// environment variables, if set
func applyEnv(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		value, ok := os.LookupEnv(envName(f.Name))
		if !ok || err != nil {
			return
		}
		if setErr := f.Value.Set(value); setErr != nil {
			err = fmt.Errorf("applyEnv: invalid value %q for %v: %v",
				value, envName(f.Name), setErr)
			return
		}
		f.DefValue = value
	})
	return err
}

// explicitFlags returns the names of the flags which were set on the
// command line or through their environment variables
func explicitFlags(flags *pflag.FlagSet) map[string]bool {
	explicit := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		_, ok := os.LookupEnv(envName(f.Name))
		if f.Changed || ok {
			explicit[f.Name] = true
		}
	})
	return explicit
}

// newCommand returns the command which runs script s
func newCommand(s script) (*cobra.Command, error) {
	o := &options{}
	cmd := &cobra.Command{
		Use:   s.name,
		Short: s.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.explicit = explicitFlags(cmd.Flags())
			return run(s, *o)
		},
	}

	bindFlags(cmd.Flags(), s, o)
	if err := applyEnv(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("newCommand: %v", err)
	}
	return cmd, nil
}

// parseHiddenLayers parses hidden layer sizes of the form "[64, 32]".
// The empty list "[]" denotes no hidden layers.
func parseHiddenLayers(layers string) ([]int, error) {
	layers = strings.TrimSpace(layers)
	if !strings.HasPrefix(layers, "[") || !strings.HasSuffix(layers, "]") {
		return nil, fmt.Errorf("parseHiddenLayers: hidden layers must be "+
			"a bracketed list, got %q", layers)
	}

	inner := strings.TrimSpace(layers[1 : len(layers)-1])
	if inner == "" {
		return []int{}, nil
	}

	fields := strings.Split(inner, ",")
	sizes := make([]int, len(fields))
	for i, field := range fields {
		size, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("parseHiddenLayers: invalid layer size "+
				"%q: %v", field, err)
		}
		if size <= 0 {
			return nil, fmt.Errorf("parseHiddenLayers: layer sizes must be "+
				"positive, got %v", size)
		}
		sizes[i] = size
	}
	return sizes, nil
}
