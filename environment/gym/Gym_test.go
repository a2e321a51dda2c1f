package gym_test

import (
	"os"
	"testing"

	"github.com/samuelfneumann/locopg/environment"
	"github.com/samuelfneumann/locopg/environment/gym"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

func TestNew(t *testing.T) {
	if os.Getenv("LOCOPG_GYM_TESTS") == "" {
		t.Skip("set LOCOPG_GYM_TESTS to run against a Python Gym install")
	}

	envs := []string{
		gym.LunarLander,
		gym.LunarLanderContinuous,
		gym.BipedalWalker,
	}

	for _, envName := range envs {
		env, err := gym.New(envName, 0.99, 123)
		if err != nil {
			t.Errorf("env %v: %v", envName, err)
			continue
		}

		step, err := env.Reset()
		if err != nil {
			t.Errorf("env %v: %v", envName, err)
			continue
		} else if !step.First() {
			t.Errorf("reset: first step should have type First, have %v",
				step.StepType)
		}

		size := env.ActionSpec().LowerBound.Len()
		for i := 0; i < 15; i++ {
			next, done, err := env.Step(mat.NewVecDense(size, nil))
			if err != nil {
				t.Errorf("env %v: %v", envName, err)
			} else if next.Number <= 0 {
				t.Errorf("step: step number should be positive, have %v",
					next.Number)
			}

			if done {
				if next.End != ts.Terminal {
					t.Errorf("step: gym episodes end as terminal, have %v",
						next.End)
				}
				if _, err := env.Reset(); err != nil {
					t.Errorf("env %v: %v", envName, err)
				}
			}
		}

		if envName == gym.LunarLander {
			if n := environment.NumActions(env); n != 4 {
				t.Errorf("numActions: \n\twant(4) \n\thave(%v)", n)
			}
		}
		env.Close()
	}
	gym.Shutdown()
}
