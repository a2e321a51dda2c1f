package experiment

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/samuelfneumann/locopg/agent"
	env "github.com/samuelfneumann/locopg/environment"
	"github.com/samuelfneumann/locopg/experiment/tracker"
	ts "github.com/samuelfneumann/locopg/timestep"
)

// EvalConfig configures test episodes
type EvalConfig struct {
	Episodes int

	// Episodes are cut off after MaxEpLen steps if MaxEpLen > 0
	MaxEpLen int

	// Delay between steps, useful when watching rendered frames
	Delay time.Duration

	// FrameDir is the directory in which frames are rendered if the
	// environment is an environment.Renderer. No frames are rendered
	// if FrameDir is empty.
	FrameDir string
}

// Evaluate runs test episodes of agent on e without updating the
// agent. Each chosen action and the total reward of each episode is
// logged. The returns of all test episodes are returned.
func Evaluate(e env.Environment, a agent.Agent, c EvalConfig,
	logger *log.Logger) ([]float64, error) {
	renderer, canRender := e.(env.Renderer)
	render := canRender && c.FrameDir != ""

	returns := tracker.NewReturn()
	for test := 0; test < c.Episodes; test++ {
		logger.Printf("Test #%v", test)

		step, err := e.Reset()
		if err != nil {
			return nil, fmt.Errorf("evaluate: could not reset "+
				"environment: %v", err)
		}
		returns.Track(step)

		for epLen := 1; ; epLen++ {
			time.Sleep(c.Delay)
			if render {
				frame := filepath.Join(c.FrameDir,
					fmt.Sprintf("test%v_%05d.png", test, epLen-1))
				if err := renderer.Render(frame); err != nil {
					return nil, fmt.Errorf("evaluate: %v", err)
				}
			}

			action, err := a.SelectAction(step.Observation)
			if err != nil {
				return nil, fmt.Errorf("evaluate: %v", err)
			}
			logger.Printf("Chose action %v for state %v",
				action.RawVector().Data, step.Observation.RawVector().Data)

			var done bool
			step, done, err = e.Step(action)
			if err != nil {
				return nil, fmt.Errorf("evaluate: could not step "+
					"environment: %v", err)
			}
			if !done && c.MaxEpLen > 0 && epLen >= c.MaxEpLen {
				step.SetEnd(ts.StepLimit)
				done = true
			}
			if done && !step.Last() {
				step.SetEnd(ts.Terminal)
			}

			returns.Track(step)
			if done {
				data := returns.Data()
				logger.Printf("Done. Total Reward = %v", data[len(data)-1])
				break
			}
		}
	}

	return returns.Data(), nil
}
