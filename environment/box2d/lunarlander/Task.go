package lunarlander

import (
	"math"

	"github.com/samuelfneumann/locopg/environment"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Land implements the task of landing the lander on the helipad. The
// reward is the change in a shaping potential that rewards being close
// to the helipad, moving slowly, staying level, and touching the
// ground with the legs. Firing engines costs fuel. Crashing or leaving
// the viewport ends the episode with a reward of -100 and coming to
// rest ends the episode with a reward of +100.
type Land struct {
	environment.Starter
	stepLimit environment.Ender

	prevShaping *float64
}

// NewLand returns a new Land task. Episodes are cut off after cutoff
// steps; a cutoff of 0 disables the step limit.
func NewLand(s environment.Starter, cutoff int) *Land {
	return &Land{Starter: s, stepLimit: environment.NewStepLimit(cutoff)}
}

func (l *Land) reset() {
	l.prevShaping = nil
}

// End ends episodes that reach the step limit
func (l *Land) End(t *ts.TimeStep) bool {
	return l.stepLimit.End(t)
}

// AtGoal returns whether both legs of the lander touch the ground
func (l *Land) AtGoal(env *lander) bool {
	return env.legContact[0] && env.legContact[1]
}

// reward returns the reward of transitioning to state and whether
// state is terminal
func (l *Land) reward(env *lander, state *mat.VecDense) (float64, bool) {
	s := state.RawVector().Data

	shaping := (-100 * math.Hypot(s[0], s[1])) +
		(-100 * math.Hypot(s[2], s[3])) +
		(-100 * math.Abs(s[4])) +
		(10 * s[6]) +
		(10 * s[7])

	reward := 0.0
	if l.prevShaping != nil {
		reward = shaping - *l.prevShaping
	}
	l.prevShaping = &shaping

	// Less fuel spent is better
	reward -= env.mPower * 0.30
	reward -= env.sPower * 0.03

	if env.gameOver || math.Abs(s[0]) >= 1.0 {
		return -100, true
	} else if !env.body.IsAwake() {
		return 100, true
	}
	return reward, false
}
