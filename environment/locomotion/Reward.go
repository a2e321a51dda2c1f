// Package locomotion implements the reward and termination functions
// of legged locomotion tasks whose state observations use the
// pybullet walker layout:
//
//	index 0:                  torso height relative to its initial height
//	index 3:                  forward velocity (scaled by 0.3)
//	index 7:                  torso pitch
//	indices [8, 8+2*joints):  joint data, alternating position and speed
//	trailing indices:         one foot contact flag per foot
//
// The functions are pure functions of the state (and action), so they
// can be used both inside an environment and to evaluate batches of
// imagined transitions.
package locomotion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Layout offsets of the state observation
const (
	HeightIndex   int = 0
	VelocityIndex int = 3
	PitchIndex    int = 7
	JointsOffset  int = 8

	// Forward velocity is observed scaled by this factor
	VelocityScale float64 = 0.3

	// Joint positions are normalized to [-1, 1]. Positions beyond
	// this magnitude count as being at the joint limit
	JointLimit float64 = 0.99

	MinHeight float64 = 0.8
	MaxPitch  float64 = 1.0
)

// Default cost weights of the pybullet walker base
const (
	DefaultElectricityCost   float64 = -2.0
	DefaultStallTorqueCost   float64 = -0.1
	DefaultJointsAtLimitCost float64 = -0.1

	// DefaultHopperInitialZ is the initial torso height of the hopper
	DefaultHopperInitialZ float64 = 1.25
)

// Reward computes the locomotion reward and termination of states with
// NumJoints actuated joints.
type Reward struct {
	NumJoints int

	// InitialZ is added to the observed height to recover the
	// absolute torso height
	InitialZ float64

	ElectricityCost   float64
	StallTorqueCost   float64
	JointsAtLimitCost float64
}

// NewReward returns a Reward using the default cost weights
func NewReward(numJoints int, initialZ float64) Reward {
	return Reward{
		NumJoints:         numJoints,
		InitialZ:          initialZ,
		ElectricityCost:   DefaultElectricityCost,
		StallTorqueCost:   DefaultStallTorqueCost,
		JointsAtLimitCost: DefaultJointsAtLimitCost,
	}
}

// AliveBonus returns 1 if the robot is upright at height z with pitch
// p and -1 otherwise.
func (r Reward) AliveBonus(z, p float64) float64 {
	if z+r.InitialZ > MinHeight && math.Abs(p) < MaxPitch {
		return 1.0
	}
	return -1.0
}

// Reward returns the reward for taking action in the resulting state
func (r Reward) Reward(state, action *mat.VecDense) float64 {
	reward, _ := r.row(state.RawVector().Data, action.RawVector().Data)
	return reward
}

// Done returns whether state is terminal
func (r Reward) Done(state *mat.VecDense) bool {
	data := state.RawVector().Data
	r.checkState(data)
	return r.AliveBonus(data[HeightIndex], data[PitchIndex]) < 0
}

// RewardsDones computes the rewards and terminations of a batch of
// states and actions, one per row. Row i of the output is identical to
// calling Reward and Done on row i of the input.
func (r Reward) RewardsDones(states, actions *mat.Dense) ([]float64,
	[]bool) {
	rows, _ := states.Dims()
	if actionRows, _ := actions.Dims(); rows != actionRows {
		panic(fmt.Sprintf("rewardsDones: states and actions must have "+
			"the same number of rows \n\twant(%v) \n\thave(%v)", rows,
			actionRows))
	}

	rewards := make([]float64, rows)
	dones := make([]bool, rows)
	for i := 0; i < rows; i++ {
		rewards[i], dones[i] = r.row(states.RawRowView(i),
			actions.RawRowView(i))
	}
	return rewards, dones
}

// row computes the reward and termination of a single state and action
func (r Reward) row(state, action []float64) (float64, bool) {
	r.checkState(state)
	if len(action) != r.NumJoints {
		panic(fmt.Sprintf("reward: invalid action dimension \n\twant(%v)"+
			"\n\thave(%v)", r.NumJoints, len(action)))
	}

	alive := r.AliveBonus(state[HeightIndex], state[PitchIndex])
	progress := state[VelocityIndex] / VelocityScale

	joints := state[JointsOffset : JointsOffset+2*r.NumJoints]
	power := make([]float64, r.NumJoints)
	atLimit := 0
	for i := 0; i < r.NumJoints; i++ {
		power[i] = math.Abs(action[i] * joints[2*i+1])
		if math.Abs(joints[2*i]) > JointLimit {
			atLimit++
		}
	}
	n := float64(r.NumJoints)

	electricity := r.ElectricityCost * floats.Sum(power) / n
	electricity += r.StallTorqueCost * floats.Dot(action, action) / n
	jointsAtLimit := r.JointsAtLimitCost * float64(atLimit)
	feetCollision := 0.0

	reward := alive + progress + electricity + jointsAtLimit + feetCollision
	return reward, alive < 0
}

func (r Reward) checkState(state []float64) {
	if min := JointsOffset + 2*r.NumJoints; len(state) < min {
		panic(fmt.Sprintf("reward: state too short for %v joints "+
			"\n\twant(>= %v) \n\thave(%v)", r.NumJoints, min, len(state)))
	}
}
