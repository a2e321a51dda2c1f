package locomotion

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const numJoints = 3

func randomBatch(rows int, seed uint64) (*mat.Dense, *mat.Dense) {
	src := rand.NewSource(seed)
	normal := distuv.Normal{Mu: 0, Sigma: 1.5, Src: src}

	stateCols := JointsOffset + 2*numJoints + 1
	states := mat.NewDense(rows, stateCols, nil)
	actions := mat.NewDense(rows, numJoints, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < stateCols; j++ {
			states.Set(i, j, normal.Rand())
		}
		for j := 0; j < numJoints; j++ {
			actions.Set(i, j, normal.Rand())
		}
	}
	return states, actions
}

func TestRewardHandComputed(t *testing.T) {
	r := NewReward(numJoints, 0)

	state := mat.NewVecDense(15, []float64{
		1.0, 0, 0, 0.3, 0, 0, 0, 0.5,
		0.5, 1, 1.0, 2, -0.2, -1,
		0,
	})
	action := mat.NewVecDense(3, []float64{1, 0.5, -1})

	want := 1.0 + 1.0 - 2.0 - 0.075 - 0.1
	if have := r.Reward(state, action); math.Abs(have-want) > 1e-12 {
		t.Errorf("reward: \n\twant(%v) \n\thave(%v)", want, have)
	}
	if r.Done(state) {
		t.Error("done: upright state should not be terminal")
	}

	state.SetVec(PitchIndex, 1.5)
	if !r.Done(state) {
		t.Error("done: state with |pitch| >= 1 should be terminal")
	}
}

func TestRewardsDonesMatchesScalar(t *testing.T) {
	r := NewReward(numJoints, DefaultHopperInitialZ)
	states, actions := randomBatch(500, 11)

	rewards, dones := r.RewardsDones(states, actions)
	for i := range rewards {
		state := mat.VecDenseCopyOf(states.RowView(i))
		action := mat.VecDenseCopyOf(actions.RowView(i))

		if want := r.Reward(state, action); rewards[i] != want {
			t.Errorf("rewardsDones row %v: \n\twant(%v) \n\thave(%v)", i,
				want, rewards[i])
		}
		if want := r.Done(state); dones[i] != want {
			t.Errorf("rewardsDones row %v: \n\twant(%v) \n\thave(%v)", i,
				want, dones[i])
		}
	}
}

func TestAliveBonus(t *testing.T) {
	r := NewReward(numJoints, 0.5)
	src := rand.NewSource(3)
	uniform := distuv.Uniform{Min: -2, Max: 2, Src: src}

	for i := 0; i < 1000; i++ {
		z, p := uniform.Rand(), uniform.Rand()
		bonus := r.AliveBonus(z, p)
		if bonus != 1.0 && bonus != -1.0 {
			t.Fatalf("aliveBonus(%v, %v): \n\twant(±1) \n\thave(%v)", z, p,
				bonus)
		}

		state := mat.NewVecDense(JointsOffset+2*numJoints+1, nil)
		state.SetVec(HeightIndex, z)
		state.SetVec(PitchIndex, p)
		if done := r.Done(state); done != (bonus < 0) {
			t.Errorf("done(%v, %v): \n\twant(%v) \n\thave(%v)", z, p,
				bonus < 0, done)
		}
	}
}

func BenchmarkRewardsDones(b *testing.B) {
	states, actions := randomBatch(1000, 7)
	r := NewReward(numJoints, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RewardsDones(states, actions)
	}
}
