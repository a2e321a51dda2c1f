package vpg

import (
	"testing"

	"github.com/samuelfneumann/locopg/agent"
	ts "github.com/samuelfneumann/locopg/timestep"
	"gonum.org/v1/gonum/mat"
)

func newAgent(t *testing.T, batch int) *VPG {
	c, err := agent.NewConfig([]int{8}, 1e-3, 1e-3, 5, batch, 0)
	if err != nil {
		t.Fatal(err)
	}
	v, err := New(4, 3, c)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func transition(action float64) ts.Transition {
	return ts.Transition{
		State:     mat.NewVecDense(4, []float64{0.1, 0.2, 0.3, 0.4}),
		Action:    mat.NewVecDense(1, []float64{action}),
		Reward:    1.0,
		Discount:  0.99,
		NextState: mat.NewVecDense(4, []float64{0.2, 0.3, 0.4, 0.5}),
	}
}

func TestBatchUpdate(t *testing.T) {
	batch := 4
	v := newAgent(t, batch)

	for i := 0; i < batch-1; i++ {
		if err := v.Update(transition(float64(i%3)), 1.0, 1.0); err != nil {
			t.Fatal(err)
		}
		if v.Pending() != i+1 {
			t.Errorf("update: incorrect pending transitions \n\twant(%v) "+
				"\n\thave(%v)", i+1, v.Pending())
		}
	}

	before, err := v.Value(transition(0).State)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Update(transition(0), 1.0, 1.0); err != nil {
		t.Fatal(err)
	}
	if v.Pending() != 0 {
		t.Errorf("update: batch not consumed \n\twant(0) \n\thave(%v)",
			v.Pending())
	}
	after, err := v.Value(transition(0).State)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("update: value function unchanged after batch update")
	}
}

func TestSelectAction(t *testing.T) {
	v := newAgent(t, 2)
	for i := 0; i < 20; i++ {
		action, err := v.SelectAction(transition(0).State)
		if err != nil {
			t.Fatal(err)
		}
		if a := int(action.AtVec(0)); a < 0 || a >= 3 {
			t.Errorf("selectAction: illegal action %v", a)
		}
	}
}

func TestIllegalAction(t *testing.T) {
	v := newAgent(t, 2)
	if err := v.Update(transition(3), 1.0, 1.0); err == nil {
		t.Error("update: expected error for out of range action")
	}
	if v.Pending() != 0 {
		t.Errorf("update: illegal transition stored \n\twant(0) \n\thave(%v)",
			v.Pending())
	}
}
