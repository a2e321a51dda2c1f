package checkpointer

import (
	"errors"
	"reflect"
	"testing"
)

type recorder struct {
	prefixes []string
	fail     bool
}

func (r *recorder) Save(prefix string) error {
	if r.fail {
		return errors.New("disk full")
	}
	r.prefixes = append(r.prefixes, prefix)
	return nil
}

func (r *recorder) Load(prefix string) error {
	r.prefixes = append(r.prefixes, prefix)
	return nil
}

func TestNEpoch(t *testing.T) {
	r := &recorder{}
	c := NewNEpoch(20, 49, r, "models/lunarlander_model")

	for epoch := 0; epoch < 50; epoch++ {
		if err := c.Checkpoint(epoch); err != nil {
			t.Fatal(err)
		}
	}

	want := []int{0, 20, 40, 49}
	if !reflect.DeepEqual(c.Saved(), want) {
		t.Errorf("checkpoint: incorrect epochs saved \n\twant(%v) \n\thave(%v)",
			want, c.Saved())
	}

	wantPrefixes := []string{
		"models/lunarlander_model_0",
		"models/lunarlander_model_20",
		"models/lunarlander_model_40",
		"models/lunarlander_model_49",
	}
	if !reflect.DeepEqual(r.prefixes, wantPrefixes) {
		t.Errorf("checkpoint: incorrect prefixes \n\twant(%v) \n\thave(%v)",
			wantPrefixes, r.prefixes)
	}
}

func TestNEpochFinalOnce(t *testing.T) {
	r := &recorder{}
	c := NewNEpoch(10, 20, r, "m")
	for epoch := 15; epoch <= 20; epoch++ {
		if err := c.Checkpoint(epoch); err != nil {
			t.Fatal(err)
		}
	}
	if want := []int{20}; !reflect.DeepEqual(c.Saved(), want) {
		t.Errorf("checkpoint: incorrect epochs saved \n\twant(%v) \n\thave(%v)",
			want, c.Saved())
	}
}

func TestNEpochError(t *testing.T) {
	c := NewNEpoch(1, 0, &recorder{fail: true}, "m")
	if err := c.Checkpoint(0); err == nil {
		t.Error("checkpoint: expected save error")
	}
	if len(c.Saved()) != 0 {
		t.Errorf("checkpoint: failed save recorded \n\twant(0) \n\thave(%v)",
			len(c.Saved()))
	}
}

func TestLoad(t *testing.T) {
	r := &recorder{}
	if err := Load(r, "models/bipedalwalker_model", 7); err != nil {
		t.Fatal(err)
	}
	if want := "models/bipedalwalker_model_7"; r.prefixes[0] != want {
		t.Errorf("load: incorrect prefix \n\twant(%v) \n\thave(%v)", want,
			r.prefixes[0])
	}
	if err := Load(r, "m", -1); err == nil {
		t.Error("load: expected error for negative epoch")
	}
}
