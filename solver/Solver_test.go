package solver

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalJSON(t *testing.T) {
	data := `{"Type": "Adam", "Config": {"StepSize": 0.001, "Epsilon": 1e-7,
		"Beta1": 0.9, "Beta2": 0.999, "Batch": 1}}`

	var s Solver
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("unmarshalJSON: %v", err)
	}
	if s.Type != Adam {
		t.Errorf("unmarshalJSON: incorrect type \n\twant(%v) \n\thave(%v)",
			Adam, s.Type)
	}
	if s.Solver == nil {
		t.Error("unmarshalJSON: solver not created")
	}

	bad := `{"Type": "Newton", "Config": {}}`
	if err := json.Unmarshal([]byte(bad), &s); err == nil {
		t.Error("unmarshalJSON: expected error for unknown solver type")
	}
}

func TestWithStepSize(t *testing.T) {
	s, err := NewDefaultAdam(1e-3, 1)
	if err != nil {
		t.Fatal(err)
	}

	other, err := s.WithStepSize(5e-2)
	if err != nil {
		t.Fatal(err)
	}

	if have := other.Config.(AdamConfig).StepSize; have != 5e-2 {
		t.Errorf("withStepSize: incorrect step size \n\twant(%v) \n\thave(%v)",
			5e-2, have)
	}
	if have := s.Config.(AdamConfig).StepSize; have != 1e-3 {
		t.Errorf("withStepSize: original modified \n\twant(%v) \n\thave(%v)",
			1e-3, have)
	}
	if other.Solver == s.Solver {
		t.Error("withStepSize: solver state shared")
	}
}

func TestRoundTrip(t *testing.T) {
	in, err := NewVanilla(0.1, 4, -1)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	var out Solver
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Config.(VanillaConfig) != in.Config.(VanillaConfig) {
		t.Errorf("marshalJSON: incorrect config \n\twant(%v) \n\thave(%v)",
			in.Config, out.Config)
	}
}

func TestValidate(t *testing.T) {
	if _, err := NewDefaultAdam(0, 1); err == nil {
		t.Error("newDefaultAdam: expected error for zero step size")
	}
	if _, err := NewVanilla(0.1, 0, -1); err == nil {
		t.Error("newVanilla: expected error for zero batch size")
	}
	if _, err := NewRMSProp(0.1, 1e-8, 1.5, 1, -1); err == nil {
		t.Error("newRMSProp: expected error for rho outside [0, 1)")
	}

	s, err := NewDefaultRMSProp(0.01, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.WithStepSize(-1); err == nil {
		t.Error("withStepSize: expected error for negative step size")
	}

	var out Solver
	data := `{"Type": "Adam", "Config": {"StepSize": 0.001, "Batch": 1}}`
	if err := json.Unmarshal([]byte(data), &out); err == nil {
		t.Error("unmarshalJSON: expected error for zero epsilon")
	}
}
