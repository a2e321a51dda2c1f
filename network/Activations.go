package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

type activationType string

const (
	relu     activationType = "relu"
	identity activationType = "identity"
	tanh     activationType = "tanh"
	softplus activationType = "softplus"
)

// Activation represents an activation function type
type Activation struct {
	activationType
	f func(x *G.Node) (*G.Node, error)
}

// fwd performs the forward pass of an Activation
func (a *Activation) fwd(x *G.Node) (*G.Node, error) {
	return a.f(x)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// MarshalText implements the encoding.TextMarshaler interface
func (a *Activation) MarshalText() ([]byte, error) {
	return []byte(a.activationType), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (a *Activation) UnmarshalText(encoded []byte) error {
	decoded, err := ActivationByName(string(encoded))
	if err != nil {
		return fmt.Errorf("unmarshalText: %v", err)
	}
	*a = *decoded
	return nil
}

// ActivationByName returns the Activation with the given name
func ActivationByName(name string) (*Activation, error) {
	switch activationType(name) {
	case relu:
		return ReLU(), nil
	case identity:
		return Identity(), nil
	case tanh:
		return TanH(), nil
	case softplus:
		return SoftPlus(), nil
	default:
		return nil, fmt.Errorf("illegal Activation type %q", name)
	}
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f: func(x *G.Node) (*G.Node, error) {
			return x, nil
		},
	}
}

// ReLU returns a ReLU *Activation
func ReLU() *Activation {
	return &Activation{
		activationType: relu,
		f:              G.Rectify,
	}
}

// TanH returns a tanh *Activation
func TanH() *Activation {
	return &Activation{
		activationType: tanh,
		f:              G.Tanh,
	}
}

// SoftPlus returns a softplus *Activation, log(1 + exp(x))
func SoftPlus() *Activation {
	return &Activation{
		activationType: softplus,
		f: func(x *G.Node) (*G.Node, error) {
			exp, err := G.Exp(x)
			if err != nil {
				return nil, err
			}
			exp, err = G.Add(exp, G.NewConstant(1.0))
			if err != nil {
				return nil, err
			}
			return G.Log(exp)
		},
	}
}
