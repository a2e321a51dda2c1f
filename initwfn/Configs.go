package initwfn

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// GlorotUConfig configures Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

func (g GlorotUConfig) Type() Type        { return GlorotU }
func (g GlorotUConfig) Create() G.InitWFn { return G.GlorotU(g.Gain) }
func (g GlorotUConfig) Validate() error   { return validateGain(g.Gain) }

// GlorotNConfig configures Glorot normal initialization, which the
// policies and value functions use by default
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

func (g GlorotNConfig) Type() Type        { return GlorotN }
func (g GlorotNConfig) Create() G.InitWFn { return G.GlorotN(g.Gain) }
func (g GlorotNConfig) Validate() error   { return validateGain(g.Gain) }

func validateGain(gain float64) error {
	if gain <= 0 || math.IsInf(gain, 0) || math.IsNaN(gain) {
		return fmt.Errorf("gain must be positive and finite, got %v", gain)
	}
	return nil
}

// ZeroesConfig configures initialization of all weights to 0, used
// for the mean head of policies with state-independent standard
// deviations
type ZeroesConfig struct{}

// NewZeroes returns a new zeroes weight intializer
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

func (z ZeroesConfig) Type() Type        { return Zeroes }
func (z ZeroesConfig) Create() G.InitWFn { return G.Zeroes() }
func (z ZeroesConfig) Validate() error   { return nil }

// OnesConfig configures initialization of all weights to 1
type OnesConfig struct{}

// NewOnes returns a new ones weight intializer
func NewOnes() (*InitWFn, error) {
	return newInitWFn(OnesConfig{})
}

func (o OnesConfig) Type() Type        { return Ones }
func (o OnesConfig) Create() G.InitWFn { return G.Ones() }
func (o OnesConfig) Validate() error   { return nil }

// ConstantConfig configures initialization of all weights to Value,
// e.g. the initial log standard deviation of a policy
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new constant weight intializer
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{value})
}

func (c ConstantConfig) Type() Type        { return Constant }
func (c ConstantConfig) Create() G.InitWFn { return G.ValuesOf(c.Value) }

func (c ConstantConfig) Validate() error {
	if math.IsInf(c.Value, 0) || math.IsNaN(c.Value) {
		return fmt.Errorf("constant must be finite, got %v", c.Value)
	}
	return nil
}
