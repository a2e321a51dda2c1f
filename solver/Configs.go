package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// AdamConfig configures the Adam solver, which the agents use by
// default
type AdamConfig struct {
	StepSize float64
	Epsilon  float64
	Beta1    float64
	Beta2    float64
	Batch    int
}

// NewDefaultAdam returns a new Adam Solver with ε = 1e-7, β₁ = 0.9,
// and β₂ = 0.999
func NewDefaultAdam(stepSize float64, batchSize int) (*Solver, error) {
	return NewAdam(stepSize, 1e-7, 0.9, 0.999, batchSize)
}

// NewAdam returns a new Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64,
	batchSize int) (*Solver, error) {
	return newSolver(Adam, AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
		Batch:    batchSize,
	})
}

func (a AdamConfig) Create() G.Solver {
	return G.NewAdamSolver(
		G.WithLearnRate(a.StepSize),
		G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
		G.WithBatchSize(float64(a.Batch)),
	)
}

func (a AdamConfig) ValidType(t Type) bool { return t == Adam }

func (a AdamConfig) Validate() error {
	if err := validateStep(a.StepSize, a.Batch); err != nil {
		return err
	}
	if a.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %v", a.Epsilon)
	}
	if a.Beta1 < 0 || a.Beta1 >= 1 || a.Beta2 < 0 || a.Beta2 >= 1 {
		return fmt.Errorf("betas must be in [0, 1), got (%v, %v)", a.Beta1,
			a.Beta2)
	}
	return nil
}

func (a AdamConfig) withStepSize(stepSize float64) Config {
	a.StepSize = stepSize
	return a
}

// VanillaConfig configures stochastic gradient descent. Gradients are
// clipped to [-Clip, Clip] if Clip > 0.
type VanillaConfig struct {
	StepSize float64
	Batch    int
	Clip     float64
}

// NewVanilla returns a new Vanilla Solver
func NewVanilla(stepSize float64, batchSize int,
	clip float64) (*Solver, error) {
	return newSolver(Vanilla, VanillaConfig{
		StepSize: stepSize,
		Batch:    batchSize,
		Clip:     clip,
	})
}

func (v VanillaConfig) Create() G.Solver {
	return G.NewVanillaSolver(options(v.StepSize, v.Batch, v.Clip)...)
}

func (v VanillaConfig) ValidType(t Type) bool { return t == Vanilla }

func (v VanillaConfig) Validate() error {
	return validateStep(v.StepSize, v.Batch)
}

func (v VanillaConfig) withStepSize(stepSize float64) Config {
	v.StepSize = stepSize
	return v
}

// RMSPropConfig configures the RMSProp solver. Gradients are clipped
// to [-Clip, Clip] if Clip > 0.
type RMSPropConfig struct {
	StepSize float64
	Epsilon  float64
	Rho      float64
	Batch    int
	Clip     float64
}

// NewDefaultRMSProp returns a new RMSProp Solver with ε = 1e-8,
// ρ = 0.999, and no clipping
func NewDefaultRMSProp(stepSize float64, batchSize int) (*Solver, error) {
	return NewRMSProp(stepSize, 1e-8, 0.999, batchSize, -1.0)
}

// NewRMSProp returns a new RMSProp Solver
func NewRMSProp(stepSize, epsilon, rho float64, batchSize int,
	clip float64) (*Solver, error) {
	return newSolver(RMSProp, RMSPropConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Rho:      rho,
		Batch:    batchSize,
		Clip:     clip,
	})
}

func (r RMSPropConfig) Create() G.Solver {
	opts := append(options(r.StepSize, r.Batch, r.Clip), G.WithEps(r.Epsilon),
		G.WithRho(r.Rho))
	return G.NewRMSPropSolver(opts...)
}

func (r RMSPropConfig) ValidType(t Type) bool { return t == RMSProp }

func (r RMSPropConfig) Validate() error {
	if err := validateStep(r.StepSize, r.Batch); err != nil {
		return err
	}
	if r.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %v", r.Epsilon)
	}
	if r.Rho < 0 || r.Rho >= 1 {
		return fmt.Errorf("rho must be in [0, 1), got %v", r.Rho)
	}
	return nil
}

func (r RMSPropConfig) withStepSize(stepSize float64) Config {
	r.StepSize = stepSize
	return r
}

// options returns the solver options shared by all solvers
func options(stepSize float64, batch int, clip float64) []G.SolverOpt {
	opts := []G.SolverOpt{
		G.WithLearnRate(stepSize),
		G.WithBatchSize(float64(batch)),
	}
	if clip > 0 {
		opts = append(opts, G.WithClip(clip))
	}
	return opts
}

func validateStep(stepSize float64, batch int) error {
	if stepSize <= 0 {
		return fmt.Errorf("step size must be positive, got %v", stepSize)
	}
	if batch < 1 {
		return fmt.Errorf("batch size must be positive, got %v", batch)
	}
	return nil
}
