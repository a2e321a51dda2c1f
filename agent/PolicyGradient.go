package agent

import (
	"fmt"

	"github.com/samuelfneumann/locopg/agent/policy"
	"github.com/samuelfneumann/locopg/network"
	"github.com/samuelfneumann/locopg/solver"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// PolicyGradient learns a policy by following the gradient of
//
//	-mean(log π(a|s) * advantage * weight)
//
// over a batch of states and actions with externally computed
// advantages and weights.
//
// Like ValueFunction, two copies of the policy are kept: a behaviour
// policy with batch size 1 which selects actions, and a training
// policy which holds the loss. After each update the weights of the
// training policy are copied to the behaviour policy.
type PolicyGradient struct {
	behaviour policy.Policy
	train     policy.Policy
	vm        G.VM

	advantages *G.Node
	weights    *G.Node
	lossVal    G.Value

	solver G.Solver
}

// NewPolicyGradient returns a PolicyGradient that learns the weights
// of behaviour using batches of the given size.
func NewPolicyGradient(behaviour policy.Policy, batch int,
	s *solver.Solver) (*PolicyGradient, error) {
	if behaviour.BatchSize() != 1 {
		return nil, fmt.Errorf("newPolicyGradient: behaviour policy must "+
			"have batch size 1 \n\twant(1) \n\thave(%v)",
			behaviour.BatchSize())
	}

	train, err := behaviour.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("newPolicyGradient: could not create "+
			"training policy: %v", err)
	}
	g := train.Graph()

	advantages := G.NewVector(
		g,
		tensor.Float64,
		G.WithName("Advantages"),
		G.WithShape(batch),
		G.WithInit(G.Zeroes()),
	)
	weights := G.NewVector(
		g,
		tensor.Float64,
		G.WithName("Weights"),
		G.WithShape(batch),
		G.WithInit(G.Ones()),
	)

	logProb := train.LogPdfNode()
	loss := G.Must(G.HadamardProd(logProb, advantages))
	loss = G.Must(G.HadamardProd(loss, weights))
	loss = G.Must(G.Mean(loss))
	loss = G.Must(G.Neg(loss))

	// Calculate the policy gradient
	if _, err := G.Grad(loss, train.Learnables()...); err != nil {
		return nil, fmt.Errorf("newPolicyGradient: could not compute the "+
			"policy gradient: %v", err)
	}

	p := &PolicyGradient{
		behaviour:  behaviour,
		train:      train,
		advantages: advantages,
		weights:    weights,
		solver:     s.Solver,
	}
	G.Read(loss, &p.lossVal)
	p.vm = G.NewTapeMachine(g, G.BindDualValues(train.Learnables()...))

	return p, nil
}

// SelectAction selects an action in state obs with the behaviour
// policy
func (p *PolicyGradient) SelectAction(obs *mat.VecDense) (*mat.VecDense,
	error) {
	return p.behaviour.SelectAction(obs)
}

// Policy returns the behaviour policy
func (p *PolicyGradient) Policy() policy.Policy {
	return p.behaviour
}

// Update takes a single gradient step on the policy loss. States and
// actions are given in row major order. The loss before the step is
// returned.
func (p *PolicyGradient) Update(states, actions, advantages,
	weights []float64) (float64, error) {
	if err := p.train.SetInput(states, actions); err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}
	if err := letVector(p.advantages, advantages); err != nil {
		return 0, fmt.Errorf("update: could not set advantages: %v", err)
	}
	if err := letVector(p.weights, weights); err != nil {
		return 0, fmt.Errorf("update: could not set weights: %v", err)
	}

	if err := p.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("update: could not run policy: %v", err)
	}
	defer p.vm.Reset()
	loss := p.lossVal.Data().(float64)

	if err := p.solver.Step(p.train.Model()); err != nil {
		return 0, fmt.Errorf("update: could not step solver: %v", err)
	}

	// Update behaviour policy
	if err := network.Set(p.behaviour, p.train); err != nil {
		return 0, fmt.Errorf("update: could not set behaviour weights: %v",
			err)
	}
	return loss, nil
}

// Save saves the policy weights to filename
func (p *PolicyGradient) Save(filename string) error {
	return network.SaveFile(filename, p.train)
}

// Load loads the policy weights from filename
func (p *PolicyGradient) Load(filename string) error {
	if err := network.LoadFile(filename, p.train); err != nil {
		return err
	}
	return network.Set(p.behaviour, p.train)
}

// letVector sets the value of the vector node to data
func letVector(node *G.Node, data []float64) error {
	if len(data) != node.Shape().TotalSize() {
		return fmt.Errorf("letVector: invalid number of values for %v "+
			"\n\twant(%v) \n\thave(%v)", node.Name(),
			node.Shape().TotalSize(), len(data))
	}
	value := tensor.NewDense(
		tensor.Float64,
		node.Shape().Clone(),
		tensor.WithBacking(append([]float64{}, data...)),
	)
	return G.Let(node, value)
}
