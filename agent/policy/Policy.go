// Package policy implements stochastic policies parameterized by
// neural networks on Gorgonia computational graphs.
package policy

import (
	"fmt"

	"github.com/samuelfneumann/locopg/network"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Policy is a stochastic policy on a Gorgonia computational graph.
//
// A Policy with batch size 1 can select actions with SelectAction.
// Any Policy can compute the log probability of externally given
// actions in externally given states: SetInput sets the states and
// actions, and after a VM has been run on Graph(), the node returned
// by LogPdfNode holds one log probability per sample. The gradient of
// the log probability is not taken through action selection.
type Policy interface {
	network.Parameterized

	Graph() *G.ExprGraph
	BatchSize() int
	Model() []G.ValueGrad

	// SetInput sets the states and actions whose log probability is
	// computed by LogPdfNode. Both are given in row major order.
	SetInput(states, actions []float64) error
	LogPdfNode() *G.Node

	SelectAction(obs *mat.VecDense) (*mat.VecDense, error)

	// CloneWithBatch returns a copy of the policy with the same
	// weights on a new graph with a new batch size
	CloneWithBatch(int) (Policy, error)
}

// StdReporter is a Policy that can report the current standard
// deviation of its action distribution
type StdReporter interface {
	Policy
	Std() []float64
}

// newInputMatrix adds a zero-initialized input matrix to g
func newInputMatrix(g *G.ExprGraph, name string, rows, cols int) *G.Node {
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithName(name),
		G.WithShape(rows, cols),
		G.WithInit(G.Zeroes()),
	)
}

// letMatrix sets the value of the input matrix node to data
func letMatrix(node *G.Node, data []float64) error {
	if len(data) != node.Shape().TotalSize() {
		return fmt.Errorf("letMatrix: invalid number of values for %v "+
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

// forward runs vm once on the given observation and returns a copy of
// the data of each of values after the run.
func forward(vm G.VM, net network.NeuralNet, obs *mat.VecDense,
	values ...*G.Value) ([][]float64, error) {
	if size := net.BatchSize(); size != 1 {
		return nil, fmt.Errorf("forward: action selection can only be "+
			"done with a policy with batch size 1 \n\twant(1) \n\thave(%v)",
			size)
	}
	if vm == nil {
		return nil, fmt.Errorf("forward: policy has no VM")
	}

	if err := net.SetInput(obs.RawVector().Data); err != nil {
		return nil, fmt.Errorf("forward: cannot set input: %v", err)
	}
	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("forward: could not run policy VM: %v", err)
	}
	defer vm.Reset()

	out := make([][]float64, len(values))
	for i, value := range values {
		out[i] = append([]float64{}, (*value).Data().([]float64)...)
	}
	return out, nil
}
