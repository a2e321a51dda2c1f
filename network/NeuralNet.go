// Package network implements neural networks built on Gorgonia
// computational graphs.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet is a differentiable function approximator living on a
// Gorgonia computational graph. Inputs are set with SetInput before
// running a VM on Graph(); after the VM has run, Output() holds the
// value of each node returned by Prediction().
type NeuralNet interface {
	Graph() *G.ExprGraph
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() []int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() []G.Value
	Prediction() []*G.Node
}

// Parameterized is anything that owns learnable nodes on a graph
type Parameterized interface {
	Learnables() G.Nodes
}

// Set sets the weights of dest to be equal to the weights of source.
// Both must have the same architecture.
func Set(dest, source Parameterized) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("set: incompatible networks \n\twant(%v "+
			"learnables) \n\thave(%v learnables)", len(nodes),
			len(sourceNodes))
	}

	for i, destLearnable := range nodes {
		if !destLearnable.Shape().Eq(sourceNodes[i].Shape()) {
			return fmt.Errorf("set: incompatible shapes for learnable "+
				"%v \n\twant(%v) \n\thave(%v)", i, destLearnable.Shape(),
				sourceNodes[i].Shape())
		}

		weights := sourceNodes[i].Value().(*tensor.Dense).Clone()
		if err := G.Let(destLearnable, weights); err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v", i, err)
		}
	}
	return nil
}
