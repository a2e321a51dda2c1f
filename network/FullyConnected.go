package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer is a fully connected layer of a feed forward neural network.
// A nil bias means the layer has no bias units.
type Layer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newLayer adds the learnables of a fully connected layer with
// the given number of inputs and outputs to graph g. Weights are
// initialized with init and biases with zeroes.
func newLayer(g *G.ExprGraph, name string, inputs, outputs int,
	bias bool, act *Activation, init G.InitWFn) *Layer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(inputs, outputs),
		G.WithName(fmt.Sprintf("%vW", name)),
		G.WithInit(init),
	)

	var biasNode *G.Node
	if bias {
		biasNode = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, outputs),
			G.WithName(fmt.Sprintf("%vB", name)),
			G.WithInit(G.Zeroes()),
		)
	}

	return &Layer{weights: weights, bias: biasNode, act: act}
}

// fwd adds the forward pass of the Layer to the computational graph
func (l *Layer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, l.weights)
	if err != nil {
		return nil, err
	}
	if l.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x, err = G.BroadcastAdd(x, l.bias, nil, []byte{0})
		if err != nil {
			return nil, err
		}
	}
	return l.act.fwd(x)
}

// Learnables returns the weights and bias of the Layer
func (l *Layer) Learnables() G.Nodes {
	if l.bias == nil {
		return G.Nodes{l.weights}
	}
	return G.Nodes{l.weights, l.bias}
}

// Activation returns the activation of the Layer
func (l *Layer) Activation() *Activation {
	return l.act
}
