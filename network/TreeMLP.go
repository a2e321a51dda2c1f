package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Head describes a single output layer of a TreeMLP. A nil Init
// means the head uses the initializer of its network.
type Head struct {
	Outputs    int
	Bias       bool
	Activation *Activation
	Init       G.InitWFn
}

// TreeMLP implements a multi-layered perceptron with a shared root
// network and multiple linear output heads that use the output of the
// root network as their own inputs. A diagram of a TreeMLP:
//
//	                    ╭─→ Head 1 ─→ Output
//	Input ─→ Root Net ─┼─→ ...    ─→ ...
//	                    ╰─→ Head N ─→ Output
//
// The root network may have no hidden layers, in which case each head
// is a linear function of the input.
type TreeMLP struct {
	g     *G.ExprGraph
	input *G.Node

	features  int
	batchSize int

	// Configuration needed for cloning
	hiddenSizes       []int
	hiddenActivations []*Activation
	init              G.InitWFn
	heads             []Head

	root   []*Layer
	leaves []*Layer

	learnables G.Nodes
	model      []G.ValueGrad

	prediction []*G.Node
	predVal    []G.Value
}

// validateTreeMLP validates the arguments of NewTreeMLP
func validateTreeMLP(features, batch int, hiddenSizes []int,
	activations []*Activation, heads []Head) error {
	if features <= 0 {
		return fmt.Errorf("there must be at least one input feature")
	}
	if batch <= 0 {
		return fmt.Errorf("batch size must be positive, got %v", batch)
	}
	if len(hiddenSizes) != len(activations) {
		return fmt.Errorf("invalid number of hidden activations "+
			"\n\twant(%v) \n\thave(%v)", len(hiddenSizes), len(activations))
	}
	for i, size := range hiddenSizes {
		if size <= 0 {
			return fmt.Errorf("hidden layer %v must have at least one "+
				"unit, got %v", i, size)
		}
		if activations[i] == nil {
			return fmt.Errorf("hidden layer %v has a nil activation", i)
		}
	}
	if len(heads) == 0 {
		return fmt.Errorf("there must be at least one output head")
	}
	for i, head := range heads {
		if head.Outputs <= 0 {
			return fmt.Errorf("head %v must have at least one output", i)
		}
		if head.Activation == nil {
			return fmt.Errorf("head %v has a nil activation", i)
		}
	}
	return nil
}

// NewTreeMLP returns a new TreeMLP on graph g taking batch inputs of
// features features each.
//
// The root network has len(hiddenSizes) layers. For index i,
// hiddenSizes[i] determines the number of hidden units in that layer
// and activations[i] the activation function applied to it. All root
// layers have biases and are initialized with init.
//
// Each head adds one fully connected output layer on top of the root
// network.
func NewTreeMLP(features, batch int, g *G.ExprGraph, hiddenSizes []int,
	activations []*Activation, init G.InitWFn, heads ...Head) (*TreeMLP,
	error) {
	err := validateTreeMLP(features, batch, hiddenSizes, activations, heads)
	if err != nil {
		return nil, fmt.Errorf("newTreeMLP: %v", err)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	net := &TreeMLP{
		g:                 g,
		input:             input,
		features:          features,
		batchSize:         batch,
		hiddenSizes:       hiddenSizes,
		hiddenActivations: activations,
		init:              init,
		heads:             heads,
	}

	// Root network
	x := input
	inputs := features
	for i, size := range hiddenSizes {
		layer := newLayer(g, fmt.Sprintf("Root%d", i), inputs, size, true,
			activations[i], init)
		net.root = append(net.root, layer)

		if x, err = layer.fwd(x); err != nil {
			return nil, fmt.Errorf("newTreeMLP: could not compute forward "+
				"pass of root layer %v: %v", i, err)
		}
		inputs = size
	}

	// Output heads
	for i, head := range heads {
		headInit := head.Init
		if headInit == nil {
			headInit = init
		}
		layer := newLayer(g, fmt.Sprintf("Head%d", i), inputs, head.Outputs,
			head.Bias, head.Activation, headInit)
		net.leaves = append(net.leaves, layer)

		pred, err := layer.fwd(x)
		if err != nil {
			return nil, fmt.Errorf("newTreeMLP: could not compute forward "+
				"pass of head %v: %v", i, err)
		}
		net.prediction = append(net.prediction, pred)
	}

	net.predVal = make([]G.Value, len(net.prediction))
	for i, pred := range net.prediction {
		G.Read(pred, &net.predVal[i])
	}

	return net, nil
}

// SetInput sets the value of the input node before running the forward
// pass.
func (t *TreeMLP) SetInput(input []float64) error {
	if len(input) != t.features*t.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs \n\twant(%v)"+
			"\n\thave(%v)", t.features*t.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(t.input.Shape()...),
	)
	return G.Let(t.input, inputTensor)
}

// Graph returns the computational graph of the network
func (t *TreeMLP) Graph() *G.ExprGraph {
	return t.g
}

// Features returns the number of input features
func (t *TreeMLP) Features() int {
	return t.features
}

// BatchSize returns the batch size for inputs to the network
func (t *TreeMLP) BatchSize() int {
	return t.batchSize
}

// Outputs returns the number of outputs of each head
func (t *TreeMLP) Outputs() []int {
	outputs := make([]int, len(t.heads))
	for i, head := range t.heads {
		outputs[i] = head.Outputs
	}
	return outputs
}

// CloneWithBatch returns a copy of the TreeMLP on a new graph with a
// new input batch size. The clone starts with the same weights.
func (t *TreeMLP) CloneWithBatch(batch int) (NeuralNet, error) {
	clone, err := NewTreeMLP(t.features, batch, G.NewGraph(), t.hiddenSizes,
		t.hiddenActivations, t.init, t.heads...)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	if err := Set(clone, t); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return clone, nil
}

// Set sets the weights of the TreeMLP to those of source
func (t *TreeMLP) Set(source NeuralNet) error {
	return Set(t, source)
}

// Output returns the value of each head, available after a VM has been
// run on the graph
func (t *TreeMLP) Output() []G.Value {
	return t.predVal
}

// Prediction returns the output node of each head
func (t *TreeMLP) Prediction() []*G.Node {
	return t.prediction
}

// Learnables returns the learnable nodes of the root network followed
// by those of each head
func (t *TreeMLP) Learnables() G.Nodes {
	if t.learnables == nil {
		for _, layer := range append(append([]*Layer{}, t.root...),
			t.leaves...) {
			t.learnables = append(t.learnables, layer.Learnables()...)
		}
	}
	return t.learnables
}

// Model returns the learnable nodes with their gradients.
func (t *TreeMLP) Model() []G.ValueGrad {
	if t.model == nil {
		for _, learnable := range t.Learnables() {
			t.model = append(t.model, learnable)
		}
	}
	return t.model
}
