package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/locopg/network"
	"github.com/samuelfneumann/locopg/utils/op"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// InitLogStd is the initial log standard deviation of every action
// dimension of a SharedStdGaussian
const InitLogStd float64 = -0.75

// SharedStdGaussian implements a diagonal Gaussian policy whose mean
// is predicted by a tanh MLP with a zero-initialized, bias-free linear
// output layer. The log standard deviation is a learned vector that
// does not depend on the state and is shared by all samples in a
// batch.
type SharedStdGaussian struct {
	vm  G.VM
	net network.NeuralNet

	logStd     *G.Node
	actions    *G.Node
	logPdfNode *G.Node

	learnables G.Nodes
	model      []G.ValueGrad

	normal     distmv.Rander
	actionDims int
	seed       uint64

	meanVal   G.Value
	stddevVal G.Value
}

// NewSharedStdGaussian returns a new SharedStdGaussian policy. See
// NewGaussian for a description of the arguments.
func NewSharedStdGaussian(features, actionDims, batch int,
	hiddenSizes []int, init G.InitWFn, seed uint64) (*SharedStdGaussian,
	error) {
	activations := make([]*network.Activation, len(hiddenSizes))
	for i := range activations {
		activations[i] = network.TanH()
	}

	net, err := network.NewTreeMLP(
		features,
		batch,
		G.NewGraph(),
		hiddenSizes,
		activations,
		init,
		network.Head{Outputs: actionDims, Bias: false,
			Activation: network.Identity(), Init: G.Zeroes()},
	)
	if err != nil {
		return nil, fmt.Errorf("newSharedStdGaussian: could not create "+
			"policy network: %v", err)
	}

	return newSharedStdGaussian(net, actionDims, seed)
}

func newSharedStdGaussian(net network.NeuralNet, actionDims int,
	seed uint64) (*SharedStdGaussian, error) {
	logStd := G.NewMatrix(
		net.Graph(),
		tensor.Float64,
		G.WithName("LogStd"),
		G.WithShape(1, actionDims),
		G.WithInit(G.ValuesOf(InitLogStd)),
	)
	std := G.Must(G.Exp(logStd))
	stds := op.Tile(std, net.BatchSize())

	mean := net.Prediction()[0]
	actions := newInputMatrix(net.Graph(), "InputActions", net.BatchSize(),
		actionDims)
	logPdfNode := op.GaussianLogPdf(mean, stds, actions)

	normal, err := standardNormal(actionDims, seed)
	if err != nil {
		return nil, fmt.Errorf("newSharedStdGaussian: %v", err)
	}

	learnables := append(G.Nodes{}, net.Learnables()...)
	learnables = append(learnables, logStd)
	model := make([]G.ValueGrad, len(learnables))
	for i := range learnables {
		model[i] = learnables[i]
	}

	pol := &SharedStdGaussian{
		net:        net,
		logStd:     logStd,
		actions:    actions,
		logPdfNode: logPdfNode,
		learnables: learnables,
		model:      model,
		normal:     normal,
		actionDims: actionDims,
		seed:       seed,
	}

	G.Read(mean, &pol.meanVal)
	G.Read(std, &pol.stddevVal)

	if net.BatchSize() == 1 {
		pol.vm = G.NewTapeMachine(net.Graph())
	}

	return pol, nil
}

// SelectAction samples an action in the state obs
func (s *SharedStdGaussian) SelectAction(obs *mat.VecDense) (*mat.VecDense,
	error) {
	out, err := forward(s.vm, s.net, obs, &s.meanVal, &s.stddevVal)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}
	return sample(s.normal, out[0], out[1]), nil
}

// Std returns the current standard deviation of each action dimension
func (s *SharedStdGaussian) Std() []float64 {
	logStd := s.logStd.Value().Data().([]float64)
	std := make([]float64, len(logStd))
	for i := range logStd {
		std[i] = math.Exp(logStd[i])
	}
	return std
}

// SetInput sets the states and actions for computing log probabilities
func (s *SharedStdGaussian) SetInput(states, actions []float64) error {
	if err := s.net.SetInput(states); err != nil {
		return fmt.Errorf("setInput: could not set states: %v", err)
	}
	if err := letMatrix(s.actions, actions); err != nil {
		return fmt.Errorf("setInput: could not set actions: %v", err)
	}
	return nil
}

// LogPdfNode returns the node that will hold the log probability
// of actions when the comptuational graph is run.
func (s *SharedStdGaussian) LogPdfNode() *G.Node {
	return s.logPdfNode
}

// CloneWithBatch clones a SharedStdGaussian with a new batch size
func (s *SharedStdGaussian) CloneWithBatch(batch int) (Policy, error) {
	net, err := s.net.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	clone, err := newSharedStdGaussian(net, s.actionDims, s.seed)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	if err := network.Set(clone, s); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return clone, nil
}

// Network returns the mean network of the policy
func (s *SharedStdGaussian) Network() network.NeuralNet { return s.net }

// Graph returns the computational graph of the policy
func (s *SharedStdGaussian) Graph() *G.ExprGraph { return s.net.Graph() }

// BatchSize returns the number of samples the policy works on at once
func (s *SharedStdGaussian) BatchSize() int { return s.net.BatchSize() }

// Learnables returns the learnable nodes of the mean network followed
// by the log standard deviation
func (s *SharedStdGaussian) Learnables() G.Nodes { return s.learnables }

// Model returns the learnable nodes with their gradients
func (s *SharedStdGaussian) Model() []G.ValueGrad { return s.model }
