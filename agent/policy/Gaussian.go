package policy

import (
	"fmt"

	"github.com/samuelfneumann/locopg/network"
	"github.com/samuelfneumann/locopg/utils/floatutils"
	"github.com/samuelfneumann/locopg/utils/op"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
)

// MinAction and MaxAction bound every dimension of a sampled
// continuous action
const (
	MinAction float64 = -1.0
	MaxAction float64 = 1.0
)

// Gaussian implements a diagonal Gaussian policy parameterized by a
// tree MLP. The MLP has a single ReLU root network which breaks off
// into two heads. One head predicts the mean through a tanh
// activation, and the other predicts the standard deviation through a
// softplus activation. See the network.TreeMLP struct for more details.
//
// Given a nework prediction of the mean μ and standard deviation σ of
// the Gaussian policy, actions are selected by sampling from the
// standard normal ɛ ~ N(0, I) and computing action := μ + σ * ɛ,
// clipped to [MinAction, MaxAction].
type Gaussian struct {
	vm  G.VM
	net network.NeuralNet

	actions    *G.Node
	logPdfNode *G.Node

	normal     distmv.Rander
	actionDims int
	seed       uint64

	meanVal   G.Value
	stddevVal G.Value
}

// NewGaussian returns a new Gaussian policy over actionDims dimensional
// actions in states with the given number of features. The policy can
// select actions only if batch is 1, larger batches are used for
// learning. The init parameter determines the weight initialization
// scheme of the network and seed the seed of the action sampler.
func NewGaussian(features, actionDims, batch int, hiddenSizes []int,
	init G.InitWFn, seed uint64) (*Gaussian, error) {
	activations := make([]*network.Activation, len(hiddenSizes))
	for i := range activations {
		activations[i] = network.ReLU()
	}

	net, err := network.NewTreeMLP(
		features,
		batch,
		G.NewGraph(),
		hiddenSizes,
		activations,
		init,
		network.Head{Outputs: actionDims, Bias: true,
			Activation: network.TanH()},
		network.Head{Outputs: actionDims, Bias: true,
			Activation: network.SoftPlus()},
	)
	if err != nil {
		return nil, fmt.Errorf("newGaussian: could not create policy "+
			"network: %v", err)
	}

	return newGaussian(net, actionDims, seed)
}

// newGaussian wraps net, which must predict a mean and standard
// deviation, in a Gaussian policy
func newGaussian(net network.NeuralNet, actionDims int,
	seed uint64) (*Gaussian, error) {
	mean := net.Prediction()[0]
	std := net.Prediction()[1]

	actions := newInputMatrix(net.Graph(), "InputActions", net.BatchSize(),
		actionDims)
	logPdfNode := op.GaussianLogPdf(mean, std, actions)

	normal, err := standardNormal(actionDims, seed)
	if err != nil {
		return nil, fmt.Errorf("newGaussian: %v", err)
	}

	pol := &Gaussian{
		net:        net,
		actions:    actions,
		logPdfNode: logPdfNode,
		normal:     normal,
		actionDims: actionDims,
		seed:       seed,
	}

	// Record values of Gorgonia nodes
	G.Read(mean, &pol.meanVal)
	G.Read(std, &pol.stddevVal)

	// Policy can select actions at each timestep only if using a batch
	// size of 1.
	if net.BatchSize() == 1 {
		pol.vm = G.NewTapeMachine(net.Graph())
	}

	return pol, nil
}

// standardNormal returns a seeded standard normal distribution with
// the given dimensionality
func standardNormal(dims int, seed uint64) (distmv.Rander, error) {
	means := make([]float64, dims)
	stds := mat.NewDiagDense(dims, floatutils.Ones(dims))
	source := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		return nil, fmt.Errorf("could not create standard normal for " +
			"action selection")
	}
	return normal, nil
}

// sample returns μ + σ * ɛ clipped to [MinAction, MaxAction]
func sample(normal distmv.Rander, mean, std []float64) *mat.VecDense {
	action := normal.Rand(nil)
	for i := range action {
		action[i] = mean[i] + std[i]*action[i]
	}
	floatutils.ClipSlice(action, MinAction, MaxAction)
	return mat.NewVecDense(len(action), action)
}

// SelectAction samples an action in the state obs
func (g *Gaussian) SelectAction(obs *mat.VecDense) (*mat.VecDense, error) {
	out, err := forward(g.vm, g.net, obs, &g.meanVal, &g.stddevVal)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}
	return sample(g.normal, out[0], out[1]), nil
}

// Distribution returns the mean and standard deviation of the policy
// in state obs
func (g *Gaussian) Distribution(obs *mat.VecDense) (mean, std []float64,
	err error) {
	out, err := forward(g.vm, g.net, obs, &g.meanVal, &g.stddevVal)
	if err != nil {
		return nil, nil, fmt.Errorf("distribution: %v", err)
	}
	return out[0], out[1], nil
}

// SetInput sets the states and actions for computing log probabilities
func (g *Gaussian) SetInput(states, actions []float64) error {
	if err := g.net.SetInput(states); err != nil {
		return fmt.Errorf("setInput: could not set states: %v", err)
	}
	if err := letMatrix(g.actions, actions); err != nil {
		return fmt.Errorf("setInput: could not set actions: %v", err)
	}
	return nil
}

// LogPdfNode returns the node that will hold the log probability
// of actions when the comptuational graph is run.
func (g *Gaussian) LogPdfNode() *G.Node {
	return g.logPdfNode
}

// CloneWithBatch clones a Gaussian with a new batch size
func (g *Gaussian) CloneWithBatch(batch int) (Policy, error) {
	net, err := g.net.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return newGaussian(net, g.actionDims, g.seed)
}

// Network returns the network of the Gaussian policy
func (g *Gaussian) Network() network.NeuralNet { return g.net }

// Graph returns the computational graph of the policy
func (g *Gaussian) Graph() *G.ExprGraph { return g.net.Graph() }

// BatchSize returns the number of samples the policy works on at once
func (g *Gaussian) BatchSize() int { return g.net.BatchSize() }

// Learnables returns the learnable nodes of the policy
func (g *Gaussian) Learnables() G.Nodes { return g.net.Learnables() }

// Model returns the learnable nodes with their gradients
func (g *Gaussian) Model() []G.ValueGrad { return g.net.Model() }
