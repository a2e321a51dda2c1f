package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/locopg/network"
	"github.com/samuelfneumann/locopg/utils/op"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
)

// Categorical implements a softmax policy over a discrete set of
// actions. A tanh MLP predicts one logit per action and actions are
// sampled from softmax(logits).
//
// Actions are represented as length 1 vectors holding the index of
// the action.
type Categorical struct {
	vm  G.VM
	net network.NeuralNet

	actions    *G.Node // One-hot encoding of input actions
	logPdfNode *G.Node

	source     rand.Source
	numActions int
	seed       uint64

	probsVal G.Value
}

// NewCategorical returns a new Categorical policy. See NewGaussian for
// a description of the arguments.
func NewCategorical(features, numActions, batch int, hiddenSizes []int,
	init G.InitWFn, seed uint64) (*Categorical, error) {
	if numActions < 1 {
		return nil, fmt.Errorf("newCategorical: there must be at least "+
			"one action, got %v", numActions)
	}

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
		network.Head{Outputs: numActions, Bias: true,
			Activation: network.Identity()},
	)
	if err != nil {
		return nil, fmt.Errorf("newCategorical: could not create policy "+
			"network: %v", err)
	}

	return newCategorical(net, numActions, seed), nil
}

func newCategorical(net network.NeuralNet, numActions int,
	seed uint64) *Categorical {
	logits := net.Prediction()[0]
	logProbs := op.LogSoftmax(logits)
	probs := G.Must(G.Exp(logProbs))

	actions := newInputMatrix(net.Graph(), "InputActions", net.BatchSize(),
		numActions)
	logPdfNode := G.Must(G.HadamardProd(logProbs, actions))
	logPdfNode = G.Must(G.Sum(logPdfNode, 1))

	pol := &Categorical{
		net:        net,
		actions:    actions,
		logPdfNode: logPdfNode,
		source:     rand.NewSource(seed),
		numActions: numActions,
		seed:       seed,
	}

	G.Read(probs, &pol.probsVal)

	if net.BatchSize() == 1 {
		pol.vm = G.NewTapeMachine(net.Graph())
	}

	return pol
}

// SelectAction samples an action index in the state obs
func (c *Categorical) SelectAction(obs *mat.VecDense) (*mat.VecDense,
	error) {
	probs, err := c.Probabilities(obs)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}

	action := SampleCategorical(probs, c.source)
	return mat.NewVecDense(1, []float64{float64(action)}), nil
}

// Probabilities returns the probability of selecting each action in
// state obs
func (c *Categorical) Probabilities(obs *mat.VecDense) ([]float64, error) {
	out, err := forward(c.vm, c.net, obs, &c.probsVal)
	if err != nil {
		return nil, fmt.Errorf("probabilities: %v", err)
	}
	return out[0], nil
}

// SetInput sets the states and action indices for computing log
// probabilities
func (c *Categorical) SetInput(states, actions []float64) error {
	if err := c.net.SetInput(states); err != nil {
		return fmt.Errorf("setInput: could not set states: %v", err)
	}

	oneHot, err := OneHot(actions, c.numActions)
	if err != nil {
		return fmt.Errorf("setInput: %v", err)
	}
	if err := letMatrix(c.actions, oneHot); err != nil {
		return fmt.Errorf("setInput: could not set actions: %v", err)
	}
	return nil
}

// LogPdfNode returns the node that will hold the log probability
// of actions when the comptuational graph is run.
func (c *Categorical) LogPdfNode() *G.Node {
	return c.logPdfNode
}

// CloneWithBatch clones a Categorical with a new batch size
func (c *Categorical) CloneWithBatch(batch int) (Policy, error) {
	net, err := c.net.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return newCategorical(net, c.numActions, c.seed), nil
}

// Network returns the logit network of the policy
func (c *Categorical) Network() network.NeuralNet { return c.net }

// Graph returns the computational graph of the policy
func (c *Categorical) Graph() *G.ExprGraph { return c.net.Graph() }

// BatchSize returns the number of samples the policy works on at once
func (c *Categorical) BatchSize() int { return c.net.BatchSize() }

// Learnables returns the learnable nodes of the policy
func (c *Categorical) Learnables() G.Nodes { return c.net.Learnables() }

// Model returns the learnable nodes with their gradients
func (c *Categorical) Model() []G.ValueGrad { return c.net.Model() }

// OneHot encodes a sequence of action indices as a row major matrix
// with numActions columns
func OneHot(actions []float64, numActions int) ([]float64, error) {
	oneHot := make([]float64, len(actions)*numActions)
	for i, action := range actions {
		index := int(action)
		if float64(index) != action || index < 0 || index >= numActions {
			return nil, fmt.Errorf("oneHot: illegal action %v for %v actions",
				action, numActions)
		}
		oneHot[i*numActions+index] = 1.0
	}
	return oneHot, nil
}

// SampleCategorical samples an index from the categorical
// distribution with the given probabilities
func SampleCategorical(probs []float64, src rand.Source) int {
	return int(distuv.NewCategorical(probs, src).Rand())
}

// GaussianLogLikelihood returns the log density of actions under a
// diagonal Gaussian with the given means and standard deviations. It
// matches the log density computed on the computational graph of the
// Gaussian policies.
func GaussianLogLikelihood(actions, means, stds []float64) float64 {
	if len(actions) != len(means) || len(actions) != len(stds) {
		panic(fmt.Sprintf("gaussianLogLikelihood: inconsistent lengths "+
			"\n\tactions(%v) \n\tmeans(%v) \n\tstds(%v)", len(actions),
			len(means), len(stds)))
	}

	var logProb float64
	for i := range actions {
		z := (actions[i] - means[i]) / (stds[i] + op.StdEpsilon)
		logProb += distuv.UnitNormal.LogProb(z) - math.Log(stds[i])
	}
	return logProb
}
