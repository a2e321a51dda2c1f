package agent

import (
	"fmt"

	"github.com/samuelfneumann/locopg/network"
	"github.com/samuelfneumann/locopg/solver"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ValueFunction is a state value function learned by minimizing the
// mean squared error to externally computed targets.
//
// Two networks with the same weights are kept. The prediction network
// has a batch size of 1 and is used to compute state values. The
// training network has the batch size of updates and holds the loss.
// After each update, the weights of the training network are copied
// to the prediction network.
type ValueFunction struct {
	net network.NeuralNet
	vm  G.VM

	trainNet network.NeuralNet
	trainVM  G.VM
	targets  *G.Node
	lossVal  G.Value

	solver         G.Solver
	valueGradSteps int
}

// NewValueFunction returns a new ValueFunction with the given hidden
// layers. Each hidden layer uses activation.
func NewValueFunction(features, batch int, hiddenSizes []int,
	activation func() *network.Activation, init G.InitWFn,
	s *solver.Solver, valueGradSteps int) (*ValueFunction, error) {
	activations := make([]*network.Activation, len(hiddenSizes))
	for i := range activations {
		activations[i] = activation()
	}

	// Create the prediction value function
	net, err := network.NewTreeMLP(features, 1, G.NewGraph(), hiddenSizes,
		activations, init, network.Head{Outputs: 1, Bias: true,
			Activation: network.Identity()})
	if err != nil {
		return nil, fmt.Errorf("newValueFunction: could not create value "+
			"function: %v", err)
	}
	vm := G.NewTapeMachine(net.Graph())

	// Create the training value function
	trainNet, err := net.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("newValueFunction: could not create "+
			"training value function: %v", err)
	}

	// Create the training value function target and MSE loss
	targets := G.NewMatrix(
		trainNet.Graph(),
		tensor.Float64,
		G.WithShape(trainNet.Prediction()[0].Shape()...),
		G.WithName("ValueFunctionUpdateTarget"),
		G.WithInit(G.Zeroes()),
	)
	loss := G.Must(G.Sub(trainNet.Prediction()[0], targets))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))

	// Calculate the value function gradient
	if _, err := G.Grad(loss, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("newValueFunction: could not compute value "+
			"function gradient: %v", err)
	}

	v := &ValueFunction{
		net:            net,
		vm:             vm,
		trainNet:       trainNet,
		targets:        targets,
		solver:         s.Solver,
		valueGradSteps: valueGradSteps,
	}
	G.Read(loss, &v.lossVal)
	v.trainVM = G.NewTapeMachine(trainNet.Graph(),
		G.BindDualValues(trainNet.Learnables()...))

	return v, nil
}

// Value returns the predicted value of state obs
func (v *ValueFunction) Value(obs *mat.VecDense) (float64, error) {
	if err := v.net.SetInput(obs.RawVector().Data); err != nil {
		return 0, fmt.Errorf("value: could not set network input: %v", err)
	}
	if err := v.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("value: could not run value function: %v", err)
	}
	defer v.vm.Reset()

	stateValue := v.net.Output()[0].Data().([]float64)
	if len(stateValue) != 1 {
		return 0, fmt.Errorf("value: more than one state value predicted")
	}
	return stateValue[0], nil
}

// Update takes the configured number of gradient steps on the mean
// squared error between the values of states and targets. States are
// given in row major order. The loss of the final step is returned.
func (v *ValueFunction) Update(states, targets []float64) (float64, error) {
	if err := v.trainNet.SetInput(states); err != nil {
		return 0, fmt.Errorf("update: could not set states: %v", err)
	}
	if len(targets) != v.targets.Shape().TotalSize() {
		return 0, fmt.Errorf("update: invalid number of targets "+
			"\n\twant(%v) \n\thave(%v)", v.targets.Shape().TotalSize(),
			len(targets))
	}
	targetTensor := tensor.NewDense(
		tensor.Float64,
		v.targets.Shape().Clone(),
		tensor.WithBacking(append([]float64{}, targets...)),
	)
	if err := G.Let(v.targets, targetTensor); err != nil {
		return 0, fmt.Errorf("update: could not set targets: %v", err)
	}

	var loss float64
	for i := 0; i < v.valueGradSteps; i++ {
		if err := v.trainVM.RunAll(); err != nil {
			return 0, fmt.Errorf("update: could not run value function: %v",
				err)
		}
		loss = v.lossVal.Data().(float64)
		if err := v.solver.Step(v.trainNet.Model()); err != nil {
			return 0, fmt.Errorf("update: could not step solver: %v", err)
		}
		v.trainVM.Reset()
	}

	if err := network.Set(v.net, v.trainNet); err != nil {
		return 0, fmt.Errorf("update: could not set prediction weights: %v",
			err)
	}
	return loss, nil
}

// Save saves the value function weights to filename
func (v *ValueFunction) Save(filename string) error {
	return network.SaveFile(filename, v.trainNet)
}

// Load loads the value function weights from filename
func (v *ValueFunction) Load(filename string) error {
	if err := network.LoadFile(filename, v.trainNet); err != nil {
		return err
	}
	return network.Set(v.net, v.trainNet)
}
