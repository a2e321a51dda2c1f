package network

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// weights is the serialized form of a single learnable
type weights struct {
	Name  string
	Shape []int
	Data  []float64
}

// Save gob-encodes the learnables of net to w
func Save(w io.Writer, net Parameterized) error {
	learnables := net.Learnables()
	saved := make([]weights, len(learnables))
	for i, learnable := range learnables {
		data, ok := learnable.Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("save: learnable %v is not float64",
				learnable.Name())
		}
		saved[i] = weights{
			Name:  learnable.Name(),
			Shape: append([]int{}, learnable.Shape()...),
			Data:  append([]float64{}, data...),
		}
	}

	if err := gob.NewEncoder(w).Encode(saved); err != nil {
		return fmt.Errorf("save: could not encode weights: %v", err)
	}
	return nil
}

// Load decodes learnables written by Save into net. The architecture
// of net must match the architecture of the saved network.
func Load(r io.Reader, net Parameterized) error {
	var saved []weights
	if err := gob.NewDecoder(r).Decode(&saved); err != nil {
		return fmt.Errorf("load: could not decode weights: %v", err)
	}

	learnables := net.Learnables()
	if len(saved) != len(learnables) {
		return fmt.Errorf("load: incompatible architecture \n\twant(%v "+
			"learnables) \n\thave(%v learnables)", len(learnables),
			len(saved))
	}

	for i, learnable := range learnables {
		shape := tensor.Shape(saved[i].Shape)
		if !shape.Eq(learnable.Shape()) {
			return fmt.Errorf("load: incompatible shape for learnable %v "+
				"\n\twant(%v) \n\thave(%v)", learnable.Name(),
				learnable.Shape(), shape)
		}

		value := tensor.New(
			tensor.WithShape(saved[i].Shape...),
			tensor.WithBacking(saved[i].Data),
		)
		if err := G.Let(learnable, value); err != nil {
			return fmt.Errorf("load: could not set learnable %v: %v",
				learnable.Name(), err)
		}
	}
	return nil
}

// SaveFile saves the learnables of net to the named file
func SaveFile(filename string, net Parameterized) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("saveFile: %v", err)
	}
	defer f.Close()

	return Save(f, net)
}

// LoadFile loads the learnables of net from the named file
func LoadFile(filename string, net Parameterized) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("loadFile: %v", err)
	}
	defer f.Close()

	return Load(f, net)
}
