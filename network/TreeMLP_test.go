package network

import (
	"bytes"
	"testing"

	G "gorgonia.org/gorgonia"
)

func newTestNet(t *testing.T, batch int) *TreeMLP {
	net, err := NewTreeMLP(3, batch, G.NewGraph(), []int{5, 4},
		[]*Activation{ReLU(), TanH()}, G.GlorotN(1.0),
		Head{Outputs: 2, Bias: true, Activation: TanH()},
		Head{Outputs: 2, Bias: true, Activation: SoftPlus()},
	)
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func predict(t *testing.T, net NeuralNet, input []float64) [][]float64 {
	if err := net.SetInput(input); err != nil {
		t.Fatal(err)
	}
	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	outputs := make([][]float64, len(net.Output()))
	for i, out := range net.Output() {
		outputs[i] = append([]float64{}, out.Data().([]float64)...)
	}
	return outputs
}

func equal(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func TestTreeMLPShapes(t *testing.T) {
	net := newTestNet(t, 4)

	if len(net.Learnables()) != 8 {
		t.Errorf("learnables: \n\twant(8) \n\thave(%v)",
			len(net.Learnables()))
	}

	out := predict(t, net, make([]float64, 12))
	if len(out) != 2 || len(out[0]) != 8 || len(out[1]) != 8 {
		t.Errorf("output: \n\twant(2 heads of 8) \n\thave(%v)", out)
	}
	for _, std := range out[1] {
		if std <= 0 {
			t.Errorf("softplus head should be positive, have %v", std)
		}
	}

	if err := net.SetInput(make([]float64, 3)); err == nil {
		t.Error("setInput: expected error for wrong input size")
	}
}

func TestTreeMLPNoHiddenLayers(t *testing.T) {
	net, err := NewTreeMLP(3, 1, G.NewGraph(), nil, nil, G.Zeroes(),
		Head{Outputs: 1, Bias: false, Activation: Identity()})
	if err != nil {
		t.Fatal(err)
	}
	out := predict(t, net, []float64{1, 2, 3})
	if out[0][0] != 0 {
		t.Errorf("zero-initialized linear net: \n\twant(0) \n\thave(%v)",
			out[0][0])
	}
}

func TestTreeMLPValidation(t *testing.T) {
	_, err := NewTreeMLP(3, 1, G.NewGraph(), []int{5}, nil, G.Zeroes(),
		Head{Outputs: 1, Activation: Identity()})
	if err == nil {
		t.Error("newTreeMLP: expected error for missing activation")
	}

	_, err = NewTreeMLP(3, 1, G.NewGraph(), nil, nil, G.Zeroes())
	if err == nil {
		t.Error("newTreeMLP: expected error for missing heads")
	}
}

func TestCloneWithBatch(t *testing.T) {
	net := newTestNet(t, 1)
	input := []float64{0.5, -1, 2}

	clone, err := net.CloneWithBatch(2)
	if err != nil {
		t.Fatal(err)
	}
	if clone.BatchSize() != 2 {
		t.Errorf("batchSize: \n\twant(2) \n\thave(%v)", clone.BatchSize())
	}

	want := predict(t, net, input)
	have := predict(t, clone, append(input, input...))
	for i := range want {
		for j := range want[i] {
			if have[i][j] != want[i][j] ||
				have[i][j+len(want[i])] != want[i][j] {
				t.Errorf("clone output: \n\twant(%v) \n\thave(%v)", want, have)
				return
			}
		}
	}
}

func TestSaveLoad(t *testing.T) {
	source := newTestNet(t, 1)
	dest := newTestNet(t, 1)
	input := []float64{0.1, 0.2, 0.3}

	var buf bytes.Buffer
	if err := Save(&buf, source); err != nil {
		t.Fatal(err)
	}
	if err := Load(&buf, dest); err != nil {
		t.Fatal(err)
	}

	if !equal(predict(t, source, input), predict(t, dest, input)) {
		t.Error("load: loaded network should predict like the saved one")
	}

	other, err := NewTreeMLP(3, 1, G.NewGraph(), []int{6}, []*Activation{ReLU()},
		G.GlorotN(1.0), Head{Outputs: 1, Bias: true, Activation: Identity()})
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	Save(&buf, source)
	if err := Load(&buf, other); err == nil {
		t.Error("load: expected error for incompatible architecture")
	}
}

func TestActivationText(t *testing.T) {
	for _, act := range []*Activation{ReLU(), TanH(), Identity(), SoftPlus()} {
		text, _ := act.MarshalText()
		decoded := &Activation{}
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatal(err)
		}
		if decoded.String() != act.String() {
			t.Errorf("unmarshalText: \n\twant(%v) \n\thave(%v)", act, decoded)
		}
	}

	if err := (&Activation{}).UnmarshalText([]byte("sigmoid")); err == nil {
		t.Error("unmarshalText: expected error for unknown activation")
	}
}
