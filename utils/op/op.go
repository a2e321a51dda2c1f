// Package op provides extended Gorgonia graph operations.
package op

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// StdEpsilon offsets standard deviations in GaussianLogPdf so that
// the density stays finite when a standard deviation collapses to 0.
const StdEpsilon float64 = 1e-8

// LogSumExp calculates the log of the summation of exponentials of
// all logits along the given axis.
//
// Use this in place of Gorgonia's LogSumExp, which has the final sum
// and log interchanged, which is incorrect.
func LogSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}

// LogSoftmax returns the log of the softmax of a batch of logits with
// one row per sample.
func LogSoftmax(logits *G.Node) *G.Node {
	logSumExp := LogSumExp(logits, 1)
	return G.Must(G.BroadcastSub(logits, logSumExp, nil, []byte{1}))
}

// GaussianLogPdf calculates the log of the probability density
// function of actions drawn from diagonal Gaussian distributions.
//
// All arguments are batch x dims matrices, one row per sample. The
// returned node is a vector of batch log densities:
//
//	Σ_d [ -0.5 ((a_d - μ_d) / (σ_d + ε))² - log σ_d - 0.5 log 2π ]
func GaussianLogPdf(mean, std, actions *G.Node) *G.Node {
	graph := mean.Graph()
	if graph != std.Graph() || graph != actions.Graph() {
		panic("gaussianLogPdf: all nodes must share the same graph")
	}
	if !mean.Shape().Eq(actions.Shape()) || !mean.Shape().Eq(std.Shape()) {
		panic(fmt.Sprintf("gaussianLogPdf: all nodes must have the same "+
			"shape \n\tmean(%v) \n\tstd(%v) \n\tactions(%v)", mean.Shape(),
			std.Shape(), actions.Shape()))
	}
	dims := float64(mean.Shape()[1])

	epsilon := G.NewConstant(StdEpsilon)
	negativeHalf := G.NewConstant(-0.5)
	normalizer := G.NewConstant(dims * 0.5 * math.Log(2*math.Pi))

	z := G.Must(G.Sub(actions, mean))
	z = G.Must(G.HadamardDiv(z, G.Must(G.Add(std, epsilon))))
	exponent := G.Must(G.Square(z))
	exponent = G.Must(G.Mul(exponent, negativeHalf))
	exponent = G.Must(G.Sum(exponent, 1))

	logStd := G.Must(G.Log(std))
	logStd = G.Must(G.Sum(logStd, 1))

	logProb := G.Must(G.Sub(exponent, logStd))
	return G.Must(G.Sub(logProb, normalizer))
}

// Tile repeats a 1 x n row node rows times, returning a rows x n
// matrix. Gradients flow back to the row.
func Tile(row *G.Node, rows int) *G.Node {
	if !row.IsMatrix() || row.Shape()[0] != 1 {
		panic(fmt.Sprintf("tile: expected a 1 x n matrix, got shape %v",
			row.Shape()))
	}
	ones := G.NewMatrix(
		row.Graph(),
		row.Dtype(),
		G.WithShape(rows, 1),
		G.WithName(fmt.Sprintf("%v_TileOnes", row.Name())),
		G.WithInit(G.Ones()),
	)
	return G.Must(G.Mul(ones, row))
}
