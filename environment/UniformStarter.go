package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting vectors uniformly from a box
type UniformStarter struct {
	features int
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling dimension i
// from bounds[i]. Degenerate intervals always return their single
// value.
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return UniformStarter{len(bounds), rand}
}

// Start returns a starting vector
func (u UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}
