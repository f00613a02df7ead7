package network

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"flapdqn/utils/matutils"
	"flapdqn/utils/matutils/initializers/weights"
)

const (
	// preActClip bounds pre-activations so a runaway weight cannot
	// push later layers into overflow
	preActClip = 1e6

	// gradClip bounds every gradient component before it is used
	gradClip = 1.0

	// weightClamp bounds every weight and bias after an update
	weightClamp = 10.0
)

// Layer is a dense layer: an (in x out) weight matrix, an out-sized
// bias vector, and an activation.
type Layer struct {
	weights    *mat.Dense
	biases     *mat.VecDense
	activation Activation
}

// newLayer returns a Layer with Glorot-initialized weights and zero
// biases
func newLayer(in, out int, activation Activation, src rand.Source) *Layer {
	l := &Layer{
		weights:    mat.NewDense(in, out, nil),
		biases:     mat.NewVecDense(out, nil),
		activation: activation,
	}
	l.initialize(src)
	return l
}

// initialize re-draws all weights from the Glorot normal distribution
// and zeroes the biases
func (l *Layer) initialize(src rand.Source) {
	in, out := l.weights.Dims()
	init := weights.NewGlorotNUV(in, out, src)
	init.Initialize(l.weights)

	zero := weights.NewLinearUV(weights.NewZeroUV())
	biases := mat.NewDense(1, out, l.biases.RawVector().Data)
	zero.Initialize(biases)
}

// Dims returns the fan-in and fan-out of the layer
func (l *Layer) Dims() (in, out int) {
	return l.weights.Dims()
}

// forward computes the layer's pre-activations and activations for a
// single input vector. Pre-activations are clipped to ±1e6 before the
// activation is applied.
func (l *Layer) forward(input []float64) (preAct, out []float64) {
	_, cols := l.weights.Dims()

	pre := mat.NewVecDense(cols, nil)
	pre.MulVec(l.weights.T(), mat.NewVecDense(len(input), input))
	pre.AddVec(pre, l.biases)
	matutils.VecClip(pre, -preActClip, preActClip)

	preAct = pre.RawVector().Data
	out = make([]float64, cols)
	for j, v := range preAct {
		out[j] = l.activation.Apply(v)
	}
	return preAct, out
}

// rawWeights returns the layer weights as a contiguous row-major
// slice. The backing array is returned directly when possible, so the
// result must be treated as read-only.
func (l *Layer) rawWeights() []float64 {
	raw := l.weights.RawMatrix()
	if raw.Stride == raw.Cols {
		return raw.Data
	}

	data := make([]float64, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		copy(data[i*raw.Cols:(i+1)*raw.Cols],
			raw.Data[i*raw.Stride:i*raw.Stride+raw.Cols])
	}
	return data
}
