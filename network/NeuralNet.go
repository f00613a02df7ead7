// Package network implements the feed-forward value network and its
// manual training step. The backward pass is written out explicitly:
// the learning rule clips gradients and clamps weights at every layer,
// and the gradient sent to the previous layer must be computed from
// the weights as they were before that layer's own update.
package network

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"flapdqn/backend"
	"flapdqn/utils/floatutils"
)

// FeedForward is a dense multi-layer value network. Hidden layers use
// ReLU, the output layer is linear. The zero value is not usable; use
// NewFeedForward or FromSnapshot.
type FeedForward struct {
	layers       []*Layer
	inputs       int
	outputs      int
	hidden       []int
	learningRate float64
	engine       backend.Engine
	src          rand.Source
}

// NewFeedForward returns a network mapping inputs features to outputs
// action values through the given hidden layer sizes.
func NewFeedForward(inputs, outputs int, hidden []int, learningRate float64,
	seed uint64) (*FeedForward, error) {
	if inputs < 1 || outputs < 1 {
		return nil, fmt.Errorf("new: invalid dimensions (%v -> %v)",
			inputs, outputs)
	}
	for _, h := range hidden {
		if h < 1 {
			return nil, fmt.Errorf("new: invalid hidden size %v", h)
		}
	}
	if learningRate <= 0 {
		return nil, fmt.Errorf("new: learning rate must be positive, "+
			"got %v", learningRate)
	}

	src := rand.NewSource(seed)
	sizes := append(append([]int{inputs}, hidden...), outputs)

	layers := make([]*Layer, len(sizes)-1)
	for i := range layers {
		activation := ReLU
		if i == len(layers)-1 {
			activation = Identity
		}
		layers[i] = newLayer(sizes[i], sizes[i+1], activation, src)
	}

	return &FeedForward{
		layers:       layers,
		inputs:       inputs,
		outputs:      outputs,
		hidden:       append([]int(nil), hidden...),
		learningRate: learningRate,
		engine:       backend.Native(),
		src:          src,
	}, nil
}

// Inputs returns the number of input features
func (f *FeedForward) Inputs() int {
	return f.inputs
}

// Outputs returns the number of action values the network predicts
func (f *FeedForward) Outputs() int {
	return f.outputs
}

// HiddenSizes returns a copy of the hidden layer sizes
func (f *FeedForward) HiddenSizes() []int {
	return append([]int(nil), f.hidden...)
}

// LearningRate returns the current learning rate
func (f *FeedForward) LearningRate() float64 {
	return f.learningRate
}

// SetLearningRate sets the learning rate, ignoring non-positive or
// non-finite values
func (f *FeedForward) SetLearningRate(lr float64) {
	if lr > 0 && floatutils.Finite(lr) {
		f.learningRate = lr
	}
}

// SetEngine sets the engine used for batched forward passes
func (f *FeedForward) SetEngine(e backend.Engine) {
	if e != nil {
		f.engine = e
	}
}

// forwardCache holds everything the backward pass needs from one
// forward pass: the input to every layer and every layer's
// pre-activations.
type forwardCache struct {
	inputs  [][]float64
	preActs [][]float64
	output  []float64
}

// forward runs a full forward pass, returning the activation cache
func (f *FeedForward) forward(state []float64) *forwardCache {
	cache := &forwardCache{
		inputs:  make([][]float64, len(f.layers)),
		preActs: make([][]float64, len(f.layers)),
	}

	activation := state
	for i, layer := range f.layers {
		cache.inputs[i] = activation
		preAct, out := layer.forward(activation)
		cache.preActs[i] = preAct
		activation = out
	}
	cache.output = activation
	return cache
}

// Predict returns the action values for a state. Predict is pure: it
// never mutates the network, and repeated calls with the same weights
// and state return identical values. A non-finite state short-circuits
// to an all-zero output.
func (f *FeedForward) Predict(state []float64) []float64 {
	if len(state) != f.inputs || !floatutils.AllFinite(state) {
		return make([]float64, f.outputs)
	}
	return f.forward(state).output
}

// PredictBatch returns action values for a batch of states using one
// matrix product per layer. Rows holding non-finite states produce
// all-zero rows. If the batched engine fails mid-flight the batch is
// recomputed row by row, so a backend fault degrades throughput only.
func (f *FeedForward) PredictBatch(states [][]float64) [][]float64 {
	n := len(states)
	if n == 0 {
		return nil
	}

	// Sanitize input rows up front; bad rows run through the batch as
	// zeros and are zeroed again on output.
	bad := make([]bool, n)
	batch := make([]float64, n*f.inputs)
	for i, state := range states {
		if len(state) != f.inputs || !floatutils.AllFinite(state) {
			bad[i] = true
			continue
		}
		copy(batch[i*f.inputs:(i+1)*f.inputs], state)
	}

	cols := f.inputs
	for _, layer := range f.layers {
		_, out := layer.Dims()

		prod, err := f.engine.MatMul(batch, n, cols, layer.rawWeights(), out)
		if err != nil {
			return f.predictRows(states)
		}

		for i := 0; i < n; i++ {
			for j := 0; j < out; j++ {
				v := prod[i*out+j] + layer.biases.AtVec(j)
				v = floatutils.Clip(v, -preActClip, preActClip)
				prod[i*out+j] = layer.activation.Apply(v)
			}
		}
		batch, cols = prod, out
	}

	result := make([][]float64, n)
	for i := range result {
		result[i] = make([]float64, f.outputs)
		if !bad[i] {
			copy(result[i], batch[i*f.outputs:(i+1)*f.outputs])
		}
	}
	return result
}

// predictRows is the per-row fallback for PredictBatch
func (f *FeedForward) predictRows(states [][]float64) [][]float64 {
	result := make([][]float64, len(states))
	for i, state := range states {
		result[i] = f.Predict(state)
	}
	return result
}

// TrainStep performs one gradient step on the Q-value of the taken
// action using the Huber loss, and returns the loss. The gradient of
// every other action is exactly zero. If the update leaves the network
// producing non-finite outputs, all layers are fully reinitialized.
func (f *FeedForward) TrainStep(state []float64, action int,
	target float64) float64 {
	if action < 0 || action >= f.outputs {
		return 0
	}
	if len(state) != f.inputs || !floatutils.AllFinite(state) ||
		!floatutils.Finite(target) {
		return 0
	}

	cache := f.forward(state)
	predicted := cache.output[action]

	tdError := target - predicted
	var loss, outGrad float64
	if math.Abs(tdError) < 1 {
		loss = 0.5 * tdError * tdError
		// Huber gradient; already within [-1, 1]
		outGrad = -tdError
	} else {
		loss = math.Abs(tdError) - 0.5
		outGrad = -1
		if tdError < 0 {
			outGrad = 1
		}
	}

	grad := make([]float64, f.outputs)
	grad[action] = outGrad

	for l := len(f.layers) - 1; l >= 0; l-- {
		layer := f.layers[l]
		input := cache.inputs[l]
		preAct := cache.preActs[l]
		in, out := layer.Dims()

		delta := make([]float64, out)
		for j := 0; j < out; j++ {
			g := floatutils.Clip(grad[j], -gradClip, gradClip)
			delta[j] = g * layer.activation.Derivative(preAct[j])
		}

		// The gradient for the previous layer must come from the
		// weights before this layer's update, or the chain rule is
		// computed against the wrong function.
		raw := layer.weights.RawMatrix()
		prev := make([]float64, in)
		for i := 0; i < in; i++ {
			sum := 0.0
			row := raw.Data[i*raw.Stride : i*raw.Stride+out]
			for j := 0; j < out; j++ {
				sum += row[j] * delta[j]
			}
			prev[i] = sum
		}

		for i := 0; i < in; i++ {
			row := raw.Data[i*raw.Stride : i*raw.Stride+out]
			for j := 0; j < out; j++ {
				row[j] = floatutils.Clip(
					row[j]-f.learningRate*input[i]*delta[j],
					-weightClamp, weightClamp)
			}
		}
		for j := 0; j < out; j++ {
			b := f.learningRate * delta[j]
			layer.biases.SetVec(j, floatutils.Clip(layer.biases.AtVec(j)-b,
				-weightClamp, weightClamp))
		}

		grad = prev
	}

	if !floatutils.AllFinite(f.forward(state).output) {
		f.reinitialize()
	}
	return loss
}

// TrainBatch applies TrainStep to each sample in order and returns the
// mean loss
func (f *FeedForward) TrainBatch(states [][]float64, actions []int,
	targets []float64) (float64, error) {
	if len(states) != len(actions) || len(states) != len(targets) {
		return 0, fmt.Errorf("trainbatch: mismatched batch sizes "+
			"(%v states, %v actions, %v targets)", len(states),
			len(actions), len(targets))
	}
	if len(states) == 0 {
		return 0, nil
	}

	total := 0.0
	for i := range states {
		total += f.TrainStep(states[i], actions[i], targets[i])
	}
	return total / float64(len(states)), nil
}

// CopyWeightsFrom overwrites the receiver's weights and biases with
// deep copies of those in other. Architectures must match.
func (f *FeedForward) CopyWeightsFrom(other *FeedForward) error {
	if len(f.layers) != len(other.layers) {
		return fmt.Errorf("copyweights: layer count mismatch "+
			"(%v vs %v)", len(f.layers), len(other.layers))
	}
	for i, layer := range f.layers {
		src := other.layers[i]
		ir, ic := layer.weights.Dims()
		or, oc := src.weights.Dims()
		if ir != or || ic != oc {
			return fmt.Errorf("copyweights: layer %v shape mismatch "+
				"(%vx%v vs %vx%v)", i, ir, ic, or, oc)
		}
		layer.weights.Copy(src.weights)
		layer.biases.CopyVec(src.biases)
	}
	return nil
}

// reinitialize performs a full Glorot reinitialization of every layer.
// Partial repair of a non-finite network is never attempted.
func (f *FeedForward) reinitialize() {
	for _, layer := range f.layers {
		layer.initialize(f.src)
	}
}
