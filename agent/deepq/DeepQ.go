// Package deepq implements the deep Q-learning update rule: an
// epsilon-greedy behaviour policy over a trained value network, with
// bootstrapped regression targets from a slow-moving target network
// copy and uniform experience replay.
package deepq

import (
	"fmt"

	"flapdqn/backend"
	"flapdqn/expreplay"
	"flapdqn/network"
	"flapdqn/policy"
	"flapdqn/timestep"
	"flapdqn/utils/floatutils"
)

// Mode is the learner's collection state. The transition
// Warmup -> Training is one-directional; only Reset re-enters Warmup.
type Mode int

const (
	Warmup Mode = iota
	Training
)

func (m Mode) String() string {
	if m == Warmup {
		return "Warmup"
	}
	return "Training"
}

// DeepQ owns the policy network, the target network, and the replay
// buffer of one training session. It is exclusively owned by one
// goroutine; it performs no locking of its own.
type DeepQ struct {
	config Config

	policyNet *network.FeedForward
	targetNet *network.FeedForward
	replay    *expreplay.Buffer
	egreedy   *policy.EGreedy
	decay     *policy.LinearDecay

	mode        Mode
	trainSteps  int
	experiences int
	sinceUpdate int
	lastLoss    float64

	// autoTargetSync drives target syncs from the training-step
	// counter. The batched trainer disables it and syncs on
	// environment steps instead, so target staleness does not depend
	// on how many environments run in parallel.
	autoTargetSync bool
}

// New returns a DeepQ learner for the given configuration. The target
// network starts bit-identical to the policy network.
func New(config Config) (*DeepQ, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	policyNet, err := network.NewFeedForward(config.Inputs, config.Outputs,
		config.HiddenSizes, config.LearningRate, config.Seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy network: %v",
			err)
	}
	targetNet, err := network.NewFeedForward(config.Inputs, config.Outputs,
		config.HiddenSizes, config.LearningRate, config.Seed+1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}
	if err := targetNet.CopyWeightsFrom(policyNet); err != nil {
		return nil, fmt.Errorf("new: could not sync target network: %v",
			err)
	}

	replay, err := expreplay.New(config.BufferCapacity, config.Inputs,
		config.Seed+2)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %v",
			err)
	}

	return &DeepQ{
		config:    config,
		policyNet: policyNet,
		targetNet: targetNet,
		replay:    replay,
		egreedy: policy.NewEGreedy(config.EpsilonStart, config.Outputs,
			config.Seed+3),
		decay: policy.NewLinearDecay(config.EpsilonStart,
			config.EpsilonFloor, config.EpsilonDecaySteps),
		mode:           Warmup,
		autoTargetSync: true,
	}, nil
}

// SelectAction selects an action for a state. With exploring false the
// selection is greedy regardless of epsilon.
func (d *DeepQ) SelectAction(state []float64, exploring bool) int {
	return d.egreedy.SelectAction(d.policyNet.Predict(state), exploring)
}

// SelectActions selects one action per state with a single batched
// forward pass
func (d *DeepQ) SelectActions(states [][]float64, exploring bool) []int {
	values := d.policyNet.PredictBatch(states)
	actions := make([]int, len(states))
	for i, q := range values {
		actions[i] = d.egreedy.SelectAction(q, exploring)
	}
	return actions
}

// ObserveTransition records a transition in the replay buffer. Once
// the buffer reaches the warmup size the learner moves to Training and
// stays there.
func (d *DeepQ) ObserveTransition(t timestep.Transition) error {
	if err := d.replay.Add(t); err != nil {
		return err
	}
	d.experiences++
	d.sinceUpdate++

	if d.mode == Warmup && d.replay.Size() >= d.config.WarmupSize {
		d.mode = Training
	}
	return nil
}

// MaybeUpdate performs one gradient update if one is due: the learner
// must be out of warmup and TrainFrequency experiences must have
// accumulated since the last update. It reports whether an update ran.
func (d *DeepQ) MaybeUpdate() (bool, error) {
	if d.mode != Training || d.sinceUpdate < d.config.TrainFrequency {
		return false, nil
	}
	d.sinceUpdate -= d.config.TrainFrequency
	return d.Update(d.config.BatchSize)
}

// Update performs one gradient update with the given batch size,
// bypassing the train-frequency gate. A buffer too small to sample is
// a silent no-op. Target syncs driven by training steps can be
// disabled by the caller (the batched trainer syncs on environment
// steps instead).
func (d *DeepQ) Update(batchSize int) (bool, error) {
	if d.mode != Training {
		return false, nil
	}
	if !d.replay.CanSample(batchSize) {
		return false, nil
	}

	batch, err := d.replay.Sample(batchSize)
	if err != nil {
		if expreplay.IsEmptyBuffer(err) ||
			expreplay.IsInsufficientSamples(err) {
			return false, nil
		}
		return false, err
	}

	states := make([][]float64, len(batch))
	actions := make([]int, len(batch))
	nextStates := make([][]float64, len(batch))
	for i, t := range batch {
		states[i] = t.State
		actions[i] = t.Action
		nextStates[i] = t.NextState
	}

	// One batched target-network pass provides the bootstrap values
	// for the whole batch
	nextValues := d.targetNet.PredictBatch(nextStates)

	targets := make([]float64, len(batch))
	for i, t := range batch {
		targets[i] = t.Reward
		if !t.Done {
			best, _ := floatutils.MaxSlice(nextValues[i])
			targets[i] += d.config.Gamma * best
		}
	}

	loss, err := d.policyNet.TrainBatch(states, actions, targets)
	if err != nil {
		return false, err
	}
	d.lastLoss = loss
	d.trainSteps++

	if d.autoTargetSync && d.trainSteps%d.config.TargetSyncEvery == 0 {
		d.SyncTarget()
	}
	if d.decay.Enabled() {
		d.egreedy.SetEpsilon(d.decay.Epsilon(d.trainSteps))
	}
	return true, nil
}

// SyncTarget copies the policy network weights into the target network
func (d *DeepQ) SyncTarget() {
	// Architectures are fixed at construction, so this cannot fail
	if err := d.targetNet.CopyWeightsFrom(d.policyNet); err != nil {
		panic(fmt.Sprintf("synctarget: %v", err))
	}
}

// SetAutoTargetSync toggles training-step-driven target syncs. When
// disabled the owner must call SyncTarget on its own cadence.
func (d *DeepQ) SetAutoTargetSync(enabled bool) {
	d.autoTargetSync = enabled
}

// Reset discards all learned state and re-enters Warmup: fresh
// networks, an empty buffer, and epsilon back at its starting value.
func (d *DeepQ) Reset() error {
	fresh, err := New(d.config)
	if err != nil {
		return err
	}
	*d = *fresh
	return nil
}

// Epsilon returns the behaviour policy's current exploration rate
func (d *DeepQ) Epsilon() float64 {
	return d.egreedy.Epsilon()
}

// SetEpsilon overrides the exploration rate, clamped to [0, 1]. While
// auto-decay is enabled the next update recomputes epsilon from the
// schedule.
func (d *DeepQ) SetEpsilon(epsilon float64) {
	d.egreedy.SetEpsilon(epsilon)
}

// AutoDecay returns whether the linear epsilon decay schedule is
// active
func (d *DeepQ) AutoDecay() bool {
	return d.decay.Enabled()
}

// SetAutoDecay toggles the decay schedule. Re-enabling resets the
// decay origin to the current epsilon and training step.
func (d *DeepQ) SetAutoDecay(enabled bool) {
	d.decay.SetEnabled(enabled, d.egreedy.Epsilon(), d.trainSteps)
}

// LearningRate returns the current learning rate
func (d *DeepQ) LearningRate() float64 {
	return d.policyNet.LearningRate()
}

// SetLearningRate sets the learning rate on the trained network.
// Non-positive values are ignored.
func (d *DeepQ) SetLearningRate(lr float64) {
	d.policyNet.SetLearningRate(lr)
}

// Gamma returns the discount factor
func (d *DeepQ) Gamma() float64 {
	return d.config.Gamma
}

// SetGamma sets the discount factor, clamped to [0, 1]
func (d *DeepQ) SetGamma(gamma float64) {
	if floatutils.Finite(gamma) {
		d.config.Gamma = floatutils.Clip(gamma, 0, 1)
	}
}

// SetTrainFrequency sets the number of experiences per update, with a
// minimum of 1
func (d *DeepQ) SetTrainFrequency(k int) {
	if k < 1 {
		k = 1
	}
	d.config.TrainFrequency = k
}

// SetEngine sets the batched-forward engine on both networks
func (d *DeepQ) SetEngine(e backend.Engine) {
	d.policyNet.SetEngine(e)
	d.targetNet.SetEngine(e)
}

// SnapshotPolicy returns a deep copy of the policy network weights
func (d *DeepQ) SnapshotPolicy() *network.Snapshot {
	return d.policyNet.Snapshot()
}

// LoadPolicySnapshot overwrites both networks with the snapshot's
// weights
func (d *DeepQ) LoadPolicySnapshot(s *network.Snapshot) error {
	if err := d.policyNet.LoadSnapshot(s); err != nil {
		return err
	}
	d.SyncTarget()
	return nil
}

// InWarmup returns whether the learner is still collecting warmup
// experience
func (d *DeepQ) InWarmup() bool {
	return d.mode == Warmup
}

// TrainSteps returns the number of gradient updates performed
func (d *DeepQ) TrainSteps() int {
	return d.trainSteps
}

// Experiences returns the total number of transitions observed
func (d *DeepQ) Experiences() int {
	return d.experiences
}

// BufferSize returns the replay buffer's current occupancy
func (d *DeepQ) BufferSize() int {
	return d.replay.Size()
}

// LastLoss returns the mean loss of the most recent update
func (d *DeepQ) LastLoss() float64 {
	return d.lastLoss
}

// Config returns the learner's configuration with hot-mutable fields
// at their current values
func (d *DeepQ) Config() Config {
	c := d.config
	c.LearningRate = d.policyNet.LearningRate()
	return c
}
