package deepq

import (
	"fmt"

	"flapdqn/utils/floatutils"
)

// Default hyperparameters. Warmup size, train frequency, and target
// sync cadence are documented configuration, not invariants: hosts
// tune them per deployment.
const (
	DefaultBufferCapacity    = 50_000
	DefaultWarmupSize        = 10_000
	DefaultTrainFrequency    = 8
	DefaultBatchSize         = 64
	DefaultGamma             = 0.99
	DefaultLearningRate      = 1e-3
	DefaultTargetSyncEvery   = 1_000
	DefaultEpsilonStart      = 1.0
	DefaultEpsilonFloor      = 0.01
	DefaultEpsilonDecaySteps = 50_000
)

// Config configures a DeepQ learner. A Config is created once per
// session; learning rate, gamma, and epsilon are hot-mutable on the
// learner afterwards.
type Config struct {
	Inputs      int   `json:"inputs"`
	Outputs     int   `json:"outputs"`
	HiddenSizes []int `json:"hiddenSizes"`

	LearningRate float64 `json:"learningRate"`
	Gamma        float64 `json:"gamma"`
	BatchSize    int     `json:"batchSize"`

	BufferCapacity int `json:"bufferCapacity"`
	WarmupSize     int `json:"warmupSize"`

	// TrainFrequency is the number of collected experiences per
	// gradient update once out of warmup
	TrainFrequency int `json:"trainFrequency"`

	// TargetSyncEvery is the number of training steps between target
	// network syncs on the single-environment path
	TargetSyncEvery int `json:"targetSyncEvery"`

	EpsilonStart      float64 `json:"epsilonStart"`
	EpsilonFloor      float64 `json:"epsilonFloor"`
	EpsilonDecaySteps int     `json:"epsilonDecaySteps"`

	Seed uint64 `json:"seed"`
}

// NewConfig returns a Config for the given observation and action
// dimensions with default hyperparameters
func NewConfig(inputs, outputs int) Config {
	return Config{
		Inputs:            inputs,
		Outputs:           outputs,
		HiddenSizes:       []int{64, 64},
		LearningRate:      DefaultLearningRate,
		Gamma:             DefaultGamma,
		BatchSize:         DefaultBatchSize,
		BufferCapacity:    DefaultBufferCapacity,
		WarmupSize:        DefaultWarmupSize,
		TrainFrequency:    DefaultTrainFrequency,
		TargetSyncEvery:   DefaultTargetSyncEvery,
		EpsilonStart:      DefaultEpsilonStart,
		EpsilonFloor:      DefaultEpsilonFloor,
		EpsilonDecaySteps: DefaultEpsilonDecaySteps,
	}
}

// Validate rejects configurations that cannot produce a working
// learner and clamps recoverable values into their legal ranges.
func (c *Config) Validate() error {
	if c.Inputs < 1 || c.Outputs < 2 {
		return fmt.Errorf("config: need at least 1 input and 2 outputs, "+
			"have %v and %v", c.Inputs, c.Outputs)
	}
	if c.LearningRate <= 0 || !floatutils.Finite(c.LearningRate) {
		return fmt.Errorf("config: learning rate must be positive, "+
			"got %v", c.LearningRate)
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("config: buffer capacity must be >= 1, got %v",
			c.BufferCapacity)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch size must be >= 1, got %v",
			c.BatchSize)
	}
	if c.BatchSize > c.BufferCapacity {
		return fmt.Errorf("config: cannot have batch size (%v) > buffer "+
			"capacity (%v)", c.BatchSize, c.BufferCapacity)
	}

	// Clamped rather than rejected: a session with these slightly off
	// still trains correctly.
	c.Gamma = floatutils.Clip(c.Gamma, 0, 1)
	c.EpsilonStart = floatutils.Clip(c.EpsilonStart, 0, 1)
	c.EpsilonFloor = floatutils.Clip(c.EpsilonFloor, 0, c.EpsilonStart)
	if c.TrainFrequency < 1 {
		c.TrainFrequency = 1
	}
	if c.TargetSyncEvery < 1 {
		c.TargetSyncEvery = 1
	}
	if c.WarmupSize < c.BatchSize {
		c.WarmupSize = c.BatchSize
	}
	if c.WarmupSize > c.BufferCapacity {
		c.WarmupSize = c.BufferCapacity
	}
	if c.EpsilonDecaySteps < 1 {
		c.EpsilonDecaySteps = 1
	}

	return nil
}
