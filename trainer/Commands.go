package trainer

import (
	"flapdqn/environment"
	"flapdqn/network"
)

// Commands are the only way foreground code mutates a running session.
// Each command is a small tagged struct applied by the background
// goroutine between work units; commands that answer carry their own
// response channel.

type command interface {
	apply(t *Trainer)
}

type startCmd struct{}

func (startCmd) apply(t *Trainer) {
	if t.fastMode {
		t.leaveFast()
		t.fastMode = false
	}
	t.setRunning(true)
}

type stopCmd struct{}

func (stopCmd) apply(t *Trainer) {
	t.setRunning(false)
}

type startFastCmd struct{}

func (startFastCmd) apply(t *Trainer) {
	t.enterFast()
	t.fastMode = true
	t.setRunning(true)
}

type stopFastCmd struct{}

func (stopFastCmd) apply(t *Trainer) {
	t.leaveFast()
	t.fastMode = false
	t.setRunning(false)
}

type setEpsilonCmd struct{ value float64 }

func (c setEpsilonCmd) apply(t *Trainer) {
	t.agent.SetEpsilon(c.value)
}

type setAutoDecayCmd struct{ enabled bool }

func (c setAutoDecayCmd) apply(t *Trainer) {
	t.agent.SetAutoDecay(c.enabled)
}

type setLearningRateCmd struct{ value float64 }

func (c setLearningRateCmd) apply(t *Trainer) {
	t.agent.SetLearningRate(c.value)
}

type setGammaCmd struct{ value float64 }

func (c setGammaCmd) apply(t *Trainer) {
	t.agent.SetGamma(c.value)
}

type setTrainFrequencyCmd struct{ value int }

func (c setTrainFrequencyCmd) apply(t *Trainer) {
	t.agent.SetTrainFrequency(c.value)
}

type setRewardConfigCmd struct{ config environment.RewardConfig }

func (c setRewardConfigCmd) apply(t *Trainer) {
	t.env.SetRewardConfig(c.config)
	if t.fast != nil {
		t.fast.setRewardConfig(c.config)
	}
	if t.evaluator != nil {
		t.evaluator.setRewardConfig(c.config)
	}
}

type setLRScheduleCmd struct{ enabled bool }

func (c setLRScheduleCmd) apply(t *Trainer) {
	t.scheduler.SetEnabled(c.enabled)
}

type resetCmd struct{ resp chan error }

func (c resetCmd) apply(t *Trainer) {
	c.resp <- t.reset()
}

type requestWeightsCmd struct{ resp chan *network.Snapshot }

func (c requestWeightsCmd) apply(t *Trainer) {
	c.resp <- t.agent.SnapshotPolicy()
}

type setWeightsCmd struct {
	snapshot *network.Snapshot
	resp     chan error
}

func (c setWeightsCmd) apply(t *Trainer) {
	c.resp <- t.agent.LoadPolicySnapshot(c.snapshot)
}

type statusCmd struct{ resp chan Metrics }

func (c statusCmd) apply(t *Trainer) {
	c.resp <- t.snapshot()
}
