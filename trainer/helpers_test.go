package trainer

import (
	"testing"

	"flapdqn/agent/deepq"
	"flapdqn/environment"
	"flapdqn/timestep"
)

// stubEnv is a deterministic environment with fixed-length episodes,
// used to exercise trainer scheduling without any game dynamics
type stubEnv struct {
	episodeLen int
	step       int
	score      float64
	rewards    environment.RewardConfig
}

func newStubEnv(episodeLen int) *stubEnv {
	return &stubEnv{episodeLen: episodeLen}
}

func (s *stubEnv) Reset() timestep.TimeStep {
	s.step = 0
	s.score = 0
	return timestep.New(timestep.First, 0, s.observation(), 0, 0)
}

func (s *stubEnv) Step(action int) timestep.TimeStep {
	s.step++
	s.score = float64(s.step)

	stepType := timestep.Mid
	if s.step >= s.episodeLen {
		stepType = timestep.Last
	}
	return timestep.New(stepType, 1, s.observation(), s.score, s.step)
}

func (s *stubEnv) SetRewardConfig(c environment.RewardConfig) {
	s.rewards = c
}

func (s *stubEnv) ObservationSize() int {
	return 3
}

func (s *stubEnv) NumActions() int {
	return 2
}

func (s *stubEnv) observation() []float64 {
	return []float64{float64(s.step) / float64(s.episodeLen), 0.5, -0.5}
}

// stubAgentConfig returns a learner configuration sized for stubEnv
// that leaves warmup almost immediately
func stubAgentConfig() deepq.Config {
	c := deepq.NewConfig(3, 2)
	c.HiddenSizes = []int{8}
	c.BufferCapacity = 500
	c.WarmupSize = 4
	c.BatchSize = 4
	c.TrainFrequency = 2
	c.TargetSyncEvery = 1_000
	c.Seed = 7
	return c
}

// stubAgent returns a learner for stubEnv observations
func stubAgent(t *testing.T) *deepq.DeepQ {
	t.Helper()
	agent, err := deepq.New(stubAgentConfig())
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	return agent
}
