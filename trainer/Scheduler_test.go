package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerDisabledIsNoop(t *testing.T) {
	agent := stubAgent(t)
	s := NewScheduler(1, 0.5, 1e-5, 1)

	before := agent.LearningRate()
	for i := 0; i < 50; i++ {
		s.ObserveEpisode(0, agent)
	}
	assert.Equal(t, before, agent.LearningRate())
}

func TestSchedulerDecaysOnPlateau(t *testing.T) {
	agent := stubAgent(t)
	s := NewScheduler(2, 0.5, 1e-5, 2)
	s.SetEnabled(true)

	before := agent.LearningRate()

	// First window establishes the best; two more windows with no
	// improvement exhaust the patience
	for i := 0; i < 6; i++ {
		s.ObserveEpisode(1.0, agent)
	}

	assert.InDelta(t, before*0.5, agent.LearningRate(), 1e-12)
}

func TestSchedulerImprovementResetsPatience(t *testing.T) {
	agent := stubAgent(t)
	s := NewScheduler(2, 0.5, 1e-5, 1)
	s.SetEnabled(true)

	before := agent.LearningRate()

	// Strictly improving rewards never trigger a decay
	for i := 0; i < 20; i++ {
		s.ObserveEpisode(float64(i), agent)
	}
	assert.Equal(t, before, agent.LearningRate())
}

func TestSchedulerRespectsFloor(t *testing.T) {
	agent := stubAgent(t)
	agent.SetLearningRate(1e-3)
	s := NewScheduler(1, 0.5, 4e-4, 1)
	s.SetEnabled(true)

	for i := 0; i < 50; i++ {
		s.ObserveEpisode(0, agent)
	}
	assert.Equal(t, 4e-4, agent.LearningRate())
}

func TestSchedulerReEnableForgetsHistory(t *testing.T) {
	agent := stubAgent(t)
	s := NewScheduler(1, 0.5, 1e-5, 1)
	s.SetEnabled(true)

	s.ObserveEpisode(100, agent) // best = 100
	s.SetEnabled(false)
	s.SetEnabled(true)

	before := agent.LearningRate()
	// Without the reset this would immediately count as no improvement
	s.ObserveEpisode(1, agent)
	assert.Equal(t, before, agent.LearningRate())

	require.True(t, s.Enabled())
}
