package trainer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flapdqn/environment"
)

func TestEvaluatorCollectsAllEpisodes(t *testing.T) {
	agent := stubAgent(t)
	const episodeLen = 5
	const episodes = 7

	pool := makeFleet(3, episodeLen)
	e := NewEvaluator(pool, episodes)

	assert.False(t, e.Running())
	e.Begin()
	assert.True(t, e.Running())

	done := false
	for i := 0; i < 100 && !done; i++ {
		done = e.RunSlice(agent, 50*time.Millisecond)
	}
	require.True(t, done, "evaluation never completed")
	assert.False(t, e.Running())

	completed, total := e.Progress()
	assert.Equal(t, episodes, completed)
	assert.Equal(t, episodes, total)

	result := e.Result(42)
	assert.Equal(t, 42, result.Episode)
	require.Len(t, result.Scores, episodes)

	// stubEnv's score equals the episode length when it terminates
	for _, score := range result.Scores {
		assert.Equal(t, float64(episodeLen), score)
	}
	assert.Equal(t, float64(episodeLen), result.AvgScore)
	assert.Equal(t, float64(episodeLen), result.MaxScore)
	assert.Equal(t, float64(episodeLen), result.MinScore)
}

func TestEvaluatorStopsAtRequestedCount(t *testing.T) {
	agent := stubAgent(t)
	pool := makeFleet(4, 3)
	e := NewEvaluator(pool, 2) // fewer rollouts than pool slots

	done := false
	for i := 0; i < 100 && !done; i++ {
		done = e.RunSlice(agent, 50*time.Millisecond)
	}
	require.True(t, done)

	completed, _ := e.Progress()
	assert.Equal(t, 2, completed)
	assert.Len(t, e.Result(0).Scores, 2)
}

func TestEvaluatorRunSliceWhenIdle(t *testing.T) {
	agent := stubAgent(t)
	e := NewEvaluator(makeFleet(2, 3), 4)

	// Without Begin there is nothing to run
	assert.True(t, e.RunSlice(agent, time.Millisecond))
}

func TestEvaluatorRewardConfigReachesPool(t *testing.T) {
	pool := makeFleet(2, 3)
	e := NewEvaluator(pool, 2)

	death := -3.0
	e.setRewardConfig(environment.RewardConfig{Death: &death})
	for _, env := range pool {
		stub := env.(*stubEnv)
		require.NotNil(t, stub.rewards.Death)
		assert.Equal(t, death, *stub.rewards.Death)
	}
}
