package trainer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flapdqn/environment"
)

func TestBatchSizeFor(t *testing.T) {
	assert.Equal(t, 64, BatchSizeFor(1))
	assert.Equal(t, 64, BatchSizeFor(99))
	assert.Equal(t, 128, BatchSizeFor(100))
	assert.Equal(t, 128, BatchSizeFor(499))
	assert.Equal(t, 256, BatchSizeFor(500))
	assert.Equal(t, 256, BatchSizeFor(1999))
	assert.Equal(t, 512, BatchSizeFor(2000))
	assert.Equal(t, 512, BatchSizeFor(100_000))
}

func makeFleet(n, episodeLen int) []environment.Environment {
	envs := make([]environment.Environment, n)
	for i := range envs {
		envs[i] = newStubEnv(episodeLen)
	}
	return envs
}

func TestTargetSyncCountIndependentOfFleetSize(t *testing.T) {
	const syncEvery = 32
	const totalSteps = 128

	counts := make(map[int]int)
	for _, n := range []int{4, 8} {
		agent := stubAgent(t)
		v := newVectorRunner(makeFleet(n, 10), 8, 4, syncEvery,
			25*time.Millisecond)

		for v.EnvSteps() < totalSteps {
			_, err := v.Tick(agent)
			require.NoError(t, err)
		}
		require.Equal(t, totalSteps, v.EnvSteps())
		counts[n] = v.SyncCount()
	}

	// Both fleets crossed the same environment-step boundaries, so
	// they synced the same number of times
	assert.Equal(t, counts[4], counts[8])
	assert.Equal(t, totalSteps/syncEvery, counts[4])
}

func TestExperienceDebtDrainRatio(t *testing.T) {
	agent := stubAgent(t)
	v := newVectorRunner(makeFleet(8, 10), 8, 100, 1_000_000,
		time.Second)

	// The fast path trains with BatchSizeFor(8) = 64 samples, so no
	// update can run until 64 transitions have accumulated
	for i := 0; i < 7; i++ {
		stats, err := v.Tick(agent)
		require.NoError(t, err)
		assert.Equal(t, 8, stats.EnvSteps)
		assert.Equal(t, 0, stats.Updates, "fill tick %v", i)
	}

	// 8 environments at a drain ratio of 8 owe exactly one update per
	// tick from here on
	for i := 0; i < 5; i++ {
		stats, err := v.Tick(agent)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Updates, "tick %v", i)
	}

	assert.Equal(t, 5, agent.TrainSteps())
}

func TestTickCountsFinishedEpisodes(t *testing.T) {
	agent := stubAgent(t)
	const episodeLen = 5
	v := newVectorRunner(makeFleet(3, episodeLen), 8, 4, 1_000_000,
		25*time.Millisecond)

	// All three environments run in lockstep, so they all finish on
	// the same tick
	for i := 0; i < episodeLen-1; i++ {
		stats, err := v.Tick(agent)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.EpisodesFinished)
	}

	stats, err := v.Tick(agent)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.EpisodesFinished)
	require.Len(t, stats.EpisodeRewards, 3)
	for _, reward := range stats.EpisodeRewards {
		// stubEnv pays 1 per step
		assert.Equal(t, float64(episodeLen), reward)
	}
}

func TestUpdateCapBoundsTick(t *testing.T) {
	agent := stubAgent(t)
	const maxUpdates = 2
	v := newVectorRunner(makeFleet(64, 10), 8, maxUpdates, 1_000_000,
		time.Second)

	// 64 environments owe 8 updates per tick at ratio 8; the cap wins
	for i := 0; i < 3; i++ {
		stats, err := v.Tick(agent)
		require.NoError(t, err)
		assert.LessOrEqual(t, stats.Updates, maxUpdates)
	}
}
