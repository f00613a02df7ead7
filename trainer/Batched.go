package trainer

import (
	"time"

	"flapdqn/agent/deepq"
	"flapdqn/environment"
	"flapdqn/timestep"
)

// BatchSizeFor maps the parallel environment count to the gradient
// batch size used while in fast mode: small fleets keep small batches
// for gradient stability, large fleets grow the batch to keep the
// batched forward pass busy.
func BatchSizeFor(numEnvs int) int {
	switch {
	case numEnvs < 100:
		return 64
	case numEnvs < 500:
		return 128
	case numEnvs < 2000:
		return 256
	default:
		return 512
	}
}

// TickStats summarizes one vector tick for the trainer's bookkeeping
type TickStats struct {
	EnvSteps         int
	Updates          int
	EpisodesFinished int
	EpisodeRewards   []float64
}

// vectorRunner steps N independent environments in lockstep. Each tick
// performs exactly one batched forward pass for action selection
// across all N environments, appends all N transitions, and then
// drains the accumulated experience debt into gradient updates bounded
// by an iteration cap and a wall-clock budget.
//
// Updates are throttled by debt at a fixed drain ratio, so training
// cadence per environment step does not depend on N. Target syncs are
// driven by environment steps for the same reason: two runs differing
// only in N sync at identical environment-step counts.
type vectorRunner struct {
	envs    []environment.Environment
	obs     [][]float64
	rewards []float64

	debt        int
	drainRatio  int
	updateBatch int
	maxUpdates  int
	tickBudget  time.Duration

	targetSyncEnvSteps int
	envSteps           int
	lastSyncStep       int
}

func newVectorRunner(envs []environment.Environment, drainRatio,
	maxUpdates, targetSyncEnvSteps int,
	tickBudget time.Duration) *vectorRunner {
	v := &vectorRunner{
		envs:               envs,
		obs:                make([][]float64, len(envs)),
		rewards:            make([]float64, len(envs)),
		drainRatio:         drainRatio,
		updateBatch:        BatchSizeFor(len(envs)),
		maxUpdates:         maxUpdates,
		tickBudget:         tickBudget,
		targetSyncEnvSteps: targetSyncEnvSteps,
	}
	for i, env := range envs {
		v.obs[i] = env.Reset().Observation
	}
	return v
}

// Tick advances every environment one step and drains due updates
func (v *vectorRunner) Tick(agent *deepq.DeepQ) (TickStats, error) {
	stats := TickStats{EnvSteps: len(v.envs)}

	actions := agent.SelectActions(v.obs, true)

	for i, env := range v.envs {
		step := env.Step(actions[i])

		transition := timestep.NewTransition(v.obs[i], actions[i],
			step.Reward, step.Observation, step.Last())
		if err := agent.ObserveTransition(transition); err != nil {
			return stats, err
		}
		v.rewards[i] += step.Reward

		if step.Last() {
			stats.EpisodesFinished++
			stats.EpisodeRewards = append(stats.EpisodeRewards, v.rewards[i])
			v.rewards[i] = 0
			v.obs[i] = env.Reset().Observation
		} else {
			v.obs[i] = step.Observation
		}
	}

	v.envSteps += len(v.envs)
	v.debt += len(v.envs)

	start := time.Now()
	for v.debt >= v.drainRatio && stats.Updates < v.maxUpdates &&
		time.Since(start) < v.tickBudget {
		ran, err := agent.Update(v.updateBatch)
		if err != nil {
			return stats, err
		}
		v.debt -= v.drainRatio
		if !ran {
			// Warmup or a starved buffer; nothing to drain this tick
			break
		}
		stats.Updates++
	}

	// Sync on every environment-step boundary crossed this tick, so
	// sync points land at exact multiples independent of N
	for v.envSteps-v.lastSyncStep >= v.targetSyncEnvSteps {
		agent.SyncTarget()
		v.lastSyncStep += v.targetSyncEnvSteps
	}

	return stats, nil
}

// SyncCount returns how many target syncs environment-step accounting
// has produced
func (v *vectorRunner) SyncCount() int {
	return v.lastSyncStep / v.targetSyncEnvSteps
}

// EnvSteps returns the total environment steps taken across the fleet
func (v *vectorRunner) EnvSteps() int {
	return v.envSteps
}

func (v *vectorRunner) setRewardConfig(c environment.RewardConfig) {
	for _, env := range v.envs {
		env.SetRewardConfig(c)
	}
}
