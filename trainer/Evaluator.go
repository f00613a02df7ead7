package trainer

import (
	"time"

	"flapdqn/agent/deepq"
	"flapdqn/environment"
	"flapdqn/utils/floatutils"
)

// Evaluator measures unbiased policy quality: M fully greedy (ε = 0)
// rollouts on a dedicated environment pool, run in time-boxed slices
// so the training environments are undisturbed and the host is never
// blocked past a slice budget.
type Evaluator struct {
	pool     []environment.Environment
	episodes int

	running   bool
	completed int
	scores    []float64
	obs       [][]float64
	active    []bool
}

// NewEvaluator returns an Evaluator collecting episodes rollouts
// across the given pool
func NewEvaluator(pool []environment.Environment, episodes int) *Evaluator {
	if episodes < 1 {
		episodes = 1
	}
	return &Evaluator{
		pool:     pool,
		episodes: episodes,
	}
}

// Begin starts a new evaluation pass, resetting every pool environment
func (e *Evaluator) Begin() {
	e.running = true
	e.completed = 0
	e.scores = e.scores[:0]
	e.obs = make([][]float64, len(e.pool))
	e.active = make([]bool, len(e.pool))

	for i, env := range e.pool {
		step := env.Reset()
		e.obs[i] = step.Observation
		e.active[i] = true
	}
}

// Running returns whether an evaluation pass is in flight
func (e *Evaluator) Running() bool {
	return e.running
}

// Progress returns completed and requested rollout counts
func (e *Evaluator) Progress() (completed, total int) {
	return e.completed, e.episodes
}

// RunSlice steps the pool greedily until the budget elapses or the
// pass completes, and reports whether the pass is done. Action
// selection is one batched forward pass per pool tick.
func (e *Evaluator) RunSlice(agent *deepq.DeepQ, budget time.Duration) bool {
	if !e.running {
		return true
	}

	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) && e.completed < e.episodes {
		states := make([][]float64, 0, len(e.pool))
		indices := make([]int, 0, len(e.pool))
		for i, active := range e.active {
			if active {
				states = append(states, e.obs[i])
				indices = append(indices, i)
			}
		}
		if len(states) == 0 {
			break
		}

		actions := agent.SelectActions(states, false)
		for k, i := range indices {
			step := e.pool[i].Step(actions[k])
			if !step.Last() {
				e.obs[i] = step.Observation
				continue
			}

			// Rollouts finishing after the requested count are
			// discarded, so a wide pool never overshoots
			if e.completed < e.episodes {
				e.scores = append(e.scores, step.Score)
				e.completed++
			}
			if e.completed+e.countActive()-1 < e.episodes {
				// More rollouts are still needed than are in flight
				reset := e.pool[i].Reset()
				e.obs[i] = reset.Observation
			} else {
				e.active[i] = false
			}
		}
	}

	if e.completed >= e.episodes {
		e.running = false
		return true
	}
	return false
}

// Result summarizes the finished pass. Episode tags the result with
// the training episode the evaluation was requested at.
func (e *Evaluator) Result(episode int) EvalResult {
	result := EvalResult{
		Scores:  append([]float64(nil), e.scores...),
		Episode: episode,
	}
	if len(e.scores) > 0 {
		result.AvgScore = floatutils.Mean(e.scores)
		result.MaxScore = floatutils.Max(e.scores...)
		result.MinScore = floatutils.Min(e.scores...)
	}
	return result
}

func (e *Evaluator) setRewardConfig(c environment.RewardConfig) {
	for _, env := range e.pool {
		env.SetRewardConfig(c)
	}
}

func (e *Evaluator) countActive() int {
	n := 0
	for _, active := range e.active {
		if active {
			n++
		}
	}
	return n
}
