package trainer

import (
	"gonum.org/v1/gonum/stat"

	"flapdqn/agent/deepq"
)

// Scheduler reduces the learning rate when the moving-average episode
// reward plateaus: if the windowed average fails to beat the best seen
// for patience consecutive windows, the learning rate is multiplied by
// factor, floored at minLR. Disabled by default; enabling resets the
// best-reward tracker.
type Scheduler struct {
	enabled  bool
	patience int
	factor   float64
	minLR    float64
	window   int

	rewards  []float64
	best     float64
	haveBest bool
	bad      int
}

// NewScheduler returns a plateau scheduler evaluating the average
// reward over window episodes
func NewScheduler(patience int, factor, minLR float64, window int) *Scheduler {
	if patience < 1 {
		patience = 1
	}
	if window < 1 {
		window = 1
	}
	if factor <= 0 || factor >= 1 {
		factor = 0.5
	}
	return &Scheduler{
		patience: patience,
		factor:   factor,
		minLR:    minLR,
		window:   window,
	}
}

// Enabled returns whether the scheduler is active
func (s *Scheduler) Enabled() bool {
	return s.enabled
}

// SetEnabled toggles the scheduler. Enabling resets the best-reward
// tracker so stale history cannot trigger an immediate decay.
func (s *Scheduler) SetEnabled(enabled bool) {
	if enabled && !s.enabled {
		s.haveBest = false
		s.bad = 0
		s.rewards = s.rewards[:0]
	}
	s.enabled = enabled
}

// ObserveEpisode feeds one finished episode's reward to the scheduler,
// possibly decaying the agent's learning rate
func (s *Scheduler) ObserveEpisode(reward float64, agent *deepq.DeepQ) {
	if !s.enabled {
		return
	}

	s.rewards = append(s.rewards, reward)
	if len(s.rewards) < s.window {
		return
	}

	avg := stat.Mean(s.rewards, nil)
	s.rewards = s.rewards[:0]

	if !s.haveBest || avg > s.best {
		s.best = avg
		s.haveBest = true
		s.bad = 0
		return
	}

	s.bad++
	if s.bad < s.patience {
		return
	}
	s.bad = 0

	lr := agent.LearningRate() * s.factor
	if lr < s.minLR {
		lr = s.minLR
	}
	agent.SetLearningRate(lr)
}
