// Package environment outlines the interface the training engine
// consumes. Concrete environments live in subpackages or are supplied
// by the host; the engine never depends on how observations are
// produced.
package environment

import "flapdqn/timestep"

// Environment is the engine-facing contract of a control environment
// with a small discrete action set. Step returns the timestep that
// results from taking the action; after a Last timestep the
// environment must be Reset before stepping again.
type Environment interface {
	Reset() timestep.TimeStep
	Step(action int) timestep.TimeStep
	SetRewardConfig(RewardConfig)
	ObservationSize() int
	NumActions() int
}

// RewardConfig is a partial override of an environment's reward
// shaping weights. Nil fields leave the current value unchanged, so a
// host can patch individual weights mid-session. The effective reward
// scale is configuration: the learning update tolerates whatever range
// these weights produce.
type RewardConfig struct {
	Alive       *float64 `json:"alive,omitempty"`
	ScoreBonus  *float64 `json:"scoreBonus,omitempty"`
	Death       *float64 `json:"death,omitempty"`
	GapCenter   *float64 `json:"gapCenter,omitempty"`
	OutOfBounds *float64 `json:"outOfBounds,omitempty"`
}

// Float returns a pointer to v, for building RewardConfig literals
func Float(v float64) *float64 {
	return &v
}
