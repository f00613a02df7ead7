// Package timestep implements timesteps of the agent-environment interaction
package timestep

import "fmt"

// StepType denotes the type of step that a TimeStep can be, either the first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment. Score
// holds the environment's running game score, which is reported to
// observers but never used in the learning update.
type TimeStep struct {
	stepType    StepType
	Reward      float64
	Observation []float64
	Score       float64
	Number      int
}

// New returns a new TimeStep. The observation is used as-is; callers
// that retain it should copy first.
func New(t StepType, r float64, o []float64, score float64, n int) TimeStep {
	return TimeStep{t, r, o, score, n}
}

// First returns whether a TimeStep is the first in an environment
func (t TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t TimeStep) Last() bool {
	return t.stepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Score: %.0f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.Score, t.Number)
}
