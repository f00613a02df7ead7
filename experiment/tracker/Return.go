package tracker

import (
	"flapdqn/timestep"
)

// Return tracks the episodic return of each finished episode. An
// episode must finish for its return to be recorded; the return of a
// truncated final episode is dropped.
type Return struct {
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn returns a Return tracker saving its data to filename
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track accumulates the reward seen on a timestep, finalizing the
// episode's return when the last step arrives
func (r *Return) Track(step timestep.TimeStep) {
	if step.First() {
		r.currentReturn = 0
		return
	}

	r.currentReturn += step.Reward
	if step.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0
	}
}

// Returns exposes the returns recorded so far
func (r *Return) Returns() []float64 {
	return append([]float64(nil), r.episodeReturns...)
}

// Save writes the recorded returns to disk
func (r *Return) Save() error {
	return saveSlice(r.filename, r.episodeReturns)
}
