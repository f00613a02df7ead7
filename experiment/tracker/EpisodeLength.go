package tracker

import (
	"flapdqn/timestep"
)

// EpisodeLength tracks the length in steps of each finished episode.
// An episode must finish for its length to be recorded.
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns an EpisodeLength tracker saving its data to
// filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track records the episode length when the last step of an episode
// arrives
func (e *EpisodeLength) Track(step timestep.TimeStep) {
	if step.Last() {
		e.episodeLengths = append(e.episodeLengths, float64(step.Number))
	}
}

// Lengths exposes the lengths recorded so far
func (e *EpisodeLength) Lengths() []float64 {
	return append([]float64(nil), e.episodeLengths...)
}

// Save writes the recorded lengths to disk
func (e *EpisodeLength) Save() error {
	return saveSlice(e.filename, e.episodeLengths)
}
