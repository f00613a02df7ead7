package policy

import "flapdqn/utils/floatutils"

// LinearDecay interpolates epsilon linearly from a decay origin down
// to a floor over a fixed number of training steps. Toggling the
// schedule off and on resets the decay origin to the epsilon and step
// current at re-enable time, so decay always proceeds smoothly from
// wherever the session is.
type LinearDecay struct {
	floor   float64
	horizon int

	enabled    bool
	originEps  float64
	originStep int
}

// NewLinearDecay returns an enabled schedule decaying from start to
// floor over horizon training steps
func NewLinearDecay(start, floor float64, horizon int) *LinearDecay {
	if horizon < 1 {
		horizon = 1
	}
	return &LinearDecay{
		floor:     floatutils.Clip(floor, 0, 1),
		horizon:   horizon,
		enabled:   true,
		originEps: floatutils.Clip(start, 0, 1),
	}
}

// Epsilon returns the schedule's epsilon at the given training step.
// Past the horizon it is exactly the floor.
func (d *LinearDecay) Epsilon(step int) float64 {
	elapsed := step - d.originStep
	if elapsed >= d.horizon {
		return d.floor
	}
	if elapsed < 0 {
		elapsed = 0
	}

	frac := float64(elapsed) / float64(d.horizon)
	return d.originEps + (d.floor-d.originEps)*frac
}

// Enabled returns whether the schedule is active
func (d *LinearDecay) Enabled() bool {
	return d.enabled
}

// SetEnabled enables or disables the schedule. Re-enabling resets the
// decay origin to the given current epsilon and step.
func (d *LinearDecay) SetEnabled(enabled bool, currentEps float64,
	currentStep int) {
	if enabled && !d.enabled {
		d.originEps = floatutils.Clip(currentEps, 0, 1)
		d.originStep = currentStep
	}
	d.enabled = enabled
}

// Floor returns the terminal epsilon of the schedule
func (d *LinearDecay) Floor() float64 {
	return d.floor
}
