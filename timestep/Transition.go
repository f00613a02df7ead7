package timestep

// Transition is a single (S, A, R, S', done) tuple of the
// agent-environment interaction. State and NextState never alias live
// environment memory: use Copy when constructing a Transition from
// observations the environment may mutate.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Done      bool
}

// NewTransition returns a Transition holding deep copies of state and
// nextState.
func NewTransition(state []float64, action int, reward float64,
	nextState []float64, done bool) Transition {
	return Transition{
		State:     copyFloats(state),
		Action:    action,
		Reward:    reward,
		NextState: copyFloats(nextState),
		Done:      done,
	}
}

// Copy returns a deep copy of the Transition
func (t Transition) Copy() Transition {
	return Transition{
		State:     copyFloats(t.State),
		Action:    t.Action,
		Reward:    t.Reward,
		NextState: copyFloats(t.NextState),
		Done:      t.Done,
	}
}

func copyFloats(x []float64) []float64 {
	c := make([]float64, len(x))
	copy(c, x)
	return c
}
