package timestep

import "testing"

func TestNewTransitionCopies(t *testing.T) {
	state := []float64{1, 2}
	next := []float64{3, 4}

	tr := NewTransition(state, 1, 0.5, next, true)
	state[0] = -1
	next[0] = -1

	if tr.State[0] != 1 || tr.NextState[0] != 3 {
		t.Errorf("transition aliases caller slices: %v, %v",
			tr.State, tr.NextState)
	}
	if tr.Action != 1 || tr.Reward != 0.5 || !tr.Done {
		t.Errorf("transition fields: %+v", tr)
	}
}

func TestTransitionCopyIndependent(t *testing.T) {
	tr := NewTransition([]float64{1, 2}, 0, 1, []float64{3, 4}, false)

	c := tr.Copy()
	c.State[0] = -1
	c.NextState[0] = -1

	if tr.State[0] != 1 || tr.NextState[0] != 3 {
		t.Errorf("mutating a copy changed the original: %v, %v",
			tr.State, tr.NextState)
	}
}
