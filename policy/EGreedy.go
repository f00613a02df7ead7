// Package policy implements action selection over predicted action
// values
package policy

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"flapdqn/utils/floatutils"
)

// EGreedy selects the greedy action with probability 1-ε and a uniform
// random action with probability ε. Epsilon is session state: it is
// mutated only by a decay schedule or an explicit override, and every
// external set is clamped to [0, 1].
type EGreedy struct {
	epsilon    float64
	numActions int
	coin       distuv.Uniform
	rng        *rand.Rand
}

// NewEGreedy returns an ε-greedy selector over numActions actions
func NewEGreedy(epsilon float64, numActions int, seed uint64) *EGreedy {
	source := rand.NewSource(seed)
	return &EGreedy{
		epsilon:    floatutils.Clip(epsilon, 0, 1),
		numActions: numActions,
		coin:       distuv.Uniform{Min: 0, Max: 1, Src: source},
		rng:        rand.New(source),
	}
}

// SelectAction selects an action given the action values of the
// current state. When exploring is false the selection is purely
// greedy regardless of epsilon.
func (p *EGreedy) SelectAction(actionValues []float64, exploring bool) int {
	if exploring && p.coin.Rand() < p.epsilon {
		return p.rng.Intn(p.numActions)
	}
	return floatutils.ArgMax(actionValues)
}

// Epsilon returns the current exploration rate
func (p *EGreedy) Epsilon() float64 {
	return p.epsilon
}

// SetEpsilon sets the exploration rate, clamped to [0, 1]. Non-finite
// values are ignored.
func (p *EGreedy) SetEpsilon(epsilon float64) {
	if !floatutils.Finite(epsilon) {
		return
	}
	p.epsilon = floatutils.Clip(epsilon, 0, 1)
}
