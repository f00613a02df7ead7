// Package expreplay implements a fixed-capacity experience replay
// buffer with uniform random sampling
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"

	"flapdqn/timestep"
)

// Buffer is a ring of transitions. Once full, Add overwrites the
// oldest slot, so the buffer always holds the most recent Capacity()
// transitions. Transitions are stored in flat per-field caches and are
// deep-copied on the way in and on the way out, never aliasing live
// environment state.
//
// Buffer tolerates Add and Sample interleaved within one goroutine; it
// performs no locking of its own.
type Buffer struct {
	stateCache     []float64
	actionCache    []int
	rewardCache    []float64
	nextStateCache []float64
	doneCache      []bool

	insertPos int
	isFull    bool

	capacity    int
	featureSize int

	rng *rand.Rand
}

// New returns a Buffer holding at most capacity transitions of
// featureSize-dimensional states
func New(capacity, featureSize int, seed uint64) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1, got %v",
			capacity)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: feature size must be >= 1, got %v",
			featureSize)
	}

	return &Buffer{
		stateCache:     make([]float64, capacity*featureSize),
		actionCache:    make([]int, capacity),
		rewardCache:    make([]float64, capacity),
		nextStateCache: make([]float64, capacity*featureSize),
		doneCache:      make([]bool, capacity),
		capacity:       capacity,
		featureSize:    featureSize,
		rng:            rand.New(rand.NewSource(seed)),
	}, nil
}

// Add copies a transition into the buffer, overwriting the oldest
// transition when the buffer is full
func (b *Buffer) Add(t timestep.Transition) error {
	if len(t.State) != b.featureSize || len(t.NextState) != b.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v, %v)", b.featureSize, len(t.State),
			len(t.NextState))
	}

	index := b.insertPos
	stateInd := index * b.featureSize
	copy(b.stateCache[stateInd:stateInd+b.featureSize], t.State)
	copy(b.nextStateCache[stateInd:stateInd+b.featureSize], t.NextState)
	b.actionCache[index] = t.Action
	b.rewardCache[index] = t.Reward
	b.doneCache[index] = t.Done

	b.insertPos = (b.insertPos + 1) % b.capacity
	if b.insertPos == 0 && !b.isFull {
		b.isFull = true
	}
	return nil
}

// Sample draws n transitions uniformly at random with replacement.
// Indices are drawn independently on every call; the buffer keeps no
// sampling cursor. The returned transitions are deep copies.
func (b *Buffer) Sample(n int) ([]timestep.Transition, error) {
	if b.Size() == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyBuffer}
	}
	if !b.CanSample(n) {
		return nil, &ExpReplayError{Op: "sample", Err: errInsufficientSamples}
	}

	batch := make([]timestep.Transition, n)
	for i := 0; i < n; i++ {
		index := b.rng.Intn(b.Size())
		stateInd := index * b.featureSize

		batch[i] = timestep.NewTransition(
			b.stateCache[stateInd:stateInd+b.featureSize],
			b.actionCache[index],
			b.rewardCache[index],
			b.nextStateCache[stateInd:stateInd+b.featureSize],
			b.doneCache[index],
		)
	}
	return batch, nil
}

// CanSample returns whether a batch of n transitions can be sampled
func (b *Buffer) CanSample(n int) bool {
	return n > 0 && b.Size() >= n
}

// Size returns the current number of transitions in the buffer
func (b *Buffer) Size() int {
	if b.isFull {
		return b.capacity
	}
	return b.insertPos
}

// Capacity returns the maximum number of transitions the buffer holds
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Clear empties the buffer. Capacity is unchanged.
func (b *Buffer) Clear() {
	b.insertPos = 0
	b.isFull = false
}
