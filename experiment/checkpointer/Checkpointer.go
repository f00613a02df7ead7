// Package checkpointer implements periodic persistence of learned
// network weights during an experiment
package checkpointer

import (
	"flapdqn/network"
)

// Snapshotter is any learner that can produce a deep copy of its
// current policy weights
type Snapshotter interface {
	SnapshotPolicy() *network.Snapshot
}

// Checkpointer saves learned state based on the experiment's
// environment-step count
type Checkpointer interface {
	Checkpoint(step int) error
}
