package checkpointer

import (
	"flapdqn/network"
)

// nStep checkpoints every N environment steps
type nStep struct {
	interval int
	learner  Snapshotter

	// filename produces the path for the next checkpoint file. Use
	// FilenameEnumerator for numbered files or FileTimer for
	// timestamped ones.
	filename func() string
}

// NewNStep returns a Checkpointer that saves the learner's policy
// weights every n steps
func NewNStep(n int, learner Snapshotter, filename func() string) Checkpointer {
	if n < 1 {
		n = 1
	}
	return &nStep{
		interval: n,
		learner:  learner,
		filename: filename,
	}
}

// Checkpoint saves a snapshot if step lands on the interval boundary
func (n *nStep) Checkpoint(step int) error {
	if step%n.interval != 0 {
		return nil
	}
	return network.SaveSnapshot(n.filename(), n.learner.SnapshotPolicy())
}
