package expreplay

import "errors"

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errEmptyBuffer error = errors.New("buffer empty")

var errInsufficientSamples = errors.New("fewer transitions than batch size")

// IsInsufficientSamples returns whether an error reports that the
// buffer holds fewer transitions than the requested batch size. An
// update requested in this condition is a silent no-op, not a fault.
func IsInsufficientSamples(err error) bool {
	var replayErr *ExpReplayError
	if errors.As(err, &replayErr) {
		err = replayErr.Err
	}
	return err == errInsufficientSamples
}

// IsEmptyBuffer returns whether an error reports that a replay buffer
// is empty.
func IsEmptyBuffer(err error) bool {
	var replayErr *ExpReplayError
	if errors.As(err, &replayErr) {
		err = replayErr.Err
	}
	return err == errEmptyBuffer
}
