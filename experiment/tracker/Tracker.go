// Package tracker implements Trackers, which record per-episode data
// during an experiment and save it to disk afterwards
package tracker

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"

	"flapdqn/timestep"
)

// Tracker accumulates experiment data in RAM and persists it when the
// experiment finishes
type Tracker interface {
	Track(t timestep.TimeStep)
	Save() error
}

// LoadData loads the float64 data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "could not open data file")
	}
	defer file.Close()

	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "could not decode data")
	}
	return data, nil
}

// saveSlice gob-encodes a slice of tracked values to filename
func saveSlice(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "could not create save file")
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return errors.Wrap(err, "could not encode tracked data")
	}
	return nil
}
