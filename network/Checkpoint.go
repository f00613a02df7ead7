package network

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// SaveSnapshot writes a snapshot to path with gob encoding
func SaveSnapshot(path string, s *Snapshot) error {
	if err := s.validate(); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create checkpoint file")
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(s); err != nil {
		return errors.Wrap(err, "could not encode checkpoint")
	}
	return nil
}

// LoadSnapshot reads a gob-encoded snapshot from path
func LoadSnapshot(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open checkpoint file")
	}
	defer file.Close()

	var s Snapshot
	if err := gob.NewDecoder(file).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "could not decode checkpoint")
	}
	if err := s.validate(); err != nil {
		return nil, errors.Wrap(err, "corrupt checkpoint")
	}
	return &s, nil
}
