package tracker

import (
	"path/filepath"
	"testing"

	"flapdqn/timestep"
)

func episode(t *testing.T, tr Tracker, rewards ...float64) {
	t.Helper()
	tr.Track(timestep.New(timestep.First, 0, nil, 0, 0))
	for i, r := range rewards {
		stepType := timestep.Mid
		if i == len(rewards)-1 {
			stepType = timestep.Last
		}
		tr.Track(timestep.New(stepType, r, nil, 0, i+1))
	}
}

func TestReturnTracksEpisodes(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))

	episode(t, r, 1, 1, 0.5)
	episode(t, r, -1, 2)

	returns := r.Returns()
	if len(returns) != 2 {
		t.Fatalf("recorded %v returns, want 2", len(returns))
	}
	if returns[0] != 2.5 || returns[1] != 1 {
		t.Errorf("returns: got %v, want [2.5 1]", returns)
	}
}

func TestReturnDropsUnfinishedEpisode(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))

	episode(t, r, 1, 1)
	r.Track(timestep.New(timestep.First, 0, nil, 0, 0))
	r.Track(timestep.New(timestep.Mid, 10, nil, 0, 1))

	returns := r.Returns()
	if len(returns) != 1 || returns[0] != 2 {
		t.Errorf("returns with truncated episode: got %v, want [2]", returns)
	}
}

func TestEpisodeLengthTracks(t *testing.T) {
	e := NewEpisodeLength(filepath.Join(t.TempDir(), "lengths.bin"))

	episode(t, e, 1, 1, 1)
	episode(t, e, 1)

	lengths := e.Lengths()
	if len(lengths) != 2 {
		t.Fatalf("recorded %v lengths, want 2", len(lengths))
	}
	if lengths[0] != 3 || lengths[1] != 1 {
		t.Errorf("lengths: got %v, want [3 1]", lengths)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.bin")
	r := NewReturn(path)
	episode(t, r, 2, 3)
	episode(t, r, 1)

	if err := r.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := LoadData(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(data) != 2 || data[0] != 5 || data[1] != 1 {
		t.Errorf("loaded data: got %v, want [5 1]", data)
	}
}
