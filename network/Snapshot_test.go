package network

import (
	"path/filepath"
	"testing"
)

func TestSnapshotIsIsolated(t *testing.T) {
	f, err := NewFeedForward(3, 2, []int{4}, 0.01, 7)
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	state := []float64{0.5, -0.5, 1}
	before := f.Predict(state)

	s := f.Snapshot()
	for l := range s.Weights {
		for i := range s.Weights[l] {
			for j := range s.Weights[l][i] {
				s.Weights[l][i][j] = 42
			}
		}
	}
	for l := range s.Biases {
		for j := range s.Biases[l] {
			s.Biases[l][j] = 42
		}
	}

	after := f.Predict(state)
	for j := range before {
		if before[j] != after[j] {
			t.Errorf("mutating snapshot perturbed network: output %v "+
				"changed %v -> %v", j, before[j], after[j])
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	f, err := NewFeedForward(4, 3, []int{8, 8}, 0.01, 7)
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	restored, err := FromSnapshot(f.Snapshot(), 0.01, 99)
	if err != nil {
		t.Fatalf("could not restore network: %v", err)
	}

	state := []float64{0.1, 0.2, 0.3, 0.4}
	want, got := f.Predict(state), restored.Predict(state)
	for j := range want {
		if want[j] != got[j] {
			t.Errorf("restored output %v differs: %v vs %v",
				j, got[j], want[j])
		}
	}
}

func TestLoadSnapshotRejectsMismatch(t *testing.T) {
	f, err := NewFeedForward(3, 2, []int{4}, 0.01, 7)
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}
	other, err := NewFeedForward(3, 2, []int{5}, 0.01, 7)
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	if err := f.LoadSnapshot(other.Snapshot()); err == nil {
		t.Error("expected error loading mismatched architecture")
	}
	if err := f.LoadSnapshot(nil); err == nil {
		t.Error("expected error loading nil snapshot")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	f, err := NewFeedForward(4, 2, []int{6}, 0.01, 7)
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	path := filepath.Join(t.TempDir(), "policy.bin")
	if err := SaveSnapshot(path, f.Snapshot()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	restored, err := FromSnapshot(loaded, 0.01, 1)
	if err != nil {
		t.Fatalf("could not rebuild network: %v", err)
	}

	state := []float64{1, -1, 0.5, 0}
	want, got := f.Predict(state), restored.Predict(state)
	for j := range want {
		if want[j] != got[j] {
			t.Errorf("checkpointed output %v differs: %v vs %v",
				j, got[j], want[j])
		}
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.bin")); err == nil {
		t.Error("expected error loading missing checkpoint")
	}
}
