package policy

import (
	"math"
	"testing"
)

func TestLinearDecayMonotone(t *testing.T) {
	d := NewLinearDecay(1.0, 0.01, 100)

	prev := d.Epsilon(0)
	if prev != 1.0 {
		t.Errorf("epsilon at step 0: got %v, want 1.0", prev)
	}
	for step := 1; step <= 200; step++ {
		eps := d.Epsilon(step)
		if eps > prev {
			t.Fatalf("epsilon increased at step %v: %v -> %v",
				step, prev, eps)
		}
		prev = eps
	}
}

func TestLinearDecayExactFloor(t *testing.T) {
	d := NewLinearDecay(1.0, 0.01, 100)

	if eps := d.Epsilon(100); eps != 0.01 {
		t.Errorf("epsilon at horizon: got %v, want exactly 0.01", eps)
	}
	if eps := d.Epsilon(10_000); eps != 0.01 {
		t.Errorf("epsilon past horizon: got %v, want exactly 0.01", eps)
	}
}

func TestLinearDecayMidpoint(t *testing.T) {
	d := NewLinearDecay(1.0, 0.0, 100)
	if eps := d.Epsilon(50); math.Abs(eps-0.5) > 1e-12 {
		t.Errorf("epsilon at midpoint: got %v, want 0.5", eps)
	}
}

func TestReEnableResetsOrigin(t *testing.T) {
	d := NewLinearDecay(1.0, 0.01, 100)

	d.SetEnabled(false, 0, 0)
	if d.Enabled() {
		t.Fatal("schedule still enabled after disable")
	}

	// Re-enabling at step 500 with epsilon 0.5 restarts the
	// interpolation from there
	d.SetEnabled(true, 0.5, 500)
	if eps := d.Epsilon(500); eps != 0.5 {
		t.Errorf("epsilon at new origin: got %v, want 0.5", eps)
	}
	if eps := d.Epsilon(600); eps != 0.01 {
		t.Errorf("epsilon one horizon past new origin: got %v, want 0.01",
			eps)
	}
	if eps := d.Epsilon(550); math.Abs(eps-(0.5+(0.01-0.5)*0.5)) > 1e-12 {
		t.Errorf("epsilon halfway through restarted decay: got %v", eps)
	}
}

func TestEnableWhileEnabledKeepsOrigin(t *testing.T) {
	d := NewLinearDecay(1.0, 0.01, 100)
	before := d.Epsilon(50)
	d.SetEnabled(true, 0.2, 50)
	if after := d.Epsilon(50); after != before {
		t.Errorf("redundant enable moved the origin: %v -> %v",
			before, after)
	}
}
