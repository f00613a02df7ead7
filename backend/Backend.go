// Package backend selects the engine used for batched matrix products.
// The engine only accelerates inference-time batched forward passes;
// training correctness never depends on which engine is active.
package backend

import (
	"fmt"
	"os"
)

// Engine computes C = A·B for row-major float64 matrices, where A is
// (m x k) and B is (k x n). Implementations must not retain or mutate
// the input slices.
type Engine interface {
	Name() string
	Accelerated() bool
	MatMul(a []float64, m, k int, b []float64, n int) ([]float64, error)
}

// Info reports the outcome of backend initialization
type Info struct {
	BackendName string `json:"backendName"`
	Accelerated bool   `json:"accelerated"`
}

// Init probes the tensor engine and returns it if it produces correct
// results on a known product. On any failure the native engine is
// returned instead: degraded throughput, not degraded correctness.
func Init() (Engine, Info) {
	eng := Engine(newTensorEngine())
	if err := verify(eng); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: backend %q unavailable (%v), "+
			"falling back to native\n", eng.Name(), err)
		eng = newNativeEngine()
	}

	return eng, Info{BackendName: eng.Name(), Accelerated: eng.Accelerated()}
}

// Native returns the pure-Go engine. It is the default engine of a
// freshly constructed network and the fallback when Init fails.
func Native() Engine {
	return newNativeEngine()
}

// verify multiplies a fixed pair of matrices and checks the product
func verify(e Engine) error {
	a := []float64{1, 2, 3, 4}    // 2x2
	b := []float64{5, 6, 7, 8}    // 2x2
	want := []float64{19, 22, 43, 50}

	got, err := e.MatMul(a, 2, 2, b, 2)
	if err != nil {
		return err
	}
	if len(got) != len(want) {
		return fmt.Errorf("verify: product has %d elements, want %d",
			len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("verify: product mismatch at %d: got %v "+
				"want %v", i, got[i], want[i])
		}
	}
	return nil
}
