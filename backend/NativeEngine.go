package backend

import "fmt"

// nativeEngine is the pure-Go fallback engine
type nativeEngine struct{}

func newNativeEngine() *nativeEngine {
	return &nativeEngine{}
}

func (e *nativeEngine) Name() string {
	return "native"
}

func (e *nativeEngine) Accelerated() bool {
	return false
}

func (e *nativeEngine) MatMul(a []float64, m, k int, b []float64,
	n int) ([]float64, error) {
	if len(a) != m*k || len(b) != k*n {
		return nil, fmt.Errorf("matmul: invalid operand sizes "+
			"(%v x %v)·(%v x %v) with %v and %v elements", m, k, k, n,
			len(a), len(b))
	}

	out := make([]float64, m*n)
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			v := a[i*k+p]
			if v == 0 {
				continue
			}
			row := b[p*n:]
			for j := 0; j < n; j++ {
				out[i*n+j] += v * row[j]
			}
		}
	}
	return out, nil
}
