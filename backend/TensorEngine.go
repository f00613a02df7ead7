package backend

import (
	"fmt"

	"gorgonia.org/tensor"
)

// tensorEngine computes batched products through gorgonia's tensor
// package, which dispatches to vectorized kernels.
type tensorEngine struct{}

func newTensorEngine() *tensorEngine {
	return &tensorEngine{}
}

func (t *tensorEngine) Name() string {
	return "gorgonia-tensor"
}

func (t *tensorEngine) Accelerated() bool {
	return true
}

func (t *tensorEngine) MatMul(a []float64, m, k int, b []float64,
	n int) (out []float64, err error) {
	if len(a) != m*k || len(b) != k*n {
		return nil, fmt.Errorf("matmul: invalid operand sizes "+
			"(%v x %v)·(%v x %v) with %v and %v elements", m, k, k, n,
			len(a), len(b))
	}

	// tensor.MatMul panics on malformed shapes rather than returning
	// an error; recover so that the caller can fall back.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("matmul: %v", r)
		}
	}()

	// Operands are copied so the engine never aliases caller memory
	left := tensor.New(tensor.WithShape(m, k),
		tensor.WithBacking(append([]float64(nil), a...)))
	right := tensor.New(tensor.WithShape(k, n),
		tensor.WithBacking(append([]float64(nil), b...)))

	prod, err := tensor.MatMul(left, right)
	if err != nil {
		return nil, fmt.Errorf("matmul: %v", err)
	}

	data, ok := prod.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("matmul: product is not []float64")
	}
	return data, nil
}
