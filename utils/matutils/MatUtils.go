// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// VecClip performs an element-wise clipping of a vector's values such
// that each value is at least min and at most max
func VecClip(a *mat.VecDense, min, max float64) {
	for i := 0; i < a.Len(); i++ {
		value := a.AtVec(i)

		if value < min {
			a.SetVec(i, min)
		} else if value > max {
			a.SetVec(i, max)
		}
	}
}

// DenseClip performs an element-wise clipping of a matrix's values
// such that each value is at least min and at most max
func DenseClip(a *mat.Dense, min, max float64) {
	data := a.RawMatrix().Data
	for i, value := range data {
		if value < min {
			data[i] = min
		} else if value > max {
			data[i] = max
		}
	}
}
