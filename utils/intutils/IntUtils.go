// Package intutils implements integer helpers missing from the
// standard library
package intutils

// Min returns the minimum of a list of ints
func Min(ints ...int) int {
	min := ints[0]
	for _, val := range ints {
		if val < min {
			min = val
		}
	}
	return min
}

// Max returns the maximum of a list of ints
func Max(ints ...int) int {
	max := ints[0]
	for _, val := range ints {
		if val > max {
			max = val
		}
	}
	return max
}

// Clamp bounds v to the closed interval [min, max]
func Clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
