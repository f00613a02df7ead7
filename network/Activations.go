package network

// Activation enumerates the activation functions a Layer can apply to
// its pre-activations.
type Activation int

const (
	ReLU Activation = iota
	Identity
)

func (a Activation) String() string {
	switch a {
	case ReLU:
		return "ReLU"
	default:
		return "Identity"
	}
}

// Apply computes the activation of a single pre-activation value
func (a Activation) Apply(x float64) float64 {
	if a == ReLU && x < 0 {
		return 0
	}
	return x
}

// Derivative computes the derivative of the activation with respect to
// its pre-activation. For ReLU the derivative is 0 wherever the
// pre-activation is at most 0, which is what stops gradients at dead
// units.
func (a Activation) Derivative(x float64) float64 {
	if a == ReLU && x <= 0 {
		return 0
	}
	return 1
}
