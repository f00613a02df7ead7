package network

import "fmt"

// Snapshot is a deep, self-describing copy of a network's parameters:
// per-layer weight matrices indexed [layer][in][out], per-layer bias
// vectors indexed [layer][out], and the architecture needed to rebuild
// the network. Mutating a Snapshot never perturbs the network it was
// taken from.
type Snapshot struct {
	Inputs  int           `json:"inputs"`
	Outputs int           `json:"outputs"`
	Hidden  []int         `json:"hidden"`
	Weights [][][]float64 `json:"weights"`
	Biases  [][]float64   `json:"biases"`
}

// Snapshot returns a deep copy of the network's parameters
func (f *FeedForward) Snapshot() *Snapshot {
	s := &Snapshot{
		Inputs:  f.inputs,
		Outputs: f.outputs,
		Hidden:  append([]int(nil), f.hidden...),
		Weights: make([][][]float64, len(f.layers)),
		Biases:  make([][]float64, len(f.layers)),
	}

	for l, layer := range f.layers {
		in, out := layer.Dims()
		s.Weights[l] = make([][]float64, in)
		for i := 0; i < in; i++ {
			row := make([]float64, out)
			for j := 0; j < out; j++ {
				row[j] = layer.weights.At(i, j)
			}
			s.Weights[l][i] = row
		}

		s.Biases[l] = make([]float64, out)
		for j := 0; j < out; j++ {
			s.Biases[l][j] = layer.biases.AtVec(j)
		}
	}
	return s
}

// LoadSnapshot overwrites the network's parameters with deep copies of
// those in the snapshot. The snapshot's architecture must match.
func (f *FeedForward) LoadSnapshot(s *Snapshot) error {
	if err := s.validate(); err != nil {
		return err
	}
	if s.Inputs != f.inputs || s.Outputs != f.outputs ||
		len(s.Weights) != len(f.layers) {
		return fmt.Errorf("loadsnapshot: architecture mismatch "+
			"(%v -> %v, %v layers vs %v -> %v, %v layers)",
			s.Inputs, s.Outputs, len(s.Weights),
			f.inputs, f.outputs, len(f.layers))
	}

	for l, layer := range f.layers {
		in, out := layer.Dims()
		if len(s.Weights[l]) != in || len(s.Biases[l]) != out {
			return fmt.Errorf("loadsnapshot: layer %v shape mismatch", l)
		}
		for i := 0; i < in; i++ {
			if len(s.Weights[l][i]) != out {
				return fmt.Errorf("loadsnapshot: layer %v shape mismatch", l)
			}
			for j := 0; j < out; j++ {
				layer.weights.Set(i, j, s.Weights[l][i][j])
			}
		}
		for j := 0; j < out; j++ {
			layer.biases.SetVec(j, s.Biases[l][j])
		}
	}
	return nil
}

// FromSnapshot builds a new network with the snapshot's architecture
// and parameters
func FromSnapshot(s *Snapshot, learningRate float64,
	seed uint64) (*FeedForward, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	f, err := NewFeedForward(s.Inputs, s.Outputs, s.Hidden, learningRate,
		seed)
	if err != nil {
		return nil, err
	}
	if err := f.LoadSnapshot(s); err != nil {
		return nil, err
	}
	return f, nil
}

// Copy returns a deep copy of the snapshot
func (s *Snapshot) Copy() *Snapshot {
	c := &Snapshot{
		Inputs:  s.Inputs,
		Outputs: s.Outputs,
		Hidden:  append([]int(nil), s.Hidden...),
		Weights: make([][][]float64, len(s.Weights)),
		Biases:  make([][]float64, len(s.Biases)),
	}
	for l := range s.Weights {
		c.Weights[l] = make([][]float64, len(s.Weights[l]))
		for i := range s.Weights[l] {
			c.Weights[l][i] = append([]float64(nil), s.Weights[l][i]...)
		}
	}
	for l := range s.Biases {
		c.Biases[l] = append([]float64(nil), s.Biases[l]...)
	}
	return c
}

func (s *Snapshot) validate() error {
	if s == nil {
		return fmt.Errorf("snapshot: nil snapshot")
	}
	if len(s.Weights) != len(s.Biases) {
		return fmt.Errorf("snapshot: %v weight layers but %v bias layers",
			len(s.Weights), len(s.Biases))
	}
	if len(s.Weights) != len(s.Hidden)+1 {
		return fmt.Errorf("snapshot: %v layers inconsistent with %v "+
			"hidden sizes", len(s.Weights), len(s.Hidden))
	}
	return nil
}
