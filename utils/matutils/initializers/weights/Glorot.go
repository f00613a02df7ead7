package weights

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// NewGlorotNUV returns a LinearUV drawing from the Glorot (Xavier)
// normal distribution for a layer with the given fan-in and fan-out:
// N(0, sqrt(2 / (fanIn + fanOut))).
func NewGlorotNUV(fanIn, fanOut int, src rand.Source) LinearUV {
	scale := math.Sqrt(2.0 / float64(fanIn+fanOut))
	dist := distuv.Normal{
		Mu:    0,
		Sigma: scale,
		Src:   src,
	}
	return NewLinearUV(dist)
}
