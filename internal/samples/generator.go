package samples

import (
	"io"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Generator produces random measurement triples with every axis drawn from
// [0, Scale). It stops with io.EOF after N samples; N <= 0 never stops.
type Generator struct {
	N      int
	Period float64 // time between samples (s)
	Scale  float64

	rng   *rand.Rand
	count int
}

// NewGenerator returns a Generator of n samples spaced by period, seeded for
// reproducible runs.
func NewGenerator(seed int64, n int, period float64) *Generator {
	return &Generator{
		N:      n,
		Period: period,
		Scale:  10,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Next implements Source.
func (g *Generator) Next() (Sample, error) {
	if g.N > 0 && g.count >= g.N {
		return Sample{}, io.EOF
	}
	s := Sample{
		T:    float64(g.count) * g.Period,
		Acc:  g.axis(),
		Gyro: g.axis(),
		Mag:  g.axis(),
	}
	g.count++
	return s, nil
}

func (g *Generator) axis() r3.Vec {
	return vec(g.rng.Float64()*g.Scale, g.rng.Float64()*g.Scale, g.rng.Float64()*g.Scale)
}

func vec(x, y, z float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}
