// Package replay drives an orientation filter over a recorded or generated
// sample stream.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/stat"

	"github.com/knei-knurow/madgwick"
	"github.com/knei-knurow/madgwick/internal/monitoring"
	"github.com/knei-knurow/madgwick/internal/samples"
)

// Options controls a replay.
type Options struct {
	// UseTimestamps sets the filter's integration step to the time elapsed
	// since the previous sample. Non-positive gaps fall back to the step the
	// filter was configured with.
	UseTimestamps bool
}

// Stats summarises a replay.
type Stats struct {
	Samples        int
	Skipped        int
	LongestSkipRun int     // longest run of consecutive discarded samples
	MaxNormError   float64 // max | |q| - 1 | over accepted samples
	DeltaTMean     float64 // mean integration step used (s)
	DeltaTStdDev   float64
}

// Runner feeds samples to one filter. It is not safe for concurrent use.
type Runner struct {
	filter  *madgwick.Filter
	opts    Options
	nominal float64 // configured integration step

	lastT   float64
	haveT   bool
	skipRun int
	runFrom float64

	stats   Stats
	deltats []float64
}

// New returns a Runner driving f.
func New(f *madgwick.Filter, opts Options) *Runner {
	return &Runner{
		filter:  f,
		opts:    opts,
		nominal: f.DeltaT(),
	}
}

// Step fuses one sample and returns the resulting estimate.
func (r *Runner) Step(s samples.Sample) samples.Estimate {
	if r.opts.UseTimestamps {
		r.filter.SetDeltaT(r.deltaT(s.T))
	}
	r.deltats = append(r.deltats, r.filter.DeltaT())

	q := r.filter.Update(s.Acc, s.Gyro, s.Mag)
	skipped := r.filter.Skipped()

	r.stats.Samples++
	if skipped {
		r.stats.Skipped++
		if r.skipRun == 0 {
			r.runFrom = s.T
		}
		r.skipRun++
		if r.skipRun > r.stats.LongestSkipRun {
			r.stats.LongestSkipRun = r.skipRun
		}
	} else {
		r.endSkipRun(s.T)
		if e := math.Abs(quat.Abs(q) - 1); e > r.stats.MaxNormError {
			r.stats.MaxNormError = e
		}
	}

	yaw, pitch, roll := r.filter.Euler()
	return samples.Estimate{
		T:       s.T,
		Q:       q,
		Yaw:     yaw,
		Pitch:   pitch,
		Roll:    roll,
		Skipped: skipped,
	}
}

func (r *Runner) deltaT(t float64) float64 {
	prev, ok := r.lastT, r.haveT
	r.lastT, r.haveT = t, true
	if !ok {
		return r.nominal
	}
	dt := t - prev
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		monitoring.Logf("replay: non-increasing timestamp %g after %g, using deltat=%g", t, prev, r.nominal)
		return r.nominal
	}
	return dt
}

func (r *Runner) endSkipRun(t float64) {
	if r.skipRun == 0 {
		return
	}
	monitoring.Logf("replay: discarded %d degenerate samples from t=%g to t=%g", r.skipRun, r.runFrom, t)
	r.skipRun = 0
}

// Stats returns the statistics gathered so far.
func (r *Runner) Stats() Stats {
	s := r.stats
	if len(r.deltats) > 0 {
		s.DeltaTMean = stat.Mean(r.deltats, nil)
	}
	if len(r.deltats) > 1 {
		s.DeltaTStdDev = stat.StdDev(r.deltats, nil)
	}
	return s
}

// Run steps through src until it is exhausted, passing every estimate to sink
// (which may be nil). It stops early if ctx is cancelled or sink fails.
func (r *Runner) Run(ctx context.Context, src samples.Source, sink func(samples.Estimate) error) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return r.Stats(), err
		}

		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return r.Stats(), fmt.Errorf("read sample %d: %w", r.stats.Samples+1, err)
		}

		e := r.Step(s)
		if sink != nil {
			if err := sink(e); err != nil {
				return r.Stats(), fmt.Errorf("write estimate at t=%g: %w", e.T, err)
			}
		}
	}

	if r.skipRun > 0 {
		monitoring.Logf("replay: stream ended after %d degenerate samples from t=%g", r.skipRun, r.runFrom)
	}
	return r.Stats(), nil
}
