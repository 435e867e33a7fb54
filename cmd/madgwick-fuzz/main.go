// Command madgwick-fuzz drives the filter with random measurements and reports
// estimates that are not finite unit quaternions.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"gonum.org/v1/gonum/num/quat"

	"github.com/knei-knurow/madgwick"
	"github.com/knei-knurow/madgwick/internal/samples"
)

const normTolerance = 1e-9

func main() {
	n := flag.Int("n", 100000, "number of random samples")
	seed := flag.Int64("seed", 1, "random seed")
	deltat := flag.Float64("deltat", 0.01, "integration step in seconds")
	beta := flag.Float64("beta", madgwick.DefaultBeta, "filter gain")
	scale := flag.Float64("scale", 10, "measurements are drawn from [0, scale) per axis")
	fresh := flag.Bool("fresh", false, "reset the filter to identity before every sample")
	dump := flag.String("dump", "", "write the generated samples to this CSV file")
	flag.Parse()

	if *n <= 0 {
		log.Fatalf("-n must be positive")
	}

	gen := samples.NewGenerator(*seed, *n, *deltat)
	gen.Scale = *scale

	var (
		sw *samples.SampleWriter
		bw *bufio.Writer
	)
	if *dump != "" {
		f, err := os.Create(*dump)
		if err != nil {
			log.Fatalf("create dump: %v", err)
		}
		defer f.Close()
		bw = bufio.NewWriter(f)
		sw = samples.NewSampleWriter(bw)
	}

	filter := madgwick.New(*beta, *deltat)
	var skipped, violations int
	for i := 0; ; i++ {
		s, err := gen.Next()
		if err != nil {
			break
		}
		if sw != nil {
			if err := sw.Write(s); err != nil {
				log.Fatalf("dump sample %d: %v", i, err)
			}
		}

		if *fresh {
			filter.Reset()
		}
		q := filter.Update(s.Acc, s.Gyro, s.Mag)
		if filter.Skipped() {
			skipped++
		}

		if msg := check(q); msg != "" {
			violations++
			fmt.Printf("sample %d: %s: acc=%v gyro=%v mag=%v q=%v\n", i, msg, s.Acc, s.Gyro, s.Mag, q)
		}
	}

	if sw != nil {
		if err := sw.Flush(); err != nil {
			log.Fatalf("dump samples: %v", err)
		}
		if err := bw.Flush(); err != nil {
			log.Fatalf("dump samples: %v", err)
		}
	}

	log.Printf("%d samples, %d discarded, %d violations", *n, skipped, violations)
	if violations > 0 {
		os.Exit(1)
	}
}

func check(q quat.Number) string {
	for _, v := range []float64{q.Real, q.Imag, q.Jmag, q.Kmag} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "non-finite component"
		}
	}
	if e := math.Abs(quat.Abs(q) - 1); e > normTolerance {
		return fmt.Sprintf("norm off by %.3g", e)
	}
	return ""
}
