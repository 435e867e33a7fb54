// Command madgwick-replay runs a recorded CSV sample stream through the
// Madgwick filter and writes the orientation estimates as CSV.
package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/knei-knurow/madgwick/internal/config"
	"github.com/knei-knurow/madgwick/internal/monitoring"
	"github.com/knei-knurow/madgwick/internal/plotter"
	"github.com/knei-knurow/madgwick/internal/replay"
	"github.com/knei-knurow/madgwick/internal/samples"
	"github.com/knei-knurow/madgwick/internal/store"
)

func main() {
	var (
		configPath string
		inPath     string
		outPath    string
		dbPath     string
		plotPath   string
		beta       float64
		deltat     float64
		timestamps bool
	)

	flag.StringVar(&configPath, "config", "", "tuning config (.json, .yaml or .yml)")
	flag.StringVar(&inPath, "in", "-", "input sample CSV (t,ax,ay,az,gx,gy,gz,mx,my,mz), - for stdin")
	flag.StringVar(&outPath, "out", "-", "output estimate CSV, - for stdout")
	flag.StringVar(&dbPath, "db", "", "record the run in this sqlite database")
	flag.StringVar(&plotPath, "plot", "", "write orientation plots using this base name")
	flag.Float64Var(&beta, "beta", 0, "filter gain (overrides config)")
	flag.Float64Var(&deltat, "deltat", 0, "integration step in seconds (overrides config)")
	flag.BoolVar(&timestamps, "timestamps", false, "derive the integration step from sample timestamps (overrides config)")
	flag.Parse()

	monitoring.SetLogger(log.Printf)

	cfg := config.EmptyTuningConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "beta":
			cfg.SetBeta(beta)
		case "deltat":
			cfg.SetDeltaT(deltat)
		case "timestamps":
			cfg.SetUseTimestamps(timestamps)
		}
	})

	filter, err := cfg.NewFilter()
	if err != nil {
		log.Fatalf("configure filter: %v", err)
	}

	in := io.Reader(os.Stdin)
	if inPath != "-" {
		f, err := os.Open(inPath)
		if err != nil {
			log.Fatalf("open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	out := io.Writer(os.Stdout)
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("create output: %v", err)
		}
		defer f.Close()
		out = f
	}
	bw := bufio.NewWriter(out)
	ew := samples.NewEstimateWriter(bw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Estimates are only kept in memory when something needs the whole run.
	keep := dbPath != "" || plotPath != ""
	var estimates []samples.Estimate

	runner := replay.New(filter, replay.Options{UseTimestamps: cfg.GetUseTimestamps()})
	stats, err := runner.Run(ctx, samples.NewReader(in), func(e samples.Estimate) error {
		if keep {
			estimates = append(estimates, e)
		}
		return ew.Write(e)
	})
	if err != nil {
		log.Fatalf("replay: %v", err)
	}
	if err := ew.Flush(); err != nil {
		log.Fatalf("write estimates: %v", err)
	}
	if err := bw.Flush(); err != nil {
		log.Fatalf("write estimates: %v", err)
	}

	monitoring.Logf("replayed %d samples (%d discarded, longest run %d), max norm error %.3g, deltat %.4g±%.2g s",
		stats.Samples, stats.Skipped, stats.LongestSkipRun, stats.MaxNormError, stats.DeltaTMean, stats.DeltaTStdDev)

	if dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()

		run, err := db.CreateRun(ctx, inPath, filter.Beta(), cfgDeltaT(cfg), cfg.GetUseTimestamps())
		if err != nil {
			log.Fatalf("create run: %v", err)
		}
		if err := db.RecordEstimates(ctx, run.ID, estimates); err != nil {
			log.Fatalf("record estimates: %v", err)
		}
		if err := db.FinishRun(ctx, run.ID, stats.Samples, stats.Skipped); err != nil {
			log.Fatalf("finish run: %v", err)
		}
		monitoring.Logf("recorded run %s in %s", run.ID, dbPath)
	}

	if plotPath != "" {
		files, err := plotter.SaveOrientationPlots(plotPath, estimates)
		if err != nil {
			log.Fatalf("plot: %v", err)
		}
		for _, f := range files {
			monitoring.Logf("wrote %s", f)
		}
	}
}

// cfgDeltaT is the configured step, which the filter's current step may no
// longer match after a timestamp-driven replay.
func cfgDeltaT(cfg *config.TuningConfig) float64 {
	dt, _ := cfg.GetDeltaT()
	return dt
}
