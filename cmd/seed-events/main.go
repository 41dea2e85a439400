// Command seed-events drives a running service from the outside: it
// registers the demo roster, generates one simulated shift and submits the
// events over HTTP. Re-running it against the same server demonstrates
// idempotent ingestion, with every event acknowledged as a duplicate.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/shiftwatch/internal/demodata"
	"github.com/okian/shiftwatch/pkg/logger"
)

// Default configuration constants.
const (
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the service")
		workers = flag.Int("workers", runtime.NumCPU()*2, "Number of concurrent submitters")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		format  = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(*format); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	submitter := demodata.NewSubmitter(*baseURL, *workers, *timeout)

	if err := submitter.CheckHealth(ctx); err != nil {
		log.Error(ctx, "service is not reachable", logger.String("url", *baseURL), logger.Error(err))
		os.Exit(1)
	}

	if err := submitter.RegisterEntities(ctx); err != nil {
		log.Error(ctx, "failed to register demo roster", logger.Error(err))
		os.Exit(1)
	}

	events := demodata.GenerateShift(demodata.ShiftStart(time.Now()))
	log.Info(ctx, "submitting generated shift",
		logger.Int("events", len(events)),
		logger.Int("workers", *workers),
	)

	start := time.Now()
	stats := submitter.Submit(ctx, events)
	log.Info(ctx, "submission finished",
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Duration("elapsed", time.Since(start)),
	)

	if stats.Failed > 0 {
		os.Exit(1)
	}

	summary, err := submitter.FactorySummary(ctx)
	if err != nil {
		log.Error(ctx, "failed to fetch factory metrics", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "factory metrics", logger.String("summary", summary))
}
