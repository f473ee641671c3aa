// Package batch cleans dumps of wiki records on a bounded pool of workers.
package batch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/terraria-rag/wikiclean/internal/wiki"
)

// DefaultProgressEvery is how many records pass between progress log lines.
const DefaultProgressEvery = 100

// Cleaner cleans a single record. *wiki.Cleaner implements it.
type Cleaner interface {
	CleanRecord(rec wiki.Record) (wiki.Record, error)
}

// Filter decides which records are dropped. *wiki.ExcludeFilter implements it.
type Filter interface {
	Excluded(title string) bool
}

// Runner cleans many records concurrently.
type Runner struct {
	Cleaner Cleaner
	// Filter drops records by title. Nil keeps everything.
	Filter Filter
	// Workers bounds concurrency. Values below one mean one.
	Workers int
	// SkipErrors logs and drops records whose cleaning fails instead of
	// aborting the run.
	SkipErrors    bool
	ProgressEvery int
	Logger        *zap.Logger
}

// Stats summarizes a run.
type Stats struct {
	RunID    string
	Total    int
	Cleaned  int
	Excluded int
	Failed   int
	// Degraded counts cleaned records that gained warnings.
	Degraded int
	Elapsed  time.Duration
}

type outcome int

const (
	pending outcome = iota
	cleaned
	excluded
	failed
)

type result struct {
	rec      wiki.Record
	outcome  outcome
	degraded bool
}

// Run cleans recs and returns the kept records in input order.
//
// Without SkipErrors the first cleaning error cancels the remaining work and
// is returned. Cancelling ctx stops the run with ctx's error.
func (r *Runner) Run(ctx context.Context, recs []wiki.Record) ([]wiki.Record, Stats, error) {
	start := time.Now()
	stats := Stats{RunID: uuid.NewString(), Total: len(recs)}

	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", stats.RunID))

	workers := max(r.Workers, 1)
	every := r.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}

	log.Info("batch started", zap.Int("records", len(recs)), zap.Int("workers", workers))

	results := make([]result, len(recs))
	progress := rate.Sometimes{Every: every}
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range recs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.process(&recs[i], &results[i], log); err != nil {
				return err
			}

			n := processed.Add(1)
			progress.Do(func() {
				log.Info("progress", zap.Int64("processed", n), zap.Int("total", len(recs)))
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	out := make([]wiki.Record, 0, len(recs))
	for _, res := range results {
		switch res.outcome {
		case cleaned:
			stats.Cleaned++
			if res.degraded {
				stats.Degraded++
			}
			out = append(out, res.rec)
		case excluded:
			stats.Excluded++
		case failed:
			stats.Failed++
		}
	}
	stats.Elapsed = time.Since(start)

	log.Info("batch finished",
		zap.Int("cleaned", stats.Cleaned),
		zap.Int("excluded", stats.Excluded),
		zap.Int("failed", stats.Failed),
		zap.Int("degraded", stats.Degraded),
		zap.Duration("elapsed", stats.Elapsed))

	return out, stats, nil
}

func (r *Runner) process(in *wiki.Record, res *result, log *zap.Logger) error {
	if r.Filter != nil && r.Filter.Excluded(in.Title) {
		res.outcome = excluded
		log.Debug("record excluded", zap.String("title", in.Title))
		return nil
	}

	out, err := r.Cleaner.CleanRecord(*in)
	if err != nil {
		if !r.SkipErrors {
			return err
		}
		res.outcome = failed
		log.Warn("skipping record", zap.String("title", in.Title), zap.Error(err))
		return nil
	}

	res.rec = out
	res.outcome = cleaned
	res.degraded = len(out.Warnings) > len(in.Warnings)
	if res.degraded {
		log.Debug("record degraded", zap.String("title", in.Title), zap.Strings("warnings", out.Warnings))
	}
	return nil
}
