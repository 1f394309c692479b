package dataset

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/edaniels/golog"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// FileFunc processes a single file
type FileFunc func(ctx context.Context, path string) error

// Failure is the error a single file failed with
type Failure struct {
	Path string
	Err  error
}

// Report summarizes a batch run
type Report struct {
	Processed int64
	Failed    int64
	Skipped   int64
	// Err combines every per-file error, nil if all files succeeded
	Err error
	// Failures lists the failed files sorted by path
	Failures []Failure
}

func (r Report) String() string {
	return fmt.Sprintf("processed=%d failed=%d skipped=%d", r.Processed, r.Failed, r.Skipped)
}

// Batch applies a FileFunc to many files with bounded parallelism.
// A failing file is recorded and the batch continues with the rest.
type Batch struct {
	logger  golog.Logger
	workers int
}

// NewBatch creates a Batch running at most workers files at once
func NewBatch(logger golog.Logger, workers int) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{logger: logger, workers: workers}
}

// Run calls fn once per path. Each path is handled by exactly one worker, so
// callers must not list the same path twice. Once ctx is done no new files
// are started and the remaining ones are counted as skipped.
func (b *Batch) Run(ctx context.Context, paths []string, fn FileFunc) Report {
	var (
		processed, failed, skipped atomic.Int64
		mu                         sync.Mutex
		errs                       error
		failures                   []Failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, path := range paths {
		if gctx.Err() != nil {
			skipped.Inc()
			continue
		}
		path := path
		g.Go(func() error {
			if gctx.Err() != nil {
				skipped.Inc()
				return nil
			}
			if err := fn(gctx, path); err != nil {
				failed.Inc()
				b.logger.Warnw("failed to process file", "path", path, "error", err)
				mu.Lock()
				errs = multierr.Append(errs, err)
				failures = append(failures, Failure{Path: path, Err: err})
				mu.Unlock()
				return nil
			}
			processed.Inc()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })

	report := Report{
		Processed: processed.Load(),
		Failed:    failed.Load(),
		Skipped:   skipped.Load(),
		Err:       errs,
		Failures:  failures,
	}
	b.logger.Infow("batch finished", "processed", report.Processed, "failed", report.Failed, "skipped", report.Skipped)
	return report
}
