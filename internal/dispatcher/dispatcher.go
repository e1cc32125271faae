// Package dispatcher fans sites out to a fixed pool of workers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/aero-news-crawler/internal/id/uuid"
	"github.com/JakeFAU/aero-news-crawler/internal/metrics"
	"github.com/JakeFAU/aero-news-crawler/internal/news"
	"github.com/JakeFAU/aero-news-crawler/internal/queue/memory"
)

// ErrNotProcessed marks sites still queued when the run was canceled.
var ErrNotProcessed = errors.New("site not processed")

// SiteProcessor handles one site end to end.
type SiteProcessor interface {
	Process(ctx context.Context, site string) news.SiteOutcome
}

// RunIDGenerator mints run identifiers.
type RunIDGenerator interface {
	NewRunID() string
}

// Dispatcher runs a fixed pool of workers over a shared site queue.
type Dispatcher struct {
	processor SiteProcessor
	workers   int
	ids       RunIDGenerator
	logger    *zap.Logger
}

// New creates a Dispatcher with the given pool size.
func New(processor SiteProcessor, workers int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		processor: processor,
		workers:   workers,
		ids:       uuid.NewGenerator(),
		logger:    logger.Named("dispatcher"),
	}
}

// Run processes every site and blocks until the pool drains. Canceling ctx
// stops workers from pulling new sites; sites already in progress finish
// their current candidate first. The summary lists outcomes in input order.
func (d *Dispatcher) Run(ctx context.Context, sites []string) news.Summary {
	summary := news.Summary{
		RunID: d.ids.NewRunID(),
		Sites: make([]news.SiteOutcome, len(sites)),
	}
	logger := d.logger.With(zap.String("run_id", summary.RunID))
	if len(sites) == 0 {
		logger.Info("no sites to process")
		return summary
	}

	queue := memory.NewSiteQueue(sites)
	processed := make([]bool, len(sites))
	workers := min(d.workers, len(sites))
	logger.Info("run started", zap.Int("sites", len(sites)), zap.Int("workers", workers))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			d.work(ctx, logger.With(zap.Int("worker", worker)), queue, summary.Sites, processed)
		}(w)
	}
	wg.Wait()

	for i := range summary.Sites {
		if !processed[i] {
			summary.Sites[i] = news.SiteOutcome{
				Site: sites[i],
				Err:  fmt.Errorf("%w: %w", ErrNotProcessed, context.Cause(ctx)),
			}
		}
		summary.Add(summary.Sites[i])
	}

	logger.Info("run complete",
		zap.Int("sites", len(sites)),
		zap.Int("attempted", summary.Attempted),
		zap.Int("accepted", summary.Accepted),
		zap.Int("failed", summary.Failed),
	)
	return summary
}

// work drains the queue. Each job index is owned by exactly one worker, so
// writes into outcomes and processed never overlap.
func (d *Dispatcher) work(
	ctx context.Context,
	logger *zap.Logger,
	queue *memory.SiteQueue,
	outcomes []news.SiteOutcome,
	processed []bool,
) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	for {
		job, err := queue.Next(ctx)
		if err != nil {
			if !errors.Is(err, memory.ErrDrained) {
				logger.Info("worker stopping before queue drained",
					zap.Int("sites_remaining", queue.Remaining()),
					zap.Error(err),
				)
			}
			return
		}
		start := time.Now()
		outcome := d.process(ctx, logger, job)
		metrics.ObserveSite(outcome.Failed(), time.Since(start))
		outcomes[job.Index] = outcome
		processed[job.Index] = true
	}
}

// process isolates a panicking site so it cannot take down the pool.
func (d *Dispatcher) process(ctx context.Context, logger *zap.Logger, job news.SiteJob) (outcome news.SiteOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("site processor panicked", zap.String("site", job.URL), zap.Any("panic", r))
			outcome = news.SiteOutcome{Site: job.URL, Err: fmt.Errorf("site processor panic: %v", r)}
		}
	}()
	outcome = d.processor.Process(ctx, job.URL)
	outcome.Site = job.URL
	return outcome
}
