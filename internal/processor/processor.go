// Package processor runs report summarization on a fixed pool of workers.
package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
	"github.com/theduckgroup/Apps-sub000/internal/report"
)

// ErrStopped is returned to callers whose batch could not finish because
// the pool was shut down.
var ErrStopped = errors.New("processor stopped")

const defaultBatchTimeout = 30 * time.Second

type task struct {
	index  int
	report *domain.Report
	reply  chan<- result
}

type result struct {
	index   int
	summary *domain.ReportSummary
}

// OrderedProcessor summarizes reports concurrently and returns results in
// input order. Each batch gets its own reply channel so concurrent callers
// never see each other's results.
type OrderedProcessor struct {
	workers int
	tasks   chan task
	timeout time.Duration
	logger  *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

var _ domain.ReportSummarizer = (*OrderedProcessor)(nil)

func NewReportProcessor(workers, queueSize int, logger *zap.Logger) *OrderedProcessor {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	return &OrderedProcessor{
		workers: workers,
		tasks:   make(chan task, queueSize),
		timeout: defaultBatchTimeout,
		logger:  logger,
		stop:    make(chan struct{}),
	}
}

func (p *OrderedProcessor) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("report processor started", zap.Int("workers", p.workers))
}

// Stop signals workers to exit and waits for them. Batches still in flight
// fail with ErrStopped.
func (p *OrderedProcessor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.wg.Wait()
		p.logger.Info("report processor stopped")
	})
}

func (p *OrderedProcessor) SummarizeReports(ctx context.Context, reports []*domain.Report) ([]*domain.ReportSummary, error) {
	if len(reports) == 0 {
		return []*domain.ReportSummary{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	replies := make(chan result, len(reports))
	for i, r := range reports {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.stop:
			return nil, ErrStopped
		case p.tasks <- task{index: i, report: r, reply: replies}:
		}
	}

	out := make([]*domain.ReportSummary, len(reports))
	for collected := 0; collected < len(reports); collected++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.stop:
			return nil, ErrStopped
		case res := <-replies:
			out[res.index] = res.summary
		}
	}
	return out, nil
}

func (p *OrderedProcessor) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			p.logger.Debug("worker stopping", zap.Int("worker_id", id))
			return
		case t := <-p.tasks:
			start := time.Now()
			summary := report.Summarize(t.report)
			p.logger.Debug("report summarized",
				zap.Int("worker_id", id),
				zap.String("report_id", t.report.ID),
				zap.Duration("duration", time.Since(start)),
			)
			// replies is buffered to the batch size, so this never blocks.
			t.reply <- result{index: t.index, summary: summary}
		}
	}
}
